package web

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"boardnav/internal/model"
	"boardnav/internal/nav"
	"boardnav/internal/preview"

	"github.com/starfederation/datastar-go/datastar"
)

// boardView is one request's navigator: the loaded tree and a controller restored from the
// request location. The child cache is shared across requests.
type boardView struct {
	s     *Server
	board *model.Board
	tree  *nav.Tree
	ctrl  *nav.Controller
}

// pageLinks is the policy of server-rendered links. They always carry the sub-item so a card
// click can select it; the shareable location still follows the configured policy.
var pageLinks = nav.LocationPolicy{SubItem: true}

func (s *Server) loadView(r *http.Request, boardID, location string, pol nav.LocationPolicy) (*boardView, error) {
	ctx := r.Context()
	b, err := s.store.BoardTree(ctx, boardID)
	if err != nil {
		return nil, err
	}
	tree := nav.NewTree(b)
	ctrl := nav.NewController(tree, nav.Options{
		Policy: pol,
		Loader: s.cache,
		Logger: s.log,
	})
	// A page render waits for the children the restore requested.
	if err := ctrl.RestoreAndWait(ctx, s.cache, location); err != nil {
		return nil, err
	}
	return &boardView{s: s, board: b, tree: tree, ctrl: ctrl}, nil
}

func (v *boardView) columns() []nav.ColumnState {
	return nav.VisibleColumns(v.tree, v.ctrl.Path(), v.s.cache)
}

func (v *boardView) compose(hover nav.Path) preview.Preview {
	return preview.Composer{Tree: v.tree, Children: v.s.cache}.Compose(v.ctrl.Path(), hover)
}

// shareable is the location shown to the user, encoded with the configured policy.
func (v *boardView) shareable() string { return v.s.cfg.Policy.Encode(v.ctrl.Path()) }

func (v *boardView) boardURL(p nav.Path) string {
	u := "/boards/" + url.PathEscape(v.board.ID)
	if loc := v.ctrl.Policy().Encode(p); loc != "" {
		u += "?" + loc
	}
	return u
}

func (v *boardView) previewURL(hover *nav.ColumnItem, l nav.Level) string {
	q := url.Values{}
	p := v.ctrl.Path()
	if p.CollectionID != "" {
		q.Set(nav.ParamList, p.CollectionID)
	}
	if p.ItemID != "" {
		q.Set(nav.ParamTask, p.ItemID)
	}
	if p.SubItemID != "" {
		q.Set(nav.ParamSub, p.SubItemID)
	}
	if hover != nil {
		q.Set(paramHoverLevel, l.String())
		q.Set(paramHoverID, hover.ID)
	}
	return "/boards/" + url.PathEscape(v.board.ID) + "/preview?" + q.Encode()
}

// Hover query parameters of the preview stream.
const (
	paramHoverLevel = "hl"
	paramHoverID    = "hid"
)

func parseLevel(s string) (nav.Level, bool) {
	for _, l := range nav.Levels {
		if l.String() == s {
			return l, true
		}
	}
	return 0, false
}

func levelOfKind(k model.Kind) nav.Level {
	switch k {
	case model.KindItem:
		return nav.LevelItem
	case model.KindSubItem:
		return nav.LevelSubItem
	}
	return nav.LevelCollection
}

var kindSegByLevel = [...]string{"collections", "items", "subitems"}

func actionSeg(a nav.Action) string {
	switch a {
	case nav.ActionToggleComplete:
		return "toggle"
	case nav.ActionEdit:
		return "rename"
	case nav.ActionDelete:
		return "delete"
	}
	return ""
}

func actionFromSeg(seg string) (nav.Action, bool) {
	for _, a := range []nav.Action{nav.ActionToggleComplete, nav.ActionEdit, nav.ActionDelete} {
		if actionSeg(a) == seg {
			return a, true
		}
	}
	return 0, false
}

type boardVM struct {
	Board    *model.Board
	Location string
	ReadOnly bool
	LeaveURL string
	Columns  []columnVM
	Preview  previewVM
}

type columnVM struct {
	Level   string
	Title   string
	Loading bool
	Error   string
	Cards   []cardVM
}

type cardVM struct {
	ID          string
	Title       string
	Icon        string
	Href        string
	HoverURL    string
	Selected    bool
	Completed   bool
	HasChildren bool
	Count       string
	LabelColors []string
	Priority    string
	Due         string
	Actions     []actionVM
}

type actionVM struct {
	Name      string
	URL       string
	NeedsName bool
}

type previewVM struct {
	Empty         bool
	Kind          string
	Source        string
	Title         string
	Completed     bool
	Parent        string
	Description   template.HTML
	Link          string
	Priority      string
	Due           string
	Labels        []model.Label
	ChildLabel    string
	Children      []string
	ChildrenKnown bool
}

func (v *boardView) vm(readOnly bool) boardVM {
	out := boardVM{
		Board:    v.board,
		Location: v.shareable(),
		ReadOnly: readOnly,
		LeaveURL: v.previewURL(nil, 0),
		Preview:  previewVMFrom(v.compose(nav.Path{})),
	}
	for _, col := range v.columns() {
		cvm := columnVM{Level: col.Level.String(), Title: col.Title, Loading: col.Loading}
		if col.Err != nil {
			cvm.Error = col.Err.Error()
		}
		for i := range col.Items {
			it := col.Items[i]
			card := cardVM{
				ID:          it.ID,
				Title:       it.Title,
				Icon:        string(it.Icon),
				Href:        v.boardURL(v.ctrl.Next(col.Level, it.ID)),
				HoverURL:    v.previewURL(&it, col.Level),
				Selected:    it.ID == col.SelectedID,
				Completed:   it.Completed,
				HasChildren: it.HasChildren,
				LabelColors: it.Meta.LabelColors,
				Priority:    string(it.Meta.Priority),
				Due:         formatDue(it.Meta.Due),
			}
			if it.Meta.Count != nil {
				card.Count = strconv.Itoa(*it.Meta.Count)
			}
			if !readOnly {
				for _, a := range v.s.caps.For(col.Level).Actions() {
					u := fmt.Sprintf("/boards/%s/actions/%s/%s/%s", url.PathEscape(v.board.ID), actionSeg(a), kindSegByLevel[col.Level], url.PathEscape(it.ID))
					if loc := v.ctrl.Location(); loc != "" {
						u += "?" + loc
					}
					card.Actions = append(card.Actions, actionVM{Name: actionSeg(a), URL: u, NeedsName: a == nav.ActionEdit})
				}
			}
			cvm.Cards = append(cvm.Cards, card)
		}
		out.Columns = append(out.Columns, cvm)
	}
	return out
}

func previewVMFrom(p preview.Preview) previewVM {
	vm := previewVM{Kind: p.Kind.String(), Source: p.Source.String(), Title: p.Title()}
	switch p.Kind {
	case preview.KindNone:
		vm.Empty = true
	case preview.KindCollection:
		c := p.Collection
		vm.Completed, vm.Priority, vm.Due, vm.Labels = c.Completed, string(c.Priority), formatDue(c.Due), c.Labels
		vm.ChildLabel = "Items"
		vm.ChildrenKnown = true
		for _, it := range p.Items {
			vm.Children = append(vm.Children, it.Name)
		}
	case preview.KindItem:
		it := p.Item
		vm.Completed, vm.Priority, vm.Due, vm.Labels = it.Completed, string(it.Priority), formatDue(it.Due), it.Labels
		vm.Description = renderMarkdownHTML(it.Description)
		vm.Link = it.Link
		if p.Collection != nil {
			vm.Parent = p.Collection.Name
		}
		vm.ChildLabel = "Sub-items"
		vm.ChildrenKnown = p.ChildrenKnown
		for _, s := range p.SubItems {
			vm.Children = append(vm.Children, s.Name)
		}
	case preview.KindSubItem:
		s := p.SubItem
		vm.Completed, vm.Priority, vm.Due = s.Completed, string(s.Priority), formatDue(s.Due)
		// The parent item supplies the label context.
		vm.Labels = s.Labels
		if len(vm.Labels) == 0 {
			vm.Labels = p.Item.Labels
		}
		vm.Parent = p.Item.Name
	}
	return vm
}

func formatDue(d *model.DateTime) string {
	if d == nil || strings.TrimSpace(d.Date) == "" {
		return ""
	}
	if d.Time != nil && strings.TrimSpace(*d.Time) != "" {
		return d.Date + " " + strings.TrimSpace(*d.Time)
	}
	return d.Date
}

type homeVM struct {
	Boards []model.Board
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	boards, err := s.store.Boards(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.writeHTMLTemplate(w, "index.html", homeVM{Boards: boards})
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	v, err := s.loadView(r, strings.TrimSpace(r.PathValue("boardId")), r.URL.RawQuery, pageLinks)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.writeHTMLTemplate(w, "board.html", v.vm(s.cfg.ReadOnly))
}

// handleBoardPreview streams the preview pane for the current selection plus an optional hovered
// card. Hovering never loads children; only the selected item's list is fetched.
func (s *Server) handleBoardPreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v, err := s.loadView(r, strings.TrimSpace(r.PathValue("boardId")), r.URL.RawQuery, pageLinks)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	var hover nav.HoverState
	if l, ok := parseLevel(q.Get(paramHoverLevel)); ok {
		hover.Set(l, strings.TrimSpace(q.Get(paramHoverID)))
	}

	sse := datastar.NewSSE(w, r)
	html, err := s.renderTemplate("preview", previewVMFrom(v.compose(hover.Path())))
	if err != nil {
		_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
		return
	}
	_ = sse.PatchElements(html, datastar.WithSelector("#preview"), datastar.WithMode(datastar.ElementPatchModeInner))
}

// handleBoardAction performs a column action from the HTML page and redirects back to the
// location it was issued from.
func (s *Server) handleBoardAction(w http.ResponseWriter, r *http.Request) {
	if s.cfg.ReadOnly {
		http.Error(w, errReadOnly.Error(), http.StatusForbidden)
		return
	}
	boardID := strings.TrimSpace(r.PathValue("boardId"))
	action, ok := actionFromSeg(r.PathValue("action"))
	kind, kindOK := kindFromPath(r.PathValue("kind"))
	if !ok || !kindOK {
		http.NotFound(w, r)
		return
	}
	if !s.caps.For(levelOfKind(kind)).Has(action) {
		http.Error(w, fmt.Sprintf("%s is not available for %s", action, kind), http.StatusForbidden)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	ctx := r.Context()
	var (
		ref model.Ref
		err error
	)
	switch action {
	case nav.ActionToggleComplete:
		ref, err = s.store.ToggleCompleted(ctx, kind, id)
	case nav.ActionEdit:
		ref, err = s.store.Rename(ctx, kind, id, r.FormValue("name"))
	case nav.ActionDelete:
		ref, err = s.store.Delete(ctx, kind, id)
	}
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.cache.InvalidateFor(ref, action == nav.ActionDelete)
	s.log.Debug().Stringer("action", action).Stringer("kind", kind).Str("id", id).Msg("column action")

	back := "/boards/" + url.PathEscape(boardID)
	if r.URL.RawQuery != "" {
		back += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
