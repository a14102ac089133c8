package tui

import (
	"context"
	"strings"
	"time"

	"boardnav/internal/childcache"
	"boardnav/internal/logging"
	"boardnav/internal/model"
	"boardnav/internal/nav"
	"boardnav/internal/preview"
	"boardnav/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

type (
	treeLoadedMsg struct {
		board *model.Board
		err   error
	}
	cacheEventMsg childcache.Event
	actionDoneMsg struct {
		intent actionIntentMsg
		ref    model.Ref
		err    error
	}
)

const requestTimeout = 15 * time.Second

// appDeps wires the navigator to its collaborators.
type appDeps struct {
	Backend  Backend
	Cache    *childcache.Cache
	Events   <-chan childcache.Event
	Board    *model.Board
	Location string
	Policy   nav.LocationPolicy
	Caps     nav.ColumnCapabilities

	// DataDir holds nav_state.json. Empty disables persistence.
	DataDir  string
	NavState *store.NavState
}

type renamePrompt struct {
	target actionIntentMsg
	input  textinput.Model
}

type appModel struct {
	ctx     context.Context
	backend Backend
	cache   *childcache.Cache
	events  <-chan childcache.Event
	log     zerolog.Logger

	board *model.Board
	tree  *nav.Tree
	hover *nav.HoverState
	ctrl  *nav.Controller
	caps  nav.ColumnCapabilities

	// focus is the keyboard column. mouseCol is the column the pointer is in, if any.
	focus    nav.Level
	mouseCol nav.Level
	mouseIn  bool

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	rename  *renamePrompt
	flash   *flash

	width  int
	height int
}

func newAppModel(ctx context.Context, d appDeps) appModel {
	tree := nav.NewTree(d.Board)
	hover := &nav.HoverState{}
	log := logging.Component("tui")

	m := appModel{
		ctx:     ctx,
		backend: d.Backend,
		cache:   d.Cache,
		events:  d.Events,
		log:     log,
		board:   d.Board,
		tree:    tree,
		hover:   hover,
		caps:    d.Caps,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		flash:   &flash{},
	}

	var onLocation func(string)
	if d.DataDir != "" && d.Board != nil {
		onLocation = rememberLocation(d.DataDir, d.NavState, d.Board.ID, log)
	}
	var loader nav.ChildLoader
	if d.Cache != nil {
		loader = d.Cache
	}
	m.ctrl = nav.NewController(tree, nav.Options{
		Policy:     d.Policy,
		Loader:     loader,
		Hover:      hover,
		OnLocation: onLocation,
		Logger:     log,
	})
	m.ctrl.RestoreFromExternalState(d.Location)
	m.focus = m.deepestColumn()
	return m
}

// rememberLocation persists the last location of boardID after every selection change.
func rememberLocation(dir string, st *store.NavState, boardID string, log zerolog.Logger) func(string) {
	if st == nil {
		st = &store.NavState{Version: 1}
	}
	return func(loc string) {
		st.Remember(boardID, loc)
		if err := store.SaveNavState(dir, st); err != nil {
			log.Warn().Err(err).Msg("save nav state")
		}
	}
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForCacheEvent(m.events))
}

// waitForCacheEvent turns the next cache observer event into a message.
func waitForCacheEvent(ch <-chan childcache.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return cacheEventMsg(ev)
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.reconcileSubItem()
		return m, cmd

	case flashExpiredMsg:
		m.flash.expire(msg)
		return m, nil

	case cacheEventMsg:
		return m, tea.Batch(m.onCacheEvent(childcache.Event(msg)), waitForCacheEvent(m.events))

	case treeLoadedMsg:
		if msg.err != nil {
			return m, m.flash.Notify(noticeError, "Reload failed: "+msg.err.Error())
		}
		m.board = msg.board
		m.tree = nav.NewTree(msg.board)
		m.ctrl.SetTree(m.tree)
		m.clampFocus()
		return m, nil

	case actionDoneMsg:
		return m, m.onActionDone(msg)

	case selectIntentMsg, hoverIntentMsg, actionIntentMsg:
		return m.handleIntent(msg)

	case tea.MouseMsg:
		if m.rename != nil {
			return m, nil
		}
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.rename != nil {
			return m.updateRename(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m appModel) onCacheEvent(ev childcache.Event) tea.Cmd {
	sel := m.ctrl.Path()
	if ev.Request.ParentID != sel.ItemID {
		return nil
	}
	switch ev.Kind {
	case childcache.EventFetched:
		// Re-check a restored sub-item id now that the list is known.
		m.ctrl.SetTree(m.tree)
	case childcache.EventFailed:
		text := "Couldn't load sub-items"
		if ev.Err != nil {
			text += ": " + ev.Err.Error()
		}
		return m.flash.Notify(noticeError, text)
	}
	return nil
}

// reconcileSubItem re-checks a selected sub-item against the cached list. It backs up the
// EventFetched path, whose event may be dropped when the forwarding channel is full.
func (m appModel) reconcileSubItem() {
	sel := m.ctrl.Path()
	if sel.SubItemID == "" || m.cache == nil {
		return
	}
	if _, ok := m.cache.Peek(sel.ItemID); ok {
		m.ctrl.SetTree(m.tree)
	}
}

func (m appModel) handleIntent(msg tea.Msg) (appModel, tea.Cmd) {
	switch msg := msg.(type) {
	case selectIntentMsg:
		m.ctrl.Select(msg.Level, msg.ID)
		m.focus = msg.Level
		if m.ctrl.Path().At(msg.Level) == msg.ID && msg.Level < nav.LevelSubItem {
			m.focus = msg.Level + 1
		}
		m.clampFocus()
		return m, nil

	case hoverIntentMsg:
		if msg.ID == "" {
			m.hover.Leave(msg.Level)
			return m, nil
		}
		m.hover.Set(msg.Level, msg.ID)
		m.focus = msg.Level
		return m, nil

	case actionIntentMsg:
		if !m.caps.For(msg.Level).Has(msg.Action) {
			return m, nil
		}
		if msg.Action == nav.ActionEdit {
			cmd := m.openRename(msg)
			return m, cmd
		}
		return m, m.performAction(msg, "")
	}
	return m, nil
}

func (m appModel) handleMouse(msg tea.MouseMsg) (appModel, tea.Cmd) {
	cols := m.columns()
	lay := m.layout(len(cols))
	y := msg.Y - lay.bodyTop
	i, ok := lay.columnAt(msg.X)
	if y < 0 || y >= lay.bodyH {
		ok = false
	}

	if msg.Action == tea.MouseActionMotion {
		if m.mouseIn && (!ok || cols[i].state.Level != m.mouseCol) {
			m.hover.Leave(m.mouseCol)
			m.mouseIn = false
		}
		if ok {
			m.mouseIn, m.mouseCol = true, cols[i].state.Level
		}
	}
	if !ok {
		return m, nil
	}

	var intent tea.Msg
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		intent = cols[i].moveHover(-1)
	case tea.MouseButtonWheelDown:
		intent = cols[i].moveHover(1)
	default:
		intent = cols[i].mouseIntent(msg, msg.X-lay.colX[i], y)
	}
	if intent == nil {
		return m, nil
	}
	return m.handleIntent(intent)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.clampFocus()
	cols := m.columns()
	cur := cols[m.focus]

	var intent tea.Msg
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Up):
		intent = cur.moveHover(-1)
	case key.Matches(msg, m.keys.Down):
		intent = cur.moveHover(1)
	case key.Matches(msg, m.keys.Left):
		if m.focus > nav.LevelCollection {
			m.hover.Leave(m.focus)
			m.focus--
		}
		return m, nil
	case key.Matches(msg, m.keys.Right):
		if int(m.focus)+1 < len(cols) {
			m.focus++
			if m.hover.At(m.focus) == "" {
				intent = cols[m.focus].moveHover(0)
			}
		}
	case key.Matches(msg, m.keys.Select):
		if id, ok := cur.keyTarget(); ok {
			intent = selectIntentMsg{Level: m.focus, ID: id}
		}
	case key.Matches(msg, m.keys.Back):
		// Collapse the focused column's selection, or the parent's when nothing is open here.
		lvl := m.focus
		if m.ctrl.Path().At(lvl) == "" && lvl > nav.LevelCollection {
			lvl--
		}
		if id := m.ctrl.Path().At(lvl); id != "" {
			m.ctrl.Select(lvl, id)
			m.focus = lvl
			m.clampFocus()
		}
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		intent = cur.actionIntent(nav.ActionToggleComplete)
	case key.Matches(msg, m.keys.Rename):
		intent = cur.actionIntent(nav.ActionEdit)
	case key.Matches(msg, m.keys.Delete):
		intent = cur.actionIntent(nav.ActionDelete)
	case key.Matches(msg, m.keys.Copy):
		return m, m.copyLocation()
	case key.Matches(msg, m.keys.Reload):
		return m, m.reloadTree()
	}
	if intent == nil {
		return m, nil
	}
	return m.handleIntent(intent)
}

func (m appModel) copyLocation() tea.Cmd {
	loc := m.ctrl.Location()
	if err := copyToClipboard(loc); err != nil {
		return m.flash.Notify(noticeError, "Copy failed: "+err.Error())
	}
	if loc == "" {
		return m.flash.Notify(noticeInfo, "Copied empty location (board root)")
	}
	return m.flash.Notify(noticeInfo, "Copied "+loc)
}

func (m *appModel) openRename(intent actionIntentMsg) tea.Cmd {
	ti := textinput.New()
	ti.Prompt = "Rename: "
	ti.CharLimit = 200
	ti.SetValue(m.titleOf(intent.Level, intent.ID))
	ti.CursorEnd()
	m.rename = &renamePrompt{target: intent, input: ti}
	return m.rename.input.Focus()
}

func (m appModel) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.rename = nil
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		name := strings.TrimSpace(m.rename.input.Value())
		target := m.rename.target
		m.rename = nil
		if name == "" {
			return m, m.flash.Notify(noticeError, "Name can't be empty")
		}
		return m, m.performAction(target, name)
	}
	var cmd tea.Cmd
	m.rename.input, cmd = m.rename.input.Update(msg)
	return m, cmd
}

// titleOf finds the display title of id in the visible column l.
func (m appModel) titleOf(l nav.Level, id string) string {
	for _, c := range m.columns() {
		if c.state.Level != l {
			continue
		}
		for _, it := range c.state.Items {
			if it.ID == id {
				return it.Title
			}
		}
	}
	return ""
}

func kindOf(l nav.Level) model.Kind {
	switch l {
	case nav.LevelItem:
		return model.KindItem
	case nav.LevelSubItem:
		return model.KindSubItem
	}
	return model.KindCollection
}

// performAction forwards an action intent to the backend.
func (m appModel) performAction(intent actionIntentMsg, name string) tea.Cmd {
	backend, parent := m.backend, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, requestTimeout)
		defer cancel()
		kind := kindOf(intent.Level)
		var (
			ref model.Ref
			err error
		)
		switch intent.Action {
		case nav.ActionToggleComplete:
			ref, err = backend.ToggleCompleted(ctx, kind, intent.ID)
		case nav.ActionEdit:
			ref, err = backend.Rename(ctx, kind, intent.ID, name)
		case nav.ActionDelete:
			ref, err = backend.Delete(ctx, kind, intent.ID)
		}
		return actionDoneMsg{intent: intent, ref: ref, err: err}
	}
}

func (m appModel) onActionDone(msg actionDoneMsg) tea.Cmd {
	if msg.err != nil {
		m.log.Warn().Err(msg.err).Stringer("action", msg.intent.Action).Str("id", msg.intent.ID).Msg("action failed")
		return m.flash.Notify(noticeError, msg.intent.Action.String()+" failed: "+msg.err.Error())
	}
	if m.cache != nil {
		m.cache.InvalidateFor(msg.ref, msg.intent.Action == nav.ActionDelete)
		// The open sub-item column would otherwise sit empty until something asks again.
		if p := m.ctrl.Path(); msg.ref.Kind == model.KindSubItem && msg.ref.ParentID == p.ItemID {
			m.cache.Prefetch(p.ItemID)
		}
	}

	var text string
	switch msg.intent.Action {
	case nav.ActionToggleComplete:
		text = "Marked not done"
		if msg.ref.Completed {
			text = "Marked done"
		}
	case nav.ActionEdit:
		text = "Renamed"
	case nav.ActionDelete:
		text = "Deleted"
		m.hover.Leave(msg.intent.Level)
	}
	return tea.Batch(m.flash.Notify(noticeInfo, text), m.reloadTree())
}

func (m appModel) reloadTree() tea.Cmd {
	if m.board == nil {
		return nil
	}
	backend, parent, boardID := m.backend, m.ctx, m.board.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, requestTimeout)
		defer cancel()
		b, err := backend.BoardTree(ctx, boardID)
		return treeLoadedMsg{board: b, err: err}
	}
}

// columns builds the visible column views from the navigator state.
func (m appModel) columns() []column {
	var src nav.ChildSource
	if m.cache != nil {
		src = m.cache
	}
	states := nav.VisibleColumns(m.tree, m.ctrl.Path(), src)
	lay := m.layout(len(states))
	out := make([]column, 0, len(states))
	for _, st := range states {
		out = append(out, column{
			state:   st,
			hovered: m.hover.At(st.Level),
			caps:    m.caps.For(st.Level),
			focused: st.Level == m.focus,
			spinner: m.spinner.View(),
			width:   lay.colW,
			height:  lay.bodyH,
		})
	}
	return out
}

const headerRows = 1

// layout reserves the header, the status line and the help bar (which grows when expanded).
func (m appModel) layout(n int) paneLayout {
	return computeLayout(m.width, m.height, n, headerRows, 1+m.helpHeight())
}

func (m appModel) helpHeight() int {
	return lipgloss.Height(m.help.View(m.keys))
}

func (m appModel) deepestColumn() nav.Level {
	return nav.Level(len(nav.VisibleColumns(m.tree, m.ctrl.Path(), nil)) - 1)
}

func (m *appModel) clampFocus() {
	if deepest := m.deepestColumn(); m.focus > deepest {
		m.focus = deepest
	}
	if m.focus < nav.LevelCollection {
		m.focus = nav.LevelCollection
	}
}

func (m appModel) composePreview() (preview.Preview, bool) {
	var peek preview.Peeker
	if m.cache != nil {
		peek = m.cache
	}
	p := preview.Composer{Tree: m.tree, Children: peek}.Compose(m.ctrl.Path(), m.hover.Path())
	loading := false
	if p.Kind == preview.KindItem && m.cache != nil {
		loading = m.cache.Status(p.Item.ID).State == childcache.StatePending
	}
	return p, loading
}

func (m appModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	cols := m.columns()
	lay := m.layout(len(cols))

	name := "boardnav"
	if m.board != nil {
		name = m.board.Name
	}
	header := lipgloss.NewStyle().Bold(true).Render(" "+name) + "  " + styleMuted().Render(locationLabel(m.ctrl.Location()))

	gap := normalizePane("", lay.gap, lay.bodyH)
	parts := make([]string, 0, 2*len(cols)+1)
	for _, c := range cols {
		parts = append(parts, c.render(), gap)
	}
	p, loading := m.composePreview()
	parts = append(parts, renderPreview(p, loading, lay.previewW, lay.bodyH))
	body := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	status := m.flash.view(m.width)
	if m.rename != nil {
		status = m.rename.input.View()
	}

	out := strings.Join([]string{
		normalizePane(header, m.width, headerRows),
		normalizePane(body, m.width, lay.bodyH),
		normalizePane(status, m.width, 1),
		normalizePane(m.help.View(m.keys), m.width, m.helpHeight()),
	}, "\n")
	return out
}

func locationLabel(loc string) string {
	if loc == "" {
		return "(root)"
	}
	return "?" + loc
}
