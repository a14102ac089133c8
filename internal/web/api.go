package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"boardnav/internal/model"
	"boardnav/internal/nav"
	"boardnav/internal/preview"
	"boardnav/internal/store"
)

// kindFromPath maps the plural path segment to an entity kind.
func kindFromPath(seg string) (model.Kind, bool) {
	switch seg {
	case "collections":
		return model.KindCollection, true
	case "items":
		return model.KindItem, true
	case "subitems":
		return model.KindSubItem, true
	}
	return "", false
}

func (s *Server) handleAPIBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.store.Boards(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

// handleAPITree returns levels 1-2 of a board. With ?embed=subitems every item carries its
// children inline.
func (s *Server) handleAPITree(w http.ResponseWriter, r *http.Request) {
	boardID := strings.TrimSpace(r.PathValue("boardId"))
	var (
		b   *model.Board
		err error
	)
	if r.URL.Query().Get("embed") == "subitems" {
		b, err = s.store.BoardTreeWithSubItems(r.Context(), boardID)
	} else {
		b, err = s.store.BoardTree(r.Context(), boardID)
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleAPISubItems serves children through the server's child cache, so concurrent requests
// for the same item share one store read.
func (s *Server) handleAPISubItems(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimSpace(r.PathValue("itemId"))
	subs, err := s.cache.GetOrFetch(r.Context(), itemID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// ResolveResponse is the body of GET /api/boards/{boardId}/resolve.
type ResolveResponse struct {
	Location string       `json:"location"`
	Path     nav.Path     `json:"path"`
	Preview  PreviewBody  `json:"preview"`
	Columns  []ColumnBody `json:"columns"`
}

type PreviewBody struct {
	Kind          string          `json:"kind"`
	Source        string          `json:"source"`
	ID            string          `json:"id,omitempty"`
	Title         string          `json:"title,omitempty"`
	SubItems      []model.SubItem `json:"subItems,omitempty"`
	ChildrenKnown bool            `json:"childrenKnown"`
}

type ColumnBody struct {
	Level      string           `json:"level"`
	Title      string           `json:"title"`
	SelectedID string           `json:"selectedId,omitempty"`
	Loading    bool             `json:"loading"`
	Error      string           `json:"error,omitempty"`
	Items      []nav.ColumnItem `json:"items"`
}

// PreviewBodyFrom flattens a composed preview for JSON output.
func PreviewBodyFrom(p preview.Preview) PreviewBody {
	return PreviewBody{
		Kind:          p.Kind.String(),
		Source:        p.Source.String(),
		ID:            p.ID(),
		Title:         p.Title(),
		SubItems:      p.SubItems,
		ChildrenKnown: p.ChildrenKnown,
	}
}

func ColumnBodies(cols []nav.ColumnState) []ColumnBody {
	out := make([]ColumnBody, 0, len(cols))
	for _, c := range cols {
		cb := ColumnBody{
			Level:      c.Level.String(),
			Title:      c.Title,
			SelectedID: c.SelectedID,
			Loading:    c.Loading,
			Items:      c.Items,
		}
		if c.Err != nil {
			cb.Error = c.Err.Error()
		}
		if cb.Items == nil {
			cb.Items = []nav.ColumnItem{}
		}
		out = append(out, cb)
	}
	return out
}

// handleAPIResolve restores ?location= against the current tree and reports the resulting
// selection, columns and preview. Stale ids are dropped, never an error.
func (s *Server) handleAPIResolve(w http.ResponseWriter, r *http.Request) {
	boardID := strings.TrimSpace(r.PathValue("boardId"))
	v, err := s.loadView(r, boardID, r.URL.Query().Get("location"), s.cfg.Policy)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ResolveResponse{
		Location: v.ctrl.Location(),
		Path:     v.ctrl.Path(),
		Preview:  PreviewBodyFrom(v.compose(nav.Path{})),
		Columns:  ColumnBodies(v.columns()),
	})
}

type nameBody struct {
	Name string `json:"name"`
}

func readName(r *http.Request) (string, error) {
	var body nameBody
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil {
		return "", fmt.Errorf("invalid body: %w", err)
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return "", errors.New("name is required")
	}
	return name, nil
}

var errReadOnly = errors.New("server is read-only")

func (s *Server) handleAPISubItemCreate(w http.ResponseWriter, r *http.Request) {
	if s.cfg.ReadOnly {
		writeError(w, http.StatusForbidden, errReadOnly)
		return
	}
	itemID := strings.TrimSpace(r.PathValue("itemId"))
	name, err := readName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sub, err := s.store.CreateSubItem(r.Context(), itemID, name, store.Attrs{})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.cache.Invalidate(itemID)
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleAPIToggle(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(kind model.Kind, id string) (model.Ref, error) {
		return s.store.ToggleCompleted(r.Context(), kind, id)
	})
}

func (s *Server) handleAPIRename(w http.ResponseWriter, r *http.Request) {
	name, err := readName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mutate(w, r, func(kind model.Kind, id string) (model.Ref, error) {
		return s.store.Rename(r.Context(), kind, id, name)
	})
}

func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(kind model.Kind, id string) (model.Ref, error) {
		return s.store.Delete(r.Context(), kind, id)
	})
}

func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(model.Kind, string) (model.Ref, error)) {
	if s.cfg.ReadOnly {
		writeError(w, http.StatusForbidden, errReadOnly)
		return
	}
	kind, ok := kindFromPath(r.PathValue("kind"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown resource %q", r.PathValue("kind")))
		return
	}
	ref, err := fn(kind, strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.cache.InvalidateFor(ref, r.Method == http.MethodDelete)
	writeJSON(w, http.StatusOK, ref)
}
