package tui

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"boardnav/internal/model"
	"boardnav/internal/store"
)

// fakeBackend is an in-memory board:
//
//	c1 Sprint:  i1 Design, i2 Build [s1 Compile, s2 Test]
//	c2 Backlog: i3 Offline
type fakeBackend struct {
	mu      sync.Mutex
	board   model.Board
	subs    map[string][]model.SubItem
	calls   []string
	fetches map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		board: model.Board{
			ID:   "b1",
			Name: "Demo",
			Collections: []model.Collection{
				{ID: "c1", Name: "Sprint", Items: []model.Item{
					{ID: "i1", CollectionID: "c1", Name: "Design", Description: "Sketch the **layout**."},
					{ID: "i2", CollectionID: "c1", Name: "Build"},
				}},
				{ID: "c2", Name: "Backlog", Items: []model.Item{
					{ID: "i3", CollectionID: "c2", Name: "Offline"},
				}},
			},
		},
		subs: map[string][]model.SubItem{
			"i1": {},
			"i2": {
				{ID: "s1", ItemID: "i2", Name: "Compile"},
				{ID: "s2", ItemID: "i2", Name: "Test"},
			},
			"i3": {},
		},
		fetches: map[string]int{},
	}
}

func (f *fakeBackend) Boards(ctx context.Context) ([]model.Board, error) {
	return []model.Board{{ID: f.board.ID, Name: f.board.Name}}, nil
}

func (f *fakeBackend) BoardTree(ctx context.Context, boardID string) (*model.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if boardID != f.board.ID {
		return nil, fmt.Errorf("board %q: %w", boardID, store.ErrNotFound)
	}
	b := f.board
	b.Collections = slices.Clone(b.Collections)
	for ci := range b.Collections {
		items := slices.Clone(b.Collections[ci].Items)
		for ii := range items {
			items[ii].SubItemCount = len(f.subs[items[ii].ID])
			items[ii].SubItems = nil
		}
		b.Collections[ci].Items = items
	}
	return &b, nil
}

func (f *fakeBackend) FetchSubItems(ctx context.Context, itemID string) ([]model.SubItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[itemID]++
	subs, ok := f.subs[itemID]
	if !ok {
		return nil, fmt.Errorf("item %q: %w", itemID, store.ErrNotFound)
	}
	return slices.Clone(subs), nil
}

func (f *fakeBackend) ToggleCompleted(ctx context.Context, kind model.Kind, id string) (model.Ref, error) {
	return f.mutate("toggle", kind, id, func(s *model.SubItem) { s.Completed = !s.Completed })
}

func (f *fakeBackend) Rename(ctx context.Context, kind model.Kind, id, name string) (model.Ref, error) {
	if kind == model.KindItem {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, "rename "+id)
		for ci := range f.board.Collections {
			for ii := range f.board.Collections[ci].Items {
				if it := &f.board.Collections[ci].Items[ii]; it.ID == id {
					it.Name = name
					return model.Ref{Kind: kind, ID: id, ParentID: it.CollectionID}, nil
				}
			}
		}
		return model.Ref{}, store.ErrNotFound
	}
	return f.mutate("rename", kind, id, func(s *model.SubItem) { s.Name = name })
}

func (f *fakeBackend) Delete(ctx context.Context, kind model.Kind, id string) (model.Ref, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete "+id)
	for parent, subs := range f.subs {
		for i := range subs {
			if subs[i].ID == id {
				f.subs[parent] = slices.Delete(subs, i, i+1)
				return model.Ref{Kind: model.KindSubItem, ID: id, ParentID: parent}, nil
			}
		}
	}
	return model.Ref{}, store.ErrNotFound
}

func (f *fakeBackend) mutate(op string, kind model.Kind, id string, fn func(*model.SubItem)) (model.Ref, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+" "+id)
	if kind != model.KindSubItem {
		return model.Ref{}, fmt.Errorf("fake: %s not supported for %s", op, kind)
	}
	for parent, subs := range f.subs {
		for i := range subs {
			if subs[i].ID == id {
				fn(&subs[i])
				return model.Ref{Kind: kind, ID: id, ParentID: parent, Completed: subs[i].Completed}, nil
			}
		}
	}
	return model.Ref{}, store.ErrNotFound
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeBackend) fetchCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[id]
}
