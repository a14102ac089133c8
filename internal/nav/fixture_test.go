package nav

import (
	"boardnav/internal/childcache"
	"boardnav/internal/model"
)

// sprintBoard: collection 1 "Sprint" holds item 10 "Design" (children not embedded) and item 11
// "Build" (children embedded). Collection 5 "Backlog" holds item 6 only.
func sprintBoard() *model.Board {
	return &model.Board{
		ID:   "b1",
		Name: "Team",
		Collections: []model.Collection{
			{
				ID: "1", BoardID: "b1", Name: "Sprint",
				Items: []model.Item{
					{ID: "10", CollectionID: "1", Name: "Design"},
					{ID: "11", CollectionID: "1", Name: "Build", SubItemCount: 2, SubItems: []model.SubItem{
						{ID: "111", ItemID: "11", Name: "Compile"},
						{ID: "112", ItemID: "11", Name: "Test", Completed: true},
					}},
				},
			},
			{
				ID: "5", BoardID: "b1", Name: "Backlog",
				Items: []model.Item{
					{ID: "6", CollectionID: "5", Name: "Later", SubItemCount: 1},
				},
			},
		},
	}
}

// fakeLoader records prefetches and serves Peek/Status from an in-memory map.
type fakeLoader struct {
	prefetched []string
	fetched    map[string][]model.SubItem
	pending    map[string]bool
	nextID     uint64
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{fetched: map[string][]model.SubItem{}, pending: map[string]bool{}}
}

func (f *fakeLoader) Prefetch(parentID string) childcache.Request {
	f.prefetched = append(f.prefetched, parentID)
	if _, ok := f.fetched[parentID]; ok {
		return childcache.Request{}
	}
	f.pending[parentID] = true
	f.nextID++
	return childcache.Request{ParentID: parentID, ID: f.nextID}
}

func (f *fakeLoader) Peek(parentID string) ([]model.SubItem, bool) {
	s, ok := f.fetched[parentID]
	return s, ok
}

func (f *fakeLoader) Status(parentID string) childcache.Entry {
	if s, ok := f.fetched[parentID]; ok {
		return childcache.Entry{State: childcache.StateFetched, SubItems: s}
	}
	if f.pending[parentID] {
		return childcache.Entry{State: childcache.StatePending}
	}
	return childcache.Entry{State: childcache.StateAbsent}
}

func (f *fakeLoader) resolve(parentID string, subs []model.SubItem) {
	delete(f.pending, parentID)
	f.fetched[parentID] = subs
}
