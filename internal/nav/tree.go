package nav

import (
	"boardnav/internal/model"
)

// Tree indexes the levels 1-2 of a loaded board for id lookups.
//
// A Tree is immutable once built; a board refresh builds a new one.
type Tree struct {
	board       *model.Board
	collections map[string]int
	items       map[string]itemRef
}

type itemRef struct {
	col int
	idx int
}

// NewTree indexes b. A nil board yields an empty tree.
func NewTree(b *model.Board) *Tree {
	t := &Tree{
		board:       b,
		collections: map[string]int{},
		items:       map[string]itemRef{},
	}
	if b == nil {
		return t
	}
	for ci := range b.Collections {
		t.collections[b.Collections[ci].ID] = ci
		for ii := range b.Collections[ci].Items {
			t.items[b.Collections[ci].Items[ii].ID] = itemRef{col: ci, idx: ii}
		}
	}
	return t
}

func (t *Tree) Board() *model.Board {
	if t == nil {
		return nil
	}
	return t.board
}

func (t *Tree) Collections() []model.Collection {
	if t == nil || t.board == nil {
		return nil
	}
	return t.board.Collections
}

func (t *Tree) Collection(id string) (*model.Collection, bool) {
	if t == nil || t.board == nil || id == "" {
		return nil, false
	}
	ci, ok := t.collections[id]
	if !ok {
		return nil, false
	}
	return &t.board.Collections[ci], true
}

// Item looks up an item anywhere on the board.
func (t *Tree) Item(id string) (*model.Item, bool) {
	if t == nil || t.board == nil || id == "" {
		return nil, false
	}
	ref, ok := t.items[id]
	if !ok {
		return nil, false
	}
	return &t.board.Collections[ref.col].Items[ref.idx], true
}

// ItemIn looks up an item that belongs to the given collection.
func (t *Tree) ItemIn(collectionID, itemID string) (*model.Item, bool) {
	it, ok := t.Item(itemID)
	if !ok || it.CollectionID != collectionID {
		return nil, false
	}
	return it, true
}

// CollectionOf returns the collection owning itemID.
func (t *Tree) CollectionOf(itemID string) (*model.Collection, bool) {
	if t == nil || t.board == nil {
		return nil, false
	}
	ref, ok := t.items[itemID]
	if !ok {
		return nil, false
	}
	return &t.board.Collections[ref.col], true
}

// Prune drops ids of p that no longer exist in the tree. Stale ids are treated as absent, not as
// errors. A sub-item id survives only if its parent item survives; whether the sub-item itself
// still exists can only be checked against a loaded child list, so lookup may be nil.
func (t *Tree) Prune(p Path, lookup func(itemID string) ([]model.SubItem, bool)) Path {
	p = p.Normalize()
	if _, ok := t.Collection(p.CollectionID); !ok {
		return Path{}
	}
	if p.ItemID == "" {
		return p
	}
	it, ok := t.ItemIn(p.CollectionID, p.ItemID)
	if !ok {
		return p.Truncate(LevelItem)
	}
	if p.SubItemID == "" {
		return p
	}
	children, known := it.SubItems, it.SubItems != nil
	if lookup != nil {
		if cached, ok := lookup(it.ID); ok {
			children, known = cached, true
		}
	}
	if known && !containsSubItem(children, p.SubItemID) {
		return p.Truncate(LevelSubItem)
	}
	return p
}

func containsSubItem(list []model.SubItem, id string) bool {
	for _, s := range list {
		if s.ID == id {
			return true
		}
	}
	return false
}

// FindSubItem returns the sub-item id from list.
func FindSubItem(list []model.SubItem, id string) (*model.SubItem, bool) {
	for i := range list {
		if list[i].ID == id {
			return &list[i], true
		}
	}
	return nil, false
}
