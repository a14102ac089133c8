// Package preview resolves the single entity shown in the preview pane from the selection path,
// the per-column hover and the child cache.
package preview

import (
	"boardnav/internal/model"
	"boardnav/internal/nav"
)

type Kind int

const (
	KindNone Kind = iota
	KindCollection
	KindItem
	KindSubItem
)

func (k Kind) String() string {
	switch k {
	case KindCollection:
		return "collection"
	case KindItem:
		return "item"
	case KindSubItem:
		return "subitem"
	}
	return "none"
}

// Source tells which signal produced the preview.
type Source int

const (
	SourceNone Source = iota
	SourceHover
	SourceSelection
)

func (s Source) String() string {
	switch s {
	case SourceHover:
		return "hover"
	case SourceSelection:
		return "selection"
	}
	return "none"
}

// Preview is the resolved entity plus its immediate context.
//
//   - KindCollection: Collection and its Items.
//   - KindItem: Item, its Collection and its SubItems (ChildrenKnown is false while they are
//     neither cached nor embedded).
//   - KindSubItem: SubItem and its parent Item.
type Preview struct {
	Kind   Kind
	Source Source

	Collection *model.Collection
	Item       *model.Item
	SubItem    *model.SubItem

	Items         []model.Item
	SubItems      []model.SubItem
	ChildrenKnown bool
}

func (p Preview) Empty() bool { return p.Kind == KindNone }

// Title is the display name of the previewed entity.
func (p Preview) Title() string {
	switch p.Kind {
	case KindCollection:
		return p.Collection.Name
	case KindItem:
		return p.Item.Name
	case KindSubItem:
		return p.SubItem.Name
	}
	return ""
}

// ID is the id of the previewed entity.
func (p Preview) ID() string {
	switch p.Kind {
	case KindCollection:
		return p.Collection.ID
	case KindItem:
		return p.Item.ID
	case KindSubItem:
		return p.SubItem.ID
	}
	return ""
}

// Peeker is the non-triggering cache lookup. Implemented by *childcache.Cache.
type Peeker interface {
	Peek(parentID string) ([]model.SubItem, bool)
}

// Composer never triggers a fetch: previewing alone must not load children.
type Composer struct {
	Tree     *nav.Tree
	Children Peeker
}

// Compose applies the precedence rules top to bottom, first match wins:
//
//  1. hovered sub-item
//  2. selected sub-item
//  3. hovered item
//  4. selected item
//  5. hovered collection
//  6. selected collection
//  7. nothing
//
// Each depth is evaluated independently, so hovering a sibling item never hides a selected
// sub-item. An id that no longer resolves does not match its rule.
func (c Composer) Compose(sel, hover nav.Path) Preview {
	if p, ok := c.subItem(hover.SubItemID, SourceHover, sel.ItemID, hover.ItemID); ok {
		return p
	}
	if p, ok := c.subItem(sel.SubItemID, SourceSelection, sel.ItemID); ok {
		return p
	}
	if p, ok := c.item(hover.ItemID, SourceHover); ok {
		return p
	}
	if p, ok := c.item(sel.ItemID, SourceSelection); ok {
		return p
	}
	if p, ok := c.collection(hover.CollectionID, SourceHover); ok {
		return p
	}
	if p, ok := c.collection(sel.CollectionID, SourceSelection); ok {
		return p
	}
	return Preview{}
}

// subItem looks id up among the children of the candidate parents, in order. The sub-item column
// belongs to the selected item, so that parent is tried first.
func (c Composer) subItem(id string, src Source, parents ...string) (Preview, bool) {
	if id == "" {
		return Preview{}, false
	}
	seen := map[string]bool{}
	for _, parentID := range parents {
		if parentID == "" || seen[parentID] {
			continue
		}
		seen[parentID] = true
		it, ok := c.Tree.Item(parentID)
		if !ok {
			continue
		}
		children, _ := c.children(it)
		s, ok := nav.FindSubItem(children, id)
		if !ok {
			continue
		}
		col, _ := c.Tree.CollectionOf(it.ID)
		return Preview{Kind: KindSubItem, Source: src, Collection: col, Item: it, SubItem: s}, true
	}
	return Preview{}, false
}

func (c Composer) item(id string, src Source) (Preview, bool) {
	it, ok := c.Tree.Item(id)
	if !ok {
		return Preview{}, false
	}
	col, _ := c.Tree.CollectionOf(id)
	children, known := c.children(it)
	return Preview{
		Kind:          KindItem,
		Source:        src,
		Collection:    col,
		Item:          it,
		SubItems:      children,
		ChildrenKnown: known,
	}, true
}

func (c Composer) collection(id string, src Source) (Preview, bool) {
	col, ok := c.Tree.Collection(id)
	if !ok {
		return Preview{}, false
	}
	return Preview{Kind: KindCollection, Source: src, Collection: col, Items: col.Items, ChildrenKnown: true}, true
}

// children prefers the cache and falls back to the list embedded in the tree.
func (c Composer) children(it *model.Item) ([]model.SubItem, bool) {
	if c.Children != nil {
		if cached, ok := c.Children.Peek(it.ID); ok {
			return cached, true
		}
	}
	if it.SubItems != nil {
		return it.SubItems, true
	}
	return nil, false
}
