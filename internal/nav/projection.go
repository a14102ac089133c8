package nav

import (
	"strings"

	"boardnav/internal/childcache"
	"boardnav/internal/model"
)

type Icon string

const (
	IconCollection Icon = "collection"
	IconItem       Icon = "item"
	IconSubItem    Icon = "subitem"
)

// ColumnMeta is optional card metadata.
type ColumnMeta struct {
	Count       *int            `json:"count,omitempty"`
	LabelColors []string        `json:"labelColors,omitempty"`
	Priority    model.Priority  `json:"priority,omitempty"`
	Due         *model.DateTime `json:"dueDate,omitempty"`
}

// ColumnItem is the flat record handed to column renderers. It is the only data contract between
// the board model and the rendering layer.
type ColumnItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Icon        Icon       `json:"icon"`
	Completed   bool       `json:"isCompleted"`
	HasChildren bool       `json:"hasChildren"`
	Meta        ColumnMeta `json:"metadata"`
}

func ProjectCollections(cols []model.Collection) []ColumnItem {
	out := make([]ColumnItem, 0, len(cols))
	for _, c := range cols {
		n := len(c.Items)
		out = append(out, ColumnItem{
			ID:          c.ID,
			Title:       titleOr(c.Name),
			Icon:        IconCollection,
			Completed:   c.Completed,
			HasChildren: n > 0,
			Meta: ColumnMeta{
				Count:       &n,
				LabelColors: labelColors(c.Labels),
				Priority:    c.Priority,
				Due:         c.Due,
			},
		})
	}
	return out
}

func ProjectItems(items []model.Item) []ColumnItem {
	out := make([]ColumnItem, 0, len(items))
	for _, it := range items {
		n := it.SubItemCount
		if it.SubItems != nil {
			n = len(it.SubItems)
		}
		out = append(out, ColumnItem{
			ID:          it.ID,
			Title:       titleOr(it.Name),
			Icon:        IconItem,
			Completed:   it.Completed,
			HasChildren: n > 0,
			Meta: ColumnMeta{
				Count:       &n,
				LabelColors: labelColors(it.Labels),
				Priority:    it.Priority,
				Due:         it.Due,
			},
		})
	}
	return out
}

func ProjectSubItems(subs []model.SubItem) []ColumnItem {
	out := make([]ColumnItem, 0, len(subs))
	for _, s := range subs {
		out = append(out, ColumnItem{
			ID:        s.ID,
			Title:     titleOr(s.Name),
			Icon:      IconSubItem,
			Completed: s.Completed,
			Meta: ColumnMeta{
				LabelColors: labelColors(s.Labels),
				Priority:    s.Priority,
				Due:         s.Due,
			},
		})
	}
	return out
}

func titleOr(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(untitled)"
	}
	return s
}

func labelColors(labels []model.Label) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if c := strings.TrimSpace(l.Color); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// ChildSource reports the cache state of a parent's children without triggering a fetch.
type ChildSource interface {
	Status(parentID string) childcache.Entry
}

// ColumnState is everything a renderer needs for one visible column.
type ColumnState struct {
	Level      Level
	Title      string
	ParentID   string
	Items      []ColumnItem
	SelectedID string
	Loading    bool
	Err        error
}

// VisibleColumns derives the 1-3 visible columns from the tree, the selection and the child
// cache. The sub-item column prefers cached children and falls back to an embedded list.
func VisibleColumns(tree *Tree, sel Path, src ChildSource) []ColumnState {
	board := "Board"
	if b := tree.Board(); b != nil && strings.TrimSpace(b.Name) != "" {
		board = b.Name
	}
	cols := []ColumnState{{
		Level:      LevelCollection,
		Title:      board,
		Items:      ProjectCollections(tree.Collections()),
		SelectedID: sel.CollectionID,
	}}

	col, ok := tree.Collection(sel.CollectionID)
	if !ok {
		return cols
	}
	cols = append(cols, ColumnState{
		Level:      LevelItem,
		Title:      titleOr(col.Name),
		ParentID:   col.ID,
		Items:      ProjectItems(col.Items),
		SelectedID: sel.ItemID,
	})

	it, ok := tree.ItemIn(col.ID, sel.ItemID)
	if !ok {
		return cols
	}
	sub := ColumnState{
		Level:      LevelSubItem,
		Title:      titleOr(it.Name),
		ParentID:   it.ID,
		SelectedID: sel.SubItemID,
	}
	var entry childcache.Entry
	if src != nil {
		entry = src.Status(it.ID)
	}
	switch {
	case entry.State == childcache.StateFetched:
		sub.Items = ProjectSubItems(entry.SubItems)
	case it.SubItems != nil:
		sub.Items = ProjectSubItems(it.SubItems)
	case entry.State == childcache.StatePending:
		sub.Loading = true
	default:
		sub.Err = entry.Err
	}
	return append(cols, sub)
}
