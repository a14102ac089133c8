// Package nav implements the drill-down navigator state: the persisted selection path, the
// ephemeral per-column hover state, the shareable location encoding and the controller that
// applies toggle/collapse transitions.
package nav

import "strings"

// Level is a column depth in the board hierarchy.
type Level int

const (
	LevelCollection Level = iota
	LevelItem
	LevelSubItem
)

// Levels lists every level from the root down.
var Levels = [...]Level{LevelCollection, LevelItem, LevelSubItem}

func (l Level) String() string {
	switch l {
	case LevelCollection:
		return "collection"
	case LevelItem:
		return "item"
	case LevelSubItem:
		return "subitem"
	default:
		return "unknown"
	}
}

func (l Level) Valid() bool { return l >= LevelCollection && l <= LevelSubItem }

// Path holds at most one id per level.
//
// As a selection path it always satisfies the cascade rule: ItemID is only set when CollectionID
// is set, and SubItemID only when ItemID is set. Hover paths reuse the shape but are tracked per
// column (see HoverState) and are not cascaded.
type Path struct {
	CollectionID string `json:"collectionId,omitempty"`
	ItemID       string `json:"itemId,omitempty"`
	SubItemID    string `json:"subItemId,omitempty"`
}

func (p Path) At(l Level) string {
	switch l {
	case LevelCollection:
		return p.CollectionID
	case LevelItem:
		return p.ItemID
	case LevelSubItem:
		return p.SubItemID
	}
	return ""
}

func (p Path) IsZero() bool { return p == Path{} }

// Valid reports whether the cascade rule holds.
func (p Path) Valid() bool {
	if p.ItemID != "" && p.CollectionID == "" {
		return false
	}
	if p.SubItemID != "" && p.ItemID == "" {
		return false
	}
	return true
}

// Depth is the number of selected levels (0..3) of a valid path.
func (p Path) Depth() int {
	switch {
	case p.SubItemID != "":
		return 3
	case p.ItemID != "":
		return 2
	case p.CollectionID != "":
		return 1
	}
	return 0
}

// Truncate keeps the levels shallower than l and clears l and everything deeper.
func (p Path) Truncate(l Level) Path {
	switch l {
	case LevelCollection:
		return Path{}
	case LevelItem:
		return Path{CollectionID: p.CollectionID}
	case LevelSubItem:
		return Path{CollectionID: p.CollectionID, ItemID: p.ItemID}
	}
	return p
}

// With sets id at level l and clears every deeper level.
func (p Path) With(l Level, id string) Path {
	out := p.Truncate(l)
	switch l {
	case LevelCollection:
		out.CollectionID = id
	case LevelItem:
		out.ItemID = id
	case LevelSubItem:
		out.SubItemID = id
	}
	return out
}

// Normalize enforces the cascade rule by dropping orphaned deeper ids.
func (p Path) Normalize() Path {
	p.CollectionID = strings.TrimSpace(p.CollectionID)
	p.ItemID = strings.TrimSpace(p.ItemID)
	p.SubItemID = strings.TrimSpace(p.SubItemID)
	if p.CollectionID == "" {
		return Path{}
	}
	if p.ItemID == "" {
		return Path{CollectionID: p.CollectionID}
	}
	return p
}

func (p Path) String() string {
	parts := make([]string, 0, 3)
	for _, l := range Levels {
		if id := p.At(l); id != "" {
			parts = append(parts, id)
		}
	}
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

// HoverState tracks the moused-over id per column.
//
// Levels are independent: hovering an item never implies a hovered collection, and leaving one
// column only clears that column. It is owned by the UI loop and is not safe for concurrent use.
type HoverState struct {
	ids [len(Levels)]string
}

// Set records id as hovered in column l. It reports whether anything changed.
func (h *HoverState) Set(l Level, id string) bool {
	if !l.Valid() || h.ids[l] == id {
		return false
	}
	h.ids[l] = id
	return true
}

// Leave clears the hover of column l (pointer left the column).
func (h *HoverState) Leave(l Level) bool {
	return h.Set(l, "")
}

// ClearFrom clears column l and every deeper column.
func (h *HoverState) ClearFrom(l Level) bool {
	changed := false
	for _, lv := range Levels {
		if lv >= l && h.ids[lv] != "" {
			h.ids[lv] = ""
			changed = true
		}
	}
	return changed
}

func (h *HoverState) At(l Level) string {
	if !l.Valid() {
		return ""
	}
	return h.ids[l]
}

// Path returns the raw per-column hover ids. The result is not cascaded.
func (h *HoverState) Path() Path {
	return Path{CollectionID: h.ids[LevelCollection], ItemID: h.ids[LevelItem], SubItemID: h.ids[LevelSubItem]}
}
