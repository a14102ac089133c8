package model

import "time"

type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities for sorting and display (higher is more urgent).
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DateTime represents an optional time attached to a date.
// If Time is nil, the value is date-only (no time semantics).
type DateTime struct {
	Date string  `json:"date"`           // YYYY-MM-DD
	Time *string `json:"time,omitempty"` // HH:MM
}

type Board struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	CreatedAt   time.Time    `json:"createdAt"`
	Collections []Collection `json:"collections,omitempty"`
}

// Collection is the top level of a board (a list of items).
type Collection struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"boardId"`
	Rank      int       `json:"rank"`
	Name      string    `json:"name"`
	Completed bool      `json:"completed"`
	Due       *DateTime `json:"due,omitempty"`
	Priority  Priority  `json:"priority,omitempty"`
	Labels    []Label   `json:"labels,omitempty"`
	Items     []Item    `json:"items"`
}

// Item is owned by a Collection and owns an ordered list of SubItems.
//
// SubItems == nil means the tree loader did not embed the children; callers must go through the
// child cache. A non-nil (possibly empty) slice is an inline list that is authoritative until the
// item is invalidated.
type Item struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collectionId"`
	Rank         int       `json:"rank"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Link         string    `json:"link,omitempty"`
	Completed    bool      `json:"completed"`
	Due          *DateTime `json:"due,omitempty"`
	Priority     Priority  `json:"priority,omitempty"`
	Labels       []Label   `json:"labels,omitempty"`
	SubItemCount int       `json:"subItemCount"`
	SubItems     []SubItem `json:"subItems"` // null when not embedded
}

type SubItem struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	Rank      int       `json:"rank"`
	Name      string    `json:"name"`
	Completed bool      `json:"completed"`
	Due       *DateTime `json:"due,omitempty"`
	Priority  Priority  `json:"priority,omitempty"`
	Labels    []Label   `json:"labels,omitempty"`
}

// Kind names the level of an entity.
type Kind string

const (
	KindCollection Kind = "collection"
	KindItem       Kind = "item"
	KindSubItem    Kind = "subitem"
)

func (k Kind) String() string { return string(k) }

func (k Kind) Valid() bool {
	switch k {
	case KindCollection, KindItem, KindSubItem:
		return true
	}
	return false
}

// Ref identifies a mutated entity and the parent whose child list changed. Callers drop cached
// children of ParentID when Kind is KindSubItem.
type Ref struct {
	Kind      Kind   `json:"kind"`
	ID        string `json:"id"`
	ParentID  string `json:"parentId"`
	Completed bool   `json:"completed"`
}
