package nav

import "strings"

// Action is an optional per-item intent a column can offer. The navigator forwards actions to
// an external collaborator and attaches no meaning to them.
type Action int

const (
	ActionToggleComplete Action = iota
	ActionEdit
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionToggleComplete:
		return "toggle-complete"
	case ActionEdit:
		return "edit"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// Capabilities is the set of actions available in a column.
type Capabilities uint8

func Caps(actions ...Action) Capabilities {
	var c Capabilities
	for _, a := range actions {
		c |= 1 << a
	}
	return c
}

func (c Capabilities) Has(a Action) bool { return c&(1<<a) != 0 }

// Actions lists the enabled actions in display order.
func (c Capabilities) Actions() []Action {
	out := make([]Action, 0, 3)
	for _, a := range []Action{ActionToggleComplete, ActionEdit, ActionDelete} {
		if c.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// ColumnCapabilities holds the capability set of every column.
type ColumnCapabilities [len(Levels)]Capabilities

func (cc ColumnCapabilities) For(l Level) Capabilities {
	if !l.Valid() {
		return 0
	}
	return cc[l]
}

// ProfileCapabilities returns the built-in capability profile: "browse" only allows completing
// items and sub-items, "manage" offers every action on every level. Unknown names fall back to
// browse.
func ProfileCapabilities(name string) ColumnCapabilities {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "manage":
		all := Caps(ActionToggleComplete, ActionEdit, ActionDelete)
		return ColumnCapabilities{all, all, all}
	default:
		done := Caps(ActionToggleComplete)
		return ColumnCapabilities{0, done, done}
	}
}
