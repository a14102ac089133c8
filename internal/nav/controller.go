package nav

import (
	"context"

	"boardnav/internal/childcache"
	"boardnav/internal/model"

	"github.com/rs/zerolog"
)

// ChildLoader starts a background child fetch. Implemented by *childcache.Cache.
type ChildLoader interface {
	Prefetch(parentID string) childcache.Request
	Peek(parentID string) ([]model.SubItem, bool)
}

// ChildWaiter blocks until an item's children are loaded. Implemented by *childcache.Cache.
type ChildWaiter interface {
	GetOrFetch(ctx context.Context, parentID string) ([]model.SubItem, error)
}

type Options struct {
	Policy LocationPolicy
	Loader ChildLoader
	// Hover is cleared at deeper levels whenever a shallower level changes. May be nil.
	Hover *HoverState
	// OnLocation is called with the encoded location after every selection change.
	OnLocation func(location string)
	Logger     zerolog.Logger
}

// Controller owns the selection path. Transitions are synchronous; the only asynchronous work
// is the child fetch it hands to the loader.
type Controller struct {
	tree *Tree
	sel  Path
	opts Options

	// lastRequest correlates the most recent child fetch with its parent id.
	lastRequest childcache.Request
}

func NewController(tree *Tree, opts Options) *Controller {
	if tree == nil {
		tree = NewTree(nil)
	}
	return &Controller{tree: tree, opts: opts}
}

func (c *Controller) Tree() *Tree { return c.tree }

func (c *Controller) Path() Path { return c.sel }

func (c *Controller) Policy() LocationPolicy { return c.opts.Policy }

// Location is the encoded form of the current selection.
func (c *Controller) Location() string { return c.opts.Policy.Encode(c.sel) }

// LastRequest is the correlation token of the most recent child fetch (zero if none).
func (c *Controller) LastRequest() childcache.Request { return c.lastRequest }

// Transition is the pure selection transition: selecting the selected id at a level collapses
// that level (and everything deeper); selecting another id replaces it and clears deeper levels.
// Selecting below an empty parent level is a no-op.
func Transition(p Path, l Level, id string) Path {
	if id == "" || !l.Valid() {
		return p
	}
	if l > LevelCollection && p.At(l-1) == "" {
		return p
	}
	if p.At(l) == id {
		return p.Truncate(l)
	}
	return p.With(l, id)
}

// Next returns the path a selection at (l, id) would produce, without applying it.
func (c *Controller) Next(l Level, id string) Path {
	return Transition(c.sel, l, id)
}

// Select dispatches to the level-specific selection.
func (c *Controller) Select(l Level, id string) {
	switch l {
	case LevelCollection:
		c.SelectCollection(id)
	case LevelItem:
		c.SelectItem(id)
	case LevelSubItem:
		c.SelectSubItem(id)
	}
}

// SelectCollection opens collection id, or collapses to the root when id is already open.
func (c *Controller) SelectCollection(id string) {
	if id == "" {
		return
	}
	if id != c.sel.CollectionID {
		if _, ok := c.tree.Collection(id); !ok {
			c.opts.Logger.Debug().Str("collection", id).Msg("select unknown collection ignored")
			return
		}
	}
	c.apply(LevelCollection, Transition(c.sel, LevelCollection, id))
}

// SelectItem opens item id under the selected collection, or collapses it when already open.
// A genuine selection requests the item's children unless the tree already embeds them.
func (c *Controller) SelectItem(id string) {
	if id == "" || c.sel.CollectionID == "" {
		return
	}
	collapsing := id == c.sel.ItemID
	var it *model.Item
	if !collapsing {
		var ok bool
		it, ok = c.tree.ItemIn(c.sel.CollectionID, id)
		if !ok {
			c.opts.Logger.Debug().Str("collection", c.sel.CollectionID).Str("item", id).Msg("select unknown item ignored")
			return
		}
	}
	c.apply(LevelItem, Transition(c.sel, LevelItem, id))
	if !collapsing {
		c.requestChildren(it)
	}
}

// SelectSubItem sets or clears the sub-item selection under the selected item.
func (c *Controller) SelectSubItem(id string) {
	if id == "" || c.sel.ItemID == "" {
		return
	}
	c.apply(LevelSubItem, Transition(c.sel, LevelSubItem, id))
}

// RestoreFromExternalState replaces the selection from an encoded location (page load,
// back/forward). Ids that no longer exist in the tree are treated as absent. OnLocation only
// fires when the selection actually changed.
func (c *Controller) RestoreFromExternalState(encoded string) {
	want := c.opts.Policy.Decode(encoded)
	next := c.tree.Prune(want, c.peek)
	if next != want {
		c.opts.Logger.Debug().Str("location", encoded).Str("kept", next.String()).Msg("dropped stale ids from location")
	}
	prev := c.sel
	c.sel = next
	if it, ok := c.tree.ItemIn(next.CollectionID, next.ItemID); ok {
		c.requestChildren(it)
	}
	if prev == next {
		return
	}
	if c.opts.Hover != nil {
		for _, l := range Levels {
			if prev.At(l) != next.At(l) {
				c.opts.Hover.ClearFrom(l + 1)
				break
			}
		}
	}
	c.emit()
}

// RestoreAndWait restores encoded, waits for the children the restore requested and restores
// again so a sub-item id is checked against the loaded list. A failed child fetch leaves the
// selection at the item; only a done ctx is returned as an error.
func (c *Controller) RestoreAndWait(ctx context.Context, w ChildWaiter, encoded string) error {
	c.RestoreFromExternalState(encoded)
	itemID := c.sel.ItemID
	if itemID == "" || w == nil {
		return nil
	}
	if _, err := w.GetOrFetch(ctx, itemID); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.opts.Logger.Warn().Err(err).Str("item", itemID).Msg("sub-items unavailable")
		return nil
	}
	c.RestoreFromExternalState(encoded)
	return nil
}

// SetTree swaps in a refreshed tree and prunes selected ids that disappeared.
func (c *Controller) SetTree(t *Tree) {
	if t == nil {
		t = NewTree(nil)
	}
	c.tree = t
	next := t.Prune(c.sel, c.peek)
	if next == c.sel {
		return
	}
	c.sel = next
	if c.opts.Hover != nil {
		c.opts.Hover.ClearFrom(Level(next.Depth()))
	}
	c.emit()
}

func (c *Controller) apply(l Level, next Path) {
	if next == c.sel {
		return
	}
	c.sel = next
	if c.opts.Hover != nil {
		c.opts.Hover.ClearFrom(l + 1)
	}
	c.emit()
}

func (c *Controller) requestChildren(it *model.Item) {
	if it == nil || c.opts.Loader == nil {
		return
	}
	if it.SubItems != nil {
		return
	}
	req := c.opts.Loader.Prefetch(it.ID)
	if !req.IsZero() {
		c.lastRequest = req
	}
}

func (c *Controller) peek(itemID string) ([]model.SubItem, bool) {
	if c.opts.Loader == nil {
		return nil, false
	}
	return c.opts.Loader.Peek(itemID)
}

func (c *Controller) emit() {
	loc := c.Location()
	c.opts.Logger.Debug().Str("path", c.sel.String()).Str("location", loc).Msg("selection changed")
	if c.opts.OnLocation != nil {
		c.opts.OnLocation(loc)
	}
}
