// Package childcache is the lazily populated store of sub-item lists keyed by parent item id.
//
// Every fetch is identified by a Request (parent id + monotonically increasing id). Results are
// written back only if the entry still carries the same Request, so a fetch that completes after
// an invalidation is dropped instead of overwriting fresher data.
package childcache

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"

	"boardnav/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrClosed is returned once the cache has been closed.
	ErrClosed = errors.New("childcache: closed")

	errSuperseded = errors.New("childcache: request superseded")
)

type State int

const (
	StateAbsent State = iota
	StatePending
	StateFetched
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetched:
		return "fetched"
	default:
		return "absent"
	}
}

// Request is the correlation token of one fetch.
type Request struct {
	ParentID string `json:"parentId"`
	ID       uint64 `json:"requestId"`
}

func (r Request) IsZero() bool { return r.ID == 0 }

func (r Request) key() string { return r.ParentID + "#" + strconv.FormatUint(r.ID, 10) }

// Entry is a snapshot of one cache key. A failed fetch leaves the entry absent with Err set, so
// the next request retries.
type Entry struct {
	State    State
	SubItems []model.SubItem
	Err      error
	Request  Request
}

// Fetcher loads the children of one item. Implementations own the transport.
type Fetcher interface {
	FetchSubItems(ctx context.Context, itemID string) ([]model.SubItem, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, itemID string) ([]model.SubItem, error)

func (f FetcherFunc) FetchSubItems(ctx context.Context, itemID string) ([]model.SubItem, error) {
	return f(ctx, itemID)
}

type EventKind int

const (
	EventPending EventKind = iota
	EventFetched
	EventFailed
	EventInvalidated
	EventDiscarded
)

func (k EventKind) String() string {
	switch k {
	case EventPending:
		return "pending"
	case EventFetched:
		return "fetched"
	case EventFailed:
		return "failed"
	case EventInvalidated:
		return "invalidated"
	case EventDiscarded:
		return "discarded"
	}
	return "unknown"
}

// Event is published after every state change of a key.
type Event struct {
	Kind     EventKind
	Request  Request
	SubItems []model.SubItem
	Err      error
}

type Option func(*Cache)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// WithObserver registers fn to receive events. Observers run on the goroutine that caused the
// change and must not block.
func WithObserver(fn func(Event)) Option {
	return func(c *Cache) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

type entry struct {
	state State
	items []model.SubItem
	err   error
	req   Request
}

type Cache struct {
	fetcher   Fetcher
	log       zerolog.Logger
	observers []func(Event)

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	lastID  uint64
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(f Fetcher, opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		fetcher: f,
		log:     zerolog.Nop(),
		entries: map[string]*entry{},
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrFetch returns the cached children of parentID, fetching them if needed. Concurrent calls
// for the same uncached id share one fetch. ctx only bounds how long this caller waits; the fetch
// itself keeps running for the other waiters.
func (c *Cache) GetOrFetch(ctx context.Context, parentID string) ([]model.SubItem, error) {
	for {
		items, req, hit, err := c.begin(parentID)
		if err != nil {
			return nil, err
		}
		if hit {
			return items, nil
		}

		ch := c.group.DoChan(req.key(), func() (any, error) { return c.run(req) })
		select {
		case res := <-ch:
			if errors.Is(res.Err, errSuperseded) {
				// Invalidated while in flight; start over against the current entry.
				continue
			}
			if res.Err != nil {
				return nil, res.Err
			}
			return slices.Clone(res.Val.([]model.SubItem)), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Prefetch starts a background fetch for parentID unless it is cached or already pending, and
// returns the request now responsible for the key. A cache hit returns the zero Request.
func (c *Cache) Prefetch(parentID string) Request {
	_, req, hit, err := c.begin(parentID)
	if err != nil || hit {
		return Request{}
	}
	// DoChan joins the in-flight call when one exists; its buffered result channel is not needed
	// because observers learn about the outcome.
	_ = c.group.DoChan(req.key(), func() (any, error) { return c.run(req) })
	return req
}

// Peek returns fetched children without triggering a fetch.
func (c *Cache) Peek(parentID string) ([]model.SubItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[parentID]
	if !ok || e.state != StateFetched {
		return nil, false
	}
	return slices.Clone(e.items), true
}

// Status returns a snapshot of parentID's entry without triggering a fetch.
func (c *Cache) Status(parentID string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[parentID]
	if !ok {
		return Entry{State: StateAbsent}
	}
	return Entry{State: e.state, SubItems: slices.Clone(e.items), Err: e.err, Request: e.req}
}

// Invalidate drops the entry and any pending marker for parentID. A fetch still in flight for the
// dropped request is discarded when it completes.
func (c *Cache) Invalidate(parentID string) {
	c.mu.Lock()
	e, ok := c.entries[parentID]
	delete(c.entries, parentID)
	c.mu.Unlock()
	if !ok {
		return
	}
	c.log.Debug().Str("parent", parentID).Stringer("was", e.state).Msg("invalidated")
	c.publish(Event{Kind: EventInvalidated, Request: e.req})
}

// InvalidateFor drops the child lists a mutation of ref changed: a sub-item change alters its
// parent's list, a deleted item takes its own list with it.
func (c *Cache) InvalidateFor(ref model.Ref, deleted bool) {
	switch ref.Kind {
	case model.KindSubItem:
		c.Invalidate(ref.ParentID)
	case model.KindItem:
		if deleted {
			c.Invalidate(ref.ID)
		}
	}
}

// Close cancels background fetches and waits for them to return.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

// begin returns cached items on a hit, or the request that owns the key (creating a pending
// entry when the key is absent).
func (c *Cache) begin(parentID string) ([]model.SubItem, Request, bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, Request{}, false, ErrClosed
	}
	if e, ok := c.entries[parentID]; ok {
		switch e.state {
		case StateFetched:
			items := slices.Clone(e.items)
			c.mu.Unlock()
			return items, Request{}, true, nil
		case StatePending:
			req := e.req
			c.mu.Unlock()
			return nil, req, false, nil
		}
	}
	c.lastID++
	req := Request{ParentID: parentID, ID: c.lastID}
	c.entries[parentID] = &entry{state: StatePending, req: req}
	c.mu.Unlock()

	c.log.Debug().Str("parent", parentID).Uint64("request", req.ID).Msg("fetch started")
	c.publish(Event{Kind: EventPending, Request: req})
	return nil, req, false, nil
}

// run executes the fetch for req, unless req already completed or was superseded.
func (c *Cache) run(req Request) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[req.ParentID]
	switch {
	case c.closed:
		c.mu.Unlock()
		return nil, ErrClosed
	case ok && e.req == req && e.state == StateFetched:
		// A waiter joined after the flight finished; serve the stored result.
		items := slices.Clone(e.items)
		c.mu.Unlock()
		return items, nil
	case !ok || e.req != req || e.state != StatePending:
		c.mu.Unlock()
		return nil, errSuperseded
	}
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	items, err := c.fetcher.FetchSubItems(c.ctx, req.ParentID)
	return c.complete(req, items, err)
}

func (c *Cache) complete(req Request, items []model.SubItem, err error) (any, error) {
	if items == nil {
		items = []model.SubItem{}
	}

	c.mu.Lock()
	e, ok := c.entries[req.ParentID]
	if !ok || e.req != req || e.state != StatePending {
		c.mu.Unlock()
		c.log.Debug().Str("parent", req.ParentID).Uint64("request", req.ID).Msg("stale fetch result discarded")
		c.publish(Event{Kind: EventDiscarded, Request: req})
		return nil, errSuperseded
	}
	if err != nil {
		// Failure is not sticky: the key reverts to absent and the next request retries.
		e.state = StateAbsent
		e.err = err
		e.items = nil
		c.mu.Unlock()
		c.log.Warn().Err(err).Str("parent", req.ParentID).Uint64("request", req.ID).Msg("fetch failed")
		c.publish(Event{Kind: EventFailed, Request: req, Err: err})
		return nil, err
	}
	e.state = StateFetched
	e.items = slices.Clone(items)
	e.err = nil
	c.mu.Unlock()

	c.log.Debug().Str("parent", req.ParentID).Uint64("request", req.ID).Int("count", len(items)).Msg("fetch completed")
	c.publish(Event{Kind: EventFetched, Request: req, SubItems: slices.Clone(items)})
	return slices.Clone(items), nil
}

func (c *Cache) publish(ev Event) {
	for _, fn := range c.observers {
		fn(ev)
	}
}
