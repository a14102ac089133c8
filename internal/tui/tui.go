// Package tui is the terminal drill-down navigator: up to three columns (collections, items,
// sub-items) plus a preview pane that follows the pointer or keyboard cursor.
package tui

import (
	"context"
	"errors"

	"boardnav/internal/childcache"
	"boardnav/internal/logging"
	"boardnav/internal/nav"
	"boardnav/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Backend Backend

	// BoardID (id or name) selects the board; empty reopens the last board.
	BoardID string
	// Location opens the board at an encoded location. Empty restores the last location when
	// RestoreLast is set.
	Location    string
	RestoreLast bool

	Policy  nav.LocationPolicy
	Profile string

	// DataDir holds nav_state.json. Empty disables persistence.
	DataDir string

	Mouse  bool
	Theme  string
	Glyphs string
}

// Run opens the navigator and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Backend == nil {
		return errors.New("tui: backend is nil")
	}
	applyThemePreference(opts.Theme)
	applyColorProfilePreference()
	applyGlyphPreference(opts.Glyphs)

	log := logging.Component("tui")

	st, err := store.LoadNavState(opts.DataDir)
	if err != nil {
		log.Warn().Err(err).Msg("load nav state")
		st = &store.NavState{Version: 1}
	}

	bd, err := ResolveBoard(ctx, opts.Backend, opts.BoardID, st.LastBoardID)
	if err != nil {
		return err
	}
	tree, err := opts.Backend.BoardTree(ctx, bd.ID)
	if err != nil {
		return err
	}

	location := opts.Location
	if location == "" && opts.RestoreLast {
		location = st.Location(bd.ID)
	}

	events := make(chan childcache.Event, 64)
	cache := childcache.New(opts.Backend,
		childcache.WithLogger(logging.Component("childcache")),
		childcache.WithObserver(forwardEvents(events)),
	)
	defer cache.Close()

	m := newAppModel(ctx, appDeps{
		Backend:  opts.Backend,
		Cache:    cache,
		Events:   events,
		Board:    tree,
		Location: location,
		Policy:   opts.Policy,
		Caps:     nav.ProfileCapabilities(opts.Profile),
		DataDir:  opts.DataDir,
		NavState: st,
	})

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if opts.Mouse {
		progOpts = append(progOpts, tea.WithMouseAllMotion())
	}
	log.Info().Str("board", bd.ID).Str("location", location).Msg("navigator started")
	_, err = tea.NewProgram(m, progOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// forwardEvents hands cache events to the UI loop without blocking fetch goroutines. A dropped
// event only delays the update: every spinner tick redraws from cache state and re-checks the
// selected sub-item.
func forwardEvents(ch chan<- childcache.Event) func(childcache.Event) {
	return func(ev childcache.Event) {
		select {
		case ch <- ev:
		default:
		}
	}
}
