package cli

import (
	"context"

	"boardnav/internal/api"
	"boardnav/internal/config"
	"boardnav/internal/logging"
	"boardnav/internal/model"
	"boardnav/internal/store"
	"boardnav/internal/tui"
)

// backend is what the read and action commands need. Satisfied by *store.Store and *api.Client.
type backend interface {
	tui.Backend
	BoardTreeWithSubItems(ctx context.Context, boardID string) (*model.Board, error)
}

// openBackend opens the configured board source. The returned func releases it.
func (app *App) openBackend(ctx context.Context) (backend, func(), error) {
	if app.cfg.Source == config.SourceRemote {
		c, err := api.New(app.cfg.Remote.BaseURL, api.WithTimeout(app.cfg.Remote.Timeout))
		if err != nil {
			return nil, func() {}, err
		}
		logger := logging.Component("cli")
		logger.Debug().Str("remote", c.BaseURL()).Msg("using remote source")
		return c, func() {}, nil
	}
	st, err := app.openStore(ctx)
	if err != nil {
		return nil, func() {}, err
	}
	return st, func() { _ = st.Close() }, nil
}

func (app *App) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, app.cfg.DataDir, store.WithLogger(logging.Component("store")))
}

// requireLocal rejects commands that write to the store directly when a remote source is set.
func (app *App) requireLocal(command string) error {
	if app.cfg.Source != config.SourceLocal {
		return unsupportedSourceError{command: command, source: string(app.cfg.Source)}
	}
	return nil
}
