package cli

import (
	"context"
	"errors"
	"strings"

	"boardnav/internal/api"
	"boardnav/internal/childcache"
	"boardnav/internal/logging"
	"boardnav/internal/nav"
	"boardnav/internal/preview"
	"boardnav/internal/tui"
	"boardnav/internal/web"

	"github.com/spf13/cobra"
)

func newResolveCmd(app *App) *cobra.Command {
	var board, hover string
	var serverSide bool

	cmd := &cobra.Command{
		Use:   "resolve <location>",
		Short: "Restore a location and print the selection, columns and preview",
		Long: strings.TrimSpace(`
Restore an encoded location (e.g. 'list=<id>&task=<id>') against the current board the way the
navigators do on load: ids that no longer exist are dropped and the selected item's sub-items
are loaded.

--hover takes a path in the same encoding (sub= is always honoured) and previews it the way a
pointer over those rows would.
`),
		Example: strings.TrimSpace(`
boardnav resolve 'list=col-4f2a&task=item-9c1e'
boardnav resolve --board Demo --hover 'list=col-4f2a&task=item-77aa' 'list=col-4f2a'
boardnav --remote http://127.0.0.1:3340 resolve --server-side 'list=col-4f2a'
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location := ""
			if len(args) == 1 {
				location = args[0]
			}
			b, closeBackend, err := app.openBackend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeBackend()

			bd, err := tui.ResolveBoard(cmd.Context(), b, board, "")
			if err != nil {
				return writeErr(cmd, notFoundAs(err, "board", board))
			}

			if serverSide {
				c, ok := b.(*api.Client)
				if !ok {
					return writeErr(cmd, errors.New("resolve: --server-side needs --source remote"))
				}
				res, err := c.Resolve(cmd.Context(), bd.ID, location)
				if err != nil {
					return writeErr(cmd, notFoundAs(err, "board", bd.ID))
				}
				return writeOut(cmd, app, res)
			}

			res, err := resolveLocation(cmd.Context(), b, bd.ID, app.policy(), location, hover)
			if err != nil {
				return writeErr(cmd, notFoundAs(err, "board", bd.ID))
			}
			var hints []string
			if res.Path != app.policy().Decode(location) {
				hints = append(hints, "stale ids dropped; canonical location: "+res.Location)
			}
			return writeOut(cmd, app, res, hints...)
		},
	}

	cmd.Flags().StringVar(&board, "board", envOr("BOARDNAV_BOARD", ""), "Board id or name (default: first board)")
	cmd.Flags().StringVar(&hover, "hover", "", "Hovered rows, encoded like a location")
	cmd.Flags().BoolVar(&serverSide, "server-side", false, "Let the remote server resolve the location")
	return cmd
}

// resolveLocation runs the navigator restore against b with a throwaway child cache.
func resolveLocation(ctx context.Context, b backend, boardID string, pol nav.LocationPolicy, location, hover string) (web.ResolveResponse, error) {
	tree, err := b.BoardTree(ctx, boardID)
	if err != nil {
		return web.ResolveResponse{}, err
	}
	log := logging.Component("resolve")
	cache := childcache.New(b, childcache.WithLogger(logging.Component("childcache")))
	defer cache.Close()

	ctrl := nav.NewController(nav.NewTree(tree), nav.Options{
		Policy: pol,
		Loader: cache,
		Logger: log,
	})
	if err := ctrl.RestoreAndWait(ctx, cache, location); err != nil {
		return web.ResolveResponse{}, err
	}

	// Hovering never loads children; the preview reports them as unknown until something else
	// fetched them.
	hovered := nav.LocationPolicy{SubItem: true}.Decode(hover)
	p := preview.Composer{Tree: ctrl.Tree(), Children: cache}.Compose(ctrl.Path(), hovered)
	return web.ResolveResponse{
		Location: ctrl.Location(),
		Path:     ctrl.Path(),
		Preview:  web.PreviewBodyFrom(p),
		Columns:  web.ColumnBodies(nav.VisibleColumns(ctrl.Tree(), ctrl.Path(), cache)),
	}, nil
}
