package cli

import (
	"strings"

	"boardnav/internal/tui"

	"github.com/spf13/cobra"
)

func newSeedCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo board in the local store",
		Example: strings.TrimSpace(`
boardnav seed
boardnav seed --name "Team board"
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLocal("seed"); err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			b, err := st.Seed(cmd.Context(), strings.TrimSpace(name))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, b,
				"boardnav --board "+b.ID,
				"boardnav tree "+b.ID,
			)
		},
	}

	cmd.Flags().StringVar(&name, "name", "Demo", "Board name")
	return cmd
}

func newBoardsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeBackend, err := app.openBackend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeBackend()

			boards, err := b.Boards(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if len(boards) == 0 {
				return writeOut(cmd, app, boards, "boardnav seed")
			}
			return writeOut(cmd, app, boards)
		},
	}
}

func newTreeCmd(app *App) *cobra.Command {
	var embed bool

	cmd := &cobra.Command{
		Use:   "tree [board]",
		Short: "Print a board's collections and items",
		Long: strings.TrimSpace(`
Print a board's collections and items. Sub-items are loaded lazily by the navigators, so they
are only included with --embed.

The board may be given by id or (case-insensitive) name; it defaults to the first board.
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			want := ""
			if len(args) == 1 {
				want = args[0]
			}
			b, closeBackend, err := app.openBackend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeBackend()

			bd, err := tui.ResolveBoard(cmd.Context(), b, want, "")
			if err != nil {
				return writeErr(cmd, notFoundAs(err, "board", want))
			}
			load := b.BoardTree
			if embed {
				load = b.BoardTreeWithSubItems
			}
			tree, err := load(cmd.Context(), bd.ID)
			if err != nil {
				return writeErr(cmd, notFoundAs(err, "board", bd.ID))
			}
			return writeOut(cmd, app, tree)
		},
	}

	cmd.Flags().BoolVar(&embed, "embed", false, "Embed sub-items in every item")
	return cmd
}

func newSubItemsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "subitems <item-id>",
		Aliases: []string{"children"},
		Short:   "List the sub-items of an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID := strings.TrimSpace(args[0])
			b, closeBackend, err := app.openBackend(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeBackend()

			subs, err := b.FetchSubItems(cmd.Context(), itemID)
			if err != nil {
				return writeErr(cmd, notFoundAs(err, "item", itemID))
			}
			return writeOut(cmd, app, subs)
		},
	}
}
