package cli

import (
	"strings"

	"boardnav/internal/publish"
	"boardnav/internal/tui"

	"github.com/spf13/cobra"
)

func newPublishCmd(app *App) *cobra.Command {
	var to string
	var includeCompleted, overwrite bool

	cmd := &cobra.Command{
		Use:   "publish [board]",
		Short: "Write a board as markdown pages (index + one page per item)",
		Example: strings.TrimSpace(`
boardnav publish --to ./site
boardnav publish Demo --to ./site --include-completed --overwrite
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
			tree, err := b.BoardTreeWithSubItems(cmd.Context(), bd.ID)
			if err != nil {
				return writeErr(cmd, notFoundAs(err, "board", bd.ID))
			}

			res, err := publish.WriteBoard(tree, to, publish.WriteOptions{
				IncludeCompleted: includeCompleted,
				Overwrite:        overwrite,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, res)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output directory")
	cmd.Flags().BoolVar(&includeCompleted, "include-completed", false, "Include completed collections, items and sub-items")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files")
	return cmd
}
