package cli

import (
	"fmt"
	"strings"

	"boardnav/internal/model"

	"github.com/spf13/cobra"
)

func parseKind(s string) (model.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "collection", "collections", "list":
		return model.KindCollection, nil
	case "item", "items", "task":
		return model.KindItem, nil
	case "subitem", "subitems", "sub":
		return model.KindSubItem, nil
	}
	return "", fmt.Errorf("unknown kind %q (collection|item|subitem)", s)
}

func newToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "toggle <kind> <id>",
		Short:   "Toggle the completed flag of a collection, item or sub-item",
		Example: "boardnav toggle subitem sub-31d0",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, app, args[0], args[1], func(b backend, kind model.Kind, id string) (model.Ref, error) {
				return b.ToggleCompleted(cmd.Context(), kind, id)
			})
		},
	}
}

func newRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rename <kind> <id> <name>",
		Short:   "Rename a collection, item or sub-item",
		Example: `boardnav rename item item-9c1e "Ship it"`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[2])
			if name == "" {
				return writeErr(cmd, fmt.Errorf("rename: name is required"))
			}
			return runAction(cmd, app, args[0], args[1], func(b backend, kind model.Kind, id string) (model.Ref, error) {
				return b.Rename(cmd.Context(), kind, id, name)
			})
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <kind> <id>",
		Short:   "Delete a collection, item or sub-item (and everything below it)",
		Example: "boardnav delete subitem sub-31d0",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, app, args[0], args[1], func(b backend, kind model.Kind, id string) (model.Ref, error) {
				return b.Delete(cmd.Context(), kind, id)
			})
		},
	}
}

func runAction(cmd *cobra.Command, app *App, kindArg, idArg string, fn func(backend, model.Kind, string) (model.Ref, error)) error {
	kind, err := parseKind(kindArg)
	if err != nil {
		return writeErr(cmd, err)
	}
	id := strings.TrimSpace(idArg)

	b, closeBackend, err := app.openBackend(cmd.Context())
	if err != nil {
		return writeErr(cmd, err)
	}
	defer closeBackend()

	ref, err := fn(b, kind, id)
	if err != nil {
		return writeErr(cmd, notFoundAs(err, kind.String(), id))
	}
	if ref.Kind == model.KindSubItem {
		return writeOut(cmd, app, ref, "boardnav subitems "+ref.ParentID)
	}
	return writeOut(cmd, app, ref)
}
