package tui

import (
	"context"
	"fmt"
	"strings"

	"boardnav/internal/childcache"
	"boardnav/internal/model"
	"boardnav/internal/store"
)

// Actions performs column actions. Satisfied by *store.Store and *api.Client.
type Actions interface {
	ToggleCompleted(ctx context.Context, kind model.Kind, id string) (model.Ref, error)
	Rename(ctx context.Context, kind model.Kind, id, name string) (model.Ref, error)
	Delete(ctx context.Context, kind model.Kind, id string) (model.Ref, error)
}

// Backend is where the navigator reads boards from: the local store or a remote server.
type Backend interface {
	childcache.Fetcher
	Actions
	Boards(ctx context.Context) ([]model.Board, error)
	BoardTree(ctx context.Context, boardID string) (*model.Board, error)
}

// ResolveBoard picks the board to open: want if given, else the last opened board if it still
// exists, else the first board.
func ResolveBoard(ctx context.Context, b Backend, want, last string) (model.Board, error) {
	boards, err := b.Boards(ctx)
	if err != nil {
		return model.Board{}, err
	}
	want = strings.TrimSpace(want)
	if want != "" {
		for _, bd := range boards {
			if bd.ID == want || strings.EqualFold(bd.Name, want) {
				return bd, nil
			}
		}
		return model.Board{}, fmt.Errorf("board %q: %w", want, store.ErrNotFound)
	}
	if len(boards) == 0 {
		return model.Board{}, fmt.Errorf("no boards yet (run `boardnav seed`): %w", store.ErrNotFound)
	}
	for _, bd := range boards {
		if bd.ID == last {
			return bd, nil
		}
	}
	return boards[0], nil
}
