package store

import (
	"context"
	"fmt"
	"time"

	"boardnav/internal/model"
)

type seedSub struct {
	name string
	done bool
}

type seedItem struct {
	name, desc, link string
	prio             model.Priority
	due              string
	labels           []model.Label
	subs             []seedSub
}

type seedCollection struct {
	name  string
	items []seedItem
}

var (
	labelBackend  = model.Label{ID: "lbl-backend", Name: "backend", Color: "#5f87ff"}
	labelFrontend = model.Label{ID: "lbl-frontend", Name: "frontend", Color: "#ff5faf"}
	labelOps      = model.Label{ID: "lbl-ops", Name: "ops", Color: "#87d75f"}
)

func demoBoard(now time.Time) []seedCollection {
	day := func(d int) string { return now.AddDate(0, 0, d).Format("2006-01-02") }
	return []seedCollection{
		{
			name: "Sprint",
			items: []seedItem{
				{
					name: "Design",
					desc: "Sketch the **drill-down** columns and the preview pane.\n\n- hover previews\n- selection is shareable",
					prio: model.PriorityMedium, due: day(2), labels: []model.Label{labelFrontend},
				},
				{
					name: "Build",
					desc: "Wire the board store and the child cache.",
					prio: model.PriorityHigh, due: day(5), labels: []model.Label{labelBackend},
					subs: []seedSub{{name: "Compile"}, {name: "Test"}},
				},
				{
					name: "Release",
					link: "https://example.com/releases",
					prio: model.PriorityUrgent, labels: []model.Label{labelOps},
					subs: []seedSub{{name: "Tag", done: true}, {name: "Publish"}, {name: "Announce"}},
				},
			},
		},
		{
			name: "Backlog",
			items: []seedItem{
				{name: "Keyboard shortcuts", desc: "Vim-style movement between columns.", prio: model.PriorityLow},
				{name: "Offline mode", subs: []seedSub{{name: "Queue writes"}, {name: "Replay on reconnect"}}},
			},
		},
		{
			name: "Done",
			items: []seedItem{
				{name: "Project setup", subs: []seedSub{{name: "go mod init", done: true}, {name: "CI", done: true}}},
			},
		},
	}
}

// Seed creates a demo board and returns it with its tree.
func (s *Store) Seed(ctx context.Context, name string) (*model.Board, error) {
	if name == "" {
		name = "Demo"
	}
	b, err := s.CreateBoard(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, sc := range demoBoard(time.Now()) {
		col, err := s.CreateCollection(ctx, b.ID, sc.name, Attrs{})
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", sc.name, err)
		}
		for _, si := range sc.items {
			a := Attrs{Priority: si.prio, Labels: si.labels}
			if si.due != "" {
				a.Due = &model.DateTime{Date: si.due}
			}
			it, err := s.CreateItem(ctx, col.ID, si.name, ItemFields{Description: si.desc, Link: si.link}, a)
			if err != nil {
				return nil, fmt.Errorf("seed %q: %w", si.name, err)
			}
			for _, sub := range si.subs {
				if _, err := s.CreateSubItem(ctx, it.ID, sub.name, Attrs{Completed: sub.done}); err != nil {
					return nil, fmt.Errorf("seed %q: %w", sub.name, err)
				}
			}
		}
	}
	s.log.Info().Str("board", b.ID).Msg("demo board seeded")
	return s.BoardTree(ctx, b.ID)
}
