package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"boardnav/internal/model"
)

// FetchSubItems returns the children of itemID in rank order. An item without children yields an
// empty, non-nil slice; an unknown item is ErrNotFound.
func (s *Store) FetchSubItems(ctx context.Context, itemID string) ([]model.SubItem, error) {
	if err := s.exists(ctx, "items", itemID); err != nil {
		return nil, err
	}
	subs, err := s.querySubItems(ctx, `
		SELECT id, item_id, rank, name, completed, priority, due_json, labels_json
		FROM sub_items WHERE item_id = ? ORDER BY rank, id`, itemID)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("item", itemID).Int("count", len(subs)).Msg("sub-items loaded")
	return subs, nil
}

func (s *Store) querySubItems(ctx context.Context, query string, args ...any) ([]model.SubItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load sub-items: %w", err)
	}
	defer rows.Close()

	out := []model.SubItem{}
	for rows.Next() {
		var si model.SubItem
		var done int
		var prio, dueJS, labelsJS string
		if err := rows.Scan(&si.ID, &si.ItemID, &si.Rank, &si.Name, &done, &prio, &dueJS, &labelsJS); err != nil {
			return nil, err
		}
		si.Completed = done != 0
		si.Priority = model.Priority(prio)
		if si.Due, err = decodeDue(dueJS); err != nil {
			return nil, err
		}
		if si.Labels, err = decodeLabels(labelsJS); err != nil {
			return nil, err
		}
		out = append(out, si)
	}
	return out, rows.Err()
}

func (s *Store) CreateSubItem(ctx context.Context, itemID, name string, a Attrs) (*model.SubItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("sub-item name is required")
	}
	if err := s.exists(ctx, "items", itemID); err != nil {
		return nil, err
	}
	due, labels, err := a.encode()
	if err != nil {
		return nil, err
	}
	id, err := newRandomID(prefixSubItem)
	if err != nil {
		return nil, err
	}
	rank, err := s.nextRank(ctx, "sub_items", "item_id", itemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sub_items(id, item_id, rank, name, completed, priority, due_json, labels_json)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		id, itemID, rank, name, boolToInt(a.Completed), string(a.Priority), due, labels); err != nil {
		return nil, fmt.Errorf("create sub-item: %w", err)
	}
	s.log.Debug().Str("item", itemID).Str("subitem", id).Msg("sub-item created")
	return &model.SubItem{
		ID: id, ItemID: itemID, Rank: rank, Name: name,
		Completed: a.Completed, Priority: a.Priority, Due: a.Due, Labels: a.Labels,
	}, nil
}

func kindTable(k model.Kind) (table, parentCol string, err error) {
	switch k {
	case model.KindCollection:
		return "collections", "board_id", nil
	case model.KindItem:
		return "items", "collection_id", nil
	case model.KindSubItem:
		return "sub_items", "item_id", nil
	}
	return "", "", invalidf("unknown kind %q", k)
}

// ToggleCompleted flips the completion flag of an entity.
func (s *Store) ToggleCompleted(ctx context.Context, kind model.Kind, id string) (model.Ref, error) {
	return s.update(ctx, kind, id, `completed = 1 - completed`)
}

// SetCompleted sets the completion flag of an entity.
func (s *Store) SetCompleted(ctx context.Context, kind model.Kind, id string, done bool) (model.Ref, error) {
	return s.update(ctx, kind, id, `completed = ?`, boolToInt(done))
}

// Rename changes the display name of an entity.
func (s *Store) Rename(ctx context.Context, kind model.Kind, id, name string) (model.Ref, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Ref{}, invalidf("name is required")
	}
	return s.update(ctx, kind, id, `name = ?`, name)
}

// Delete removes an entity and everything below it.
func (s *Store) Delete(ctx context.Context, kind model.Kind, id string) (model.Ref, error) {
	ref, err := s.ref(ctx, kind, id)
	if err != nil {
		return model.Ref{}, err
	}
	table, _, _ := kindTable(kind)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
		return model.Ref{}, fmt.Errorf("delete %s: %w", kind, err)
	}
	s.log.Debug().Stringer("kind", kind).Str("id", id).Msg("deleted")
	return ref, nil
}

func (s *Store) update(ctx context.Context, kind model.Kind, id, set string, args ...any) (model.Ref, error) {
	table, _, err := kindTable(kind)
	if err != nil {
		return model.Ref{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE `+table+` SET `+set+` WHERE id = ?`, append(args, id)...)
	if err != nil {
		return model.Ref{}, fmt.Errorf("update %s: %w", kind, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Ref{}, fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return s.ref(ctx, kind, id)
}

func (s *Store) ref(ctx context.Context, kind model.Kind, id string) (model.Ref, error) {
	table, parentCol, err := kindTable(kind)
	if err != nil {
		return model.Ref{}, err
	}
	ref := model.Ref{Kind: kind, ID: id}
	var done int
	err = s.db.QueryRowContext(ctx, `SELECT `+parentCol+`, completed FROM `+table+` WHERE id = ?`, id).Scan(&ref.ParentID, &done)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ref{}, fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return model.Ref{}, err
	}
	ref.Completed = done != 0
	return ref, nil
}
