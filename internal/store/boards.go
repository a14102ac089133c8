package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"boardnav/internal/model"
)

// Boards lists every board (without its tree), oldest first.
func (s *Store) Boards(ctx context.Context) ([]model.Board, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at_unixms FROM boards ORDER BY created_at_unixms, id`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	out := []model.Board{}
	for rows.Next() {
		var b model.Board
		var ms int64
		if err := rows.Scan(&b.ID, &b.Name, &ms); err != nil {
			return nil, err
		}
		b.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

// Board returns a board without its tree.
func (s *Store) Board(ctx context.Context, boardID string) (*model.Board, error) {
	var b model.Board
	var ms int64
	err := s.db.QueryRowContext(ctx, `SELECT id, name, created_at_unixms FROM boards WHERE id = ?`, boardID).Scan(&b.ID, &b.Name, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("board %q: %w", boardID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	b.CreatedAt = time.UnixMilli(ms).UTC()
	return &b, nil
}

// BoardTree loads levels 1-2 of a board. Item.SubItems stays nil and only SubItemCount is
// filled, so level 3 is loaded on demand.
func (s *Store) BoardTree(ctx context.Context, boardID string) (*model.Board, error) {
	return s.boardTree(ctx, boardID, false)
}

// BoardTreeWithSubItems loads the whole hierarchy, embedding every item's children.
func (s *Store) BoardTreeWithSubItems(ctx context.Context, boardID string) (*model.Board, error) {
	return s.boardTree(ctx, boardID, true)
}

func (s *Store) boardTree(ctx context.Context, boardID string, embed bool) (*model.Board, error) {
	b, err := s.Board(ctx, boardID)
	if err != nil {
		return nil, err
	}

	cols, err := s.collections(ctx, boardID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]int, len(cols))
	for i := range cols {
		byID[cols[i].ID] = i
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.collection_id, i.rank, i.name, i.description, i.link, i.completed, i.priority, i.due_json, i.labels_json,
		       (SELECT COUNT(*) FROM sub_items s WHERE s.item_id = i.id)
		FROM items i
		JOIN collections c ON c.id = i.collection_id
		WHERE c.board_id = ?
		ORDER BY i.collection_id, i.rank, i.id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	itemIdx := map[string][2]int{}
	for rows.Next() {
		var it model.Item
		var done int
		var prio, dueJS, labelsJS string
		if err := rows.Scan(&it.ID, &it.CollectionID, &it.Rank, &it.Name, &it.Description, &it.Link, &done, &prio, &dueJS, &labelsJS, &it.SubItemCount); err != nil {
			return nil, err
		}
		it.Completed = done != 0
		it.Priority = model.Priority(prio)
		if it.Due, err = decodeDue(dueJS); err != nil {
			return nil, err
		}
		if it.Labels, err = decodeLabels(labelsJS); err != nil {
			return nil, err
		}
		ci, ok := byID[it.CollectionID]
		if !ok {
			continue
		}
		cols[ci].Items = append(cols[ci].Items, it)
		itemIdx[it.ID] = [2]int{ci, len(cols[ci].Items) - 1}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if embed {
		for _, ref := range itemIdx {
			cols[ref[0]].Items[ref[1]].SubItems = []model.SubItem{}
		}
		subs, err := s.querySubItems(ctx, `
			SELECT s.id, s.item_id, s.rank, s.name, s.completed, s.priority, s.due_json, s.labels_json
			FROM sub_items s
			JOIN items i ON i.id = s.item_id
			JOIN collections c ON c.id = i.collection_id
			WHERE c.board_id = ?
			ORDER BY s.item_id, s.rank, s.id`, boardID)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			if ref, ok := itemIdx[sub.ItemID]; ok {
				it := &cols[ref[0]].Items[ref[1]]
				it.SubItems = append(it.SubItems, sub)
			}
		}
	}

	b.Collections = cols
	return b, nil
}

func (s *Store) collections(ctx context.Context, boardID string) ([]model.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, board_id, rank, name, completed, priority, due_json, labels_json
		FROM collections WHERE board_id = ? ORDER BY rank, id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	defer rows.Close()

	out := []model.Collection{}
	for rows.Next() {
		var c model.Collection
		var done int
		var prio, dueJS, labelsJS string
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Rank, &c.Name, &done, &prio, &dueJS, &labelsJS); err != nil {
			return nil, err
		}
		c.Completed = done != 0
		c.Priority = model.Priority(prio)
		if c.Due, err = decodeDue(dueJS); err != nil {
			return nil, err
		}
		if c.Labels, err = decodeLabels(labelsJS); err != nil {
			return nil, err
		}
		c.Items = []model.Item{}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateBoard inserts an empty board.
func (s *Store) CreateBoard(ctx context.Context, name string) (*model.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("board name is required")
	}
	id, err := newRandomID(prefixBoard)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO boards(id, name, created_at_unixms) VALUES(?, ?, ?)`, id, name, now.UnixMilli()); err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	s.log.Debug().Str("board", id).Msg("board created")
	return &model.Board{ID: id, Name: name, CreatedAt: time.UnixMilli(now.UnixMilli()).UTC()}, nil
}

// Attrs are the optional attributes shared by every level.
type Attrs struct {
	Completed bool
	Priority  model.Priority
	Due       *model.DateTime
	Labels    []model.Label
}

func (a Attrs) encode() (due string, labels string, err error) {
	if !a.Priority.Valid() {
		return "", "", invalidf("invalid priority %q", a.Priority)
	}
	if due, err = encodeJSON(a.Due); err != nil {
		return "", "", err
	}
	if labels, err = encodeJSON(a.Labels); err != nil {
		return "", "", err
	}
	return due, labels, nil
}

func (s *Store) CreateCollection(ctx context.Context, boardID, name string, a Attrs) (*model.Collection, error) {
	if _, err := s.Board(ctx, boardID); err != nil {
		return nil, err
	}
	due, labels, err := a.encode()
	if err != nil {
		return nil, err
	}
	id, err := newRandomID(prefixCollection)
	if err != nil {
		return nil, err
	}
	rank, err := s.nextRank(ctx, "collections", "board_id", boardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO collections(id, board_id, rank, name, completed, priority, due_json, labels_json)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		id, boardID, rank, strings.TrimSpace(name), boolToInt(a.Completed), string(a.Priority), due, labels); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &model.Collection{
		ID: id, BoardID: boardID, Rank: rank, Name: strings.TrimSpace(name),
		Completed: a.Completed, Priority: a.Priority, Due: a.Due, Labels: a.Labels, Items: []model.Item{},
	}, nil
}

// ItemFields are the item-only attributes.
type ItemFields struct {
	Description string
	Link        string
}

func (s *Store) CreateItem(ctx context.Context, collectionID, name string, f ItemFields, a Attrs) (*model.Item, error) {
	if err := s.exists(ctx, "collections", collectionID); err != nil {
		return nil, err
	}
	due, labels, err := a.encode()
	if err != nil {
		return nil, err
	}
	id, err := newRandomID(prefixItem)
	if err != nil {
		return nil, err
	}
	rank, err := s.nextRank(ctx, "items", "collection_id", collectionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO items(id, collection_id, rank, name, description, link, completed, priority, due_json, labels_json)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, collectionID, rank, strings.TrimSpace(name), f.Description, strings.TrimSpace(f.Link),
		boolToInt(a.Completed), string(a.Priority), due, labels); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &model.Item{
		ID: id, CollectionID: collectionID, Rank: rank, Name: strings.TrimSpace(name),
		Description: f.Description, Link: strings.TrimSpace(f.Link),
		Completed: a.Completed, Priority: a.Priority, Due: a.Due, Labels: a.Labels,
	}, nil
}

func (s *Store) nextRank(ctx context.Context, table, parentCol, parentID string) (int, error) {
	var rank int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(rank), 0) + 1 FROM `+table+` WHERE `+parentCol+` = ?`, parentID).Scan(&rank)
	if err != nil {
		return 0, fmt.Errorf("next rank: %w", err)
	}
	return rank, nil
}

func (s *Store) exists(ctx context.Context, table, id string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", strings.TrimSuffix(table, "s"), id, ErrNotFound)
	}
	return nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeDue(js string) (*model.DateTime, error) {
	if js == "" || js == "null" {
		return nil, nil
	}
	var dt model.DateTime
	if err := json.Unmarshal([]byte(js), &dt); err != nil {
		return nil, fmt.Errorf("decode due: %w", err)
	}
	return &dt, nil
}

func decodeLabels(js string) ([]model.Label, error) {
	if js == "" || js == "null" {
		return nil, nil
	}
	var out []model.Label
	if err := json.Unmarshal([]byte(js), &out); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	return out, nil
}
