package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blogd/pkg/types"
)

// SaveTag inserts or updates a tag.
func (s *Store) SaveTag(ctx context.Context, t types.Tag) (*types.Tag, error) {
	if t.ID == nil {
		res, err := s.execWithRetry(ctx, `INSERT INTO tag (name) VALUES (?)`, t.Name)
		if err != nil {
			return nil, fmt.Errorf("insert tag: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetTag(ctx, id)
	}
	res, err := s.execWithRetry(ctx, `UPDATE tag SET name = ? WHERE id = ?`, t.Name, *t.ID)
	if err != nil {
		return nil, fmt.Errorf("update tag %d: %w", *t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("tag %d: %w", *t.ID, ErrNotFound)
	}
	return s.GetTag(ctx, *t.ID)
}

// GetTag fetches a tag by id.
func (s *Store) GetTag(ctx context.Context, id int64) (*types.Tag, error) {
	var t types.Tag
	var tid int64
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM tag WHERE id = ?`, id).Scan(&tid, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tag %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tag %d: %w", id, err)
	}
	t.ID = &tid
	return &t, nil
}

// ListTags returns one page of tags ordered by name.
func (s *Store) ListTags(ctx context.Context, page types.Page) (types.PageResult[types.Tag], error) {
	out := types.PageResult[types.Tag]{Page: page}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tag`).Scan(&out.Total); err != nil {
		return out, fmt.Errorf("count tags: %w", err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM tag ORDER BY name, id LIMIT ? OFFSET ?`, page.Size, page.Offset())
	if err != nil {
		return out, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var t types.Tag
		if err := rows.Scan(&id, &t.Name); err != nil {
			return out, fmt.Errorf("scan tag: %w", err)
		}
		t.ID = &id
		out.Items = append(out.Items, t)
	}
	return out, rows.Err()
}

// DeleteTag removes a tag and its entry links.
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM tag WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("tag %d: %w", id, ErrNotFound)
	}
	return nil
}
