package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blogd/pkg/types"
)

const blogColumns = "id, name, handle, user_login"

// SaveBlog inserts b when it has no id, otherwise updates the existing row.
// The stored blog is returned.
func (s *Store) SaveBlog(ctx context.Context, b types.Blog) (*types.Blog, error) {
	if b.ID == nil {
		res, err := s.execWithRetry(ctx,
			`INSERT INTO blog (name, handle, user_login) VALUES (?, ?, ?)`,
			b.Name, b.Handle, nullableString(b.UserLogin))
		if err != nil {
			return nil, fmt.Errorf("insert blog: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetBlog(ctx, id)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE blog SET name = ?, handle = ?, user_login = ? WHERE id = ?`,
		b.Name, b.Handle, nullableString(b.UserLogin), *b.ID)
	if err != nil {
		return nil, fmt.Errorf("update blog %d: %w", *b.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("blog %d: %w", *b.ID, ErrNotFound)
	}
	return s.GetBlog(ctx, *b.ID)
}

// GetBlog fetches a blog by id.
func (s *Store) GetBlog(ctx context.Context, id int64) (*types.Blog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blog WHERE id = ?`, id)
	b, err := scanBlog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blog %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get blog %d: %w", id, err)
	}
	return b, nil
}

// ListBlogs returns one page of blogs ordered by id.
func (s *Store) ListBlogs(ctx context.Context, page types.Page) (types.PageResult[types.Blog], error) {
	out := types.PageResult[types.Blog]{Page: page}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog`).Scan(&out.Total); err != nil {
		return out, fmt.Errorf("count blogs: %w", err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blog ORDER BY id LIMIT ? OFFSET ?`, page.Size, page.Offset())
	if err != nil {
		return out, fmt.Errorf("list blogs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return out, fmt.Errorf("scan blog: %w", err)
		}
		out.Items = append(out.Items, *b)
	}
	return out, rows.Err()
}

// DeleteBlog removes a blog and, through the foreign key, its entries. It
// returns the ids of the entries deleted with it.
func (s *Store) DeleteBlog(ctx context.Context, id int64) ([]int64, error) {
	var entryIDs []int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		entryIDs = entryIDs[:0]
		rows, err := tx.QueryContext(ctx, `SELECT id FROM entry WHERE blog_id = ? ORDER BY id`, id)
		if err != nil {
			return fmt.Errorf("list entries of blog %d: %w", id, err)
		}
		for rows.Next() {
			var eid int64
			if err := rows.Scan(&eid); err != nil {
				rows.Close()
				return fmt.Errorf("scan entry id: %w", err)
			}
			entryIDs = append(entryIDs, eid)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		res, err := tx.ExecContext(ctx, `DELETE FROM blog WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete blog %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("blog %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entryIDs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlog(r rowScanner) (*types.Blog, error) {
	var (
		id    int64
		b     types.Blog
		login sql.NullString
	)
	if err := r.Scan(&id, &b.Name, &b.Handle, &login); err != nil {
		return nil, err
	}
	b.ID = &id
	b.UserLogin = login.String
	return &b, nil
}
