package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"blogd/pkg/types"
)

const entrySelect = `SELECT e.id, e.title, e.content, e.date, e.attachment, e.attachment_content_type,
        b.id, b.name, b.handle, b.user_login
    FROM entry e LEFT JOIN blog b ON b.id = e.blog_id`

// SaveEntry inserts or updates an entry together with its tag links. The
// stored entry is returned with its blog and tags loaded.
func (s *Store) SaveEntry(ctx context.Context, e types.Entry) (*types.Entry, error) {
	var blogID any
	if e.Blog != nil && e.Blog.ID != nil {
		blogID = *e.Blog.ID
	}
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if e.ID == nil {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO entry (title, content, date, blog_id, attachment, attachment_content_type)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				e.Title, e.Content, formatTime(e.Date), blogID,
				nullableString(e.Attachment), nullableString(e.AttachmentContentType))
			if err != nil {
				return fmt.Errorf("insert entry: %w", err)
			}
			if id, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
		} else {
			id = *e.ID
			res, err := tx.ExecContext(ctx,
				`UPDATE entry SET title = ?, content = ?, date = ?, blog_id = ?,
                    attachment = ?, attachment_content_type = ?
                 WHERE id = ?`,
				e.Title, e.Content, formatTime(e.Date), blogID,
				nullableString(e.Attachment), nullableString(e.AttachmentContentType), id)
			if err != nil {
				return fmt.Errorf("update entry %d: %w", id, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("entry %d: %w", id, ErrNotFound)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tag WHERE entry_id = ?`, id); err != nil {
				return fmt.Errorf("clear entry tags: %w", err)
			}
		}
		for _, t := range e.Tags {
			if t.ID == nil {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO entry_tag (entry_id, tag_id) VALUES (?, ?)`, id, *t.ID); err != nil {
				return fmt.Errorf("link tag %d: %w", *t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetEntry(ctx, id)
}

// GetEntry fetches an entry with its blog and tags.
func (s *Store) GetEntry(ctx context.Context, id int64) (*types.Entry, error) {
	row := s.db.QueryRowContext(ctx, entrySelect+` WHERE e.id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	if err := s.loadTags(ctx, []*types.Entry{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// ListEntriesByOwner returns the entries of blogs owned by login, newest
// first.
func (s *Store) ListEntriesByOwner(ctx context.Context, login string, page types.Page) (types.PageResult[types.Entry], error) {
	return s.listEntries(ctx, page, `b.user_login = ?`, login)
}

// SearchEntries matches query against entry titles and content.
func (s *Store) SearchEntries(ctx context.Context, query string, page types.Page) (types.PageResult[types.Entry], error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return s.listEntries(ctx, page, "")
	}
	var (
		conds []string
		args  []any
	)
	for _, term := range terms {
		conds = append(conds, `(e.title LIKE ? ESCAPE '\' OR e.content LIKE ? ESCAPE '\')`)
		p := likePattern(term)
		args = append(args, p, p)
	}
	return s.listEntries(ctx, page, strings.Join(conds, " AND "), args...)
}

// DeleteEntry removes an entry.
func (s *Store) DeleteEntry(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM entry WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) listEntries(ctx context.Context, page types.Page, where string, args ...any) (types.PageResult[types.Entry], error) {
	out := types.PageResult[types.Entry]{Page: page}
	clause := ""
	if where != "" {
		clause = " WHERE " + where
	}
	count := `SELECT COUNT(*) FROM entry e LEFT JOIN blog b ON b.id = e.blog_id` + clause
	if err := s.db.QueryRowContext(ctx, count, args...).Scan(&out.Total); err != nil {
		return out, fmt.Errorf("count entries: %w", err)
	}

	q := entrySelect + clause + ` ORDER BY e.date DESC, e.id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, append(args, page.Size, page.Offset())...)
	if err != nil {
		return out, fmt.Errorf("list entries: %w", err)
	}
	var list []*types.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return out, fmt.Errorf("scan entry: %w", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return out, err
	}
	rows.Close()

	if err := s.loadTags(ctx, list); err != nil {
		return out, err
	}
	for _, e := range list {
		out.Items = append(out.Items, *e)
	}
	return out, nil
}

// loadTags fills Tags on each entry. Rows of the entry query must be closed
// first: the store runs on a single connection.
func (s *Store) loadTags(ctx context.Context, entries []*types.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	byID := make(map[int64]*types.Entry, len(entries))
	marks := make([]string, 0, len(entries))
	args := make([]any, 0, len(entries))
	for _, e := range entries {
		byID[*e.ID] = e
		marks = append(marks, "?")
		args = append(args, *e.ID)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT et.entry_id, t.id, t.name FROM entry_tag et JOIN tag t ON t.id = et.tag_id
         WHERE et.entry_id IN (`+strings.Join(marks, ",")+`) ORDER BY t.name, t.id`, args...)
	if err != nil {
		return fmt.Errorf("load entry tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var entryID, tagID int64
		var name string
		if err := rows.Scan(&entryID, &tagID, &name); err != nil {
			return fmt.Errorf("scan entry tag: %w", err)
		}
		id := tagID
		byID[entryID].Tags = append(byID[entryID].Tags, types.Tag{ID: &id, Name: name})
	}
	return rows.Err()
}

func scanEntry(r rowScanner) (*types.Entry, error) {
	var (
		id                     int64
		e                      types.Entry
		date                   string
		attachment, attachType sql.NullString
		blogID                 sql.NullInt64
		blogName, blogHandle   sql.NullString
		blogLogin              sql.NullString
	)
	if err := r.Scan(&id, &e.Title, &e.Content, &date, &attachment, &attachType,
		&blogID, &blogName, &blogHandle, &blogLogin); err != nil {
		return nil, err
	}
	t, err := parseTime(date)
	if err != nil {
		return nil, err
	}
	e.ID = &id
	e.Date = t
	e.Attachment = attachment.String
	e.AttachmentContentType = attachType.String
	if blogID.Valid {
		bid := blogID.Int64
		e.Blog = &types.Blog{ID: &bid, Name: blogName.String, Handle: blogHandle.String, UserLogin: blogLogin.String}
	}
	return &e, nil
}
