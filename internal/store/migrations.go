package store

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; index+1 is the resulting user_version.
var migrations = []string{
	`CREATE TABLE blog (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        handle TEXT NOT NULL,
        user_login TEXT
    );
    CREATE INDEX idx_blog_user_login ON blog(user_login);
    CREATE TABLE tag (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL
    );
    CREATE TABLE entry (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        title TEXT NOT NULL,
        content TEXT NOT NULL,
        date TEXT NOT NULL,
        blog_id INTEGER REFERENCES blog(id) ON DELETE CASCADE
    );
    CREATE INDEX idx_entry_date ON entry(date);
    CREATE TABLE entry_tag (
        entry_id INTEGER NOT NULL REFERENCES entry(id) ON DELETE CASCADE,
        tag_id INTEGER NOT NULL REFERENCES tag(id) ON DELETE CASCADE,
        PRIMARY KEY (entry_id, tag_id)
    );`,
	`ALTER TABLE entry ADD COLUMN attachment TEXT;
    ALTER TABLE entry ADD COLUMN attachment_content_type TEXT;`,
}

// SchemaVersion returns the applied migration count.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func (s *Store) migrate(ctx context.Context) error {
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than supported %d", current, len(migrations))
	}
	for i := current; i < len(migrations); i++ {
		if err := s.applyMigration(ctx, i+1, migrations[i]); err != nil {
			return err
		}
	}
	return nil
}

// applyMigration runs one migration and records its version in the same
// transaction, so a failed step leaves the schema at the previous version.
func (s *Store) applyMigration(ctx context.Context, version int, stmt string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
			return fmt.Errorf("set schema version %d: %w", version, err)
		}
		return nil
	})
}
