package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sumalravindran/My-journal-new/internal/logging"
	"github.com/sumalravindran/My-journal-new/internal/records"
)

// SQLiteStore keeps every collection in one SQLite table
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates <state>/system/records.db
func OpenSQLite(statePath string) (*SQLiteStore, error) {
	dbPath := filepath.Join(statePath, "system", "records.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	logging.Debug("store", "sqlite records at %s", dbPath)
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- position preserves insertion order; replacing an id keeps its slot
	CREATE TABLE IF NOT EXISTS records (
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		position INTEGER NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (kind, id)
	);
	CREATE INDEX IF NOT EXISTS idx_records_kind_position ON records(kind, position);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) GetList(ctx context.Context, kind records.Kind) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM records WHERE kind = ? ORDER BY position ASC`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		items = append(items, Item{ID: id, Data: []byte(data)})
	}
	return items, rows.Err()
}

func (s *SQLiteStore) PutList(ctx context.Context, kind records.Kind, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM records WHERE kind = ?`, string(kind)).Scan(&next); err != nil {
		return fmt.Errorf("next position: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (kind, id, data, position, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, string(kind), it.ID, string(it.Data), next, now); err != nil {
			return fmt.Errorf("put %s %s: %w", kind, it.ID, err)
		}
		next++
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteByID(ctx context.Context, kind records.Kind, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	return nil
}
