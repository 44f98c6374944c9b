package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/dubaieta/core/prediction"
)

// SQLiteStore keeps artifacts in a SQLite table keyed by name.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS model_artifacts (
        name TEXT PRIMARY KEY,
        data BLOB NOT NULL,
        updated_at INTEGER NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save upserts every artifact in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, a prediction.Artifacts) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UnixNano()
	for name, data := range a {
		if _, err := tx.ExecContext(ctx, `INSERT INTO model_artifacts (name, data, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			name, data, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Load reads every stored artifact.
func (s *SQLiteStore) Load(ctx context.Context) (prediction.Artifacts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, data FROM model_artifacts`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	a := prediction.Artifacts{}
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return nil, err
		}
		a[name] = data
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(a) == 0 {
		return nil, prediction.ErrNoArtifacts
	}
	return a, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
