package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domrepo "Stockyard/internal/domain/repository"

	_ "modernc.org/sqlite"
)

const modelSchema = `
CREATE TABLE IF NOT EXISTS models (
    id         TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL,
    blob       BLOB     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_models_created ON models(created_at DESC);
`

// SQLiteModelStore persists serialized trained models in SQLite (pure Go, no CGo).
type SQLiteModelStore struct {
	db *sql.DB
}

var _ domrepo.ModelStore = (*SQLiteModelStore)(nil)

// NewSQLiteModelStore opens (or creates) the model registry at the given path.
func NewSQLiteModelStore(path string) (*SQLiteModelStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("model store: open %q: %w", path, err)
	}
	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(modelSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("model store: apply schema: %w", err)
	}
	return &SQLiteModelStore{db: db}, nil
}

func (s *SQLiteModelStore) Save(ctx context.Context, id string, blob []byte) error {
	const q = `INSERT INTO models (id, created_at, blob) VALUES (?, ?, ?)
               ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, blob = excluded.blob`
	if _, err := s.db.ExecContext(ctx, q, id, time.Now().UTC(), blob); err != nil {
		return fmt.Errorf("model store: save %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteModelStore) Load(ctx context.Context, id string) ([]byte, error) {
	const q = `SELECT blob FROM models WHERE id = ?`
	var blob []byte
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("model store: model %s not found", id)
		}
		return nil, fmt.Errorf("model store: load %s: %w", id, err)
	}
	return blob, nil
}

func (s *SQLiteModelStore) LoadLatest(ctx context.Context) (string, []byte, error) {
	// rowid breaks ties when two saves land in the same clock tick
	const q = `SELECT id, blob FROM models ORDER BY created_at DESC, rowid DESC LIMIT 1`
	var (
		id   string
		blob []byte
	)
	if err := s.db.QueryRowContext(ctx, q).Scan(&id, &blob); err != nil {
		if err == sql.ErrNoRows {
			return "", nil, fmt.Errorf("model store: empty registry")
		}
		return "", nil, fmt.Errorf("model store: load latest: %w", err)
	}
	return id, blob, nil
}

func (s *SQLiteModelStore) Close() error {
	return s.db.Close()
}
