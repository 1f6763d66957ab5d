// Package sqlite implements the stored-state boundary on a local SQLite
// database. It serves development and single-host deployments where no
// remote record store is available; the boundary semantics are identical.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	rserrors "ratesync/internal/errors"
	"ratesync/internal/models"
)

// Store implements state.Store using SQLite.
type Store struct {
	db    *sql.DB
	owner string
}

// NewStore opens (or creates) the database at dbPath and prepares the schema.
func NewStore(dbPath, owner string) (*Store, error) {
	if owner == "" {
		return nil, rserrors.NewConfigError("store.owner", rserrors.ErrMissingOwner.Error())
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{db: db, owner: owner}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fields (
		owner TEXT NOT NULL,
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		type TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (owner, namespace, key)
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReadFields returns the stored value per key for one namespace. Keys with
// no stored value are omitted.
func (s *Store) ReadFields(ctx context.Context, namespace string, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	placeholders := strings.Repeat("?,", len(keys))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(
		"SELECT key, value FROM fields WHERE owner = ? AND namespace = ? AND key IN (%s)", placeholders)

	args := make([]interface{}, 0, len(keys)+2)
	args = append(args, s.owner, namespace)
	for _, k := range keys {
		args = append(args, k)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, rserrors.NewStateReadError("", err)
	}
	defer rows.Close()

	values := make(map[string]string, len(keys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, rserrors.NewStateReadError(key, err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, rserrors.NewStateReadError("", err)
	}

	return values, nil
}

// WriteFields upserts the staged writes inside one transaction. A failing
// item aborts the whole batch and is reported with its key.
func (s *Store) WriteFields(ctx context.Context, writes []models.FieldWrite) error {
	if len(writes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rserrors.NewPersistError(err)
	}

	const upsert = `
	INSERT INTO fields (owner, namespace, key, type, value, updated_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (owner, namespace, key)
	DO UPDATE SET type = excluded.type, value = excluded.value, updated_at = CURRENT_TIMESTAMP`

	for _, w := range writes {
		if _, err := tx.ExecContext(ctx, upsert, s.owner, w.Namespace, w.Key, string(w.Type), w.Value); err != nil {
			tx.Rollback()
			return rserrors.NewPersistItemsError([]rserrors.ItemError{{Key: w.Key, Message: err.Error()}})
		}
	}

	if err := tx.Commit(); err != nil {
		return rserrors.NewPersistError(err)
	}
	return nil
}
