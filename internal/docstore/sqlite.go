package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite database, one row per
// document with the body kept as JSON text.
type SQLiteStore struct {
	db *sqlx.DB
}

type docRow struct {
	Path string `db:"path"`
	ID   string `db:"id"`
	Data string `db:"data"`
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection serialises writers and keeps ":memory:" databases
	// shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range sqliteMigrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// List returns the documents of a collection ordered by a JSON field.
func (s *SQLiteStore) List(ctx context.Context, collection Path, order OrderBy) ([]Document, error) {
	if err := collection.validate(false); err != nil {
		return nil, err
	}
	field, err := order.field()
	if err != nil {
		return nil, err
	}
	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}

	query := fmt.Sprintf(
		`SELECT path, id, data FROM documents WHERE collection = ?
		ORDER BY json_extract(data, ?) %s, created_at %s, rowid %s`, dir, dir, dir)

	var rows []docRow
	if err := s.db.SelectContext(ctx, &rows, query, string(collection), "$."+field); err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}

	docs := make([]Document, len(rows))
	for i, r := range rows {
		docs[i] = Document{ID: r.ID, Path: Path(r.Path), Data: []byte(r.Data)}
	}
	return docs, nil
}

// Get returns the document at path.
func (s *SQLiteStore) Get(ctx context.Context, path Path) (Document, error) {
	if err := path.validate(true); err != nil {
		return Document{}, err
	}
	var r docRow
	err := s.db.GetContext(ctx, &r, "SELECT path, id, data FROM documents WHERE path = ?", string(path))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("getting %s: %w", path, err)
	}
	return Document{ID: r.ID, Path: Path(r.Path), Data: []byte(r.Data)}, nil
}

// Create inserts a new document with a generated id.
func (s *SQLiteStore) Create(ctx context.Context, collection Path, data map[string]any) (string, error) {
	if err := collection.validate(false); err != nil {
		return "", err
	}
	id := uuid.New().String()
	path := collection.Doc(id)
	now := stampNow()

	body, err := merge(nil, data, now, true)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (path, collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(path), string(collection), id, string(body), createdAtOf(body), now,
	)
	if err != nil {
		return "", fmt.Errorf("creating document in %s: %w", collection, err)
	}
	return id, nil
}

// Update merges patch into an existing document.
func (s *SQLiteStore) Update(ctx context.Context, path Path, patch map[string]any) error {
	if err := path.validate(true); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.updateTx(ctx, tx, path, patch, stampNow()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) updateTx(ctx context.Context, tx *sqlx.Tx, path Path, patch map[string]any, now string) error {
	var existing string
	err := tx.GetContext(ctx, &existing, "SELECT data FROM documents WHERE path = ?", string(path))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("document %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	body, err := merge([]byte(existing), patch, now, false)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET data = ?, updated_at = ? WHERE path = ?",
		string(body), now, string(path),
	); err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}
	return nil
}

// Delete removes a document and all of its descendants.
func (s *SQLiteStore) Delete(ctx context.Context, path Path) error {
	if err := path.validate(true); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE path = ? OR path LIKE ? ESCAPE '\'`,
		string(path), likePrefix(string(path)+"/"),
	)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("document %s: %w", path, ErrNotFound)
	}
	return nil
}

// Commit applies a batch of updates in one transaction.
func (s *SQLiteStore) Commit(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}
	for _, w := range writes {
		if err := w.Path.validate(true); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := stampNow()
	for _, w := range writes {
		if err := s.updateTx(ctx, tx, w.Path, w.Patch, now); err != nil {
			return fmt.Errorf("committing batch: %w", err)
		}
	}
	return tx.Commit()
}

func likePrefix(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s) + "%"
}
