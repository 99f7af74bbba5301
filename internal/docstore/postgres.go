package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/nhle/novelstudio/internal/docstore/migrations"
)

// PostgresStore implements Store on PostgreSQL, keeping document bodies in a
// JSONB column so listing can order by any top-level field.
type PostgresStore struct {
	db *sqlx.DB
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewPostgresStore connects to dsn and applies the embedded migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db.DB, "."); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// List returns the documents of a collection ordered by a JSON field.
func (s *PostgresStore) List(ctx context.Context, collection Path, order OrderBy) ([]Document, error) {
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
		`SELECT path, id, data::text AS data FROM documents WHERE collection = $1
		ORDER BY data -> $2 %s, created_at %s, seq %s`, dir, dir, dir)

	var rows []docRow
	if err := s.db.SelectContext(ctx, &rows, query, string(collection), field); err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}

	docs := make([]Document, len(rows))
	for i, r := range rows {
		docs[i] = Document{ID: r.ID, Path: Path(r.Path), Data: []byte(r.Data)}
	}
	return docs, nil
}

// Get returns the document at path.
func (s *PostgresStore) Get(ctx context.Context, path Path) (Document, error) {
	if err := path.validate(true); err != nil {
		return Document{}, err
	}
	var r docRow
	err := s.db.GetContext(ctx, &r, "SELECT path, id, data::text AS data FROM documents WHERE path = $1", string(path))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("getting %s: %w", path, err)
	}
	return Document{ID: r.ID, Path: Path(r.Path), Data: []byte(r.Data)}, nil
}

// Create inserts a new document with a generated id.
func (s *PostgresStore) Create(ctx context.Context, collection Path, data map[string]any) (string, error) {
	if err := collection.validate(false); err != nil {
		return "", err
	}
	id := uuid.New().String()
	now := stampNow()

	body, err := merge(nil, data, now, true)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (path, collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)`,
		string(collection.Doc(id)), string(collection), id, string(body), createdAtOf(body), now,
	)
	if err != nil {
		return "", fmt.Errorf("creating document in %s: %w", collection, err)
	}
	return id, nil
}

// Update merges patch into an existing document.
func (s *PostgresStore) Update(ctx context.Context, path Path, patch map[string]any) error {
	if err := path.validate(true); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return s.updateTx(ctx, tx, path, patch, stampNow())
	})
}

func (s *PostgresStore) updateTx(ctx context.Context, tx *sqlx.Tx, path Path, patch map[string]any, now string) error {
	var existing string
	err := tx.GetContext(ctx, &existing, "SELECT data::text FROM documents WHERE path = $1 FOR UPDATE", string(path))
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
		"UPDATE documents SET data = $1::jsonb, updated_at = $2 WHERE path = $3",
		string(body), now, string(path),
	); err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}
	return nil
}

// Delete removes a document and all of its descendants.
func (s *PostgresStore) Delete(ctx context.Context, path Path) error {
	if err := path.validate(true); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE path = $1 OR path LIKE $2`,
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
func (s *PostgresStore) Commit(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}
	for _, w := range writes {
		if err := w.Path.validate(true); err != nil {
			return err
		}
	}
	now := stampNow()
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, w := range writes {
			if err := s.updateTx(ctx, tx, w.Path, w.Patch, now); err != nil {
				return fmt.Errorf("committing batch: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
