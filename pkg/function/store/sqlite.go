package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/entrhq/funcbox/pkg/function"
)

// SQLitePersister stores one row per function in a SQLite database. Every
// Save replaces the table contents inside one transaction.
type SQLitePersister struct {
	db *sqlx.DB
}

// functionRow is the custom_functions row layout. Structured fields are
// stored as JSON text.
type functionRow struct {
	ID          string         `db:"id"`
	Position    int            `db:"position"`
	Name        string         `db:"name"`
	NameKey     string         `db:"name_key"`
	Description string         `db:"description"`
	Parameters  string         `db:"parameters"`
	ReturnType  string         `db:"return_type"`
	Code        string         `db:"code"`
	Tags        string         `db:"tags"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
	CreatedBy   string         `db:"created_by"`
	Version     int            `db:"version"`
	UsageCount  int            `db:"usage_count"`
	LastUsed    sql.NullString `db:"last_used"`
	History     string         `db:"history"`
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS store_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS custom_functions (
	id          TEXT PRIMARY KEY,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	name_key    TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	parameters  TEXT NOT NULL DEFAULT '[]',
	return_type TEXT NOT NULL,
	code        TEXT NOT NULL,
	tags        TEXT NOT NULL DEFAULT '[]',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	created_by  TEXT NOT NULL DEFAULT '',
	version     INTEGER NOT NULL,
	usage_count INTEGER NOT NULL DEFAULT 0,
	last_used   TEXT,
	history     TEXT NOT NULL DEFAULT '[]'
);`

const insertFunctionSQL = `
INSERT INTO custom_functions (
	id, position, name, name_key, description, parameters, return_type, code, tags,
	created_at, updated_at, created_by, version, usage_count, last_used, history
) VALUES (
	:id, :position, :name, :name_key, :description, :parameters, :return_type, :code, :tags,
	:created_at, :updated_at, :created_by, :version, :usage_count, :last_used, :history
)`

// NewSQLitePersister opens (or creates) the database at dsn, e.g. a file
// path such as "~/.funcbox/functions.db".
func NewSQLitePersister(dsn string) (*SQLitePersister, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases coherent and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: connect sqlite: %w", err)
	}

	p := &SQLitePersister{db: db}
	if err := p.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return p, nil
}

func (p *SQLitePersister) initSchema() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=30000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := p.db.Exec(pragma); err != nil {
			return err
		}
	}
	_, err := p.db.Exec(schemaSQL)
	return err
}

// Close closes the database.
func (p *SQLitePersister) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *SQLitePersister) Load(ctx context.Context) (*Document, error) {
	var version string
	err := p.db.GetContext(ctx, &version, `SELECT value FROM store_meta WHERE key = 'version'`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, function.WrapError(function.KindStorageCorrupted, err, "read store version")
	}

	var rows []functionRow
	if err := p.db.SelectContext(ctx, &rows, `SELECT * FROM custom_functions ORDER BY position`); err != nil {
		return nil, function.WrapError(function.KindStorageCorrupted, err, "read functions")
	}

	doc := &Document{Version: version, Functions: make([]*function.Function, 0, len(rows))}
	for _, row := range rows {
		fn, err := row.toFunction()
		if err != nil {
			return nil, function.WrapError(function.KindStorageCorrupted, err, "decode function %s", row.ID)
		}
		doc.Functions = append(doc.Functions, fn)
	}
	if issues := doc.Check(); len(issues) > 0 {
		e := function.NewError(function.KindStorageCorrupted, "%s", issues[0].Message)
		e.Issues = issues
		return nil, e
	}
	return doc, nil
}

func (p *SQLitePersister) Save(ctx context.Context, doc *Document) error {
	rows := make([]functionRow, 0, len(doc.Functions))
	for i, fn := range doc.Functions {
		row, err := newFunctionRow(i, fn)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM custom_functions`); err != nil {
		return fmt.Errorf("store: clear functions: %w", err)
	}
	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, insertFunctionSQL, row); err != nil {
			return fmt.Errorf("store: insert function %s: %w", row.Name, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO store_meta (key, value) VALUES ('version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, doc.Version); err != nil {
		return fmt.Errorf("store: write store version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func newFunctionRow(position int, fn *function.Function) (functionRow, error) {
	params, err := json.Marshal(fn.Parameters)
	if err != nil {
		return functionRow{}, fmt.Errorf("store: encode parameters of %s: %w", fn.Name, err)
	}
	tags, err := json.Marshal(fn.Tags)
	if err != nil {
		return functionRow{}, fmt.Errorf("store: encode tags of %s: %w", fn.Name, err)
	}
	history, err := json.Marshal(fn.History)
	if err != nil {
		return functionRow{}, fmt.Errorf("store: encode history of %s: %w", fn.Name, err)
	}

	row := functionRow{
		ID:          fn.ID,
		Position:    position,
		Name:        fn.Name,
		NameKey:     function.NameKey(fn.Name),
		Description: fn.Description,
		Parameters:  string(params),
		ReturnType:  fn.ReturnType,
		Code:        fn.Code,
		Tags:        string(tags),
		CreatedAt:   fn.Metadata.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   fn.Metadata.UpdatedAt.Format(time.RFC3339Nano),
		CreatedBy:   fn.Metadata.CreatedBy,
		Version:     fn.Metadata.Version,
		UsageCount:  fn.Metadata.UsageCount,
		History:     string(history),
	}
	if fn.Metadata.LastUsed != nil {
		row.LastUsed = sql.NullString{String: fn.Metadata.LastUsed.Format(time.RFC3339Nano), Valid: true}
	}
	return row, nil
}

func (r functionRow) toFunction() (*function.Function, error) {
	fn := &function.Function{
		ID: r.ID,
		Definition: function.Definition{
			Name:        r.Name,
			Description: r.Description,
			ReturnType:  r.ReturnType,
			Code:        r.Code,
		},
		Metadata: function.Metadata{
			CreatedBy:  r.CreatedBy,
			Version:    r.Version,
			UsageCount: r.UsageCount,
		},
	}
	if err := json.Unmarshal([]byte(r.Parameters), &fn.Parameters); err != nil {
		return nil, fmt.Errorf("parameters: %w", err)
	}
	if err := json.Unmarshal([]byte(r.Tags), &fn.Tags); err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	if err := json.Unmarshal([]byte(r.History), &fn.History); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	var err error
	if fn.Metadata.CreatedAt, err = time.Parse(time.RFC3339Nano, r.CreatedAt); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if fn.Metadata.UpdatedAt, err = time.Parse(time.RFC3339Nano, r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	if r.LastUsed.Valid {
		t, err := time.Parse(time.RFC3339Nano, r.LastUsed.String)
		if err != nil {
			return nil, fmt.Errorf("last_used: %w", err)
		}
		fn.Metadata.LastUsed = &t
	}
	return fn, nil
}
