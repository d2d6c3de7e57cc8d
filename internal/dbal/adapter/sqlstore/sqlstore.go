// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sqlstore is the shared generic-document storage core for every
relational adapter (sqlite, postgres, mysql, cockroachdb, tidb, supabase).

Each entity is a logical table of JSON-encoded documents: one physical table,
"dbal_records", partitioned by an "entity" column rather than one physical
table per entity — the schema-agnostic model has no compiled struct to
generate a CREATE TABLE from, so the document itself is the schema. A
relational adapter is this store plus a [Dialect] describing the small
handful of syntax differences (placeholder style, upsert clause, JSON column
type) between the SQL dialects of the six adapters it's reused across.
*/
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/internal/platform/dberr"
	"github.com/meridiandb/dbal/pkg/uuidv7"
)

// Dialect captures the syntax differences between the SQL families this
// store is reused across.
type Dialect struct {
	// Name identifies the dialect for logging ("postgres", "mysql", "sqlite").
	Name string
	// Placeholder renders the n-th (1-indexed) bind placeholder.
	Placeholder func(n int) string
	// CreateTableDDL is the full CREATE TABLE IF NOT EXISTS statement.
	CreateTableDDL string
	// Upsert renders an INSERT ... ON CONFLICT/DUPLICATE KEY UPDATE
	// statement given the bind placeholders in positional order
	// (entity, id, tenantId, data, createdAt, updatedAt).
	Upsert func(ph [6]string) string
}

// Store is a generic relational document adapter.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open builds a [Store] over an already-opened *sql.DB, creating the backing
// table if absent.
func Open(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	if _, err := db.ExecContext(ctx, dialect.CreateTableDDL); err != nil {
		return nil, fmt.Errorf("sqlstore: create table (%s): %w", dialect.Name, err)
	}
	return &Store{db: db, dialect: dialect}, nil
}

func (s *Store) Create(ctx context.Context, entity string, doc adapter.Document) (adapter.Document, error) {
	assignID(doc)
	return s.upsert(ctx, s.db, entity, doc)
}

// assignID generates an id for doc if it does not already carry one. Most
// backends this store sits behind have no native auto-increment concept
// compatible with a JSON-document model, so id generation lives here rather
// than per-dialect.
func assignID(doc adapter.Document) {
	if id, ok := doc["id"].(string); !ok || id == "" {
		doc["id"] = uuidv7.New()
	}
}

func (s *Store) Read(ctx context.Context, entity, id string) (adapter.Document, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT data FROM dbal_records WHERE entity = %s AND id = %s", s.dialect.Placeholder(1), s.dialect.Placeholder(2)),
		entity, id)

	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound(entity)
		}
		return nil, dberr.Wrap(err)
	}
	return decode(raw)
}

func (s *Store) Update(ctx context.Context, entity, id string, doc adapter.Document) (adapter.Document, error) {
	if _, err := s.Read(ctx, entity, id); err != nil {
		return nil, err
	}
	doc["id"] = id
	return s.upsert(ctx, s.db, entity, doc)
}

func (s *Store) Remove(ctx context.Context, entity, id string) error {
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM dbal_records WHERE entity = %s AND id = %s", s.dialect.Placeholder(1), s.dialect.Placeholder(2)),
		entity, id)
	if err != nil {
		return dberr.Wrap(err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}

func (s *Store) List(ctx context.Context, entity string, opts adapter.ListOptions) (adapter.ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	var countRow = s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM dbal_records WHERE entity = %s", s.dialect.Placeholder(1)), entity)
	var total int
	if err := countRow.Scan(&total); err != nil {
		return adapter.ListResult{}, dberr.Wrap(err)
	}

	query := fmt.Sprintf("SELECT data FROM dbal_records WHERE entity = %s ORDER BY updated_at DESC LIMIT %s OFFSET %s",
		s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3))
	rows, err := s.db.QueryContext(ctx, query, entity, limit, offset)
	if err != nil {
		return adapter.ListResult{}, dberr.Wrap(err)
	}
	defer rows.Close()

	items := make([]adapter.Document, 0, limit)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return adapter.ListResult{}, dberr.Wrap(err)
		}
		doc, err := decode(raw)
		if err != nil {
			return adapter.ListResult{}, err
		}
		items = append(items, doc)
	}

	return adapter.ListResult{Items: items, Total: total}, nil
}

// Tx is a [adapter.Transaction] over a *sql.Tx.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

func (s *Store) BeginTransaction(ctx context.Context) (adapter.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, dberr.Wrap(err)
	}
	return &Tx{tx: tx, dialect: s.dialect}, nil
}

func (s *Store) Capabilities() map[adapter.Capability]bool {
	return map[adapter.Capability]bool{adapter.CapabilityTransactions: true}
}

func (s *Store) Close() error { return s.db.Close() }

func (t *Tx) Create(ctx context.Context, entity string, doc adapter.Document) (adapter.Document, error) {
	assignID(doc)
	return upsertWith(ctx, t.tx, t.dialect, entity, doc)
}

func (t *Tx) Update(ctx context.Context, entity, id string, doc adapter.Document) (adapter.Document, error) {
	doc["id"] = id
	return upsertWith(ctx, t.tx, t.dialect, entity, doc)
}

func (t *Tx) Remove(ctx context.Context, entity, id string) error {
	_, err := t.tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM dbal_records WHERE entity = %s AND id = %s", t.dialect.Placeholder(1), t.dialect.Placeholder(2)),
		entity, id)
	return dberr.Wrap(err)
}

func (t *Tx) Commit(ctx context.Context) error   { return dberr.Wrap(t.tx.Commit()) }
func (t *Tx) Rollback(ctx context.Context) error { return dberr.Wrap(t.tx.Rollback()) }

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *Store) upsert(ctx context.Context, ex execer, entity string, doc adapter.Document) (adapter.Document, error) {
	return upsertWith(ctx, ex, s.dialect, entity, doc)
}

func upsertWith(ctx context.Context, ex execer, dialect Dialect, entity string, doc adapter.Document) (adapter.Document, error) {
	id, _ := doc["id"].(string)
	if id == "" {
		return nil, apperr.Internal(fmt.Errorf("sqlstore: document missing id before upsert"))
	}

	tenantID, _ := doc["tenantId"].(string)
	now := time.Now().UTC()
	if _, ok := doc["createdAt"]; !ok {
		doc["createdAt"] = now.Format(time.RFC3339)
	}
	doc["updatedAt"] = now.Format(time.RFC3339)

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("sqlstore: encode document: %w", err))
	}

	ph := [6]string{
		dialect.Placeholder(1), dialect.Placeholder(2), dialect.Placeholder(3),
		dialect.Placeholder(4), dialect.Placeholder(5), dialect.Placeholder(6),
	}
	_, err = ex.ExecContext(ctx, dialect.Upsert(ph), entity, id, tenantID, string(raw), now, now)
	if err != nil {
		return nil, dberr.Wrap(err)
	}
	return doc, nil
}

func decode(raw string) (adapter.Document, error) {
	var doc adapter.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, apperr.Internal(fmt.Errorf("sqlstore: decode document: %w", err))
	}
	return doc, nil
}

// PositionalDialect returns a Dialect using "$1, $2, ..." placeholders
// (postgres, cockroachdb) with a JSONB column and ON CONFLICT upsert.
func PositionalDialect(name string) Dialect {
	return Dialect{
		Name:        name,
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		CreateTableDDL: `CREATE TABLE IF NOT EXISTS dbal_records (
			entity TEXT NOT NULL,
			id TEXT NOT NULL,
			tenant_id TEXT,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (entity, id)
		)`,
		Upsert: func(ph [6]string) string {
			return fmt.Sprintf(`INSERT INTO dbal_records (entity, id, tenant_id, data, created_at, updated_at)
				VALUES (%s, %s, %s, %s, %s, %s)
				ON CONFLICT (entity, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
				ph[0], ph[1], ph[2], ph[3], ph[4], ph[5])
		},
	}
}

// QuestionMarkDialect returns a Dialect using "?" placeholders (mysql, tidb)
// with a JSON column and ON DUPLICATE KEY UPDATE upsert.
func QuestionMarkDialect(name string) Dialect {
	return Dialect{
		Name:        name,
		Placeholder: func(int) string { return "?" },
		CreateTableDDL: `CREATE TABLE IF NOT EXISTS dbal_records (
			entity VARCHAR(191) NOT NULL,
			id VARCHAR(191) NOT NULL,
			tenant_id VARCHAR(191),
			data JSON NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (entity, id)
		)`,
		Upsert: func(ph [6]string) string {
			return strings.Join([]string{
				"INSERT INTO dbal_records (entity, id, tenant_id, data, created_at, updated_at)",
				"VALUES (?, ?, ?, ?, ?, ?)",
				"ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = VALUES(updated_at)",
			}, " ")
		},
	}
}

// SQLiteDialect returns a Dialect using "?" placeholders with a TEXT column
// (sqlite has no native JSON type) and an UPSERT clause.
func SQLiteDialect() Dialect {
	return Dialect{
		Name:        "sqlite",
		Placeholder: func(int) string { return "?" },
		CreateTableDDL: `CREATE TABLE IF NOT EXISTS dbal_records (
			entity TEXT NOT NULL,
			id TEXT NOT NULL,
			tenant_id TEXT,
			data TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (entity, id)
		)`,
		Upsert: func(ph [6]string) string {
			return strings.Join([]string{
				"INSERT INTO dbal_records (entity, id, tenant_id, data, created_at, updated_at)",
				"VALUES (?, ?, ?, ?, ?, ?)",
				"ON CONFLICT(entity, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at",
			}, " ")
		},
	}
}
