// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sqliteadapter is the embedded, file-or-memory backend — the
// registry's zero-configuration default (DBAL_ADAPTER=sqlite).
package sqliteadapter

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/sqlstore"
)

// New constructs a sqlite-backed [adapter.Adapter]. The URL's sqlite:// scheme
// is stripped before being handed to the driver, which expects a bare path or
// ":memory:".
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	dsn := strings.TrimPrefix(cfg.DatabaseURL, "sqlite://")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; avoid SQLITE_BUSY storms.

	store, err := sqlstore.Open(ctx, db, sqlstore.SQLiteDialect())
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
