// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgresadapter is the PostgreSQL backend. CockroachDB
// (internal/dbal/adapter/cockroachadapter) and Supabase
// (internal/dbal/adapter/supabaseadapter) both speak the same wire protocol
// and reuse this package's [New] under their own URL schemes.
package postgresadapter

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/sqlstore"
)

// New constructs a Postgres-backed [adapter.Adapter] over database/sql using
// pgx's stdlib driver, so it shares exactly one store implementation
// (sqlstore) with every other relational backend.
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store, err := sqlstore.Open(ctx, db, sqlstore.PositionalDialect("postgres"))
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
