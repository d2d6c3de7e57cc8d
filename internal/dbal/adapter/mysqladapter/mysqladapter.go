// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package mysqladapter is the MySQL backend. TiDB
// (internal/dbal/adapter/tidbadapter) speaks the same wire protocol and
// reuses this package's [New] under its own URL scheme.
package mysqladapter

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/sqlstore"
)

// New constructs a MySQL-backed [adapter.Adapter]. go-sql-driver/mysql takes
// a DSN without the "mysql://" scheme prefix, so it is stripped here.
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	dsn := strings.TrimPrefix(cfg.DatabaseURL, "mysql://") + parseTimeSuffix(cfg.DatabaseURL)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store, err := sqlstore.Open(ctx, db, sqlstore.QuestionMarkDialect("mysql"))
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// parseTimeSuffix returns the parseTime=true parameter to append to the DSN,
// joined with "&" when the DSN already carries a query string and "?"
// otherwise, so the driver can scan DATETIME columns into time.Time.
func parseTimeSuffix(databaseURL string) string {
	if strings.Contains(databaseURL, "?") {
		return "&parseTime=true"
	}
	return "?parseTime=true"
}
