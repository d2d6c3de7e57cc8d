// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package cockroachadapter is the CockroachDB backend. CockroachDB speaks
// the PostgreSQL wire protocol, so this is a thin rename over
// postgresadapter.New with no behavioral differences — the JSONB document
// store and its upsert clause are both valid CockroachDB SQL unchanged.
package cockroachadapter

import (
	"context"
	"strings"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/postgresadapter"
)

// New constructs a CockroachDB-backed [adapter.Adapter]. The "cockroachdb://"
// scheme is rewritten to "postgres://" before delegating — pgx's driver only
// recognizes the latter, and the two are otherwise wire-identical.
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	cfg.DatabaseURL = "postgres://" + strings.TrimPrefix(cfg.DatabaseURL, "cockroachdb://")
	return postgresadapter.New(ctx, cfg)
}
