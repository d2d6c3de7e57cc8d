// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package supabaseadapter is the Supabase backend. Supabase's database tier
// is PostgreSQL, so this rewrites the "supabase://" scheme to "postgres://"
// and delegates to postgresadapter.New.
package supabaseadapter

import (
	"context"
	"strings"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/postgresadapter"
)

// New constructs a Supabase-backed [adapter.Adapter].
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	cfg.DatabaseURL = "postgres://" + strings.TrimPrefix(cfg.DatabaseURL, "supabase://")
	return postgresadapter.New(ctx, cfg)
}
