// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package tidbadapter is the TiDB backend. TiDB speaks the MySQL wire
// protocol, so this rewrites the "tidb://" scheme to "mysql://" and delegates
// to mysqladapter.New — no other behavioral differences apply.
package tidbadapter

import (
	"context"
	"strings"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/mysqladapter"
)

// New constructs a TiDB-backed [adapter.Adapter].
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	cfg.DatabaseURL = "mysql://" + strings.TrimPrefix(cfg.DatabaseURL, "tidb://")
	return mysqladapter.New(ctx, cfg)
}
