// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package cassandraadapter is the Cassandra backend. Like the relational
// adapters it keeps one wide table ("dbal.records") partitioned by entity
// name rather than a table per entity, since the document schema is data
// (YAML), not a compiled column list gocql could be handed directly.
package cassandraadapter

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/pkg/uuidv7"
)

const keyspace = "dbal"

type cassandraAdapter struct {
	session *gocql.Session
}

// New connects to a Cassandra cluster and ensures the backing keyspace/table
// exist.
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	hosts := hostsFrom(cfg.DatabaseURL)

	bootstrap := gocql.NewCluster(hosts...)
	bootstrap.Consistency = gocql.Quorum
	bootstrapSession, err := bootstrap.CreateSession()
	if err != nil {
		return nil, err
	}
	err = bootstrapSession.Query(
		`CREATE KEYSPACE IF NOT EXISTS ` + keyspace + ` WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`,
	).WithContext(ctx).Exec()
	bootstrapSession.Close()
	if err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, err
	}

	err = session.Query(`CREATE TABLE IF NOT EXISTS records (
		entity text,
		id text,
		tenant_id text,
		data text,
		created_at timestamp,
		updated_at timestamp,
		PRIMARY KEY (entity, id)
	)`).WithContext(ctx).Exec()
	if err != nil {
		session.Close()
		return nil, err
	}

	return &cassandraAdapter{session: session}, nil
}

func hostsFrom(databaseURL string) []string {
	rest := strings.TrimPrefix(databaseURL, "cassandra://")
	if idx := strings.IndexAny(rest, "/?"); idx >= 0 {
		rest = rest[:idx]
	}
	if rest == "" {
		return []string{"127.0.0.1"}
	}
	return strings.Split(rest, ",")
}

func (c *cassandraAdapter) Create(ctx context.Context, entity string, doc adapter.Document) (adapter.Document, error) {
	if id, ok := doc["id"].(string); !ok || id == "" {
		doc["id"] = uuidv7.New()
	}
	now := time.Now().UTC()
	doc["createdAt"] = now.Format(time.RFC3339)
	doc["updatedAt"] = now.Format(time.RFC3339)

	return c.put(ctx, entity, doc, now)
}

func (c *cassandraAdapter) put(ctx context.Context, entity string, doc adapter.Document, now time.Time) (adapter.Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	id := doc["id"].(string)
	tenantID, _ := doc["tenantId"].(string)

	err = c.session.Query(
		`INSERT INTO records (entity, id, tenant_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entity, id, tenantID, string(raw), now, now,
	).WithContext(ctx).Exec()
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	return doc, nil
}

func (c *cassandraAdapter) Read(ctx context.Context, entity, id string) (adapter.Document, error) {
	var raw string
	err := c.session.Query(`SELECT data FROM records WHERE entity = ? AND id = ?`, entity, id).
		WithContext(ctx).Scan(&raw)
	if err == gocql.ErrNotFound {
		return nil, apperr.NotFound(entity)
	}
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	return decode(raw)
}

func (c *cassandraAdapter) Update(ctx context.Context, entity, id string, doc adapter.Document) (adapter.Document, error) {
	if _, err := c.Read(ctx, entity, id); err != nil {
		return nil, err
	}
	doc["id"] = id
	return c.put(ctx, entity, doc, time.Now().UTC())
}

func (c *cassandraAdapter) Remove(ctx context.Context, entity, id string) error {
	if _, err := c.Read(ctx, entity, id); err != nil {
		return err
	}
	err := c.session.Query(`DELETE FROM records WHERE entity = ? AND id = ?`, entity, id).WithContext(ctx).Exec()
	if err != nil {
		return apperr.DatabaseError(err)
	}
	return nil
}

func (c *cassandraAdapter) List(ctx context.Context, entity string, opts adapter.ListOptions) (adapter.ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}

	// Cassandra has no native OFFSET; paging walks the full partition and
	// slices in memory. Fine for the modest per-tenant record counts this
	// service targets, not for analytical-scale scans.
	iter := c.session.Query(`SELECT data FROM records WHERE entity = ?`, entity).WithContext(ctx).Iter()
	var items []adapter.Document
	var raw string
	for iter.Scan(&raw) {
		doc, err := decode(raw)
		if err != nil {
			iter.Close()
			return adapter.ListResult{}, err
		}
		items = append(items, doc)
	}
	if err := iter.Close(); err != nil {
		return adapter.ListResult{}, apperr.DatabaseError(err)
	}

	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return adapter.ListResult{Items: items[start:end], Total: total}, nil
}

// BeginTransaction is unsupported: Cassandra's lightweight transactions
// (CAS via IF clauses) are single-row conditional writes, not a multi-row
// all-or-nothing scope the bulk/batch contract requires.
func (c *cassandraAdapter) BeginTransaction(ctx context.Context) (adapter.Transaction, error) {
	return nil, apperr.CapabilityNotSupported("transactions")
}

func (c *cassandraAdapter) Capabilities() map[adapter.Capability]bool {
	return map[adapter.Capability]bool{adapter.CapabilityTransactions: false}
}

func (c *cassandraAdapter) Close() error {
	c.session.Close()
	return nil
}

func decode(raw string) (adapter.Document, error) {
	var doc adapter.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, apperr.Internal(err)
	}
	return doc, nil
}
