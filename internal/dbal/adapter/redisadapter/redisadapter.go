// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package redisadapter is the Redis backend. Each document is stored as a
// JSON string under an "entity:id" key, and each id is also added to an
// "entity:<name>" set, which List reads with SMEMBERS.
package redisadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/internal/platform/dberr"
	platformredis "github.com/meridiandb/dbal/internal/platform/redis"
	"github.com/meridiandb/dbal/pkg/uuidv7"
)

type redisAdapter struct {
	client *goredis.Client
}

// New connects to Redis via the shared platform client builder.
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	client, err := platformredis.NewClient(ctx, cfg.DatabaseURL, slog.Default())
	if err != nil {
		return nil, err
	}
	return &redisAdapter{client: client}, nil
}

func key(entity, id string) string { return entity + ":" + id }

func (r *redisAdapter) Create(ctx context.Context, entity string, doc adapter.Document) (adapter.Document, error) {
	if id, ok := doc["id"].(string); !ok || id == "" {
		doc["id"] = uuidv7.New()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	doc["createdAt"] = now
	doc["updatedAt"] = now

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("redisadapter: encode document: %w", err))
	}

	id := doc["id"].(string)
	if err := r.client.Set(ctx, key(entity, id), raw, 0).Err(); err != nil {
		return nil, dberr.Wrap(err)
	}
	if err := r.client.SAdd(ctx, "entity:"+entity, id).Err(); err != nil {
		return nil, dberr.Wrap(err)
	}
	return doc, nil
}

func (r *redisAdapter) Read(ctx context.Context, entity, id string) (adapter.Document, error) {
	raw, err := r.client.Get(ctx, key(entity, id)).Result()
	if err != nil {
		return nil, dberr.Wrap(err)
	}
	return decode(raw)
}

func (r *redisAdapter) Update(ctx context.Context, entity, id string, doc adapter.Document) (adapter.Document, error) {
	if _, err := r.Read(ctx, entity, id); err != nil {
		return nil, err
	}
	doc["id"] = id
	doc["updatedAt"] = time.Now().UTC().Format(time.RFC3339)

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("redisadapter: encode document: %w", err))
	}
	if err := r.client.Set(ctx, key(entity, id), raw, 0).Err(); err != nil {
		return nil, dberr.Wrap(err)
	}
	return doc, nil
}

func (r *redisAdapter) Remove(ctx context.Context, entity, id string) error {
	removed, err := r.client.Del(ctx, key(entity, id)).Result()
	if err != nil {
		return dberr.Wrap(err)
	}
	if removed == 0 {
		return apperr.NotFound(entity)
	}
	r.client.SRem(ctx, "entity:"+entity, id)
	return nil
}

func (r *redisAdapter) List(ctx context.Context, entity string, opts adapter.ListOptions) (adapter.ListResult, error) {
	ids, err := r.client.SMembers(ctx, "entity:"+entity).Result()
	if err != nil {
		return adapter.ListResult{}, dberr.Wrap(err)
	}
	sort.Strings(ids)

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start > len(ids) {
		start = len(ids)
	}
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}

	items := make([]adapter.Document, 0, end-start)
	for _, id := range ids[start:end] {
		raw, err := r.client.Get(ctx, key(entity, id)).Result()
		if err == goredis.Nil {
			continue
		}
		if err != nil {
			return adapter.ListResult{}, dberr.Wrap(err)
		}
		doc, err := decode(raw)
		if err != nil {
			return adapter.ListResult{}, err
		}
		items = append(items, doc)
	}

	return adapter.ListResult{Items: items, Total: len(ids)}, nil
}

// BeginTransaction is unsupported: redis has no multi-statement rollback
// semantics compatible with the all-or-nothing bulk/batch contract (MULTI/EXEC
// queues commands blind and cannot abort mid-queue on an application-level
// validation failure), so bulk/batch requests against this adapter are
// rejected rather than given weaker guarantees silently.
func (r *redisAdapter) BeginTransaction(ctx context.Context) (adapter.Transaction, error) {
	return nil, apperr.CapabilityNotSupported("transactions")
}

func (r *redisAdapter) Capabilities() map[adapter.Capability]bool {
	return map[adapter.Capability]bool{adapter.CapabilityTransactions: false}
}

func (r *redisAdapter) Close() error { return r.client.Close() }

func decode(raw string) (adapter.Document, error) {
	var doc adapter.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, apperr.Internal(fmt.Errorf("redisadapter: decode document: %w", err))
	}
	return doc, nil
}
