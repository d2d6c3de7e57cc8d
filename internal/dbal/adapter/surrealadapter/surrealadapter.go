// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package surrealadapter is the SurrealDB backend. SurrealDB is spoken over a
plain HTTP "/sql" endpoint that accepts a SurrealQL statement and returns a
JSON result array — the examples pack carries no SurrealDB client library
(there isn't an established one the way pgx or the mongo driver are), so this
package talks to that endpoint directly with net/http. Like prismaadapter,
it is a stdlib-only adapter, for a reason worth recording rather
than hiding: no third-party driver exists in the retrieval pack or the wider
ecosystem mature enough to prefer over a small, well-scoped HTTP client.
*/
package surrealadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/pkg/uuidv7"
)

const requestTimeout = 10 * time.Second

type surrealAdapter struct {
	baseURL string
	ns      string
	db      string
	client  *http.Client
}

// New builds a SurrealDB-backed [adapter.Adapter]. The URL path
// (surrealdb://host:port/ns/db) selects the namespace and database the
// session is scoped to.
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	base, ns, db := parseURL(cfg.DatabaseURL)

	a := &surrealAdapter{baseURL: base, ns: ns, db: db, client: &http.Client{Timeout: requestTimeout}}
	if _, err := a.query(ctx, "INFO FOR DB;"); err != nil {
		return nil, fmt.Errorf("surrealadapter: connectivity check failed: %w", err)
	}
	return a, nil
}

func parseURL(databaseURL string) (base, ns, db string) {
	rest := strings.TrimPrefix(databaseURL, "surrealdb://")
	rest = strings.TrimPrefix(rest, "surreal://")

	parts := strings.SplitN(rest, "/", 3)
	host := parts[0]
	ns, db = "dbal", "dbal"
	if len(parts) > 1 && parts[1] != "" {
		ns = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		db = parts[2]
	}
	return "http://" + host, ns, db
}

func (a *surrealAdapter) query(ctx context.Context, statement string) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/sql", bytes.NewBufferString(statement))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("NS", a.ns)
	req.Header.Set("DB", a.db)

	res, err := a.client.Do(req)
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	if res.StatusCode >= 400 {
		return nil, apperr.DatabaseError(fmt.Errorf("surrealadapter: %s: %s", res.Status, string(body)))
	}

	var results []struct {
		Status string          `json:"status"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, apperr.Internal(err)
	}

	out := make([]json.RawMessage, 0, len(results))
	for _, r := range results {
		if r.Status != "OK" {
			return nil, apperr.DatabaseError(fmt.Errorf("surrealadapter: statement status %q", r.Status))
		}
		out = append(out, r.Result)
	}
	return out, nil
}

func (a *surrealAdapter) Create(ctx context.Context, entity string, doc adapter.Document) (adapter.Document, error) {
	if id, ok := doc["id"].(string); !ok || id == "" {
		doc["id"] = uuidv7.New()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	doc["createdAt"] = now
	doc["updatedAt"] = now

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	id := doc["id"].(string)
	statement := fmt.Sprintf("UPDATE %s:%s CONTENT %s;", entity, id, string(body))
	if _, err := a.query(ctx, statement); err != nil {
		return nil, err
	}
	return doc, nil
}

func (a *surrealAdapter) Read(ctx context.Context, entity, id string) (adapter.Document, error) {
	results, err := a.query(ctx, fmt.Sprintf("SELECT * FROM %s:%s;", entity, id))
	if err != nil {
		return nil, err
	}
	docs, err := decodeArray(results)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, apperr.NotFound(entity)
	}
	return docs[0], nil
}

func (a *surrealAdapter) Update(ctx context.Context, entity, id string, doc adapter.Document) (adapter.Document, error) {
	if _, err := a.Read(ctx, entity, id); err != nil {
		return nil, err
	}
	doc["id"] = id
	return a.Create(ctx, entity, doc)
}

func (a *surrealAdapter) Remove(ctx context.Context, entity, id string) error {
	if _, err := a.Read(ctx, entity, id); err != nil {
		return err
	}
	_, err := a.query(ctx, fmt.Sprintf("DELETE %s:%s;", entity, id))
	return err
}

func (a *surrealAdapter) List(ctx context.Context, entity string, opts adapter.ListOptions) (adapter.ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit

	statement := fmt.Sprintf("SELECT * FROM %s LIMIT %d START %d;", entity, limit, start)
	results, err := a.query(ctx, statement)
	if err != nil {
		return adapter.ListResult{}, err
	}
	items, err := decodeArray(results)
	if err != nil {
		return adapter.ListResult{}, err
	}

	countResults, err := a.query(ctx, fmt.Sprintf("SELECT count() FROM %s GROUP ALL;", entity))
	total := len(items)
	if err == nil {
		if counted, decodeErr := decodeArray(countResults); decodeErr == nil && len(counted) > 0 {
			if n, ok := counted[0]["count"].(float64); ok {
				total = int(n)
			}
		}
	}

	return adapter.ListResult{Items: items, Total: total}, nil
}

// BeginTransaction is unsupported: this adapter talks to the stateless /sql
// HTTP endpoint, which has no session to hold a BEGIN/COMMIT transaction
// open across several separate requests.
func (a *surrealAdapter) BeginTransaction(ctx context.Context) (adapter.Transaction, error) {
	return nil, apperr.CapabilityNotSupported("transactions")
}

func (a *surrealAdapter) Capabilities() map[adapter.Capability]bool {
	return map[adapter.Capability]bool{adapter.CapabilityTransactions: false}
}

func (a *surrealAdapter) Close() error { return nil }

func decodeArray(results []json.RawMessage) ([]adapter.Document, error) {
	if len(results) == 0 {
		return nil, nil
	}
	var docs []adapter.Document
	if err := json.Unmarshal(results[0], &docs); err != nil {
		return nil, apperr.Internal(err)
	}
	return docs, nil
}
