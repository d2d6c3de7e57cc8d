// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package esadapter is the Elasticsearch backend. Each entity maps to an
// index of the same name; documents are indexed by id directly, so Read/
// Update/Remove translate straight onto the Get/Update/Delete APIs.
package esadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/pkg/uuidv7"
)

type esAdapter struct {
	client *elasticsearch.Client
}

// New builds an Elasticsearch-backed [adapter.Adapter].
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	addr := strings.Replace(cfg.DatabaseURL, "elasticsearch://", "http://", 1)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{addr}})
	if err != nil {
		return nil, err
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("esadapter: cluster info returned %s", res.Status())
	}

	return &esAdapter{client: client}, nil
}

func (e *esAdapter) Create(ctx context.Context, entity string, doc adapter.Document) (adapter.Document, error) {
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
	req := esapi.IndexRequest{Index: entity, DocumentID: id, Body: bytes.NewReader(body), Refresh: "true"}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperr.DatabaseError(fmt.Errorf("esadapter: index failed: %s", res.Status()))
	}
	return doc, nil
}

func (e *esAdapter) Read(ctx context.Context, entity, id string) (adapter.Document, error) {
	res, err := e.client.Get(entity, id, e.client.Get.WithContext(ctx))
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return nil, apperr.NotFound(entity)
	}
	if res.IsError() {
		return nil, apperr.DatabaseError(fmt.Errorf("esadapter: get failed: %s", res.Status()))
	}
	return decodeHit(res.Body)
}

func (e *esAdapter) Update(ctx context.Context, entity, id string, doc adapter.Document) (adapter.Document, error) {
	if _, err := e.Read(ctx, entity, id); err != nil {
		return nil, err
	}
	doc["id"] = id
	doc["updatedAt"] = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(map[string]interface{}{"doc": doc})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	req := esapi.UpdateRequest{Index: entity, DocumentID: id, Body: bytes.NewReader(body), Refresh: "true"}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperr.DatabaseError(fmt.Errorf("esadapter: update failed: %s", res.Status()))
	}
	return doc, nil
}

func (e *esAdapter) Remove(ctx context.Context, entity, id string) error {
	res, err := e.client.Delete(entity, id, e.client.Delete.WithContext(ctx), e.client.Delete.WithRefresh("true"))
	if err != nil {
		return apperr.DatabaseError(err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return apperr.NotFound(entity)
	}
	if res.IsError() {
		return apperr.DatabaseError(fmt.Errorf("esadapter: delete failed: %s", res.Status()))
	}
	return nil
}

func (e *esAdapter) List(ctx context.Context, entity string, opts adapter.ListOptions) (adapter.ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	from := (page - 1) * limit

	query := map[string]interface{}{"query": map[string]interface{}{"match_all": map[string]interface{}{}}}
	if len(opts.Filters) > 0 {
		filters := make([]map[string]interface{}, 0, len(opts.Filters))
		for field, value := range opts.Filters {
			filters = append(filters, map[string]interface{}{"match": map[string]interface{}{field: value}})
		}
		query["query"] = map[string]interface{}{"bool": map[string]interface{}{"must": filters}}
	}

	body, err := json.Marshal(query)
	if err != nil {
		return adapter.ListResult{}, apperr.Internal(err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(entity),
		e.client.Search.WithBody(bytes.NewReader(body)),
		e.client.Search.WithFrom(from),
		e.client.Search.WithSize(limit),
	)
	if err != nil {
		return adapter.ListResult{}, apperr.DatabaseError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return adapter.ListResult{}, apperr.DatabaseError(fmt.Errorf("esadapter: search failed: %s", res.Status()))
	}

	return decodeSearchResults(res.Body)
}

// BeginTransaction is unsupported: Elasticsearch has no cross-document
// transaction primitive.
func (e *esAdapter) BeginTransaction(ctx context.Context) (adapter.Transaction, error) {
	return nil, apperr.CapabilityNotSupported("transactions")
}

func (e *esAdapter) Capabilities() map[adapter.Capability]bool {
	return map[adapter.Capability]bool{adapter.CapabilityTransactions: false}
}

func (e *esAdapter) Close() error { return nil }

type esHit struct {
	Source adapter.Document `json:"_source"`
}

func decodeHit(body io.Reader) (adapter.Document, error) {
	var hit esHit
	if err := json.NewDecoder(body).Decode(&hit); err != nil {
		return nil, apperr.Internal(err)
	}
	return hit.Source, nil
}

type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

func decodeSearchResults(body io.Reader) (adapter.ListResult, error) {
	var parsed esSearchResponse
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return adapter.ListResult{}, apperr.Internal(err)
	}
	items := make([]adapter.Document, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		items = append(items, hit.Source)
	}
	return adapter.ListResult{Items: items, Total: parsed.Hits.Total.Value}, nil
}
