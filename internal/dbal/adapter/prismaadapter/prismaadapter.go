// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package prismaadapter is the Prisma backend. It speaks to a Prisma Data
Proxy's JSON-RPC-over-HTTP surface using the model name from the entity
segment. As with surrealadapter, no Go client library for the Data Proxy
protocol exists in the retrieval pack or the broader ecosystem, so this is a
deliberate, documented net/http exception rather than a dropped dependency.
*/
package prismaadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/pkg/uuidv7"
)

const requestTimeout = 10 * time.Second

type prismaAdapter struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// New builds a Prisma Data Proxy-backed [adapter.Adapter]. The URL's
// "prisma://" scheme is rewritten to an https endpoint; the API key, if
// present, travels as userinfo (prisma://key@host/...).
func New(ctx context.Context, cfg adapter.Config) (adapter.Adapter, error) {
	endpoint, apiKey := parseURL(cfg.DatabaseURL)
	return &prismaAdapter{endpoint: endpoint, apiKey: apiKey, client: &http.Client{Timeout: requestTimeout}}, nil
}

func parseURL(databaseURL string) (endpoint, apiKey string) {
	rest := strings.TrimPrefix(databaseURL, "prisma://")
	if at := strings.Index(rest, "@"); at >= 0 {
		apiKey = rest[:at]
		rest = rest[at+1:]
	}
	return "https://" + rest, apiKey
}

type rpcRequest struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

func (p *prismaAdapter) call(ctx context.Context, action string, modelName string, args map[string]interface{}) (json.RawMessage, error) {
	payload := rpcRequest{
		Method: action,
		Params: map[string]interface{}{"modelName": modelName, "query": args},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	defer res.Body.Close()

	var parsed struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperr.Internal(err)
	}
	if parsed.Error != nil {
		return nil, apperr.DatabaseError(fmt.Errorf("prismaadapter: %s", parsed.Error.Message))
	}
	return parsed.Data, nil
}

func (p *prismaAdapter) Create(ctx context.Context, entity string, doc adapter.Document) (adapter.Document, error) {
	if id, ok := doc["id"].(string); !ok || id == "" {
		doc["id"] = uuidv7.New()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	doc["createdAt"] = now
	doc["updatedAt"] = now

	data, err := p.call(ctx, "createOne", entity, map[string]interface{}{"data": doc})
	if err != nil {
		return nil, err
	}
	return decodeOne(data, doc)
}

func (p *prismaAdapter) Read(ctx context.Context, entity, id string) (adapter.Document, error) {
	data, err := p.call(ctx, "findUnique", entity, map[string]interface{}{"where": map[string]interface{}{"id": id}})
	if err != nil {
		return nil, err
	}
	doc, err := decodeOne(data, nil)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperr.NotFound(entity)
	}
	return doc, nil
}

func (p *prismaAdapter) Update(ctx context.Context, entity, id string, doc adapter.Document) (adapter.Document, error) {
	if _, err := p.Read(ctx, entity, id); err != nil {
		return nil, err
	}
	doc["id"] = id
	doc["updatedAt"] = time.Now().UTC().Format(time.RFC3339)

	data, err := p.call(ctx, "updateOne", entity, map[string]interface{}{
		"where": map[string]interface{}{"id": id},
		"data":  doc,
	})
	if err != nil {
		return nil, err
	}
	return decodeOne(data, doc)
}

func (p *prismaAdapter) Remove(ctx context.Context, entity, id string) error {
	if _, err := p.Read(ctx, entity, id); err != nil {
		return err
	}
	_, err := p.call(ctx, "deleteOne", entity, map[string]interface{}{"where": map[string]interface{}{"id": id}})
	return err
}

func (p *prismaAdapter) List(ctx context.Context, entity string, opts adapter.ListOptions) (adapter.ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	skip := (page - 1) * limit

	where := map[string]interface{}{}
	for field, value := range opts.Filters {
		where[field] = value
	}

	data, err := p.call(ctx, "findMany", entity, map[string]interface{}{
		"where": where,
		"take":  limit,
		"skip":  skip,
	})
	if err != nil {
		return adapter.ListResult{}, err
	}

	var items []adapter.Document
	if len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			return adapter.ListResult{}, apperr.Internal(err)
		}
	}

	countData, err := p.call(ctx, "count", entity, map[string]interface{}{"where": where})
	total := len(items)
	if err == nil {
		var n int
		if unmarshalErr := json.Unmarshal(countData, &n); unmarshalErr == nil {
			total = n
		}
	}

	return adapter.ListResult{Items: items, Total: total}, nil
}

// BeginTransaction is unsupported: the Data Proxy's JSON-RPC surface has a
// batch-transaction method, but it requires the entire operation list
// up-front in one call rather than an open-then-append scope, which doesn't
// fit the bulk/batch handlers' incremental Create/Update/Remove shape.
func (p *prismaAdapter) BeginTransaction(ctx context.Context) (adapter.Transaction, error) {
	return nil, apperr.CapabilityNotSupported("transactions")
}

func (p *prismaAdapter) Capabilities() map[adapter.Capability]bool {
	return map[adapter.Capability]bool{adapter.CapabilityTransactions: false}
}

func (p *prismaAdapter) Close() error { return nil }

func decodeOne(data json.RawMessage, fallback adapter.Document) (adapter.Document, error) {
	if len(data) == 0 || string(data) == "null" {
		return fallback, nil
	}
	var doc adapter.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperr.Internal(err)
	}
	return doc, nil
}
