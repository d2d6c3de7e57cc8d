package list

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/route"
)

type fakeAdapter struct {
	lastOpts adapter.ListOptions
	result   adapter.ListResult
}

func (f *fakeAdapter) Create(context.Context, string, adapter.Document) (adapter.Document, error) {
	return nil, nil
}
func (f *fakeAdapter) Read(context.Context, string, string) (adapter.Document, error) {
	return nil, nil
}
func (f *fakeAdapter) Update(context.Context, string, string, adapter.Document) (adapter.Document, error) {
	return nil, nil
}
func (f *fakeAdapter) Remove(context.Context, string, string) error { return nil }
func (f *fakeAdapter) List(_ context.Context, _ string, opts adapter.ListOptions) (adapter.ListResult, error) {
	f.lastOpts = opts
	return f.result, nil
}
func (f *fakeAdapter) BeginTransaction(context.Context) (adapter.Transaction, error) { return nil, nil }
func (f *fakeAdapter) Capabilities() map[adapter.Capability]bool                     { return nil }
func (f *fakeAdapter) Close() error                                                  { return nil }

func TestList_DefaultsPageAndLimit(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{}
	req := httptest.NewRequest(http.MethodGet, "/acme/billing/invoice", nil)
	w := httptest.NewRecorder()

	h.List(w, req, client, route.Route{Tenant: "acme", Entity: "invoice"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, client.lastOpts.Page)
	assert.Equal(t, defaultLimit, client.lastOpts.Limit)
	assert.Equal(t, "acme", client.lastOpts.Filters["tenantId"])
}

func TestList_LimitAliasTake(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{}
	req := httptest.NewRequest(http.MethodGet, "/acme/billing/invoice?take=5", nil)
	w := httptest.NewRecorder()

	h.List(w, req, client, route.Route{Tenant: "acme", Entity: "invoice"})

	assert.Equal(t, 5, client.lastOpts.Limit)
}

func TestList_InvalidLimitIsValidationError(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{}
	req := httptest.NewRequest(http.MethodGet, "/acme/billing/invoice?limit=abc", nil)
	w := httptest.NewRecorder()

	h.List(w, req, client, route.Route{Tenant: "acme", Entity: "invoice"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestList_ZeroLimitIsValidationError(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{}
	req := httptest.NewRequest(http.MethodGet, "/acme/billing/invoice?limit=0", nil)
	w := httptest.NewRecorder()

	h.List(w, req, client, route.Route{Tenant: "acme", Entity: "invoice"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestList_SkipConvertsToPage(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{}
	req := httptest.NewRequest(http.MethodGet, "/acme/billing/invoice?limit=10&skip=20", nil)
	w := httptest.NewRecorder()

	h.List(w, req, client, route.Route{Tenant: "acme", Entity: "invoice"})

	assert.Equal(t, 3, client.lastOpts.Page)
}

func TestList_FilterAndWhereBothInjectEqualityFilters(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{}
	req := httptest.NewRequest(http.MethodGet, "/acme/billing/invoice?filter.status=open&where.amount=100", nil)
	w := httptest.NewRecorder()

	h.List(w, req, client, route.Route{Tenant: "acme", Entity: "invoice"})

	assert.Equal(t, "open", client.lastOpts.Filters["status"])
	assert.Equal(t, "100", client.lastOpts.Filters["amount"])
}

func TestList_SortDirectionValidation(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{}
	req := httptest.NewRequest(http.MethodGet, "/acme/billing/invoice?sort.createdAt=sideways", nil)
	w := httptest.NewRecorder()

	h.List(w, req, client, route.Route{Tenant: "acme", Entity: "invoice"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestList_ResponseShape(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{result: adapter.ListResult{Items: []adapter.Document{{"id": "1"}}, Total: 1}}
	req := httptest.NewRequest(http.MethodGet, "/acme/billing/invoice", nil)
	w := httptest.NewRecorder()

	h.List(w, req, client, route.Route{Tenant: "acme", Entity: "invoice"})

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "data")
	assert.Contains(t, resp, "total")
	assert.Contains(t, resp, "page")
	assert.Contains(t, resp, "limit")
}
