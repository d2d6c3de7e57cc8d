package crud

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/route"
	"github.com/meridiandb/dbal/internal/platform/apperr"
)

type fakeAdapter struct {
	docs map[string]adapter.Document
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{docs: make(map[string]adapter.Document)}
}

func (f *fakeAdapter) Create(_ context.Context, _ string, doc adapter.Document) (adapter.Document, error) {
	doc["id"] = "generated-id"
	f.docs["generated-id"] = doc
	return doc, nil
}

func (f *fakeAdapter) Read(_ context.Context, _ string, id string) (adapter.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, apperr.NotFound("entity")
	}
	return doc, nil
}

func (f *fakeAdapter) Update(_ context.Context, _ string, id string, doc adapter.Document) (adapter.Document, error) {
	f.docs[id] = doc
	return doc, nil
}

func (f *fakeAdapter) Remove(_ context.Context, _ string, id string) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeAdapter) List(context.Context, string, adapter.ListOptions) (adapter.ListResult, error) {
	return adapter.ListResult{}, nil
}

func (f *fakeAdapter) BeginTransaction(context.Context) (adapter.Transaction, error) {
	return nil, apperr.CapabilityNotSupported("transactions")
}

func (f *fakeAdapter) Capabilities() map[adapter.Capability]bool { return nil }

func (f *fakeAdapter) Close() error { return nil }

func TestCreate_InjectsRouteTenant(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()
	body := bytes.NewBufferString(`{"name":"widget"}`)
	req := httptest.NewRequest(http.MethodPost, "/acme/billing/invoice", body)
	req.ContentLength = int64(body.Len())
	w := httptest.NewRecorder()

	h.Create(w, req, client, route.Route{Tenant: "acme", Entity: "invoice"})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "acme", data["tenantId"])
}

func TestCreate_NeverOverwritesExplicitTenant(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()
	body := bytes.NewBufferString(`{"tenantId":"other"}`)
	req := httptest.NewRequest(http.MethodPost, "/acme/billing/invoice", body)
	req.ContentLength = int64(body.Len())
	w := httptest.NewRecorder()

	h.Create(w, req, client, route.Route{Tenant: "acme", Entity: "invoice"})

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "other", data["tenantId"])
}

func TestRead_TenantMismatchIsNotFound(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()
	client.docs["1"] = adapter.Document{"id": "1", "tenantId": "other-tenant"}

	req := httptest.NewRequest(http.MethodGet, "/acme/billing/invoice/1", nil)
	w := httptest.NewRecorder()

	h.Read(w, req, client, route.Route{Tenant: "acme", Entity: "invoice", ID: "1"})

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRead_MatchingTenantSucceeds(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()
	client.docs["1"] = adapter.Document{"id": "1", "tenantId": "acme"}

	req := httptest.NewRequest(http.MethodGet, "/acme/billing/invoice/1", nil)
	w := httptest.NewRecorder()

	h.Read(w, req, client, route.Route{Tenant: "acme", Entity: "invoice", ID: "1"})

	require.Equal(t, http.StatusOK, w.Code)
}

func TestUpdate_EmptyBodyIsValidationError(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()
	client.docs["1"] = adapter.Document{"id": "1"}

	req := httptest.NewRequest(http.MethodPut, "/acme/billing/invoice/1", nil)
	w := httptest.NewRecorder()

	h.Update(w, req, client, route.Route{Tenant: "acme", Entity: "invoice", ID: "1"})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdate_EmptyIDIsValidationError(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()

	req := httptest.NewRequest(http.MethodPut, "/acme/billing/invoice/", nil)
	w := httptest.NewRecorder()

	h.Update(w, req, client, route.Route{Tenant: "acme", Entity: "invoice", ID: ""})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDelete_EmptyIDIsValidationError(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()

	req := httptest.NewRequest(http.MethodDelete, "/acme/billing/invoice/", nil)
	w := httptest.NewRecorder()

	h.Delete(w, req, client, route.Route{Tenant: "acme", Entity: "invoice", ID: ""})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDelete_TenantMismatchIsNotFound(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()
	client.docs["1"] = adapter.Document{"id": "1", "tenantId": "other-tenant"}

	req := httptest.NewRequest(http.MethodDelete, "/acme/billing/invoice/1", nil)
	w := httptest.NewRecorder()

	h.Delete(w, req, client, route.Route{Tenant: "acme", Entity: "invoice", ID: "1"})

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete_MatchingTenantSucceeds(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()
	client.docs["1"] = adapter.Document{"id": "1", "tenantId": "acme"}

	req := httptest.NewRequest(http.MethodDelete, "/acme/billing/invoice/1", nil)
	w := httptest.NewRecorder()

	h.Delete(w, req, client, route.Route{Tenant: "acme", Entity: "invoice", ID: "1"})

	require.Equal(t, http.StatusNoContent, w.Code)
}
