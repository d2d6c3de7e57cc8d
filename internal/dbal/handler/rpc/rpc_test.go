package rpc

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
)

type fakeAdapter struct {
	docs map[string]adapter.Document
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{docs: make(map[string]adapter.Document)}
}

func (f *fakeAdapter) Create(_ context.Context, _ string, doc adapter.Document) (adapter.Document, error) {
	doc["id"] = "new-id"
	f.docs["new-id"] = doc
	return doc, nil
}
func (f *fakeAdapter) Read(_ context.Context, _ string, id string) (adapter.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, nil
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
func (f *fakeAdapter) List(_ context.Context, _ string, _ adapter.ListOptions) (adapter.ListResult, error) {
	var items []adapter.Document
	for _, doc := range f.docs {
		items = append(items, doc)
	}
	return adapter.ListResult{Items: items, Total: len(items)}, nil
}
func (f *fakeAdapter) BeginTransaction(context.Context) (adapter.Transaction, error) { return nil, nil }
func (f *fakeAdapter) Capabilities() map[adapter.Capability]bool                     { return nil }
func (f *fakeAdapter) Close() error                                                  { return nil }

func newRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/dbal", bytes.NewBufferString(body))
}

func TestHandle_UnsupportedEntityIsValidationError(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()

	req := newRequest(`{"entity":"product","action":"list"}`)
	w := httptest.NewRecorder()
	h.Handle(w, req, client)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandle_CreateThenRead(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()

	createReq := newRequest(`{"entity":"USER","action":"create","payload":{"name":"ada"}}`)
	createW := httptest.NewRecorder()
	h.Handle(createW, createReq, client)
	require.Equal(t, http.StatusCreated, createW.Code)

	readReq := newRequest(`{"entity":"user","action":"get","options":{"id":"new-id"}}`)
	readW := httptest.NewRecorder()
	h.Handle(readW, readReq, client)
	require.Equal(t, http.StatusOK, readW.Code)
	assert.Contains(t, readW.Body.String(), "ada")
}

func TestHandle_ReadMismatchedTenantIsNotFound(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()
	client.docs["tenant-doc"] = adapter.Document{"id": "tenant-doc", "tenantId": "acme"}

	req := newRequest(`{"entity":"user","action":"get","options":{"id":"tenant-doc"},"tenantId":"other"}`)
	w := httptest.NewRecorder()
	h.Handle(w, req, client)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandle_BodyOverLimitIsRejected(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()

	oversized := strings.Repeat("a", 11<<20)
	req := newRequest(`{"entity":"user","action":"list","payload":{"x":"` + oversized + `"}}`)
	w := httptest.NewRecorder()
	h.Handle(w, req, client)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandle_UnknownActionIsValidationError(t *testing.T) {
	h := NewHandler()
	client := newFakeAdapter()

	req := newRequest(`{"entity":"user","action":"destroy"}`)
	w := httptest.NewRecorder()
	h.Handle(w, req, client)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
