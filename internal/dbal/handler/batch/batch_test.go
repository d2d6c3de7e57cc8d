package batch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/route"
)

type failErr string

func (e failErr) Error() string { return string(e) }

type fakeTx struct {
	committed   bool
	rolledBack  bool
	updateCalls int
	failOnN     int
}

func (tx *fakeTx) Create(_ context.Context, _ string, doc adapter.Document) (adapter.Document, error) {
	doc["id"] = "generated"
	return doc, nil
}
func (tx *fakeTx) Update(_ context.Context, _ string, id string, doc adapter.Document) (adapter.Document, error) {
	tx.updateCalls++
	if tx.failOnN != 0 && tx.updateCalls == tx.failOnN {
		return nil, failErr("update failed")
	}
	return doc, nil
}
func (tx *fakeTx) Remove(context.Context, string, string) error { return nil }
func (tx *fakeTx) Commit(context.Context) error                 { tx.committed = true; return nil }
func (tx *fakeTx) Rollback(context.Context) error               { tx.rolledBack = true; return nil }

type fakeAdapter struct {
	tx *fakeTx
}

func (f *fakeAdapter) Create(context.Context, string, adapter.Document) (adapter.Document, error) {
	return nil, nil
}
func (f *fakeAdapter) Read(context.Context, string, string) (adapter.Document, error) { return nil, nil }
func (f *fakeAdapter) Update(context.Context, string, string, adapter.Document) (adapter.Document, error) {
	return nil, nil
}
func (f *fakeAdapter) Remove(context.Context, string, string) error { return nil }
func (f *fakeAdapter) List(context.Context, string, adapter.ListOptions) (adapter.ListResult, error) {
	return adapter.ListResult{}, nil
}
func (f *fakeAdapter) BeginTransaction(context.Context) (adapter.Transaction, error) {
	return f.tx, nil
}
func (f *fakeAdapter) Capabilities() map[adapter.Capability]bool { return nil }
func (f *fakeAdapter) Close() error                              { return nil }

func TestRun_MixedOperationsAcrossEntitiesCommit(t *testing.T) {
	h := NewHandler()
	tx := &fakeTx{}
	client := &fakeAdapter{tx: tx}

	body := bytes.NewBufferString(`{"operations":[
		{"action":"create","entity":"posts","data":{"title":"a"}},
		{"action":"update","entity":"comments","id":"1","data":{"body":"b"}},
		{"action":"delete","entity":"posts","id":"2"}
	]}`)
	req := httptest.NewRequest(http.MethodPost, "/acme/forum/_batch", body)
	req.ContentLength = int64(body.Len())
	w := httptest.NewRecorder()

	h.Run(w, req, client, route.Route{Tenant: "acme"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, tx.committed)
}

func TestRun_FailingOperationRollsBackAndCitesIndexAndEntity(t *testing.T) {
	h := NewHandler()
	tx := &fakeTx{failOnN: 1}
	client := &fakeAdapter{tx: tx}

	body := bytes.NewBufferString(`{"operations":[
		{"action":"update","entity":"comments","id":"1","data":{"body":"b"}}
	]}`)
	req := httptest.NewRequest(http.MethodPost, "/acme/forum/_batch", body)
	req.ContentLength = int64(body.Len())
	w := httptest.NewRecorder()

	h.Run(w, req, client, route.Route{Tenant: "acme"})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.True(t, tx.rolledBack)
	assert.Contains(t, w.Body.String(), "comments")
}

func TestRun_CreateWithoutDataIsValidationError(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{tx: &fakeTx{}}

	body := bytes.NewBufferString(`{"operations":[{"action":"create","entity":"posts"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/acme/forum/_batch", body)
	req.ContentLength = int64(body.Len())
	w := httptest.NewRecorder()

	h.Run(w, req, client, route.Route{Tenant: "acme"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRun_UpdateWithoutIDIsValidationError(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{tx: &fakeTx{}}

	body := bytes.NewBufferString(`{"operations":[{"action":"update","entity":"posts","data":{"x":1}}]}`)
	req := httptest.NewRequest(http.MethodPost, "/acme/forum/_batch", body)
	req.ContentLength = int64(body.Len())
	w := httptest.NewRecorder()

	h.Run(w, req, client, route.Route{Tenant: "acme"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRun_DeleteWithoutIDIsValidationError(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{tx: &fakeTx{}}

	body := bytes.NewBufferString(`{"operations":[{"action":"delete","entity":"posts"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/acme/forum/_batch", body)
	req.ContentLength = int64(body.Len())
	w := httptest.NewRecorder()

	h.Run(w, req, client, route.Route{Tenant: "acme"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRun_UnknownActionIsValidationError(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{tx: &fakeTx{}}

	body := bytes.NewBufferString(`{"operations":[{"action":"wipe","entity":"posts"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/acme/forum/_batch", body)
	req.ContentLength = int64(body.Len())
	w := httptest.NewRecorder()

	h.Run(w, req, client, route.Route{Tenant: "acme"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRun_EmptyOperationsIsValidationError(t *testing.T) {
	h := NewHandler()
	client := &fakeAdapter{tx: &fakeTx{}}

	body := bytes.NewBufferString(`{"operations":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/acme/forum/_batch", body)
	req.ContentLength = int64(body.Len())
	w := httptest.NewRecorder()

	h.Run(w, req, client, route.Route{Tenant: "acme"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
