package dbalapi

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/registry"
	"github.com/meridiandb/dbal/internal/dbal/blob"
	"github.com/meridiandb/dbal/internal/dbal/blob/memoryblob"
	"github.com/meridiandb/dbal/internal/dbal/handler/admin"
	"github.com/meridiandb/dbal/internal/dbal/handler/batch"
	"github.com/meridiandb/dbal/internal/dbal/handler/bulk"
	"github.com/meridiandb/dbal/internal/dbal/handler/crud"
	"github.com/meridiandb/dbal/internal/dbal/handler/list"
	"github.com/meridiandb/dbal/internal/dbal/handler/rpc"
	"github.com/meridiandb/dbal/internal/dbal/handler/schema"
	"github.com/meridiandb/dbal/internal/dbal/ratelimit"
	"github.com/meridiandb/dbal/internal/dbal/schemareg"
	"github.com/meridiandb/dbal/internal/platform/config"
)

// fakeTx is a no-op transaction that always commits.
type fakeTx struct{ docs map[string]adapter.Document }

func (tx *fakeTx) Create(_ context.Context, _ string, doc adapter.Document) (adapter.Document, error) {
	doc["id"] = "generated"
	tx.docs["generated"] = doc
	return doc, nil
}
func (tx *fakeTx) Update(_ context.Context, _ string, id string, doc adapter.Document) (adapter.Document, error) {
	tx.docs[id] = doc
	return doc, nil
}
func (tx *fakeTx) Remove(_ context.Context, _ string, id string) error { delete(tx.docs, id); return nil }
func (tx *fakeTx) Commit(context.Context) error                       { return nil }
func (tx *fakeTx) Rollback(context.Context) error                     { return nil }

// fakeAdapter is an in-memory adapter.Adapter good enough to drive every
// route the router registers.
type fakeAdapter struct {
	docs map[string]adapter.Document
	seq  int
}

func newFakeAdapter() *fakeAdapter { return &fakeAdapter{docs: make(map[string]adapter.Document)} }

func (f *fakeAdapter) Create(_ context.Context, _ string, doc adapter.Document) (adapter.Document, error) {
	f.seq++
	id := "id-" + string(rune('0'+f.seq))
	doc["id"] = id
	f.docs[id] = doc
	return doc, nil
}
func (f *fakeAdapter) Read(_ context.Context, _ string, id string) (adapter.Document, error) {
	return f.docs[id], nil
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
	items := make([]adapter.Document, 0, len(f.docs))
	for _, doc := range f.docs {
		items = append(items, doc)
	}
	return adapter.ListResult{Items: items, Total: len(items)}, nil
}
func (f *fakeAdapter) BeginTransaction(context.Context) (adapter.Transaction, error) {
	return &fakeTx{docs: f.docs}, nil
}
func (f *fakeAdapter) Capabilities() map[adapter.Capability]bool { return nil }
func (f *fakeAdapter) Close() error                              { return nil }

func newFakeConstructor(a *fakeAdapter) adapter.Constructor {
	return func(context.Context, adapter.Config) (adapter.Adapter, error) { return a, nil }
}

func newTestServer(t *testing.T) (*Server, *fakeAdapter) {
	t.Helper()

	client := newFakeAdapter()
	reg := registry.New(adapter.Config{Adapter: "postgres", DatabaseURL: "postgres://user:pw@localhost/db"})
	reg.Register("postgres", newFakeConstructor(client))

	schemaRegistry := schemareg.New(t.TempDir() + "/registry.json")
	handlers := Handlers{
		Admin:  admin.NewHandler(reg, t.TempDir()),
		Schema: schema.NewHandler(schemaRegistry, t.TempDir(), t.TempDir()+"/schema.prisma"),
		RPC:    rpc.NewHandler(),
		Blob:   blob.NewHandler(memoryblob.New()),
		CRUD:   crud.NewHandler(),
		List:   list.NewHandler(),
		Bulk:   bulk.NewHandler(),
		Batch:  batch.NewHandler(),
	}

	cfg := &config.Config{CORSOriginValue: "*"}
	limiter := ratelimit.New()
	t.Cleanup(limiter.Stop)

	srv := NewServer(cfg, "127.0.0.1:0", testLogger(), reg, limiter, "s3cr3t", handlers)
	return srv, client
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthAndMetadataRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/health", "/healthz", "/version", "/status"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		assert.Equalf(t, http.StatusOK, w.Code, "path %s", path)
	}
}

func TestEntityRoute_CreateThenReadWithTenantIsolation(t *testing.T) {
	srv, _ := newTestServer(t)

	createReq := httptest.NewRequest(http.MethodPost, "/acme/forum/posts", bytes.NewBufferString(`{"title":"hi"}`))
	createW := httptest.NewRecorder()
	srv.router.ServeHTTP(createW, createReq)
	require.Equal(t, http.StatusCreated, createW.Code)
	assert.Contains(t, createW.Body.String(), "id-1")

	readReq := httptest.NewRequest(http.MethodGet, "/acme/forum/posts/id-1", nil)
	readW := httptest.NewRecorder()
	srv.router.ServeHTTP(readW, readReq)
	assert.Equal(t, http.StatusOK, readW.Code)

	crossTenantReq := httptest.NewRequest(http.MethodGet, "/other/forum/posts/id-1", nil)
	crossTenantW := httptest.NewRecorder()
	srv.router.ServeHTTP(crossTenantW, crossTenantReq)
	assert.Equal(t, http.StatusNotFound, crossTenantW.Code)
}

func TestEntityRoute_POSTWithIDIsValidationError(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/acme/forum/posts/some-id", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestEntityRoute_UnsupportedMethodIs405WithoutEnvelope(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodTrace, "/acme/forum/posts", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.NotContains(t, w.Body.String(), `"success"`)
}

func TestCustomEntityActionIsNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/acme/forum/posts/id-1/publish", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBulkRoute_CreatesAllElements(t *testing.T) {
	srv, client := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/acme/forum/posts/_bulk/create", bytes.NewBufferString(`[{"a":1},{"a":2}]`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, client.docs, 2)
}

func TestBatchRoute_MixedOperations(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"operations":[{"action":"create","entity":"posts","data":{"title":"x"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/acme/forum/_batch", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBlobRoute_PutGetStatsRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	putReq := httptest.NewRequest(http.MethodPut, "/acme/forum/blob/report.csv", bytes.NewBufferString("a,b,c"))
	putW := httptest.NewRecorder()
	srv.router.ServeHTTP(putW, putReq)
	require.Equal(t, http.StatusCreated, putW.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/acme/forum/blob/report.csv", nil)
	getW := httptest.NewRecorder()
	srv.router.ServeHTTP(getW, getReq)
	require.Equal(t, http.StatusOK, getW.Code)
	assert.Equal(t, "a,b,c", getW.Body.String())

	statsReq := httptest.NewRequest(http.MethodGet, "/acme/forum/blob/_stats", nil)
	statsW := httptest.NewRecorder()
	srv.router.ServeHTTP(statsW, statsReq)
	assert.Equal(t, http.StatusOK, statsW.Code)

	crossTenantReq := httptest.NewRequest(http.MethodGet, "/other/forum/blob/report.csv", nil)
	crossTenantW := httptest.NewRecorder()
	srv.router.ServeHTTP(crossTenantW, crossTenantReq)
	assert.Equal(t, http.StatusNotFound, crossTenantW.Code)
}

func TestAdminRoutes_RequireBearerToken(t *testing.T) {
	srv, _ := newTestServer(t)

	unauthenticated := httptest.NewRequest(http.MethodGet, "/admin/config", nil)
	unauthenticatedW := httptest.NewRecorder()
	srv.router.ServeHTTP(unauthenticatedW, unauthenticated)
	assert.Equal(t, http.StatusUnauthorized, unauthenticatedW.Code)

	authenticated := httptest.NewRequest(http.MethodGet, "/admin/config", nil)
	authenticated.Header.Set("Authorization", "Bearer s3cr3t")
	authenticatedW := httptest.NewRecorder()
	srv.router.ServeHTTP(authenticatedW, authenticated)
	assert.Equal(t, http.StatusOK, authenticatedW.Code)
}

func TestQueryRoute_FiltersByTenantAndEntity(t *testing.T) {
	srv, _ := newTestServer(t)

	createReq := httptest.NewRequest(http.MethodPost, "/acme/forum/posts", bytes.NewBufferString(`{"title":"hi"}`))
	createW := httptest.NewRecorder()
	srv.router.ServeHTTP(createW, createReq)
	require.Equal(t, http.StatusCreated, createW.Code)

	queryReq := httptest.NewRequest(http.MethodGet, "/api/dbal/query?tenant=acme&package=forum&entity=posts", nil)
	queryW := httptest.NewRecorder()
	srv.router.ServeHTTP(queryW, queryReq)
	require.Equal(t, http.StatusOK, queryW.Code)
	assert.Contains(t, queryW.Body.String(), "id-1")
}

func TestLegacyRPCRoute_CreateThenRead(t *testing.T) {
	srv, _ := newTestServer(t)

	createReq := httptest.NewRequest(http.MethodPost, "/api/dbal", bytes.NewBufferString(`{"entity":"user","action":"create","payload":{"name":"ada"}}`))
	createW := httptest.NewRecorder()
	srv.router.ServeHTTP(createW, createReq)
	assert.Equal(t, http.StatusCreated, createW.Code)
}

func TestSchemaRoute_ScanAndList(t *testing.T) {
	srv, _ := newTestServer(t)

	scanReq := httptest.NewRequest(http.MethodPost, "/api/dbal/schema", bytes.NewBufferString(`{"action":"scan"}`))
	scanW := httptest.NewRecorder()
	srv.router.ServeHTTP(scanW, scanReq)
	assert.Equal(t, http.StatusOK, scanW.Code)

	listReq := httptest.NewRequest(http.MethodGet, "/api/dbal/schema", nil)
	listW := httptest.NewRecorder()
	srv.router.ServeHTTP(listW, listReq)
	assert.Equal(t, http.StatusOK, listW.Code)
}
