package blob

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiandb/dbal/internal/dbal/blob/memoryblob"
)

func TestHandler_PutThenGetRoundTrips(t *testing.T) {
	h := NewHandler(memoryblob.New())

	putReq := httptest.NewRequest(http.MethodPut, "/acme/billing/blob/report.csv", bytes.NewBufferString("a,b,c"))
	putReq.Header.Set("Content-Type", "text/csv")
	putW := httptest.NewRecorder()
	h.Put(putW, putReq, "acme", "billing", "report.csv")
	require.Equal(t, http.StatusCreated, putW.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/acme/billing/blob/report.csv", nil)
	getW := httptest.NewRecorder()
	h.Get(getW, getReq, "acme", "billing", "report.csv")

	require.Equal(t, http.StatusOK, getW.Code)
	assert.Equal(t, "a,b,c", getW.Body.String())
}

func TestHandler_ListStripsTenantPrefix(t *testing.T) {
	backend := memoryblob.New()
	h := NewHandler(backend)

	putReq := httptest.NewRequest(http.MethodPut, "/acme/billing/blob/report.csv", bytes.NewBufferString("x"))
	h.Put(httptest.NewRecorder(), putReq, "acme", "billing", "report.csv")

	listReq := httptest.NewRequest(http.MethodGet, "/acme/billing/blob", nil)
	listW := httptest.NewRecorder()
	h.List(listW, listReq, "acme", "billing")

	require.Equal(t, http.StatusOK, listW.Code)
	assert.Contains(t, listW.Body.String(), `"key":"report.csv"`)
	assert.NotContains(t, listW.Body.String(), "acme/billing/report.csv")
}

func TestHandler_PresignOnMemoryBackendIsNotImplemented(t *testing.T) {
	h := NewHandler(memoryblob.New())

	req := httptest.NewRequest(http.MethodGet, "/acme/billing/blob/report.csv/presign", nil)
	w := httptest.NewRecorder()
	h.Presign(w, req, "acme", "billing", "report.csv")

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestHandler_DeleteThenGetIsNotFound(t *testing.T) {
	backend := memoryblob.New()
	h := NewHandler(backend)

	putReq := httptest.NewRequest(http.MethodPut, "/acme/billing/blob/report.csv", bytes.NewBufferString("x"))
	h.Put(httptest.NewRecorder(), putReq, "acme", "billing", "report.csv")

	delReq := httptest.NewRequest(http.MethodDelete, "/acme/billing/blob/report.csv", nil)
	delW := httptest.NewRecorder()
	h.Delete(delW, delReq, "acme", "billing", "report.csv")
	require.Equal(t, http.StatusNoContent, delW.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/acme/billing/blob/report.csv", nil)
	getW := httptest.NewRecorder()
	h.Get(getW, getReq, "acme", "billing", "report.csv")
	assert.Equal(t, http.StatusNotFound, getW.Code)

	assert.NotContains(t, getW.Body.String(), "success")
	assert.Contains(t, getW.Body.String(), `"error":{"code":"NotFound"`)
}
