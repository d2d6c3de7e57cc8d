package schema

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiandb/dbal/internal/dbal/schemareg"
)

func newTestHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	packagesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(packagesDir, "widget.yaml"), []byte("entity: widget\nfields: []\n"), 0o644))

	registryPath := filepath.Join(t.TempDir(), "registry.json")
	outputPath := filepath.Join(t.TempDir(), "schema.prisma")
	reg := schemareg.New(registryPath)
	return NewHandler(reg, packagesDir, outputPath), outputPath
}

func TestDispatch_ScanThenApproveThenGenerate(t *testing.T) {
	h, outputPath := newTestHandler(t)

	scanReq := httptest.NewRequest(http.MethodPost, "/api/dbal/schema", bytes.NewBufferString(`{"action":"scan"}`))
	scanW := httptest.NewRecorder()
	h.Dispatch(scanW, scanReq)
	require.Equal(t, http.StatusOK, scanW.Code)
	assert.Contains(t, scanW.Body.String(), "widget")

	listReq := httptest.NewRequest(http.MethodGet, "/api/dbal/schema", nil)
	listW := httptest.NewRecorder()
	h.List(listW, listReq)
	assert.Contains(t, listW.Body.String(), `"pending"`)

	approveReq := httptest.NewRequest(http.MethodPost, "/api/dbal/schema", bytes.NewBufferString(`{"action":"approve","id":"all"}`))
	approveW := httptest.NewRecorder()
	h.Dispatch(approveW, approveReq)
	require.Equal(t, http.StatusOK, approveW.Code)

	generateReq := httptest.NewRequest(http.MethodPost, "/api/dbal/schema", bytes.NewBufferString(`{"action":"generate"}`))
	generateW := httptest.NewRecorder()
	h.Dispatch(generateW, generateReq)
	require.Equal(t, http.StatusOK, generateW.Code)

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "model Widget")
}

func TestDispatch_ApproveWithoutIDIsValidationError(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/dbal/schema", bytes.NewBufferString(`{"action":"approve"}`))
	w := httptest.NewRecorder()
	h.Dispatch(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDispatch_UnknownActionIsValidationError(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/dbal/schema", bytes.NewBufferString(`{"action":"nonsense"}`))
	w := httptest.NewRecorder()
	h.Dispatch(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDispatch_RejectUnknownIDIsNotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/dbal/schema", bytes.NewBufferString(`{"action":"reject","id":"no-such-id"}`))
	w := httptest.NewRecorder()
	h.Dispatch(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
