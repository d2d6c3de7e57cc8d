package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
)

type fakeAdapter struct {
	created  map[string][]adapter.Document
	existing map[string]bool
	failIDs  map[string]bool
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{created: make(map[string][]adapter.Document), existing: make(map[string]bool), failIDs: make(map[string]bool)}
}

func (f *fakeAdapter) Create(_ context.Context, entity string, doc adapter.Document) (adapter.Document, error) {
	if id, ok := doc["id"].(string); ok && f.failIDs[id] {
		return nil, assertErr("create failed")
	}
	f.created[entity] = append(f.created[entity], doc)
	return doc, nil
}
func (f *fakeAdapter) Read(context.Context, string, string) (adapter.Document, error) { return nil, nil }
func (f *fakeAdapter) Update(context.Context, string, string, adapter.Document) (adapter.Document, error) {
	return nil, nil
}
func (f *fakeAdapter) Remove(context.Context, string, string) error { return nil }
func (f *fakeAdapter) List(_ context.Context, entity string, _ adapter.ListOptions) (adapter.ListResult, error) {
	if f.existing[entity] {
		return adapter.ListResult{Items: []adapter.Document{{"id": "existing"}}, Total: 1}, nil
	}
	return adapter.ListResult{}, nil
}
func (f *fakeAdapter) BeginTransaction(context.Context) (adapter.Transaction, error) { return nil, nil }
func (f *fakeAdapter) Capabilities() map[adapter.Capability]bool                     { return nil }
func (f *fakeAdapter) Close() error                                                  { return nil }

type assertErr string

func (e assertErr) Error() string { return string(e) }

func writeSeedFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_InsertsRecordsFromYAML(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "products.yaml", `
entity: product
records:
  - name: widget
  - name: gadget
`)

	client := newFakeAdapter()
	summary, err := Load(context.Background(), client, dir, false)

	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 2, summary.TotalInserted)
	assert.Len(t, client.created["product"], 2)
}

func TestLoad_SkipIfExistsSkipsWhenRecordsPresent(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "products.yaml", `
entity: product
metadata:
  skipIfExists: true
records:
  - name: widget
`)

	client := newFakeAdapter()
	client.existing["product"] = true

	summary, err := Load(context.Background(), client, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalSkipped)
	assert.Equal(t, 0, summary.TotalInserted)
}

func TestLoad_ForceBypassesSkipIfExists(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "products.yaml", `
entity: product
metadata:
  skipIfExists: true
records:
  - name: widget
`)

	client := newFakeAdapter()
	client.existing["product"] = true

	summary, err := Load(context.Background(), client, dir, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalInserted)
}

func TestLoad_FailedCreateIsCountedAndReported(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "products.yaml", `
entity: product
records:
  - id: bad-record
    name: widget
`)

	client := newFakeAdapter()
	client.failIDs["bad-record"] = true

	summary, err := Load(context.Background(), client, dir, false)
	require.NoError(t, err)
	assert.False(t, summary.Success)
	assert.Equal(t, 1, summary.TotalFailed)
	assert.NotEmpty(t, summary.Errors)
}

func TestLoad_SystemOnlyFilesAreNeverReplayed(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "smtp_credentials.yaml", `
entity: smtp_credential
records:
  - host: smtp.example.com
`)

	client := newFakeAdapter()
	summary, err := Load(context.Background(), client, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalInserted)
	assert.Empty(t, client.created["smtp_credential"])
}

func TestLoad_MissingDirectoryReportsFailure(t *testing.T) {
	client := newFakeAdapter()
	summary, err := Load(context.Background(), client, "/no/such/seed/dir", false)
	require.NoError(t, err)
	assert.False(t, summary.Success)
	assert.NotEmpty(t, summary.Errors)
}

func TestLoad_UseCurrentTimestampFillsZeroValuedField(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "products.yaml", `
entity: product
metadata:
  useCurrentTimestamp: true
records:
  - name: widget
    createdAt: 0
`)

	client := newFakeAdapter()
	_, err := Load(context.Background(), client, dir, false)
	require.NoError(t, err)

	created := client.created["product"][0]
	assert.NotEqual(t, 0, created["createdAt"])
}
