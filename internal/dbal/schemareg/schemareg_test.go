package schemareg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePackageFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestScan_DiscoversNewEntityAsPending(t *testing.T) {
	packagesDir := t.TempDir()
	writePackageFile(t, packagesDir, "widget.yaml", `
entity: widget
fields:
  - name: title
    type: string
  - name: price
    type: float
`)

	reg := New(filepath.Join(t.TempDir(), "registry.json"))
	discovered, err := reg.Scan(packagesDir)
	require.NoError(t, err)
	require.Len(t, discovered, 1)
	assert.Equal(t, "widget", discovered[0].Entity)
	assert.Equal(t, StatusPending, discovered[0].Status)
}

func TestScan_IsIdempotentAcrossRuns(t *testing.T) {
	packagesDir := t.TempDir()
	writePackageFile(t, packagesDir, "widget.yaml", "entity: widget\nfields: []\n")

	reg := New(filepath.Join(t.TempDir(), "registry.json"))
	_, err := reg.Scan(packagesDir)
	require.NoError(t, err)

	second, err := reg.Scan(packagesDir)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestApprove_All_ApprovesEveryPending(t *testing.T) {
	packagesDir := t.TempDir()
	writePackageFile(t, packagesDir, "widget.yaml", "entity: widget\nfields: []\n")
	writePackageFile(t, packagesDir, "gadget.yaml", "entity: gadget\nfields: []\n")

	reg := New(filepath.Join(t.TempDir(), "registry.json"))
	_, err := reg.Scan(packagesDir)
	require.NoError(t, err)

	affected, err := reg.Approve("all")
	require.NoError(t, err)
	assert.Len(t, affected, 2)

	list, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, list.Pending)
	assert.ElementsMatch(t, []string{"widget", "gadget"}, list.KnownSchemas)
}

func TestReject_UnknownIDIsNotFound(t *testing.T) {
	reg := New(filepath.Join(t.TempDir(), "registry.json"))
	_, err := reg.Reject("no-such-id")
	require.Error(t, err)
}

func TestGenerate_WritesApprovedFragmentsAndMarksGenerated(t *testing.T) {
	packagesDir := t.TempDir()
	writePackageFile(t, packagesDir, "widget.yaml", `
entity: widget
fields:
  - name: title
    type: string
`)

	registryPath := filepath.Join(t.TempDir(), "registry.json")
	reg := New(registryPath)
	_, err := reg.Scan(packagesDir)
	require.NoError(t, err)
	_, err = reg.Approve("all")
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "schema.prisma")
	fragment, err := reg.Generate(outputPath)
	require.NoError(t, err)
	assert.Contains(t, fragment, "model Widget")

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, fragment, string(written))

	_, err = reg.Generate(outputPath)
	assert.Error(t, err, "a second call with nothing newly approved should report nothing to generate")
}
