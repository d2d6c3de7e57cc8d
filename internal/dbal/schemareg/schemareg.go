// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package schemareg implements the migration-approval workflow behind the
schema handler: scanning a packages directory for `*.yaml` entity
definitions, queuing a pending migration per newly-seen entity,
and tracking operator approve/reject decisions before a migration is ever
allowed to generate a schema fragment.

This mirrors the original daemon's registry_path-backed rpc_schema_actions
collaborator (see original_source/dbal/production/src/daemon/
rpc_schema_actions.hpp) — only the header for that collaborator survived
distillation, so the on-disk registry format and the Prisma model fragment shape
below are this package's own, built to the header's five-operation contract
(list, scan, approve, reject, generate) and the "id or the literal 'all'"
approve/reject shape it documents.

State is persisted as a single JSON file (the registry_path) rather than a
database table, since the registry describes schema changes that have not
been applied yet — it must be readable even against a freshly pointed,
still-empty adapter.
*/
package schemareg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meridiandb/dbal/internal/platform/apperr"
)

// MigrationStatus is one of a migration's lifecycle states.
type MigrationStatus string

const (
	StatusPending   MigrationStatus = "pending"
	StatusApproved  MigrationStatus = "approved"
	StatusRejected  MigrationStatus = "rejected"
	StatusGenerated MigrationStatus = "generated"
)

// FieldDef is one field of a scanned entity definition.
type FieldDef struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// entityFile is the shape of one package's `*.yaml` entity definition.
type entityFile struct {
	Entity string     `yaml:"entity"`
	Fields []FieldDef `yaml:"fields"`
}

// Migration is one pending-or-decided schema change discovered by Scan.
type Migration struct {
	ID        string          `json:"id"`
	Entity    string          `json:"entity"`
	Fields    []FieldDef      `json:"fields"`
	Fragment  string          `json:"fragment"`
	Status    MigrationStatus `json:"status"`
	CreatedAt int64           `json:"createdAt"`
}

// state is the on-disk registry document.
type state struct {
	KnownSchemas []string    `json:"knownSchemas"`
	Migrations   []Migration `json:"migrations"`
}

// Registry tracks the schema scan/approve/reject/generate workflow, backed
// by a single JSON file at path.
type Registry struct {
	mu   sync.Mutex
	path string
}

// New builds a [Registry] persisting to registryPath. The file is created
// lazily on first write; a missing file reads as an empty registry.
func New(registryPath string) *Registry {
	return &Registry{path: registryPath}
}

func (r *Registry) load() (state, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return state{}, nil
	}
	if err != nil {
		return state{}, err
	}
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return state{}, err
	}
	return s, nil
}

func (r *Registry) save(s state) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(r.path, data, 0o644)
}

// ListResult is the GET /api/dbal/schema response shape.
type ListResult struct {
	KnownSchemas []string    `json:"knownSchemas"`
	Pending      []Migration `json:"pending"`
	Migrations   []Migration `json:"migrations"`
}

// List returns the known schemas and every tracked migration, pending ones
// called out separately for convenience.
func (r *Registry) List() (ListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.load()
	if err != nil {
		return ListResult{}, err
	}

	var pending []Migration
	for _, m := range s.Migrations {
		if m.Status == StatusPending {
			pending = append(pending, m)
		}
	}

	return ListResult{KnownSchemas: s.KnownSchemas, Pending: pending, Migrations: s.Migrations}, nil
}

// Scan walks packagesPath for `*.yaml`/`*.yml` entity definitions and
// queues a pending [Migration] for every entity not already known. Entities
// already present in KnownSchemas are left untouched — re-scanning is
// idempotent with respect to schemas already accepted.
func (r *Registry) Scan(packagesPath string) ([]Migration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.load()
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(s.KnownSchemas))
	for _, name := range s.KnownSchemas {
		known[name] = struct{}{}
	}
	alreadyPending := make(map[string]struct{})
	for _, m := range s.Migrations {
		if m.Status == StatusPending {
			alreadyPending[m.Entity] = struct{}{}
		}
	}

	entries, err := os.ReadDir(packagesPath)
	if err != nil {
		return nil, fmt.Errorf("schemareg: read packages dir %s: %w", packagesPath, err)
	}

	var discovered []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(packagesPath, entry.Name()))
		if err != nil {
			continue
		}
		var def entityFile
		if err := yaml.Unmarshal(data, &def); err != nil || def.Entity == "" {
			continue
		}
		if _, ok := known[def.Entity]; ok {
			continue
		}
		if _, ok := alreadyPending[def.Entity]; ok {
			continue
		}

		migration := Migration{
			ID:        fmt.Sprintf("%s-%d", def.Entity, len(s.Migrations)+len(discovered)+1),
			Entity:    def.Entity,
			Fields:    def.Fields,
			Fragment:  renderFragment(def.Entity, def.Fields),
			Status:    StatusPending,
			CreatedAt: time.Now().UnixMilli(),
		}
		discovered = append(discovered, migration)
	}

	s.Migrations = append(s.Migrations, discovered...)
	if err := r.save(s); err != nil {
		return nil, err
	}
	return discovered, nil
}

// Approve marks the pending migration named by id as approved, or every
// pending migration if id is the literal "all".
func (r *Registry) Approve(id string) ([]Migration, error) {
	return r.transition(id, StatusApproved)
}

// Reject marks the pending migration named by id as rejected, or every
// pending migration if id is the literal "all".
func (r *Registry) Reject(id string) ([]Migration, error) {
	return r.transition(id, StatusRejected)
}

func (r *Registry) transition(id string, to MigrationStatus) ([]Migration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.load()
	if err != nil {
		return nil, err
	}

	var affected []Migration
	found := false
	for i := range s.Migrations {
		if s.Migrations[i].Status != StatusPending {
			continue
		}
		if id != "all" && s.Migrations[i].ID != id {
			continue
		}
		s.Migrations[i].Status = to
		affected = append(affected, s.Migrations[i])
		found = true
	}

	if !found {
		return nil, apperr.NotFound("migration " + id)
	}

	if to == StatusApproved {
		for _, m := range affected {
			s.KnownSchemas = appendUnique(s.KnownSchemas, m.Entity)
		}
	}

	if err := r.save(s); err != nil {
		return nil, err
	}
	return affected, nil
}

// Generate writes every approved-but-not-yet-generated migration's fragment
// to outputPath as one concatenated schema file, then marks them generated
// so a second call doesn't duplicate their fragments.
func (r *Registry) Generate(outputPath string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.load()
	if err != nil {
		return "", err
	}

	var pendingGenerate []int
	for i, m := range s.Migrations {
		if m.Status == StatusApproved {
			pendingGenerate = append(pendingGenerate, i)
		}
	}
	if len(pendingGenerate) == 0 {
		return "", apperr.ValidationError("no approved migrations to generate")
	}

	sort.Slice(pendingGenerate, func(a, b int) bool {
		return s.Migrations[pendingGenerate[a]].Entity < s.Migrations[pendingGenerate[b]].Entity
	})

	var builder strings.Builder
	for _, idx := range pendingGenerate {
		builder.WriteString(s.Migrations[idx].Fragment)
		builder.WriteString("\n\n")
		s.Migrations[idx].Status = StatusGenerated
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(outputPath, []byte(builder.String()), 0o644); err != nil {
		return "", err
	}

	if err := r.save(s); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// renderFragment emits a Prisma-style model block for entity — generate's
// output is intended to seed a Prisma schema, matching DBAL_PRISMA_OUTPUT_PATH.
func renderFragment(entity string, fields []FieldDef) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "model %s {\n", capitalize(entity))
	builder.WriteString("  id String @id @default(uuid())\n")
	for _, field := range fields {
		fmt.Fprintf(&builder, "  %s %s\n", field.Name, prismaType(field.Type))
	}
	builder.WriteString("}")
	return builder.String()
}

func prismaType(fieldType string) string {
	switch strings.ToLower(fieldType) {
	case "int", "integer":
		return "Int"
	case "float", "double", "number":
		return "Float"
	case "bool", "boolean":
		return "Boolean"
	case "date", "datetime", "timestamp":
		return "DateTime"
	case "json", "object":
		return "Json"
	default:
		return "String"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
