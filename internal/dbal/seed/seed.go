// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package seed replays YAML fixture files through the active adapter's Create
call, the same dependency-ordered fixture loader the original daemon's
seed_loader_action drove from its own `POST /admin/seed` endpoint (see
original_source/dbal/production/src/daemon/actions/seed_loader_action.cpp).

Each YAML file may hold multiple "---"-separated documents; each document
names an entity and a `records` array. A document's `metadata.skipIfExists`
flag skips it entirely when the entity already has at least one record
(checked via a one-item List), and `metadata.useCurrentTimestamp` backfills
any zero-valued timestamp field — either the one named by
`metadata.timestampField` or one of the handful of conventional timestamp
field names — with the current time in epoch milliseconds.
*/
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
)

// loadOrder lists the fixture files with known cross-entity dependencies,
// loaded first and in this order; every other *.yaml/*.yml file in the
// directory follows afterward, in directory order.
var loadOrder = []string{
	"users.yaml",
	"credentials.yaml",
	"workspaces.yaml",
	"installed_packages.yaml",
	"projects.yaml",
	"workflows.yaml",
	"products.yaml",
	"games.yaml",
	"artists.yaml",
	"videos.yaml",
	"forum.yaml",
	"notifications.yaml",
	"audit_logs.yaml",
}

// systemOnlyFiles are never replayed even when present in the seed
// directory — they seed tables the daemon itself manages.
var systemOnlyFiles = map[string]struct{}{
	"package_permissions.yaml": {},
	"smtp_credentials.yaml":    {},
}

// conventionalTimestampFields are zero-filled with the current time when a
// document sets useCurrentTimestamp, in addition to its own timestampField.
var conventionalTimestampFields = []string{
	"createdAt", "updatedAt", "publishedAt", "installedAt", "timestamp", "lastSyncAt",
}

// FileResult is the outcome of replaying one entity document.
type FileResult struct {
	Entity   string   `json:"entity"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

// Summary aggregates every document's [FileResult] across a seed run.
type Summary struct {
	Success       bool         `json:"success"`
	TotalInserted int          `json:"totalInserted"`
	TotalSkipped  int          `json:"totalSkipped"`
	TotalFailed   int          `json:"totalFailed"`
	Errors        []string     `json:"errors"`
	Results       []FileResult `json:"results"`
}

// entityDocument is one YAML "---" document's shape.
type entityDocument struct {
	Entity      string             `yaml:"entity"`
	DisplayName string             `yaml:"displayName"`
	Name        string             `yaml:"name"`
	Metadata    documentMetadata   `yaml:"metadata"`
	Records     []map[string]any   `yaml:"records"`
}

type documentMetadata struct {
	SkipIfExists        bool   `yaml:"skipIfExists"`
	UseCurrentTimestamp bool   `yaml:"useCurrentTimestamp"`
	TimestampField      string `yaml:"timestampField"`
}

func (d entityDocument) entityName() string {
	if d.Entity != "" {
		return d.Entity
	}
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name
}

// Load walks seedDir, replaying every *.yaml/*.yml fixture file through
// client. force bypasses every document's skipIfExists check — used to
// reseed a database that already has data.
func Load(ctx context.Context, client adapter.Adapter, seedDir string, force bool) (Summary, error) {
	info, err := os.Stat(seedDir)
	if err != nil || !info.IsDir() {
		return Summary{Success: false, Errors: []string{"seed directory not found: " + seedDir}}, nil
	}

	entries, err := os.ReadDir(seedDir)
	if err != nil {
		return Summary{}, fmt.Errorf("seed: read dir %s: %w", seedDir, err)
	}

	present := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			present[entry.Name()] = struct{}{}
		}
	}

	var summary Summary
	loaded := make(map[string]struct{})

	for _, filename := range loadOrder {
		if _, ok := present[filename]; !ok {
			continue
		}
		loaded[filename] = struct{}{}
		applyFile(ctx, client, filepath.Join(seedDir, filename), force, &summary)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, ok := loaded[name]; ok {
			continue
		}
		if _, skip := systemOnlyFiles[name]; skip {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		applyFile(ctx, client, filepath.Join(seedDir, name), force, &summary)
	}

	summary.Success = summary.TotalFailed == 0
	return summary, nil
}

// applyFile replays every document in path, appending results into summary.
func applyFile(ctx context.Context, client adapter.Adapter, path string, force bool, summary *Summary) {
	data, err := os.ReadFile(path)
	if err != nil {
		summary.TotalFailed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", filepath.Base(path), err))
		return
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc entityDocument
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			summary.TotalFailed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: yaml parse error: %s", filepath.Base(path), err))
			return
		}

		entity := doc.entityName()
		if entity == "" {
			continue
		}

		result := applyDocument(ctx, client, entity, doc, force)
		summary.TotalInserted += result.Inserted
		summary.TotalSkipped += result.Skipped
		summary.TotalFailed += result.Failed
		summary.Errors = append(summary.Errors, result.Errors...)
		summary.Results = append(summary.Results, result)
	}
}

func applyDocument(ctx context.Context, client adapter.Adapter, entity string, doc entityDocument, force bool) FileResult {
	result := FileResult{Entity: entity}

	if doc.Metadata.SkipIfExists && !force {
		existing, err := client.List(ctx, entity, adapter.ListOptions{Page: 1, Limit: 1})
		if err == nil && len(existing.Items) > 0 {
			result.Skipped = len(doc.Records)
			return result
		}
	}

	for _, record := range doc.Records {
		rec := adapter.Document(record)
		if doc.Metadata.UseCurrentTimestamp {
			applyCurrentTimestamps(rec, doc.Metadata.TimestampField)
		}

		if _, err := client.Create(ctx, entity, rec); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("failed to create %s id=%v: %s", entity, rec["id"], err))
			continue
		}
		result.Inserted++
	}

	return result
}

// applyCurrentTimestamps zero-fills timestampField (if set) and every
// conventional timestamp field present in rec with the current epoch
// millisecond time, but only when the existing value is exactly 0 —
// fixtures use 0 as "generate this at load time".
func applyCurrentTimestamps(rec adapter.Document, timestampField string) {
	nowMillis := time.Now().UnixMilli()

	fields := conventionalTimestampFields
	if timestampField != "" {
		fields = append([]string{timestampField}, fields...)
	}

	for _, field := range fields {
		if isZeroNumber(rec[field]) {
			rec[field] = nowMillis
		}
	}
}

func isZeroNumber(v any) bool {
	switch n := v.(type) {
	case int:
		return n == 0
	case int64:
		return n == 0
	case float64:
		return n == 0
	}
	return false
}
