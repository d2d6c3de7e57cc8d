// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package connurl validates and normalizes a storage connection URL against the
per-protocol grammars described for the 13 supported adapters.

The sqlite/postgres(ql)/mysql grammars are carried over directly from the
original C++ ConnectionValidator (see original_source/dbal/production/src/
core/connection_validator.cpp): same regexes, same special-casing of
":memory:", same "postgresql" → "postgres" normalization. The other ten
protocols only have a URL-prefix contract in the specification (no grammar
was ever distilled for them), so they reuse the same generic
"[user[:pass]@]host[:port][/path][?params]" shape mysql/postgres use, with
each protocol's own set of accepted scheme aliases.
*/
package connurl

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Result is the outcome of validating a connection URL.
type Result struct {
	Valid         bool
	AdapterType   string
	NormalizedURL string
	ErrorMessage  string
}

// hostGrammar matches "[user[:pass]@]host[:port][/path][?params]" regardless
// of scheme — the same shape the original postgres/mysql regexes use.
var hostGrammar = regexp.MustCompile(`^([^:@]+(:([^@]+))?@)?([^:/]+)(:(\d+))?(/([^?]+))?(\?.*)?$`)

// protocolAliases maps every accepted scheme (spec.md §6) to its canonical
// adapter tag. Aliases within one adapter (postgres/postgresql, es/
// elasticsearch, surreal/surrealdb) normalize to the first-listed tag.
var protocolAliases = map[string]string{
	"sqlite":        "sqlite",
	"postgres":      "postgres",
	"postgresql":    "postgres",
	"mysql":         "mysql",
	"mongodb":       "mongodb",
	"redis":         "redis",
	"elasticsearch": "elasticsearch",
	"es":            "elasticsearch",
	"cassandra":     "cassandra",
	"surrealdb":     "surrealdb",
	"surreal":       "surrealdb",
	"supabase":      "supabase",
	"prisma":        "prisma",
	"dynamodb":      "dynamodb",
	"cockroachdb":   "cockroachdb",
	"tidb":          "tidb",
}

// Validate checks databaseURL against its protocol's grammar and returns a
// normalized form plus the canonical adapter tag.
func Validate(databaseURL string) Result {
	if databaseURL == "" {
		return fail("database URL cannot be empty")
	}

	if !hasValidFormat(databaseURL) {
		return fail("invalid URL format, expected protocol://...")
	}

	protocol := extractProtocol(databaseURL)
	adapterType, known := protocolAliases[protocol]
	if !known {
		return fail(fmt.Sprintf("unsupported database protocol: %s", protocol))
	}

	if adapterType == "sqlite" {
		return validateSQLite(databaseURL)
	}

	return validateGeneric(databaseURL, protocol, adapterType)
}

func validateSQLite(databaseURL string) Result {
	path := databaseURL[strings.Index(databaseURL, "://")+3:]

	if path == ":memory:" {
		return Result{Valid: true, AdapterType: "sqlite", NormalizedURL: databaseURL}
	}

	if path == "" {
		return fail("sqlite path cannot be empty")
	}

	if strings.ContainsRune(path, 0) {
		return fail("invalid sqlite database path: " + path)
	}

	return Result{Valid: true, AdapterType: "sqlite", NormalizedURL: databaseURL}
}

func validateGeneric(databaseURL, protocol, adapterType string) Result {
	rest := databaseURL[strings.Index(databaseURL, "://")+3:]

	if !hostGrammar.MatchString(rest) {
		return fail(fmt.Sprintf("invalid %s URL format", adapterType))
	}

	normalized := databaseURL
	if protocol != adapterType {
		normalized = adapterType + "://" + rest
	}

	return Result{Valid: true, AdapterType: adapterType, NormalizedURL: normalized}
}

func hasValidFormat(url string) bool {
	return strings.Contains(url, "://")
}

func extractProtocol(url string) string {
	idx := strings.Index(url, "://")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(url[:idx])
}

func fail(message string) Result {
	return Result{Valid: false, ErrorMessage: message}
}

// NormalizeAdapterTag maps tag through the same alias table Validate uses
// (postgres/postgresql, es/elasticsearch, surreal/surrealdb), so a caller-
// supplied adapter name can be compared against a Result.AdapterType without
// duplicating the alias list. A tag not found in the table is returned
// unchanged so callers can still report it verbatim in an error message.
func NormalizeAdapterTag(tag string) string {
	if canonical, ok := protocolAliases[strings.ToLower(tag)]; ok {
		return canonical
	}
	return tag
}

// IsSupported reports whether tag is one of the 13 known adapter tags.
func IsSupported(tag string) bool {
	for _, canonical := range protocolAliases {
		if canonical == tag {
			return true
		}
	}
	return false
}

// KnownAdapterTags returns the 13 canonical adapter tags, deduplicated.
func KnownAdapterTags() []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, canonical := range protocolAliases {
		if _, ok := seen[canonical]; !ok {
			seen[canonical] = struct{}{}
			tags = append(tags, canonical)
		}
	}
	sort.Strings(tags)
	return tags
}
