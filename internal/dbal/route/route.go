// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package route splits a generic entity-path into its tenant/package/entity/id/
action parts and validates the identifier charset.

It is deliberately total: [Parse] never panics on ASCII input, returning a
[Route] with either Valid=true and populated fields, or Valid=false and a
diagnostic Reason — the same pattern the original C++ adapter_factory used
for its own URL parsing, carried over here for path parsing instead.
*/
package route

import (
	"regexp"
	"strings"

	"github.com/meridiandb/dbal/internal/platform/constants"
)

// identifierCharset is the allowed character class for tenant/package/entity.
var identifierCharset = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Route is the parsed, validated shape of a generic entity path.
type Route struct {
	Tenant    string
	Package   string
	Entity    string
	ID        string
	Action    string
	ExtraArgs []string

	Valid  bool
	Reason string
}

// Parse splits path (already stripped of any fixed routing prefix, e.g. the
// leading "/{tenant}/{package}/..." segment chi hands the generic handler)
// into a [Route]. Segments are separated by "/"; empty segments (leading,
// trailing, or doubled slashes) are dropped before counting.
func Parse(path string) Route {
	segments := splitNonEmpty(path)

	if len(segments) < 3 {
		return Route{Valid: false, Reason: "path must contain at least tenant/package/entity"}
	}

	tenant, pkg, entity := segments[0], segments[1], segments[2]

	for _, part := range []struct {
		name  string
		value string
	}{{"tenant", tenant}, {"package", pkg}, {"entity", entity}} {
		if !identifierCharset.MatchString(part.value) {
			return Route{Valid: false, Reason: part.name + " must match [A-Za-z0-9_]+"}
		}
	}

	if constants.IsReservedTenant(tenant) {
		return Route{Valid: false, Reason: "tenant is on the reserved-invalid list"}
	}

	r := Route{Tenant: tenant, Package: pkg, Entity: entity, Valid: true}

	if len(segments) > 3 {
		r.ID = segments[3]
	}
	if len(segments) > 4 {
		r.Action = segments[4]
	}
	if len(segments) > 5 {
		r.ExtraArgs = append([]string(nil), segments[5:]...)
	}

	return r
}

// splitNonEmpty splits path on "/" and discards empty segments.
func splitNonEmpty(path string) []string {
	raw := strings.Split(path, "/")
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
