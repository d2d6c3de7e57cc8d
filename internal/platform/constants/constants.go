// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the DBAL daemon.

It defines default timeouts, rate-limit ceilings, header names, and the
handful of magic strings (tenant route segments, reserved names) that the
rest of the codebase would otherwise repeat.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "DBAL"
	AppVersion = "1.0.0"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the statement_timeout postgres.NewPool sets on
	// its connections.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting
//
// Three traffic classes, each with its own fixed ceiling per 60-second
// sliding window, keyed by client IP. See internal/dbal/ratelimit.

const (
	// RateLimitWindow is the sliding window width shared by all three classes.
	RateLimitWindow = 60 * time.Second

	// RateLimitAdminCeiling bounds /admin/* and /api/dbal/schema requests per window.
	RateLimitAdminCeiling = 10

	// RateLimitMutationCeiling bounds POST/PUT/PATCH/DELETE entity requests per window.
	RateLimitMutationCeiling = 50

	// RateLimitReadCeiling bounds GET entity requests per window.
	RateLimitReadCeiling = 100

	// RateLimitCleanupInterval is how often idle client windows are evicted from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its windows are forgotten.
	RateLimitClientTTL = 3 * time.Minute
)

// # Metadata Cache

const (
	// DefaultMetadataCacheTTL is how long a cached schema/metadata entry is
	// served before the next lookup falls through to the adapter again.
	DefaultMetadataCacheTTL = 5 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID     = "X-Request-ID"
	HeaderXRealIP        = "X-Real-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderOrigin         = "Origin"
	HeaderAuthorization  = "Authorization"
	HeaderServer         = "Server"
	HeaderRetryAfter     = "Retry-After"
	HeaderContentType    = "Content-Type"
)

// # Route Segments & Reserved Names

const (
	// SegmentAdmin is the top-level path segment for operator-only routes.
	SegmentAdmin = "admin"

	// SegmentSchema names a "_schema" path segment. The router does not use
	// it: the schema registry routes are served under /api/dbal/schema.
	SegmentSchema = "_schema"

	// SegmentBlob is the top-level path segment for the blob façade routes,
	// e.g. /{tenant}/{package}/blob[/{key}[/{action}]].
	SegmentBlob = "blob"

	// SegmentLegacyRPC is the legacy single-entity RPC path.
	SegmentLegacyRPC = "/api/dbal"

	// LegacyRPCEntity is the only entity the legacy RPC handler serves.
	LegacyRPCEntity = "user"

	// BulkPrefix marks a single-entity bulk sub-route, e.g. /{t}/{p}/{e}/_bulk/create.
	BulkPrefix = "_bulk"

	// BatchSegment marks the multi-entity transactional batch route.
	BatchSegment = "_batch"
)

// reservedTenantNames is a short, fixed negative-testing sentinel list (see
// SPEC_FULL.md §6 Open Question 3). A tenant literally named this way is
// rejected by route validation; every other syntactically valid tenant name
// is treated like any other tenant, with no further special-casing.
var reservedTenantNames = map[string]struct{}{
	"invalid":   {},
	"__proto__": {},
}

// IsReservedTenant reports whether name is on the fixed negative-testing list.
func IsReservedTenant(name string) bool {
	_, reserved := reservedTenantNames[name]
	return reserved
}

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Request Body Limits

const (
	// LegacyRPCMaxBodyBytes guards the legacy /api/dbal handler against
	// unbounded request bodies.
	LegacyRPCMaxBodyBytes = 10 << 20 // 10MB
)
