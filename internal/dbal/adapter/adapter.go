// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package adapter defines the uniform capability set every one of the 13
storage backends implements, plus the generic document/list/transaction
types that flow through it.

Adapters are a closed, polymorphic set — the factory (internal/dbal/adapter/
registry) maps a connection-URL protocol tag to exactly one constructor.
There is no user-extensible plugin point.
*/
package adapter

import "context"

// Document is a semi-structured JSON object — the generic entity payload
// type threaded through CRUD, list, bulk, and batch. Tenant injection only
// ever touches the top-level "tenantId" key; nothing here does deep parsing.
type Document map[string]interface{}

// TenantID returns the document's "tenantId" field if present and a string.
func (d Document) TenantID() (string, bool) {
	v, ok := d["tenantId"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// SortDirection is either ascending or descending.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// SortKey names one field and its direction for a List query.
type SortKey struct {
	Field     string
	Direction SortDirection
}

// ListOptions carries the parsed query parameters for a List call.
type ListOptions struct {
	Page    int
	Limit   int
	Filters map[string]string
	Sort    []SortKey
}

// ListResult is the page of documents plus the total matching count, used to
// build the {data, total, page, limit} envelope.
type ListResult struct {
	Items []Document
	Total int
}

// Capability names one optional operation an adapter may or may not support,
// reported by [Adapter.Capabilities]. Nothing checks the set before
// dispatch; an adapter that lacks an operation returns
// apperr.CapabilityNotSupported from the call itself (see BeginTransaction).
type Capability string

const (
	CapabilityTransactions Capability = "transactions"
	CapabilityPresign      Capability = "presign"
)

// Adapter is the capability set every backend driver implements: generic
// record CRUD by entity name and id, a query surface, and transaction
// control. Construction and teardown are represented by the registry/factory
// (Close here releases whatever connection pool or client the adapter holds).
type Adapter interface {
	// Create inserts doc under entity and returns the stored document
	// (which may gain adapter-assigned fields such as id or timestamps).
	Create(ctx context.Context, entity string, doc Document) (Document, error)

	// Read fetches one document by id. Returns apperr.NotFound if absent.
	Read(ctx context.Context, entity, id string) (Document, error)

	// Update replaces fields of an existing document and returns the
	// resulting document.
	Update(ctx context.Context, entity, id string, doc Document) (Document, error)

	// Remove deletes a document by id.
	Remove(ctx context.Context, entity, id string) error

	// List runs a filtered, sorted, paginated query.
	List(ctx context.Context, entity string, opts ListOptions) (ListResult, error)

	// BeginTransaction opens a transaction scope for a bulk/batch request.
	// Returns apperr.CapabilityNotSupported if the backend has none.
	BeginTransaction(ctx context.Context) (Transaction, error)

	// Capabilities reports which optional operations this adapter supports.
	Capabilities() map[Capability]bool

	// Close releases the adapter's underlying connection/client.
	Close() error
}

// Transaction is a per-request scope wrapping a sequence of CRUD operations.
// It transitions none → open → {committed|rolled_back} and is never reused
// once terminal — a fresh [Adapter.BeginTransaction] call is required.
type Transaction interface {
	Create(ctx context.Context, entity string, doc Document) (Document, error)
	Update(ctx context.Context, entity, id string, doc Document) (Document, error)
	Remove(ctx context.Context, entity, id string) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Config is the adapter configuration the registry constructs a handle from.
type Config struct {
	Adapter     string
	DatabaseURL string
	Mode        string
	Endpoint    string
	Sandbox     bool
}

// Constructor builds a new [Adapter] from a [Config]. Each of the 13 backend
// packages registers one of these with the registry.
type Constructor func(ctx context.Context, cfg Config) (Adapter, error)
