// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tenantutil holds the single tenant-injection and tenant-isolation
rule every entity handler (crud, list, bulk, batch) applies identically,
carried over from the original service's entity_route_handler_helpers: a
document only ever gets a tenantId written into it once, on create, and only
when the route itself carries a tenant; reads, updates, and deletes check the
stored tenantId against the route's tenant and treat a mismatch as if the
record were never there at all.
*/
package tenantutil

import "github.com/meridiandb/dbal/internal/dbal/adapter"

// Inject sets doc["tenantId"] = tenant when tenant is non-empty and the
// document does not already carry a tenantId of its own. An explicit
// tenantId in the request body is never overwritten — the route's tenant
// only fills a gap.
func Inject(doc adapter.Document, tenant string) adapter.Document {
	if tenant == "" {
		return doc
	}
	if _, present := doc["tenantId"]; present {
		return doc
	}
	doc["tenantId"] = tenant
	return doc
}

// BelongsToTenant reports whether doc is visible to tenant: a document with
// no tenantId field belongs to every tenant (untenanted data), and a
// document whose tenantId is not a string is treated as belonging to no one
// in particular, so it is always visible.
//
// Only a document carrying a string tenantId that disagrees with tenant is
// excluded.
func BelongsToTenant(doc adapter.Document, tenant string) bool {
	if tenant == "" {
		return true
	}
	docTenant, ok := doc.TenantID()
	if !ok {
		return true
	}
	return docTenant == tenant
}
