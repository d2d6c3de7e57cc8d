// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package crud implements the single-record create/read/update/delete
operations of the generic entity route.

Tenant handling is uniform across all four: [tenantutil.Inject] only ever
runs on create, and every read/update/delete first fetches the record and
applies [tenantutil.BelongsToTenant] — a tenant mismatch is reported as
NotFound, never Forbidden, so a probing client cannot distinguish "no such
record" from "someone else's record".
*/
package crud

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/handler/tenantutil"
	"github.com/meridiandb/dbal/internal/dbal/route"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/internal/platform/respond"
)

// Handler serves the single-record operations against whichever adapter is
// currently active.
type Handler struct{}

// NewHandler builds a [Handler]. It holds no state of its own — the active
// adapter is handed in per-call by the router, which owns the registry.
func NewHandler() *Handler {
	return &Handler{}
}

// Create decodes the request body into a generic document, injects the
// route's tenant when the body does not already carry one, and stores it.
func (h *Handler) Create(writer http.ResponseWriter, request *http.Request, client adapter.Adapter, rt route.Route) {
	doc, err := decodeBody(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	doc = tenantutil.Inject(doc, rt.Tenant)

	created, err := client.Create(request.Context(), rt.Entity, doc)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, created)
}

// Read fetches one document by id and enforces tenant isolation.
func (h *Handler) Read(writer http.ResponseWriter, request *http.Request, client adapter.Adapter, rt route.Route) {
	if rt.ID == "" {
		respond.Error(writer, request, apperr.ValidationError("id is required"))
		return
	}

	doc, err := fetchOwned(request.Context(), client, rt)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, doc)
}

// Update re-fetches the record to verify tenant ownership, rejects an empty
// body, then applies the update.
func (h *Handler) Update(writer http.ResponseWriter, request *http.Request, client adapter.Adapter, rt route.Route) {
	if rt.ID == "" {
		respond.Error(writer, request, apperr.ValidationError("id is required"))
		return
	}

	doc, err := decodeBody(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if len(doc) == 0 {
		respond.Error(writer, request, apperr.ValidationError("request body must not be empty"))
		return
	}

	if _, err := fetchOwned(request.Context(), client, rt); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := client.Update(request.Context(), rt.Entity, rt.ID, doc)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updated)
}

// Delete re-fetches the record to verify tenant ownership, then removes it.
func (h *Handler) Delete(writer http.ResponseWriter, request *http.Request, client adapter.Adapter, rt route.Route) {
	if rt.ID == "" {
		respond.Error(writer, request, apperr.ValidationError("id is required"))
		return
	}

	if _, err := fetchOwned(request.Context(), client, rt); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := client.Remove(request.Context(), rt.Entity, rt.ID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// fetchOwned reads (entity, id) and maps a tenant mismatch onto the same
// NotFound a missing record would produce — a client must never be able to
// tell "no such record" apart from "someone else's record" by status code.
func fetchOwned(ctx context.Context, client adapter.Adapter, rt route.Route) (adapter.Document, error) {
	doc, err := client.Read(ctx, rt.Entity, rt.ID)
	if err != nil {
		return nil, err
	}
	if !tenantutil.BelongsToTenant(doc, rt.Tenant) {
		return nil, apperr.NotFound(rt.Entity)
	}
	return doc, nil
}

// decodeBody parses the request body as a generic document. An empty body
// decodes to an empty, non-nil document rather than an error — callers that
// must reject empty bodies (Update) check len(doc) == 0 themselves, since
// Create legitimately allows an empty body (a document with only the
// injected tenantId).
func decodeBody(request *http.Request) (adapter.Document, error) {
	defer request.Body.Close()

	doc := adapter.Document{}
	if request.ContentLength == 0 {
		return doc, nil
	}

	if err := json.NewDecoder(request.Body).Decode(&doc); err != nil {
		return nil, apperr.ValidationError("request body must be a JSON object: " + err.Error())
	}
	return doc, nil
}
