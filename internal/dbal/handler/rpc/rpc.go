// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rpc implements the legacy `POST /api/dbal` single-entity action
surface this daemon carries alongside the generic `/{tenant}/{package}/
{entity}` route for callers that have not migrated off it. Only the "user"
entity is supported — everything else is rejected with a ValidationError,
matching the distilled handler's "entities other than user produce 400"
behavior (the closed error-code table maps that to 422 here).
*/
package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/handler/tenantutil"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/internal/platform/constants"
	"github.com/meridiandb/dbal/internal/platform/respond"
)

// Handler serves the legacy RPC surface over an already-resolved adapter.
type Handler struct{}

// NewHandler builds a [Handler]. It is stateless — the router supplies the
// active adapter per call.
func NewHandler() *Handler {
	return &Handler{}
}

type requestBody struct {
	Entity   string         `json:"entity"`
	Action   string         `json:"action"`
	Payload  map[string]any `json:"payload"`
	Options  map[string]any `json:"options"`
	TenantID string         `json:"tenantId"`
}

// Handle serves POST /api/dbal.
func (h *Handler) Handle(writer http.ResponseWriter, request *http.Request, client adapter.Adapter) {
	limited := http.MaxBytesReader(writer, request.Body, constants.LegacyRPCMaxBodyBytes)
	data, err := io.ReadAll(limited)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("request body exceeds the 10MB legacy RPC limit"))
		return
	}

	var body requestBody
	if err := json.Unmarshal(data, &body); err != nil {
		respond.Error(writer, request, apperr.ValidationError("invalid JSON payload"))
		return
	}

	entity := strings.ToLower(strings.TrimSpace(body.Entity))
	action := strings.ToLower(strings.TrimSpace(body.Action))

	if entity != constants.LegacyRPCEntity {
		respond.Error(writer, request, apperr.ValidationError("unsupported entity: "+entity))
		return
	}

	ctx := request.Context()
	payload := adapter.Document(body.Payload)
	tenant := body.TenantID

	switch action {
	case "list":
		h.list(ctx, writer, request, client, entity, tenant)
	case "get", "read":
		h.read(ctx, writer, request, client, entity, idFromOptions(body.Options), tenant)
	case "create":
		h.create(ctx, writer, request, client, entity, payload, tenant)
	case "update":
		h.update(ctx, writer, request, client, entity, idFromOptions(body.Options), payload, tenant)
	case "delete", "remove":
		h.remove(ctx, writer, request, client, entity, idFromOptions(body.Options), tenant)
	default:
		respond.Error(writer, request, apperr.ValidationError("unknown action: "+action))
	}
}

func idFromOptions(options map[string]any) string {
	if options == nil {
		return ""
	}
	id, _ := options["id"].(string)
	return id
}

func (h *Handler) list(ctx context.Context, writer http.ResponseWriter, request *http.Request, client adapter.Adapter, entity, tenant string) {
	opts := adapter.ListOptions{Page: 1, Limit: 100}
	if tenant != "" {
		opts.Filters = map[string]string{"tenantId": tenant}
	}

	result, err := client.List(ctx, entity, opts)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result.Items)
}

func (h *Handler) read(ctx context.Context, writer http.ResponseWriter, request *http.Request, client adapter.Adapter, entity, id, tenant string) {
	if id == "" {
		respond.Error(writer, request, apperr.ValidationError("options.id is required"))
		return
	}

	doc, err := client.Read(ctx, entity, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if doc == nil || !tenantutil.BelongsToTenant(doc, tenant) {
		respond.Error(writer, request, apperr.NotFound(entity))
		return
	}
	respond.OK(writer, doc)
}

func (h *Handler) create(ctx context.Context, writer http.ResponseWriter, request *http.Request, client adapter.Adapter, entity string, payload adapter.Document, tenant string) {
	doc := tenantutil.Inject(payload, tenant)
	created, err := client.Create(ctx, entity, doc)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, created)
}

func (h *Handler) update(ctx context.Context, writer http.ResponseWriter, request *http.Request, client adapter.Adapter, entity, id string, payload adapter.Document, tenant string) {
	if id == "" {
		respond.Error(writer, request, apperr.ValidationError("options.id is required"))
		return
	}

	existing, err := client.Read(ctx, entity, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if existing == nil || !tenantutil.BelongsToTenant(existing, tenant) {
		respond.Error(writer, request, apperr.NotFound(entity))
		return
	}

	updated, err := client.Update(ctx, entity, id, payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updated)
}

func (h *Handler) remove(ctx context.Context, writer http.ResponseWriter, request *http.Request, client adapter.Adapter, entity, id, tenant string) {
	if id == "" {
		respond.Error(writer, request, apperr.ValidationError("options.id is required"))
		return
	}

	existing, err := client.Read(ctx, entity, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if existing == nil || !tenantutil.BelongsToTenant(existing, tenant) {
		respond.Error(writer, request, apperr.NotFound(entity))
		return
	}

	if err := client.Remove(ctx, entity, id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
