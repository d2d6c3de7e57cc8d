// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package schema implements the two-route schema management surface:
GET lists known schemas and pending migrations, POST dispatches one of
scan/approve/reject/generate. Business logic lives in
[github.com/meridiandb/dbal/internal/dbal/schemareg] — this package only
validates the request envelope, dispatches, and shapes the response.
*/
package schema

import (
	"encoding/json"
	"net/http"

	"github.com/meridiandb/dbal/internal/dbal/schemareg"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/internal/platform/respond"
)

// Handler serves /api/dbal/schema over a single [schemareg.Registry].
type Handler struct {
	registry     *schemareg.Registry
	packagesPath string
	outputPath   string
}

// NewHandler builds a [Handler]. packagesPath is scanned on a "scan" action;
// outputPath is where a "generate" action writes its fragment.
func NewHandler(registry *schemareg.Registry, packagesPath, outputPath string) *Handler {
	return &Handler{registry: registry, packagesPath: packagesPath, outputPath: outputPath}
}

// List handles GET /api/dbal/schema.
func (h *Handler) List(writer http.ResponseWriter, request *http.Request) {
	result, err := h.registry.List()
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}
	respond.OK(writer, result)
}

type actionRequest struct {
	Action string `json:"action"`
	ID     string `json:"id"`
}

// Dispatch handles POST /api/dbal/schema, fanning out to scan/approve/
// reject/generate by the request body's action field.
func (h *Handler) Dispatch(writer http.ResponseWriter, request *http.Request) {
	var body actionRequest
	defer request.Body.Close()
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		respond.Error(writer, request, apperr.ValidationError("invalid JSON payload"))
		return
	}

	switch body.Action {
	case "scan":
		h.scan(writer, request)
	case "approve":
		h.approve(writer, request, body.ID)
	case "reject":
		h.reject(writer, request, body.ID)
	case "generate":
		h.generate(writer, request)
	default:
		respond.Error(writer, request, apperr.ValidationError("unknown action: "+body.Action))
	}
}

func (h *Handler) scan(writer http.ResponseWriter, request *http.Request) {
	discovered, err := h.registry.Scan(h.packagesPath)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}
	respond.OK(writer, map[string]any{"discovered": discovered})
}

func (h *Handler) approve(writer http.ResponseWriter, request *http.Request, id string) {
	if id == "" {
		respond.Error(writer, request, apperr.ValidationError("migration ID required"))
		return
	}
	affected, err := h.registry.Approve(id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]any{"approved": affected})
}

func (h *Handler) reject(writer http.ResponseWriter, request *http.Request, id string) {
	if id == "" {
		respond.Error(writer, request, apperr.ValidationError("migration ID required"))
		return
	}
	affected, err := h.registry.Reject(id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]any{"rejected": affected})
}

func (h *Handler) generate(writer http.ResponseWriter, request *http.Request) {
	fragment, err := h.registry.Generate(h.outputPath)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"fragment": fragment, "outputPath": h.outputPath})
}
