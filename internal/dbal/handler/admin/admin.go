// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package admin implements the four operator-only endpoints: inspecting and
switching the active adapter, probing a candidate connection, enumerating
the known adapter tags, and triggering a seed replay.

The two-gate bearer-token check ([middleware.AdminAuth]) and the CORS
preflight response wrap these handlers at the router level — this package
only implements the business logic behind the gate.
*/
package admin

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/meridiandb/dbal/internal/dbal/adapter/registry"
	"github.com/meridiandb/dbal/internal/dbal/seed"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/internal/platform/respond"
)

// Handler serves the admin surface over the service's single [registry.Registry].
type Handler struct {
	registry *registry.Registry
	seedDir  string
}

// NewHandler builds a [Handler] bound to registry, seeding from seedDir on
// /admin/seed requests.
func NewHandler(reg *registry.Registry, seedDir string) *Handler {
	return &Handler{registry: reg, seedDir: seedDir}
}

// redactionPattern matches the password segment of a connection URL between
// ":" and "@" so GetConfig never echoes a live credential back to a caller.
var redactionPattern = regexp.MustCompile(`(:)([^@/]+)(@)`)

func redactPassword(databaseURL string) string {
	return redactionPattern.ReplaceAllString(databaseURL, "${1}***${3}")
}

// configResponse is the GetConfig/SetConfig response shape.
type configResponse struct {
	Adapter     string `json:"adapter"`
	DatabaseURL string `json:"database_url"`
	Status      string `json:"status"`
}

// GetConfig returns the active adapter and a password-redacted database URL.
func (h *Handler) GetConfig(writer http.ResponseWriter, request *http.Request) {
	snapshot := h.registry.Snapshot()
	respond.OK(writer, configResponse{
		Adapter:     snapshot.Adapter,
		DatabaseURL: redactPassword(snapshot.DatabaseURL),
		Status:      "connected",
	})
}

type configRequestBody struct {
	Adapter     string `json:"adapter"`
	DatabaseURL string `json:"database_url"`
}

// SetConfig validates the requested adapter tag and, if supported, switches
// the active adapter to it. On failure the previously active adapter is
// left untouched.
func (h *Handler) SetConfig(writer http.ResponseWriter, request *http.Request) {
	var body configRequestBody
	defer request.Body.Close()
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		respond.Error(writer, request, apperr.ValidationError("request body must be {adapter, database_url}"))
		return
	}
	if body.Adapter == "" || body.DatabaseURL == "" {
		respond.Error(writer, request, apperr.ValidationError("adapter and database_url are required"))
		return
	}
	if !h.registry.IsSupported(body.Adapter) {
		respond.Error(writer, request, apperr.ValidationError("unsupported adapter: "+body.Adapter))
		return
	}

	if err := h.registry.SwitchAdapter(request.Context(), body.Adapter, body.DatabaseURL); err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	snapshot := h.registry.Snapshot()
	respond.OK(writer, configResponse{
		Adapter:     snapshot.Adapter,
		DatabaseURL: redactPassword(snapshot.DatabaseURL),
		Status:      "connected",
	})
}

// adapterStatus describes one of the 13 known adapter tags in the
// /admin/adapters listing.
type adapterStatus struct {
	Name      string `json:"name"`
	Supported bool   `json:"supported"`
	Active    bool   `json:"active"`
}

// ListAdapters enumerates every known adapter tag with its supported/active
// flags.
func (h *Handler) ListAdapters(writer http.ResponseWriter, request *http.Request) {
	snapshot := h.registry.Snapshot()
	tags := h.registry.KnownAdapterTags()

	statuses := make([]adapterStatus, 0, len(tags))
	for _, tag := range tags {
		statuses = append(statuses, adapterStatus{
			Name:      tag,
			Supported: h.registry.IsSupported(tag),
			Active:    tag == snapshot.Adapter,
		})
	}
	respond.OK(writer, statuses)
}

// TestConnection performs a transient connectivity probe against
// (adapter, database_url) without touching the active handle.
func (h *Handler) TestConnection(writer http.ResponseWriter, request *http.Request) {
	var body configRequestBody
	defer request.Body.Close()
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		respond.Error(writer, request, apperr.ValidationError("request body must be {adapter, database_url}"))
		return
	}
	if body.Adapter == "" || body.DatabaseURL == "" {
		respond.Error(writer, request, apperr.ValidationError("adapter and database_url are required"))
		return
	}

	if err := h.registry.TestConnection(request.Context(), body.Adapter, body.DatabaseURL); err != nil {
		respond.Error(writer, request, apperr.ValidationError(err.Error()))
		return
	}

	respond.OK(writer, map[string]string{"status": "ok"})
}

// Seed replays the configured seed directory's YAML fixtures through the
// active adapter.
func (h *Handler) Seed(writer http.ResponseWriter, request *http.Request) {
	client, err := h.registry.EnsureClient(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	force := request.URL.Query().Get("force") == "true"
	summary, err := seed.Load(request.Context(), client, h.seedDir, force)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	respond.OK(writer, summary)
}
