// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package dbalapi wires together the HTTP router, middleware chain, and every
domain handler into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/dbal are allowed to import net/http server primitives.

Route registration relies on chi's trie matching literal path segments
before named wildcards: `/{tenant}/{package}/blob`, `/{tenant}/{package}/
_batch`, and `/{tenant}/{package}/{entity}/_bulk/{action}` are registered as
their own literal-segment routes, so a request for any of them never falls
through to the generic `/{tenant}/{package}/*` catch-all that backs the
schema-agnostic entity CRUD/list surface.
*/
package dbalapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/adapter/registry"
	"github.com/meridiandb/dbal/internal/dbal/blob"
	"github.com/meridiandb/dbal/internal/dbal/dispatch"
	"github.com/meridiandb/dbal/internal/dbal/handler/admin"
	"github.com/meridiandb/dbal/internal/dbal/handler/batch"
	"github.com/meridiandb/dbal/internal/dbal/handler/bulk"
	"github.com/meridiandb/dbal/internal/dbal/handler/crud"
	"github.com/meridiandb/dbal/internal/dbal/handler/list"
	"github.com/meridiandb/dbal/internal/dbal/handler/rpc"
	"github.com/meridiandb/dbal/internal/dbal/handler/schema"
	"github.com/meridiandb/dbal/internal/dbal/ratelimit"
	"github.com/meridiandb/dbal/internal/dbal/route"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/internal/platform/constants"
	"github.com/meridiandb/dbal/internal/platform/middleware"
	"github.com/meridiandb/dbal/internal/platform/respond"
)

// # Server Definition

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups every domain handler the router dispatches to.
type Handlers struct {
	Admin  *admin.Handler
	Schema *schema.Handler
	RPC    *rpc.Handler
	Blob   *blob.Handler

	CRUD  *crud.Handler
	List  *list.Handler
	Bulk  *bulk.Handler
	Batch *batch.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain, binds
// every route the external interface promises, and returns a [Server] ready
// for [Server.ListenAndServe].
func NewServer(cfg middleware.AppConfig, bindAddr string, log *slog.Logger, reg *registry.Registry, limiter *ratelimit.Limiter, adminToken string, h Handlers) *Server {
	rte := chi.NewRouter()

	// # Middleware Chain
	rte.Use(middleware.RequestID())
	rte.Use(middleware.StructuredLogger(log))
	rte.Use(middleware.PanicRecovery(log))
	rte.Use(middleware.CORS(cfg))

	s := &Server{router: rte, log: log}

	// # Infrastructure Endpoints — no rate limiting, no adapter.
	rte.Get("/health", liveness)
	rte.Get("/healthz", liveness)
	rte.Get("/version", metadata)
	rte.Get("/api/version", metadata)
	rte.Get("/status", metadata)
	rte.Get("/api/status", metadata)

	// # Legacy RPC (C14)
	rte.Post(constants.SegmentLegacyRPC, s.gated(limiter, ratelimit.ClassMutation, reg, func(w http.ResponseWriter, r *http.Request, client adapter.Adapter) {
		h.RPC.Handle(w, r, client)
	}))

	// # Ad-hoc filtered query — a read-only alternative entry point onto the
	// list handler for callers that would rather pass tenant/package/entity as
	// query parameters than path segments.
	rte.Get("/api/dbal/query", s.gated(limiter, ratelimit.ClassRead, reg, func(w http.ResponseWriter, r *http.Request, client adapter.Adapter) {
		q := r.URL.Query()
		rt := route.Parse(strings.Join([]string{q.Get("tenant"), q.Get("package"), q.Get("entity")}, "/"))
		if !rt.Valid {
			respond.Error(w, r, apperr.ValidationError(rt.Reason))
			return
		}
		h.List.List(w, r, client, rt)
	}))

	// # Schema registry (C13) — no adapter, read/write the schema packages dir directly.
	rte.Get("/api/dbal/schema", s.rateLimited(limiter, ratelimit.ClassAdmin, h.Schema.List))
	rte.Post("/api/dbal/schema", s.rateLimited(limiter, ratelimit.ClassAdmin, h.Schema.Dispatch))

	// # Admin (C12) — bearer-gated, admin rate-limit class.
	rte.Route("/admin", func(admin chi.Router) {
		admin.Use(middleware.AdminAuth(adminToken))
		admin.Get("/config", s.rateLimited(limiter, ratelimit.ClassAdmin, h.Admin.GetConfig))
		admin.Post("/config", s.rateLimited(limiter, ratelimit.ClassAdmin, h.Admin.SetConfig))
		admin.Get("/adapters", s.rateLimited(limiter, ratelimit.ClassAdmin, h.Admin.ListAdapters))
		admin.Post("/test-connection", s.rateLimited(limiter, ratelimit.ClassAdmin, h.Admin.TestConnection))
		admin.Post("/seed", s.rateLimited(limiter, ratelimit.ClassAdmin, h.Admin.Seed))
	})

	// # Blob façade (C11) — literal "blob" segment, checked by chi before
	// the generic entity wildcard below.
	blobBase := "/{tenant}/{package}/blob"
	rte.Get(blobBase, s.rateLimited(limiter, ratelimit.ClassRead, func(w http.ResponseWriter, r *http.Request) {
		tenant, pkg := chi.URLParam(r, "tenant"), chi.URLParam(r, "package")
		h.Blob.List(w, r, tenant, pkg)
	}))
	rte.Get(blobBase+"/_stats", s.rateLimited(limiter, ratelimit.ClassRead, func(w http.ResponseWriter, r *http.Request) {
		tenant, pkg := chi.URLParam(r, "tenant"), chi.URLParam(r, "package")
		h.Blob.Stats(w, r, tenant, pkg)
	}))
	rte.Get(blobBase+"/*", s.rateLimited(limiter, ratelimit.ClassRead, func(w http.ResponseWriter, r *http.Request) {
		tenant, pkg := chi.URLParam(r, "tenant"), chi.URLParam(r, "package")
		key, action := splitBlobAction(chi.URLParam(r, "*"))
		switch action {
		case "presign":
			h.Blob.Presign(w, r, tenant, pkg, key)
		case "":
			h.Blob.Get(w, r, tenant, pkg, key)
		default:
			respond.Error(w, r, apperr.NotFound("blob action "+action))
		}
	}))
	rte.Head(blobBase+"/*", s.rateLimited(limiter, ratelimit.ClassRead, func(w http.ResponseWriter, r *http.Request) {
		tenant, pkg := chi.URLParam(r, "tenant"), chi.URLParam(r, "package")
		h.Blob.Head(w, r, tenant, pkg, chi.URLParam(r, "*"))
	}))
	rte.Put(blobBase+"/*", s.rateLimited(limiter, ratelimit.ClassMutation, func(w http.ResponseWriter, r *http.Request) {
		tenant, pkg := chi.URLParam(r, "tenant"), chi.URLParam(r, "package")
		h.Blob.Put(w, r, tenant, pkg, chi.URLParam(r, "*"))
	}))
	rte.Delete(blobBase+"/*", s.rateLimited(limiter, ratelimit.ClassMutation, func(w http.ResponseWriter, r *http.Request) {
		tenant, pkg := chi.URLParam(r, "tenant"), chi.URLParam(r, "package")
		h.Blob.Delete(w, r, tenant, pkg, chi.URLParam(r, "*"))
	}))
	rte.Post(blobBase+"/*", s.rateLimited(limiter, ratelimit.ClassMutation, func(w http.ResponseWriter, r *http.Request) {
		tenant, pkg := chi.URLParam(r, "tenant"), chi.URLParam(r, "package")
		key, action := splitBlobAction(chi.URLParam(r, "*"))
		if action != "copy" {
			respond.Error(w, r, apperr.NotFound("blob action "+action))
			return
		}
		h.Blob.Copy(w, r, tenant, pkg, key)
	}))

	// # Single-entity bulk (part of C8/C9's surface, routed ahead of the
	// generic catch-all by the literal "_bulk" segment).
	rte.Post("/{tenant}/{package}/{entity}/_bulk/{action}", s.gated(limiter, ratelimit.ClassMutation, reg, func(w http.ResponseWriter, r *http.Request, client adapter.Adapter) {
		rt := route.Parse(strings.Join([]string{chi.URLParam(r, "tenant"), chi.URLParam(r, "package"), chi.URLParam(r, "entity")}, "/"))
		if !rt.Valid {
			respond.Error(w, r, apperr.ValidationError(rt.Reason))
			return
		}
		h.Bulk.Run(w, r, client, rt, bulk.Action(chi.URLParam(r, "action")))
	}))

	// # Multi-entity batch, same literal-segment precedence as bulk.
	rte.Post("/{tenant}/{package}/_batch", s.gated(limiter, ratelimit.ClassMutation, reg, func(w http.ResponseWriter, r *http.Request, client adapter.Adapter) {
		rt := route.Parse(strings.Join([]string{chi.URLParam(r, "tenant"), chi.URLParam(r, "package"), constants.BatchSegment}, "/"))
		if !rt.Valid {
			respond.Error(w, r, apperr.ValidationError(rt.Reason))
			return
		}
		h.Batch.Run(w, r, client, rt)
	}))

	// # Generic entity CRUD/list (C8, C9, C16) — everything else under
	// /{tenant}/{package}/... falls through to this catch-all.
	// Registered for every method (not just GET/POST/PUT/PATCH/DELETE) so
	// an unsupported method — e.g. TRACE — reaches [dispatch.Resolve] and
	// produces its documented envelope-free 405, rather than chi's own
	// generic method-not-allowed response.
	rte.HandleFunc("/{tenant}/{package}/*", s.entityDispatch(limiter, reg, h))

	s.httpServer = &http.Server{
		Addr:              bindAddr,
		Handler:           rte,
		ReadTimeout:       constants.DefaultReadTimeout,
		WriteTimeout:      constants.DefaultWriteTimeout,
		IdleTimeout:       constants.DefaultIdleTimeout,
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
	}
	return s
}

// entityDispatch builds the single handler backing every method registered
// against the generic entity catch-all. It reassembles the full
// tenant/package/entity[/id[/action]] path from chi's params and hands it to
// [route.Parse], then [dispatch.Resolve] to pick the CRUD/list operation.
func (s *Server) entityDispatch(limiter *ratelimit.Limiter, reg *registry.Registry, h Handlers) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		class := ratelimit.ClassMutation
		if request.Method == http.MethodGet || request.Method == http.MethodHead {
			class = ratelimit.ClassRead
		}
		if !allow(writer, request, limiter, class) {
			return
		}

		tenant, pkg := chi.URLParam(request, "tenant"), chi.URLParam(request, "package")
		tail := chi.URLParam(request, "*")

		rt := route.Parse(strings.Join([]string{tenant, pkg, tail}, "/"))
		if !rt.Valid {
			respond.Error(writer, request, apperr.ValidationError(rt.Reason))
			return
		}

		op, err := dispatch.Resolve(request.Method, rt)
		if err != nil {
			writeDispatchError(writer, request, err)
			return
		}

		client, err := reg.EnsureClient(request.Context())
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		switch op {
		case dispatch.OpList:
			h.List.List(writer, request, client, rt)
		case dispatch.OpRead:
			h.CRUD.Read(writer, request, client, rt)
		case dispatch.OpCreate:
			h.CRUD.Create(writer, request, client, rt)
		case dispatch.OpUpdate:
			h.CRUD.Update(writer, request, client, rt)
		case dispatch.OpDelete:
			h.CRUD.Delete(writer, request, client, rt)
		}
	}
}

// writeDispatchError writes a [dispatch.Resolve] error. A 405 from
// [dispatch.Resolve] is, by its own doc comment, never wrapped in the JSON
// envelope — every other error goes through [respond.Error] as usual.
func writeDispatchError(writer http.ResponseWriter, request *http.Request, err error) {
	if appErr := apperr.As(err); appErr != nil && appErr.HTTPStatus == http.StatusMethodNotAllowed {
		http.Error(writer, appErr.Message, http.StatusMethodNotAllowed)
		return
	}
	respond.Error(writer, request, err)
}

// splitBlobAction splits a blob wildcard tail into (key, action), where
// action is only ever the reserved "presign" or "copy" suffix and is empty
// for a plain key. A key that itself ends in "presign" or "copy" is
// indistinguishable from the reserved action — the same ambiguity the route
// catalog documents for `_stats`.
func splitBlobAction(tail string) (key, action string) {
	idx := strings.LastIndex(tail, "/")
	last := tail
	if idx >= 0 {
		last = tail[idx+1:]
	}
	switch last {
	case "presign", "copy":
		if idx < 0 {
			return "", last
		}
		return tail[:idx], last
	default:
		return tail, ""
	}
}

// # Rate-Limit & Adapter Gating

// allow checks clientIP against class's ceiling, writing a RateLimited
// response (with Retry-After) and returning false on denial.
func allow(writer http.ResponseWriter, request *http.Request, limiter *ratelimit.Limiter, class ratelimit.Class) bool {
	ip := middleware.RealIP(request)
	allowed, retryAfter := limiter.Allow(class, ip)
	if !allowed {
		writer.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfter))
		respond.Error(writer, request, apperr.RateLimited(retryAfter))
		return false
	}
	return true
}

// rateLimited wraps next with class's rate-limit gate; it never touches the
// adapter registry.
func (s *Server) rateLimited(limiter *ratelimit.Limiter, class ratelimit.Class, next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if !allow(writer, request, limiter, class) {
			return
		}
		next(writer, request)
	}
}

// gated wraps next with class's rate-limit gate followed by ensureClient(),
// handing the resolved adapter to next — the two-step chain §4.15 describes
// for every handler that touches storage.
func (s *Server) gated(limiter *ratelimit.Limiter, class ratelimit.Class, reg *registry.Registry, next func(http.ResponseWriter, *http.Request, adapter.Adapter)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if !allow(writer, request, limiter, class) {
			return
		}
		client, err := reg.EnsureClient(request.Context())
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		next(writer, request, client)
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server. It blocks until the server is
// closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting up to timeout for in-flight
// requests to complete.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
