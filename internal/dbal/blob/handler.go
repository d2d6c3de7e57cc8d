// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/internal/platform/constants"
	"github.com/meridiandb/dbal/internal/platform/ctxutil"
	"github.com/meridiandb/dbal/internal/platform/respond"
)

const (
	headerBlobOverwrite = "X-Blob-Overwrite"
	headerBlobMetadata  = "X-Blob-Metadata"
	defaultPresignTTL   = 3600 * time.Second
	defaultMaxKeys      = 1000
)

// Handler serves the blob façade's HTTP surface over whichever [Backend] is
// configured for the process lifetime.
type Handler struct {
	backend Backend
}

// NewHandler builds a [Handler] over backend.
func NewHandler(backend Backend) *Handler {
	return &Handler{backend: backend}
}

// blobErrorBody is the blob façade's error shape: {error: {code, message}},
// with no success key. This surface never adopted the ambient envelope
// [respond.ErrorEnvelope] uses for every other handler.
type blobErrorBody struct {
	Error struct {
		Code    apperr.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

// writeBlobError writes err in the blob façade's distinct shape.
func writeBlobError(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	if appError.HTTPStatus >= 500 {
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", string(appError.Code)),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	body := blobErrorBody{}
	body.Error.Code = appError.Code
	body.Error.Message = appError.Message
	respond.JSON(writer, appError.HTTPStatus, body)
}

// Put uploads the request body as key's content.
func (h *Handler) Put(writer http.ResponseWriter, request *http.Request, tenant, pkg, key string) {
	defer request.Body.Close()

	overwrite := request.Header.Get(headerBlobOverwrite) != "false"
	metadata, err := parseMetadataHeader(request.Header.Get(headerBlobMetadata))
	if err != nil {
		writeBlobError(writer, request, err)
		return
	}

	contentType := request.Header.Get("Content-Type")
	meta, err := h.backend.Put(request.Context(), Namespace(tenant, pkg, key), request.Body, contentType, overwrite, metadata)
	if err != nil {
		writeBlobError(writer, request, err)
		return
	}
	meta.Key = key
	respond.Created(writer, meta)
}

// Get streams key's content back to the caller.
func (h *Handler) Get(writer http.ResponseWriter, request *http.Request, tenant, pkg, key string) {
	body, meta, err := h.backend.Get(request.Context(), Namespace(tenant, pkg, key))
	if err != nil {
		writeBlobError(writer, request, err)
		return
	}
	defer body.Close()

	writer.Header().Set("Content-Type", meta.ContentType)
	writer.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	writer.Header().Set("ETag", meta.ETag)
	writer.Header().Set("Server", constants.AppName+"/"+constants.AppVersion)
	writer.WriteHeader(http.StatusOK)
	_, _ = io.Copy(writer, body)
}

// Delete removes key.
func (h *Handler) Delete(writer http.ResponseWriter, request *http.Request, tenant, pkg, key string) {
	if err := h.backend.Delete(request.Context(), Namespace(tenant, pkg, key)); err != nil {
		writeBlobError(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// Head returns key's metadata without its body.
func (h *Handler) Head(writer http.ResponseWriter, request *http.Request, tenant, pkg, key string) {
	meta, err := h.backend.Head(request.Context(), Namespace(tenant, pkg, key))
	if err != nil {
		writeBlobError(writer, request, err)
		return
	}

	encodedMeta, _ := json.Marshal(meta.Metadata)
	writer.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	writer.Header().Set("Content-Type", meta.ContentType)
	writer.Header().Set("ETag", meta.ETag)
	writer.Header().Set("Last-Modified", meta.LastModified.UTC().Format(http.TimeFormat))
	writer.Header().Set(headerBlobMetadata, string(encodedMeta))
	writer.Header().Set("Server", constants.AppName+"/"+constants.AppVersion)
	writer.WriteHeader(http.StatusOK)
}

// List enumerates keys under the caller's namespace, stripping the
// tenant/package prefix back off before returning them.
func (h *Handler) List(writer http.ResponseWriter, request *http.Request, tenant, pkg string) {
	q := request.URL.Query()
	userPrefix := q.Get("prefix")
	continuationToken := q.Get("continuationToken")

	maxKeys := defaultMaxKeys
	if raw := q.Get("maxKeys"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeBlobError(writer, request, apperr.ValidationError("maxKeys must be a positive integer"))
			return
		}
		maxKeys = parsed
	}

	result, err := h.backend.List(request.Context(), Namespace(tenant, pkg, userPrefix), continuationToken, maxKeys)
	if err != nil {
		writeBlobError(writer, request, err)
		return
	}

	for i := range result.Objects {
		result.Objects[i].Key = StripNamespace(tenant, pkg, result.Objects[i].Key)
	}
	respond.OK(writer, result)
}

// Stats returns the aggregate size/count across the caller's namespace.
func (h *Handler) Stats(writer http.ResponseWriter, request *http.Request, tenant, pkg string) {
	stats, err := h.backend.Stats(request.Context(), Namespace(tenant, pkg, ""))
	if err != nil {
		writeBlobError(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

// Presign returns a time-limited download URL for key.
func (h *Handler) Presign(writer http.ResponseWriter, request *http.Request, tenant, pkg, key string) {
	expires := defaultPresignTTL
	if raw := request.URL.Query().Get("expires"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			writeBlobError(writer, request, apperr.ValidationError("expires must be a positive integer number of seconds"))
			return
		}
		expires = time.Duration(seconds) * time.Second
	}

	url, err := h.backend.Presign(request.Context(), Namespace(tenant, pkg, key), expires)
	if err != nil {
		writeBlobError(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"url": url})
}

// copyRequestBody is the body shape for the copy endpoint.
type copyRequestBody struct {
	DestKey string `json:"destKey"`
}

// Copy duplicates key to body.destKey within the same {tenant, package}.
func (h *Handler) Copy(writer http.ResponseWriter, request *http.Request, tenant, pkg, key string) {
	defer request.Body.Close()

	var body copyRequestBody
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil || body.DestKey == "" {
		writeBlobError(writer, request, apperr.ValidationError("destKey is required"))
		return
	}

	meta, err := h.backend.Copy(request.Context(), Namespace(tenant, pkg, key), Namespace(tenant, pkg, body.DestKey))
	if err != nil {
		writeBlobError(writer, request, err)
		return
	}
	meta.Key = body.DestKey
	respond.OK(writer, meta)
}

func parseMetadataHeader(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, apperr.ValidationError("X-Blob-Metadata must be a JSON object")
	}
	return metadata, nil
}
