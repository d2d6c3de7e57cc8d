// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package dispatch maps an HTTP method plus a parsed [route.Route] onto one of
the five generic entity operations (list, read, create, update, delete).

It is deliberately the only place that encodes this table — the router calls
[Resolve] once per request and fans out to the crud/list handlers, instead of
every handler re-deriving "do I have an id" logic of its own.
*/
package dispatch

import (
	"net/http"

	"github.com/meridiandb/dbal/internal/dbal/route"
	"github.com/meridiandb/dbal/internal/platform/apperr"
)

// Operation is one of the five generic entity operations.
type Operation string

const (
	OpList   Operation = "list"
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Resolve derives the Operation for a request against the generic entity
// route. A non-empty r.Action means the caller hit a custom entity action —
// those are not wired by this service, so it is reported as a 404 rather
// than silently falling through to CRUD dispatch.
func Resolve(method string, r route.Route) (Operation, error) {
	if r.Action != "" {
		return "", apperr.NotFound("entity action " + r.Action)
	}

	hasID := r.ID != ""

	switch method {
	case http.MethodGet:
		if hasID {
			return OpRead, nil
		}
		return OpList, nil

	case http.MethodPost:
		if hasID {
			return "", apperr.ValidationError("POST does not take an id in the path; use PUT or PATCH to update")
		}
		return OpCreate, nil

	case http.MethodPut, http.MethodPatch:
		return OpUpdate, nil

	case http.MethodDelete:
		return OpDelete, nil

	default:
		return "", methodNotAllowed(method)
	}
}

// methodNotAllowed reports an HTTP method this service never accepts on the
// generic entity route. There is no dedicated apperr code for 405, so this
// is built directly rather than routed through the closed Code set — it
// never reaches a client as anything but a plain text/status response (see
// internal/dbalapi, which writes it without the JSON envelope).
func methodNotAllowed(method string) error {
	return &apperr.AppError{
		Code:       apperr.CodeValidationError,
		Message:    method + " is not supported on this route",
		HTTPStatus: http.StatusMethodNotAllowed,
	}
}
