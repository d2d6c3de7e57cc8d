// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package bulk implements the single-entity transactional bulk operation,
`/{tenant}/{package}/{entity}/_bulk/{create|update|delete}`: a JSON array of
elements applied all-or-nothing inside one [adapter.Transaction].

The first element that fails rolls the whole transaction back and reports
the offending index — no partial application is ever visible to a reader,
subject to the active adapter's own transactional guarantees.
*/
package bulk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/handler/tenantutil"
	"github.com/meridiandb/dbal/internal/dbal/route"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/internal/platform/respond"
)

// Handler serves the single-entity bulk operations.
type Handler struct{}

// NewHandler builds a [Handler].
func NewHandler() *Handler {
	return &Handler{}
}

// Action is one of the three bulk verbs named in the route's last segment.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// bulkUpdateElement is the {id, data} shape a bulk update array element must
// take.
type bulkUpdateElement struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Run decodes the request body as a JSON array and applies action to every
// element inside one transaction.
func (h *Handler) Run(writer http.ResponseWriter, request *http.Request, client adapter.Adapter, rt route.Route, action Action) {
	switch action {
	case ActionCreate, ActionUpdate, ActionDelete:
	default:
		respond.Error(writer, request, apperr.ValidationError("unknown bulk action: "+string(action)))
		return
	}

	var raw []json.RawMessage
	if err := decodeArray(request, &raw); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if len(raw) == 0 {
		respond.Error(writer, request, apperr.ValidationError("bulk body must be a non-empty JSON array"))
		return
	}

	ctx := request.Context()
	tx, err := client.BeginTransaction(ctx)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(fmt.Errorf("bulk: begin transaction: %w", err)))
		return
	}

	results, applyErr := applyAll(ctx, tx, rt, action, raw)
	if applyErr != nil {
		_ = tx.Rollback(ctx)
		respond.Error(writer, request, applyErr)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		respond.Error(writer, request, apperr.Internal(fmt.Errorf("bulk: commit transaction: %w", err)))
		return
	}

	respond.OK(writer, bulkResponse{Count: len(results), Results: results})
}

type bulkResponse struct {
	Count   int           `json:"count"`
	Results []interface{} `json:"results"`
}

// applyAll runs action against every raw element in order, stopping and
// reporting a ValidationError citing the index of the first failure.
func applyAll(ctx context.Context, tx adapter.Transaction, rt route.Route, action Action, raw []json.RawMessage) ([]interface{}, error) {
	results := make([]interface{}, 0, len(raw))

	for i, element := range raw {
		result, err := applyOne(ctx, tx, rt, action, element)
		if err != nil {
			return nil, apperr.ValidationError(fmt.Sprintf("element %d: %s", i, err.Error()))
		}
		results = append(results, result)
	}

	return results, nil
}

func applyOne(ctx context.Context, tx adapter.Transaction, rt route.Route, action Action, raw json.RawMessage) (interface{}, error) {
	switch action {
	case ActionCreate:
		doc := adapter.Document{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("must be a JSON object")
		}
		doc = tenantutil.Inject(doc, rt.Tenant)
		return tx.Create(ctx, rt.Entity, doc)

	case ActionUpdate:
		var el bulkUpdateElement
		if err := json.Unmarshal(raw, &el); err != nil {
			return nil, fmt.Errorf("must be an object with id and data")
		}
		if el.ID == "" {
			return nil, fmt.Errorf("id must not be empty")
		}
		if len(el.Data) == 0 {
			return nil, fmt.Errorf("data must not be empty")
		}
		doc := adapter.Document{}
		if err := json.Unmarshal(el.Data, &doc); err != nil {
			return nil, fmt.Errorf("data must be a JSON object")
		}
		return tx.Update(ctx, rt.Entity, el.ID, doc)

	case ActionDelete:
		var id string
		if err := json.Unmarshal(raw, &id); err != nil || id == "" {
			return nil, fmt.Errorf("must be a non-empty string id")
		}
		if err := tx.Remove(ctx, rt.Entity, id); err != nil {
			return nil, err
		}
		return id, nil
	}

	return nil, fmt.Errorf("unreachable")
}

// decodeArray parses the request body into dst, reporting a ValidationError
// for an empty or non-array body rather than letting json.Decode's generic
// message through.
func decodeArray(request *http.Request, dst *[]json.RawMessage) error {
	defer request.Body.Close()

	if request.ContentLength == 0 {
		return apperr.ValidationError("bulk body must be a non-empty JSON array")
	}

	if err := json.NewDecoder(request.Body).Decode(dst); err != nil {
		return apperr.ValidationError("bulk body must be a JSON array: " + err.Error())
	}
	return nil
}
