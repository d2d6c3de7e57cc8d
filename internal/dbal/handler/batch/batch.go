// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package batch implements the multi-entity transactional batch operation,
`/{tenant}/{package}/_batch`: a single request mixing create/update/delete
operations across different entities of the same {tenant, package}, applied
all-or-nothing inside one [adapter.Transaction].

It mirrors bulk's lifecycle exactly (see internal/dbal/handler/bulk) but
every element names its own entity and action, and a failure is reported
with both the offending index and entity.
*/
package batch

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

// Handler serves the multi-entity batch operation.
type Handler struct{}

// NewHandler builds a [Handler].
func NewHandler() *Handler {
	return &Handler{}
}

// operation is one element of the batch request body.
type operation struct {
	Action string          `json:"action"`
	Entity string          `json:"entity"`
	ID     string          `json:"id"`
	Data   json.RawMessage `json:"data"`
}

// requestBody is the {"operations": [...]} shape the batch route accepts.
type requestBody struct {
	Operations []operation `json:"operations"`
}

// operationResult preserves request order and echoes back action/entity/id
// so the caller can correlate each result to the operation that produced it.
type operationResult struct {
	Action string      `json:"action"`
	Entity string      `json:"entity"`
	ID     string      `json:"id,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// Run decodes the batch request body and applies every operation inside one
// transaction, in order.
func (h *Handler) Run(writer http.ResponseWriter, request *http.Request, client adapter.Adapter, rt route.Route) {
	body, err := decodeBody(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if len(body.Operations) == 0 {
		respond.Error(writer, request, apperr.ValidationError("operations must be a non-empty array"))
		return
	}

	for i, op := range body.Operations {
		if err := validateOperation(op); err != nil {
			respond.Error(writer, request, apperr.ValidationError(fmt.Sprintf("operation %d (%s): %s", i, op.Entity, err.Error())))
			return
		}
	}

	ctx := request.Context()
	tx, err := client.BeginTransaction(ctx)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(fmt.Errorf("batch: begin transaction: %w", err)))
		return
	}

	results, applyErr := applyAll(ctx, tx, rt, body.Operations)
	if applyErr != nil {
		_ = tx.Rollback(ctx)
		respond.Error(writer, request, applyErr)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		respond.Error(writer, request, apperr.Internal(fmt.Errorf("batch: commit transaction: %w", err)))
		return
	}

	respond.OK(writer, batchResponse{Count: len(results), Results: results})
}

type batchResponse struct {
	Count   int               `json:"count"`
	Results []operationResult `json:"results"`
}

func validateOperation(op operation) error {
	if op.Action == "" || op.Entity == "" {
		return fmt.Errorf("action and entity are required")
	}

	switch op.Action {
	case "create":
		if len(op.Data) == 0 {
			return fmt.Errorf("create requires a data object")
		}
	case "update":
		if op.ID == "" {
			return fmt.Errorf("update requires a non-empty id")
		}
		if len(op.Data) == 0 {
			return fmt.Errorf("update requires a data object")
		}
	case "delete":
		if op.ID == "" {
			return fmt.Errorf("delete requires a non-empty id")
		}
	default:
		return fmt.Errorf("unknown action: %s", op.Action)
	}
	return nil
}

func applyAll(ctx context.Context, tx adapter.Transaction, rt route.Route, operations []operation) ([]operationResult, error) {
	results := make([]operationResult, 0, len(operations))

	for i, op := range operations {
		result, err := applyOne(ctx, tx, rt, op)
		if err != nil {
			return nil, apperr.ValidationError(fmt.Sprintf("operation %d (%s): %s", i, op.Entity, err.Error()))
		}
		results = append(results, result)
	}

	return results, nil
}

func applyOne(ctx context.Context, tx adapter.Transaction, rt route.Route, op operation) (operationResult, error) {
	switch op.Action {
	case "create":
		doc := adapter.Document{}
		if err := json.Unmarshal(op.Data, &doc); err != nil {
			return operationResult{}, fmt.Errorf("data must be a JSON object")
		}
		doc = tenantutil.Inject(doc, rt.Tenant)
		created, err := tx.Create(ctx, op.Entity, doc)
		if err != nil {
			return operationResult{}, err
		}
		return operationResult{Action: op.Action, Entity: op.Entity, Data: created}, nil

	case "update":
		doc := adapter.Document{}
		if err := json.Unmarshal(op.Data, &doc); err != nil {
			return operationResult{}, fmt.Errorf("data must be a JSON object")
		}
		updated, err := tx.Update(ctx, op.Entity, op.ID, doc)
		if err != nil {
			return operationResult{}, err
		}
		return operationResult{Action: op.Action, Entity: op.Entity, ID: op.ID, Data: updated}, nil

	case "delete":
		if err := tx.Remove(ctx, op.Entity, op.ID); err != nil {
			return operationResult{}, err
		}
		return operationResult{Action: op.Action, Entity: op.Entity, ID: op.ID}, nil
	}

	return operationResult{}, fmt.Errorf("unreachable")
}

func decodeBody(request *http.Request) (requestBody, error) {
	defer request.Body.Close()

	var body requestBody
	if request.ContentLength == 0 {
		return body, apperr.ValidationError("operations must be a non-empty array")
	}
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		return body, apperr.ValidationError("request body must be {\"operations\": [...]}: " + err.Error())
	}
	return body, nil
}
