// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package list implements the collection query operation of the generic entity
route: query-string parsing for paging, filtering, and sorting, tenant-filter
injection, and the {data, total, page, limit} response envelope.

Unlike [pagination.FromRequest] (which silently clamps bad input to a
default — the right behavior for an internal admin surface), this package
treats a malformed limit/page/skip/offset value as a client error: the
generic entity route is a public data-access surface, so a caller who sends
"limit=abc" gets a ValidationError (422) telling them so, not a
silently-substituted default.
*/
package list

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
	"github.com/meridiandb/dbal/internal/dbal/route"
	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/internal/platform/respond"
)

const defaultLimit = 20

// Handler serves the collection-query operation.
type Handler struct{}

// NewHandler builds a [Handler].
func NewHandler() *Handler {
	return &Handler{}
}

// List parses the request's query string into [adapter.ListOptions], injects
// the route's tenant as an equality filter, and runs the query.
func (h *Handler) List(writer http.ResponseWriter, request *http.Request, client adapter.Adapter, rt route.Route) {
	opts, err := parseListOptions(request.URL.Query())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if rt.Tenant != "" {
		if opts.Filters == nil {
			opts.Filters = make(map[string]string)
		}
		opts.Filters["tenantId"] = rt.Tenant
	}

	result, err := client.List(request.Context(), rt.Entity, opts)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, listEnvelope{
		Success: true,
		Data:    result.Items,
		Total:   result.Total,
		Page:    opts.Page,
		Limit:   opts.Limit,
	})
}

// listEnvelope is the {data, total, page, limit} shape, distinct from
// [respond.PaginatedEnvelope] because the generic entity route reports total
// and page as top-level fields rather than nested under a "meta" object.
type listEnvelope struct {
	Success bool               `json:"success"`
	Data    []adapter.Document `json:"data"`
	Total   int                `json:"total"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
}

// parseListOptions builds [adapter.ListOptions] from a query string,
// rejecting non-numeric or non-positive values where the spec requires them.
func parseListOptions(q map[string][]string) (adapter.ListOptions, error) {
	opts := adapter.ListOptions{Page: 1, Limit: defaultLimit, Filters: map[string]string{}}

	limitRaw := firstOf(q, "limit", "take")
	if limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil || limit <= 0 {
			return opts, apperr.ValidationError("limit must be a positive integer")
		}
		opts.Limit = limit
	}

	pageRaw := firstOf(q, "page")
	skipRaw := firstOf(q, "skip", "offset")

	switch {
	case pageRaw != "":
		page, err := strconv.Atoi(pageRaw)
		if err != nil || page <= 0 {
			return opts, apperr.ValidationError("page must be a positive integer")
		}
		opts.Page = page

	case skipRaw != "":
		skip, err := strconv.Atoi(skipRaw)
		if err != nil || skip < 0 {
			return opts, apperr.ValidationError("skip/offset must be a non-negative integer")
		}
		opts.Page = skip/opts.Limit + 1
	}

	for key, values := range q {
		if len(values) == 0 {
			continue
		}
		if field, ok := stripPrefix(key, "filter."); ok {
			opts.Filters[field] = values[0]
		} else if field, ok := stripPrefix(key, "where."); ok {
			opts.Filters[field] = values[0]
		} else if field, ok := stripPrefix(key, "sort."); ok {
			key, err := sortKey(field, values[0])
			if err != nil {
				return opts, err
			}
			opts.Sort = append(opts.Sort, key)
		} else if field, ok := stripPrefix(key, "orderBy."); ok {
			key, err := sortKey(field, values[0])
			if err != nil {
				return opts, err
			}
			opts.Sort = append(opts.Sort, key)
		}
	}

	return opts, nil
}

func sortKey(field, direction string) (adapter.SortKey, error) {
	switch strings.ToLower(direction) {
	case "asc", "":
		return adapter.SortKey{Field: field, Direction: adapter.SortAscending}, nil
	case "desc":
		return adapter.SortKey{Field: field, Direction: adapter.SortDescending}, nil
	default:
		return adapter.SortKey{}, apperr.ValidationError("sort direction must be asc or desc")
	}
}

func stripPrefix(key, prefix string) (string, bool) {
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	field := strings.TrimPrefix(key, prefix)
	if field == "" {
		return "", false
	}
	return field, true
}

// firstOf returns the first non-empty value found under any of names.
func firstOf(q map[string][]string, names ...string) string {
	for _, name := range names {
		if values, ok := q[name]; ok && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
