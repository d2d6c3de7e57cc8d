// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/meridiandb/dbal/internal/platform/apperr"
	"github.com/meridiandb/dbal/internal/platform/constants"
	"github.com/meridiandb/dbal/internal/platform/respond"
)

// AdminAuth gates admin and schema-registry routes behind a single
// pre-configured bearer token (DBAL_ADMIN_TOKEN).
//
// # Flow
//
// Two gates, both must pass:
//  1. A token must actually be configured — an empty configuredToken means
//     the admin surface is disabled entirely, not "open to everyone".
//  2. The request's `Authorization: Bearer <token>` header must match it
//     exactly, compared in constant time.
//
// There is no per-user identity here; either the caller holds the shared
// secret or it doesn't.
func AdminAuth(configuredToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if configuredToken == "" {
				respond.Error(writer, request, apperr.Forbidden("admin surface is disabled"))
				return
			}

			header := request.Header.Get(constants.HeaderAuthorization)
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				respond.Error(writer, request, apperr.Unauthorized("missing or malformed admin bearer token"))
				return
			}

			presented := parts[1]
			if subtle.ConstantTimeCompare([]byte(presented), []byte(configuredToken)) != 1 {
				respond.Error(writer, request, apperr.Unauthorized("invalid admin bearer token"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
