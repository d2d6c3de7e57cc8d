// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dbalapi

import (
	"net/http"

	"github.com/meridiandb/dbal/internal/platform/constants"
	"github.com/meridiandb/dbal/internal/platform/respond"
)

// liveness answers /health and /healthz — the process is up, nothing more.
func liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

// metadata answers /version, /api/version, /status, /api/status with the
// same small payload — none of these distinguish daemon health from
// liveness; they exist for callers that probe one of the four by habit.
func metadata(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{
		constants.FieldApp:     constants.AppName,
		constants.FieldVersion: constants.AppVersion,
		constants.FieldStatus:  "ok",
	})
}
