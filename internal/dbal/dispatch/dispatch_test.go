package dispatch

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridiandb/dbal/internal/dbal/route"
	"github.com/meridiandb/dbal/internal/platform/apperr"
)

func TestResolve_GetWithoutIDIsList(t *testing.T) {
	op, err := Resolve(http.MethodGet, route.Route{Entity: "invoice"})
	assert.NoError(t, err)
	assert.Equal(t, OpList, op)
}

func TestResolve_GetWithIDIsRead(t *testing.T) {
	op, err := Resolve(http.MethodGet, route.Route{Entity: "invoice", ID: "123"})
	assert.NoError(t, err)
	assert.Equal(t, OpRead, op)
}

func TestResolve_PostWithoutIDIsCreate(t *testing.T) {
	op, err := Resolve(http.MethodPost, route.Route{Entity: "invoice"})
	assert.NoError(t, err)
	assert.Equal(t, OpCreate, op)
}

func TestResolve_PostWithIDIsValidationError(t *testing.T) {
	_, err := Resolve(http.MethodPost, route.Route{Entity: "invoice", ID: "123"})
	assert.Error(t, err)
}

func TestResolve_PutIsUpdate(t *testing.T) {
	op, err := Resolve(http.MethodPut, route.Route{Entity: "invoice", ID: "123"})
	assert.NoError(t, err)
	assert.Equal(t, OpUpdate, op)
}

func TestResolve_PatchIsUpdate(t *testing.T) {
	op, err := Resolve(http.MethodPatch, route.Route{Entity: "invoice", ID: "123"})
	assert.NoError(t, err)
	assert.Equal(t, OpUpdate, op)
}

func TestResolve_DeleteIsDelete(t *testing.T) {
	op, err := Resolve(http.MethodDelete, route.Route{Entity: "invoice", ID: "123"})
	assert.NoError(t, err)
	assert.Equal(t, OpDelete, op)
}

func TestResolve_UnknownMethodIsMethodNotAllowed(t *testing.T) {
	_, err := Resolve(http.MethodHead, route.Route{Entity: "invoice"})
	assert.Error(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, apperr.As(err).HTTPStatus)
}

func TestResolve_NonEmptyActionIsNotFound(t *testing.T) {
	_, err := Resolve(http.MethodGet, route.Route{Entity: "invoice", ID: "123", Action: "export"})
	assert.Error(t, err)
}
