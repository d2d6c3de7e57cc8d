package tenantutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridiandb/dbal/internal/dbal/adapter"
)

func TestInject_SetsTenantWhenAbsent(t *testing.T) {
	doc := adapter.Document{"name": "widget"}
	Inject(doc, "acme")
	assert.Equal(t, "acme", doc["tenantId"])
}

func TestInject_NeverOverwritesExplicitTenant(t *testing.T) {
	doc := adapter.Document{"tenantId": "other-tenant"}
	Inject(doc, "acme")
	assert.Equal(t, "other-tenant", doc["tenantId"])
}

func TestInject_NoopWhenRouteTenantEmpty(t *testing.T) {
	doc := adapter.Document{"name": "widget"}
	Inject(doc, "")
	_, present := doc["tenantId"]
	assert.False(t, present)
}

func TestBelongsToTenant_MatchingTenantVisible(t *testing.T) {
	doc := adapter.Document{"tenantId": "acme"}
	assert.True(t, BelongsToTenant(doc, "acme"))
}

func TestBelongsToTenant_MismatchedTenantHidden(t *testing.T) {
	doc := adapter.Document{"tenantId": "other"}
	assert.False(t, BelongsToTenant(doc, "acme"))
}

func TestBelongsToTenant_UntenantedDocumentAlwaysVisible(t *testing.T) {
	doc := adapter.Document{"name": "widget"}
	assert.True(t, BelongsToTenant(doc, "acme"))
}

func TestBelongsToTenant_EmptyRouteTenantSeesEverything(t *testing.T) {
	doc := adapter.Document{"tenantId": "acme"}
	assert.True(t, BelongsToTenant(doc, ""))
}
