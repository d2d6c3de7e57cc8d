package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_ValidEntityPath(t *testing.T) {
	r := Parse("/acme/billing/invoices")

	assert.True(t, r.Valid)
	assert.Equal(t, "acme", r.Tenant)
	assert.Equal(t, "billing", r.Package)
	assert.Equal(t, "invoices", r.Entity)
	assert.Empty(t, r.ID)
	assert.Empty(t, r.Action)
}

func TestParse_WithIDAndAction(t *testing.T) {
	r := Parse("acme/billing/invoices/inv_123/void")

	assert.True(t, r.Valid)
	assert.Equal(t, "inv_123", r.ID)
	assert.Equal(t, "void", r.Action)
}

func TestParse_ExtraArgsBeyondAction(t *testing.T) {
	r := Parse("acme/billing/invoices/inv_123/void/extra/segments")

	assert.True(t, r.Valid)
	assert.Equal(t, []string{"extra", "segments"}, r.ExtraArgs)
}

func TestParse_TooFewSegments(t *testing.T) {
	r := Parse("/acme/billing")

	assert.False(t, r.Valid)
	assert.NotEmpty(t, r.Reason)
}

func TestParse_RejectsBadCharset(t *testing.T) {
	cases := []string{
		"/acme-co/billing/invoices",
		"/acme/billing.v2/invoices",
		"/acme/billing/invoices!",
	}
	for _, p := range cases {
		r := Parse(p)
		assert.False(t, r.Valid, "expected %q to be invalid", p)
	}
}

func TestParse_RejectsReservedTenant(t *testing.T) {
	r := Parse("/invalid/billing/invoices")

	assert.False(t, r.Valid)
	assert.Contains(t, r.Reason, "reserved")
}

func TestParse_CollapsesDoubleSlashes(t *testing.T) {
	r := Parse("//acme//billing//invoices//")

	assert.True(t, r.Valid)
	assert.Equal(t, "acme", r.Tenant)
	assert.Equal(t, "invoices", r.Entity)
}
