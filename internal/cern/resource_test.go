package cern

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClaims(t *testing.T) {
	claims := []Claim{
		{Type: DefaultResourceSchema + "Group", Value: "admins"},
		{Type: DefaultResourceSchema + "Group", Value: "users"},
		{Type: DefaultResourceSchema + "EmailAddress", Value: "Jane.Doe@cern.ch"},
	}

	got := NormalizeClaims(http.StatusOK, claims, DefaultResourceSchema)

	assert.Equal(t, Resource{
		"Group":        {"admins", "users"},
		"EmailAddress": {"Jane.Doe@cern.ch"},
	}, got)
	assert.Equal(t, []string{"admins", "users"}, got.Groups())
	assert.Equal(t, "Jane.Doe@cern.ch", got.Email())
}

func TestNormalizeClaimsErrorStatus(t *testing.T) {
	got := NormalizeClaims(http.StatusInternalServerError, []Claim{{Type: "Group", Value: "x"}}, DefaultResourceSchema)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestResourceExternalID(t *testing.T) {
	assert.Equal(t, "1001", Resource{FieldUIDNumber: {"1001"}, FieldPersonID: {"42"}}.ExternalID())
	assert.Equal(t, "42", Resource{FieldPersonID: {"42"}}.ExternalID())
	assert.Equal(t, "42", Resource{FieldUIDNumber: {""}, FieldPersonID: {"42"}}.ExternalID())
	assert.Empty(t, Resource{}.ExternalID())
}

func TestDefaultExtraData(t *testing.T) {
	got := DefaultExtraData(Resource{
		FieldPersonID:      {"42"},
		FieldIdentityClass: {"CERN Staff"},
	})

	assert.Equal(t, map[string]any{
		"person_id":      "42",
		"identity_class": "CERN Staff",
		"department":     nil,
	}, got)
}
