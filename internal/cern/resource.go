package cern

import (
	"net/http"
	"strings"
)

// Resource field names, as returned by the resource API once the schema prefix is stripped.
const (
	FieldEmail         = "EmailAddress"
	FieldGroup         = "Group"
	FieldPersonID      = "PersonID"
	FieldUIDNumber     = "uidNumber"
	FieldCommonName    = "CommonName"
	FieldDisplayName   = "DisplayName"
	FieldFirstname     = "Firstname"
	FieldLastname      = "Lastname"
	FieldDepartment    = "Department"
	FieldBuilding      = "Building"
	FieldIdentityClass = "IdentityClass"
	FieldHomeInstitute = "HomeInstitute"
)

// Resource is the canonical record of a user's upstream profile. Every field is
// multi-valued, the first value is the scalar one.
type Resource map[string][]string

// Claim is a single entry of the resource API response.
type Claim struct {
	Type  string `json:"Type"`
	Value string `json:"Value"`
}

// First returns the first value of key, or "" when absent.
func (r Resource) First(key string) string {
	if v := r[key]; len(v) > 0 {
		return v[0]
	}

	return ""
}

// Groups returns the raw, unfiltered group list.
func (r Resource) Groups() []string {
	return r[FieldGroup]
}

// Email returns the primary email address.
func (r Resource) Email() string {
	return r.First(FieldEmail)
}

// ExternalID returns the uidNumber, falling back to the person id.
func (r Resource) ExternalID() string {
	if id := r.First(FieldUIDNumber); id != "" {
		return id
	}

	return r.First(FieldPersonID)
}

// NormalizeClaims groups claim values by type with the schema prefix stripped.
// Error responses (status above 400) yield an empty resource.
func NormalizeClaims(status int, claims []Claim, schema string) Resource {
	out := Resource{}
	if status > http.StatusBadRequest {
		return out
	}

	for _, c := range claims {
		k := strings.TrimPrefix(c.Type, schema)
		out[k] = append(out[k], c.Value)
	}

	return out
}

// DefaultExtraData is the default ExtraDataSerializer.
func DefaultExtraData(r Resource) map[string]any {
	return map[string]any{
		"person_id":      nullable(r.First(FieldPersonID)),
		"identity_class": nullable(r.First(FieldIdentityClass)),
		"department":     nullable(r.First(FieldDepartment)),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}

	return s
}
