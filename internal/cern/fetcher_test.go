package cern

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cernauth/cernauth/internal/db/models"
)

// newResourceServer serves claims on /api/Me and counts the calls.
func newResourceServer(t *testing.T, status int, claims []Claim) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/api/Me", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(claims)
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

func janeClaims() []Claim {
	return []Claim{
		{Type: DefaultResourceSchema + FieldEmail, Value: "Jane.Doe@CERN.ch"},
		{Type: DefaultResourceSchema + FieldUIDNumber, Value: "1001"},
		{Type: DefaultResourceSchema + FieldPersonID, Value: "42"},
		{Type: DefaultResourceSchema + FieldGroup, Value: "it-dep"},
		{Type: DefaultResourceSchema + FieldGroup, Value: "CERN Users"},
		{Type: DefaultResourceSchema + FieldGroup, Value: "Users by Letter J"},
		{Type: DefaultResourceSchema + FieldDepartment, Value: "IT/CDA"},
	}
}

func TestFetcherCachesWithinRequest(t *testing.T) {
	srv, hits := newResourceServer(t, http.StatusOK, janeClaims())

	cfg := Config{ResourceURL: srv.URL + "/api/Me"}.WithDefaults()
	dir := &stubDirectory{}
	f := NewFetcher(&cfg, dir)

	req := &Request{Remote: srv.Client()}

	first, err := f.Resource(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "1001", first.ExternalID())
	assert.Equal(t, int32(1), hits.Load())

	second, err := f.Resource(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load(), "second call must be served from the request cache")
	assert.Empty(t, dir.lookups)
}

func TestFetcherFallsBackToDirectory(t *testing.T) {
	srv, hits := newResourceServer(t, http.StatusUnauthorized, nil)

	cfg := Config{ResourceURL: srv.URL + "/api/Me"}.WithDefaults()
	dir := &stubDirectory{resource: Resource{FieldGroup: {"from-ldap"}}}
	f := NewFetcher(&cfg, dir)

	req := &Request{
		Remote: srv.Client(),
		User:   &models.User{ID: 7, Email: "jane.doe@cern.ch", Active: true},
	}

	got, err := f.Resource(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"from-ldap"}, got.Groups())
	assert.Equal(t, []string{"jane.doe@cern.ch"}, dir.lookups)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcherWithoutUserOrClient(t *testing.T) {
	cfg := Config{}.WithDefaults()
	f := NewFetcher(&cfg, &stubDirectory{})

	_, err := f.Resource(context.Background(), &Request{})
	require.ErrorIs(t, err, ErrNoResource)

	_, err = f.Resource(context.Background(), &Request{User: &models.User{ID: 1, Email: "x@cern.ch"}})
	require.ErrorIs(t, err, ErrNoResource, "inactive users are not authenticated")
}
