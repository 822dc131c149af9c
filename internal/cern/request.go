package cern

import (
	"context"
	"net/http"

	"github.com/cernauth/cernauth/internal/db/models"
	"github.com/cernauth/cernauth/internal/identity"
)

// RoleCache stores the role claims derived for a session.
type RoleCache interface {
	// Provides returns the needs stored under key.
	Provides(key string) []identity.Need
	// SetProvides replaces the needs stored under key.
	SetProvides(key string, needs []identity.Need)
	// DeleteProvides removes key and returns what was stored.
	DeleteProvides(key string) []identity.Need
}

// Request is the request scoped state the hooks operate on.
type Request struct {
	// Session holds the role cache, may be nil for stateless callers.
	Session RoleCache
	// User is the logged-in local user, nil when anonymous.
	User *models.User
	// Remote is an authorized client for the resource API, nil when no token
	// is at hand.
	Remote *http.Client

	resource Resource
}

type requestKey struct{}

// NewContext returns a copy of ctx carrying req.
func NewContext(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

// RequestFromContext returns the request state stored in ctx.
func RequestFromContext(ctx context.Context) (*Request, bool) {
	req, ok := ctx.Value(requestKey{}).(*Request)

	return req, ok && req != nil
}

// authenticated reports whether a logged-in user is attached.
func (r *Request) authenticated() bool {
	return r.User.IsAuthenticated()
}

// popResource consumes the cached resource.
func (r *Request) popResource() (Resource, bool) {
	res := r.resource
	r.resource = nil

	return res, len(res) > 0
}

func (r *Request) cacheResource(res Resource) {
	r.resource = res
}
