// Package identity implements the request identity and the claims ("needs")
// it provides, plus a small event bus the host publishes identity lifecycle
// events on.
//
// An Identity is rebuilt for every request. Subscribers of the Loaded event
// restore claims kept in the session, subscribers of the Changed event derive
// fresh claims after a login.
package identity

import (
	"context"
	"sort"
)

const (
	// MethodID is the need method of a user claim.
	MethodID = "id"
	// MethodRole is the need method of a role claim.
	MethodRole = "role"
)

// Need is a single authorization claim held by an identity.
type Need struct {
	Method string `json:"method"`
	Value  string `json:"value"`
}

// UserNeed returns the claim identifying a single user.
func UserNeed(value string) Need {
	return Need{Method: MethodID, Value: value}
}

// RoleNeed returns the claim for a role.
func RoleNeed(value string) Need {
	return Need{Method: MethodRole, Value: value}
}

// Identity is the set of claims attached to the current request.
type Identity struct {
	// ID is the local user id, empty for anonymous identities.
	ID string
	// AuthType names the mechanism that authenticated the identity.
	AuthType string

	provides map[Need]struct{}
}

// New creates an identity for the given user id.
func New(id, authType string) *Identity {
	return &Identity{
		ID:       id,
		AuthType: authType,
		provides: make(map[Need]struct{}),
	}
}

// Anonymous creates an identity without a user.
func Anonymous() *Identity {
	return New("", "")
}

// IsAnonymous reports whether the identity has no user attached.
func (i *Identity) IsAnonymous() bool {
	return i.ID == ""
}

// Provide adds needs to the identity.
func (i *Identity) Provide(needs ...Need) {
	if i.provides == nil {
		i.provides = make(map[Need]struct{}, len(needs))
	}

	for _, n := range needs {
		i.provides[n] = struct{}{}
	}
}

// Revoke removes needs from the identity. Unknown needs are ignored.
func (i *Identity) Revoke(needs ...Need) {
	for _, n := range needs {
		delete(i.provides, n)
	}
}

// Can reports whether the identity provides the need.
func (i *Identity) Can(n Need) bool {
	_, ok := i.provides[n]
	return ok
}

// Provides returns the identity's needs sorted by method and value.
func (i *Identity) Provides() []Need {
	out := make([]Need, 0, len(i.provides))
	for n := range i.provides {
		out = append(out, n)
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Method != out[b].Method {
			return out[a].Method < out[b].Method
		}

		return out[a].Value < out[b].Value
	})

	return out
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying the identity.
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, or an anonymous one.
func FromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(ctxKey{}).(*Identity); ok && id != nil {
		return id
	}

	return Anonymous()
}
