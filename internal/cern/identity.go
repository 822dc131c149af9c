package cern

import (
	"sort"
	"strings"

	"github.com/cernauth/cernauth/internal/identity"
)

// RoleClaim returns the role claim of group in domain.
func RoleClaim(group, domain string) identity.Need {
	return identity.RoleNeed(strings.ToLower(group) + "@" + domain)
}

// ExtendIdentity adds the user claim for email and one role claim per group
// to id, and replaces the session role cache with exactly those claims.
func (a *RemoteApp) ExtendIdentity(id *identity.Identity, cache RoleCache, email string, groups []string) {
	set := make(map[identity.Need]struct{}, len(groups)+1)
	set[identity.UserNeed(email)] = struct{}{}

	for _, g := range groups {
		set[RoleClaim(g, a.config.Domain)] = struct{}{}
	}

	needs := make([]identity.Need, 0, len(set))
	for n := range set {
		needs = append(needs, n)
	}

	sort.Slice(needs, func(i, j int) bool {
		if needs[i].Method != needs[j].Method {
			return needs[i].Method < needs[j].Method
		}

		return needs[i].Value < needs[j].Value
	})

	id.Provide(needs...)

	if cache != nil {
		cache.SetProvides(a.config.SessionKey, needs)
	}
}

// DisconnectIdentity revokes the claims recorded in the session role cache
// from id and clears the cache.
func (a *RemoteApp) DisconnectIdentity(id *identity.Identity, cache RoleCache) {
	if cache == nil {
		return
	}

	id.Revoke(cache.DeleteProvides(a.config.SessionKey)...)
}
