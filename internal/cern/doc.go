// Package cern integrates the CERN OAuth remote application with the local
// account and identity model.
//
// The package turns the provider's noisy group list into role claims on the
// request identity and keeps those claims fresh:
//
//   - GroupFilter drops provider noise groups (exact and prefix-regexp deny lists).
//   - NormalizeClaims converts the resource API's claim list into a Resource.
//   - Directory looks a user up in the LDAP directory when the resource API is unavailable.
//   - Fetcher resolves the Resource of the current request: request cache,
//     resource API, directory fallback, in that order.
//   - RemoteApp persists the group snapshot of a linked account, refreshes it
//     once it is older than the refresh window and extends the identity with
//     role claims of the form "<group>@<domain>".
//
// RemoteApp subscribes to the identity bus:
//
//	app, err := cern.New(cfg, db, cern.WithClientFactory(oauthProvider))
//	app.Register(bus)
//
// Request scoped state (session role cache, current user, authorized client)
// travels in the context, see NewContext.
package cern
