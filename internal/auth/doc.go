// Package auth provides the authentication providers of the application.
//
//   - LocalProvider authenticates users against the local database with
//     Argon2id password hashing, and provisions users signing up through a
//     remote application.
//   - OAuthProvider wraps the OAuth2 authorization code handshake with a
//     remote application (authorization URL, code exchange and authorized
//     HTTP clients). Endpoints are either configured statically or discovered
//     from an OpenID Connect issuer.
//
// Example usage:
//
//	provider, err := auth.NewOAuthProvider(ctx, &auth.OAuthConfig{
//	    ClientID: "...",
//	    AuthURL:  "https://oauth.web.cern.ch/OAuth/Authorize",
//	    TokenURL: "https://oauth.web.cern.ch/OAuth/Token",
//	})
//	token, err := provider.Exchange(ctx, code)
//	client := provider.Client(ctx, token)
package auth
