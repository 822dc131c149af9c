package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OAuthConfig holds the configuration of a remote OAuth2 application.
type OAuthConfig struct {
	// ClientID is the OAuth2 client identifier (consumer key).
	ClientID string
	// ClientSecret is the OAuth2 client secret (consumer secret).
	ClientSecret string
	// RedirectURL is the callback URL the provider redirects to after authorization.
	RedirectURL string
	// AuthURL is the authorization endpoint.
	AuthURL string
	// TokenURL is the token endpoint.
	TokenURL string
	// DiscoveryURL, if set, is an OpenID Connect issuer whose discovered endpoints
	// replace AuthURL and TokenURL.
	DiscoveryURL string
	// Scopes are the OAuth2 scopes to request.
	Scopes []string
	// AuthParams are extra query parameters added to the authorization URL.
	AuthParams map[string]string
	// Timeout bounds every HTTP call made with tokens of this application.
	Timeout time.Duration
}

// OAuthProvider wraps the OAuth2 handshake with a remote application.
type OAuthProvider struct {
	config *OAuthConfig
	oauth2 oauth2.Config
	client *http.Client
}

// NewOAuthProvider creates a new OAuth2 provider.
func NewOAuthProvider(ctx context.Context, config *OAuthConfig) (*OAuthProvider, error) {
	if config.ClientID == "" {
		return nil, ErrOAuthClientIDEmpty
	}

	endpoint := oauth2.Endpoint{
		AuthURL:   config.AuthURL,
		TokenURL:  config.TokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}

	if config.DiscoveryURL != "" {
		provider, err := oidc.NewProvider(ctx, config.DiscoveryURL)
		if err != nil {
			return nil, fmt.Errorf("failed to discover OAuth endpoints: %w", err)
		}

		endpoint = provider.Endpoint()
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &OAuthProvider{
		config: config,
		oauth2: oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       config.Scopes,
		},
		client: &http.Client{Timeout: timeout},
	}, nil
}

// ClientID returns the configured client id.
func (p *OAuthProvider) ClientID() string {
	return p.config.ClientID
}

// GenerateStateToken generates a random state token for CSRF protection.
func GenerateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// GetAuthURL returns the authorization URL with state token and the configured extra parameters.
func (p *OAuthProvider) GetAuthURL(state string) string {
	opts := make([]oauth2.AuthCodeOption, 0, len(p.config.AuthParams))
	for k, v := range p.config.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}

	return p.oauth2.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for a token.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.oauth2.Exchange(p.withHTTPClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	return token, nil
}

// Client returns an HTTP client authorizing requests with token.
// Expired tokens are refreshed transparently when a refresh token is present.
func (p *OAuthProvider) Client(ctx context.Context, token *oauth2.Token) *http.Client {
	return p.oauth2.Client(p.withHTTPClient(ctx), token)
}

// withHTTPClient makes x/oauth2 use the provider's timeout bound client.
func (p *OAuthProvider) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}
