package cern

import (
	"strings"
	"time"

	"github.com/cernauth/cernauth/internal/auth"
)

const (
	// ExternalMethod is the method name of CERN external identities.
	ExternalMethod = "cern"

	// DefaultSessionKey is the session key the role cache is stored under.
	DefaultSessionKey = "identity.cern_provides"
	// DefaultRefreshWindow marks snapshots older than five minutes as stale.
	DefaultRefreshWindow = -5 * time.Minute
	// DefaultDomain is appended to group names to form role claims.
	DefaultDomain = "cern.ch"

	// DefaultBaseURL is the production OAuth server.
	DefaultBaseURL = "https://oauth.web.cern.ch/"
	// SandboxBaseURL is the sandbox OAuth server.
	SandboxBaseURL = "https://test-oauth.web.cern.ch/"
	// DefaultResourceURL is the resource API returning the user's claims.
	DefaultResourceURL = "https://oauthresource.web.cern.ch/api/Me"
	// DefaultResourceSchema prefixes every claim type returned by the resource API.
	DefaultResourceSchema = "http://schemas.xmlsoap.org/claims/"

	// DefaultLDAPURL is the directory server queried on fallback.
	DefaultLDAPURL = "ldap://xldap.cern.ch"
	// DefaultLDAPBaseDN is the organizational unit users live in.
	DefaultLDAPBaseDN = "OU=Users,OU=Organic Units,DC=cern,DC=ch"
	// DefaultLDAPPageSize is the simple paged results size.
	DefaultLDAPPageSize = 20

	defaultTimeout = 10 * time.Second
)

// DefaultScopes are requested from the OAuth server.
var DefaultScopes = []string{"Name", "Email", "Bio", "Groups"} //nolint:gochecknoglobals

// DefaultHiddenGroups are groups every CERN account is member of.
var DefaultHiddenGroups = []string{ //nolint:gochecknoglobals
	"All Exchange People",
	"CERN Users",
	"cern-computing-postmasters",
	"cern-nice2000-postmasters",
	"CMF FrontEnd Users",
	"CMF_NSC_259_NSU",
	"Domain Users",
	"GP Apply Favorites Redirection",
	"GP Apply NoAdmin",
	"info-terminalservices",
	"info-terminalservices-members",
	"IT Web IT",
	"NICE Deny Enforce Password-protected Screensaver",
	"NICE Enforce Password-protected Screensaver",
	"NICE LightWeight Authentication WS Users",
	"NICE MyDocuments Redirection (New)",
	"NICE Profile Redirection",
	"NICE Terminal Services Users",
	"NICE Users",
	"NICE VPN Users",
}

// DefaultHiddenGroupsRE are prefix patterns of hidden groups.
var DefaultHiddenGroupsRE = []string{ //nolint:gochecknoglobals
	`Users by Letter [A-Z]`,
	`building-[\d]+`,
	`Users by Home CERNHOME[A-Z]`,
}

// ExtraDataSerializer derives the provider specific snapshot fields from a resource.
type ExtraDataSerializer func(Resource) map[string]any

// LDAPConfig configures the directory fallback.
type LDAPConfig struct {
	// URL of the directory server (ldap:// or ldaps://).
	URL string
	// BaseDN searched one level deep.
	BaseDN string
	// PageSize of the simple paged results control.
	PageSize uint32
	// Timeout for dialing and searching.
	Timeout time.Duration
}

// Config configures the CERN remote application. Zero values are replaced by
// the documented defaults in WithDefaults.
type Config struct {
	ClientID     string `validate:"required"`
	ClientSecret string
	RedirectURL  string `validate:"omitempty,url"`

	// Sandbox switches the default endpoints to the sandbox OAuth server.
	Sandbox      bool
	BaseURL      string
	AuthorizeURL string
	TokenURL     string
	// DiscoveryURL, if set, discovers the OAuth endpoints from an OpenID Connect issuer.
	DiscoveryURL string
	Scopes       []string

	ResourceURL    string `validate:"omitempty,url"`
	ResourceSchema string

	// Domain is appended to group names to build role claims.
	Domain string
	// SessionKey names the session slot of the role cache.
	SessionKey string
	// RefreshWindow is added to the current time to get the staleness threshold.
	// Negative values look into the past.
	RefreshWindow time.Duration

	HiddenGroups   []string
	HiddenGroupsRE []string

	// Timeout bounds calls to the OAuth server and the resource API.
	Timeout time.Duration

	LDAP LDAPConfig

	// ExtraDataSerializer replaces DefaultExtraData.
	ExtraDataSerializer ExtraDataSerializer `toml:"-" json:"-"`
}

// WithDefaults returns a copy of c with unset fields defaulted.
func (c Config) WithDefaults() Config { //nolint:gocritic
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
		if c.Sandbox {
			c.BaseURL = SandboxBaseURL
		}
	}

	base := strings.TrimSuffix(c.BaseURL, "/")

	if c.AuthorizeURL == "" {
		c.AuthorizeURL = base + "/OAuth/Authorize"
	}

	if c.TokenURL == "" {
		c.TokenURL = base + "/OAuth/Token"
	}

	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}

	if c.ResourceURL == "" {
		c.ResourceURL = DefaultResourceURL
	}

	if c.ResourceSchema == "" {
		c.ResourceSchema = DefaultResourceSchema
	}

	if c.Domain == "" {
		c.Domain = DefaultDomain
	}

	if c.SessionKey == "" {
		c.SessionKey = DefaultSessionKey
	}

	if c.RefreshWindow == 0 {
		c.RefreshWindow = DefaultRefreshWindow
	}

	if c.HiddenGroups == nil {
		c.HiddenGroups = DefaultHiddenGroups
	}

	if c.HiddenGroupsRE == nil {
		c.HiddenGroupsRE = DefaultHiddenGroupsRE
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	if c.LDAP.URL == "" {
		c.LDAP.URL = DefaultLDAPURL
	}

	if c.LDAP.BaseDN == "" {
		c.LDAP.BaseDN = DefaultLDAPBaseDN
	}

	if c.LDAP.PageSize == 0 {
		c.LDAP.PageSize = DefaultLDAPPageSize
	}

	if c.LDAP.Timeout <= 0 {
		c.LDAP.Timeout = defaultTimeout
	}

	if c.ExtraDataSerializer == nil {
		c.ExtraDataSerializer = DefaultExtraData
	}

	return c
}

// OAuth returns the OAuth2 configuration of the remote application.
func (c Config) OAuth() *auth.OAuthConfig { //nolint:gocritic
	c = c.WithDefaults()

	return &auth.OAuthConfig{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		AuthURL:      c.AuthorizeURL,
		TokenURL:     c.TokenURL,
		DiscoveryURL: c.DiscoveryURL,
		Scopes:       c.Scopes,
		AuthParams:   map[string]string{"show_login": "true"},
		Timeout:      c.Timeout,
	}
}
