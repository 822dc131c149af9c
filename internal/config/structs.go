package config

import (
	"time"

	"github.com/cernauth/cernauth/internal/cern"
	"github.com/cernauth/cernauth/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
	CookieName string // defaults to "session"
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	CERN      cern.Config
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover      bool    // disable recover middleware
	Port                int     `validate:"required,min=1,max=65535"` // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown in seconds
	URL                 string  `validate:"required,url"` // base url for the webserver
	CookieEncryptionKey string  // base64 key for cookie encryption, empty disables it
	Session             Session // session settings
}

// Auth configures the local login and access to protected endpoints.
type Auth struct {
	LocalDB LocalDBAuth
	// MetricsRole is the role claim required for /metrics, e.g. "it-dep@cern.ch".
	// Empty leaves the endpoint public.
	MetricsRole string
	// Admin is seeded into an empty user table.
	Admin Admin
}

// LocalDBAuth toggles the username and password login.
type LocalDBAuth struct {
	Enabled bool
}

// Admin is the initial local administrator.
type Admin struct {
	Username string
	Email    string `validate:"omitempty,email"`
	Password string
}
