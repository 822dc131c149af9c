package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the root of a route group.
	RouterRootPath = ""

	// LinkedAccountsPath lists the remote accounts of the logged-in user.
	LinkedAccountsPath = "/account/settings/linkedaccounts"

	// ErrNilDepsFatalLogMsg is used if app or a required dependency is nil.
	ErrNilDepsFatalLogMsg = "app or handler dependencies are nil"

	// LoginPath is the local login page.
	LoginPath = "/login"

	// LogoutPath ends the session.
	LogoutPath = "/logout"

	// OAuthLoginPath starts the CERN authorization round trip.
	OAuthLoginPath = "/oauth/login/cern"

	// OAuthDisconnectPath unlinks the CERN account.
	OAuthDisconnectPath = "/oauth/disconnect/cern"

	// SessionAuthType is the auth type of identities restored from a session.
	SessionAuthType = "session"
)
