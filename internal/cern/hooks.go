package cern

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/cernauth/cernauth/internal/db/controller/remoteaccount"
	"github.com/cernauth/cernauth/internal/db/controller/useridentity"
	"github.com/cernauth/cernauth/internal/db/models"
	"github.com/cernauth/cernauth/internal/identity"
)

// ClientFactory builds an authorized HTTP client from a stored token.
type ClientFactory interface {
	Client(ctx context.Context, token *oauth2.Token) *http.Client
}

// RemoteApp wires the CERN remote application into the local account model.
type RemoteApp struct {
	config  Config
	db      *gorm.DB
	filter  *GroupFilter
	fetcher *Fetcher
	clients ClientFactory
	now     func() time.Time
}

// Option configures a RemoteApp.
type Option func(*remoteAppOptions)

type remoteAppOptions struct {
	directory DirectoryLookup
	clients   ClientFactory
	now       func() time.Time
}

// WithDirectory replaces the LDAP directory fallback.
func WithDirectory(d DirectoryLookup) Option {
	return func(o *remoteAppOptions) { o.directory = d }
}

// WithClientFactory sets the factory used to rebuild resource API clients
// from stored tokens during refreshes outside the login flow.
func WithClientFactory(f ClientFactory) Option {
	return func(o *remoteAppOptions) { o.clients = f }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *remoteAppOptions) { o.now = now }
}

// New creates the remote application. cfg is defaulted with WithDefaults.
func New(cfg Config, db *gorm.DB, opts ...Option) (*RemoteApp, error) { //nolint:gocritic
	cfg = cfg.WithDefaults()

	filter, err := NewGroupFilter(cfg.HiddenGroups, cfg.HiddenGroupsRE)
	if err != nil {
		return nil, err
	}

	o := remoteAppOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if o.directory == nil {
		o.directory = NewDirectory(cfg.LDAP)
	}

	return &RemoteApp{
		config:  cfg,
		db:      db,
		filter:  filter,
		fetcher: NewFetcher(&cfg, o.directory),
		clients: o.clients,
		now:     o.now,
	}, nil
}

// Config returns the effective configuration.
func (a *RemoteApp) Config() Config {
	return a.config
}

// WithDB returns a copy of a persisting through db, typically an open
// transaction of the caller.
func (a *RemoteApp) WithDB(db *gorm.DB) *RemoteApp {
	c := *a
	c.db = db

	return &c
}

// Register subscribes the identity hooks to bus.
func (a *RemoteApp) Register(bus *identity.Bus) {
	bus.Subscribe(identity.Changed, a.OnIdentityChanged)
	bus.Subscribe(identity.Loaded, a.OnIdentityLoaded)
}

// Resource resolves the resource of the request carried by ctx.
func (a *RemoteApp) Resource(ctx context.Context) (Resource, error) {
	req, ok := RequestFromContext(ctx)
	if !ok {
		return nil, ErrNoRequest
	}

	return a.fetcher.Resource(ctx, req)
}

// UserInfo resolves the resource of the current request and projects it.
func (a *RemoteApp) UserInfo(ctx context.Context) (UserInfo, error) {
	res, err := a.Resource(ctx)
	if err != nil {
		return UserInfo{}, err
	}

	return NewUserInfo(res, a.filter), nil
}

// AccountInfo is the data used to find or create the local user of a remote login.
type AccountInfo struct {
	Email          string         `json:"email"`
	Profile        map[string]any `json:"profile"`
	ExternalID     string         `json:"external_id"`
	ExternalMethod string         `json:"external_method"`
	Active         bool           `json:"active"`
}

// AccountInfo resolves the remote account of the current request.
func (a *RemoteApp) AccountInfo(ctx context.Context) (*AccountInfo, error) {
	res, err := a.Resource(ctx)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(res.Email())
	if email == "" {
		return nil, fmt.Errorf("%w: resource carries no email address", ErrNoResource)
	}

	return &AccountInfo{
		Email:          email,
		Profile:        a.config.ExtraDataSerializer(res),
		ExternalID:     res.ExternalID(),
		ExternalMethod: ExternalMethod,
		Active:         true,
	}, nil
}

// Setup completes the first login of a remote account: it records the
// external id, stores groups and extra fields, extends id and links the
// external id to the account's user. The snapshot and the link commit in one
// transaction, a resource without external id writes nothing. Calling Setup
// with an anonymous identity is a programming error and panics.
func (a *RemoteApp) Setup(ctx context.Context, account *models.RemoteAccount, id *identity.Identity) error {
	if id == nil || id.IsAnonymous() {
		panic("cern: account setup requires an authenticated identity")
	}

	req, ok := RequestFromContext(ctx)
	if !ok {
		return ErrNoRequest
	}

	res, err := a.fetcher.Resource(ctx, req)
	if err != nil {
		return err
	}

	externalID := res.ExternalID()
	if externalID == "" {
		return fmt.Errorf("%w: resource carries no external id", ErrNoResource)
	}

	previous := account.ExtraData
	account.ExtraData = models.ExtraData{models.ExtraExternalID: externalID}

	var (
		groups []string
		user   *models.User
	)

	err = a.db.Transaction(func(tx *gorm.DB) error {
		scoped := a.WithDB(tx)

		var err error
		if groups, err = scoped.Refresh(ctx, account, res); err != nil {
			return err
		}

		if user, err = scoped.accountUser(req, account); err != nil {
			return err
		}

		if err = useridentity.Link(tx, user.ID, externalID, ExternalMethod); err != nil {
			return fmt.Errorf("failed to link external id: %w", err)
		}

		return nil
	})
	if err != nil {
		account.ExtraData = previous

		return err
	}

	a.ExtendIdentity(id, req.Session, user.Email, groups)

	log.Info().
		Uint64("user_id", user.ID).
		Str("external_id", externalID).
		Msg("linked CERN account")

	return nil
}

// Disconnect unlinks the CERN account of the logged-in user and revokes the
// derived claims from id. ErrUnauthenticated is returned without a user.
func (a *RemoteApp) Disconnect(ctx context.Context, id *identity.Identity) error {
	req, ok := RequestFromContext(ctx)
	if !ok {
		return ErrNoRequest
	}

	if !req.authenticated() {
		return ErrUnauthenticated
	}

	account, err := remoteaccount.Get(a.db, req.User.ID, a.config.ClientID)
	if err != nil && !errors.Is(err, remoteaccount.ErrNotFound) {
		return err
	}

	if account != nil {
		err = a.db.Transaction(func(tx *gorm.DB) error {
			if externalID := account.ExtraData.ExternalID(); externalID != "" {
				if err := useridentity.Unlink(tx, externalID, ExternalMethod); err != nil {
					return err
				}
			}

			return remoteaccount.Delete(tx, account)
		})
		if err != nil {
			return fmt.Errorf("failed to disconnect remote account: %w", err)
		}

		log.Info().Uint64("user_id", req.User.ID).Msg("disconnected CERN account")
	}

	a.DisconnectIdentity(id, req.Session)

	return nil
}

// OnIdentityChanged refreshes a stale group snapshot and extends id with the
// account's groups. Anonymous identities and users without a linked account
// are skipped. Upstream failures keep the cached groups.
func (a *RemoteApp) OnIdentityChanged(ctx context.Context, id *identity.Identity) error {
	if id.IsAnonymous() {
		return nil
	}

	req, ok := RequestFromContext(ctx)
	if !ok || !req.authenticated() {
		return nil
	}

	account, err := remoteaccount.Get(a.db, req.User.ID, a.config.ClientID)
	if errors.Is(err, remoteaccount.ErrNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	groups := account.ExtraData.Groups()

	if ShouldRefresh(account.ExtraData.Updated(), a.config.RefreshWindow, a.now()) {
		if req.Remote == nil {
			req.Remote = a.storedClient(ctx, account)
		}

		res, err := a.fetcher.Resource(ctx, req)
		if err != nil {
			log.Warn().Err(err).Uint64("account_id", account.ID).Msg("group refresh skipped")
		} else if refreshed, err := a.Refresh(ctx, account, res); err != nil {
			log.Error().Err(err).Uint64("account_id", account.ID).Msg("group refresh failed")
		} else {
			groups = refreshed
		}
	}

	a.ExtendIdentity(id, req.Session, req.User.Email, groups)

	return nil
}

// OnIdentityLoaded restores the claims of the session role cache into id.
// Anonymous identities get none.
func (a *RemoteApp) OnIdentityLoaded(ctx context.Context, id *identity.Identity) error {
	if id.IsAnonymous() {
		return nil
	}

	req, ok := RequestFromContext(ctx)
	if !ok || req.Session == nil {
		return nil
	}

	id.Provide(req.Session.Provides(a.config.SessionKey)...)

	return nil
}

// storedClient builds a resource API client from the account's stored token.
func (a *RemoteApp) storedClient(ctx context.Context, account *models.RemoteAccount) *http.Client {
	if a.clients == nil {
		return nil
	}

	token, err := remoteaccount.Token(a.db, account.ID)
	if err != nil {
		log.Debug().Err(err).Uint64("account_id", account.ID).Msg("no stored token for remote account")

		return nil
	}

	return a.clients.Client(ctx, token.OAuth2())
}

func (a *RemoteApp) accountUser(req *Request, account *models.RemoteAccount) (*models.User, error) {
	if req.User != nil && req.User.ID == account.UserID {
		return req.User, nil
	}

	var user models.User
	if err := a.db.First(&user, account.UserID).Error; err != nil {
		return nil, fmt.Errorf("failed to load account user: %w", err)
	}

	return &user, nil
}
