// Package oauth implements the CERN OAuth remote application endpoints:
// authorization round trip, account disconnect and the user info view.
package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/cernauth/cernauth/internal/auth"
	"github.com/cernauth/cernauth/internal/cern"
	"github.com/cernauth/cernauth/internal/db/controller/remoteaccount"
	"github.com/cernauth/cernauth/internal/db/controller/useridentity"
	"github.com/cernauth/cernauth/internal/db/models"
	"github.com/cernauth/cernauth/internal/identity"
	"github.com/cernauth/cernauth/internal/web/handler"
	authmw "github.com/cernauth/cernauth/internal/web/middleware/auth"
)

const (
	// LoginPath starts the authorization round trip.
	LoginPath = handler.OAuthLoginPath
	// AuthorizedPath is the redirect URL registered with the provider.
	AuthorizedPath = "/oauth/authorized/cern"
	// DisconnectPath unlinks the CERN account.
	DisconnectPath = handler.OAuthDisconnectPath
	// UserInfoPath shows the provider's view of the logged-in user.
	UserInfoPath = "/oauth/userinfo/cern"

	stateTTL = 10 * time.Minute
)

var (
	// ErrInvalidState is returned when the callback state does not match the session.
	ErrInvalidState = errors.New("invalid or expired oauth state")
	// ErrMissingCode is returned when the callback carries no authorization code.
	ErrMissingCode = errors.New("authorization code missing")
	// ErrAlreadyLinked is returned when the CERN account belongs to another user.
	ErrAlreadyLinked = errors.New("CERN account is linked to another user")
)

// Service is the CERN OAuth handler service.
type Service struct {
	deps  *handler.Deps
	local *auth.LocalProvider
	now   func() time.Time
}

// Handler is the CERN OAuth handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the OAuth routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() || deps.OAuth == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps
	s.local = auth.NewLocalProvider(deps.DB)

	if s.now == nil {
		s.now = time.Now
	}

	app.Get(LoginPath, s.Login)
	app.Get(AuthorizedPath, s.Authorized)
	app.Get(DisconnectPath, authmw.RequireAuthenticated, s.Disconnect)
	app.Get(UserInfoPath, authmw.RequireAuthenticated, s.UserInfo)

	return nil
}

// Login stores a fresh state in the session and redirects to the provider.
func (s *Service) Login(c *fiber.Ctx) error {
	state, err := auth.GenerateStateToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate oauth state")

		return fiber.ErrInternalServerError
	}

	data, sessionID := handler.CurrentSession(c)
	data.OAuthState = state
	data.StateExpiry = s.now().Add(stateTTL)
	data.Next = handler.SafeNext(c.Query("next"), "")

	if _, err = handler.SaveSession(c, s.deps.Config, sessionID, data); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return fiber.ErrInternalServerError
	}

	return c.Redirect(s.deps.OAuth.GetAuthURL(state))
}

// Authorized completes the round trip: it exchanges the code, resolves or
// provisions the local user, signs in and sets up a new remote account.
func (s *Service) Authorized(c *fiber.Ctx) error { //nolint:funlen
	data, sessionID := handler.CurrentSession(c)

	if reason := c.Query("error"); reason != "" {
		log.Info().Str("error", reason).Str("description", c.Query("error_description")).Msg("authorization denied")

		return fiber.NewError(fiber.StatusBadRequest, "authorization failed: "+reason)
	}

	if !data.ValidState(c.Query("state"), s.now()) {
		return fiber.NewError(fiber.StatusBadRequest, ErrInvalidState.Error())
	}

	data.OAuthState = ""

	code := c.Query("code")
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, ErrMissingCode.Error())
	}

	ctx := c.UserContext()

	token, err := s.deps.OAuth.Exchange(ctx, code)
	if err != nil {
		log.Warn().Err(err).Msg("token exchange failed")

		return fiber.NewError(fiber.StatusBadRequest, "token exchange failed")
	}

	req, ok := cern.RequestFromContext(ctx)
	if !ok {
		req = &cern.Request{Session: data}
		ctx = cern.NewContext(ctx, req)
	}

	req.Remote = s.deps.OAuth.Client(ctx, token)

	info, err := s.deps.CERN.AccountInfo(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to resolve CERN account")

		return fiber.NewError(fiber.StatusBadRequest, cern.ErrNoResource.Error())
	}

	wasAuthenticated := req.User.IsAuthenticated()

	user, err := s.resolveUser(req, info)
	if err != nil {
		return err
	}

	ctx, id := handler.SignIn(ctx, s.deps.Bus, data, req, user, cern.ExternalMethod)

	if err = s.linkAccount(ctx, user, id, token); err != nil {
		return err
	}

	if !wasAuthenticated {
		handler.ClearSession(c, s.deps.Config, sessionID)
		sessionID = ""
	}

	next := handler.SafeNext(data.Next, handler.LinkedAccountsPath)
	data.Next = ""

	if _, err = handler.SaveSession(c, s.deps.Config, sessionID, data); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return fiber.ErrInternalServerError
	}

	log.Info().Uint64("user_id", user.ID).Str("external_id", info.ExternalID).Msg("CERN login")

	return c.Redirect(next)
}

// resolveUser returns the user the remote account belongs to. Logged-in
// users link the account to themselves.
func (s *Service) resolveUser(req *cern.Request, info *cern.AccountInfo) (*models.User, error) {
	linked, err := useridentity.FindUser(s.deps.DB, info.ExternalID, info.ExternalMethod)
	if err != nil && !errors.Is(err, useridentity.ErrNotFound) && !errors.Is(err, useridentity.ErrExternalIDEmpty) {
		log.Error().Err(err).Msg("failed to look up external identity")

		return nil, fiber.ErrInternalServerError
	}

	if req.User.IsAuthenticated() {
		if linked != nil && linked.ID != req.User.ID {
			return nil, fiber.NewError(fiber.StatusConflict, ErrAlreadyLinked.Error())
		}

		return req.User, nil
	}

	if linked != nil {
		if !linked.Active {
			return nil, fiber.NewError(fiber.StatusForbidden, auth.ErrUserAccountDisabled.Error())
		}

		return linked, nil
	}

	user, err := s.local.ProvisionUser(info.Email, models.AuthSourceCERN)

	switch {
	case errors.Is(err, auth.ErrUserAccountDisabled):
		return nil, fiber.NewError(fiber.StatusForbidden, err.Error())
	case err != nil:
		log.Error().Err(err).Msg("failed to provision user")

		return nil, fiber.ErrInternalServerError
	}

	return user, nil
}

// linkAccount stores the token and runs the first time setup for new accounts.
// A new account, its token and its setup commit together.
func (s *Service) linkAccount(ctx context.Context, user *models.User, id *identity.Identity, token *oauth2.Token) error {
	clientID := s.deps.CERN.Config().ClientID

	account, err := remoteaccount.Get(s.deps.DB, user.ID, clientID)

	switch {
	case errors.Is(err, remoteaccount.ErrNotFound):
		err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
			created, err := remoteaccount.Create(tx, user.ID, clientID, nil)
			if err != nil {
				return err
			}

			if err = remoteaccount.SaveToken(tx, created.ID, token); err != nil {
				return err
			}

			return s.deps.CERN.WithDB(tx).Setup(ctx, created, id)
		})

		switch {
		case errors.Is(err, cern.ErrNoResource):
			log.Warn().Err(err).Uint64("user_id", user.ID).Msg("account setup rejected")

			return fiber.NewError(fiber.StatusBadRequest, cern.ErrNoResource.Error())
		case err != nil:
			log.Error().Err(err).Uint64("user_id", user.ID).Msg("account setup failed")

			return fiber.ErrInternalServerError
		}
	case err != nil:
		log.Error().Err(err).Msg("failed to look up remote account")

		return fiber.ErrInternalServerError
	default:
		if err = remoteaccount.SaveToken(s.deps.DB, account.ID, token); err != nil {
			log.Error().Err(err).Msg("failed to store token")

			return fiber.ErrInternalServerError
		}
	}

	return nil
}

// Disconnect unlinks the CERN account of the logged-in user.
func (s *Service) Disconnect(c *fiber.Ctx) error {
	data, sessionID := handler.CurrentSession(c)
	ctx := c.UserContext()

	err := s.deps.CERN.Disconnect(ctx, identity.FromContext(ctx))

	switch {
	case errors.Is(err, cern.ErrUnauthenticated):
		return c.Redirect(handler.LoginPath)
	case err != nil:
		log.Error().Err(err).Msg("failed to disconnect CERN account")

		return fiber.ErrInternalServerError
	}

	if _, err = handler.SaveSession(c, s.deps.Config, sessionID, data); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return fiber.ErrInternalServerError
	}

	return c.Redirect(handler.LinkedAccountsPath)
}

// UserInfo returns the provider's view of the logged-in user.
func (s *Service) UserInfo(c *fiber.Ctx) error {
	ctx := c.UserContext()

	req, ok := cern.RequestFromContext(ctx)
	if !ok || req.User == nil {
		return c.Redirect(handler.LoginPath)
	}

	account, err := remoteaccount.Get(s.deps.DB, req.User.ID, s.deps.CERN.Config().ClientID)
	if err == nil {
		if token, errToken := remoteaccount.Token(s.deps.DB, account.ID); errToken == nil {
			req.Remote = s.deps.OAuth.Client(ctx, token.OAuth2())
		}
	}

	info, err := s.deps.CERN.UserInfo(ctx)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(info)
}
