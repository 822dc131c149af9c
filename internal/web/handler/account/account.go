// Package account shows the linked remote accounts of the logged-in user.
package account

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/cernauth/cernauth/internal/cern"
	"github.com/cernauth/cernauth/internal/db/controller/remoteaccount"
	"github.com/cernauth/cernauth/internal/identity"
	"github.com/cernauth/cernauth/internal/web/handler"
	authmw "github.com/cernauth/cernauth/internal/web/middleware/auth"
)

// Path lists the linked accounts.
const Path = handler.LinkedAccountsPath

// LinkedAccount is a remote account as shown to its owner.
type LinkedAccount struct {
	ClientID   string    `json:"client_id"`
	ExternalID string    `json:"external_id"`
	Groups     []string  `json:"groups"`
	Updated    string    `json:"updated"`
	LinkedAt   time.Time `json:"linked_at"`
}

// Response is the linked accounts view.
type Response struct {
	UserID   uint64          `json:"user_id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Accounts []LinkedAccount `json:"accounts"`
	Provides []identity.Need `json:"provides"`
	// DisconnectURL unlinks the CERN account.
	DisconnectURL string `json:"disconnect_url"`
}

// Service is the linked accounts handler service.
type Service struct {
	deps *handler.Deps
}

// Handler is the linked accounts handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the linked accounts route.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, authmw.RequireAuthenticated, s.Get)

	return nil
}

// Get lists the remote accounts of the logged-in user.
func (s *Service) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()

	req, ok := cern.RequestFromContext(ctx)
	if !ok || req.User == nil {
		return c.Redirect(handler.LoginPath)
	}

	accounts, err := remoteaccount.ListByUser(s.deps.DB, req.User.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", req.User.ID).Msg("failed to list remote accounts")

		return fiber.ErrInternalServerError
	}

	resp := Response{
		UserID:        req.User.ID,
		Username:      req.User.Username,
		Email:         req.User.Email,
		Accounts:      make([]LinkedAccount, 0, len(accounts)),
		Provides:      identity.FromContext(ctx).Provides(),
		DisconnectURL: handler.OAuthDisconnectPath,
	}

	for _, a := range accounts {
		groups := a.ExtraData.Groups()
		if groups == nil {
			groups = []string{}
		}

		resp.Accounts = append(resp.Accounts, LinkedAccount{
			ClientID:   a.ClientID,
			ExternalID: a.ExtraData.ExternalID(),
			Groups:     groups,
			Updated:    a.ExtraData.Updated(),
			LinkedAt:   a.CreatedAt,
		})
	}

	return c.JSON(resp)
}
