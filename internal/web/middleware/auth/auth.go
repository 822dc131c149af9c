// Package auth provides the fiber middlewares restoring and checking the
// request identity.
package auth

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	localauth "github.com/cernauth/cernauth/internal/auth"
	"github.com/cernauth/cernauth/internal/cern"
	"github.com/cernauth/cernauth/internal/db/models"
	"github.com/cernauth/cernauth/internal/identity"
	"github.com/cernauth/cernauth/internal/web/handler"
	"github.com/cernauth/cernauth/internal/web/session"
)

// Identity restores the session of the request, attaches the identity and
// the request state to the user context and publishes identity.Loaded.
// Sessions of deleted or disabled users continue anonymously.
func Identity(deps *handler.Deps) fiber.Handler {
	users := localauth.NewLocalProvider(deps.DB)

	return func(c *fiber.Ctx) error {
		sessionID := handler.SessionCookie(c, deps.Config)

		data := new(session.Data)
		if err := data.Read(sessionID); err != nil {
			if sessionID != "" && !errors.Is(err, session.ErrNotFound) {
				log.Warn().Err(err).Msg("failed to read session")
			}

			data = new(session.Data)
			sessionID = ""
		}

		req := &cern.Request{Session: data}
		id := identity.Anonymous()

		if data.User.ID > 0 {
			user, err := users.GetUserByID(data.User.ID)

			switch {
			case err != nil:
				log.Debug().Err(err).Uint64("user_id", data.User.ID).Msg("session user not found")
				data.User = models.User{}
			case !user.IsAuthenticated():
				log.Debug().Uint64("user_id", user.ID).Msg("session user is disabled")
				data.User = models.User{}
			default:
				data.User = *user
				req.User = user
				id = identity.New(strconv.FormatUint(user.ID, 10), handler.SessionAuthType)
			}
		}

		c.Locals(handler.LocalsSession, data)
		c.Locals(handler.LocalsSessionID, sessionID)

		ctx := identity.NewContext(cern.NewContext(c.UserContext(), req), id)
		c.SetUserContext(ctx)

		if err := deps.Bus.Publish(ctx, identity.Loaded, id); err != nil {
			log.Error().Err(err).Msg("identity loaded hooks failed")
		}

		return c.Next()
	}
}

// RequireAuthenticated redirects anonymous requests to the login page.
func RequireAuthenticated(c *fiber.Ctx) error {
	if identity.FromContext(c.UserContext()).IsAnonymous() {
		return c.Redirect(handler.LoginPath + "?next=" + url.QueryEscape(c.OriginalURL()))
	}

	return c.Next()
}

// RequireNeed rejects requests whose identity does not provide need.
func RequireNeed(need identity.Need) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := identity.FromContext(c.UserContext())

		if id.IsAnonymous() {
			return fiber.ErrUnauthorized
		}

		if !id.Can(need) {
			log.Debug().Str("identity", id.ID).Str("need", need.Value).Msg("permission denied")

			return fiber.ErrForbidden
		}

		return c.Next()
	}
}
