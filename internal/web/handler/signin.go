package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/cernauth/cernauth/internal/cern"
	"github.com/cernauth/cernauth/internal/config"
	"github.com/cernauth/cernauth/internal/db/models"
	"github.com/cernauth/cernauth/internal/identity"
	"github.com/cernauth/cernauth/internal/web/session"
)

// Locals keys set by the identity middleware.
const (
	LocalsSession   = "session"
	LocalsSessionID = "sessionID"
)

// CurrentSession returns the session of the request and its id. The id is
// empty for requests without a session cookie.
func CurrentSession(c *fiber.Ctx) (*session.Data, string) {
	data, ok := c.Locals(LocalsSession).(*session.Data)
	if !ok || data == nil {
		data = new(session.Data)
	}

	id, _ := c.Locals(LocalsSessionID).(string)

	return data, id
}

// SignIn attaches user to the session data and publishes the identity change.
// req carries request scoped state collected earlier in the handler, a nil
// req starts from scratch. The returned context carries identity and request.
func SignIn(
	ctx context.Context,
	bus *identity.Bus,
	data *session.Data,
	req *cern.Request,
	user *models.User,
	authType string,
) (context.Context, *identity.Identity) {
	if req == nil {
		req = new(cern.Request)
	}

	data.User = *user
	req.User = user
	req.Session = data

	id := identity.New(strconv.FormatUint(user.ID, 10), authType)
	ctx = identity.NewContext(cern.NewContext(ctx, req), id)

	if err := bus.Publish(ctx, identity.Changed, id); err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("identity changed hooks failed")
	}

	return ctx, id
}

// SaveSession writes data and sets the session cookie. A new session id is
// generated when sessionID is empty. It returns the id used.
func SaveSession(c *fiber.Ctx, cfg *config.Config, sessionID string, data *session.Data) (string, error) {
	if sessionID == "" {
		var err error
		if sessionID, err = session.GenerateSessionID(); err != nil {
			return "", err //nolint:wrapcheck
		}
	}

	exp := cfg.Webserver.Session.ExpiryTime

	if err := data.Write(sessionID, exp); err != nil {
		return "", err //nolint:wrapcheck
	}

	c.Cookie(&fiber.Cookie{
		Name:     cookieName(cfg),
		Value:    sessionID,
		MaxAge:   int(exp.Seconds()),
		Secure:   !cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	c.Locals(LocalsSessionID, sessionID)
	c.Locals(LocalsSession, data)

	return sessionID, nil
}

// ClearSession deletes the session and expires the cookie.
func ClearSession(c *fiber.Ctx, cfg *config.Config, sessionID string) {
	if sessionID != "" {
		if err := session.Delete(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     cookieName(cfg),
		Value:    "",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   !cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// SessionCookie returns the session id sent by the client.
func SessionCookie(c *fiber.Ctx, cfg *config.Config) string {
	return c.Cookies(cookieName(cfg))
}

func cookieName(cfg *config.Config) string {
	if cfg.Webserver.Session.CookieName == "" {
		return "session"
	}

	return cfg.Webserver.Session.CookieName
}
