// Package logout ends the session of the current user.
package logout

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cernauth/cernauth/internal/identity"
	"github.com/cernauth/cernauth/internal/web/handler"
)

// Service is the logout handler service.
type Service struct {
	deps *handler.Deps
}

// Handler is the logout handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the logout route. Logout only answers POST so that a
// cross-site link cannot end the session.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Post(handler.LogoutPath, s.Logout)

	return nil
}

// Logout revokes the session's role claims and deletes the session.
func (s *Service) Logout(c *fiber.Ctx) error {
	data, sessionID := handler.CurrentSession(c)

	s.deps.CERN.DisconnectIdentity(identity.FromContext(c.UserContext()), data)

	handler.ClearSession(c, s.deps.Config, sessionID)

	return c.Redirect(handler.LoginPath)
}
