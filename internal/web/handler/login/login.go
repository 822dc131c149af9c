package login

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/cernauth/cernauth/internal/auth"
	"github.com/cernauth/cernauth/internal/identity"
	"github.com/cernauth/cernauth/internal/web/handler"
)

// Path is the path to the login page.
const Path = handler.LoginPath

// Form is the submitted login form.
type Form struct {
	Username string `form:"username" json:"username" validate:"required,max=100"`
	Password string `form:"password" json:"password" validate:"required"`
	Next     string `form:"next" json:"next"`
}

// Service is the login handler service.
type Service struct {
	deps     *handler.Deps
	local    *auth.LocalProvider
	validate *validator.Validate
}

// Handler is the login handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the login routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps
	s.local = auth.NewLocalProvider(deps.DB)
	s.validate = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get describes the available login methods.
func (s *Service) Get(c *fiber.Ctx) error {
	if !identity.FromContext(c.UserContext()).IsAnonymous() {
		return c.Redirect(handler.SafeNext(c.Query("next"), handler.RootPath))
	}

	return c.JSON(fiber.Map{
		"local_db_enabled": s.deps.Config.Auth.LocalDB.Enabled,
		"cern_login_url":   handler.OAuthLoginPath,
		"next":             handler.SafeNext(c.Query("next"), ""),
	})
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	if !s.deps.Config.Auth.LocalDB.Enabled {
		return fiber.NewError(fiber.StatusForbidden, ErrLocalAuthDisabled.Error())
	}

	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, ErrInvalidFormData.Error())
	}

	if err := s.validate.Struct(form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, ErrInvalidFormData.Error())
	}

	user, err := s.local.Authenticate(form.Username, form.Password)

	switch {
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidPassword):
		log.Info().Str("username", form.Username).Msg("failed local login")

		return fiber.NewError(fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrUserAccountDisabled):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case err != nil:
		log.Error().Err(err).Msg("local login failed")

		return fiber.NewError(fiber.StatusInternalServerError, ErrInternalServerError.Error())
	}

	data, sessionID := handler.CurrentSession(c)

	// a fresh session id on every login
	handler.ClearSession(c, s.deps.Config, sessionID)

	handler.SignIn(c.UserContext(), s.deps.Bus, data, nil, user, "local")

	if _, err = handler.SaveSession(c, s.deps.Config, "", data); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return fiber.NewError(fiber.StatusInternalServerError, ErrInternalServerError.Error())
	}

	log.Info().Uint64("user_id", user.ID).Msg("local login")

	return c.Redirect(handler.SafeNext(form.Next, handler.RootPath))
}
