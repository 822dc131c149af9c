package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cernauth/cernauth/internal/auth"
	"github.com/cernauth/cernauth/internal/cern"
	"github.com/cernauth/cernauth/internal/config"
	"github.com/cernauth/cernauth/internal/identity"
)

// ErrNilDeps is returned by Init when app or a dependency is missing.
var ErrNilDeps = errors.New(ErrNilDepsFatalLogMsg)

// Deps are the dependencies shared by all handlers.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Bus    *identity.Bus
	CERN   *cern.RemoteApp
	OAuth  *auth.OAuthProvider
}

// Valid reports whether the dependencies every handler needs are set.
func (d *Deps) Valid() bool {
	return d != nil && d.Config != nil && d.DB != nil && d.Bus != nil && d.CERN != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}
