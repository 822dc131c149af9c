package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cernauth/cernauth/internal/cern"
	"github.com/cernauth/cernauth/internal/config"
	"github.com/cernauth/cernauth/internal/db/models"
	"github.com/cernauth/cernauth/internal/identity"
	"github.com/cernauth/cernauth/internal/web/handler"
	"github.com/cernauth/cernauth/internal/web/session"
)

type noDirectory struct{}

func (noDirectory) LookupByEmail(context.Context, string) cern.Resource { return cern.Resource{} }

type fixture struct {
	app  *fiber.App
	db   *gorm.DB
	user *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	session.Init(nil)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RemoteAccount{}, &models.RemoteToken{}, &models.UserIdentity{}))

	user := &models.User{Username: "jdoe", Email: "jane.doe@cern.ch", Active: true}
	require.NoError(t, db.Create(user).Error)

	cfg := &config.Config{CERN: cern.Config{ClientID: "client"}}

	remote, err := cern.New(cfg.CERN, db, cern.WithDirectory(noDirectory{}))
	require.NoError(t, err)

	bus := identity.NewBus()
	remote.Register(bus)

	app := fiber.New()
	app.Use(Identity(&handler.Deps{Config: cfg, DB: db, Bus: bus, CERN: remote}))

	app.Get("/whoami", func(c *fiber.Ctx) error {
		id := identity.FromContext(c.UserContext())
		req, ok := cern.RequestFromContext(c.UserContext())
		require.True(t, ok)

		return c.JSON(fiber.Map{"id": id.ID, "provides": id.Provides(), "has_user": req.User != nil})
	})
	app.Get("/private", RequireAuthenticated, func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/staff", RequireNeed(identity.RoleNeed("it-dep@cern.ch")), func(c *fiber.Ctx) error { return c.SendString("ok") })

	return &fixture{app: app, db: db, user: user}
}

func (f *fixture) session(t *testing.T, roles ...identity.Need) string {
	t.Helper()

	id, err := session.GenerateSessionID()
	require.NoError(t, err)

	data := &session.Data{User: *f.user}
	if len(roles) > 0 {
		data.SetProvides(cern.DefaultSessionKey, roles)
	}

	require.NoError(t, data.Write(id, time.Hour))

	return id
}

func (f *fixture) get(t *testing.T, target, sid string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: sid})
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func TestIdentityAnonymous(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/private?x=1", "")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fprivate%3Fx%3D1", resp.Header.Get("Location"))

	resp = f.get(t, "/staff", "unknown-session")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestIdentityRestoresSessionClaims(t *testing.T) {
	f := newFixture(t)
	sid := f.session(t, identity.UserNeed("jane.doe@cern.ch"), identity.RoleNeed("it-dep@cern.ch"))

	resp := f.get(t, "/private", sid)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = f.get(t, "/staff", sid)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireNeedForbidden(t *testing.T) {
	f := newFixture(t)
	sid := f.session(t, identity.RoleNeed("other@cern.ch"))

	resp := f.get(t, "/staff", sid)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestIdentityDisabledUserIsAnonymous(t *testing.T) {
	f := newFixture(t)
	sid := f.session(t, identity.RoleNeed("it-dep@cern.ch"))

	require.NoError(t, f.db.Model(f.user).Update("active", false).Error)

	resp := f.get(t, "/staff", sid)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = f.get(t, "/private", sid)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}
