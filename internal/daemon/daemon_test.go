package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cernauth/cernauth/internal/auth"
	"github.com/cernauth/cernauth/internal/cern"
	"github.com/cernauth/cernauth/internal/config"
	"github.com/cernauth/cernauth/internal/db/models"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		DB: config.DB{GormEngine: config.EngineSQLite, Name: ":memory:"},
		Webserver: config.Webserver{
			Port:    3000,
			URL:     "http://localhost",
			Session: config.Session{ExpiryTime: time.Hour},
		},
		Auth: config.Auth{
			LocalDB: config.LocalDBAuth{Enabled: true},
			Admin:   config.Admin{Username: "admin", Email: "admin@example.org", Password: "changeme"},
		},
		CERN: cern.Config{ClientID: "client", RedirectURL: "http://localhost/oauth/authorized/cern"},
	}
}

func TestOpenDBUnknownEngine(t *testing.T) {
	_, err := OpenDB(&config.DB{GormEngine: "oracle"})
	require.ErrorIs(t, err, config.ErrUnknownGormEngine)
}

func TestSeedCreatesAdminOnce(t *testing.T) {
	cfg := sqliteConfig()

	db, err := OpenDB(&cfg.DB)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.NoError(t, seed(cfg, db))
	require.NoError(t, seed(cfg, db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	user, err := auth.NewLocalProvider(db).Authenticate("admin", "changeme")
	require.NoError(t, err)
	assert.Equal(t, models.AuthSourceLocal, user.AuthSource)
}

func TestSeedWithoutAdmin(t *testing.T) {
	cfg := sqliteConfig()
	cfg.Auth.Admin = config.Admin{}

	db, err := OpenDB(&cfg.DB)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, seed(cfg, db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSessionStorageSQLiteInMemory(t *testing.T) {
	assert.Nil(t, sessionStorage(&config.DB{GormEngine: config.EngineSQLite}))
}

func TestNewSQLite(t *testing.T) {
	d, err := New(context.Background(), sqliteConfig())
	require.NoError(t, err)
	require.NotNil(t, d.webService)
	assert.True(t, d.webService.Alive())
}

func TestNewRequiresClientID(t *testing.T) {
	cfg := sqliteConfig()
	cfg.CERN.ClientID = ""

	_, err := New(context.Background(), cfg)
	require.ErrorIs(t, err, auth.ErrOAuthClientIDEmpty)
}
