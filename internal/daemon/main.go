// Package daemon opens the database and session storage and runs the web service.
package daemon

import (
	"context"
	"fmt"
	"strconv"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cernauth/cernauth/internal/auth"
	"github.com/cernauth/cernauth/internal/cern"
	"github.com/cernauth/cernauth/internal/config"
	"github.com/cernauth/cernauth/internal/db/dsn"
	"github.com/cernauth/cernauth/internal/db/models"
	"github.com/cernauth/cernauth/internal/identity"
	"github.com/cernauth/cernauth/internal/web"
	"github.com/cernauth/cernauth/internal/web/handler"
	"github.com/cernauth/cernauth/internal/web/session"
)

const sessionTable = "sessions"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the web service on the configured port and blocks until it
// was shut down by a signal.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(":" + strconv.Itoa(d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, handler.ErrNilDeps
	}

	db, err := OpenDB(&cfg.DB)
	if err != nil {
		return nil, err
	}

	if err = Migrate(db); err != nil {
		return nil, err
	}

	if err = seed(cfg, db); err != nil {
		return nil, err
	}

	session.Init(sessionStorage(&cfg.DB))

	provider, err := auth.NewOAuthProvider(ctx, cfg.CERN.OAuth())
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up CERN OAuth")
	}

	remote, err := cern.New(cfg.CERN, db, cern.WithClientFactory(provider))
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up CERN remote application")
	}

	bus := identity.NewBus()
	remote.Register(bus)

	deps := &handler.Deps{
		Config: cfg,
		DB:     db,
		Bus:    bus,
		CERN:   remote,
		OAuth:  provider,
	}

	return &Daemon{
		cfg:        cfg,
		webService: web.New(deps),
	}, nil
}

// OpenDB opens the database selected by GormEngine.
func OpenDB(cfg *config.DB) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.GormEngine {
	case config.EngineMySQL, "":
		dialector = gormmysql.Open(dsn.MySQL(cfg))
	case config.EnginePostgres:
		dialector = gormpostgres.Open(dsn.Postgres(cfg))
	case config.EngineSQLite:
		dialector = sqlite.Open(cfg.Name)
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownGormEngine, cfg.GormEngine)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if cfg.GormEngine == config.EngineSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to access sqlite handle")
		}

		sqlDB.SetMaxOpenConns(1)
	}

	log.Info().Str("engine", cfg.GormEngine).Str("host", cfg.Host).Str("name", cfg.Name).Msg("database connected")

	return db, nil
}

// Migrate creates or updates the tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.RemoteAccount{},
		&models.RemoteToken{},
		&models.UserIdentity{},
	)

	return errors.Wrap(err, "failed to migrate database")
}

// sessionStorage keeps sessions in the application database. SQLite
// deployments keep them in memory.
func sessionStorage(cfg *config.DB) fiber.Storage {
	switch cfg.GormEngine {
	case config.EngineMySQL, "":
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.MySQL(cfg),
			Table:         sessionTable,
		})
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Postgres(cfg),
			Table:         sessionTable,
		})
	default:
		return nil
	}
}
