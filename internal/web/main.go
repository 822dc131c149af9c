// Package web assembles the fiber application serving the login, OAuth and
// account endpoints.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/cernauth/cernauth/internal/config"
	"github.com/cernauth/cernauth/internal/identity"
	fiberlogger "github.com/cernauth/cernauth/internal/logger/adapter/fiber"
	"github.com/cernauth/cernauth/internal/web/handler"
	"github.com/cernauth/cernauth/internal/web/handler/account"
	"github.com/cernauth/cernauth/internal/web/handler/login"
	"github.com/cernauth/cernauth/internal/web/handler/logout"
	"github.com/cernauth/cernauth/internal/web/handler/oauth"
	authmw "github.com/cernauth/cernauth/internal/web/middleware/auth"
)

const (
	// CheckAlivePath reports 503 while the service shuts down.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown blocks until SIGINT or SIGTERM and stops the server gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether checkalive answers 200.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// New creates the web service. It panics if a dependency is missing or a
// handler cannot be registered.
func New(deps *handler.Deps) *Service {
	if !deps.Valid() {
		panic(handler.ErrNilDepsFatalLogMsg)
	}

	cfg := deps.Config

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        appName(cfg),
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   errorHandler,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	if cfg.Webserver.CookieEncryptionKey != "" {
		app.Use(encryptcookie.New(encryptcookie.Config{Key: cfg.Webserver.CookieEncryptionKey}))
	}

	app.Use(authmw.Identity(deps))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	service := &Service{
		cfg: cfg,
		App: app,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	metrics := []fiber.Handler{adaptor.HTTPHandler(promhttp.Handler())}
	if cfg.Auth.MetricsRole != "" {
		metrics = append([]fiber.Handler{authmw.RequireNeed(identity.RoleNeed(cfg.Auth.MetricsRole))}, metrics...)
	}

	app.Get(MetricsPath, metrics...)

	services := []handler.Service{&login.Handler, &logout.Handler, &oauth.Handler, &account.Handler}
	for _, svc := range services {
		if err := svc.Init(app, deps); err != nil {
			log.Fatal().Err(err).Msg(handler.ErrNilDepsFatalLogMsg)
		}
	}

	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(handler.LinkedAccountsPath)
	})

	return service
}

func appName(cfg *config.Config) string {
	if cfg.Title != "" {
		return cfg.Title
	}

	return "cernauth"
}

// errorHandler renders handler errors as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.Status(code).JSON(fiber.Map{"error": http.StatusText(code)})
}
