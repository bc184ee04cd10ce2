package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/koraei/bank/internal/config"
	"github.com/koraei/bank/internal/routes"
)

// Server wraps the Fiber application and the runtime it serves.
type Server struct {
	app     *fiber.App
	cfg     config.Config
	runtime *routes.Runtime
	logger  *slog.Logger
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *gorm.DB, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: !cfg.IsDevelopment(),
		ErrorHandler:          routes.ErrorHandler(logger),
	})

	rt, err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger})
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, runtime: rt, logger: logger}, nil
}

// App exposes the underlying Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	s.logger.Info("listening", slog.String("addr", s.cfg.Address()), slog.String("env", s.cfg.AppEnv))
	return s.app.Listen(s.cfg.Address())
}

// Shutdown stops accepting requests, then drains queued ledger work.
func (s *Server) Shutdown(ctx context.Context) error {
	httpErr := s.app.ShutdownWithContext(ctx)
	return errors.Join(httpErr, s.runtime.Close(ctx))
}
