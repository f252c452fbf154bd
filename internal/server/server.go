package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/neuro21/neuro21/internal/config"
	"github.com/neuro21/neuro21/internal/routes"
	"github.com/neuro21/neuro21/internal/session"
)

// Server wraps the Fiber application and the session registry it serves.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	registry *session.Registry
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	registry, err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger})
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, registry: registry}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// SweepSessions drops idle in-memory session stores until ctx is done.
func (s *Server) SweepSessions(ctx context.Context) {
	every := s.cfg.SessionIdle / 2
	if every <= 0 {
		every = time.Minute
	}
	s.registry.Run(ctx, every, s.cfg.SessionIdle)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
