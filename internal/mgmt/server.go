// Package mgmt exposes a small management API for operators: persona roster
// and availability, conversation workflow inspection, and the debug-only
// conversation reset.
package mgmt

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/devteam-agent/internal/conversation"
	"github.com/p-blackswan/devteam-agent/internal/persona"
)

// Server is the management HTTP server.
type Server struct {
	app      *fiber.App
	registry *persona.Registry
	tracker  *conversation.Tracker
	apiKey   string
	logger   zerolog.Logger
}

// NewServer creates the management server.
func NewServer(registry *persona.Registry, tracker *conversation.Tracker, apiKey string, logger zerolog.Logger) *Server {
	s := &Server{
		registry: registry,
		tracker:  tracker,
		apiKey:   apiKey,
		logger:   logger.With().Str("component", "mgmt").Logger(),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "devteam-agent-mgmt",
	})

	app.Use(s.authMiddleware())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/personas", s.listPersonas)
	api.Post("/personas/:id/availability", s.setAvailability)
	api.Get("/conversations/:channel/:thread/state", s.getState)
	api.Post("/conversations/:channel/:thread/reset", s.resetState)

	s.app = app
	return s
}

// Listen starts serving on addr. Blocks until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("management API listening")
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App returns the fiber app, used by tests.
func (s *Server) App() *fiber.App { return s.app }
