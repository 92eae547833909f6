// Package api exposes the chains, the tally and mail ingestion over HTTP.
package api

import (
	"context"
	"io"
	"time"

	"spreadpool/internal/mailer"
	"spreadpool/internal/models"
	"spreadpool/internal/season"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Resolver is a resolution chain for one entity
type Resolver[T any] interface {
	Fetch(ctx context.Context, week int) ([]T, error)
	Save(ctx context.Context, week int, records []T) (int, error)
	Week(week int) int
}

// Counter recounts a week's tallies
type Counter interface {
	Count(ctx context.Context, week int) ([]models.Tally, error)
}

// Ingester processes a raw pick email
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader) (mailer.Result, error)
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Deps are the services behind the API
type Deps struct {
	Scores   Resolver[models.Score]
	Spreads  Resolver[models.Spread]
	Tally    Counter
	Ingester Ingester
	Calendar *season.Calendar
	Health   map[string]HealthCheck
}

// Server is the HTTP API
type Server struct {
	app  *fiber.App
	deps Deps
	now  func() time.Time
}

// NewServer builds the fiber app and registers every route
func NewServer(deps Deps) *Server {
	s := &Server{
		deps: deps,
		now:  time.Now,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "spreadpool",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		BodyLimit:             10 * 1024 * 1024,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestLogger())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	s.routes()
	return s
}

// WithClock replaces the clock used for the default week
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// App returns the fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	s.app.Get("/scores", s.getScores)
	s.app.Get("/scores/:week", s.getScores)
	s.app.Post("/scores", s.postScore)

	s.app.Get("/spreads", s.getSpreads)
	s.app.Post("/spreads", s.postSpread)

	s.app.Get("/helper/tally", s.getTally)
	s.app.Post("/mail/inbound", s.postInboundMail)

	s.app.Get("/api/v1/status", s.getStatus)
	s.app.Get("/health", s.getHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
		return err
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
