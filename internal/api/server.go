// Package api exposes the ledger over HTTP using fiber.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/tally/internal/auth"
	"github.com/Veraticus/tally/internal/engine"
	"github.com/Veraticus/tally/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures a Server. Ledger and Accounts are required.
type Options struct {
	Ledger   *engine.Ledger
	Accounts *auth.Accounts
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	// CORSOrigin is passed to the CORS middleware verbatim. Empty means "*".
	CORSOrigin string
	// AuthRateLimit caps requests per minute per client IP on /register/ and
	// /login/. Zero disables the limiter.
	AuthRateLimit int
}

// Server is the HTTP front of the ledger.
type Server struct {
	app      *fiber.App
	ledger   *engine.Ledger
	accounts *auth.Accounts
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewServer builds the fiber application and registers every route.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		ledger:   opts.Ledger,
		accounts: opts.Accounts,
		metrics:  opts.Metrics,
		logger:   logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "tally",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          s.handleError,
	})

	origin := opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	s.app.Use(requestContext())
	s.app.Use(s.requestLogger())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: origin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	if opts.Gatherer != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	s.app.Get("/categories/", s.handleCategories)

	authLimit := func(c *fiber.Ctx) error { return c.Next() }
	if opts.AuthRateLimit > 0 {
		authLimit = limiter.New(limiter.Config{
			Max:        opts.AuthRateLimit,
			Expiration: time.Minute,
			LimitReached: func(*fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests")
			},
		})
	}
	s.app.Post("/register/", authLimit, s.handleRegister)
	s.app.Post("/login/", authLimit, s.handleLogin)

	requireUser := s.requireUser()
	s.app.Post("/transactions/", requireUser, s.handleCreateTransaction)
	s.app.Get("/transactions/", requireUser, s.handleListTransactions)
	s.app.Get("/analytics/monthly/", requireUser, s.handleMonthly)
	s.app.Get("/analytics/monthly/chart", requireUser, s.handleMonthlyChart)

	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("HTTP API listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
