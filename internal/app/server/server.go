package server

import (
	"context"

	"github.com/clicktally/clicktally/internal/app/service"
	"github.com/clicktally/clicktally/internal/http/handler"
	"github.com/clicktally/clicktally/internal/http/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Dependencies bundles everything the HTTP server needs to route requests.
type Dependencies struct {
	Logger   *zap.Logger
	Postgres *pgxpool.Pool
	Auth     service.AuthService
	Clicks   service.ClickService
	Reports  service.ReportService
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.CORS())
	s.app.Use(middleware.Logger(s.deps.Logger))
}

func (s *Server) registerRoutes() {
	requireSession := middleware.RequireSession(s.deps.Auth, s.deps.Logger)

	clickHandler := handler.NewClickHandler(handler.ClickDeps{
		Logger:   s.deps.Logger,
		Clicks:   s.deps.Clicks,
		Postgres: s.deps.Postgres,
	})
	clickHandler.Register(s.app)

	adminHandler := handler.NewAdminHandler(handler.AdminDeps{
		Logger:  s.deps.Logger,
		Auth:    s.deps.Auth,
		Clicks:  s.deps.Clicks,
		Reports: s.deps.Reports,
	})
	adminHandler.Register(s.app, requireSession)
}
