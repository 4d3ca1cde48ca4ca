package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/veilworks/faceveil/internal/api/docs"
	"github.com/veilworks/faceveil/internal/api/handler"
	"github.com/veilworks/faceveil/internal/api/middleware"
	"github.com/veilworks/faceveil/internal/config"
	"github.com/veilworks/faceveil/internal/ratelimit"
	"github.com/veilworks/faceveil/internal/service"
	"github.com/veilworks/faceveil/internal/storage"
	"github.com/veilworks/faceveil/internal/ws"
)

// Dependencies holds everything the routes need. main wires these up and
// owns their lifecycles; the router only binds them to paths.
type Dependencies struct {
	Sessions *service.SessionService
	Store    *storage.Store
	Limiter  *ratelimit.Limiter
	Hub      *ws.Hub
	DB       *pgxpool.Pool
	Config   *config.Config
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "FaceVeil API",
		BodyLimit:    int(deps.Config.MaxUploadBytes),
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints (no auth required)
	healthHandler := handler.NewHealthHandler(r.deps.DB, r.deps.Store)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// Rate limit only the routes that start expensive work.
	limit := middleware.RateLimit(r.deps.Limiter, r.deps.Config.RateLimitRequests, r.logger)

	sessionHandler := handler.NewSessionHandler(r.deps.Sessions, r.logger)

	apiGroup := r.app.Group("/api")
	apiGroup.Post("/upload", limit, sessionHandler.Upload)
	apiGroup.Post("/sessions/:id/analyze", limit, sessionHandler.Analyze)
	apiGroup.Get("/sessions/:id/analysis", sessionHandler.Analysis)
	apiGroup.Post("/sessions/:id/preview", limit, sessionHandler.Preview)
	apiGroup.Post("/sessions/:id/process", limit, sessionHandler.Process)
	apiGroup.Get("/sessions/:id/status", sessionHandler.Status)
	apiGroup.Get("/sessions/:id/download", sessionHandler.Download)
	apiGroup.Get("/sessions/:id/preview-file", sessionHandler.PreviewFile)

	// Admin routes behind the bearer token
	adminHandler := handler.NewAdminHandler(r.deps.Sessions, r.logger)
	adminAuth := middleware.AdminAuth(r.deps.Config.AdminToken)
	apiGroup.Delete("/sessions/:id", adminAuth, adminHandler.DeleteSession)
	apiGroup.Get("/stats", adminAuth, adminHandler.Stats)

	// WebSocket progress stream
	r.app.Get("/ws/sessions/:id", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
