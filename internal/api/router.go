package api

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/faceid/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/faceid/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/faceid/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/faceid/internal/config"
	"github.com/saturnino-fabrica-de-software/faceid/internal/domain"
)

// maxFilesPerRequest bounds the request body relative to the per-image limit
const maxFilesPerRequest = 10

type Dependencies struct {
	Config      *config.Config
	FaceService handler.FaceService
	// Pinger backs /ready; nil means always ready
	Pinger handler.Pinger
	// Gatherer backs /metrics; nil disables the endpoint
	Gatherer prometheus.Gatherer
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "faceid",
		BodyLimit:    int(cfg.MaxImageSize)*maxFilesPerRequest + 1<<20,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	cfg := r.deps.Config

	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	healthHandler := handler.NewHealthHandler(r.deps.Pinger, r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps.Gatherer != nil {
		r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(r.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Published artifacts
	r.app.Static(strings.TrimSuffix(cfg.MediaURLPrefix, "/"), cfg.MediaDir)

	faceHandler := handler.NewFaceHandler(r.deps.FaceService, r.logger, cfg.MaxImageSize)

	// Pipeline routes share the limiter since each one runs inference
	pipeline := []fiber.Handler{}
	if cfg.RateLimitMax > 0 {
		r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: cfg.RateLimitWindow,
		})
		pipeline = append(pipeline, r.rateLimiter.Handler())
	}

	r.postOnly("/face-register/realtime", append(pipeline, faceHandler.Enroll)...)
	r.postOnly("/face-verify", append(pipeline, faceHandler.Verify)...)
	r.postOnly("/face-masking", append(pipeline, faceHandler.Mask)...)

	r.app.Delete("/faces/:user_id", faceHandler.Delete)
}

// postOnly registers a POST route and answers every other verb with 405
func (r *Router) postOnly(path string, handlers ...fiber.Handler) {
	r.app.Post(path, handlers...)
	r.app.All(path, func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAllow, fiber.MethodPost)
		return domain.ErrMethodNotAllowed
	})
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
