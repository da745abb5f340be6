// Package httpapi wires the Gin engine: cross-cutting middleware, the
// services built on the document store, and the route table.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-climb-backend/internal/config"
	"github.com/tbourn/go-climb-backend/internal/docstore"
	"github.com/tbourn/go-climb-backend/internal/http/handlers"
	"github.com/tbourn/go-climb-backend/internal/http/middleware"
	"github.com/tbourn/go-climb-backend/internal/services"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "Idempotency-Replayed", "Retry-After", "Content-Length"}
)

// RegisterRoutes attaches middleware and endpoints to r.
//
// Middleware order matters:
//  1. otelgin: trace everything
//  2. RequestID
//  3. Logger (scrubbed access log, request-scoped logger)
//  4. Recovery: after the logger so panics carry the request id
//  5. body size limit, gzip
//  6. Metrics
//  7. IdempotencyValidator: before the limiter so replays bypass it
//  8. RateLimiter
//  9. CORS, security headers
func RegisterRoutes(r *gin.Engine, store docstore.Store, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	regSvc := &services.RegistrationService{Store: store, Validate: services.NewValidator()}
	routeSvc := &services.RouteService{
		Store:          store,
		Validate:       regSvc.Validate,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{"X-API-Key"},
		LogHeaders:  cfg.LogLevel == "debug",
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 128, ScopeParam: "gymId"},
		routeSvc.HasReplay,
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIPAndRoute())
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	h := handlers.New(regSvc, routeSvc, store)
	if store != nil {
		h.ReadyTimeout = cfg.Store.OpTimeout
	}
	if h.ReadyTimeout <= 0 {
		h.ReadyTimeout = 2 * time.Second
	}

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/users/registration/create/:userId", h.RegisterUser)
		api.GET("/users/:userId", h.GetUser)

		api.POST("/gyms/registration/create", h.RegisterGym)
		api.GET("/gyms/:gymId", h.GetGym)

		api.POST("/gyms/:gymId/routes/create", h.CreateRoute)
		api.GET("/gyms/:gymId/routes/:routeId", h.GetRoute)
	}
}

// corsMiddleware allows every origin when none are configured and otherwise
// echoes allow-listed origins. The explicit ACAO writer runs first so the
// header is present even on requests without preflight.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	if len(origins) == 0 {
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins: true,
				AllowMethods:    corsMethods,
				AllowHeaders:    corsHeaders,
				ExposeHeaders:   corsExpose,
				MaxAge:          12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  corsMethods,
			AllowHeaders:  corsHeaders,
			ExposeHeaders: corsExpose,
			MaxAge:        12 * time.Hour,
		}),
	}
}

// limitBody caps request bodies at maxBytes; reads past it fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
