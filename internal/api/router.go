package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/debpulse/internal/middleware"
)

const defaultRequestTimeout = 10 * time.Second

// RouterOptions tunes the middleware chain. Zero values fall back to
// defaults (10s request timeout, 60 requests per minute per IP).
type RouterOptions struct {
	RequestTimeout time.Duration
	RateLimit      int
	RateWindow     time.Duration
}

// NewRouter creates the gin engine serving the read API.
//
// Middleware order: RequestID, RequestLogger, RecoveryMiddleware,
// ErrorHandler, RateLimiter, then a per-request context timeout.
// Health probes are mounted by the caller through HealthHandler.Register.
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(opts.RateLimit, opts.RateWindow),
		requestTimeout(opts.RequestTimeout),
	)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/prices", handler.GetPrices)
		v1.GET("/runs", handler.ListRuns)
	}

	return router
}

func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
