package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterDependencies struct {
	HabitHandler  *HabitHandler
	StreakHandler *StreakHandler

	// TokenService guards /api/v1 when set.
	TokenService *services.TokenService

	// RateLimit applies per caller to /api/v1 when Redis is set and Limit > 0.
	Redis     *redis.Client
	RateLimit middleware.RateLimit

	Checks    map[string]HealthCheck
	StartTime time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		statusCode := http.StatusOK
		body := gin.H{
			"status": "ok",
			"uptime": time.Since(deps.StartTime).String(),
		}

		for name, check := range deps.Checks {
			if err := check(c.Request.Context()); err != nil {
				body[name] = "unreachable"
				body["status"] = "degraded"
				statusCode = http.StatusServiceUnavailable
				continue
			}
			body[name] = "connected"
		}

		c.JSON(statusCode, body)
	})

	apiV1 := router.Group("/api/v1")
	if deps.TokenService != nil {
		apiV1.Use(middleware.AuthMiddleware(deps.TokenService))
	}
	if deps.Redis != nil && deps.RateLimit.Limit > 0 {
		apiV1.Use(middleware.RateLimiter(deps.Redis, deps.RateLimit))
	}

	deps.HabitHandler.RegisterRoutes(apiV1)
	deps.StreakHandler.RegisterRoutes(apiV1)

	return router
}
