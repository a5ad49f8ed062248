package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stemsi/mockview-backend/internal/config"
	"github.com/stemsi/mockview-backend/internal/handler"
	"github.com/stemsi/mockview-backend/internal/middleware"
	"github.com/stemsi/mockview-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Interview *handler.InterviewHandler
	Health    *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth middleware.TokenAuthenticator,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Metrics())

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	// Anonymous callers are limited per IP, signed-in callers per user.
	ipLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	userLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	requireUser := middleware.RequireUserJWT(auth)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	authAPI := router.Group("/api/v1/auth")
	authAPI.Use(middleware.NoStore())
	{
		authAPI.POST("/register", ipLimiter.Middleware(), handlers.Auth.Register)
		authAPI.POST("/login", ipLimiter.Middleware(), handlers.Auth.Login)

		authAPI.GET("/me", requireUser, handlers.Auth.Me)
		authAPI.POST("/logout", requireUser, handlers.Auth.Logout)
	}

	// ─── 2. Interview Group (JWT) ──────────────────────────────────────
	interviewAPI := router.Group("/api/v1/interview")
	interviewAPI.Use(
		requireUser,
		userLimiter.Middleware(),
		middleware.NoStore(),
		middleware.Brotli(),
	)
	{
		interviewAPI.POST("/start", handlers.Interview.Start)
		interviewAPI.POST("/answer", handlers.Interview.Answer)
		interviewAPI.POST("/complete", handlers.Interview.Complete)
		interviewAPI.GET("/report/:session_id", handlers.Interview.GetReport)
		interviewAPI.GET("/history", handlers.Interview.History)
		interviewAPI.GET("/stats", handlers.Interview.Stats)
	}

	return router
}
