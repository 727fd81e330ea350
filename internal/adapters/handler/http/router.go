package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

type RouterDependencies struct {
	AuthHandler      *AuthHandler
	ChallengeHandler *ChallengeHandler
	HabitHandler     *HabitHandler
	StatsHandler     *StatsHandler
	BlobHandler      *BlobHandler
	TokenService     middleware.TokenValidator
	Sessions         *services.SessionManager
	// DB and Redis are optional; nil reports the dependency as disabled.
	DB        *sqlx.DB
	Redis     *redis.Client
	RateLimit int
	Logger    *zap.Logger
	StartTime time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(requestLogger(deps.Logger), gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/health", health(deps))

	var limiter gin.HandlerFunc
	if deps.Redis != nil && deps.RateLimit > 0 {
		limiter = middleware.RateLimiterMiddleware(deps.Redis, deps.RateLimit, 1*time.Minute, deps.Logger)
	}

	apiV1 := router.Group("/api/v1")

	public := apiV1.Group("")
	if limiter != nil {
		public.Use(limiter)
	}
	deps.AuthHandler.RegisterRoutes(public)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(deps.TokenService))
	if limiter != nil {
		authenticated.Use(limiter)
	}
	{
		deps.AuthHandler.RegisterProtectedRoutes(authenticated)
		deps.BlobHandler.RegisterRoutes(authenticated)
	}

	session := authenticated.Group("")
	session.Use(middleware.SessionMiddleware(deps.Sessions))
	{
		deps.ChallengeHandler.RegisterRoutes(session)
		deps.HabitHandler.RegisterRoutes(session)
		deps.StatsHandler.RegisterRoutes(session)
	}

	return router
}

func health(deps RouterDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "disabled"
		if deps.DB != nil {
			dbStatus = "connected"
			if err := deps.DB.PingContext(c.Request.Context()); err != nil {
				dbStatus = "unreachable"
			}
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if err := deps.Redis.Ping(c.Request.Context()).Err(); err != nil {
				redisStatus = "unreachable"
			}
		}

		statusCode := 200
		if dbStatus == "unreachable" || redisStatus == "unreachable" {
			statusCode = 503
		}

		c.JSON(statusCode, gin.H{
			"status":   "ok",
			"database": dbStatus,
			"redis":    redisStatus,
			"sessions": deps.Sessions.Len(),
			"uptime":   time.Since(deps.StartTime).String(),
		})
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.With(zap.String("component", "http"))
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if uid, ok := middleware.GetUserID(c); ok {
			fields = append(fields, zap.String("uid", uid))
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("request failed", append(fields, zap.Strings("errors", c.Errors.Errors()))...)
		case len(c.Errors) > 0:
			logger.Warn("request rejected", append(fields, zap.Strings("errors", c.Errors.Errors()))...)
		default:
			logger.Debug("request", fields...)
		}
	}
}
