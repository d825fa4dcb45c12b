package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"lessonbook-server-go/auth"
)

// RequireAuth resolves the bearer access code and stores the identity on the
// context. Missing or malformed headers fail before any store lookup.
func (h *APIHandler) RequireAuth(c *gin.Context) {
	token, err := auth.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := h.Auth.Resolve(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(identityKey, id)
	c.Next()
}

// RequireAdmin rejects callers without the admin role
func (h *APIHandler) RequireAdmin(c *gin.Context) {
	if !identity(c).IsAdmin() {
		h.fail(c, forbidden("Admin access required"))
		return
	}
	c.Next()
}

func (h *APIHandler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			h.Log.Warn("request", fields...)
			return
		}
		h.Log.Info("request", fields...)
	}
}

// rateLimiter is a fixed budget of requests per client IP per window
func (h *APIHandler) rateLimiter() gin.HandlerFunc {
	rate := limiter.Rate{Period: h.Config.RateLimitWindow, Limit: h.Config.RateLimitMax}
	instance := limiter.New(memory.NewStore(), rate)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			h.fail(c, err)
		}),
	)
}

func (h *APIHandler) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins:     h.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	// cors.New panics on an empty origin list
	if len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*") {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cors.New(cfg)
}
