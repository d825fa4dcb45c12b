package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// Router builds the gin engine with every route and middleware attached.
// ClientIP, and with it the rate limit key, only honours X-Forwarded-For from
// the configured trusted proxies.
func (h *APIHandler) Router() (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(h.Config.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(h.recovery(), h.requestLogger(), h.metrics.middleware(), h.corsMiddleware())

	router.GET("/", RootHandler)
	router.GET("/health", HealthHandler)
	router.GET("/metrics", h.RequireAuth, h.RequireAdmin, h.metrics.handler())

	api := router.Group("/api", h.rateLimiter())
	{
		// Auth routes
		api.POST("/auth/login", h.Login)
		api.GET("/auth/validate", h.RequireAuth, h.ValidateSession)

		protected := api.Group("", h.RequireAuth)
		admin := protected.Group("", h.RequireAdmin)

		// Student routes
		protected.GET("/students", h.GetStudents)
		protected.GET("/students/:id", h.GetStudent)
		admin.POST("/students", h.CreateStudent)
		admin.POST("/students/import", h.ImportStudents)
		admin.PUT("/students/:id", h.UpdateStudent)
		admin.DELETE("/students/:id", h.DeleteStudent)
		admin.POST("/students/:id/generate-code", h.GenerateAccessCode)

		// Event routes
		protected.GET("/events", h.GetEvents)
		admin.POST("/events", h.CreateEvent)
		admin.POST("/events/copy", h.CopyEvents)
		admin.PUT("/events/:id", h.UpdateEvent)
		admin.DELETE("/events/:id", h.DeleteEvent)

		// Paid lesson routes
		protected.GET("/payments", h.GetPayments)
		admin.PUT("/payments/:studentId", h.SetPayment)
		admin.POST("/payments/:studentId/add", h.AddPayment)

		// Note routes
		protected.GET("/notes", h.GetNotes)
		protected.GET("/notes/:studentId", h.GetStudentNotes)
		admin.PUT("/notes/:studentId", h.UpdateNotes)

		// Announcement routes
		protected.GET("/announcements/current", h.GetAnnouncement)
		admin.POST("/announcements", h.CreateAnnouncement)
		admin.DELETE("/announcements/current", h.DeleteAnnouncement)

		// Settings routes
		protected.GET("/settings", h.GetSettings)
		admin.PUT("/settings", h.UpdateSettings)
	}

	router.NoRoute(func(c *gin.Context) {
		h.fail(c, notFound("Route not found"))
	})
	return router, nil
}
