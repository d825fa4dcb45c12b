package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lessonbook-server-go/auth"
	"lessonbook-server-go/config"
	"lessonbook-server-go/db"
	"lessonbook-server-go/models"
	"lessonbook-server-go/schedule"
)

const (
	appName    = "Lesson Scheduler API"
	appVersion = "1.0.0"

	identityKey = "identity"
)

// APIHandler holds the dependencies shared by every route
type APIHandler struct {
	Repo    *db.Repository
	Auth    *auth.Authenticator
	Copier  *schedule.Copier
	Config  config.Config
	Log     *zap.Logger
	metrics *metrics
}

// NewAPIHandler wires the handler over a repository
func NewAPIHandler(cfg config.Config, repo *db.Repository, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		Repo:    repo,
		Auth:    auth.NewAuthenticator(cfg.AdminCode, repo),
		Copier:  schedule.NewCopier(repo, logger),
		Config:  cfg,
		Log:     logger,
		metrics: newMetrics(),
	}
}

// identity returns the caller resolved by RequireAuth
func identity(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Identity{}
}

// bindBody decodes a JSON object body. Keys absent from the body are absent
// from the map, which drives partial-update semantics.
func bindBody(c *gin.Context) (map[string]interface{}, error) {
	body := map[string]interface{}{}
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, badRequest("Invalid request body")
	}
	return body, nil
}

// HealthHandler handles GET /health
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// RootHandler handles GET /
func RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":     appName,
		"version": appVersion,
		"status":  "running",
	})
}
