package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lessonbook-server-go/models"
	"lessonbook-server-go/validation"
)

// GetSettings handles GET /api/settings
func (h *APIHandler) GetSettings(c *gin.Context) {
	settings, err := h.Repo.GetSettings(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/settings
func (h *APIHandler) UpdateSettings(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if check := validation.Settings(body); !check.Valid {
		h.fail(c, validationFailed(check.Errors))
		return
	}
	settings, err := h.Repo.SetSettings(c.Request.Context(), models.Settings{
		IsDarkMode: body["isDarkMode"].(bool),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
