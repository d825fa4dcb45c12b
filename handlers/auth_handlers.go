package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Login handles POST /api/auth/login
func (h *APIHandler) Login(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	code, _ := body["code"].(string)
	code = strings.TrimSpace(code)
	if code == "" {
		h.fail(c, badRequest("Access code is required"))
		return
	}

	id, err := h.Auth.Resolve(c.Request.Context(), code)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": id})
}

// ValidateSession handles GET /api/auth/validate
func (h *APIHandler) ValidateSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "user": identity(c)})
}
