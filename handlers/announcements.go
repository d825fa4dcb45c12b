package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lessonbook-server-go/db"
	"lessonbook-server-go/models"
	"lessonbook-server-go/validation"
)

// GetAnnouncement handles GET /api/announcements/current. With nothing
// stored it answers with an inactive, empty announcement.
func (h *APIHandler) GetAnnouncement(c *gin.Context) {
	a, err := h.Repo.GetAnnouncement(c.Request.Context())
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusOK, models.Announcement{})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// CreateAnnouncement handles POST /api/announcements, replacing the current one
func (h *APIHandler) CreateAnnouncement(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if check := validation.Announcement(body); !check.Valid {
		h.fail(c, validationFailed(check.Errors))
		return
	}

	a := models.Announcement{
		Title:   body["title"].(string),
		Message: body["message"].(string),
		Active:  true,
	}
	if active, ok := body["active"].(bool); ok {
		a.Active = active
	}
	saved, err := h.Repo.SetAnnouncement(c.Request.Context(), a)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// DeleteAnnouncement handles DELETE /api/announcements/current
func (h *APIHandler) DeleteAnnouncement(c *gin.Context) {
	if err := h.Repo.DeleteAnnouncement(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Announcement removed"})
}
