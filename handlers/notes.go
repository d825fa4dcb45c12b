package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lessonbook-server-go/models"
	"lessonbook-server-go/validation"
)

// GetNotes handles GET /api/notes
func (h *APIHandler) GetNotes(c *gin.Context) {
	notes, err := h.Repo.ListNotes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	caller := identity(c)
	if !caller.IsAdmin() {
		own := []models.StudentNotes{}
		for _, n := range notes {
			if n.StudentID == caller.StudentID {
				own = append(own, n)
			}
		}
		notes = own
	}
	c.JSON(http.StatusOK, notes)
}

// GetStudentNotes handles GET /api/notes/:studentId
func (h *APIHandler) GetStudentNotes(c *gin.Context) {
	studentID := c.Param("studentId")
	ctx := c.Request.Context()
	if !identity(c).Owns(studentID) {
		h.fail(c, forbidden("Access denied"))
		return
	}
	if err := h.requireStudent(ctx, studentID); err != nil {
		h.fail(c, err)
		return
	}
	notes, err := h.Repo.GetNotes(ctx, studentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// UpdateNotes handles PUT /api/notes/:studentId
func (h *APIHandler) UpdateNotes(c *gin.Context) {
	studentID := c.Param("studentId")
	ctx := c.Request.Context()
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if check := validation.Notes(body); !check.Valid {
		h.fail(c, validationFailed(check.Errors))
		return
	}
	if err := h.requireStudent(ctx, studentID); err != nil {
		h.fail(c, err)
		return
	}
	notes, err := h.Repo.SetNotes(ctx, studentID, body["notes"].(string))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}
