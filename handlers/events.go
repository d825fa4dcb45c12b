package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lessonbook-server-go/db"
	"lessonbook-server-go/models"
	"lessonbook-server-go/schedule"
	"lessonbook-server-go/validation"
)

// GetEvents handles GET /api/events. Students only see their own lessons.
func (h *APIHandler) GetEvents(c *gin.Context) {
	caller := identity(c)
	var (
		events []models.Event
		err    error
	)
	if caller.IsAdmin() {
		events, err = h.Repo.ListEvents(c.Request.Context())
	} else {
		events, err = h.Repo.ListEventsByStudent(c.Request.Context(), caller.StudentID)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// CreateEvent handles POST /api/events
func (h *APIHandler) CreateEvent(c *gin.Context) {
	ctx := c.Request.Context()
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if check := validation.Event(body); !check.Valid {
		h.fail(c, validationFailed(check.Errors))
		return
	}

	ev := models.Event{
		Date:      body["date"].(string),
		Time:      body["time"].(string),
		StudentID: body["studentId"].(string),
	}
	ev.Notes, _ = body["notes"].(string)
	if err := h.requireStudent(ctx, ev.StudentID); err != nil {
		h.fail(c, err)
		return
	}

	created, err := h.Repo.CreateEvent(ctx, ev)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateEvent handles PUT /api/events/:id
func (h *APIHandler) UpdateEvent(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if check := validation.EventUpdate(body); !check.Valid {
		h.fail(c, validationFailed(check.Errors))
		return
	}

	if _, err := h.Repo.GetEvent(ctx, id); err != nil {
		h.fail(c, eventLookupError(err))
		return
	}

	fields := map[string]interface{}{}
	for _, key := range []string{"date", "time", "studentId", "notes"} {
		if v, ok := body[key]; ok && v != nil {
			fields[key] = v
		}
	}
	if studentID, ok := fields["studentId"].(string); ok {
		if err := h.requireStudent(ctx, studentID); err != nil {
			h.fail(c, err)
			return
		}
	}

	updated, err := h.Repo.UpdateEvent(ctx, id, fields)
	if err != nil {
		h.fail(c, eventLookupError(err))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteEvent handles DELETE /api/events/:id
func (h *APIHandler) DeleteEvent(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if _, err := h.Repo.GetEvent(ctx, id); err != nil {
		h.fail(c, eventLookupError(err))
		return
	}
	if err := h.Repo.DeleteEvent(ctx, id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event deleted"})
}

// CopyEvents handles POST /api/events/copy
func (h *APIHandler) CopyEvents(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if check := validation.CopyRequest(body); !check.Valid {
		h.fail(c, validationFailed(check.Errors))
		return
	}

	copyType := body["copyType"].(string)
	from, _ := schedule.ParseDate(body["fromDate"].(string))
	to, _ := schedule.ParseDate(body["toDate"].(string))

	created, err := h.Copier.Copy(c.Request.Context(), copyType, from, to)
	h.metrics.copiedEvents.Add(float64(len(created)))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"copiedCount": len(created),
		"events":      created,
	})
}

func eventLookupError(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return notFound("Event not found")
	}
	return err
}
