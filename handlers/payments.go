package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lessonbook-server-go/models"
	"lessonbook-server-go/validation"
)

// GetPayments handles GET /api/payments
func (h *APIHandler) GetPayments(c *gin.Context) {
	payments, err := h.Repo.ListPayments(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	caller := identity(c)
	if !caller.IsAdmin() {
		own := []models.PaidLessons{}
		for _, p := range payments {
			if p.StudentID == caller.StudentID {
				own = append(own, p)
			}
		}
		payments = own
	}
	c.JSON(http.StatusOK, payments)
}

// SetPayment handles PUT /api/payments/:studentId
func (h *APIHandler) SetPayment(c *gin.Context) {
	studentID := c.Param("studentId")
	ctx := c.Request.Context()
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if check := validation.PaidCount(body); !check.Valid {
		h.fail(c, validationFailed(check.Errors))
		return
	}
	if err := h.requireStudent(ctx, studentID); err != nil {
		h.fail(c, err)
		return
	}

	count, _ := validation.AsNumber(body["count"])
	payment, err := h.Repo.SetPaidLessons(ctx, studentID, count)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// AddPayment handles POST /api/payments/:studentId/add
func (h *APIHandler) AddPayment(c *gin.Context) {
	studentID := c.Param("studentId")
	ctx := c.Request.Context()
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if check := validation.PaidLessonsAdd(body); !check.Valid {
		h.fail(c, validationFailed(check.Errors))
		return
	}
	if err := h.requireStudent(ctx, studentID); err != nil {
		h.fail(c, err)
		return
	}

	lessons, _ := validation.AsNumber(body["lessons"])
	payment, err := h.Repo.AddPaidLessons(ctx, studentID, lessons)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
