package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lessonbook-server-go/auth"
	"lessonbook-server-go/db"
	"lessonbook-server-go/models"
	"lessonbook-server-go/validation"
)

const maxCodeAttempts = 5

// GetStudents handles GET /api/students
func (h *APIHandler) GetStudents(c *gin.Context) {
	caller := identity(c)
	if caller.IsAdmin() {
		students, err := h.Repo.ListStudents(c.Request.Context())
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, students)
		return
	}

	students := []models.Student{}
	own, err := h.Repo.GetStudent(c.Request.Context(), caller.StudentID)
	switch {
	case errors.Is(err, db.ErrNotFound):
	case err != nil:
		h.fail(c, err)
		return
	default:
		students = append(students, *own)
	}
	c.JSON(http.StatusOK, students)
}

// GetStudent handles GET /api/students/:id
func (h *APIHandler) GetStudent(c *gin.Context) {
	id := c.Param("id")
	if !identity(c).Owns(id) {
		h.fail(c, forbidden("Access denied"))
		return
	}
	student, err := h.Repo.GetStudent(c.Request.Context(), id)
	if err != nil {
		h.fail(c, studentLookupError(err))
		return
	}
	c.JSON(http.StatusOK, student)
}

// CreateStudent handles POST /api/students
func (h *APIHandler) CreateStudent(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if check := validation.Student(body); !check.Valid {
		h.fail(c, validationFailed(check.Errors))
		return
	}

	name := strings.TrimSpace(body["name"].(string))
	rate, _ := validation.AsNumber(body["rate"])
	student, err := h.Repo.CreateStudent(c.Request.Context(), name, rate)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// UpdateStudent handles PUT /api/students/:id. Only name and rate present in
// the body are changed.
func (h *APIHandler) UpdateStudent(c *gin.Context) {
	id := c.Param("id")
	body, err := bindBody(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if check := validation.StudentUpdate(body); !check.Valid {
		h.fail(c, validationFailed(check.Errors))
		return
	}

	fields := map[string]interface{}{}
	if name, ok := body["name"].(string); ok {
		fields["name"] = strings.TrimSpace(name)
	}
	if _, ok := body["rate"]; ok {
		fields["rate"], _ = validation.AsNumber(body["rate"])
	}

	student, err := h.Repo.UpdateStudent(c.Request.Context(), id, fields)
	if err != nil {
		h.fail(c, studentLookupError(err))
		return
	}
	c.JSON(http.StatusOK, student)
}

// DeleteStudent handles DELETE /api/students/:id
func (h *APIHandler) DeleteStudent(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if err := h.requireStudent(ctx, id); err != nil {
		h.fail(c, err)
		return
	}
	removed, err := h.Repo.DeleteStudent(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Student deleted",
		"deletedEvents": removed,
	})
}

// GenerateAccessCode handles POST /api/students/:id/generate-code. The code
// overwrites any previous one; draws that collide with another student's code
// are retried.
func (h *APIHandler) GenerateAccessCode(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if err := h.requireStudent(ctx, id); err != nil {
		h.fail(c, err)
		return
	}

	var code string
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		candidate, err := auth.GenerateAccessCode()
		if err != nil {
			h.fail(c, err)
			return
		}
		holders, err := h.Repo.FindStudentsByAccessCode(ctx, candidate)
		if err != nil {
			h.fail(c, err)
			return
		}
		if len(holders) == 0 || (len(holders) == 1 && holders[0].ID == id) {
			code = candidate
			break
		}
		h.Log.Warn("access code collision, retrying", zap.String("studentId", id))
	}
	if code == "" {
		h.fail(c, errors.New("could not generate a unique access code"))
		return
	}

	if err := h.Repo.SetAccessCode(ctx, id, code); err != nil {
		h.fail(c, studentLookupError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "accessCode": code})
}

// ImportStudents handles POST /api/students/import (multipart field "file")
func (h *APIHandler) ImportStudents(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.fail(c, badRequest("Missing spreadsheet upload in field 'file'"))
		return
	}
	defer file.Close()

	h.Log.Info("student import received", zap.String("filename", header.Filename), zap.Int64("size", header.Size))
	result, err := h.Repo.ImportStudentsFromExcel(c.Request.Context(), file)
	if err != nil {
		if result == nil {
			h.fail(c, badRequest("Could not read spreadsheet: "+err.Error()))
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"importedCount": len(result.Imported),
		"students":      result.Imported,
		"skipped":       result.Skipped,
	})
}

// requireStudent returns a 404 APIError when the student does not exist
func (h *APIHandler) requireStudent(ctx context.Context, id string) error {
	exists, err := h.Repo.StudentExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return notFound("Student not found")
	}
	return nil
}

func studentLookupError(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return notFound("Student not found")
	}
	return err
}
