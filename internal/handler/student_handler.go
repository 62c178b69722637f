package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edudir/student-directory/internal/models"
	"github.com/edudir/student-directory/internal/validation"
	appErrors "github.com/edudir/student-directory/pkg/errors"
	"github.com/edudir/student-directory/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentView, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, input validation.Input) (*models.Student, error)
	Update(ctx context.Context, id string, input validation.Input) (*models.Student, error)
	Delete(ctx context.Context, id string) error
}

// StudentHandler exposes the student record endpoints.
type StudentHandler struct {
	students  studentService
	apiPrefix string
}

// NewStudentHandler constructs StudentHandler. The prefix is used to build
// Location headers for created records.
func NewStudentHandler(students studentService, apiPrefix string) *StudentHandler {
	return &StudentHandler{students: students, apiPrefix: apiPrefix}
}

// List godoc
// @Summary List students with derived academic fields
// @Tags Students
// @Produce json
// @Param search query string false "Substring match against all business fields"
// @Param fio query string false "Substring match on the full name"
// @Param faculty query string false "Substring match on faculty"
// @Param studyStart query string false "Substring match on study start year"
// @Param finalYear query int false "Exact graduation year (studyStart + 4)"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := parseFilter(c)
	views, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views)
}

// Get godoc
// @Summary Get one student record
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Create godoc
// @Summary Create a student record
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body validation.Input true "Six business fields"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var input validation.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("%s/students/%s", h.apiPrefix, student.ID))
	response.Created(c, student)
}

// Update godoc
// @Summary Patch a student record
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body validation.Input true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{id} [patch]
func (h *StudentHandler) Update(c *gin.Context) {
	var input validation.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Delete godoc
// @Summary Delete a student record
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// parseFilter maps list query parameters onto the engine filter. Per-field
// filters cover the three the directory client exposes plus the derived full name.
func parseFilter(c *gin.Context) models.StudentFilter {
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))

	fields := make(map[string]string)
	for _, field := range []string{"fio", "faculty", "studyStart", "name", "surname", "lastname", "birthday"} {
		if value := strings.TrimSpace(c.Query(field)); value != "" {
			fields[field] = value
		}
	}
	if len(fields) > 0 {
		filter.Fields = fields
	}

	if raw := strings.TrimSpace(c.Query("finalYear")); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			filter.FinalYear = &year
		}
	}

	filter.SortBy = strings.TrimSpace(c.Query("sort"))
	filter.Descending = strings.EqualFold(c.Query("order"), "desc")
	return filter
}
