package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edudir/student-directory/internal/models"
	"github.com/edudir/student-directory/internal/service"
	"github.com/edudir/student-directory/pkg/response"
)

type exportService interface {
	Render(ctx context.Context, format string, filter models.StudentFilter) ([]byte, string, error)
}

// ExportHandler serves directory downloads.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Download godoc
// @Summary Export the filtered directory as CSV or PDF
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param search query string false "Substring match against all business fields"
// @Param finalYear query int false "Exact graduation year"
// @Success 200 {file} file
// @Failure 422 {object} response.Envelope
// @Router /students/export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	format := c.DefaultQuery("format", service.ExportFormatCSV)
	filter := parseFilter(c)

	payload, contentType, err := h.exports.Render(c.Request.Context(), format, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=students.%s", format))
	c.Data(http.StatusOK, contentType, payload)
}
