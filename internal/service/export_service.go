package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/edudir/student-directory/internal/models"
	"github.com/edudir/student-directory/pkg/export"
	appErrors "github.com/edudir/student-directory/pkg/errors"
)

// Export formats understood by Render.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type studentLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentView, error)
}

// ExportService renders the filtered directory view as a downloadable file.
// It runs the same query pipeline as the list endpoint, so exported rows always
// match what the client sees.
type ExportService struct {
	students studentLister
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(students studentLister, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{students: students, csv: csv, pdf: pdf, logger: logger}
}

var exportHeaders = []string{"fio", "birthday", "age", "studyStart", "studyFinal", "currentCourse", "faculty"}

// Render produces the export payload and its content type.
func (s *ExportService) Render(ctx context.Context, format string, filter models.StudentFilter) ([]byte, string, error) {
	views, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(views))}
	for _, v := range views {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"fio":           v.FIO,
			"birthday":      v.Birthday,
			"age":           strconv.Itoa(v.Age),
			"studyStart":    v.StudyStart,
			"studyFinal":    strconv.Itoa(v.StudyFinal),
			"currentCourse": v.CurrentCourse,
			"faculty":       v.Faculty,
		})
	}

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			s.logger.Error("render csv export failed", zap.Error(err))
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Student directory")
		if err != nil {
			s.logger.Error("render pdf export failed", zap.Error(err))
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Validation([]appErrors.FieldError{{Field: "format", Message: "format must be csv or pdf"}})
	}
}
