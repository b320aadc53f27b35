package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	"github.com/attendly/attendly-api/pkg/export"
	appErrors "github.com/attendly/attendly-api/pkg/errors"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportSubjectReader interface {
	List(ctx context.Context, userID string, filter models.SubjectFilter) ([]models.Subject, int, error)
}

type exportClassReader interface {
	ListMarked(ctx context.Context, userID, subjectID string) ([]models.ScheduledClass, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered report ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders the per-subject attendance report as CSV or PDF. The
// report is built and streamed synchronously; nothing is persisted.
type ExportService struct {
	subjects exportSubjectReader
	classes  exportClassReader
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(subjects exportSubjectReader, classes exportClassReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		subjects: subjects,
		classes:  classes,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
		now:      time.Now,
	}
}

// AttendanceReport renders one row per subject with the derived attendance
// counters, plus an overall row.
func (s *ExportService) AttendanceReport(ctx context.Context, userID string, format ExportFormat) (*ExportResult, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	dataset, err := s.buildDataset(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Attendance Report")
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	filename := fmt.Sprintf("attendance-report-%s.%s", formatDate(s.now()), format)
	return &ExportResult{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

// exportSubjectPageSize matches the repository's listing cap. The report
// covers every subject, so listing pages until the total is reached.
const exportSubjectPageSize = 100

func (s *ExportService) buildDataset(ctx context.Context, userID string) (export.Dataset, error) {
	var subjects []models.Subject
	for page := 1; ; page++ {
		batch, total, err := s.subjects.List(ctx, userID, models.SubjectFilter{Page: page, PageSize: exportSubjectPageSize})
		if err != nil {
			return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
		}
		subjects = append(subjects, batch...)
		if len(batch) == 0 || len(subjects) >= total {
			break
		}
	}

	headers := []string{"Subject", "Total", "Attended", "Missed", "Percentage"}
	rows := make([][]string, 0, len(subjects)+1)
	var overall models.AttendanceStats
	for _, subject := range subjects {
		marked, err := s.classes.ListMarked(ctx, userID, subject.ID)
		if err != nil {
			return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
		}
		stats := ComputeStats(marked)
		overall.TotalClasses += stats.TotalClasses
		overall.AttendedClasses += stats.AttendedClasses
		overall.MissedClasses += stats.MissedClasses
		rows = append(rows, statsRow(subject.Name, stats))
	}
	if overall.TotalClasses > 0 {
		overall.Percentage = roundPercentage(overall.AttendedClasses, overall.TotalClasses)
	}
	rows = append(rows, statsRow("Overall", overall))

	return export.Dataset{Headers: headers, Rows: rows}, nil
}

func statsRow(name string, stats models.AttendanceStats) []string {
	return []string{
		name,
		strconv.Itoa(stats.TotalClasses),
		strconv.Itoa(stats.AttendedClasses),
		strconv.Itoa(stats.MissedClasses),
		strconv.Itoa(stats.Percentage) + "%",
	}
}
