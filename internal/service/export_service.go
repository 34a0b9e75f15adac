package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/export"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type classTimetableSource interface {
	ListByClass(ctx context.Context, classID, academicYear string) ([]models.TimetableEntryDetail, error)
}

type tableRenderer interface {
	Render(data export.Table) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered timetable ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders class timetables as CSV or PDF.
type ExportService struct {
	timetables classTimetableSource
	renderers  map[string]tableRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the package defaults.
func NewExportService(timetables classTimetableSource, logger *zap.Logger, csv, pdf tableRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		timetables: timetables,
		renderers:  map[string]tableRenderer{ExportFormatCSV: csv, ExportFormatPDF: pdf},
		logger:     logger,
	}
}

// ClassTimetable renders the active timetable of a class.
func (s *ExportService) ClassTimetable(ctx context.Context, classID, academicYear, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	entries, err := s.timetables.ListByClass(ctx, classID, academicYear)
	if err != nil {
		return nil, err
	}

	table := timetableTable(entries)
	if len(entries) > 0 {
		first := entries[0]
		table.Title = fmt.Sprintf("Timetable %s %s %s", first.ClassName, first.ClassSection, first.AcademicYear)
	} else {
		table.Title = fmt.Sprintf("Timetable %s", classID)
	}

	body, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to render timetable export")
	}
	s.logger.Debug("timetable exported", zap.String("class_id", classID), zap.String("format", format), zap.Int("rows", len(entries)))

	return &ExportFile{
		Filename:    fmt.Sprintf("timetable-%s.%s", classID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func timetableTable(entries []models.TimetableEntryDetail) export.Table {
	table := export.Table{
		Headers: []string{"Day", "Start", "End", "Subject Code", "Subject", "Faculty", "Room"},
		Rows:    make([][]string, 0, len(entries)),
	}
	for _, entry := range entries {
		room := entry.ClassroomName
		if entry.RoomNumber != "" {
			room = fmt.Sprintf("%s (%s)", entry.ClassroomName, entry.RoomNumber)
		}
		table.Rows = append(table.Rows, []string{
			entry.DayOfWeek.String(),
			models.FormatClock(entry.StartTime),
			models.FormatClock(entry.EndTime),
			entry.SubjectCode,
			entry.SubjectName,
			entry.FacultyName,
			room,
		})
	}
	return table
}
