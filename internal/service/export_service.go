package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/export"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

// ExportFormat enumerates rendered timetable formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

var timetableHeaders = []string{"Day", "Time", "Subject", "Teacher", "Room", "Term", "Override"}

type sessionLister interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportSources groups the stores read to resolve names in an export.
type ExportSources struct {
	Sessions  sessionLister
	Subjects  subjectLister
	Teachers  teacherLister
	Rooms     roomLister
	TimeSlots timeSlotLister
}

// ExportResult is a rendered timetable ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders stored timetables as CSV or PDF.
type ExportService struct {
	sources ExportSources
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(sources ExportSources, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{sources: sources, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ParseExportFormat normalises a query value; empty defaults to CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
}

// Timetable renders the sessions of a term, or of every term.
func (s *ExportService) Timetable(ctx context.Context, term string, format ExportFormat) (*ExportResult, error) {
	term = strings.TrimSpace(term)
	dataset, err := s.buildDataset(ctx, term)
	if err != nil {
		return nil, err
	}

	title := "Timetable"
	if term != "" {
		title = fmt.Sprintf("Timetable %s", term)
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
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, internalError(err, "failed to render timetable")
	}

	s.logger.Debug("timetable exported", zap.String("term", term), zap.String("format", string(format)), zap.Int("rows", len(dataset.Rows)))
	return &ExportResult{
		Filename:    buildFilename(term, format, s.now()),
		ContentType: contentType,
		Data:        payload,
	}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, term string) (export.Dataset, error) {
	sessions, err := s.sources.Sessions.List(ctx, models.SessionFilter{Term: term})
	if err != nil {
		return export.Dataset{}, internalError(err, "failed to list classes")
	}
	subjects, err := s.sources.Subjects.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, internalError(err, "failed to load subjects")
	}
	teachers, err := s.sources.Teachers.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, internalError(err, "failed to load teachers")
	}
	rooms, err := s.sources.Rooms.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, internalError(err, "failed to load rooms")
	}
	slots, err := s.sources.TimeSlots.List(ctx, false)
	if err != nil {
		return export.Dataset{}, internalError(err, "failed to load time slots")
	}

	subjectNames := make(map[string]string, len(subjects))
	for _, sub := range subjects {
		subjectNames[sub.ID] = fmt.Sprintf("%s %s", sub.Code, sub.Title)
	}
	teacherNames := make(map[string]string, len(teachers))
	for _, t := range teachers {
		teacherNames[t.ID] = t.Name
	}
	roomNames := make(map[string]string, len(rooms))
	for _, r := range rooms {
		roomNames[r.ID] = r.Name
	}
	slotTimes := make(map[string]string, len(slots))
	for _, ts := range slots {
		slotTimes[ts.ID] = ts.StartTime + "-" + ts.EndTime
	}

	rows := make([]map[string]string, 0, len(sessions))
	for _, session := range sessions {
		override := "no"
		if session.IsOverride {
			override = "yes"
		}
		rows = append(rows, map[string]string{
			"Day":      string(session.Day),
			"Time":     nameOr(slotTimes, session.TimeSlotID),
			"Subject":  nameOr(subjectNames, session.SubjectID),
			"Teacher":  nameOr(teacherNames, session.TeacherID),
			"Room":     nameOr(roomNames, session.RoomID),
			"Term":     session.Term,
			"Override": override,
		})
	}
	return export.Dataset{Headers: timetableHeaders, Rows: rows}, nil
}

// nameOr falls back to the raw id when the referenced row is gone.
func nameOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

func buildFilename(term string, format ExportFormat, now time.Time) string {
	return fmt.Sprintf("timetable_%s_%s.%s", sanitizeFilename(term), now.UTC().Format("20060102_150405"), format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
