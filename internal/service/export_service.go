package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-widget-api/pkg/export"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the upcoming exam timetable as a document.
type ExportService struct {
	snapshots snapshotLoader
	exporters map[string]export.Exporter
	logger    *zap.Logger
}

// NewExportService constructs an ExportService with CSV and PDF renderers.
func NewExportService(snapshots snapshotLoader, logger *zap.Logger, exporters ...export.Exporter) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(exporters) == 0 {
		exporters = []export.Exporter{export.NewCSVExporter(), export.NewPDFExporter()}
	}
	byFormat := make(map[string]export.Exporter, len(exporters))
	for _, e := range exporters {
		byFormat[e.Extension()] = e
	}
	return &ExportService{snapshots: snapshots, exporters: byFormat, logger: logger}
}

var examExportColumns = []export.Column{
	{Key: "subject", Label: "Subject", Width: 3},
	{Key: "date", Label: "Date", Width: 1.5},
	{Key: "time", Label: "Time", Width: 1.5},
	{Key: "room", Label: "Room", Width: 2.5},
	{Key: "seat", Label: "Seat", Width: 0.7},
	{Key: "paper", Label: "Paper", Width: 1},
	{Key: "board", Label: "Board code", Width: 1.3},
	{Key: "countdown", Label: "In", Width: 0.8},
}

// ExportUpcomingExams renders every exam from today on in the given format.
func (s *ExportService) ExportUpcomingExams(ctx context.Context, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrExportFormat, fmt.Sprintf("unsupported export format %q", format))
	}

	snapshot, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exams")
	}
	p := NewProjection(snapshot, snapshot.Now())
	loc := p.Now().Location()

	table := export.Table{
		Title:    "Upcoming exams",
		Subtitle: "Generated " + p.Now().Format("Mon, Jan 2 2006 15:04"),
		Columns:  examExportColumns,
	}
	for _, exam := range p.UpcomingExams(len(snapshot.Exams)) {
		days := p.DaysUntilExam(exam)
		table.Rows = append(table.Rows, map[string]string{
			"subject":   exam.SubjectDescription,
			"date":      FormatExamDate(exam.Date, loc),
			"time":      TimeRange(exam.StartTime, exam.FinishTime),
			"room":      ExamRoomText(exam),
			"seat":      exam.SeatNumber,
			"paper":     exam.Paper,
			"board":     exam.BoardCode,
			"countdown": FormatExamCountdown(days, p.MinutesUntil(exam.StartTime)),
		})
	}

	data, err := exporter.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Debug("exam export rendered", zap.String("format", format), zap.Int("rows", len(table.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("exams_%s.%s", p.Now().Format("20060102"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Data:        data,
	}, nil
}
