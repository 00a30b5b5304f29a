package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-widget-api/internal/models"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
)

func TestExportUpcomingExamsCSV(t *testing.T) {
	snapshot := widgetFixture(at(projectorMonday, "08:00"))
	snapshot.Exams = append(snapshot.Exams, exam("01-03-2025", "09:00", "10:00", "Past"))
	svc := NewExportService(&snapshotLoaderStub{snapshot: snapshot}, nil)

	file, err := svc.ExportUpcomingExams(context.Background(), "CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "exams_20250303.csv", file.Filename)

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Subject,Date,Time,Room,Seat,Paper,Board code,In", lines[0])
	assert.Equal(t, "Chemistry,\"Tue, Mar 4\",13:00 - 15:00,Hall,12,,,1d", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Biology,"))
}

func TestExportUpcomingExamsPDF(t *testing.T) {
	svc := NewExportService(&snapshotLoaderStub{snapshot: widgetFixture(at(projectorMonday, "08:00"))}, nil)

	file, err := svc.ExportUpcomingExams(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestExportUpcomingExamsErrors(t *testing.T) {
	svc := NewExportService(&snapshotLoaderStub{snapshot: models.Snapshot{}}, nil)
	_, err := svc.ExportUpcomingExams(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExportFormat.Code, appErrors.FromError(err).Code)

	failing := NewExportService(&snapshotLoaderStub{err: errors.New("db down")}, nil)
	_, err = failing.ExportUpcomingExams(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
