package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-widget-api/internal/dto"
	"github.com/noah-isme/sma-widget-api/internal/models"
	"github.com/noah-isme/sma-widget-api/pkg/clock"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
)

type preferenceStoreStub struct {
	items map[string]models.Preference
	err   error
}

func newPreferenceStoreStub(values map[string]string) *preferenceStoreStub {
	stub := &preferenceStoreStub{items: map[string]models.Preference{}}
	for k, v := range values {
		stub.items[k] = models.Preference{Key: k, Value: v}
	}
	return stub
}

func (s *preferenceStoreStub) ListByKeys(ctx context.Context, keys []string) ([]models.Preference, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := []models.Preference{}
	for _, key := range keys {
		if pref, ok := s.items[key]; ok {
			result = append(result, pref)
		}
	}
	return result, nil
}

func (s *preferenceStoreStub) BulkUpsert(ctx context.Context, prefs []models.Preference) error {
	if s.err != nil {
		return s.err
	}
	for _, pref := range prefs {
		s.items[pref.Key] = pref
	}
	return nil
}

func (s *preferenceStoreStub) DeleteKeys(ctx context.Context, keys []string) error {
	if s.err != nil {
		return s.err
	}
	for _, key := range keys {
		delete(s.items, key)
	}
	return nil
}

type invalidatorStub struct {
	patterns []string
}

func (s *invalidatorStub) Invalidate(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

const sampleTimetableJSON = `{"days":[{"day":"Monday","lessons":[{"name":"Maths","course":"MA1","startTime":"09:00","endTime":"10:00","room":"B12","teachers":["A. Jones"],"group":"G1"}]}]}`

func TestSnapshotLoadDecodesDocuments(t *testing.T) {
	store := newPreferenceStoreStub(map[string]string{
		models.PreferenceTimetable:     sampleTimetableJSON,
		models.PreferenceExamTimetable: `{"hasExams":true,"exams":[{"date":"05-03-2025","startTime":"09:00","finishTime":"11:00","subjectDescription":"Physics"}]}`,
	})
	real := clock.Fixed(projectorMonday.Add(9 * time.Hour))
	svc := NewSnapshotService(store, nil, nil, real, nil)

	snapshot, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snapshot.TimetableStored)
	require.Len(t, snapshot.Days, 1)
	assert.Equal(t, "Maths", snapshot.Days[0].Lessons[0].Name)
	assert.Equal(t, []string{"A. Jones"}, snapshot.Days[0].Lessons[0].Teachers)
	require.Len(t, snapshot.Exams, 1)
	assert.Equal(t, "Physics", snapshot.Exams[0].SubjectDescription)
	assert.Equal(t, projectorMonday.Add(9*time.Hour), snapshot.Now())
}

func TestSnapshotLoadDegradesMalformedDocuments(t *testing.T) {
	store := newPreferenceStoreStub(map[string]string{
		models.PreferenceTimetable:     `{"days":[`,
		models.PreferenceExamTimetable: `not json`,
	})
	svc := NewSnapshotService(store, nil, nil, clock.Fixed(projectorMonday), nil)

	snapshot, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snapshot.TimetableStored)
	assert.Empty(t, snapshot.Days)
	assert.Empty(t, snapshot.Exams)

	projection := NewProjection(snapshot, snapshot.Now())
	assert.False(t, projection.HasTimetable())
	assert.Equal(t, models.EmptyNoTimetable, projection.LessonEmptyState())
}

func TestSnapshotLoadHonoursHasExamsFlag(t *testing.T) {
	store := newPreferenceStoreStub(map[string]string{
		models.PreferenceExamTimetable: `{"hasExams":false,"exams":[{"date":"05-03-2025","subjectDescription":"Physics"}]}`,
	})
	svc := NewSnapshotService(store, nil, nil, clock.Fixed(projectorMonday), nil)

	snapshot, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, snapshot.TimetableStored)
	assert.Empty(t, snapshot.Exams)
}

func TestSnapshotLoadDebugClock(t *testing.T) {
	realNow := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	setAt := realNow.Add(-30 * time.Minute)
	base := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)

	store := newPreferenceStoreStub(map[string]string{
		models.PreferenceDebugEnabled:   "true",
		models.PreferenceDebugTimeMs:    strconv.FormatInt(base.UnixMilli(), 10),
		models.PreferenceDebugSetRealMs: strconv.FormatInt(setAt.UnixMilli(), 10),
	})
	svc := NewSnapshotService(store, nil, nil, clock.Fixed(realNow), nil)

	snapshot, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snapshot.Debug.Enabled)
	assert.True(t, base.Add(30*time.Minute).Equal(snapshot.Now()))

	delete(store.items, models.PreferenceDebugSetRealMs)
	snapshot, err = svc.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, base.Equal(snapshot.Now()))

	store.items[models.PreferenceDebugEnabled] = models.Preference{Key: models.PreferenceDebugEnabled, Value: "false"}
	snapshot, err = svc.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, realNow.Equal(snapshot.Now()))
}

func TestSnapshotLoadStoreError(t *testing.T) {
	store := &preferenceStoreStub{err: errors.New("connection reset")}
	svc := NewSnapshotService(store, nil, nil, clock.Fixed(projectorMonday), nil)

	_, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestSaveTimetableValidatesAndInvalidates(t *testing.T) {
	store := newPreferenceStoreStub(nil)
	cache := &invalidatorStub{}
	svc := NewSnapshotService(store, cache, nil, clock.Fixed(projectorMonday), nil)

	_, err := svc.SaveTimetable(context.Background(), "device-1", dto.SaveTimetableRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.SaveTimetable(context.Background(), "device-1", dto.SaveTimetableRequest{Days: []dto.DayPayload{
		{Lessons: []dto.LessonPayload{{Name: "Maths", StartTime: "09:00"}}},
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, cache.patterns)

	doc, err := svc.SaveTimetable(context.Background(), "device-1", dto.SaveTimetableRequest{Days: []dto.DayPayload{
		{Day: "Monday", Lessons: []dto.LessonPayload{{Name: "Maths", StartTime: "09:00", EndTime: "10:00"}}},
	}})
	require.NoError(t, err)
	require.Len(t, doc.Days, 1)
	assert.Equal(t, []string{WidgetCachePattern}, cache.patterns)

	stored := store.items[models.PreferenceTimetable]
	require.NotNil(t, stored.UpdatedBy)
	assert.Equal(t, "device-1", *stored.UpdatedBy)

	snapshot, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "09:00", snapshot.Days[0].Lessons[0].StartTime)
}

func TestSaveTimetableKeepsMalformedTimes(t *testing.T) {
	svc := NewSnapshotService(newPreferenceStoreStub(nil), nil, nil, clock.Fixed(projectorMonday), nil)

	_, err := svc.SaveTimetable(context.Background(), "device-1", dto.SaveTimetableRequest{Days: []dto.DayPayload{
		{Day: "Monday", Lessons: []dto.LessonPayload{
			{Name: "Physics", StartTime: "10:00", EndTime: "11:00"},
			{Name: "Maths", StartTime: "9.00", EndTime: "10:00"},
			{StartTime: "12:00", EndTime: "13:00"},
		}},
	}})
	require.NoError(t, err)

	snapshot, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Days[0].Lessons, 3)
	assert.Equal(t, "9.00", snapshot.Days[0].Lessons[1].StartTime)

	merged := NewProjection(snapshot, at(projectorMonday, "08:00")).MergedToday()
	assert.Equal(t, []string{"L:Maths@9.00-10:00", "L:Physics@10:00-11:00", "L:@12:00-13:00"}, lessonNames(merged))
}

func TestSaveExamsKeepsMalformedRecords(t *testing.T) {
	svc := NewSnapshotService(newPreferenceStoreStub(nil), nil, nil, clock.Fixed(projectorMonday), nil)

	doc, err := svc.SaveExams(context.Background(), "", dto.SaveExamsRequest{HasExams: true, Exams: []dto.ExamPayload{
		{Date: "05-03-2025", StartTime: "09:00", FinishTime: "11:00", SubjectDescription: "Physics", PreRoom: "B12"},
		{Date: "TBC", StartTime: "09:00", FinishTime: "11:00", SubjectDescription: "Chemistry"},
		{Date: "03-03-2025", StartTime: "TBC", FinishTime: "10:00", SubjectDescription: "History"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "B12", doc.Exams[0].PreRoom)

	snapshot, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Exams, 3)

	p := NewProjection(snapshot, at(projectorMonday, "08:00"))
	upcoming := p.UpcomingExams(10)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "History", upcoming[0].SubjectDescription)
	assert.Equal(t, "Physics", upcoming[1].SubjectDescription)

	merged := p.MergedToday()
	require.Len(t, merged, 1)
	item, ok := merged[0].(models.ExamItem)
	require.True(t, ok)
	assert.Equal(t, "TBC", item.Exam.StartTime)
}

func TestSetAndClearDebugClock(t *testing.T) {
	realNow := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newPreferenceStoreStub(nil)
	cache := &invalidatorStub{}
	svc := NewSnapshotService(store, cache, nil, clock.Fixed(realNow), nil)

	_, err := svc.SetDebugClock(context.Background(), "device-1", dto.SetDebugClockRequest{BaseTime: "yesterday"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	resp, err := svc.SetDebugClock(context.Background(), "device-1", dto.SetDebugClockRequest{BaseTime: "2025-03-05T09:00:00Z"})
	require.NoError(t, err)
	assert.True(t, resp.Enabled)
	assert.Equal(t, "2025-03-05T09:00:00Z", resp.EffectiveNow)
	assert.Equal(t, strconv.FormatInt(realNow.UnixMilli(), 10), store.items[models.PreferenceDebugSetRealMs].Value)

	current, err := svc.DebugClock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-03-05T09:00:00Z", current.EffectiveNow)

	require.NoError(t, svc.ClearDebugClock(context.Background(), "device-1"))
	current, err = svc.DebugClock(context.Background())
	require.NoError(t, err)
	assert.False(t, current.Enabled)
	assert.Equal(t, "2025-03-01T12:00:00Z", current.EffectiveNow)
	assert.Len(t, cache.patterns, 2)
}
