package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-widget-api/internal/dto"
	"github.com/noah-isme/sma-widget-api/internal/models"
	"github.com/noah-isme/sma-widget-api/pkg/clock"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
)

// WidgetCachePattern matches every rendered widget view.
const WidgetCachePattern = "widgets:*"

type preferenceStore interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Preference, error)
	BulkUpsert(ctx context.Context, prefs []models.Preference) error
	DeleteKeys(ctx context.Context, keys []string) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// SnapshotService reads and writes the preference documents widgets are
// rendered from.
type SnapshotService struct {
	store     preferenceStore
	cache     cacheInvalidator
	validator *validator.Validate
	real      clock.Clock
	logger    *zap.Logger
}

// NewSnapshotService constructs a SnapshotService. real supplies wall-clock
// time and its location; it defaults to the local clock.
func NewSnapshotService(store preferenceStore, cache cacheInvalidator, validate *validator.Validate, real clock.Clock, logger *zap.Logger) *SnapshotService {
	if validate == nil {
		validate = validator.New()
	}
	if real == nil {
		real = clock.NewReal(time.Local)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{store: store, cache: cache, validator: validate, real: real, logger: logger}
}

// Load builds a snapshot from the stored preferences. Documents that are
// missing or do not decode yield empty collections; only store failures are
// returned as errors.
func (s *SnapshotService) Load(ctx context.Context) (models.Snapshot, error) {
	prefs, err := s.store.ListByKeys(ctx, models.SnapshotPreferenceKeys)
	if err != nil {
		return models.Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
	}
	values := make(map[string]string, len(prefs))
	for _, pref := range prefs {
		values[pref.Key] = pref.Value
	}

	snapshot := models.Snapshot{}
	if raw := values[models.PreferenceTimetable]; raw != "" {
		snapshot.TimetableStored = true
		snapshot.Days = s.decodeTimetable(raw)
	}
	snapshot.Exams = s.decodeExams(values[models.PreferenceExamTimetable])
	snapshot.Debug = s.decodeDebug(values)
	snapshot.Clock = s.clockFor(snapshot.Debug, values)
	return snapshot, nil
}

func (s *SnapshotService) decodeTimetable(raw string) []models.DaySchedule {
	var doc models.Timetable
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		s.logger.Warn("timetable document did not decode", zap.Error(err))
		return nil
	}
	return doc.Days
}

func (s *SnapshotService) decodeExams(raw string) []models.Exam {
	if raw == "" {
		return nil
	}
	var doc models.ExamTimetable
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		s.logger.Warn("exam document did not decode", zap.Error(err))
		return nil
	}
	if !doc.HasExams {
		return nil
	}
	return doc.Exams
}

func (s *SnapshotService) decodeDebug(values map[string]string) models.DebugClock {
	enabled, _ := strconv.ParseBool(values[models.PreferenceDebugEnabled])
	debug := models.DebugClock{Enabled: enabled}
	if ms, ok := parseMillis(values[models.PreferenceDebugTimeMs]); ok {
		debug.BaseTime = time.UnixMilli(ms)
	}
	if ms, ok := parseMillis(values[models.PreferenceDebugSetRealMs]); ok {
		debug.SetAt = time.UnixMilli(ms)
	}
	return debug
}

// clockFor resolves the effective clock. A missing base falls back to real
// time; a missing set-at instant freezes the clock at the base.
func (s *SnapshotService) clockFor(debug models.DebugClock, values map[string]string) clock.Clock {
	if !debug.Enabled || debug.BaseTime.IsZero() {
		return s.real
	}
	loc := s.real.Now().Location()
	if debug.SetAt.IsZero() {
		return clock.Fixed(debug.BaseTime.In(loc))
	}
	return clock.NewOffset(debug.BaseTime.In(loc), debug.SetAt, s.real)
}

// RealClock exposes the wall clock the service resolves debug offsets against.
func (s *SnapshotService) RealClock() clock.Clock {
	return s.real
}

// SaveTimetable stores the weekly timetable document.
func (s *SnapshotService) SaveTimetable(ctx context.Context, deviceID string, req dto.SaveTimetableRequest) (models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Timetable{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	doc := req.ToModel()
	if err := s.saveDocument(ctx, deviceID, models.PreferenceTimetable, doc); err != nil {
		return models.Timetable{}, err
	}
	if n := unparseableLessons(doc); n > 0 {
		s.logger.Warn("timetable stored with unparseable lesson times", zap.Int("lessons", n))
	}
	s.logger.Info("timetable stored", zap.String("device_id", deviceID), zap.Int("days", len(doc.Days)))
	return doc, nil
}

// SaveExams stores the exam timetable document.
func (s *SnapshotService) SaveExams(ctx context.Context, deviceID string, req dto.SaveExamsRequest) (models.ExamTimetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ExamTimetable{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	doc := req.ToModel()
	if err := s.saveDocument(ctx, deviceID, models.PreferenceExamTimetable, doc); err != nil {
		return models.ExamTimetable{}, err
	}
	if n := unparseableExams(doc, s.real.Now().Location()); n > 0 {
		s.logger.Warn("exam timetable stored with unparseable exams", zap.Int("exams", n))
	}
	s.logger.Info("exam timetable stored", zap.String("device_id", deviceID), zap.Int("exams", len(doc.Exams)))
	return doc, nil
}

func (s *SnapshotService) saveDocument(ctx context.Context, deviceID, key string, doc interface{}) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode document")
	}
	pref := models.Preference{Key: key, Value: string(payload), UpdatedBy: optionalString(deviceID)}
	if err := s.store.BulkUpsert(ctx, []models.Preference{pref}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}
	s.invalidate(ctx)
	return nil
}

// SetDebugClock enables the debug override so that effective time reads
// base at the moment of the call and advances with real time afterwards.
func (s *SnapshotService) SetDebugClock(ctx context.Context, deviceID string, req dto.SetDebugClockRequest) (dto.DebugClockResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DebugClockResponse{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid debug clock payload")
	}
	base, err := time.Parse(time.RFC3339, req.BaseTime)
	if err != nil {
		return dto.DebugClockResponse{}, appErrors.Clone(appErrors.ErrValidation, "base_time must be RFC3339")
	}
	setAt := s.real.Now()
	updatedBy := optionalString(deviceID)
	prefs := []models.Preference{
		{Key: models.PreferenceDebugEnabled, Value: "true", UpdatedBy: updatedBy},
		{Key: models.PreferenceDebugTimeMs, Value: strconv.FormatInt(base.UnixMilli(), 10), UpdatedBy: updatedBy},
		{Key: models.PreferenceDebugSetRealMs, Value: strconv.FormatInt(setAt.UnixMilli(), 10), UpdatedBy: updatedBy},
	}
	if err := s.store.BulkUpsert(ctx, prefs); err != nil {
		return dto.DebugClockResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store debug clock")
	}
	s.invalidate(ctx)
	s.logger.Info("debug clock enabled", zap.String("device_id", deviceID), zap.Time("base_time", base))

	loc := setAt.Location()
	return dto.DebugClockResponse{
		Enabled:      true,
		BaseTime:     base.In(loc).Format(time.RFC3339),
		SetAt:        setAt.Format(time.RFC3339),
		EffectiveNow: base.In(loc).Format(time.RFC3339),
	}, nil
}

// ClearDebugClock removes the override.
func (s *SnapshotService) ClearDebugClock(ctx context.Context, deviceID string) error {
	keys := []string{models.PreferenceDebugEnabled, models.PreferenceDebugTimeMs, models.PreferenceDebugSetRealMs}
	if err := s.store.DeleteKeys(ctx, keys); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear debug clock")
	}
	s.invalidate(ctx)
	s.logger.Info("debug clock cleared", zap.String("device_id", deviceID))
	return nil
}

// DebugClock reports the stored override and the effective time.
func (s *SnapshotService) DebugClock(ctx context.Context) (dto.DebugClockResponse, error) {
	snapshot, err := s.Load(ctx)
	if err != nil {
		return dto.DebugClockResponse{}, err
	}
	resp := dto.DebugClockResponse{
		Enabled:      snapshot.Debug.Enabled,
		EffectiveNow: snapshot.Now().Format(time.RFC3339),
	}
	if !snapshot.Debug.BaseTime.IsZero() {
		resp.BaseTime = snapshot.Debug.BaseTime.Format(time.RFC3339)
	}
	if !snapshot.Debug.SetAt.IsZero() {
		resp.SetAt = snapshot.Debug.SetAt.Format(time.RFC3339)
	}
	return resp, nil
}

func (s *SnapshotService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, WidgetCachePattern); err != nil {
		s.logger.Warn("widget cache invalidation failed", zap.Error(err))
	}
}

func unparseableLessons(doc models.Timetable) int {
	count := 0
	for _, day := range doc.Days {
		for _, lesson := range day.Lessons {
			if !clockOrEmpty(lesson.StartTime) || !clockOrEmpty(lesson.EndTime) {
				count++
			}
		}
	}
	return count
}

func unparseableExams(doc models.ExamTimetable, loc *time.Location) int {
	count := 0
	for _, exam := range doc.Exams {
		_, dated := ParseExamDate(exam.Date, loc)
		if !dated || !clockOrEmpty(exam.StartTime) || !clockOrEmpty(exam.FinishTime) {
			count++
		}
	}
	return count
}

func clockOrEmpty(value string) bool {
	if value == "" {
		return true
	}
	_, _, ok := ParseClock(value)
	return ok
}

func parseMillis(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
