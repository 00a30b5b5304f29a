package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-widget-api/internal/dto"
	"github.com/noah-isme/sma-widget-api/internal/models"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
)

// ScheduleService exposes the projector queries as API responses.
type ScheduleService struct {
	snapshots     snapshotLoader
	upcomingLimit int
	logger        *zap.Logger
}

// NewScheduleService constructs a ScheduleService. upcomingLimit is used when
// callers do not ask for a specific number of exams.
func NewScheduleService(snapshots snapshotLoader, upcomingLimit int, logger *zap.Logger) *ScheduleService {
	if upcomingLimit <= 0 {
		upcomingLimit = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{snapshots: snapshots, upcomingLimit: upcomingLimit, logger: logger}
}

func (s *ScheduleService) project(ctx context.Context) (Projection, error) {
	snapshot, err := s.snapshots.Load(ctx)
	if err != nil {
		return Projection{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return NewProjection(snapshot, snapshot.Now()), nil
}

// Today returns today's merged schedule with the current and next entries.
func (s *ScheduleService) Today(ctx context.Context) (*dto.TodaySchedule, error) {
	p, err := s.project(ctx)
	if err != nil {
		return nil, err
	}

	merged := p.MergedToday()
	result := &dto.TodaySchedule{
		Date:         p.Now().Format("2006-01-02"),
		Day:          p.DayName(),
		EffectiveNow: p.Now().Format(time.RFC3339),
		Items:        make([]dto.ScheduleEntry, 0, len(merged)),
	}
	for _, item := range merged {
		result.Items = append(result.Items, scheduleEntry(item))
	}
	if current, ok := p.CurrentItem(); ok {
		entry := scheduleEntry(current)
		result.Current = &entry
	}
	if next, ok := p.NextItem(); ok {
		entry := scheduleEntry(next)
		result.Next = &entry
	}
	result.Remaining = len(p.UpcomingMergedToday(len(merged)))
	if result.Remaining == 0 && !p.HasExamsToday() {
		result.EmptyState = string(p.LessonEmptyState())
	}
	return result, nil
}

// Tomorrow returns the lessons of the next calendar day.
func (s *ScheduleService) Tomorrow(ctx context.Context) (*dto.DayLessons, error) {
	p, err := s.project(ctx)
	if err != nil {
		return nil, err
	}

	lessons := p.TomorrowLessons()
	result := &dto.DayLessons{
		Day:     p.TomorrowDayName(),
		Lessons: make([]dto.ScheduleEntry, 0, len(lessons)),
	}
	for _, lesson := range lessons {
		result.Lessons = append(result.Lessons, scheduleEntry(models.LessonItem{Lesson: lesson}))
	}
	if len(lessons) == 0 {
		if !p.HasTimetable() {
			result.EmptyState = string(models.EmptyNoTimetable)
		} else {
			result.EmptyState = string(models.EmptyFreeDay)
		}
	}
	return result, nil
}

// UpcomingExams lists exams from today on with their countdowns. A
// non-positive limit falls back to the configured default.
func (s *ScheduleService) UpcomingExams(ctx context.Context, limit int) (*dto.UpcomingExams, error) {
	if limit <= 0 {
		limit = s.upcomingLimit
	}
	p, err := s.project(ctx)
	if err != nil {
		return nil, err
	}

	exams := p.UpcomingExams(limit)
	loc := p.Now().Location()
	result := &dto.UpcomingExams{
		EffectiveNow: p.Now().Format(time.RFC3339),
		Exams:        make([]dto.UpcomingExam, 0, len(exams)),
	}
	for _, exam := range exams {
		days := p.DaysUntilExam(exam)
		result.Exams = append(result.Exams, dto.UpcomingExam{
			Key:       exam.Key(),
			Exam:      scheduleEntry(models.ExamItem{Exam: exam, IsToday: days == 0}),
			Date:      exam.Date,
			DateLabel: FormatExamDate(exam.Date, loc),
			DaysUntil: days,
			Countdown: FormatExamCountdown(days, p.MinutesUntil(exam.StartTime)),
			Relative:  FormatRelativeDay(days),
			RoomText:  ExamRoomText(exam),
			BoardCode: exam.BoardCode,
		})
	}
	if len(exams) == 0 {
		result.EmptyState = string(p.ExamEmptyState())
	}
	return result, nil
}

func scheduleEntry(item models.ScheduleItem) dto.ScheduleEntry {
	switch v := item.(type) {
	case models.LessonItem:
		return dto.ScheduleEntry{
			Type:      string(models.ScheduleItemLesson),
			Name:      v.Lesson.Name,
			Course:    v.Lesson.Course,
			StartTime: v.Lesson.StartTime,
			EndTime:   v.Lesson.EndTime,
			Room:      RoomOrPlaceholder(v.Lesson.Room),
			Teachers:  v.Lesson.Teachers,
			Group:     v.Lesson.Group,
		}
	case models.ExamItem:
		return dto.ScheduleEntry{
			Type:      string(models.ScheduleItemExam),
			Name:      v.Exam.SubjectDescription,
			StartTime: v.Exam.StartTime,
			EndTime:   v.Exam.FinishTime,
			Room:      RoomOrPlaceholder(v.Exam.ExamRoom),
			Seat:      v.Exam.SeatNumber,
			PreRoom:   v.Exam.PreRoom,
			Paper:     v.Exam.Paper,
			IsToday:   v.IsToday,
		}
	default:
		panic("service: unknown schedule item")
	}
}
