package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-widget-api/internal/models"
	"github.com/noah-isme/sma-widget-api/pkg/clock"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
)

const (
	weeklyInterval = 7 * 24 * time.Hour
	dailyInterval  = 24 * time.Hour
)

var plannerWeekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

type activeWidgetCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// UpdatePlanner derives the refresh alarms widgets need from the stored
// timetable and exam documents.
type UpdatePlanner struct {
	snapshots snapshotLoader
	instances activeWidgetCounter
	real      clock.Clock
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewUpdatePlanner constructs an UpdatePlanner. real is the wall clock alarms
// are registered against.
func NewUpdatePlanner(snapshots snapshotLoader, instances activeWidgetCounter, real clock.Clock, metrics *MetricsService, logger *zap.Logger) *UpdatePlanner {
	if real == nil {
		real = clock.NewReal(time.Local)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdatePlanner{snapshots: snapshots, instances: instances, real: real, metrics: metrics, logger: logger}
}

// Plan computes the alarms to register. Without any installed widget the plan
// is empty, which cancels everything registered before.
func (p *UpdatePlanner) Plan(ctx context.Context) (models.UpdatePlan, error) {
	realNow := p.real.Now()
	plan := models.UpdatePlan{GeneratedAt: realNow, Alarms: make([]models.Alarm, 0)}

	active, err := p.instances.CountActive(ctx)
	if err != nil {
		return plan, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count widgets")
	}
	plan.ActiveWidgets = active
	if active == 0 {
		p.metrics.RecordPlan(plan)
		return plan, nil
	}

	snapshot, err := p.snapshots.Load(ctx)
	if err != nil {
		return plan, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	lessons, lessonsTruncated := planLessonAlarms(snapshot.Days, snapshot.Now(), realNow)
	exams, examsTruncated := planExamAlarms(snapshot.Exams, realNow)
	plan.Alarms = append(plan.Alarms, lessons...)
	plan.Alarms = append(plan.Alarms, exams...)
	plan.Alarms = append(plan.Alarms, midnightAlarm(realNow))
	plan.Truncated = lessonsTruncated || examsTruncated

	if plan.Truncated {
		p.logger.Warn("alarm request codes exhausted", zap.Int("alarms", len(plan.Alarms)))
	}
	p.metrics.RecordPlan(plan)
	return plan, nil
}

// planLessonAlarms schedules a weekly alarm at every lesson start and end.
// Targets are computed against the effective clock and shifted onto the real
// clock by the same distance, so a debug clock fires at the matching real
// instant.
func planLessonAlarms(days []models.DaySchedule, effectiveNow, realNow time.Time) ([]models.Alarm, bool) {
	alarms := make([]models.Alarm, 0)
	code := models.LessonRequestCodeStart
	for di, day := range days {
		weekday, ok := parseWeekday(day.Day)
		if !ok {
			continue
		}
		for li, lesson := range day.Lessons {
			for _, value := range []string{lesson.StartTime, lesson.EndTime} {
				if value == "" {
					continue
				}
				requestCode := code
				code++
				hour, minute, ok := ParseClock(value)
				if !ok {
					continue
				}
				target := nextWeekly(effectiveNow, weekday, hour, minute)
				alarms = append(alarms, models.Alarm{
					RequestCode: requestCode,
					Action:      models.ActionUpdateLessonWidgets,
					TriggerAt:   realNow.Add(target.Sub(effectiveNow)),
					Interval:    weeklyInterval,
				})
			}
			if code >= models.LessonRequestCodeLimit {
				return alarms, hasMoreLessons(days, di, li)
			}
		}
	}
	return alarms, false
}

// planExamAlarms schedules one-shot alarms at the start, finish and midnight
// of every exam day that has not passed yet. An exam whose codes would not
// fit below the exam limit is left out together with every exam after it.
func planExamAlarms(exams []models.Exam, realNow time.Time) ([]models.Alarm, bool) {
	alarms := make([]models.Alarm, 0)
	code := models.ExamRequestCodeStart
	loc := realNow.Location()
	for _, exam := range exams {
		if exam.Date == "" || exam.StartTime == "" {
			continue
		}
		date, ok := ParseExamDate(exam.Date, loc)
		if !ok {
			continue
		}

		times := []string{exam.StartTime}
		if exam.FinishTime != "" {
			times = append(times, exam.FinishTime)
		}
		// one code per time plus the midnight alarm
		if code+len(times)+1 > models.ExamRequestCodeLimit {
			return alarms, true
		}
		for _, value := range times {
			requestCode := code
			code++
			hour, minute, ok := ParseClock(value)
			if !ok {
				continue
			}
			trigger := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
			if trigger.Before(realNow) {
				continue
			}
			alarms = append(alarms, models.Alarm{
				RequestCode: requestCode,
				Action:      models.ActionUpdateExamWidgets,
				TriggerAt:   trigger,
				Exact:       true,
			})
		}

		requestCode := code
		code++
		if !date.Before(realNow) {
			alarms = append(alarms, models.Alarm{
				RequestCode: requestCode,
				Action:      models.ActionUpdateExamWidgets,
				TriggerAt:   date,
				Exact:       true,
			})
		}
	}
	return alarms, false
}

func midnightAlarm(realNow time.Time) models.Alarm {
	tomorrow := realNow.AddDate(0, 0, 1)
	return models.Alarm{
		RequestCode: models.MidnightRequestCode,
		Action:      models.ActionUpdateWidgets,
		TriggerAt:   time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, realNow.Location()),
		Interval:    dailyInterval,
	}
}

// nextWeekly returns the first instant at or after now falling on weekday at
// hour:minute.
func nextWeekly(now time.Time, weekday time.Weekday, hour, minute int) time.Time {
	offset := (int(weekday) - int(now.Weekday()) + 7) % 7
	target := time.Date(now.Year(), now.Month(), now.Day()+offset, hour, minute, 0, 0, now.Location())
	if target.Before(now) {
		target = target.AddDate(0, 0, 7)
	}
	return target
}

// parseWeekday reads the weekday from the first word of a day label such as
// "Monday" or "Monday (Week A)".
func parseWeekday(label string) (time.Weekday, bool) {
	fields := strings.Fields(strings.ToLower(label))
	if len(fields) == 0 {
		return 0, false
	}
	weekday, ok := plannerWeekdays[fields[0]]
	return weekday, ok
}

func hasMoreLessons(days []models.DaySchedule, dayIndex, lessonIndex int) bool {
	if lessonIndex < len(days[dayIndex].Lessons)-1 {
		return true
	}
	for _, day := range days[dayIndex+1:] {
		if _, ok := parseWeekday(day.Day); ok && len(day.Lessons) > 0 {
			return true
		}
	}
	return false
}
