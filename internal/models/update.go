package models

import "time"

// UpdateAction is the broadcast action an alarm fires.
type UpdateAction string

const (
	ActionUpdateWidgets       UpdateAction = "UPDATE_WIDGETS"
	ActionUpdateLessonWidgets UpdateAction = "UPDATE_LESSON_WIDGETS"
	ActionUpdateExamWidgets   UpdateAction = "UPDATE_EXAM_WIDGETS"
	ActionTimeChanged         UpdateAction = "TIME_CHANGED"
	ActionTimezoneChanged     UpdateAction = "TIMEZONE_CHANGED"
	ActionDateChanged         UpdateAction = "DATE_CHANGED"
)

// Groups returns the widget groups refreshed by the action.
func (a UpdateAction) Groups() []WidgetGroup {
	switch a {
	case ActionUpdateLessonWidgets:
		return []WidgetGroup{WidgetGroupLesson}
	case ActionUpdateExamWidgets:
		return []WidgetGroup{WidgetGroupExam}
	case ActionUpdateWidgets, ActionTimeChanged, ActionTimezoneChanged, ActionDateChanged:
		return []WidgetGroup{WidgetGroupLesson, WidgetGroupExam, WidgetGroupUnified}
	default:
		return nil
	}
}

// Request code ranges reserved per alarm family.
const (
	LessonRequestCodeStart = 10000
	LessonRequestCodeLimit = 11000
	ExamRequestCodeStart   = 20000
	ExamRequestCodeLimit   = 21000
	MidnightRequestCode    = 30000
)

// Alarm is a single planned widget refresh.
type Alarm struct {
	RequestCode int           `json:"request_code"`
	Action      UpdateAction  `json:"action"`
	TriggerAt   time.Time     `json:"trigger_at"`
	Interval    time.Duration `json:"interval,omitempty"`
	Exact       bool          `json:"exact"`
}

// Repeating reports whether the alarm recurs.
func (a Alarm) Repeating() bool {
	return a.Interval > 0
}

// UpdatePlan is the full set of alarms that should be registered. An empty
// plan means every previously registered alarm should be cancelled.
type UpdatePlan struct {
	GeneratedAt   time.Time `json:"generated_at"`
	ActiveWidgets int       `json:"active_widgets"`
	Alarms        []Alarm   `json:"alarms"`
	Truncated     bool      `json:"truncated"`
}
