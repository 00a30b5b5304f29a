package models

import "time"

// WidgetKind names a widget layout hosted on the home screen.
type WidgetKind string

const (
	WidgetNextLessonCompact WidgetKind = "next_lesson_compact"
	WidgetNextLessonCard    WidgetKind = "next_lesson_card"
	WidgetTodaySchedule     WidgetKind = "today_schedule"
	WidgetNextExamCompact   WidgetKind = "next_exam_compact"
	WidgetNextExamCard      WidgetKind = "next_exam_card"
	WidgetExamCountdown     WidgetKind = "exam_countdown"
	WidgetExamDetails       WidgetKind = "exam_details"
	WidgetUnifiedCompact    WidgetKind = "unified_compact"
	WidgetUnifiedFull       WidgetKind = "unified_full"
)

// WidgetGroup is the refresh granularity used by update broadcasts.
type WidgetGroup string

const (
	WidgetGroupLesson  WidgetGroup = "lesson"
	WidgetGroupExam    WidgetGroup = "exam"
	WidgetGroupUnified WidgetGroup = "unified"
)

// AllWidgetKinds lists every supported widget kind.
var AllWidgetKinds = []WidgetKind{
	WidgetNextLessonCompact,
	WidgetNextLessonCard,
	WidgetTodaySchedule,
	WidgetNextExamCompact,
	WidgetNextExamCard,
	WidgetExamCountdown,
	WidgetExamDetails,
	WidgetUnifiedCompact,
	WidgetUnifiedFull,
}

// Valid reports whether k is a known widget kind.
func (k WidgetKind) Valid() bool {
	for _, kind := range AllWidgetKinds {
		if kind == k {
			return true
		}
	}
	return false
}

// Group returns the refresh group a widget kind belongs to.
func (k WidgetKind) Group() WidgetGroup {
	switch k {
	case WidgetNextLessonCompact, WidgetNextLessonCard, WidgetTodaySchedule:
		return WidgetGroupLesson
	case WidgetNextExamCompact, WidgetNextExamCard, WidgetExamCountdown, WidgetExamDetails:
		return WidgetGroupExam
	default:
		return WidgetGroupUnified
	}
}

// KindsInGroup returns the widget kinds refreshed together with group.
func KindsInGroup(group WidgetGroup) []WidgetKind {
	kinds := make([]WidgetKind, 0, 4)
	for _, kind := range AllWidgetKinds {
		if kind.Group() == group {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// WidgetInstance records a widget placed on a device's home screen.
type WidgetInstance struct {
	ID        string     `db:"id" json:"id"`
	DeviceID  string     `db:"device_id" json:"device_id"`
	Kind      WidgetKind `db:"kind" json:"kind"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
