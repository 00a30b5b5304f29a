package models

// ScheduleItemKind discriminates the ScheduleItem variants.
type ScheduleItemKind string

const (
	ScheduleItemLesson ScheduleItemKind = "LESSON"
	ScheduleItemExam   ScheduleItemKind = "EXAM"
)

// ScheduleItem is either a LessonItem or an ExamItem. The set of variants is
// closed; consumers switch on the concrete type.
type ScheduleItem interface {
	Kind() ScheduleItemKind
	scheduleItem()
}

// LessonItem wraps a lesson inside a merged schedule.
type LessonItem struct {
	Lesson Lesson
}

// Kind implements ScheduleItem.
func (LessonItem) Kind() ScheduleItemKind { return ScheduleItemLesson }

func (LessonItem) scheduleItem() {}

// ExamItem wraps an exam inside a merged schedule.
type ExamItem struct {
	Exam    Exam
	IsToday bool
}

// Kind implements ScheduleItem.
func (ExamItem) Kind() ScheduleItemKind { return ScheduleItemExam }

func (ExamItem) scheduleItem() {}

// ItemTimes returns the raw start and end strings of an item.
func ItemTimes(item ScheduleItem) (start, end string) {
	switch v := item.(type) {
	case LessonItem:
		return v.Lesson.StartTime, v.Lesson.EndTime
	case ExamItem:
		return v.Exam.StartTime, v.Exam.FinishTime
	default:
		panic("models: unknown schedule item")
	}
}
