package models

// EmptyState explains why a widget section has nothing to show.
type EmptyState string

const (
	EmptyNone            EmptyState = ""
	EmptyNoTimetable     EmptyState = "NO_TIMETABLE"
	EmptyWeekend         EmptyState = "WEEKEND"
	EmptyFreeDay         EmptyState = "FREE_DAY"
	EmptyAllDone         EmptyState = "ALL_DONE"
	EmptyNoExams         EmptyState = "NO_EXAMS"
	EmptyNoUpcomingExams EmptyState = "NO_UPCOMING_EXAMS"
)
