package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/sma-widget-api/internal/models"
)

const roomPlaceholder = "TBA"

// FormatTimeUntil renders the gap until a start time in a single unit.
func FormatTimeUntil(minutesUntil int) string {
	switch {
	case minutesUntil <= 0:
		return "Now"
	case minutesUntil < 60:
		return fmt.Sprintf("%dm", minutesUntil)
	default:
		return fmt.Sprintf("%dh", minutesUntil/60)
	}
}

// FormatExamCountdown renders the distance to an exam: minutes or hours on
// the day itself, then days, weeks and months.
func FormatExamCountdown(daysUntil, minutesUntilStart int) string {
	switch {
	case daysUntil == 0:
		switch {
		case minutesUntilStart <= 0:
			return "NOW"
		case minutesUntilStart < 60:
			return fmt.Sprintf("%dm", minutesUntilStart)
		default:
			return fmt.Sprintf("%dh", minutesUntilStart/60)
		}
	case daysUntil < 7:
		return fmt.Sprintf("%dd", daysUntil)
	case daysUntil < 30:
		return fmt.Sprintf("%dw", daysUntil/7)
	default:
		return fmt.Sprintf("%dmo", daysUntil/30)
	}
}

// FormatRelativeDay renders "TODAY", "Tomorrow" or "Nd".
func FormatRelativeDay(daysUntil int) string {
	switch daysUntil {
	case 0:
		return "TODAY"
	case 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("%dd", daysUntil)
	}
}

// FormatExamDate renders a stored exam date as "Mon, Jan 2".
func FormatExamDate(value string, loc *time.Location) string {
	date, ok := ParseExamDate(value, loc)
	if !ok {
		return value
	}
	return date.Format("Mon, Jan 2")
}

// FormatExamDateShort renders a stored exam date as "Jan 2".
func FormatExamDateShort(value string, loc *time.Location) string {
	date, ok := ParseExamDate(value, loc)
	if !ok {
		return value
	}
	return date.Format("Jan 2")
}

// RoomOrPlaceholder substitutes a placeholder for a missing room.
func RoomOrPlaceholder(room string) string {
	if room == "" {
		return roomPlaceholder
	}
	return room
}

// HasUsablePreRoom reports whether the pre-room reads like a room rather than
// a free-text note.
func HasUsablePreRoom(preRoom string) bool {
	if strings.TrimSpace(preRoom) == "" {
		return false
	}
	return len(strings.Split(preRoom, " ")) < 6
}

// ExamRoomText renders where to go for an exam, including the pre-room.
func ExamRoomText(exam models.Exam) string {
	if exam.ExamRoom == "" {
		return roomPlaceholder
	}
	if HasUsablePreRoom(exam.PreRoom) {
		return fmt.Sprintf("Pre: %s → %s", exam.PreRoom, exam.ExamRoom)
	}
	return exam.ExamRoom
}

// SeatText renders the seat label or nothing.
func SeatText(seat string) string {
	if seat == "" {
		return ""
	}
	return "Seat " + seat
}

// TimeRange renders "start - end".
func TimeRange(start, end string) string {
	return start + " - " + end
}

// WidgetCells converts a widget dimension in dp to launcher grid cells.
func WidgetCells(dp int) int {
	cells := (dp + 30) / 70
	if cells < 1 {
		return 1
	}
	return cells
}

// EmptyStateText returns the headline and detail lines for an empty state.
func EmptyStateText(state models.EmptyState) (title, detail string) {
	switch state {
	case models.EmptyNoTimetable:
		return "No timetable", "Set up your schedule"
	case models.EmptyWeekend:
		return "No lessons today", "Weekend"
	case models.EmptyFreeDay:
		return "No lessons today", "Free day"
	case models.EmptyAllDone:
		return "All done for today", "No more lessons"
	case models.EmptyNoExams:
		return "No exams set up", "Tap to add exams"
	case models.EmptyNoUpcomingExams:
		return "No upcoming exams", "All done!"
	default:
		return "", ""
	}
}

// EmptyStateLongText is the copy used by the larger widget layouts.
func EmptyStateLongText(state models.EmptyState) (title, detail string) {
	switch state {
	case models.EmptyNoTimetable:
		return "No timetable set up", "Tap to get started"
	case models.EmptyWeekend:
		return "Weekend! No lessons", "Enjoy your free time!"
	case models.EmptyFreeDay:
		return "No lessons today", "Free day!"
	case models.EmptyAllDone:
		return "All done for today", "No more lessons remaining"
	case models.EmptyNoExams:
		return "No exams set up", "Tap to add your exams"
	case models.EmptyNoUpcomingExams:
		return "No upcoming exams", "All done!"
	default:
		return "", ""
	}
}

// EmptyStateIcon is the glyph shown next to an empty state.
func EmptyStateIcon(state models.EmptyState) string {
	switch state {
	case models.EmptyNoTimetable, models.EmptyNoExams:
		return "⚙️"
	case models.EmptyWeekend, models.EmptyFreeDay:
		return "🎉"
	case models.EmptyAllDone, models.EmptyNoUpcomingExams:
		return "✓"
	default:
		return ""
	}
}

// DaysLabel pluralises the countdown unit.
func DaysLabel(days int) string {
	if days == 1 {
		return "day"
	}
	return "days"
}

// ExamDayText renders how far away an exam is for list rows: relative
// wording within a week, the short date after that.
func ExamDayText(daysUntil int, date string, loc *time.Location) string {
	switch {
	case daysUntil == 0:
		return "TODAY"
	case daysUntil == 1:
		return "Tomorrow"
	case daysUntil > 1 && daysUntil < 7:
		return fmt.Sprintf("%d days", daysUntil)
	default:
		return FormatExamDateShort(date, loc)
	}
}

// ExamLocationLine renders pre-room, room and seat on one line.
func ExamLocationLine(exam models.Exam) string {
	line := ExamRoomText(exam)
	if exam.SeatNumber != "" {
		line += " • " + SeatText(exam.SeatNumber)
	}
	return line
}
