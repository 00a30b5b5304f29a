package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/sma-widget-api/internal/models"
)

// ParseTimeToMinutes converts "HH:MM" into minutes since midnight. Anything
// that does not parse counts as midnight.
func ParseTimeToMinutes(value string) int {
	parts := strings.Split(value, ":")
	if len(parts) < 2 {
		return 0
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return hours*60 + minutes
}

// ParseClock is the strict variant used for alarm planning: exactly two
// numeric components are required.
func ParseClock(value string) (hour, minute int, ok bool) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return hour, minute, true
}

// FormatMinutes renders minutes since midnight as "HH:MM".
func FormatMinutes(total int) string {
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// ParseExamDate parses "DD-MM-YYYY" into midnight of that date in loc.
// Out-of-range components roll over the way calendar arithmetic does.
func ParseExamDate(value string, loc *time.Location) (time.Time, bool) {
	parts := strings.Split(value, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
}

// MergeLessonsAndExams combines one day's lessons with the exams sitting on
// the same day. Exams always win: a lesson overlapped by an exam that is at
// least as long, or that runs to or past the lesson's end, is dropped; a
// lesson overlapped by a shorter exam ending earlier starts when the exam
// finishes. The result is ordered by start time, keeping input order on ties
// (lessons before exams).
func MergeLessonsAndExams(lessons []models.Lesson, exams []models.Exam) []models.ScheduleItem {
	items := make([]models.ScheduleItem, 0, len(lessons)+len(exams))
	for _, lesson := range lessons {
		if adjusted, keep := resolveLesson(lesson, exams); keep {
			items = append(items, models.LessonItem{Lesson: adjusted})
		}
	}
	for _, exam := range exams {
		items = append(items, models.ExamItem{Exam: exam, IsToday: true})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return itemStartMinutes(items[i]) < itemStartMinutes(items[j])
	})
	return items
}

func resolveLesson(lesson models.Lesson, exams []models.Exam) (models.Lesson, bool) {
	lessonStart := ParseTimeToMinutes(lesson.StartTime)
	lessonEnd := ParseTimeToMinutes(lesson.EndTime)
	result := lesson

	for _, exam := range exams {
		examStart := ParseTimeToMinutes(exam.StartTime)
		examEnd := ParseTimeToMinutes(exam.FinishTime)
		if lessonEnd <= examStart || lessonStart >= examEnd {
			continue
		}
		if examEnd-examStart >= lessonEnd-lessonStart || examEnd >= lessonEnd {
			return models.Lesson{}, false
		}
		// each clip starts from the stored lesson, so the last short exam wins
		clipped := lesson
		clipped.StartTime = FormatMinutes(examEnd)
		result = clipped
	}
	return result, true
}

func itemStartMinutes(item models.ScheduleItem) int {
	start, _ := models.ItemTimes(item)
	return ParseTimeToMinutes(start)
}

func itemEndMinutes(item models.ScheduleItem) int {
	_, end := models.ItemTimes(item)
	return ParseTimeToMinutes(end)
}

// Projection evaluates a snapshot at a fixed instant. It is a value type and
// never mutates the snapshot.
type Projection struct {
	snapshot models.Snapshot
	now      time.Time
	minutes  int
	today    time.Time
}

// NewProjection freezes now for every query made through the projection.
func NewProjection(snapshot models.Snapshot, now time.Time) Projection {
	return Projection{
		snapshot: snapshot,
		now:      now,
		minutes:  now.Hour()*60 + now.Minute(),
		today:    startOfDay(now),
	}
}

// Now returns the instant the projection was built for.
func (p Projection) Now() time.Time {
	return p.now
}

// MinutesNow returns the current time of day in minutes.
func (p Projection) MinutesNow() int {
	return p.minutes
}

// DayName returns today's English weekday name.
func (p Projection) DayName() string {
	return p.now.Weekday().String()
}

// TomorrowDayName returns tomorrow's English weekday name.
func (p Projection) TomorrowDayName() string {
	return p.now.AddDate(0, 0, 1).Weekday().String()
}

// IsWeekend reports whether today is Saturday or Sunday.
func (p Projection) IsWeekend() bool {
	day := p.now.Weekday()
	return day == time.Saturday || day == time.Sunday
}

func (p Projection) lessonsFor(dayName string) []models.Lesson {
	for _, day := range p.snapshot.Days {
		if strings.EqualFold(day.Day, dayName) {
			return day.Lessons
		}
	}
	return nil
}

// TodayLessons returns today's lessons in timetable order.
func (p Projection) TodayLessons() []models.Lesson {
	return p.lessonsFor(p.DayName())
}

// TomorrowLessons returns tomorrow's lessons in timetable order.
func (p Projection) TomorrowLessons() []models.Lesson {
	return p.lessonsFor(p.TomorrowDayName())
}

// HasTimetable reports whether a timetable was stored and decoded into at
// least one day.
func (p Projection) HasTimetable() bool {
	return p.snapshot.TimetableStored && len(p.snapshot.Days) > 0
}

// HasExams reports whether any exams are stored at all.
func (p Projection) HasExams() bool {
	return len(p.snapshot.Exams) > 0
}

// HasLessonsToday reports whether today has any lessons.
func (p Projection) HasLessonsToday() bool {
	return len(p.TodayLessons()) > 0
}

// HasRemainingLessonsToday reports whether a lesson today has not finished.
func (p Projection) HasRemainingLessonsToday() bool {
	for _, lesson := range p.TodayLessons() {
		if ParseTimeToMinutes(lesson.EndTime) > p.minutes {
			return true
		}
	}
	return false
}

// HasUpcomingExams reports whether an exam is scheduled today or later.
func (p Projection) HasUpcomingExams() bool {
	return len(p.UpcomingExams(1)) > 0
}

// HasExamsToday reports whether an exam sits today.
func (p Projection) HasExamsToday() bool {
	return len(p.TodayExams()) > 0
}

// TodayExams returns the exams dated today, in document order.
func (p Projection) TodayExams() []models.Exam {
	exams := make([]models.Exam, 0)
	for _, exam := range p.snapshot.Exams {
		date, ok := ParseExamDate(exam.Date, p.now.Location())
		if ok && sameDay(date, p.today) {
			exams = append(exams, exam)
		}
	}
	return exams
}

// UpcomingExams returns at most limit exams dated today or later, earliest
// date first. Exams with unparseable dates are skipped.
func (p Projection) UpcomingExams(limit int) []models.Exam {
	type datedExam struct {
		exam models.Exam
		date time.Time
	}
	dated := make([]datedExam, 0, len(p.snapshot.Exams))
	for _, exam := range p.snapshot.Exams {
		date, ok := ParseExamDate(exam.Date, p.now.Location())
		if !ok || date.Before(p.today) {
			continue
		}
		dated = append(dated, datedExam{exam: exam, date: date})
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].date.Before(dated[j].date)
	})

	result := make([]models.Exam, 0, clampLimit(limit, len(dated)))
	for _, item := range dated {
		if len(result) >= limit {
			break
		}
		result = append(result, item.exam)
	}
	return result
}

// NextExam returns the earliest upcoming exam.
func (p Projection) NextExam() (models.Exam, bool) {
	exams := p.UpcomingExams(1)
	if len(exams) == 0 {
		return models.Exam{}, false
	}
	return exams[0], true
}

// CurrentLesson returns the first lesson whose [start, end) contains now.
func (p Projection) CurrentLesson() (models.Lesson, bool) {
	for _, lesson := range p.TodayLessons() {
		start := ParseTimeToMinutes(lesson.StartTime)
		end := ParseTimeToMinutes(lesson.EndTime)
		if p.minutes >= start && p.minutes < end {
			return lesson, true
		}
	}
	return models.Lesson{}, false
}

// NextLesson returns the earliest lesson starting after now; the first one
// in timetable order wins a tie.
func (p Projection) NextLesson() (models.Lesson, bool) {
	var (
		next  models.Lesson
		found bool
		best  int
	)
	for _, lesson := range p.TodayLessons() {
		start := ParseTimeToMinutes(lesson.StartTime)
		if start <= p.minutes {
			continue
		}
		if !found || start < best {
			next, best, found = lesson, start, true
		}
	}
	return next, found
}

// MergedToday merges today's lessons and exams.
func (p Projection) MergedToday() []models.ScheduleItem {
	return MergeLessonsAndExams(p.TodayLessons(), p.TodayExams())
}

// CurrentItem returns the merged item in progress now, if any.
func (p Projection) CurrentItem() (models.ScheduleItem, bool) {
	for _, item := range p.MergedToday() {
		if p.minutes >= itemStartMinutes(item) && p.minutes < itemEndMinutes(item) {
			return item, true
		}
	}
	return nil, false
}

// NextItem returns the first merged item starting after now.
func (p Projection) NextItem() (models.ScheduleItem, bool) {
	for _, item := range p.MergedToday() {
		if itemStartMinutes(item) > p.minutes {
			return item, true
		}
	}
	return nil, false
}

// UpcomingLessonsToday returns up to limit lessons that have not finished,
// including the one in progress.
func (p Projection) UpcomingLessonsToday(limit int) []models.Lesson {
	lessons := make([]models.Lesson, 0)
	for _, lesson := range p.TodayLessons() {
		if len(lessons) >= limit {
			break
		}
		if ParseTimeToMinutes(lesson.EndTime) > p.minutes {
			lessons = append(lessons, lesson)
		}
	}
	return lessons
}

// UpcomingMergedToday returns up to limit merged items that have not finished.
func (p Projection) UpcomingMergedToday(limit int) []models.ScheduleItem {
	items := make([]models.ScheduleItem, 0)
	for _, item := range p.MergedToday() {
		if len(items) >= limit {
			break
		}
		if itemEndMinutes(item) > p.minutes {
			items = append(items, item)
		}
	}
	return items
}

// DaysUntilExam counts whole calendar days from today to the exam date, or
// -1 when the date does not parse.
func (p Projection) DaysUntilExam(exam models.Exam) int {
	date, ok := ParseExamDate(exam.Date, p.now.Location())
	if !ok {
		return -1
	}
	return calendarDaysBetween(p.today, date)
}

// MinutesUntil returns the minutes from now until the given "HH:MM" today.
func (p Projection) MinutesUntil(start string) int {
	return ParseTimeToMinutes(start) - p.minutes
}

// LessonEmptyState explains an empty lesson section.
func (p Projection) LessonEmptyState() models.EmptyState {
	switch {
	case !p.HasTimetable():
		return models.EmptyNoTimetable
	case !p.HasLessonsToday():
		if p.IsWeekend() {
			return models.EmptyWeekend
		}
		return models.EmptyFreeDay
	default:
		return models.EmptyAllDone
	}
}

// ExamEmptyState explains an empty exam section.
func (p Projection) ExamEmptyState() models.EmptyState {
	if !p.HasExams() {
		return models.EmptyNoExams
	}
	return models.EmptyNoUpcomingExams
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func calendarDaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start) / (24 * time.Hour))
}

func clampLimit(limit, size int) int {
	if limit < 0 {
		return 0
	}
	if limit > size {
		return size
	}
	return limit
}
