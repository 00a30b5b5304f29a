package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-widget-api/internal/models"
	"github.com/noah-isme/sma-widget-api/pkg/clock"
)

// Monday 3 March 2025.
var projectorMonday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hhmm string) time.Time {
	minutes := ParseTimeToMinutes(hhmm)
	return day.Add(time.Duration(minutes) * time.Minute)
}

func lesson(name, start, end string) models.Lesson {
	return models.Lesson{Name: name, Course: "C-" + name, StartTime: start, EndTime: end, Room: "R1", Teachers: []string{"T. Smith"}, Group: "G1"}
}

func exam(date, start, finish, subject string) models.Exam {
	return models.Exam{Date: date, StartTime: start, FinishTime: finish, SubjectDescription: subject, ExamRoom: "Hall", SeatNumber: "12"}
}

func snapshotWith(days []models.DaySchedule, exams []models.Exam, now time.Time) models.Snapshot {
	return models.Snapshot{
		TimetableStored: len(days) > 0,
		Days:            days,
		Exams:           exams,
		Clock:           clock.Fixed(now),
	}
}

func lessonNames(items []models.ScheduleItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case models.LessonItem:
			names = append(names, "L:"+v.Lesson.Name+"@"+v.Lesson.StartTime+"-"+v.Lesson.EndTime)
		case models.ExamItem:
			names = append(names, "E:"+v.Exam.SubjectDescription+"@"+v.Exam.StartTime+"-"+v.Exam.FinishTime)
		}
	}
	return names
}

func TestParseTimeToMinutes(t *testing.T) {
	cases := map[string]int{
		"09:30":    570,
		"00:00":    0,
		"23:59":    1439,
		"9:5":      545,
		"10:00:00": 600,
		"":         0,
		"12":       0,
		"aa:10":    0,
		"10:bb":    0,
	}
	for input, expected := range cases {
		assert.Equal(t, expected, ParseTimeToMinutes(input), input)
	}
}

func TestFormatMinutesInvertsParse(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		for minute := 0; minute < 60; minute++ {
			canonical := fmt.Sprintf("%02d:%02d", hour, minute)
			require.Equal(t, canonical, FormatMinutes(ParseTimeToMinutes(canonical)))
		}
	}
}

func TestParseClockStrict(t *testing.T) {
	hour, minute, ok := ParseClock("08:45")
	require.True(t, ok)
	assert.Equal(t, 8, hour)
	assert.Equal(t, 45, minute)

	_, _, ok = ParseClock("08:45:00")
	assert.False(t, ok)
	_, _, ok = ParseClock("8")
	assert.False(t, ok)
	_, _, ok = ParseClock("xx:10")
	assert.False(t, ok)
}

func TestParseExamDate(t *testing.T) {
	date, ok := ParseExamDate("05-03-2025", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), date)

	for _, bad := range []string{"", "2025-03", "05/03/2025", "aa-03-2025", "05-bb-2025", "05-03-cc"} {
		_, ok := ParseExamDate(bad, time.UTC)
		assert.False(t, ok, bad)
	}
}

func TestMergeClipsLessonBehindShortExam(t *testing.T) {
	merged := MergeLessonsAndExams(
		[]models.Lesson{lesson("Maths", "09:00", "10:00")},
		[]models.Exam{exam("03-03-2025", "09:30", "09:45", "Physics")},
	)

	require.Len(t, merged, 2)
	assert.Equal(t, []string{"E:Physics@09:30-09:45", "L:Maths@09:45-10:00"}, lessonNames(merged))

	clipped := merged[1].(models.LessonItem).Lesson
	assert.Equal(t, "R1", clipped.Room)
	assert.Equal(t, []string{"T. Smith"}, clipped.Teachers)
	assert.Equal(t, "C-Maths", clipped.Course)
}

func TestMergeDropsLessonInsideLongerExam(t *testing.T) {
	merged := MergeLessonsAndExams(
		[]models.Lesson{lesson("Maths", "09:00", "10:00")},
		[]models.Exam{exam("03-03-2025", "08:30", "10:30", "Physics")},
	)
	assert.Equal(t, []string{"E:Physics@08:30-10:30"}, lessonNames(merged))
}

func TestMergeDropsLessonOnEqualDuration(t *testing.T) {
	merged := MergeLessonsAndExams(
		[]models.Lesson{lesson("Maths", "09:00", "10:00")},
		[]models.Exam{exam("03-03-2025", "09:30", "10:30", "Physics")},
	)
	assert.Equal(t, []string{"E:Physics@09:30-10:30"}, lessonNames(merged))
}

func TestMergeDropsLessonWhenShortExamRunsToEnd(t *testing.T) {
	merged := MergeLessonsAndExams(
		[]models.Lesson{lesson("Maths", "09:00", "10:00")},
		[]models.Exam{exam("03-03-2025", "09:30", "10:00", "Physics")},
	)
	assert.Equal(t, []string{"E:Physics@09:30-10:00"}, lessonNames(merged))
}

func TestMergeKeepsAdjacentLessons(t *testing.T) {
	merged := MergeLessonsAndExams(
		[]models.Lesson{lesson("Maths", "09:00", "10:00"), lesson("English", "11:00", "12:00")},
		[]models.Exam{exam("03-03-2025", "10:00", "11:00", "Physics")},
	)
	assert.Equal(t, []string{"L:Maths@09:00-10:00", "E:Physics@10:00-11:00", "L:English@11:00-12:00"}, lessonNames(merged))
}

func TestMergeLastShortExamDeterminesClip(t *testing.T) {
	merged := MergeLessonsAndExams(
		[]models.Lesson{lesson("Maths", "09:00", "11:00")},
		[]models.Exam{
			exam("03-03-2025", "09:00", "09:20", "Chemistry"),
			exam("03-03-2025", "09:10", "09:40", "Biology"),
		},
	)
	assert.Equal(t, []string{"E:Chemistry@09:00-09:20", "E:Biology@09:10-09:40", "L:Maths@09:40-11:00"}, lessonNames(merged))
}

func TestMergeIsSortedByStart(t *testing.T) {
	lessons := []models.Lesson{
		lesson("D", "15:00", "16:00"),
		lesson("A", "09:00", "10:00"),
		lesson("C", "13:00", "14:00"),
		lesson("B", "10:00", "11:00"),
	}
	exams := []models.Exam{
		exam("03-03-2025", "13:10", "13:30", "X"),
		exam("03-03-2025", "08:00", "08:30", "Y"),
	}

	merged := MergeLessonsAndExams(lessons, exams)
	for i := 1; i < len(merged); i++ {
		assert.LessOrEqual(t, itemStartMinutes(merged[i-1]), itemStartMinutes(merged[i]))
	}
}

func TestCurrentAndNextLesson(t *testing.T) {
	days := []models.DaySchedule{{Day: "monday", Lessons: []models.Lesson{
		lesson("Maths", "09:00", "10:00"),
		lesson("English", "10:30", "11:30"),
		lesson("Art", "10:30", "12:00"),
	}}}

	p := NewProjection(snapshotWith(days, nil, at(projectorMonday, "09:59")), at(projectorMonday, "09:59"))
	current, ok := p.CurrentLesson()
	require.True(t, ok)
	assert.Equal(t, "Maths", current.Name)
	next, ok := p.NextLesson()
	require.True(t, ok)
	assert.Equal(t, "English", next.Name)

	p = NewProjection(snapshotWith(days, nil, at(projectorMonday, "10:00")), at(projectorMonday, "10:00"))
	_, ok = p.CurrentLesson()
	assert.False(t, ok, "end of interval is exclusive")

	p = NewProjection(snapshotWith(days, nil, at(projectorMonday, "12:30")), at(projectorMonday, "12:30"))
	_, ok = p.NextLesson()
	assert.False(t, ok)
	assert.False(t, p.HasRemainingLessonsToday())
	assert.Equal(t, models.EmptyAllDone, p.LessonEmptyState())
}

func TestCurrentAndNextItemUseMergedSchedule(t *testing.T) {
	days := []models.DaySchedule{{Day: "Monday", Lessons: []models.Lesson{lesson("Maths", "09:00", "10:00")}}}
	exams := []models.Exam{exam("03-03-2025", "09:30", "09:45", "Physics")}
	now := at(projectorMonday, "09:35")

	p := NewProjection(snapshotWith(days, exams, now), now)

	current, ok := p.CurrentItem()
	require.True(t, ok)
	examItem, isExam := current.(models.ExamItem)
	require.True(t, isExam)
	assert.True(t, examItem.IsToday)

	next, ok := p.NextItem()
	require.True(t, ok)
	lessonItem, isLesson := next.(models.LessonItem)
	require.True(t, isLesson)
	assert.Equal(t, "09:45", lessonItem.Lesson.StartTime)

	later := at(projectorMonday, "10:00")
	p = NewProjection(snapshotWith(days, exams, later), later)
	_, ok = p.CurrentItem()
	assert.False(t, ok)
}

func TestUpcomingExamsFiltersAndSorts(t *testing.T) {
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	exams := []models.Exam{
		exam("10-03-2025", "09:00", "10:00", "Late"),
		exam("28-02-2025", "09:00", "10:00", "Past"),
		exam("01-03-2025", "08:00", "09:00", "Today earlier"),
		exam("not-a-date", "09:00", "10:00", "Broken"),
		exam("05-03-2025", "09:00", "10:00", "Soon"),
	}
	p := NewProjection(snapshotWith(nil, exams, now), now)

	upcoming := p.UpcomingExams(5)
	subjects := make([]string, 0, len(upcoming))
	for _, e := range upcoming {
		subjects = append(subjects, e.SubjectDescription)
	}
	assert.Equal(t, []string{"Today earlier", "Soon", "Late"}, subjects)
	assert.Len(t, p.UpcomingExams(2), 2)
	assert.Empty(t, p.UpcomingExams(0))

	next, ok := p.NextExam()
	require.True(t, ok)
	assert.Equal(t, "Today earlier", next.SubjectDescription)
	assert.True(t, p.HasExamsToday())
	assert.True(t, p.HasUpcomingExams())
}

func TestDaysUntilExam(t *testing.T) {
	now := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	p := NewProjection(snapshotWith(nil, nil, now), now)

	assert.Equal(t, 4, p.DaysUntilExam(exam("05-03-2025", "09:00", "10:00", "X")))
	assert.Equal(t, 0, p.DaysUntilExam(exam("01-03-2025", "09:00", "10:00", "X")))
	assert.Equal(t, -1, p.DaysUntilExam(exam("garbage", "09:00", "10:00", "X")))
}

func TestDaysUntilExamAcrossDaylightSaving(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	now := time.Date(2025, 3, 28, 12, 0, 0, 0, london)
	p := NewProjection(snapshotWith(nil, nil, now), now)
	assert.Equal(t, 5, p.DaysUntilExam(exam("02-04-2025", "09:00", "10:00", "X")))
}

func TestNoTimetableStored(t *testing.T) {
	now := at(projectorMonday, "09:00")
	p := NewProjection(snapshotWith(nil, nil, now), now)

	assert.False(t, p.HasTimetable())
	assert.Empty(t, p.TodayLessons())
	assert.Empty(t, p.TomorrowLessons())
	assert.Empty(t, p.UpcomingLessonsToday(5))
	assert.Empty(t, p.MergedToday())
	assert.Equal(t, models.EmptyNoTimetable, p.LessonEmptyState())
	assert.Equal(t, models.EmptyNoExams, p.ExamEmptyState())
}

func TestFreeDayAndWeekendEmptyStates(t *testing.T) {
	days := []models.DaySchedule{{Day: "Tuesday", Lessons: []models.Lesson{lesson("Maths", "09:00", "10:00")}}}

	monday := at(projectorMonday, "09:00")
	p := NewProjection(snapshotWith(days, nil, monday), monday)
	assert.True(t, p.HasTimetable())
	assert.False(t, p.HasLessonsToday())
	assert.Equal(t, models.EmptyFreeDay, p.LessonEmptyState())
	assert.Len(t, p.TomorrowLessons(), 1)

	saturday := at(projectorMonday.AddDate(0, 0, -2), "09:00")
	p = NewProjection(snapshotWith(days, nil, saturday), saturday)
	assert.True(t, p.IsWeekend())
	assert.Equal(t, models.EmptyWeekend, p.LessonEmptyState())
}

func TestUpcomingLessonsAndMergedToday(t *testing.T) {
	days := []models.DaySchedule{{Day: "Monday", Lessons: []models.Lesson{
		lesson("Maths", "09:00", "10:00"),
		lesson("English", "10:00", "11:00"),
		lesson("Art", "11:00", "12:00"),
	}}}
	exams := []models.Exam{exam("03-03-2025", "13:00", "14:00", "Physics")}
	now := at(projectorMonday, "10:15")
	p := NewProjection(snapshotWith(days, exams, now), now)

	upcoming := p.UpcomingLessonsToday(5)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "English", upcoming[0].Name)

	merged := p.UpcomingMergedToday(2)
	assert.Equal(t, []string{"L:English@10:00-11:00", "L:Art@11:00-12:00"}, lessonNames(merged))
	assert.Len(t, p.UpcomingMergedToday(10), 3)
	assert.Equal(t, 165, p.MinutesUntil("13:00"))
}

func TestTimetableStoredButEmpty(t *testing.T) {
	now := at(projectorMonday, "09:00")
	snap := models.Snapshot{TimetableStored: true, Clock: clock.Fixed(now)}
	p := NewProjection(snap, now)
	assert.False(t, p.HasTimetable())
}
