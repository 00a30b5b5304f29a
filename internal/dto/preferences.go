package dto

import "github.com/noah-isme/sma-widget-api/internal/models"

// LessonPayload is a lesson as pushed by the mobile app. Times are stored as
// sent; unparseable values are read as midnight.
type LessonPayload struct {
	Name      string   `json:"name"`
	Course    string   `json:"course"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Room      string   `json:"room"`
	Teachers  []string `json:"teachers"`
	Group     string   `json:"group"`
}

// DayPayload groups the lessons of one weekday.
type DayPayload struct {
	Day     string          `json:"day" validate:"required"`
	Lessons []LessonPayload `json:"lessons" validate:"dive"`
}

// SaveTimetableRequest replaces the stored weekly timetable.
type SaveTimetableRequest struct {
	Days []DayPayload `json:"days" validate:"required,dive"`
}

// ExamPayload is an exam sitting as pushed by the mobile app. Fields are
// stored as sent; exams with unparseable dates are left out of projections.
type ExamPayload struct {
	Date               string `json:"date"`
	StartTime          string `json:"startTime"`
	FinishTime         string `json:"finishTime"`
	SubjectDescription string `json:"subjectDescription"`
	ExamRoom           string `json:"examRoom"`
	SeatNumber         string `json:"seatNumber"`
	Paper              string `json:"paper"`
	BoardCode          string `json:"boardCode"`
	PreRoom            string `json:"preRoom"`
}

// SaveExamsRequest replaces the stored exam timetable.
type SaveExamsRequest struct {
	HasExams bool          `json:"hasExams"`
	Exams    []ExamPayload `json:"exams" validate:"dive"`
}

// SetDebugClockRequest pins the effective time to BaseTime from now on.
type SetDebugClockRequest struct {
	BaseTime string `json:"base_time" validate:"required"`
}

// DebugClockResponse reports the stored override.
type DebugClockResponse struct {
	Enabled      bool   `json:"enabled"`
	BaseTime     string `json:"base_time,omitempty"`
	SetAt        string `json:"set_at,omitempty"`
	EffectiveNow string `json:"effective_now"`
}

// ToModel converts the payload into the stored document.
func (r SaveTimetableRequest) ToModel() models.Timetable {
	days := make([]models.DaySchedule, 0, len(r.Days))
	for _, day := range r.Days {
		lessons := make([]models.Lesson, 0, len(day.Lessons))
		for _, l := range day.Lessons {
			lessons = append(lessons, models.Lesson{
				Name:      l.Name,
				Course:    l.Course,
				StartTime: l.StartTime,
				EndTime:   l.EndTime,
				Room:      l.Room,
				Teachers:  l.Teachers,
				Group:     l.Group,
			})
		}
		days = append(days, models.DaySchedule{Day: day.Day, Lessons: lessons})
	}
	return models.Timetable{Days: days}
}

// ToModel converts the payload into the stored document.
func (r SaveExamsRequest) ToModel() models.ExamTimetable {
	exams := make([]models.Exam, 0, len(r.Exams))
	for _, e := range r.Exams {
		exams = append(exams, models.Exam(e))
	}
	return models.ExamTimetable{HasExams: r.HasExams, Exams: exams}
}
