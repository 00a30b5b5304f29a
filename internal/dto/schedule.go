package dto

// ScheduleEntry is a lesson or exam inside a day schedule.
type ScheduleEntry struct {
	Type      string   `json:"type"`
	Name      string   `json:"name"`
	Course    string   `json:"course,omitempty"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Room      string   `json:"room"`
	Teachers  []string `json:"teachers,omitempty"`
	Group     string   `json:"group,omitempty"`
	Seat      string   `json:"seat,omitempty"`
	PreRoom   string   `json:"pre_room,omitempty"`
	Paper     string   `json:"paper,omitempty"`
	IsToday   bool     `json:"is_today,omitempty"`
}

// TodaySchedule is the merged schedule for the effective day.
type TodaySchedule struct {
	Date         string          `json:"date"`
	Day          string          `json:"day"`
	EffectiveNow string          `json:"effective_now"`
	Current      *ScheduleEntry  `json:"current,omitempty"`
	Next         *ScheduleEntry  `json:"next,omitempty"`
	Items        []ScheduleEntry `json:"items"`
	Remaining    int             `json:"remaining"`
	EmptyState   string          `json:"empty_state,omitempty"`
}

// DayLessons lists the lessons of a single weekday.
type DayLessons struct {
	Day        string          `json:"day"`
	Lessons    []ScheduleEntry `json:"lessons"`
	EmptyState string          `json:"empty_state,omitempty"`
}

// UpcomingExam is an exam with its countdown relative to the effective time.
type UpcomingExam struct {
	Key       string        `json:"key"`
	Exam      ScheduleEntry `json:"exam"`
	Date      string        `json:"date"`
	DateLabel string        `json:"date_label"`
	DaysUntil int           `json:"days_until"`
	Countdown string        `json:"countdown"`
	Relative  string        `json:"relative"`
	RoomText  string        `json:"room_text"`
	BoardCode string        `json:"board_code,omitempty"`
}

// UpcomingExams is the response of the upcoming exams query.
type UpcomingExams struct {
	EffectiveNow string         `json:"effective_now"`
	Exams        []UpcomingExam `json:"exams"`
	EmptyState   string         `json:"empty_state,omitempty"`
}
