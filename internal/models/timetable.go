package models

// Lesson is one scheduled class on one weekday, as stored by the mobile app.
type Lesson struct {
	Name      string   `json:"name"`
	Course    string   `json:"course"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Room      string   `json:"room"`
	Teachers  []string `json:"teachers"`
	Group     string   `json:"group"`
}

// FirstTeacher returns the lead teacher or an empty string.
func (l Lesson) FirstTeacher() string {
	if len(l.Teachers) == 0 {
		return ""
	}
	return l.Teachers[0]
}

// DaySchedule groups the lessons of a single weekday.
type DaySchedule struct {
	Day     string   `json:"day"`
	Lessons []Lesson `json:"lessons"`
}

// Timetable is the weekly timetable document.
type Timetable struct {
	Days []DaySchedule `json:"days"`
}
