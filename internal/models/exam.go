package models

// Exam is a single sitting from the exam timetable document.
type Exam struct {
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

// Key identifies an exam for deep links.
func (e Exam) Key() string {
	return e.Date + "|" + e.StartTime + "|" + e.FinishTime + "|" + e.SubjectDescription + "|" + e.ExamRoom + "|" + e.SeatNumber
}

// ExamTimetable is the exam timetable document.
type ExamTimetable struct {
	HasExams bool   `json:"hasExams"`
	Exams    []Exam `json:"exams"`
}
