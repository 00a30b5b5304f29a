package models

import (
	"time"

	"github.com/noah-isme/sma-widget-api/pkg/clock"
)

// Preference keys written by the mobile app.
const (
	PreferenceTimetable      = "flutter.timetable"
	PreferenceExamTimetable  = "flutter.examTimetable"
	PreferenceDebugEnabled   = "flutter.debug_enabled"
	PreferenceDebugTimeMs    = "flutter.debug_time_millis"
	PreferenceDebugSetRealMs = "flutter.debug_set_real_time"
)

// SnapshotPreferenceKeys lists every key a snapshot is built from.
var SnapshotPreferenceKeys = []string{
	PreferenceTimetable,
	PreferenceExamTimetable,
	PreferenceDebugEnabled,
	PreferenceDebugTimeMs,
	PreferenceDebugSetRealMs,
}

// DebugClock captures the stored debug time override.
type DebugClock struct {
	Enabled  bool      `json:"enabled"`
	BaseTime time.Time `json:"base_time"`
	SetAt    time.Time `json:"set_at"`
}

// Snapshot is the read-only state a projection is evaluated against.
type Snapshot struct {
	// TimetableStored reports whether a non-empty timetable document exists,
	// regardless of whether it decoded.
	TimetableStored bool
	Days            []DaySchedule
	Exams           []Exam
	Debug           DebugClock
	Clock           clock.Clock
}

// Now evaluates the snapshot clock.
func (s Snapshot) Now() time.Time {
	return s.Clock.Now()
}
