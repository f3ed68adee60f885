package models

import "time"

// DateLayout is the calendar-date format used throughout the app.
const DateLayout = "2006-01-02"

// TimeLayout is the optional time-of-day format on a service.
const TimeLayout = "15:04"

// ChoirService is a scheduled service or rehearsal.
type ChoirService struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Date      string   `json:"date"`           // calendar date, DateLayout
	Time      string   `json:"time,omitempty"` // optional time of day, TimeLayout
	SongIDs   []string `json:"songIds,omitempty"`
	Confirmed []string `json:"confirmed,omitempty"`
	Absent    []string `json:"absent,omitempty"`
	Deleted   bool     `json:"deleted,omitempty"`
}

// HasAttendance reports whether the service carries any recorded attendance.
func (s *ChoirService) HasAttendance() bool {
	return len(s.Confirmed) > 0 || len(s.Absent) > 0
}

// IsUpcoming classifies the service against now. A service with a time of
// day is upcoming only while that instant is strictly in the future. A
// date-only service covers the whole day, so it stays upcoming until the day
// ends.
func (s *ChoirService) IsUpcoming(now time.Time) bool {
	day, err := time.ParseInLocation(DateLayout, s.Date, now.Location())
	if err != nil {
		return false
	}

	if s.Time != "" {
		tod, err := time.ParseInLocation(TimeLayout, s.Time, now.Location())
		if err == nil {
			at := time.Date(day.Year(), day.Month(), day.Day(),
				tod.Hour(), tod.Minute(), 0, 0, now.Location())
			return at.After(now)
		}
		// unparseable time falls back to date-only semantics
	}

	endOfDay := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), now.Location())
	return endOfDay.After(now)
}
