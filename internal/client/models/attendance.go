package models

// AttendanceRecord is the per-service attendance row the attendance cache
// persists. Records are overwritten wholesale whenever a service with
// attendance is observed again; edits are never diffed.
type AttendanceRecord struct {
	Date      string   `json:"date"`
	Title     string   `json:"title"`
	Confirmed []string `json:"confirmed"`
	Absent    []string `json:"absent"`
}

// Absence is one missed service in a member's history, newest first in
// stats output.
type Absence struct {
	ServiceID string `json:"serviceId"`
	Date      string `json:"date"`
	Title     string `json:"title"`
}

// MemberStats is the point-statistics answer for one member.
type MemberStats struct {
	PresentCount   int       `json:"presentCount"`
	AbsentCount    int       `json:"absentCount"`
	AttendanceRate int       `json:"attendanceRate"`
	Absences       []Absence `json:"absences"`
}
