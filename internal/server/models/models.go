// Package models holds the server-side storage records.
package models

// Song is one repertoire record. UpdatedAt is unix milliseconds of the last
// change; deletions are tombstoned, never physically removed, so the delta
// endpoints can report them.
type Song struct {
	ID        string     `json:"id"`
	ChoirID   string     `json:"-"`
	Title     string     `json:"title"`
	Category  string     `json:"category,omitempty"`
	Conductor string     `json:"conductor,omitempty"`
	PDFURL    string     `json:"pdfUrl,omitempty"`
	Parts     []SongPart `json:"parts,omitempty"`
	UpdatedAt int64      `json:"updatedAt"`
	Deleted   bool       `json:"-"`
}

// SongPart is one voice part with an optional dedicated sheet.
type SongPart struct {
	Name   string `json:"name"`
	PDFURL string `json:"pdfUrl,omitempty"`
}

// ChoirService is one scheduled service or rehearsal. Date is "YYYY-MM-DD",
// Time is "HH:MM" or empty for date-only services.
type ChoirService struct {
	ID        string   `json:"id"`
	ChoirID   string   `json:"-"`
	Title     string   `json:"title"`
	Date      string   `json:"date"`
	Time      string   `json:"time,omitempty"`
	SongIDs   []string `json:"songIds,omitempty"`
	Confirmed []string `json:"confirmed,omitempty"`
	Absent    []string `json:"absent,omitempty"`
	UpdatedAt int64    `json:"updatedAt"`
	Deleted   bool     `json:"deleted,omitempty"`
}

// User is an authenticated account. ChoirIDs carries the membership claims
// snapshot embedded in freshly minted tokens; the choir_members table is the
// source of truth it is rebuilt from.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	MemberID     string
	ChoirIDs     []string
}

// Absence is one recorded non-attendance of a member.
type Absence struct {
	ServiceID string `json:"serviceId"`
	Date      string `json:"date"`
	Title     string `json:"title"`
}
