// Package models defines the client-side domain types: repertoire songs,
// scheduled services and the records the local caches persist.
package models

// SongPart is a movement or voice part of a song that carries its own sheet.
type SongPart struct {
	Name   string `json:"name"`
	PDFURL string `json:"pdfUrl,omitempty"`
}

// Song is a repertoire entry. Entries are never partially updated: each sync
// replaces the whole entry for a given id.
type Song struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Category  string     `json:"category,omitempty"`
	Conductor string     `json:"conductor,omitempty"`
	PDFURL    string     `json:"pdfUrl,omitempty"`
	Parts     []SongPart `json:"parts,omitempty"`
	UpdatedAt int64      `json:"updatedAt"`
}

// DocumentURL resolves the sheet location: the direct field wins, otherwise
// the first part that carries one. Empty string means no sheet is available.
func (s *Song) DocumentURL() string {
	if s.PDFURL != "" {
		return s.PDFURL
	}
	for _, p := range s.Parts {
		if p.PDFURL != "" {
			return p.PDFURL
		}
	}
	return ""
}
