package models

// PDFEntry is one cached sheet-music document. The payload is kept
// base64-encoded; entries are created on first successful fetch and removed
// only by TTL expiry, never updated in place.
type PDFEntry struct {
	SongID    string `json:"songId"`
	ServiceID string `json:"serviceId"`
	Title     string `json:"title"`
	Data      string `json:"data"` // base64-encoded document payload
	CreatedAt int64  `json:"createdAt"`
}
