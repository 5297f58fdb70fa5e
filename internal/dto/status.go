package dto

import "time"

// StatusSnapshot is the JSON shape of the status text served to viewers.
type StatusSnapshot struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
	Reporting bool      `json:"reporting"`
}
