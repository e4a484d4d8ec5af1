package domain

import "time"

// Checkpoint is the export position after the last fully loaded page of a
// source→target migration.
type Checkpoint struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Cursor    string    `json:"cursor"`
	Pages     int       `json:"pages"`
	Loaded    int       `json:"loaded"`
	UpdatedAt time.Time `json:"updated_at"`
}
