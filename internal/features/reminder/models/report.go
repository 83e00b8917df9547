package models

import "time"

// Report summarises one sweep run.
type Report struct {
	RunID     string        `json:"run_id"`
	Sweep     string        `json:"sweep"`
	Total     int           `json:"total"`
	Sent      int           `json:"sent"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}
