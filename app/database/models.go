package database

import (
	"time"
)

// RefreshRecord is one catalog refresh attempt
type RefreshRecord struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	ParserCount   int
	TemplateCount int
	FailureCount  int
	Error         string // Empty when the refresh succeeded
}
