package models

import (
	"time"

	"github.com/google/uuid"
)

// IngestRun is the immutable log entry for one import execution: which file,
// which date range it claims to represent, and what happened. Written once at
// run end; staleness decisions reference its coverage window.
type IngestRun struct {
	RunID      uuid.UUID
	SourceType string
	SourceFile string

	StartedAt   time.Time
	CompletedAt time.Time

	CoverageStart *time.Time
	CoverageEnd   *time.Time

	RowsProcessed int
	RowsInserted  int
	RowsUpdated   int
	RowsStaled    int

	Notes *string
}
