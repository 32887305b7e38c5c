package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/feralworks/trapper-engine/pkg/matching"
)

// ============================================================================
// Candidate Status
// ============================================================================

// CandidateStatus is the human-review state of a match candidate.
type CandidateStatus string

const (
	CandidateStatusOpen     CandidateStatus = "open"
	CandidateStatusAccepted CandidateStatus = "accepted"
	CandidateStatusRejected CandidateStatus = "rejected"
)

// ValidCandidateStatuses contains all valid candidate status values.
var ValidCandidateStatuses = []CandidateStatus{
	CandidateStatusOpen,
	CandidateStatusAccepted,
	CandidateStatusRejected,
}

// IsValidCandidateStatus checks if the given status is valid.
func IsValidCandidateStatus(s CandidateStatus) bool {
	for _, v := range ValidCandidateStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ============================================================================
// Match Candidate Model
// ============================================================================

// MatchCandidate is a proposed link between one source record and one
// canonical person, awaiting human review. The generator only ever raises a
// stored candidate's confidence; accepting or rejecting is out of scope.
type MatchCandidate struct {
	ID                uuid.UUID
	SourceSystem      string
	SourceRecordID    string
	CandidatePersonID uuid.UUID
	Confidence        float64
	Evidence          matching.Evidence
	Status            CandidateStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UnlinkedSourceRecord is one source-side identity the match generator still
// has to propose candidates for. For clinic exports one record aggregates
// every appointment by the same owner; Visits carries the appointment count.
type UnlinkedSourceRecord struct {
	SourceSystem   string
	SourceRecordID string
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	Address        *string
	Visits         int
}

// SourceLink marks a source record as already linked to a canonical person,
// removing it from the unlinked pool the generator scans.
type SourceLink struct {
	SourceSystem string
	SourcePK     string
	PersonID     uuid.UUID
	CreatedAt    time.Time
}
