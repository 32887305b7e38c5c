package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Case Status
// ============================================================================

// CaseStatus is the closed set of canonical case states.
type CaseStatus string

const (
	CaseStatusNew         CaseStatus = "new"
	CaseStatusNeedsReview CaseStatus = "needs_review"
	CaseStatusActive      CaseStatus = "active"
	CaseStatusScheduled   CaseStatus = "scheduled"
	CaseStatusInProgress  CaseStatus = "in_progress"
	CaseStatusPaused      CaseStatus = "paused"
	CaseStatusResolved    CaseStatus = "resolved"
	CaseStatusClosed      CaseStatus = "closed"
)

// ValidCaseStatuses contains all valid case status values.
var ValidCaseStatuses = []CaseStatus{
	CaseStatusNew,
	CaseStatusNeedsReview,
	CaseStatusActive,
	CaseStatusScheduled,
	CaseStatusInProgress,
	CaseStatusPaused,
	CaseStatusResolved,
	CaseStatusClosed,
}

// IsValidCaseStatus checks if the given status is valid.
func IsValidCaseStatus(s CaseStatus) bool {
	for _, v := range ValidCaseStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ============================================================================
// Archive Reason
// ============================================================================

// ArchiveReason explains why a case left the active pipeline.
type ArchiveReason string

const (
	ArchiveReasonDuplicate         ArchiveReason = "duplicate"
	ArchiveReasonDenied            ArchiveReason = "denied"
	ArchiveReasonReferredElsewhere ArchiveReason = "referred_elsewhere"
)

// ValidArchiveReasons contains all valid archive reason values.
var ValidArchiveReasons = []ArchiveReason{
	ArchiveReasonDuplicate,
	ArchiveReasonDenied,
	ArchiveReasonReferredElsewhere,
}

// IsValidArchiveReason checks if the given reason is valid.
func IsValidArchiveReason(r ArchiveReason) bool {
	for _, v := range ValidArchiveReasons {
		if v == r {
			return true
		}
	}
	return false
}

// ============================================================================
// Case Model
// ============================================================================

// Case is the canonical record of one trapping case. Created the first time
// a source record maps to a new case number; never deleted. A case merged
// into another stays in place with a forward link to its canonical target.
type Case struct {
	ID             uuid.UUID
	CaseNumber     string
	SourceRecordID *string

	PrimaryPlaceID         *uuid.UUID
	PrimaryContactPersonID *uuid.UUID

	Status        *CaseStatus
	Priority      *int
	PriorityLabel *string
	Notes         *string

	ArchiveReason *ArchiveReason
	ArchivedAt    *time.Time

	// Forward link to the case this one was merged into. A case with a
	// non-nil merge target always has status closed and reason duplicate.
	MergedIntoCaseNumber     *string
	MergedIntoSourceRecordID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PartyRole describes how a person relates to a case.
type PartyRole string

const (
	PartyRoleReporter PartyRole = "reporter"
	PartyRoleTrapper  PartyRole = "trapper"
	PartyRoleCaretaker PartyRole = "caretaker"
)

// NoteKind distinguishes entries in the case notes journal.
type NoteKind string

const (
	NoteKindCaseInfo NoteKind = "case_info"
	NoteKindInternal NoteKind = "internal"
)
