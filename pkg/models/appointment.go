package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceSystemClinic identifies clinic scheduling exports.
const SourceSystemClinic = "clinichq"

// SourceSystemTracker identifies case tracker exports.
const SourceSystemTracker = "airtable"

// Appointment is one clinic appointment as last observed in an export.
// Identity is (SourceSystem, SourcePK); the record is mutable and updated in
// place across re-imports. IsCurrent flips to false only when a later run
// covering this appointment's date fails to re-observe it.
type Appointment struct {
	ID           uuid.UUID
	SourceSystem string
	SourcePK     string
	ContentHash  string
	SourceFile   string

	ApptDate   time.Time
	ApptNumber *int

	ClientFirstName *string
	ClientLastName  *string
	ClientAddress   *string
	ClientCellPhone *string
	ClientPhone     *string
	ClientEmail     *string
	ClientType      *string
	AnimalName      *string
	OwnershipType   *string

	FirstSeenAt   time.Time
	LastSeenAt    time.Time
	LastSeenRunID *uuid.UUID
	IsCurrent     bool
	StaleAt       *time.Time
}

// Submission is one request-form submission from the case tracker's intake
// form. Identity is (SourceSystem, SourcePK), derived from the export record
// ID or a digest of slowly-changing fields.
type Submission struct {
	ID           uuid.UUID
	SourceSystem string
	SourcePK     string
	ContentHash  string
	SourceFile   string

	SubmittedAt     *time.Time
	RequesterName   *string
	FirstName       *string
	LastName        *string
	Email           *string
	Phone           *string
	PhoneNormalized *string
	Address         *string
	CatCount        *int
	Notes           *string

	FirstSeenAt time.Time
	LastSeenAt  time.Time
}
