package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultVocabulary_Parses(t *testing.T) {
	v := DefaultVocabulary()
	assert.NotEmpty(t, v.Statuses)
	assert.NotEmpty(t, v.ArchiveReasons)
	assert.NotEmpty(t, v.PriorityWords)
}

func TestParseVocabulary_RejectsUnknownStatus(t *testing.T) {
	_, err := ParseVocabulary([]byte("statuses:\n  \"weird\": not_a_status\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestCoerceStatus(t *testing.T) {
	v := DefaultVocabulary()

	tests := []struct {
		name     string
		raw      string
		expected CaseStatus
		ok       bool
	}{
		{"direct", "New", CaseStatusNew, true},
		{"requested maps to new", "Requested", CaseStatusNew, true},
		{"needs attention", "Needs Attention", CaseStatusNeedsReview, true},
		{"rebook variant", "Need to Re-Book", CaseStatusNeedsReview, true},
		{"in progress", "In Progress", CaseStatusInProgress, true},
		{"partially complete", "Partially  Complete", CaseStatusInProgress, true},
		{"revisit", "Revisit", CaseStatusActive, true},
		{"complete slash closed", "Complete/Closed", CaseStatusClosed, true},
		{"complete spaced slash", "Complete / Closed", CaseStatusClosed, true},
		{"hold", "Hold", CaseStatusPaused, true},
		{"referred elsewhere", "Referred Elsewhere", CaseStatusResolved, true},
		{"duplicate request", "Duplicate Request", CaseStatusClosed, true},
		{"denied", "Denied", CaseStatusClosed, true},
		{"snake case fallback", "Scheduled", CaseStatusScheduled, true},
		{"unmapped left null", "Waiting On Vet", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.CoerceStatus(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCoerceArchiveReason(t *testing.T) {
	v := DefaultVocabulary()

	tests := []struct {
		name     string
		raw      string
		expected ArchiveReason
		ok       bool
	}{
		{"duplicate request", "Duplicate Request", ArchiveReasonDuplicate, true},
		{"dup", "dup", ArchiveReasonDuplicate, true},
		{"denied", "Denied", ArchiveReasonDenied, true},
		{"referred", "Referred", ArchiveReasonReferredElsewhere, true},
		{"active status has no reason", "In Progress", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.CoerceArchiveReason(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCoercePriority(t *testing.T) {
	v := DefaultVocabulary()

	tests := []struct {
		name     string
		raw      string
		expected int
		ok       bool
	}{
		{"bare digit", "2", 2, true},
		{"digit with label", "2 - Medium", 2, true},
		{"word low", "Low", 1, true},
		{"word medium", "medium", 2, true},
		{"word urgent", "URGENT", 4, true},
		{"unknown word", "whenever", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.CoercePriority(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPersonKeyFor(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		last     string
		email    string
		phone    string
		expected string
	}{
		{"email wins", "Jane", "Doe", "A@X.com", "555-123-4567", "email:a@x.com"},
		{"phone next", "Jane", "Doe", "", "(555) 123-4567", "phone:5551234567"},
		{"name last", "Jane", "Doe", "", "", "name:jane doe"},
		{"nothing", "", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PersonKeyFor(tt.first, tt.last, tt.email, tt.phone))
		})
	}
}

func TestPlaceKeyFor(t *testing.T) {
	assert.Equal(t, "place:back lot colony|addr:123 main st", PlaceKeyFor("Back Lot Colony", "123 Main St."))
	assert.Equal(t, "place:addr:123 main st", PlaceKeyFor("", "123 Main St."))
	assert.Equal(t, "place:colony|addr:unknown", PlaceKeyFor("Colony", ""))
}
