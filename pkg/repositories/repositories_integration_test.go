package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feralworks/trapper-engine/pkg/database"
	"github.com/feralworks/trapper-engine/pkg/matching"
	"github.com/feralworks/trapper-engine/pkg/models"
	"github.com/feralworks/trapper-engine/pkg/testhelpers"
)

func strPtr(s string) *string { return &s }

func TestDetectCapabilities_FullSchema(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)

	caps, err := database.DetectCapabilities(context.Background(), testDB.DB.Pool)
	require.NoError(t, err)

	assert.True(t, caps.CaseArchival)
	assert.True(t, caps.CaseMergeLinks)
	assert.True(t, caps.CaseNotes)
	assert.True(t, caps.WindowedSnapshots)
	assert.True(t, caps.IngestRuns)
}

func TestCaseRepository_PresentWinsUpsert(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	ctx := context.Background()

	repo := NewCaseRepository(testDB.DB.Pool)
	caps, err := database.DetectCapabilities(ctx, testDB.DB.Pool)
	require.NoError(t, err)

	status := models.CaseStatusInProgress
	priority := 2
	first := &models.Case{
		CaseNumber:     "C-100",
		SourceRecordID: strPtr("recA"),
		Status:         &status,
		Priority:       &priority,
	}
	id1, inserted, err := repo.Upsert(ctx, first, caps)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Re-import with blanks: status survives, the new priority lands.
	newPriority := 3
	second := &models.Case{
		CaseNumber: "C-100",
		Priority:   &newPriority,
	}
	id2, inserted, err := repo.Upsert(ctx, second, caps)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, id1, id2)

	var gotStatus, gotRecordID string
	var gotPriority int
	err = testDB.DB.QueryRow(ctx,
		`SELECT status, source_record_id, priority FROM trapper_cases WHERE case_number = $1`,
		"C-100").Scan(&gotStatus, &gotRecordID, &gotPriority)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", gotStatus)
	assert.Equal(t, "recA", gotRecordID)
	assert.Equal(t, 3, gotPriority)
}

func TestCaseRepository_ArchivedAtSetOnce(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	ctx := context.Background()

	repo := NewCaseRepository(testDB.DB.Pool)
	caps, err := database.DetectCapabilities(ctx, testDB.DB.Pool)
	require.NoError(t, err)

	reason := models.ArchiveReasonDenied
	c := &models.Case{CaseNumber: "C-100", ArchiveReason: &reason}
	_, _, err = repo.Upsert(ctx, c, caps)
	require.NoError(t, err)

	var firstArchivedAt time.Time
	err = testDB.DB.QueryRow(ctx,
		`SELECT archived_at FROM trapper_cases WHERE case_number = $1`, "C-100").Scan(&firstArchivedAt)
	require.NoError(t, err)

	_, _, err = repo.Upsert(ctx, c, caps)
	require.NoError(t, err)

	var secondArchivedAt time.Time
	err = testDB.DB.QueryRow(ctx,
		`SELECT archived_at FROM trapper_cases WHERE case_number = $1`, "C-100").Scan(&secondArchivedAt)
	require.NoError(t, err)
	assert.Equal(t, firstArchivedAt, secondArchivedAt)
}

func TestCaseRepository_NoteUnchangedReportsNothing(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	ctx := context.Background()

	repo := NewCaseRepository(testDB.DB.Pool)
	caps, err := database.DetectCapabilities(ctx, testDB.DB.Pool)
	require.NoError(t, err)

	caseID, _, err := repo.Upsert(ctx, &models.Case{CaseNumber: "C-100"}, caps)
	require.NoError(t, err)

	key := "airtable::C-100::internal"
	ins, upd, err := repo.UpsertNote(ctx, caseID, key, models.NoteKindInternal, "call first", "airtable")
	require.NoError(t, err)
	assert.True(t, ins)
	assert.False(t, upd)

	ins, upd, err = repo.UpsertNote(ctx, caseID, key, models.NoteKindInternal, "call first", "airtable")
	require.NoError(t, err)
	assert.False(t, ins)
	assert.False(t, upd)

	ins, upd, err = repo.UpsertNote(ctx, caseID, key, models.NoteKindInternal, "call after 5pm", "airtable")
	require.NoError(t, err)
	assert.False(t, ins)
	assert.True(t, upd)
}

func TestPersonRepository_BlankNeverOverwrites(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	ctx := context.Background()

	repo := NewPersonRepository(testDB.DB.Pool)

	id1, inserted, err := repo.Upsert(ctx, &models.Person{
		PersonKey: "email:jane@example.com",
		FirstName: strPtr("Jane"),
		LastName:  strPtr("Doe"),
		Email:     strPtr("jane@example.com"),
	})
	require.NoError(t, err)
	assert.True(t, inserted)

	id2, inserted, err := repo.Upsert(ctx, &models.Person{
		PersonKey: "email:jane@example.com",
		Email:     strPtr("jane@example.com"),
		Phone:     strPtr("(813) 555-0101"),
	})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, id1, id2)

	people, err := repo.ListCanonical(ctx)
	require.NoError(t, err)
	require.Len(t, people, 1)
	require.NotNil(t, people[0].FirstName)
	assert.Equal(t, "Jane", *people[0].FirstName)
	require.NotNil(t, people[0].Phone)
}

func TestMatchCandidateRepository_ConfidenceMonotonic(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	ctx := context.Background()

	personRepo := NewPersonRepository(testDB.DB.Pool)
	personID, _, err := personRepo.Upsert(ctx, &models.Person{
		PersonKey: "email:jane@example.com",
		Email:     strPtr("jane@example.com"),
	})
	require.NoError(t, err)

	repo := NewMatchCandidateRepository(testDB.DB.Pool)
	cand := &models.MatchCandidate{
		SourceSystem:      models.SourceSystemClinic,
		SourceRecordID:    "clientA",
		CandidatePersonID: personID,
		Confidence:        0.85,
		Evidence:          matching.Evidence{MatchedOn: []string{"name_fuzzy", "area_code"}, Tier: 1},
	}
	inserted, err := repo.Upsert(ctx, cand)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Weaker rerun: the stored score survives but the evidence reflects
	// the latest computation.
	cand.Confidence = 0.55
	cand.Evidence = matching.Evidence{MatchedOn: []string{"name_fuzzy"}, Tier: 2}
	inserted, err = repo.Upsert(ctx, cand)
	require.NoError(t, err)
	assert.False(t, inserted)

	stored, err := repo.ListOpenBySource(ctx, models.SourceSystemClinic, "clientA")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 0.85, stored[0].Confidence, 0.0001)
	assert.Equal(t, 2, stored[0].Evidence.Tier)

	// Stronger rerun raises the score.
	cand.Confidence = 0.98
	cand.Evidence = matching.Evidence{MatchedOn: []string{"email"}, EmailMatch: true, Tier: 0}
	_, err = repo.Upsert(ctx, cand)
	require.NoError(t, err)

	stored, err = repo.ListOpenBySource(ctx, models.SourceSystemClinic, "clientA")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 0.98, stored[0].Confidence, 0.0001)
	assert.True(t, stored[0].Evidence.EmailMatch)
}

func TestAppointmentRepository_StaleSweepBoundedByWindow(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	ctx := context.Background()

	repo := NewAppointmentRepository(testDB.DB.Pool)
	run1 := uuid.New()

	inside := &models.Appointment{
		SourceSystem: models.SourceSystemClinic,
		SourcePK:     "appt-inside",
		ContentHash:  "h1",
		SourceFile:   "jan.csv",
		ApptDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	outside := &models.Appointment{
		SourceSystem: models.SourceSystemClinic,
		SourcePK:     "appt-outside",
		ContentHash:  "h2",
		SourceFile:   "feb.csv",
		ApptDate:     time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	}
	_, err := repo.Upsert(ctx, inside, run1, true)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, outside, run1, true)
	require.NoError(t, err)

	// A later January-only run that re-observed nothing expires only the
	// January row.
	run2 := uuid.New()
	staled, err := repo.MarkStaleInWindow(ctx, models.SourceSystemClinic, run2,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), staled)

	var isCurrent bool
	err = testDB.DB.QueryRow(ctx,
		`SELECT is_current FROM trapper_appointments WHERE source_pk = $1`, "appt-inside").Scan(&isCurrent)
	require.NoError(t, err)
	assert.False(t, isCurrent)

	err = testDB.DB.QueryRow(ctx,
		`SELECT is_current FROM trapper_appointments WHERE source_pk = $1`, "appt-outside").Scan(&isCurrent)
	require.NoError(t, err)
	assert.True(t, isCurrent)

	// Re-observing the row revives it.
	run3 := uuid.New()
	inserted, err := repo.Upsert(ctx, inside, run3, true)
	require.NoError(t, err)
	assert.False(t, inserted)

	var staleAt *time.Time
	err = testDB.DB.QueryRow(ctx,
		`SELECT is_current, stale_at FROM trapper_appointments WHERE source_pk = $1`, "appt-inside").
		Scan(&isCurrent, &staleAt)
	require.NoError(t, err)
	assert.True(t, isCurrent)
	assert.Nil(t, staleAt)
}

func TestAppointmentRepository_ListUnlinkedClientsAggregates(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, testDB.DB)
	ctx := context.Background()

	repo := NewAppointmentRepository(testDB.DB.Pool)
	run := uuid.New()

	for i, pk := range []string{"a1", "a2", "a3"} {
		appt := &models.Appointment{
			SourceSystem:    models.SourceSystemClinic,
			SourcePK:        pk,
			ContentHash:     "h",
			SourceFile:      "jan.csv",
			ApptDate:        time.Date(2024, 1, 10+i, 0, 0, 0, 0, time.UTC),
			ClientFirstName: strPtr("Jane"),
			ClientLastName:  strPtr("Doe"),
			ClientCellPhone: strPtr("813-555-0101"),
		}
		_, err := repo.Upsert(ctx, appt, run, true)
		require.NoError(t, err)
	}

	records, err := repo.ListUnlinkedClients(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Visits)
	require.NotNil(t, records[0].FirstName)
	assert.Equal(t, "Jane", *records[0].FirstName)

	// Linking the representative record removes those appointments from the
	// pool one row at a time; link all three and the owner disappears.
	linkRepo := NewSourceLinkRepository(testDB.DB.Pool)
	personRepo := NewPersonRepository(testDB.DB.Pool)
	personID, _, err := personRepo.Upsert(ctx, &models.Person{
		PersonKey: "phone:8135550101",
		Phone:     strPtr("813-555-0101"),
	})
	require.NoError(t, err)
	for _, pk := range []string{"a1", "a2", "a3"} {
		require.NoError(t, linkRepo.Link(ctx, models.SourceSystemClinic, pk, personID))
	}

	records, err = repo.ListUnlinkedClients(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
