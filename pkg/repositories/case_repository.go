package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/feralworks/trapper-engine/pkg/apperrors"
	"github.com/feralworks/trapper-engine/pkg/database"
	"github.com/feralworks/trapper-engine/pkg/models"
)

// CaseRepository provides data access for canonical cases, their parties and
// their notes journal.
type CaseRepository interface {
	// Upsert inserts or updates a case by case_number. Present incoming
	// values win; nil values never erase stored data. The archival and merge
	// columns are only written when the schema has them, per caps. Returns
	// the case ID and whether a new row was created.
	Upsert(ctx context.Context, c *models.Case, caps database.Capabilities) (uuid.UUID, bool, error)

	// LookupCaseNumberBySourceRecordID resolves a source record ID to its
	// case number. Returns apperrors.ErrNotFound when no case carries it.
	LookupCaseNumberBySourceRecordID(ctx context.Context, sourceRecordID string) (string, error)

	// AddParty links a person to a case in the given role. Idempotent;
	// returns whether a new link was created.
	AddParty(ctx context.Context, caseID, personID uuid.UUID, role models.PartyRole) (bool, error)

	// UpsertNote writes one journal entry keyed by noteKey, replacing the
	// body when it changed. Returns (inserted, updated).
	UpsertNote(ctx context.Context, caseID uuid.UUID, noteKey string, kind models.NoteKind, body, sourceSystem string) (bool, bool, error)
}

type caseRepository struct {
	db database.Querier
}

// NewCaseRepository creates a new CaseRepository.
func NewCaseRepository(db database.Querier) CaseRepository {
	return &caseRepository{db: db}
}

var _ CaseRepository = (*caseRepository)(nil)

// Upsert builds the column list dynamically so the same statement serves both
// full and legacy schemas. Every optional column updates via COALESCE with
// EXCLUDED first, so an incoming NULL never clobbers a stored value.
func (r *caseRepository) Upsert(ctx context.Context, c *models.Case, caps database.Capabilities) (uuid.UUID, bool, error) {
	cols := []string{"case_number"}
	args := []any{c.CaseNumber}

	coalesced := []string{
		"source_record_id", "primary_place_id", "primary_contact_person_id",
		"status", "priority", "priority_label", "notes",
	}
	args = append(args,
		c.SourceRecordID, c.PrimaryPlaceID, c.PrimaryContactPersonID,
		c.Status, c.Priority, c.PriorityLabel, c.Notes)

	if caps.CaseArchival {
		coalesced = append(coalesced, "archive_reason")
		args = append(args, c.ArchiveReason)
	}
	if caps.CaseMergeLinks {
		coalesced = append(coalesced, "merged_into_case_number", "merged_into_source_record_id")
		args = append(args, c.MergedIntoCaseNumber, c.MergedIntoSourceRecordID)
	}
	cols = append(cols, coalesced...)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	updates := make([]string, 0, len(coalesced)+2)
	for _, col := range coalesced {
		updates = append(updates, fmt.Sprintf("%s = COALESCE(EXCLUDED.%s, trapper_cases.%s)", col, col, col))
	}
	if caps.CaseArchival {
		// Stamped once, the first time a reason arrives.
		updates = append(updates,
			"archived_at = COALESCE(trapper_cases.archived_at, CASE WHEN EXCLUDED.archive_reason IS NOT NULL THEN now() END)")
	}
	updates = append(updates, "updated_at = now()")

	query := fmt.Sprintf(`
		INSERT INTO trapper_cases (%s)
		VALUES (%s)
		ON CONFLICT (case_number) DO UPDATE SET
			%s
		RETURNING id, (xmax = 0) AS inserted`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ",\n\t\t\t"))

	var id uuid.UUID
	var inserted bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id, &inserted); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to upsert case %s: %w", c.CaseNumber, err)
	}

	return id, inserted, nil
}

func (r *caseRepository) LookupCaseNumberBySourceRecordID(ctx context.Context, sourceRecordID string) (string, error) {
	var caseNumber string
	err := r.db.QueryRow(ctx,
		`SELECT case_number FROM trapper_cases WHERE source_record_id = $1`,
		sourceRecordID,
	).Scan(&caseNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up case by source record: %w", err)
	}
	return caseNumber, nil
}

func (r *caseRepository) AddParty(ctx context.Context, caseID, personID uuid.UUID, role models.PartyRole) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO trapper_case_parties (case_id, person_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (case_id, person_id, role) DO NOTHING`,
		caseID, personID, role)
	if err != nil {
		return false, fmt.Errorf("failed to add case party: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *caseRepository) UpsertNote(ctx context.Context, caseID uuid.UUID, noteKey string, kind models.NoteKind, body, sourceSystem string) (bool, bool, error) {
	// The WHERE clause suppresses the update when the body is unchanged, so
	// re-importing the same file reports zero note updates.
	query := `
		INSERT INTO trapper_case_notes (case_id, note_kind, note_body, note_key, source_system)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (note_key) DO UPDATE SET
			note_body = EXCLUDED.note_body,
			updated_at = now()
		WHERE trapper_case_notes.note_body IS DISTINCT FROM EXCLUDED.note_body
		RETURNING (xmax = 0) AS inserted`

	var insertedRow bool
	err := r.db.QueryRow(ctx, query, caseID, kind, body, noteKey, sourceSystem).Scan(&insertedRow)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to upsert case note: %w", err)
	}
	return insertedRow, !insertedRow, nil
}
