package repositories

import (
	"context"
	"fmt"

	"github.com/feralworks/trapper-engine/pkg/database"
	"github.com/feralworks/trapper-engine/pkg/models"
)

// SubmissionRepository provides data access for intake-form submission
// snapshots.
type SubmissionRepository interface {
	// Upsert inserts or updates a submission by (source_system, source_pk).
	// Returns whether a new row was created.
	Upsert(ctx context.Context, sub *models.Submission) (bool, error)

	// ListUnlinked returns submissions with no person link, newest first.
	ListUnlinked(ctx context.Context, limit int) ([]models.UnlinkedSourceRecord, error)
}

type submissionRepository struct {
	db database.Querier
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(db database.Querier) SubmissionRepository {
	return &submissionRepository{db: db}
}

var _ SubmissionRepository = (*submissionRepository)(nil)

func (r *submissionRepository) Upsert(ctx context.Context, sub *models.Submission) (bool, error) {
	query := `
		INSERT INTO trapper_submissions (
			source_system, source_pk, content_hash, source_file,
			submitted_at, requester_name, first_name, last_name,
			email, phone, phone_normalized, address, cat_count, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (source_system, source_pk) DO UPDATE SET
			content_hash = EXCLUDED.content_hash,
			source_file = EXCLUDED.source_file,
			submitted_at = COALESCE(EXCLUDED.submitted_at, trapper_submissions.submitted_at),
			requester_name = COALESCE(EXCLUDED.requester_name, trapper_submissions.requester_name),
			first_name = COALESCE(EXCLUDED.first_name, trapper_submissions.first_name),
			last_name = COALESCE(EXCLUDED.last_name, trapper_submissions.last_name),
			email = COALESCE(EXCLUDED.email, trapper_submissions.email),
			phone = COALESCE(EXCLUDED.phone, trapper_submissions.phone),
			phone_normalized = COALESCE(EXCLUDED.phone_normalized, trapper_submissions.phone_normalized),
			address = COALESCE(EXCLUDED.address, trapper_submissions.address),
			cat_count = COALESCE(EXCLUDED.cat_count, trapper_submissions.cat_count),
			notes = COALESCE(EXCLUDED.notes, trapper_submissions.notes),
			last_seen_at = now()
		RETURNING (xmax = 0) AS inserted`

	var inserted bool
	err := r.db.QueryRow(ctx, query,
		sub.SourceSystem, sub.SourcePK, sub.ContentHash, sub.SourceFile,
		sub.SubmittedAt, sub.RequesterName, sub.FirstName, sub.LastName,
		sub.Email, sub.Phone, sub.PhoneNormalized, sub.Address, sub.CatCount, sub.Notes,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert submission %s/%s: %w", sub.SourceSystem, sub.SourcePK, err)
	}
	return inserted, nil
}

func (r *submissionRepository) ListUnlinked(ctx context.Context, limit int) ([]models.UnlinkedSourceRecord, error) {
	query := `
		SELECT s.source_system, s.source_pk,
		       COALESCE(s.first_name, s.requester_name) AS first_name,
		       s.last_name, s.email, s.phone, s.address
		FROM trapper_submissions s
		LEFT JOIN trapper_person_source_links l
		  ON l.source_system = s.source_system AND l.source_pk = s.source_pk
		WHERE l.person_id IS NULL
		  AND (s.first_name IS NOT NULL OR s.last_name IS NOT NULL
		       OR s.requester_name IS NOT NULL
		       OR s.email IS NOT NULL OR s.phone IS NOT NULL)
		ORDER BY s.submitted_at DESC NULLS LAST, s.source_pk
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlinked submissions: %w", err)
	}
	defer rows.Close()

	var records []models.UnlinkedSourceRecord
	for rows.Next() {
		var rec models.UnlinkedSourceRecord
		err := rows.Scan(&rec.SourceSystem, &rec.SourceRecordID,
			&rec.FirstName, &rec.LastName, &rec.Email, &rec.Phone, &rec.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unlinked submission: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unlinked submissions: %w", err)
	}

	return records, nil
}
