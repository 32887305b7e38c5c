package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/feralworks/trapper-engine/pkg/database"
	"github.com/feralworks/trapper-engine/pkg/models"
)

// MatchCandidateRepository provides data access for the person match review
// queue.
type MatchCandidateRepository interface {
	// Upsert records a proposed link. Confidence only ever goes up: a rerun
	// with weaker evidence keeps the stored score and evidence. Returns
	// whether a new candidate row was created.
	Upsert(ctx context.Context, cand *models.MatchCandidate) (bool, error)

	// ListOpenBySource returns open candidates for one source record,
	// strongest first.
	ListOpenBySource(ctx context.Context, sourceSystem, sourceRecordID string) ([]models.MatchCandidate, error)
}

type matchCandidateRepository struct {
	db database.Querier
}

// NewMatchCandidateRepository creates a new MatchCandidateRepository.
func NewMatchCandidateRepository(db database.Querier) MatchCandidateRepository {
	return &matchCandidateRepository{db: db}
}

var _ MatchCandidateRepository = (*matchCandidateRepository)(nil)

func (r *matchCandidateRepository) Upsert(ctx context.Context, cand *models.MatchCandidate) (bool, error) {
	evidence, err := json.Marshal(cand.Evidence)
	if err != nil {
		return false, fmt.Errorf("failed to marshal match evidence: %w", err)
	}

	// Confidence never drops, but evidence always reflects the most recent
	// computation so reviewers see the current reasoning.
	query := `
		INSERT INTO trapper_person_match_candidates (
			source_system, source_record_id, candidate_person_id, confidence, evidence)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_system, source_record_id, candidate_person_id) DO UPDATE SET
			confidence = GREATEST(EXCLUDED.confidence, trapper_person_match_candidates.confidence),
			evidence = EXCLUDED.evidence,
			updated_at = now()
		RETURNING (xmax = 0) AS inserted`

	var inserted bool
	err = r.db.QueryRow(ctx, query,
		cand.SourceSystem, cand.SourceRecordID, cand.CandidatePersonID,
		cand.Confidence, evidence,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert match candidate: %w", err)
	}
	return inserted, nil
}

func (r *matchCandidateRepository) ListOpenBySource(ctx context.Context, sourceSystem, sourceRecordID string) ([]models.MatchCandidate, error) {
	query := `
		SELECT id, source_system, source_record_id, candidate_person_id,
		       confidence, evidence, status, created_at, updated_at
		FROM trapper_person_match_candidates
		WHERE source_system = $1 AND source_record_id = $2 AND status = 'open'
		ORDER BY confidence DESC`

	rows, err := r.db.Query(ctx, query, sourceSystem, sourceRecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.MatchCandidate
	for rows.Next() {
		var c models.MatchCandidate
		var evidence []byte
		err := rows.Scan(&c.ID, &c.SourceSystem, &c.SourceRecordID, &c.CandidatePersonID,
			&c.Confidence, &evidence, &c.Status, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match candidate: %w", err)
		}
		if err := json.Unmarshal(evidence, &c.Evidence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match evidence: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match candidates: %w", err)
	}

	return candidates, nil
}
