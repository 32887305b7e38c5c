package repositories

import (
	"context"
	"fmt"

	"github.com/feralworks/trapper-engine/pkg/database"
	"github.com/feralworks/trapper-engine/pkg/models"
)

// IngestRunRepository provides data access for the immutable ingest run log.
type IngestRunRepository interface {
	// Record writes one completed run. Runs are never updated or deleted.
	Record(ctx context.Context, run *models.IngestRun) error
}

type ingestRunRepository struct {
	db database.Querier
}

// NewIngestRunRepository creates a new IngestRunRepository.
func NewIngestRunRepository(db database.Querier) IngestRunRepository {
	return &ingestRunRepository{db: db}
}

var _ IngestRunRepository = (*ingestRunRepository)(nil)

func (r *ingestRunRepository) Record(ctx context.Context, run *models.IngestRun) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO trapper_ingest_runs (
			run_id, source_type, source_file, started_at, completed_at,
			coverage_start, coverage_end,
			rows_processed, rows_inserted, rows_updated, rows_staled, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		run.RunID, run.SourceType, run.SourceFile, run.StartedAt, run.CompletedAt,
		run.CoverageStart, run.CoverageEnd,
		run.RowsProcessed, run.RowsInserted, run.RowsUpdated, run.RowsStaled, run.Notes)
	if err != nil {
		return fmt.Errorf("failed to record ingest run: %w", err)
	}
	return nil
}
