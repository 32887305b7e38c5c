package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/feralworks/trapper-engine/pkg/database"
)

// SourceLinkRepository provides data access for confirmed person links.
type SourceLinkRepository interface {
	// Link records that a source record resolves to a person, taking it out
	// of the unlinked pool. Idempotent.
	Link(ctx context.Context, sourceSystem, sourcePK string, personID uuid.UUID) error
}

type sourceLinkRepository struct {
	db database.Querier
}

// NewSourceLinkRepository creates a new SourceLinkRepository.
func NewSourceLinkRepository(db database.Querier) SourceLinkRepository {
	return &sourceLinkRepository{db: db}
}

var _ SourceLinkRepository = (*sourceLinkRepository)(nil)

func (r *sourceLinkRepository) Link(ctx context.Context, sourceSystem, sourcePK string, personID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO trapper_person_source_links (source_system, source_pk, person_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_system, source_pk) DO NOTHING`,
		sourceSystem, sourcePK, personID)
	if err != nil {
		return fmt.Errorf("failed to link source record: %w", err)
	}
	return nil
}
