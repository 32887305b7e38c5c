package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/feralworks/trapper-engine/pkg/database"
	"github.com/feralworks/trapper-engine/pkg/models"
)

// PlaceRepository provides data access for named places attached to addresses.
type PlaceRepository interface {
	// Upsert inserts or updates a place by its place_key. Returns the place
	// ID and whether a new row was created.
	Upsert(ctx context.Context, place *models.Place) (uuid.UUID, bool, error)
}

type placeRepository struct {
	db database.Querier
}

// NewPlaceRepository creates a new PlaceRepository.
func NewPlaceRepository(db database.Querier) PlaceRepository {
	return &placeRepository{db: db}
}

var _ PlaceRepository = (*placeRepository)(nil)

func (r *placeRepository) Upsert(ctx context.Context, place *models.Place) (uuid.UUID, bool, error) {
	query := `
		INSERT INTO trapper_places (place_key, display_name, address_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (place_key) DO UPDATE SET
			display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE trapper_places.display_name END,
			address_id = COALESCE(EXCLUDED.address_id, trapper_places.address_id)
		RETURNING id, (xmax = 0) AS inserted`

	var id uuid.UUID
	var inserted bool
	err := r.db.QueryRow(ctx, query, place.PlaceKey, place.DisplayName, place.AddressID).Scan(&id, &inserted)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to upsert place: %w", err)
	}

	return id, inserted, nil
}
