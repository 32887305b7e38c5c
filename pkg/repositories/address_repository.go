package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/feralworks/trapper-engine/pkg/database"
	"github.com/feralworks/trapper-engine/pkg/models"
)

// AddressRepository provides data access for canonical addresses.
type AddressRepository interface {
	// Upsert inserts or updates an address by its address_key. Present
	// incoming values win; blank values never erase stored data. Returns the
	// address ID and whether a new row was created.
	Upsert(ctx context.Context, addr *models.Address) (uuid.UUID, bool, error)
}

type addressRepository struct {
	db database.Querier
}

// NewAddressRepository creates a new AddressRepository.
func NewAddressRepository(db database.Querier) AddressRepository {
	return &addressRepository{db: db}
}

var _ AddressRepository = (*addressRepository)(nil)

func (r *addressRepository) Upsert(ctx context.Context, addr *models.Address) (uuid.UUID, bool, error) {
	query := `
		INSERT INTO trapper_addresses (address_key, raw_address, formatted_address, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address_key) DO UPDATE SET
			raw_address = EXCLUDED.raw_address,
			formatted_address = COALESCE(EXCLUDED.formatted_address, trapper_addresses.formatted_address),
			latitude = COALESCE(EXCLUDED.latitude, trapper_addresses.latitude),
			longitude = COALESCE(EXCLUDED.longitude, trapper_addresses.longitude)
		RETURNING id, (xmax = 0) AS inserted`

	var id uuid.UUID
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		addr.AddressKey, addr.RawAddress, addr.FormattedAddress, addr.Latitude, addr.Longitude,
	).Scan(&id, &inserted)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to upsert address: %w", err)
	}

	return id, inserted, nil
}
