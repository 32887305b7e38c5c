package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/feralworks/trapper-engine/pkg/database"
	"github.com/feralworks/trapper-engine/pkg/models"
)

// PersonRepository provides data access for canonical people.
type PersonRepository interface {
	// Upsert inserts or updates a person by person_key. Present incoming
	// values win; blank values never erase stored data. Returns the person ID
	// and whether a new row was created.
	Upsert(ctx context.Context, person *models.Person) (uuid.UUID, bool, error)

	// ListCanonical returns the pool of people the match generator scores
	// against: every person with at least a name, an email, or a phone.
	ListCanonical(ctx context.Context) ([]models.Person, error)
}

type personRepository struct {
	db database.Querier
}

// NewPersonRepository creates a new PersonRepository.
func NewPersonRepository(db database.Querier) PersonRepository {
	return &personRepository{db: db}
}

var _ PersonRepository = (*personRepository)(nil)

func (r *personRepository) Upsert(ctx context.Context, person *models.Person) (uuid.UUID, bool, error) {
	query := `
		INSERT INTO trapper_people (person_key, first_name, last_name, email, phone, phone_normalized)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (person_key) DO UPDATE SET
			first_name = COALESCE(EXCLUDED.first_name, trapper_people.first_name),
			last_name = COALESCE(EXCLUDED.last_name, trapper_people.last_name),
			email = COALESCE(EXCLUDED.email, trapper_people.email),
			phone = COALESCE(EXCLUDED.phone, trapper_people.phone),
			phone_normalized = COALESCE(EXCLUDED.phone_normalized, trapper_people.phone_normalized),
			updated_at = now()
		RETURNING id, (xmax = 0) AS inserted`

	var id uuid.UUID
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		person.PersonKey, person.FirstName, person.LastName,
		person.Email, person.Phone, person.PhoneNormalized,
	).Scan(&id, &inserted)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to upsert person: %w", err)
	}

	return id, inserted, nil
}

func (r *personRepository) ListCanonical(ctx context.Context) ([]models.Person, error) {
	query := `
		SELECT id, person_key, first_name, last_name, email, phone, phone_normalized,
		       created_at, updated_at
		FROM trapper_people
		WHERE first_name IS NOT NULL OR last_name IS NOT NULL
		   OR email IS NOT NULL OR phone_normalized IS NOT NULL
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		var p models.Person
		err := rows.Scan(&p.ID, &p.PersonKey, &p.FirstName, &p.LastName,
			&p.Email, &p.Phone, &p.PhoneNormalized, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating people: %w", err)
	}

	return people, nil
}
