package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/feralworks/trapper-engine/pkg/database"
	"github.com/feralworks/trapper-engine/pkg/models"
)

// AppointmentRepository provides data access for clinic appointment snapshots.
type AppointmentRepository interface {
	// Upsert inserts or updates an appointment by (source_system, source_pk).
	// When windowed is true the row is stamped with the current run ID and
	// revived (is_current true, stale_at cleared); legacy schemas skip those
	// columns. Returns whether a new row was created.
	Upsert(ctx context.Context, appt *models.Appointment, runID uuid.UUID, windowed bool) (bool, error)

	// MarkStaleInWindow flips is_current off for rows of the given source
	// system whose date falls inside [start, end] but were not re-observed by
	// this run. Rows outside the window are never touched. Returns the number
	// of rows staled.
	MarkStaleInWindow(ctx context.Context, sourceSystem string, runID uuid.UUID, start, end time.Time) (int64, error)

	// ListUnlinkedClients aggregates appointments with no person link by
	// owner identity, busiest owners first.
	ListUnlinkedClients(ctx context.Context, limit int) ([]models.UnlinkedSourceRecord, error)
}

type appointmentRepository struct {
	db database.Querier
}

// NewAppointmentRepository creates a new AppointmentRepository.
func NewAppointmentRepository(db database.Querier) AppointmentRepository {
	return &appointmentRepository{db: db}
}

var _ AppointmentRepository = (*appointmentRepository)(nil)

func (r *appointmentRepository) Upsert(ctx context.Context, appt *models.Appointment, runID uuid.UUID, windowed bool) (bool, error) {
	var query string
	args := []any{
		appt.SourceSystem, appt.SourcePK, appt.ContentHash, appt.SourceFile,
		appt.ApptDate, appt.ApptNumber,
		appt.ClientFirstName, appt.ClientLastName, appt.ClientAddress,
		appt.ClientCellPhone, appt.ClientPhone, appt.ClientEmail,
		appt.ClientType, appt.AnimalName, appt.OwnershipType,
	}

	if windowed {
		query = `
			INSERT INTO trapper_appointments (
				source_system, source_pk, content_hash, source_file,
				appt_date, appt_number,
				client_first_name, client_last_name, client_address,
				client_cell_phone, client_phone, client_email,
				client_type, animal_name, ownership_type,
				last_seen_run_id, is_current)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, true)
			ON CONFLICT (source_system, source_pk) DO UPDATE SET
				content_hash = EXCLUDED.content_hash,
				source_file = EXCLUDED.source_file,
				appt_date = EXCLUDED.appt_date,
				appt_number = COALESCE(EXCLUDED.appt_number, trapper_appointments.appt_number),
				client_first_name = COALESCE(EXCLUDED.client_first_name, trapper_appointments.client_first_name),
				client_last_name = COALESCE(EXCLUDED.client_last_name, trapper_appointments.client_last_name),
				client_address = COALESCE(EXCLUDED.client_address, trapper_appointments.client_address),
				client_cell_phone = COALESCE(EXCLUDED.client_cell_phone, trapper_appointments.client_cell_phone),
				client_phone = COALESCE(EXCLUDED.client_phone, trapper_appointments.client_phone),
				client_email = COALESCE(EXCLUDED.client_email, trapper_appointments.client_email),
				client_type = COALESCE(EXCLUDED.client_type, trapper_appointments.client_type),
				animal_name = COALESCE(EXCLUDED.animal_name, trapper_appointments.animal_name),
				ownership_type = COALESCE(EXCLUDED.ownership_type, trapper_appointments.ownership_type),
				last_seen_at = now(),
				updated_at = now(),
				last_seen_run_id = EXCLUDED.last_seen_run_id,
				is_current = true,
				stale_at = NULL
			RETURNING (xmax = 0) AS inserted`
		args = append(args, runID)
	} else {
		query = `
			INSERT INTO trapper_appointments (
				source_system, source_pk, content_hash, source_file,
				appt_date, appt_number,
				client_first_name, client_last_name, client_address,
				client_cell_phone, client_phone, client_email,
				client_type, animal_name, ownership_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (source_system, source_pk) DO UPDATE SET
				content_hash = EXCLUDED.content_hash,
				source_file = EXCLUDED.source_file,
				appt_date = EXCLUDED.appt_date,
				appt_number = COALESCE(EXCLUDED.appt_number, trapper_appointments.appt_number),
				client_first_name = COALESCE(EXCLUDED.client_first_name, trapper_appointments.client_first_name),
				client_last_name = COALESCE(EXCLUDED.client_last_name, trapper_appointments.client_last_name),
				client_address = COALESCE(EXCLUDED.client_address, trapper_appointments.client_address),
				client_cell_phone = COALESCE(EXCLUDED.client_cell_phone, trapper_appointments.client_cell_phone),
				client_phone = COALESCE(EXCLUDED.client_phone, trapper_appointments.client_phone),
				client_email = COALESCE(EXCLUDED.client_email, trapper_appointments.client_email),
				client_type = COALESCE(EXCLUDED.client_type, trapper_appointments.client_type),
				animal_name = COALESCE(EXCLUDED.animal_name, trapper_appointments.animal_name),
				ownership_type = COALESCE(EXCLUDED.ownership_type, trapper_appointments.ownership_type),
				last_seen_at = now(),
				updated_at = now()
			RETURNING (xmax = 0) AS inserted`
	}

	var inserted bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&inserted); err != nil {
		return false, fmt.Errorf("failed to upsert appointment %s/%s: %w", appt.SourceSystem, appt.SourcePK, err)
	}
	return inserted, nil
}

func (r *appointmentRepository) MarkStaleInWindow(ctx context.Context, sourceSystem string, runID uuid.UUID, start, end time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE trapper_appointments
		SET is_current = false, stale_at = now()
		WHERE source_system = $1
		  AND is_current
		  AND appt_date >= $2 AND appt_date <= $3
		  AND last_seen_run_id IS DISTINCT FROM $4`,
		sourceSystem, start, end, runID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale appointments: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *appointmentRepository) ListUnlinkedClients(ctx context.Context, limit int) ([]models.UnlinkedSourceRecord, error) {
	// One aggregate row per owner identity; the representative source_pk is
	// arbitrary but stable within a snapshot.
	query := `
		SELECT a.source_system,
		       max(a.source_pk) AS source_pk,
		       a.client_first_name, a.client_last_name, a.client_email,
		       COALESCE(a.client_cell_phone, a.client_phone) AS phone,
		       max(a.client_address) AS address,
		       count(*) AS visits
		FROM trapper_appointments a
		LEFT JOIN trapper_person_source_links l
		  ON l.source_system = a.source_system AND l.source_pk = a.source_pk
		WHERE l.person_id IS NULL
		  AND (a.client_first_name IS NOT NULL OR a.client_last_name IS NOT NULL
		       OR a.client_email IS NOT NULL
		       OR a.client_cell_phone IS NOT NULL OR a.client_phone IS NOT NULL)
		GROUP BY a.source_system, a.client_first_name, a.client_last_name,
		         a.client_email, COALESCE(a.client_cell_phone, a.client_phone)
		ORDER BY visits DESC, source_pk
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlinked clients: %w", err)
	}
	defer rows.Close()

	var records []models.UnlinkedSourceRecord
	for rows.Next() {
		var rec models.UnlinkedSourceRecord
		err := rows.Scan(&rec.SourceSystem, &rec.SourceRecordID,
			&rec.FirstName, &rec.LastName, &rec.Email, &rec.Phone, &rec.Address, &rec.Visits)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unlinked client: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unlinked clients: %w", err)
	}

	return records, nil
}
