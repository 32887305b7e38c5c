package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feralworks/trapper-engine/pkg/apperrors"
	"github.com/feralworks/trapper-engine/pkg/database"
	"github.com/feralworks/trapper-engine/pkg/exports"
	"github.com/feralworks/trapper-engine/pkg/geocode"
	"github.com/feralworks/trapper-engine/pkg/logging"
	"github.com/feralworks/trapper-engine/pkg/models"
	"github.com/feralworks/trapper-engine/pkg/normalize"
	"github.com/feralworks/trapper-engine/pkg/repositories"
)

// CaseIngestSummary reports what one case import did.
type CaseIngestSummary struct {
	RowsProcessed     int
	BlankRows         int
	MissingCaseNumber int
	DuplicateInFile   int

	CasesCreated int
	CasesUpdated int

	PeopleCreated int
	PlacesCreated int
	AddressesSeen int
	Geocoded      int

	MergesResolved int
	MergesDangling int
	StatusUnmapped int
	NotesWritten   int
}

// CaseIngestService imports case tracker exports into the canonical tables.
type CaseIngestService interface {
	// IngestCases reads one case tracker CSV and upserts every row. The same
	// file is always safe to re-run: present values win, blanks never erase.
	IngestCases(ctx context.Context, sourceFile string, r io.Reader) (*CaseIngestSummary, error)
}

type caseIngestService struct {
	addressRepo repositories.AddressRepository
	placeRepo   repositories.PlaceRepository
	personRepo  repositories.PersonRepository
	caseRepo    repositories.CaseRepository
	geocoder    geocode.Geocoder // nil disables enrichment
	caps        database.Capabilities
	vocab       models.StatusVocabulary
	logger      *zap.Logger
}

// NewCaseIngestService creates a new CaseIngestService. Pass a nil geocoder
// to disable coordinate enrichment.
func NewCaseIngestService(
	addressRepo repositories.AddressRepository,
	placeRepo repositories.PlaceRepository,
	personRepo repositories.PersonRepository,
	caseRepo repositories.CaseRepository,
	geocoder geocode.Geocoder,
	caps database.Capabilities,
	logger *zap.Logger,
) CaseIngestService {
	return &caseIngestService{
		addressRepo: addressRepo,
		placeRepo:   placeRepo,
		personRepo:  personRepo,
		caseRepo:    caseRepo,
		geocoder:    geocoder,
		caps:        caps,
		vocab:       models.DefaultVocabulary(),
		logger:      logger.Named("case-ingest"),
	}
}

var _ CaseIngestService = (*caseIngestService)(nil)

func (s *caseIngestService) IngestCases(ctx context.Context, sourceFile string, r io.Reader) (*CaseIngestSummary, error) {
	rows, blanks, err := exports.ReadCaseRows(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read case export: %w", err)
	}

	summary := &CaseIngestSummary{BlankRows: blanks}

	// Pre-scan the whole batch so merge targets that appear later in the
	// same file resolve without a second pass.
	recordIDToCase := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.RecordID != "" && row.CaseNumber != "" {
			recordIDToCase[row.RecordID] = row.CaseNumber
		}
	}

	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		summary.RowsProcessed++

		if row.CaseNumber == "" {
			summary.MissingCaseNumber++
			continue
		}
		if seen[row.CaseNumber] {
			summary.DuplicateInFile++
			continue
		}
		seen[row.CaseNumber] = true

		if err := s.ingestRow(ctx, row, recordIDToCase, summary); err != nil {
			return nil, fmt.Errorf("case %s: %w", row.CaseNumber, err)
		}
	}

	s.logger.Info("case ingest complete",
		zap.String("source_file", sourceFile),
		zap.Int("rows", summary.RowsProcessed),
		zap.Int("created", summary.CasesCreated),
		zap.Int("updated", summary.CasesUpdated),
		zap.Int("merges_resolved", summary.MergesResolved),
		zap.Int("merges_dangling", summary.MergesDangling))

	return summary, nil
}

func (s *caseIngestService) ingestRow(ctx context.Context, row exports.CaseRow, recordIDToCase map[string]string, summary *CaseIngestSummary) error {
	placeID, err := s.upsertLocation(ctx, row, summary)
	if err != nil {
		return err
	}

	personID, err := s.upsertReporter(ctx, row, summary)
	if err != nil {
		return err
	}

	c := models.Case{CaseNumber: row.CaseNumber}
	if row.RecordID != "" {
		c.SourceRecordID = &row.RecordID
	}
	c.PrimaryPlaceID = placeID
	c.PrimaryContactPersonID = personID

	if status, ok := s.vocab.CoerceStatus(row.RawStatus); ok {
		c.Status = &status
	} else if row.RawStatus != "" {
		summary.StatusUnmapped++
		s.logger.Warn("unmapped case status",
			zap.String("case_number", row.CaseNumber),
			zap.String("raw_status", row.RawStatus))
	}
	if reason, ok := s.vocab.CoerceArchiveReason(row.RawStatus); ok {
		c.ArchiveReason = &reason
	}
	if priority, ok := s.vocab.CoercePriority(row.RawPriority); ok {
		c.Priority = &priority
	}
	if row.RawPriority != "" {
		c.PriorityLabel = &row.RawPriority
	}
	if row.Notes != "" {
		c.Notes = &row.Notes
	}

	s.resolveMerge(ctx, row, recordIDToCase, &c, summary)

	caseID, inserted, err := s.caseRepo.Upsert(ctx, &c, s.caps)
	if err != nil {
		return err
	}
	if inserted {
		summary.CasesCreated++
	} else {
		summary.CasesUpdated++
	}

	if personID != nil {
		if _, err := s.caseRepo.AddParty(ctx, caseID, *personID, models.PartyRoleReporter); err != nil {
			return err
		}
	}

	if s.caps.CaseNotes {
		for _, note := range []struct {
			kind models.NoteKind
			body string
		}{
			{models.NoteKindInternal, row.Notes},
			{models.NoteKindCaseInfo, row.CaseInfo},
		} {
			if note.body == "" {
				continue
			}
			noteKey := fmt.Sprintf("%s::%s::%s", models.SourceSystemTracker, row.CaseNumber, note.kind)
			ins, upd, err := s.caseRepo.UpsertNote(ctx, caseID, noteKey, note.kind, note.body, models.SourceSystemTracker)
			if err != nil {
				return err
			}
			if ins || upd {
				summary.NotesWritten++
			}
		}
	}

	return nil
}

// upsertLocation writes the address and place rows for one case row and
// returns the place ID (nil when the row has no location at all).
func (s *caseIngestService) upsertLocation(ctx context.Context, row exports.CaseRow, summary *CaseIngestSummary) (*uuid.UUID, error) {
	if row.RawAddress == "" && row.PlaceName == "" {
		return nil, nil
	}

	var addressID *uuid.UUID
	if row.RawAddress != "" {
		summary.AddressesSeen++
		addr := models.Address{
			AddressKey: models.AddressKeyFor(row.RawAddress),
			RawAddress: normalize.Whitespace(row.RawAddress),
			Latitude:   row.Latitude,
			Longitude:  row.Longitude,
		}
		if addr.Latitude == nil && s.geocoder != nil {
			// Enrichment only: a geocoder failure never fails the row.
			result, err := s.geocoder.Geocode(ctx, addr.RawAddress)
			if err != nil {
				s.logger.Warn("geocode failed",
					zap.String("case_number", row.CaseNumber),
					zap.String("error", logging.SanitizeError(err)))
			} else if result != nil {
				addr.Latitude = &result.Latitude
				addr.Longitude = &result.Longitude
				addr.FormattedAddress = &result.FormattedAddress
				summary.Geocoded++
			}
		}
		id, _, err := s.addressRepo.Upsert(ctx, &addr)
		if err != nil {
			return nil, err
		}
		addressID = &id
	}

	displayName := normalize.Whitespace(row.PlaceName)
	if displayName == "" {
		displayName = normalize.Whitespace(row.RawAddress)
	}
	place := models.Place{
		PlaceKey:    models.PlaceKeyFor(row.PlaceName, row.RawAddress),
		DisplayName: displayName,
		AddressID:   addressID,
	}
	placeID, inserted, err := s.placeRepo.Upsert(ctx, &place)
	if err != nil {
		return nil, err
	}
	if inserted {
		summary.PlacesCreated++
	}
	return &placeID, nil
}

func (s *caseIngestService) upsertReporter(ctx context.Context, row exports.CaseRow, summary *CaseIngestSummary) (*uuid.UUID, error) {
	personKey := models.PersonKeyFor(row.FirstName, row.LastName, row.Email, row.Phone)
	if personKey == "" {
		return nil, nil
	}

	person := models.Person{PersonKey: personKey}
	if v := normalize.Whitespace(row.FirstName); v != "" {
		person.FirstName = &v
	}
	if v := normalize.Whitespace(row.LastName); v != "" {
		person.LastName = &v
	}
	if v := normalize.Email(row.Email); v != "" {
		person.Email = &v
	}
	if v := normalize.Whitespace(row.Phone); v != "" {
		person.Phone = &v
	}
	if v := normalize.Phone(row.Phone); v != "" {
		person.PhoneNormalized = &v
	}

	id, inserted, err := s.personRepo.Upsert(ctx, &person)
	if err != nil {
		return nil, err
	}
	if inserted {
		summary.PeopleCreated++
	}
	return &id, nil
}

// resolveMerge fills the forward link for a row explicitly marked a duplicate
// of another case. The target record ID is kept even when it cannot be
// resolved yet; a later run that knows the target completes the chain. A case
// with a merge target is locked in: closed, archived as duplicate, whatever
// the raw status said.
func (s *caseIngestService) resolveMerge(ctx context.Context, row exports.CaseRow, recordIDToCase map[string]string, c *models.Case, summary *CaseIngestSummary) {
	target := row.MergeTargetRecordID
	if target == "" || target == row.RecordID {
		return
	}

	c.MergedIntoSourceRecordID = &target

	targetCase, ok := recordIDToCase[target]
	if !ok {
		var err error
		targetCase, err = s.caseRepo.LookupCaseNumberBySourceRecordID(ctx, target)
		if errors.Is(err, apperrors.ErrNotFound) {
			summary.MergesDangling++
			s.logger.Warn("merge target not found",
				zap.String("case_number", row.CaseNumber),
				zap.String("target_record_id", target))
			s.lockInMerge(c)
			return
		}
		if err != nil {
			// Lookup trouble downgrades to a dangling link; the next run
			// retries the resolution.
			summary.MergesDangling++
			s.logger.Warn("merge target lookup failed",
				zap.String("case_number", row.CaseNumber),
				zap.String("error", logging.SanitizeError(err)))
			s.lockInMerge(c)
			return
		}
	}

	if targetCase == row.CaseNumber {
		// Self-merge, ignore.
		c.MergedIntoSourceRecordID = nil
		return
	}

	c.MergedIntoCaseNumber = &targetCase
	summary.MergesResolved++
	s.lockInMerge(c)
}

func (s *caseIngestService) lockInMerge(c *models.Case) {
	closed := models.CaseStatusClosed
	duplicate := models.ArchiveReasonDuplicate
	c.Status = &closed
	c.ArchiveReason = &duplicate
}
