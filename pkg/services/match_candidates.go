package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feralworks/trapper-engine/pkg/matching"
	"github.com/feralworks/trapper-engine/pkg/models"
	"github.com/feralworks/trapper-engine/pkg/normalize"
	"github.com/feralworks/trapper-engine/pkg/repositories"
)

// MatchRunSummary reports what one candidate generation pass did.
type MatchRunSummary struct {
	PeopleScanned  int
	SourcesScanned int

	CandidatesCreated   int
	CandidatesRefreshed int
	CandidatesSkipped   int

	// ByTier counts persisted candidates per confidence tier (0 strongest).
	ByTier [4]int
}

// MatchCandidateService proposes links between unlinked source records and
// canonical people. It only writes to the review queue; it never links, never
// merges, never deletes.
type MatchCandidateService interface {
	// GenerateCandidates scores every unlinked source record against the
	// canonical people pool and persists the top matches. Re-running is
	// idempotent: stored confidence only ever goes up.
	GenerateCandidates(ctx context.Context, sourceLimit int) (*MatchRunSummary, error)
}

type matchCandidateService struct {
	personRepo repositories.PersonRepository
	apptRepo   repositories.AppointmentRepository
	subRepo    repositories.SubmissionRepository
	candRepo   repositories.MatchCandidateRepository
	thresholds matching.Thresholds
	logger     *zap.Logger
}

// NewMatchCandidateService creates a new MatchCandidateService.
func NewMatchCandidateService(
	personRepo repositories.PersonRepository,
	apptRepo repositories.AppointmentRepository,
	subRepo repositories.SubmissionRepository,
	candRepo repositories.MatchCandidateRepository,
	logger *zap.Logger,
) MatchCandidateService {
	return &matchCandidateService{
		personRepo: personRepo,
		apptRepo:   apptRepo,
		subRepo:    subRepo,
		candRepo:   candRepo,
		thresholds: matching.DefaultThresholds(),
		logger:     logger.Named("match-candidates"),
	}
}

var _ MatchCandidateService = (*matchCandidateService)(nil)

func (s *matchCandidateService) GenerateCandidates(ctx context.Context, sourceLimit int) (*MatchRunSummary, error) {
	people, err := s.personRepo.ListCanonical(ctx)
	if err != nil {
		return nil, err
	}
	pool := make([]matching.Person, 0, len(people))
	for i := range people {
		pool = append(pool, matchingPerson(&people[i]))
	}

	summary := &MatchRunSummary{PeopleScanned: len(pool)}
	if len(pool) == 0 {
		s.logger.Info("no canonical people to match against")
		return summary, nil
	}

	clients, err := s.apptRepo.ListUnlinkedClients(ctx, sourceLimit)
	if err != nil {
		return nil, err
	}
	submissions, err := s.subRepo.ListUnlinked(ctx, sourceLimit)
	if err != nil {
		return nil, err
	}

	for _, rec := range append(clients, submissions...) {
		summary.SourcesScanned++
		s.scoreSource(ctx, rec, pool, summary)
	}

	s.logger.Info("candidate generation complete",
		zap.Int("people", summary.PeopleScanned),
		zap.Int("sources", summary.SourcesScanned),
		zap.Int("created", summary.CandidatesCreated),
		zap.Int("refreshed", summary.CandidatesRefreshed),
		zap.Int("skipped", summary.CandidatesSkipped))

	return summary, nil
}

// scoreSource persists candidates for one unlinked record. A bad candidate is
// logged and counted as skipped; it never stops the run.
func (s *matchCandidateService) scoreSource(ctx context.Context, rec models.UnlinkedSourceRecord, pool []matching.Person, summary *MatchRunSummary) {
	subject := matchingSubject(rec)
	for _, match := range matching.Candidates(s.thresholds, subject, pool) {
		personID, err := uuid.Parse(match.PersonID)
		if err != nil {
			s.logger.Warn("skipping candidate with invalid person id",
				zap.String("source_record_id", rec.SourceRecordID),
				zap.String("person_id", match.PersonID))
			summary.CandidatesSkipped++
			continue
		}

		cand := &models.MatchCandidate{
			SourceSystem:      rec.SourceSystem,
			SourceRecordID:    rec.SourceRecordID,
			CandidatePersonID: personID,
			Confidence:        match.Confidence,
			Evidence:          match.Evidence,
		}
		inserted, err := s.candRepo.Upsert(ctx, cand)
		if err != nil {
			s.logger.Warn("candidate upsert failed",
				zap.String("source_system", rec.SourceSystem),
				zap.String("source_record_id", rec.SourceRecordID),
				zap.Error(err))
			summary.CandidatesSkipped++
			continue
		}
		if inserted {
			summary.CandidatesCreated++
		} else {
			summary.CandidatesRefreshed++
		}
		if tier := match.Evidence.Tier; tier >= 0 && tier < len(summary.ByTier) {
			summary.ByTier[tier]++
		}
	}
}

func matchingPerson(p *models.Person) matching.Person {
	mp := matching.Person{
		PersonID:    p.ID.String(),
		DisplayName: p.DisplayName(),
	}
	if p.Email != nil {
		mp.Email = *p.Email
	}
	if p.Phone != nil {
		mp.Phone = *p.Phone
	}
	if p.PhoneNormalized != nil {
		mp.PhoneNormalized = *p.PhoneNormalized
	}
	return mp
}

func matchingSubject(rec models.UnlinkedSourceRecord) matching.Subject {
	var first, last, email, phone, address string
	if rec.FirstName != nil {
		first = *rec.FirstName
	}
	if rec.LastName != nil {
		last = *rec.LastName
	}
	if rec.Email != nil {
		email = *rec.Email
	}
	if rec.Phone != nil {
		phone = *rec.Phone
	}
	if rec.Address != nil {
		address = *rec.Address
	}
	return matching.Subject{
		DisplayName:     normalize.Whitespace(first + " " + last),
		Email:           normalize.Email(email),
		Phone:           phone,
		PhoneNormalized: normalize.Phone(phone),
		AddressDisplay:  address,
	}
}
