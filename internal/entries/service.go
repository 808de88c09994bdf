package entries

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/2beens/traininglog/internal/dates"
	"github.com/2beens/traininglog/internal/sequencing"
	"github.com/2beens/traininglog/internal/telemetry/tracing"
	"github.com/2beens/traininglog/internal/training"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=entries_test

var (
	ErrNotPlanned           = errors.New("entry is not a planned entry")
	ErrPlanAlreadyCompleted = errors.New("planned entry already completed")
	ErrLinkNotAllowed       = errors.New("links are set only by completing a planned entry")
	// ErrRenumberAfterWrite is returned when the write itself succeeded but the
	// following renumbering pass did not. The next successful pass fixes the numbering.
	ErrRenumberAfterWrite = errors.New("renumbering after write failed")
)

type entriesRepo interface {
	List(ctx context.Context, ownerID string) ([]training.Entry, error)
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*training.Entry, error)
	Add(ctx context.Context, entry training.Entry) (*training.Entry, error)
	Update(ctx context.Context, entry *training.Entry) error
	Delete(ctx context.Context, ownerID string, id uuid.UUID) ([]uuid.UUID, error)
}

type renumberer interface {
	Renumber(ctx context.Context, ownerID string) (*sequencing.PassResult, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, ownerID string) error
}

// Changes holds the editable fields of an entry.
type Changes struct {
	Title           string     `json:"title"`
	Date            dates.Date `json:"date"`
	DistanceKm      float64    `json:"distanceKm"`
	DurationSeconds *int       `json:"durationSeconds"`
	AvgHeartRate    *int       `json:"avgHeartRate"`
}

type Service struct {
	repo       entriesRepo
	renumberer renumberer
	cache      cacheInvalidator
}

// NewService creates the entries service. cache can be nil.
func NewService(repo entriesRepo, renumberer renumberer, cache cacheInvalidator) *Service {
	return &Service{
		repo:       repo,
		renumberer: renumberer,
		cache:      cache,
	}
}

// List returns the owner's entries ordered by sequence number,
// a linked plan right after its completed entry.
func (s *Service) List(ctx context.Context, ownerID string) (_ []training.Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.entries.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	entries, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].SequenceNumber != entries[j].SequenceNumber {
			return entries[i].SequenceNumber < entries[j].SequenceNumber
		}
		return entries[i].IsCompleted() && !entries[j].IsCompleted()
	})

	return entries, nil
}

func (s *Service) Get(ctx context.Context, ownerID string, id uuid.UUID) (*training.Entry, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Add(ctx context.Context, entry training.Entry) (_ *training.Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.entries.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if entry.LinkedPlanID != nil {
		return nil, ErrLinkNotAllowed
	}
	entry.ID = uuid.Nil
	entry.SequenceNumber = 0
	entry.TrainingWeek = nil
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	added, err := s.repo.Add(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("add entry: %w", err)
	}
	span.SetAttributes(attribute.String("id", added.ID.String()))

	return s.afterWrite(ctx, added.OwnerID, added.ID)
}

func (s *Service) Update(ctx context.Context, ownerID string, id uuid.UUID, changes Changes) (_ *training.Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.entries.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id.String()))

	entry, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	entry.Title = changes.Title
	entry.Date = changes.Date
	entry.DistanceKm = changes.DistanceKm
	entry.DurationSeconds = changes.DurationSeconds
	entry.AvgHeartRate = changes.AvgHeartRate
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}

	return s.afterWrite(ctx, ownerID, id)
}

// Delete removes the entry, together with the plan it completed, if any.
func (s *Service) Delete(ctx context.Context, ownerID string, id uuid.UUID) (_ []uuid.UUID, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.entries.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id.String()))

	deleted, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if err := s.renumber(ctx, ownerID); err != nil {
		return deleted, err
	}

	return deleted, nil
}

// CompletePlanned records a completed entry for the planned entry planID.
// Title and date default to the plan's when not given.
func (s *Service) CompletePlanned(ctx context.Context, ownerID string, planID uuid.UUID, done Changes) (_ *training.Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.entries.complete-planned")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan", planID.String()))

	owned, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var plan *training.Entry
	for i := range owned {
		if owned[i].ID == planID {
			plan = &owned[i]
		}
		if owned[i].IsLinked() && *owned[i].LinkedPlanID == planID {
			return nil, ErrPlanAlreadyCompleted
		}
	}
	if plan == nil {
		return nil, training.ErrEntryNotFound
	}
	if !plan.IsPlanned() {
		return nil, ErrNotPlanned
	}

	completed := training.Entry{
		OwnerID:         ownerID,
		Status:          training.StatusCompleted,
		Title:           done.Title,
		Date:            done.Date,
		DistanceKm:      done.DistanceKm,
		DurationSeconds: done.DurationSeconds,
		AvgHeartRate:    done.AvgHeartRate,
		LinkedPlanID:    &plan.ID,
	}
	if completed.Title == "" {
		completed.Title = plan.Title
	}
	if !completed.HasDate() {
		completed.Date = plan.Date
	}
	if err := completed.Validate(); err != nil {
		return nil, err
	}

	added, err := s.repo.Add(ctx, completed)
	if err != nil {
		return nil, fmt.Errorf("add completed entry: %w", err)
	}

	return s.afterWrite(ctx, ownerID, added.ID)
}

// Renumber runs a renumbering pass on demand.
func (s *Service) Renumber(ctx context.Context, ownerID string) (*sequencing.PassResult, error) {
	pass, err := s.renumberer.Renumber(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return pass, nil
}

// afterWrite renumbers the owner and returns the fresh state of entry id.
func (s *Service) afterWrite(ctx context.Context, ownerID string, id uuid.UUID) (*training.Entry, error) {
	if err := s.renumber(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) renumber(ctx context.Context, ownerID string) error {
	defer s.invalidate(ctx, ownerID)

	if _, err := s.renumberer.Renumber(ctx, ownerID); err != nil {
		log.Errorf("renumber [%s] after write: %s", ownerID, err)
		return fmt.Errorf("%w: %w", ErrRenumberAfterWrite, err)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		log.Errorf("invalidate load cache [%s]: %s", ownerID, err)
	}
}
