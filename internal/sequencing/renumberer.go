package sequencing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/2beens/traininglog/internal/telemetry/metrics"
	"github.com/2beens/traininglog/internal/telemetry/tracing"
	"github.com/2beens/traininglog/internal/training"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=renumberer_mocks_test.go -package=sequencing_test

var (
	// ErrDataUnavailable means the entry set could not be loaded. Nothing was written.
	ErrDataUnavailable = errors.New("training entries unavailable")
	// ErrWriteConflict means the atomic numbering write failed. Stored numbering is unchanged
	// and the whole pass can be retried.
	ErrWriteConflict = errors.New("numbering write failed")
)

type entriesRepo interface {
	List(ctx context.Context, ownerID string) ([]training.Entry, error)
	ApplyNumbering(ctx context.Context, ownerID string, updates []training.NumberingUpdate) error
}

type PassResult struct {
	OwnerID string `json:"ownerId"`
	Entries int    `json:"entries"`
	Updated int    `json:"updated"`
	Weeks   int    `json:"weeks"`
}

// Renumberer runs renumbering passes: load the owner's entries, compute, apply the diff.
// Passes of the same owner are serialized, different owners run independently.
type Renumberer struct {
	repo           entriesRepo
	metricsManager *metrics.Manager

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRenumberer(repo entriesRepo, metricsManager *metrics.Manager) *Renumberer {
	return &Renumberer{
		repo:           repo,
		metricsManager: metricsManager,
		locks:          map[string]*sync.Mutex{},
	}
}

func (r *Renumberer) Renumber(ctx context.Context, ownerID string) (_ *PassResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "renumberer.renumber")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner", ownerID))

	lock := r.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	timer := prometheus.NewTimer(r.metricsManager.HistRenumberDuration)
	defer timer.ObserveDuration()

	entries, err := r.repo.List(ctx, ownerID)
	if err != nil {
		r.metricsManager.CounterRenumberPasses.WithLabelValues(metrics.RenumberResultUnavailable).Inc()
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	if err := Validate(ownerID, entries); err != nil {
		r.metricsManager.CounterRenumberPasses.WithLabelValues(metrics.RenumberResultInvalid).Inc()
		return nil, err
	}

	result := Renumber(entries)
	if err := r.repo.ApplyNumbering(ctx, ownerID, result.Updates); err != nil {
		r.metricsManager.CounterRenumberPasses.WithLabelValues(metrics.RenumberResultConflict).Inc()
		return nil, fmt.Errorf("%w: %w", ErrWriteConflict, err)
	}

	r.metricsManager.CounterRenumberPasses.WithLabelValues(metrics.RenumberResultOK).Inc()
	r.metricsManager.CounterNumberingUpdates.Add(float64(len(result.Updates)))

	span.SetAttributes(attribute.Int("entries", len(entries)))
	span.SetAttributes(attribute.Int("updated", len(result.Updates)))
	log.Debugf("renumber [%s]: %d entries, %d weeks, %d updated", ownerID, len(entries), result.Weeks, len(result.Updates))

	return &PassResult{
		OwnerID: ownerID,
		Entries: len(entries),
		Updated: len(result.Updates),
		Weeks:   result.Weeks,
	}, nil
}

func (r *Renumberer) ownerLock(ownerID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[ownerID] = lock
	}
	return lock
}
