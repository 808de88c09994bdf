package load

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/traininglog/internal/telemetry/metrics"
	"github.com/2beens/traininglog/internal/telemetry/tracing"
	"github.com/2beens/traininglog/internal/training"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=load_test

type entriesRepo interface {
	ListByStatus(ctx context.Context, ownerID string, status training.Status) ([]training.Entry, error)
	ListUnlinkedPlanned(ctx context.Context, ownerID string) ([]training.Entry, error)
}

type resultCache interface {
	// Get also returns the cache generation it saw, to be passed back to Set.
	Get(ctx context.Context, ownerID, queryKey string) ([]byte, int64, bool)
	Set(ctx context.Context, ownerID, queryKey string, gen int64, value []byte)
}

type Service struct {
	repo           entriesRepo
	cache          resultCache
	metricsManager *metrics.Manager
}

// NewService creates the load service. cache can be nil.
func NewService(repo entriesRepo, cache resultCache, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		cache:          cache,
		metricsManager: metricsManager,
	}
}

// Load aggregates the owner's completed entries and open (unlinked) plans.
// A linked plan is already represented by its completed entry and is left out.
func (s *Service) Load(ctx context.Context, ownerID string, q Query) (_ *Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.load.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner", ownerID))
	span.SetAttributes(attribute.String("range", q.Range.String()))
	span.SetAttributes(attribute.String("granularity", q.Granularity.String()))

	if !q.Range.IsValid() || !q.Granularity.IsValid() {
		result := Aggregate(nil, nil, q)
		return &result, nil
	}

	key := cacheKey(q)
	var cacheGen int64
	if s.cache != nil {
		cached, gen, ok := s.cache.Get(ctx, ownerID, key)
		cacheGen = gen
		if ok {
			result := &Result{}
			if err := json.Unmarshal(cached, result); err == nil {
				s.metricsManager.CounterLoadCache.WithLabelValues(metrics.CacheHit).Inc()
				return result, nil
			} else {
				log.Errorf("unmarshal cached load result [%s]: %s", key, err)
			}
		}
		s.metricsManager.CounterLoadCache.WithLabelValues(metrics.CacheMiss).Inc()
	}

	completed, err := s.repo.ListByStatus(ctx, ownerID, training.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("list completed entries: %w", err)
	}
	planned, err := s.repo.ListUnlinkedPlanned(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list planned entries: %w", err)
	}

	result := Aggregate(completed, planned, q)
	s.metricsManager.HistLoadBucketsNum.Observe(float64(len(result.Buckets)))
	log.Tracef("load [%s] %s %s: %d buckets", ownerID, q.Granularity, q.Range, len(result.Buckets))

	if s.cache != nil {
		if resultJson, err := json.Marshal(result); err != nil {
			log.Errorf("marshal load result [%s]: %s", key, err)
		} else {
			s.cache.Set(ctx, ownerID, key, cacheGen, resultJson)
		}
	}

	return &result, nil
}

func cacheKey(q Query) string {
	return fmt.Sprintf("%s|%s|%s|%t", q.Granularity, q.Range.Start, q.Range.End, q.IncludeOpenBucket)
}
