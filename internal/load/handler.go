package load

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/2beens/traininglog/internal/dates"
	"github.com/2beens/traininglog/internal/telemetry/tracing"
	"github.com/2beens/traininglog/pkg"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=load_test

const (
	defaultPreset = dates.PresetTwelveWeeks
	// DefaultMaxBuckets is about 3 years of days, or 60 years of weeks
	DefaultMaxBuckets = 1100
)

type loadService interface {
	Load(ctx context.Context, ownerID string, q Query) (*Result, error)
}

type Handler struct {
	service    loadService
	today      func() dates.Date
	maxBuckets int
}

// NewHandler creates the load handler. Queries resolving to more than
// maxBuckets buckets are rejected, DefaultMaxBuckets is used when maxBuckets <= 0.
func NewHandler(service loadService, maxBuckets int) *Handler {
	return NewHandlerWithClock(service, maxBuckets, dates.Today)
}

// NewHandlerWithClock is NewHandler with a fixed notion of "today", used for range presets.
func NewHandlerWithClock(service loadService, maxBuckets int, today func() dates.Date) *Handler {
	if maxBuckets <= 0 {
		maxBuckets = DefaultMaxBuckets
	}
	return &Handler{
		service:    service,
		today:      today,
		maxBuckets: maxBuckets,
	}
}

// HandleGetLoad serves
//
//	GET /load?from=2026-01-01&to=2026-03-31&granularity=week&open_bucket=true
//	GET /load?range=12w&granularity=month
//
// from/to take precedence over range. An end before the start gives an empty result.
func (h *Handler) HandleGetLoad(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.load.get")
	defer span.End()

	ownerID, ok := pkg.OwnerIDFromContext(ctx)
	if !ok {
		http.Error(w, "owner not set", http.StatusUnauthorized)
		return
	}

	query, err := h.parseQuery(r)
	if err != nil {
		log.Debugf("get load, bad query [%s]: %s", r.URL.RawQuery, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Load(ctx, ownerID, query)
	if err != nil {
		log.Errorf("get load for [%s]: %s", ownerID, err)
		http.Error(w, "failed to get training load", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) parseQuery(r *http.Request) (Query, error) {
	params := r.URL.Query()

	granularity := dates.GranularityWeek
	if g := params.Get("granularity"); g != "" {
		parsed, err := dates.ParseGranularity(g)
		if err != nil {
			return Query{}, err
		}
		granularity = parsed
	}

	var includeOpen bool
	if open := params.Get("open_bucket"); open != "" {
		parsed, err := strconv.ParseBool(open)
		if err != nil {
			return Query{}, err
		}
		includeOpen = parsed
	}

	var dateRange dates.Range
	from, to := params.Get("from"), params.Get("to")
	switch {
	case from != "" || to != "":
		parsed, err := dates.ParseRange(from, to)
		if err != nil {
			return Query{}, err
		}
		dateRange = parsed
	default:
		preset := defaultPreset
		if p := params.Get("range"); p != "" {
			preset = dates.Preset(p)
		}
		resolved, err := dates.ResolveRange(preset, h.today())
		if err != nil {
			return Query{}, err
		}
		dateRange = resolved
	}

	if n := granularity.BucketCount(dateRange); n > h.maxBuckets {
		return Query{}, fmt.Errorf("range %s has %d %s buckets, at most %d allowed", dateRange, n, granularity, h.maxBuckets)
	}

	return Query{
		Range:             dateRange,
		Granularity:       granularity,
		IncludeOpenBucket: includeOpen,
	}, nil
}
