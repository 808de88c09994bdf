package sequencing

import (
	"context"
	"fmt"

	"github.com/2beens/traininglog/internal/telemetry/tracing"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

//go:generate mockgen -source=$GOFILE -destination=reconciler_mocks_test.go -package=sequencing_test

type ownersLister interface {
	ListOwners(ctx context.Context) ([]string, error)
}

type ownerRenumberer interface {
	Renumber(ctx context.Context, ownerID string) (*PassResult, error)
}

type SweepResult struct {
	Owners  int `json:"owners"`
	Failed  int `json:"failed"`
	Updated int `json:"updated"`
}

// Reconciler periodically runs a renumbering pass for every owner, fixing
// numbering left stale by a failed pass after a write.
type Reconciler struct {
	owners     ownersLister
	renumberer ownerRenumberer
	cron       *cron.Cron
}

func NewReconciler(owners ownersLister, renumberer ownerRenumberer) *Reconciler {
	return &Reconciler{
		owners:     owners,
		renumberer: renumberer,
	}
}

// Sweep renumbers all owners. A failing owner does not stop the sweep,
// all failures are returned combined.
func (r *Reconciler) Sweep(ctx context.Context) (_ SweepResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "reconciler.sweep")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	owners, err := r.owners.ListOwners(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("%w: list owners: %w", ErrDataUnavailable, err)
	}

	result := SweepResult{Owners: len(owners)}
	var passErrs error
	for _, owner := range owners {
		if ctx.Err() != nil {
			passErrs = multierr.Append(passErrs, ctx.Err())
			break
		}

		pass, err := r.renumberer.Renumber(ctx, owner)
		if err != nil {
			result.Failed++
			passErrs = multierr.Append(passErrs, fmt.Errorf("owner [%s]: %w", owner, err))
			continue
		}
		result.Updated += pass.Updated
	}

	span.SetAttributes(attribute.Int("owners", result.Owners))
	span.SetAttributes(attribute.Int("failed", result.Failed))

	return result, passErrs
}

// Start schedules Sweep with a cron spec, e.g. "@hourly" or "*/30 * * * *".
func (r *Reconciler) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		result, err := r.Sweep(ctx)
		if err != nil {
			log.Errorf("reconcile sweep: %d/%d owners failed: %s", result.Failed, result.Owners, err)
			return
		}
		log.Debugf("reconcile sweep: %d owners, %d numbering updates", result.Owners, result.Updated)
	}); err != nil {
		return fmt.Errorf("schedule reconcile [%s]: %w", schedule, err)
	}

	r.cron = c
	r.cron.Start()
	log.Printf("reconciler started with schedule [%s]", schedule)

	return nil
}

// Stop stops the schedule and waits for a running sweep to finish.
func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}
