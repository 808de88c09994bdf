package sequencing

import (
	"errors"
	"fmt"

	"github.com/2beens/traininglog/internal/training"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

var ErrInvalidEntrySet = errors.New("invalid training entry set")

// Validate checks the cross entry invariants of one owner's set before it is renumbered.
// All violations are reported together.
func Validate(ownerID string, entries []training.Entry) error {
	var err error

	byID := make(map[uuid.UUID]training.Entry, len(entries))
	for _, e := range entries {
		if _, ok := byID[e.ID]; ok {
			err = multierr.Append(err, fmt.Errorf("duplicate entry id %s", e.ID))
			continue
		}
		byID[e.ID] = e

		if e.OwnerID != ownerID {
			err = multierr.Append(err, fmt.Errorf("entry %s belongs to owner [%s]", e.ID, e.OwnerID))
		}
		if !e.Status.IsValid() {
			err = multierr.Append(err, fmt.Errorf("entry %s: unknown status [%s]", e.ID, e.Status))
		}
		if e.IsCompleted() && !e.HasDate() {
			err = multierr.Append(err, fmt.Errorf("completed entry %s has no date", e.ID))
		}
		if e.IsPlanned() && e.LinkedPlanID != nil {
			err = multierr.Append(err, fmt.Errorf("planned entry %s links to a plan", e.ID))
		}
	}

	linkedBy := map[uuid.UUID]uuid.UUID{}
	for _, e := range entries {
		if !e.IsCompleted() || !e.IsLinked() {
			continue
		}
		planID := *e.LinkedPlanID
		plan, ok := byID[planID]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("entry %s links to missing plan %s", e.ID, planID))
			continue
		}
		if !plan.IsPlanned() {
			err = multierr.Append(err, fmt.Errorf("entry %s links to %s entry %s", e.ID, plan.Status, planID))
			continue
		}
		if other, taken := linkedBy[planID]; taken && other != e.ID {
			err = multierr.Append(err, fmt.Errorf("plan %s linked by both %s and %s", planID, other, e.ID))
			continue
		}
		linkedBy[planID] = e.ID
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntrySet, err)
	}
	return nil
}
