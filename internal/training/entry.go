package training

import (
	"errors"
	"fmt"
	"time"

	"github.com/2beens/traininglog/internal/dates"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

var ErrInvalidEntry = errors.New("invalid training entry")

// Status can be one of:
//   - completed
//   - planned
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPlanned   Status = "planned"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusCompleted, StatusPlanned:
		return true
	default:
		return false
	}
}

// Entry is one completed or planned workout of an owner.
// Date is the effective date: the actual date of a completed entry, or the planned
// date of a planned one (zero if the plan has no date yet).
type Entry struct {
	ID              uuid.UUID  `json:"id"`
	OwnerID         string     `json:"ownerId"`
	Status          Status     `json:"status"`
	Title           string     `json:"title"`
	Date            dates.Date `json:"date"`
	DistanceKm      float64    `json:"distanceKm"`
	DurationSeconds *int       `json:"durationSeconds"`
	AvgHeartRate    *int       `json:"avgHeartRate"`
	SequenceNumber  int        `json:"sequenceNumber"`
	TrainingWeek    *int       `json:"trainingWeek"`
	LinkedPlanID    *uuid.UUID `json:"linkedPlanId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func (e Entry) IsCompleted() bool {
	return e.Status == StatusCompleted
}

func (e Entry) IsPlanned() bool {
	return e.Status == StatusPlanned
}

func (e Entry) HasDate() bool {
	return !e.Date.IsZero()
}

func (e Entry) IsLinked() bool {
	return e.LinkedPlanID != nil && *e.LinkedPlanID != uuid.Nil
}

// Validate checks the single entry field constraints.
func (e Entry) Validate() error {
	var err error
	if e.OwnerID == "" {
		err = multierr.Append(err, errors.New("owner id empty"))
	}
	if !e.Status.IsValid() {
		err = multierr.Append(err, fmt.Errorf("unknown status [%s]", e.Status))
	}
	if e.IsCompleted() && !e.HasDate() {
		err = multierr.Append(err, errors.New("completed entry must have a date"))
	}
	if e.IsPlanned() && e.LinkedPlanID != nil {
		err = multierr.Append(err, errors.New("planned entry cannot link to a plan"))
	}
	if e.DistanceKm < 0 {
		err = multierr.Append(err, fmt.Errorf("negative distance: %f", e.DistanceKm))
	}
	if e.DurationSeconds != nil && *e.DurationSeconds < 0 {
		err = multierr.Append(err, fmt.Errorf("negative duration: %d", *e.DurationSeconds))
	}
	if e.AvgHeartRate != nil && *e.AvgHeartRate <= 0 {
		err = multierr.Append(err, fmt.Errorf("non-positive heart rate: %d", *e.AvgHeartRate))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}
	return nil
}

// NumberingUpdate is one row of the atomic numbering write.
type NumberingUpdate struct {
	ID             uuid.UUID `json:"id"`
	SequenceNumber int       `json:"sequenceNumber"`
	TrainingWeek   *int      `json:"trainingWeek"`
}
