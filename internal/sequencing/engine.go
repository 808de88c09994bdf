package sequencing

import (
	"sort"

	"github.com/2beens/traininglog/internal/dates"
	"github.com/2beens/traininglog/internal/training"

	"github.com/google/uuid"
)

// Numbering is the computed (sequence number, training week) pair of one entry.
type Numbering struct {
	ID             uuid.UUID `json:"id"`
	SequenceNumber int       `json:"sequenceNumber"`
	TrainingWeek   *int      `json:"trainingWeek"`
}

type Result struct {
	// Numbering holds every entry, ordered by sequence number.
	// A linked planned entry directly follows its completed entry.
	Numbering []Numbering
	// Updates holds only the entries whose stored numbering differs.
	Updates []training.NumberingUpdate
	// Weeks is the number of distinct ISO weeks with a completed entry.
	Weeks int
}

// Renumber computes the numbering of one owner's full entry set.
// It does not modify the given entries.
//
// Completed entries come first, sorted by (date, creation), and get their
// training week from the ordinal of their ISO week among all weeks that hold
// a completed entry. A planned entry linked by a completed entry shares that
// entry's numbering and takes no slot of its own. Dated unlinked plans follow
// by (date, creation); a plan outside every completed week opens week
// Weeks+1. Undated plans go last by creation and carry no week.
func Renumber(entries []training.Entry) Result {
	var (
		completed     []training.Entry
		datedPlans    []training.Entry
		undated       []training.Entry
		plansByID     = map[uuid.UUID]training.Entry{}
		linkedPlanIDs = map[uuid.UUID]bool{}
	)

	for _, e := range entries {
		if e.IsPlanned() {
			plansByID[e.ID] = e
		}
	}
	for _, e := range entries {
		if e.IsCompleted() && e.IsLinked() {
			if _, ok := plansByID[*e.LinkedPlanID]; ok {
				linkedPlanIDs[*e.LinkedPlanID] = true
			}
		}
	}

	for _, e := range entries {
		switch {
		case e.IsCompleted() && e.HasDate():
			completed = append(completed, e)
		case e.IsPlanned() && linkedPlanIDs[e.ID]:
			// numbered together with its completed entry
		case e.IsPlanned() && e.HasDate():
			datedPlans = append(datedPlans, e)
		default:
			undated = append(undated, e)
		}
	}

	sortByDateAndCreation(completed)
	sortByDateAndCreation(datedPlans)
	sort.SliceStable(undated, func(i, j int) bool {
		return createdBefore(undated[i], undated[j])
	})

	weekOrdinals := map[dates.WeekKey]int{}
	for _, e := range completed {
		key := e.Date.ISOWeek()
		if _, ok := weekOrdinals[key]; !ok {
			weekOrdinals[key] = len(weekOrdinals) + 1
		}
	}
	weeks := len(weekOrdinals)

	numbering := make([]Numbering, 0, len(entries))
	seq := 0

	for _, e := range completed {
		seq++
		week := weekOrdinals[e.Date.ISOWeek()]
		numbering = append(numbering, Numbering{
			ID:             e.ID,
			SequenceNumber: seq,
			TrainingWeek:   intPtr(week),
		})
		if e.IsLinked() && linkedPlanIDs[*e.LinkedPlanID] {
			numbering = append(numbering, Numbering{
				ID:             *e.LinkedPlanID,
				SequenceNumber: seq,
				TrainingWeek:   intPtr(week),
			})
		}
	}

	for _, e := range datedPlans {
		seq++
		week, ok := weekOrdinals[e.Date.ISOWeek()]
		if !ok {
			week = weeks + 1
		}
		numbering = append(numbering, Numbering{
			ID:             e.ID,
			SequenceNumber: seq,
			TrainingWeek:   intPtr(week),
		})
	}

	for _, e := range undated {
		seq++
		numbering = append(numbering, Numbering{
			ID:             e.ID,
			SequenceNumber: seq,
		})
	}

	return Result{
		Numbering: numbering,
		Updates:   diff(entries, numbering),
		Weeks:     weeks,
	}
}

// diff keeps the numbering of entries whose stored pair changed, in numbering order.
func diff(entries []training.Entry, numbering []Numbering) []training.NumberingUpdate {
	stored := make(map[uuid.UUID]training.Entry, len(entries))
	for _, e := range entries {
		stored[e.ID] = e
	}

	updates := make([]training.NumberingUpdate, 0)
	for _, n := range numbering {
		e, ok := stored[n.ID]
		if ok && e.SequenceNumber == n.SequenceNumber && sameWeek(e.TrainingWeek, n.TrainingWeek) {
			continue
		}
		updates = append(updates, training.NumberingUpdate{
			ID:             n.ID,
			SequenceNumber: n.SequenceNumber,
			TrainingWeek:   n.TrainingWeek,
		})
	}

	return updates
}

func sortByDateAndCreation(entries []training.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].Date.Compare(entries[j].Date); c != 0 {
			return c < 0
		}
		return createdBefore(entries[i], entries[j])
	})
}

// createdBefore orders by creation time, ties broken by id so the order is total.
func createdBefore(a, b training.Entry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func sameWeek(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func intPtr(i int) *int {
	return &i
}
