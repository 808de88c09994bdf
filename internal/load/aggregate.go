package load

import (
	"math"

	"github.com/2beens/traininglog/internal/dates"
	"github.com/2beens/traininglog/internal/training"
)

type Query struct {
	Range       dates.Range
	Granularity dates.Granularity
	// IncludeOpenBucket also folds in entries dated after the range end,
	// as long as they fall into the last bucket (e.g. rest of the current week).
	IncludeOpenBucket bool
}

type Bucket struct {
	Start dates.Date `json:"start"`
	End   dates.Date `json:"end"`
	Key   string     `json:"key"`

	CompletedKm       float64  `json:"completedKm"`
	CompletedDuration int      `json:"completedDuration"`
	CompletedCount    int      `json:"completedCount"`
	AvgHeartRate      *int     `json:"avgHeartRate"`
	AvgPaceSecPerKm   *float64 `json:"avgPaceSecPerKm"`

	PlannedKm       float64 `json:"plannedKm"`
	PlannedDuration int     `json:"plannedDuration"`
	PlannedCount    int     `json:"plannedCount"`

	TotalKm       float64 `json:"totalKm"`
	TotalDuration int     `json:"totalDuration"`

	IsActive     bool `json:"isActive"`
	TrainingWeek *int `json:"trainingWeek"`

	// Coverage is the share of the bucket's days inside the requested range.
	Coverage  float64 `json:"coverage"`
	IsPartial bool    `json:"isPartial"`

	// change against the previous active bucket
	ChangePercent         *float64 `json:"changePercent"`
	TotalChangePercent    *float64 `json:"totalChangePercent"`
	DurationChangePercent *float64 `json:"durationChangePercent"`
	KmDiff                *float64 `json:"kmDiff"`
	TotalKmDiff           *float64 `json:"totalKmDiff"`
	DurationDiff          *int     `json:"durationDiff"`
}

type Totals struct {
	TotalKm              float64 `json:"totalKm"`
	TotalSessions        int     `json:"totalSessions"`
	TotalDuration        int     `json:"totalDuration"`
	PlannedKm            float64 `json:"plannedKm"`
	PlannedSessions      int     `json:"plannedSessions"`
	Buckets              int     `json:"buckets"`
	ActiveBuckets        int     `json:"activeBuckets"`
	AvgKmPerBucket       float64 `json:"avgKmPerBucket"`
	AvgKmPerActiveBucket float64 `json:"avgKmPerActiveBucket"`
	AvgDurationPerBucket float64 `json:"avgDurationPerBucket"`
	AvgSessionsPerBucket float64 `json:"avgSessionsPerBucket"`
}

type Result struct {
	Granularity dates.Granularity `json:"granularity"`
	Range       dates.Range       `json:"range"`
	Buckets     []Bucket          `json:"buckets"`
	Totals      Totals            `json:"totals"`
}

// accumulator holds the raw, unrounded sums of one bucket.
type accumulator struct {
	completedKm       float64
	completedDuration int
	completedCount    int
	hrSum             int
	hrCount           int
	paceKm            float64
	paceDuration      int

	plannedKm       float64
	plannedDuration int
	plannedCount    int
}

func (a *accumulator) addCompleted(e training.Entry) {
	a.completedKm += e.DistanceKm
	a.completedCount++
	if e.DurationSeconds != nil {
		a.completedDuration += *e.DurationSeconds
		if e.DistanceKm > 0 {
			a.paceKm += e.DistanceKm
			a.paceDuration += *e.DurationSeconds
		}
	}
	if e.AvgHeartRate != nil {
		a.hrSum += *e.AvgHeartRate
		a.hrCount++
	}
}

func (a *accumulator) addPlanned(e training.Entry) {
	a.plannedKm += e.DistanceKm
	a.plannedCount++
	if e.DurationSeconds != nil {
		a.plannedDuration += *e.DurationSeconds
	}
}

func (a *accumulator) totalKm() float64 {
	return a.completedKm + a.plannedKm
}

func (a *accumulator) isActive() bool {
	return a.completedKm > 0 || a.plannedKm > 0
}

// Aggregate buckets completed and planned entries over q.Range.
// An invalid range or granularity gives an empty, zeroed result.
// Entries are not modified and no state is kept between calls.
func Aggregate(completed, planned []training.Entry, q Query) Result {
	result := Result{
		Granularity: q.Granularity,
		Range:       q.Range,
		Buckets:     []Bucket{},
	}

	starts := q.Granularity.BucketStarts(q.Range)
	if len(starts) == 0 {
		return result
	}

	indexByStart := make(map[dates.Date]int, len(starts))
	for i, s := range starts {
		indexByStart[s] = i
	}
	lastBucket := dates.NewRange(starts[len(starts)-1], q.Granularity.BucketEnd(starts[len(starts)-1]))

	bucketOf := func(e training.Entry) (int, bool) {
		if !e.HasDate() {
			return 0, false
		}
		inOpenBucket := q.IncludeOpenBucket && e.Date.After(q.Range.End) && lastBucket.Contains(e.Date)
		if !q.Range.Contains(e.Date) && !inOpenBucket {
			return 0, false
		}
		i, ok := indexByStart[q.Granularity.BucketStart(e.Date)]
		return i, ok
	}

	accs := make([]accumulator, len(starts))
	for _, e := range completed {
		if i, ok := bucketOf(e); ok {
			accs[i].addCompleted(e)
		}
	}
	for _, e := range planned {
		if i, ok := bucketOf(e); ok {
			accs[i].addPlanned(e)
		}
	}

	var (
		totals       Totals
		activeWeeks  int
		prev         *accumulator
		rawPlannedKm float64
	)
	for i, start := range starts {
		acc := &accs[i]
		end := q.Granularity.BucketEnd(start)
		span := dates.NewRange(start, end)

		b := Bucket{
			Start:             start,
			End:               end,
			Key:               q.Granularity.BucketKey(start),
			CompletedKm:       round1(acc.completedKm),
			CompletedDuration: acc.completedDuration,
			CompletedCount:    acc.completedCount,
			PlannedKm:         round1(acc.plannedKm),
			PlannedDuration:   acc.plannedDuration,
			PlannedCount:      acc.plannedCount,
			TotalKm:           round1(acc.totalKm()),
			TotalDuration:     acc.completedDuration + acc.plannedDuration,
			IsActive:          acc.isActive(),
			Coverage:          float64(span.OverlapDays(q.Range)) / float64(span.Days()),
		}
		b.IsPartial = b.Coverage < 1

		if acc.hrCount > 0 {
			hr := int(math.Round(float64(acc.hrSum) / float64(acc.hrCount)))
			b.AvgHeartRate = &hr
		}
		if acc.paceKm > 0 && acc.paceDuration > 0 {
			pace := round1(float64(acc.paceDuration) / acc.paceKm)
			b.AvgPaceSecPerKm = &pace
		}

		if b.IsActive {
			totals.ActiveBuckets++
			if q.Granularity == dates.GranularityWeek {
				activeWeeks++
				week := activeWeeks
				b.TrainingWeek = &week
			}
			if prev != nil {
				setChange(&b, acc, prev)
			}
			prev = acc
		}

		totals.TotalKm += acc.completedKm
		totals.TotalSessions += acc.completedCount
		totals.TotalDuration += acc.completedDuration
		totals.PlannedSessions += acc.plannedCount
		rawPlannedKm += acc.plannedKm

		result.Buckets = append(result.Buckets, b)
	}

	bucketCount := float64(len(starts))
	totals.Buckets = len(starts)
	totals.AvgKmPerBucket = round1(totals.TotalKm / bucketCount)
	if totals.ActiveBuckets > 0 {
		totals.AvgKmPerActiveBucket = round1(totals.TotalKm / float64(totals.ActiveBuckets))
	}
	totals.AvgDurationPerBucket = round1(float64(totals.TotalDuration) / bucketCount)
	totals.AvgSessionsPerBucket = round1(float64(totals.TotalSessions) / bucketCount)
	totals.TotalKm = round1(totals.TotalKm)
	totals.PlannedKm = round1(rawPlannedKm)

	result.Totals = totals

	return result
}

func setChange(b *Bucket, cur, prev *accumulator) {
	b.ChangePercent = percentChange(cur.completedKm, prev.completedKm)
	b.TotalChangePercent = percentChange(cur.totalKm(), prev.totalKm())
	b.DurationChangePercent = percentChange(float64(cur.completedDuration), float64(prev.completedDuration))

	kmDiff := round1(cur.completedKm - prev.completedKm)
	b.KmDiff = &kmDiff
	totalKmDiff := round1(cur.totalKm() - prev.totalKm())
	b.TotalKmDiff = &totalKmDiff
	durationDiff := cur.completedDuration - prev.completedDuration
	b.DurationDiff = &durationDiff
}

// percentChange returns nil when there is nothing to compare against.
func percentChange(cur, prev float64) *float64 {
	if prev == 0 {
		return nil
	}
	p := round1((cur - prev) / prev * 100)
	return &p
}

func round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		// no -0 in the output
		return 0
	}
	return r
}
