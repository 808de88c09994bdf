//go:build integration_test || all_tests

package test

import (
	"context"

	"github.com/2beens/traininglog/internal/sequencing"
	"github.com/2beens/traininglog/internal/telemetry/metrics"
	"github.com/2beens/traininglog/internal/training"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) newRepoEntry(ownerID string, status training.Status, date string) training.Entry {
	return training.Entry{
		OwnerID:    ownerID,
		Status:     status,
		Title:      gofakeit.HipsterWord(),
		Date:       mustDate(date),
		DistanceKm: float64(gofakeit.Number(3, 30)),
	}
}

func (s *IntegrationTestSuite) TestRepo_ApplyNumberingIsAtomic() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	repo := training.NewRepo(s.pgPool)
	ownerID := "runner-" + uuid.NewString()

	a, err := repo.Add(ctx, s.newRepoEntry(ownerID, training.StatusCompleted, "2026-01-06"))
	require.NoError(t, err)
	b, err := repo.Add(ctx, s.newRepoEntry(ownerID, training.StatusCompleted, "2026-01-07"))
	require.NoError(t, err)

	week := 1
	err = repo.ApplyNumbering(ctx, ownerID, []training.NumberingUpdate{
		{ID: a.ID, SequenceNumber: 1, TrainingWeek: &week},
		{ID: uuid.New(), SequenceNumber: 2, TrainingWeek: &week},
		{ID: b.ID, SequenceNumber: 3, TrainingWeek: &week},
	})
	require.ErrorIs(t, err, training.ErrNumberingConflict)

	// nothing was written
	stored, err := repo.List(ctx, ownerID)
	require.NoError(t, err)
	for _, e := range stored {
		assert.Equal(t, 0, e.SequenceNumber)
		assert.Nil(t, e.TrainingWeek)
	}

	// updates of another owner's entries don't apply either
	err = repo.ApplyNumbering(ctx, "runner-"+uuid.NewString(), []training.NumberingUpdate{
		{ID: a.ID, SequenceNumber: 1, TrainingWeek: &week},
	})
	require.ErrorIs(t, err, training.ErrNumberingConflict)
}

func (s *IntegrationTestSuite) TestRepo_LinkedPlans() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	repo := training.NewRepo(s.pgPool)
	ownerID := "runner-" + uuid.NewString()

	plan, err := repo.Add(ctx, s.newRepoEntry(ownerID, training.StatusPlanned, "2026-01-10"))
	require.NoError(t, err)
	otherPlan, err := repo.Add(ctx, s.newRepoEntry(ownerID, training.StatusPlanned, "2026-01-12"))
	require.NoError(t, err)

	done := s.newRepoEntry(ownerID, training.StatusCompleted, "2026-01-10")
	done.LinkedPlanID = &plan.ID
	completed, err := repo.Add(ctx, done)
	require.NoError(t, err)

	unlinked, err := repo.ListUnlinkedPlanned(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, unlinked, 1)
	assert.Equal(t, otherPlan.ID, unlinked[0].ID)

	completedOnly, err := repo.ListByStatus(ctx, ownerID, training.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completedOnly, 1)
	require.NotNil(t, completedOnly[0].LinkedPlanID)
	assert.Equal(t, plan.ID, *completedOnly[0].LinkedPlanID)
	assert.Equal(t, mustDate("2026-01-10"), completedOnly[0].Date)

	// a second completion of the same plan is rejected by the db as well
	again := s.newRepoEntry(ownerID, training.StatusCompleted, "2026-01-11")
	again.LinkedPlanID = &plan.ID
	_, err = repo.Add(ctx, again)
	assert.ErrorIs(t, err, training.ErrEntryExists)

	missing := uuid.New()
	dangling := s.newRepoEntry(ownerID, training.StatusCompleted, "2026-01-11")
	dangling.LinkedPlanID = &missing
	_, err = repo.Add(ctx, dangling)
	assert.ErrorIs(t, err, training.ErrLinkedPlanNotFound)

	deleted, err := repo.Delete(ctx, ownerID, completed.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{completed.ID, plan.ID}, deleted)

	_, err = repo.Get(ctx, ownerID, plan.ID)
	assert.ErrorIs(t, err, training.ErrEntryNotFound)
}

func (s *IntegrationTestSuite) TestReconciler_FixesStaleNumbering() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	repo := training.NewRepo(s.pgPool)
	ownerID := "runner-" + uuid.NewString()

	for _, date := range []string{"2026-04-01", "2026-03-01", "2026-03-15"} {
		_, err := repo.Add(ctx, s.newRepoEntry(ownerID, training.StatusCompleted, date))
		require.NoError(t, err)
	}

	// rows written behind the service's back, never numbered
	_, err := s.DB.ExecContext(ctx,
		`UPDATE training_entry SET sequence_number = 7 WHERE owner_id = $1`, ownerID,
	)
	require.NoError(t, err)

	renumberer := sequencing.NewRenumberer(repo, metrics.NewTestManager())
	result, err := sequencing.NewReconciler(repo, renumberer).Sweep(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Owners, 1)
	assert.GreaterOrEqual(t, result.Updated, 3)

	stored, err := repo.List(ctx, ownerID)
	require.NoError(t, err)
	byDate := map[string]int{}
	for _, e := range stored {
		byDate[e.Date.String()] = e.SequenceNumber
	}
	assert.Equal(t, map[string]int{"2026-03-01": 1, "2026-03-15": 2, "2026-04-01": 3}, byDate)
}
