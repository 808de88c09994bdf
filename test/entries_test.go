//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/2beens/traininglog/internal/entries"
	"github.com/2beens/traininglog/internal/training"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) addEntry(ctx context.Context, ownerID string, req entries.AddRequest) training.Entry {
	t := s.T()
	status, body := s.doRequest(ctx, "POST", "/entries", ownerID, req)
	require.Equal(t, http.StatusCreated, status, string(body))

	var added training.Entry
	require.NoError(t, json.Unmarshal(body, &added))
	return added
}

func (s *IntegrationTestSuite) listEntries(ctx context.Context, ownerID string) []training.Entry {
	t := s.T()
	status, body := s.doRequest(ctx, "GET", "/entries", ownerID, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	var list []training.Entry
	require.NoError(t, json.Unmarshal(body, &list))
	return list
}

func (s *IntegrationTestSuite) TestEntries_NumberingFlow() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	ownerID := "runner-" + uuid.NewString()

	first := s.addEntry(ctx, ownerID, entries.AddRequest{
		Status: training.StatusCompleted, Title: "easy", Date: mustDate("2026-03-03"), DistanceKm: 8,
	})
	assert.Equal(t, 1, first.SequenceNumber)
	require.NotNil(t, first.TrainingWeek)
	assert.Equal(t, 1, *first.TrainingWeek)

	plan := s.addEntry(ctx, ownerID, entries.AddRequest{
		Status: training.StatusPlanned, Title: "long run", Date: mustDate("2026-03-08"), DistanceKm: 20,
	})
	assert.Equal(t, 2, plan.SequenceNumber)

	// inserted before the first one, shifts it
	earlier := s.addEntry(ctx, ownerID, entries.AddRequest{
		Status: training.StatusCompleted, Title: "intervals", Date: mustDate("2026-02-24"), DistanceKm: 10,
	})
	assert.Equal(t, 1, earlier.SequenceNumber)

	status, body := s.doRequest(ctx, "POST", "/entries/"+plan.ID.String()+"/complete", ownerID, entries.Changes{
		DistanceKm: 21.1,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var completed training.Entry
	require.NoError(t, json.Unmarshal(body, &completed))
	assert.Equal(t, "long run", completed.Title)
	assert.Equal(t, 3, completed.SequenceNumber)
	require.NotNil(t, completed.LinkedPlanID)
	assert.Equal(t, plan.ID, *completed.LinkedPlanID)

	list := s.listEntries(ctx, ownerID)
	require.Len(t, list, 4)
	assert.Equal(t, []uuid.UUID{earlier.ID, first.ID, completed.ID, plan.ID}, ids(list))
	assert.Equal(t, []int{1, 2, 3, 3}, seqs(list))
	assert.Equal(t, 2, *list[1].TrainingWeek)
	assert.Equal(t, *list[2].TrainingWeek, *list[3].TrainingWeek)

	// completing it again is a conflict
	status, _ = s.doRequest(ctx, "POST", "/entries/"+plan.ID.String()+"/complete", ownerID, nil)
	assert.Equal(t, http.StatusConflict, status)

	// stored numbering matches what the api returned
	var storedSeq int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT sequence_number FROM training_entry WHERE id = $1`, plan.ID.String(),
	).Scan(&storedSeq))
	assert.Equal(t, 3, storedSeq)

	// deleting the completed entry takes its plan along, numbers close up
	status, body = s.doRequest(ctx, "DELETE", "/entries/"+completed.ID.String(), ownerID, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var deleteResp entries.DeleteResponse
	require.NoError(t, json.Unmarshal(body, &deleteResp))
	assert.ElementsMatch(t, []uuid.UUID{completed.ID, plan.ID}, deleteResp.Deleted)

	list = s.listEntries(ctx, ownerID)
	assert.Equal(t, []uuid.UUID{earlier.ID, first.ID}, ids(list))
	assert.Equal(t, []int{1, 2}, seqs(list))

	// other owners don't see any of it
	assert.Empty(t, s.listEntries(ctx, "runner-"+uuid.NewString()))
	status, _ = s.doRequest(ctx, "GET", "/entries/"+first.ID.String(), "runner-"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestEntries_UpdateAndValidation() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	ownerID := "runner-" + uuid.NewString()

	a := s.addEntry(ctx, ownerID, entries.AddRequest{
		Status: training.StatusCompleted, Date: mustDate("2026-01-06"), DistanceKm: 5,
	})
	b := s.addEntry(ctx, ownerID, entries.AddRequest{
		Status: training.StatusCompleted, Date: mustDate("2026-01-20"), DistanceKm: 7,
	})
	require.Equal(t, 2, b.SequenceNumber)
	require.Equal(t, 2, *b.TrainingWeek)

	status, body := s.doRequest(ctx, "PUT", "/entries/"+b.ID.String(), ownerID, entries.Changes{
		Date: mustDate("2026-01-01"), DistanceKm: 7,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var updated training.Entry
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, 1, updated.SequenceNumber)
	assert.Equal(t, 1, *updated.TrainingWeek)

	list := s.listEntries(ctx, ownerID)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID}, ids(list))
	assert.Equal(t, 2, *list[1].TrainingWeek)

	// completed entries need a date
	status, _ = s.doRequest(ctx, "POST", "/entries", ownerID, entries.AddRequest{Status: training.StatusCompleted})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.doRequest(ctx, "PUT", "/entries/"+uuid.NewString(), ownerID, entries.Changes{
		Date: mustDate("2026-01-01"),
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.doRequest(ctx, "POST", "/entries/renumber", ownerID, nil)
	require.Equal(t, http.StatusOK, status)
	var renumberResp entries.RenumberResponse
	require.NoError(t, json.Unmarshal(body, &renumberResp))
	assert.Equal(t, 0, renumberResp.Updated, "already consistent")
	assert.Equal(t, 2, renumberResp.Entries)
}

func (s *IntegrationTestSuite) TestEntries_Unauthorized() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+"/entries", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Owner-ID", "runner-1")

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func ids(list []training.Entry) []uuid.UUID {
	res := make([]uuid.UUID, 0, len(list))
	for _, e := range list {
		res = append(res, e.ID)
	}
	return res
}

func seqs(list []training.Entry) []int {
	res := make([]int, 0, len(list))
	for _, e := range list {
		res = append(res, e.SequenceNumber)
	}
	return res
}
