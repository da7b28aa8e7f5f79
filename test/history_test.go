//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymplan/internal/history"
)

func (s *IntegrationTestSuite) TestHistory_AddListDelete() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := doSignIn(ctx, t, s.httpClient)

	newRecord := history.Record{
		Date:     "2024-05-01",
		Exercise: gofakeit.Noun(),
		Sets:     gofakeit.Number(1, 5),
		Reps:     gofakeit.Number(1, 20),
		Weight:   gofakeit.Number(10, 120),
	}
	status, body := doRequest(ctx, t, s.httpClient, "POST", "/history", token, newRecord)
	require.Equal(t, http.StatusCreated, status, string(body))
	var added history.Record
	require.NoError(t, json.Unmarshal(body, &added))
	require.NotZero(t, added.ID)
	assert.Equal(t, newRecord.Exercise, added.Exercise)

	var rowsCount int
	require.NoError(t, s.DB.QueryRow(
		"SELECT COUNT(*) FROM training_record WHERE user_id = $1",
		testUID,
	).Scan(&rowsCount))
	assert.Equal(t, 1, rowsCount)

	status, body = doRequest(ctx, t, s.httpClient, "GET", "/history/date/2024-05-01", token, nil)
	require.Equal(t, http.StatusOK, status)
	var records []history.Record
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 1)
	assert.Equal(t, added.ID, records[0].ID)
	assert.Equal(t, newRecord.Sets, records[0].Sets)
	assert.Equal(t, newRecord.Weight, records[0].Weight)

	status, body = doRequest(ctx, t, s.httpClient, "GET", "/history/month/2024/5", token, nil)
	require.Equal(t, http.StatusOK, status)
	var days []history.DaySummary
	require.NoError(t, json.Unmarshal(body, &days))
	require.Len(t, days, 1)
	assert.Equal(t, "2024-05-01", days[0].Date)

	status, body = doRequest(ctx, t, s.httpClient, "GET", "/history/date/2024-05-02", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "[]", string(body))

	deletePath := fmt.Sprintf("/history/%d", added.ID)
	status, body = doRequest(ctx, t, s.httpClient, "DELETE", deletePath, token, nil)
	require.Equal(t, http.StatusOK, status)
	var deleted history.DeleteRecordResponse
	require.NoError(t, json.Unmarshal(body, &deleted))
	assert.Equal(t, added.ID, deleted.DeletedID)

	status, _ = doRequest(ctx, t, s.httpClient, "DELETE", deletePath, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
