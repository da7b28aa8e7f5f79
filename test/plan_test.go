//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymplan/internal/docstore"
	"github.com/2beens/gymplan/internal/plan"
	"github.com/2beens/gymplan/internal/tabs"
	"github.com/2beens/gymplan/internal/timer"
	"github.com/2beens/gymplan/internal/workout"
)

func (s *IntegrationTestSuite) storedDocument() (*docstore.Document, error) {
	key := docstore.DefaultConfig().Key(testUID)
	var body []byte
	if err := s.DB.QueryRow("SELECT body FROM plan_document WHERE doc_key = $1", string(key)).Scan(&body); err != nil {
		return nil, err
	}
	var doc docstore.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *IntegrationTestSuite) TestPlan_AddTabAndTraining() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := doSignIn(ctx, t, s.httpClient)

	status, body := doRequest(ctx, t, s.httpClient, "POST", "/plan/tabs", token, nil)
	require.Equal(t, http.StatusCreated, status)
	var tab tabs.Tab
	require.NoError(t, json.Unmarshal(body, &tab))
	require.NotEmpty(t, tab.ID)

	status, body = doRequest(ctx, t, s.httpClient, "PUT", "/plan/tabs/"+tab.ID, token, plan.RenameTabRequest{Title: "Legs"})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = doRequest(ctx, t, s.httpClient, "POST", "/plan/tabs/"+tab.ID+"/items/training", token, nil)
	require.Equal(t, http.StatusCreated, status)
	var item workout.Item
	require.NoError(t, json.Unmarshal(body, &item))
	assert.Equal(t, tab.ID, item.ActiveTabID)
	assert.Equal(t, workout.TypeTraining, item.Type)

	status, body = doRequest(ctx, t, s.httpClient, "GET", "/plan/tabs/"+tab.ID+"/items", token, nil)
	require.Equal(t, http.StatusOK, status)
	var items []workout.Item
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)

	// writes reach postgres in the background
	require.Eventually(t, func() bool {
		doc, err := s.storedDocument()
		if err != nil {
			return false
		}
		for _, storedTab := range doc.Tabs {
			if storedTab.ID == tab.ID {
				return storedTab.Title == "Legs" && len(storedTab.Tasks) == 1 && storedTab.Tasks[0].ID == item.ID
			}
		}
		return false
	}, 10*time.Second, 100*time.Millisecond)

	status, body = doRequest(ctx, t, s.httpClient, "GET", "/plan/tabs", token, nil)
	require.Equal(t, http.StatusOK, status)
	var snapshot plan.Plan
	require.NoError(t, json.Unmarshal(body, &snapshot))
	assert.Equal(t, tab.ID, snapshot.ActiveTabID)
	assert.Equal(t, 3, snapshot.MaxTabs)
}

func (s *IntegrationTestSuite) TestTimer_Countdown() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := doSignIn(ctx, t, s.httpClient)

	status, body := doRequest(ctx, t, s.httpClient, "POST", "/timer/countdown", token, timer.CreateCountdownRequest{Seconds: 30})
	require.Equal(t, http.StatusCreated, status)
	var view timer.SessionView
	require.NoError(t, json.Unmarshal(body, &view))
	require.NotEmpty(t, view.ID)
	assert.Equal(t, timer.KindCountdown, view.Kind)
	assert.Equal(t, timer.StateIdle, view.State)
	assert.Equal(t, 30, view.DurationSeconds)

	status, _ = doRequest(ctx, t, s.httpClient, "GET", "/timer/"+view.ID, token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(ctx, t, s.httpClient, "POST", "/timer/"+view.ID+"/jump", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(ctx, t, s.httpClient, "DELETE", "/timer/"+view.ID, token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(ctx, t, s.httpClient, "GET", "/timer/"+view.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
