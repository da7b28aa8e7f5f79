//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymplan/internal/auth"
)

func (s *IntegrationTestSuite) TestAuth_SignInMeSignOut() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	status, _ := doRequest(ctx, t, s.httpClient, "GET", "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	token := doSignIn(ctx, t, s.httpClient)

	status, body := doRequest(ctx, t, s.httpClient, "GET", "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	var me auth.User
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, testUID, me.UID)
	assert.Equal(t, testEmail, me.Email)

	status, body = doRequest(ctx, t, s.httpClient, "POST", "/auth/signout", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "signed-out", string(body))

	status, _ = doRequest(ctx, t, s.httpClient, "GET", "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func (s *IntegrationTestSuite) TestAuth_WrongPassword() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	status, _ := doRequest(ctx, t, s.httpClient, "POST", "/auth/signin", "", auth.Credentials{
		Email:    testEmail,
		Password: "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func (s *IntegrationTestSuite) TestAuth_ProtectedRoutes() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, path := range []string{"/plan/tabs", "/history/date/2024-05-01", "/settings/theme"} {
		status, _ := doRequest(ctx, t, s.httpClient, "GET", path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}

	status, body := doRequest(ctx, t, s.httpClient, "GET", "/version", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "test-version-info", string(body))
}
