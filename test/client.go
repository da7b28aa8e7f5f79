//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/2beens/gymplan/internal/auth"
	"github.com/2beens/gymplan/internal/middleware"
	"github.com/2beens/gymplan/internal/misc"
)

func doSignIn(ctx context.Context, t *testing.T, client *http.Client) string {
	credsJson, err := json.Marshal(auth.Credentials{
		Email:    testEmail,
		Password: testPassword,
	})
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/auth/signin", serverEndpoint), bytes.NewBuffer(credsJson))
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var signInResp misc.SignInResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&signInResp))
	require.NotEmpty(t, signInResp.Token)

	return signInResp.Token
}

// doRequest sends body as JSON (when not nil) and returns the status code and the response body.
func doRequest(
	ctx context.Context,
	t *testing.T,
	client *http.Client,
	method, path, token string,
	body any,
) (int, []byte) {
	var reqBody io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(bodyJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}
