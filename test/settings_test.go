//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymplan/internal/preferences"
)

func (s *IntegrationTestSuite) TestSettings_Theme() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := doSignIn(ctx, t, s.httpClient)

	readTheme := func(body []byte) preferences.Theme {
		var resp preferences.ThemeResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		return resp.Theme
	}

	status, body := doRequest(ctx, t, s.httpClient, "GET", "/settings/theme", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, preferences.ThemeLight, readTheme(body))

	status, body = doRequest(ctx, t, s.httpClient, "POST", "/settings/theme/toggle", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, preferences.ThemeDark, readTheme(body))

	status, body = doRequest(ctx, t, s.httpClient, "GET", "/settings/theme", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, preferences.ThemeDark, readTheme(body))

	status, body = doRequest(ctx, t, s.httpClient, "PUT", "/settings/theme", token, map[string]string{"theme": "light"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, preferences.ThemeLight, readTheme(body))

	status, _ = doRequest(ctx, t, s.httpClient, "PUT", "/settings/theme", token, map[string]string{"theme": "sepia"})
	assert.Equal(t, http.StatusBadRequest, status)
}
