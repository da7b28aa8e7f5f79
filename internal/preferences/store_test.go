package preferences_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/2beens/gymplan/internal/preferences"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, defaultTheme string) *preferences.Store {
	t.Helper()
	store, err := preferences.OpenStore(filepath.Join(t.TempDir(), "prefs", "preferences.db"), defaultTheme)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func TestParseTheme(t *testing.T) {
	theme, err := preferences.ParseTheme("dark")
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeDark, theme)

	_, err = preferences.ParseTheme("blue")
	assert.ErrorIs(t, err, preferences.ErrInvalidTheme)
	_, err = preferences.ParseTheme("")
	assert.ErrorIs(t, err, preferences.ErrInvalidTheme)

	assert.Equal(t, preferences.ThemeLight, preferences.ThemeDark.Opposite())
	assert.Equal(t, preferences.ThemeDark, preferences.ThemeLight.Opposite())
}

func TestOpenStore_InvalidDefault(t *testing.T) {
	_, err := preferences.OpenStore(filepath.Join(t.TempDir(), "p.db"), "sepia")
	assert.ErrorIs(t, err, preferences.ErrInvalidTheme)
}

func TestStore_Theme(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, "light")
	assert.Equal(t, preferences.ThemeLight, store.DefaultTheme())

	theme, err := store.Theme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeLight, theme)

	require.NoError(t, store.SetTheme(ctx, "u1", preferences.ThemeDark))
	theme, err = store.Theme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeDark, theme)

	// users are independent
	theme, err = store.Theme(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeLight, theme)

	assert.ErrorIs(t, store.SetTheme(ctx, "u1", preferences.Theme("neon")), preferences.ErrInvalidTheme)
	theme, err = store.Theme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeDark, theme)
}

func TestStore_ToggleTheme(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, "dark")

	theme, err := store.ToggleTheme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeLight, theme)

	theme, err = store.ToggleTheme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeDark, theme)

	stored, err := store.Theme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeDark, stored)
}

func TestStore_ToggleTheme_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, "light")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ToggleTheme(ctx, "u1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// an even number of toggles ends where it started
	theme, err := store.Theme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeLight, theme)
}

func TestStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "preferences.db")

	store, err := preferences.OpenStore(path, "light")
	require.NoError(t, err)
	require.NoError(t, store.SetTheme(ctx, "u1", preferences.ThemeDark))
	require.NoError(t, store.Close())

	store, err = preferences.OpenStore(path, "light")
	require.NoError(t, err)
	defer store.Close()
	theme, err := store.Theme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeDark, theme)
}

func TestStore_Memory(t *testing.T) {
	ctx := context.Background()
	store, err := preferences.OpenStore(":memory:", "light")
	require.NoError(t, err)
	defer store.Close()

	theme, err := store.ToggleTheme(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, preferences.ThemeDark, theme)
}
