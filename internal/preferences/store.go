package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/2beens/gymplan/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	keyTheme = "theme"
)

var ErrInvalidTheme = errors.New("invalid theme")

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidTheme)
	}
}

func (t Theme) Opposite() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Store keeps per-user preferences in a local sqlite file.
type Store struct {
	db           *sql.DB
	defaultTheme Theme
}

// OpenStore opens (or creates) the sqlite database at path, ":memory:" included.
func OpenStore(path string, defaultTheme string) (*Store, error) {
	theme, err := ParseTheme(defaultTheme)
	if err != nil {
		return nil, fmt.Errorf("default theme: %w", err)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating preferences dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening preferences db: %w", err)
	}
	// sqlite takes one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS user_preference (
		user_id    TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, key)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating preferences table: %w", err)
	}

	return &Store{
		db:           db,
		defaultTheme: theme,
	}, nil
}

func (s *Store) DefaultTheme() Theme {
	return s.defaultTheme
}

// Theme returns the stored theme of the user, or the default one when unset.
func (s *Store) Theme(ctx context.Context, userID string) (_ Theme, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "preferences.theme")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var value string
	err = s.db.QueryRowContext(
		ctx,
		`SELECT value FROM user_preference WHERE user_id = ? AND key = ?`,
		userID, keyTheme,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return s.defaultTheme, nil
	}
	if err != nil {
		return "", err
	}

	theme, err := ParseTheme(value)
	if err != nil {
		// unknown stored value
		return s.defaultTheme, nil
	}
	return theme, nil
}

func (s *Store) SetTheme(ctx context.Context, userID string, theme Theme) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "preferences.set_theme")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("theme", string(theme)))

	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO user_preference (user_id, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		userID, keyTheme, string(theme),
	)
	return err
}

// ToggleTheme flips light and dark in one statement and returns the new theme.
func (s *Store) ToggleTheme(ctx context.Context, userID string) (_ Theme, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "preferences.toggle_theme")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var value string
	err = s.db.QueryRowContext(
		ctx,
		`INSERT INTO user_preference (user_id, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id, key) DO UPDATE SET
				value = CASE WHEN value = ? THEN ? ELSE ? END,
				updated_at = CURRENT_TIMESTAMP
			RETURNING value`,
		userID, keyTheme, string(s.defaultTheme.Opposite()),
		string(ThemeDark), string(ThemeLight), string(ThemeDark),
	).Scan(&value)
	if err != nil {
		return "", err
	}

	span.SetAttributes(attribute.String("theme", value))
	return Theme(value), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
