package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/gymplan/internal/auth"
	"github.com/2beens/gymplan/pkg"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=preferences_test

type themeStore interface {
	Theme(ctx context.Context, userID string) (Theme, error)
	SetTheme(ctx context.Context, userID string, theme Theme) error
	ToggleTheme(ctx context.Context, userID string) (Theme, error)
}

type ThemeRequest struct {
	Theme string `json:"theme"`
}

type ThemeResponse struct {
	Theme Theme `json:"theme"`
}

type Handler struct {
	store themeStore
}

func NewHandler(store themeStore) *Handler {
	return &Handler{
		store: store,
	}
}

func (handler *Handler) HandleGetTheme(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	theme, err := handler.store.Theme(r.Context(), userID)
	if err != nil {
		log.Errorf("failed to get theme: %s", err)
		http.Error(w, "error, failed to get theme", http.StatusInternalServerError)
		return
	}

	handler.writeTheme(w, theme)
}

func (handler *Handler) HandleSetTheme(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var req ThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "error, invalid request", http.StatusBadRequest)
		return
	}
	theme, err := ParseTheme(req.Theme)
	if err != nil {
		http.Error(w, "error, invalid theme", http.StatusBadRequest)
		return
	}

	if err := handler.store.SetTheme(r.Context(), userID, theme); err != nil {
		if errors.Is(err, ErrInvalidTheme) {
			http.Error(w, "error, invalid theme", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to set theme: %s", err)
		http.Error(w, "error, failed to set theme", http.StatusInternalServerError)
		return
	}

	handler.writeTheme(w, theme)
}

func (handler *Handler) HandleToggleTheme(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	theme, err := handler.store.ToggleTheme(r.Context(), userID)
	if err != nil {
		log.Errorf("failed to toggle theme: %s", err)
		http.Error(w, "error, failed to toggle theme", http.StatusInternalServerError)
		return
	}

	handler.writeTheme(w, theme)
}

func (handler *Handler) writeTheme(w http.ResponseWriter, theme Theme) {
	themeJson, err := json.Marshal(ThemeResponse{Theme: theme})
	if err != nil {
		log.Errorf("failed to marshal theme: %s", err)
		http.Error(w, "error, failed to write theme", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, themeJson, http.StatusOK)
}
