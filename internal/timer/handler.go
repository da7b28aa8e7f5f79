package timer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/gymplan/internal/auth"
	"github.com/2beens/gymplan/internal/plan"
	"github.com/2beens/gymplan/internal/telemetry/tracing"
	"github.com/2beens/gymplan/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type CreateCountdownRequest struct {
	Seconds int `json:"seconds"`
}

type CreateCircuitRequest struct {
	TabID    string     `json:"tabId"`
	Workouts []Exercise `json:"workouts"`
}

type DeletedResponse struct {
	DeletedID string `json:"deletedId"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func writeView(w http.ResponseWriter, view any, status int) {
	viewJson, err := json.Marshal(view)
	if err != nil {
		log.Errorf("marshal timer view: %s", err)
		http.Error(w, "error, marshal timer", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, viewJson, status)
}

func writeTimerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "error, timer not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotFocused), errors.Is(err, ErrRunnerClosed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrEmptyCircuit):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("timer operation failed: %s", err)
		http.Error(w, "error, timer operation failed", http.StatusInternalServerError)
	}
}

func (handler *Handler) HandleCreateCountdown(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.timer.create_countdown")
	defer span.End()

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var req CreateCountdownRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Tracef("create countdown, unmarshal json params: %s", err)
			http.Error(w, "error, invalid request", http.StatusBadRequest)
			return
		}
	}
	if req.Seconds < 0 {
		http.Error(w, "error, seconds negative", http.StatusBadRequest)
		return
	}

	session := handler.service.CreateCountdown(userID, req.Seconds)
	writeView(w, session.View(), http.StatusCreated)
}

func (handler *Handler) HandleCreateCircuit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.timer.create_circuit")
	defer span.End()

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var req CreateCircuitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("create circuit, unmarshal json params: %s", err)
		http.Error(w, "error, invalid request", http.StatusBadRequest)
		return
	}

	var (
		session *Session
		err     error
	)
	switch {
	case req.TabID != "":
		session, err = handler.service.CreateCircuit(ctx, userID, req.TabID)
	case len(req.Workouts) > 0:
		session, err = handler.service.CreateCircuitFromExercises(userID, req.Workouts)
	default:
		http.Error(w, "error, tabId or workouts needed", http.StatusBadRequest)
		return
	}
	if err != nil {
		if errors.Is(err, plan.ErrTabNotFound) {
			http.Error(w, "error, tab not found", http.StatusNotFound)
			return
		}
		writeTimerError(w, err)
		return
	}

	writeView(w, session.View(), http.StatusCreated)
}

func (handler *Handler) session(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, bool) {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no user", http.StatusUnauthorized)
		return nil, false
	}
	session, err := handler.service.Get(userID, mux.Vars(r)["id"])
	if err != nil {
		writeTimerError(w, err)
		return nil, false
	}
	return session, true
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.timer.get")
	defer span.End()

	session, ok := handler.session(ctx, w, r)
	if !ok {
		return
	}
	writeView(w, session.View(), http.StatusOK)
}

// HandleAction runs one of start, pause, reset, skip, reset-current, focus, blur.
func (handler *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.timer.action")
	defer span.End()

	session, ok := handler.session(ctx, w, r)
	if !ok {
		return
	}

	var err error
	switch action := mux.Vars(r)["action"]; action {
	case "start":
		err = session.Start()
	case "pause":
		err = session.Pause()
	case "reset":
		err = session.Reset()
	case "skip":
		err = session.Skip()
	case "reset-current":
		err = session.ResetCurrent()
	case "focus":
		err = session.Focus()
	case "blur":
		err = session.Blur()
	default:
		http.Error(w, "error, unknown action: "+action, http.StatusBadRequest)
		return
	}
	if err != nil {
		writeTimerError(w, err)
		return
	}

	writeView(w, session.View(), http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.timer.delete")
	defer span.End()

	userID := auth.UserIDFromContext(ctx)
	id := mux.Vars(r)["id"]
	if err := handler.service.Close(userID, id); err != nil {
		writeTimerError(w, err)
		return
	}
	writeView(w, DeletedResponse{DeletedID: id}, http.StatusOK)
}
