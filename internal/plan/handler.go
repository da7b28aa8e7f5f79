package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/gymplan/internal/auth"
	"github.com/2beens/gymplan/internal/telemetry/tracing"
	"github.com/2beens/gymplan/internal/workout"
	"github.com/2beens/gymplan/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type RenameTabRequest struct {
	Title string `json:"title"`
}

type ReorderRequest struct {
	IDs []string `json:"ids"`
}

type UpdateItemRequest struct {
	Field workout.Field   `json:"field"`
	Value json.RawMessage `json:"value"`
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

func (handler *Handler) session(ctx context.Context, w http.ResponseWriter) (*Session, bool) {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no user", http.StatusUnauthorized)
		return nil, false
	}

	session, err := handler.service.Session(ctx, userID)
	if err != nil {
		log.Errorf("failed to get plan session of %s: %s", userID, err)
		http.Error(w, "error, plan unavailable", http.StatusServiceUnavailable)
		return nil, false
	}
	return session, true
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	resJson, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal plan response: %s", err)
		http.Error(w, "error, marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resJson, status)
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTabNotFound):
		http.Error(w, "error, tab not found", http.StatusNotFound)
	case errors.Is(err, ErrItemNotFound):
		http.Error(w, "error, item not found", http.StatusNotFound)
	case errors.Is(err, ErrTabLimitReached):
		http.Error(w, "error, tab limit reached", http.StatusConflict)
	case errors.Is(err, ErrPlanUnavailable):
		http.Error(w, "error, plan unavailable, retry later", http.StatusServiceUnavailable)
	case errors.Is(err, ErrInvalidUpdate), errors.Is(err, workout.ErrInvalidOrder):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("plan operation failed: %s", err)
		http.Error(w, "error, plan operation failed", http.StatusInternalServerError)
	}
}

func (handler *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.get")
	defer span.End()

	session, ok := handler.session(ctx, w)
	if !ok {
		return
	}
	writeJSON(w, session.Snapshot(), http.StatusOK)
}

func (handler *Handler) HandleAddTab(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.add_tab")
	defer span.End()

	session, ok := handler.session(ctx, w)
	if !ok {
		return
	}

	tab, err := session.AddTab()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, tab, http.StatusCreated)
}

func (handler *Handler) HandleRenameTab(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.rename_tab")
	defer span.End()

	var req RenameTabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("rename tab, unmarshal json params: %s", err)
		http.Error(w, "error, invalid request", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "error, title empty", http.StatusBadRequest)
		return
	}

	session, ok := handler.session(ctx, w)
	if !ok {
		return
	}

	tab, err := session.RenameTab(mux.Vars(r)["id"], req.Title)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, tab, http.StatusOK)
}

// HandleDeleteTab requires ?confirm=true, the tab and all of its items are gone afterwards.
func (handler *Handler) HandleDeleteTab(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.delete_tab")
	defer span.End()

	if r.URL.Query().Get("confirm") != "true" {
		http.Error(w, "error, deleting a tab needs confirm=true", http.StatusPreconditionRequired)
		return
	}

	session, ok := handler.session(ctx, w)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if err := session.DeleteTab(id); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, DeletedResponse{DeletedID: id}, http.StatusOK)
}

func (handler *Handler) HandleActivateTab(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.activate_tab")
	defer span.End()

	session, ok := handler.session(ctx, w)
	if !ok {
		return
	}

	if err := session.SetActiveTab(mux.Vars(r)["id"]); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, session.Snapshot(), http.StatusOK)
}

func (handler *Handler) HandleTabItems(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.tab_items")
	defer span.End()

	session, ok := handler.session(ctx, w)
	if !ok {
		return
	}

	items, err := session.Items(mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, items, http.StatusOK)
}

func (handler *Handler) HandleAddTraining(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.add_training")
	defer span.End()

	session, ok := handler.session(ctx, w)
	if !ok {
		return
	}

	item, err := session.AddTraining(mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, item, http.StatusCreated)
}

func (handler *Handler) HandleAddInterval(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.add_interval")
	defer span.End()

	session, ok := handler.session(ctx, w)
	if !ok {
		return
	}

	item, err := session.AddInterval(mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, item, http.StatusCreated)
}

func (handler *Handler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.reorder")
	defer span.End()

	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("reorder, unmarshal json params: %s", err)
		http.Error(w, "error, invalid request", http.StatusBadRequest)
		return
	}

	session, ok := handler.session(ctx, w)
	if !ok {
		return
	}

	items, err := session.ReorderTab(mux.Vars(r)["id"], req.IDs)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, items, http.StatusOK)
}

func (handler *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.update_item")
	defer span.End()

	var req UpdateItemRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		log.Tracef("update item, unmarshal json params: %s", err)
		http.Error(w, "error, invalid request", http.StatusBadRequest)
		return
	}

	var value any
	valueDecoder := json.NewDecoder(bytes.NewReader(req.Value))
	valueDecoder.UseNumber()
	if err := valueDecoder.Decode(&value); err != nil {
		http.Error(w, "error, invalid value", http.StatusBadRequest)
		return
	}

	session, ok := handler.session(ctx, w)
	if !ok {
		return
	}

	item, err := session.UpdateItem(mux.Vars(r)["id"], req.Field, value)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, item, http.StatusOK)
}

func (handler *Handler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.delete_item")
	defer span.End()

	session, ok := handler.session(ctx, w)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if err := session.RemoveItem(id); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, DeletedResponse{DeletedID: id}, http.StatusOK)
}
