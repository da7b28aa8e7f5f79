package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/gymplan/internal/auth"
	"github.com/2beens/gymplan/internal/telemetry/tracing"
	"github.com/2beens/gymplan/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=history_test

type recordsRepo interface {
	Add(ctx context.Context, record Record) (*Record, error)
	Delete(ctx context.Context, userID string, id int) error
	ListForDate(ctx context.Context, userID string, date time.Time) ([]Record, error)
	MonthSummary(ctx context.Context, userID string, year, month int) ([]DaySummary, error)
}

type DeleteRecordResponse struct {
	DeletedID int `json:"deletedId"`
}

type Handler struct {
	repo recordsRepo
	now  func() time.Time
}

func NewHandler(repo recordsRepo) *Handler {
	return &Handler{
		repo: repo,
		now:  time.Now,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.add")
	defer span.End()

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	var record Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		log.Tracef("new training record, unmarshal json params: %s", err)
		http.Error(w, "add training record failed", http.StatusBadRequest)
		return
	}

	record.Exercise = strings.TrimSpace(record.Exercise)
	if record.Exercise == "" {
		http.Error(w, "error, exercise empty", http.StatusBadRequest)
		return
	}
	if record.Sets < 0 || record.Reps < 0 || record.Weight < 0 {
		http.Error(w, "error, negative sets, reps or weight", http.StatusBadRequest)
		return
	}
	if record.Date == "" {
		record.Date = Today(handler.now())
	}
	if _, err := ParseDate(record.Date); err != nil {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}
	record.UserID = userID
	record.CreatedAt = handler.now()

	added, err := handler.repo.Add(ctx, record)
	if err != nil {
		log.Errorf("failed to add training record [%s] [%s]: %s", record.Date, record.Exercise, err)
		http.Error(w, "error, failed to add training record", http.StatusInternalServerError)
		return
	}

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("failed to marshal training record: %s", err)
		http.Error(w, "error, failed to add training record", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

// HandleListForDate returns the records of one calendar day, an empty list when there are none.
func (handler *Handler) HandleListForDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.list_for_date")
	defer span.End()

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	dateStr := mux.Vars(r)["date"]
	if dateStr == "" {
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, []byte("[]"), http.StatusOK)
		return
	}
	date, err := ParseDate(dateStr)
	if err != nil {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}

	records, err := handler.repo.ListForDate(ctx, userID, date)
	if err != nil {
		log.Errorf("failed to list training records for %s: %s", dateStr, err)
		http.Error(w, "error, failed to list training records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []Record{}
	}

	recordsJson, err := json.Marshal(records)
	if err != nil {
		log.Errorf("failed to marshal training records: %s", err)
		http.Error(w, "error, failed to list training records", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, recordsJson, http.StatusOK)
}

func (handler *Handler) HandleMonth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.month")
	defer span.End()

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		http.Error(w, "error, year NaN", http.StatusBadRequest)
		return
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil {
		http.Error(w, "error, month NaN", http.StatusBadRequest)
		return
	}

	days, err := handler.repo.MonthSummary(ctx, userID, year, month)
	if err != nil {
		if errors.Is(err, ErrInvalidDate) {
			http.Error(w, "error, invalid month", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to get month summary %d-%d: %s", year, month, err)
		http.Error(w, "error, failed to get month summary", http.StatusInternalServerError)
		return
	}
	if days == nil {
		days = []DaySummary{}
	}

	daysJson, err := json.Marshal(days)
	if err != nil {
		log.Errorf("failed to marshal month summary: %s", err)
		http.Error(w, "error, failed to get month summary", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, daysJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.delete")
	defer span.End()

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			http.Error(w, "error, training record not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete training record %d: %s", id, err)
		http.Error(w, "error, failed to delete training record", http.StatusInternalServerError)
		return
	}

	resJson, err := json.Marshal(DeleteRecordResponse{DeletedID: id})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "error, failed to delete training record", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resJson, http.StatusOK)
}
