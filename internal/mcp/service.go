package mcp

import (
	"context"
	"time"

	"github.com/2beens/gymplan/internal/history"
	"github.com/2beens/gymplan/internal/plan"
	"github.com/2beens/gymplan/internal/workout"
)

type historyReader interface {
	ListForDate(ctx context.Context, userID string, date time.Time) ([]history.Record, error)
}

// contextService provides the plan and history data behind the tools.
type contextService interface {
	ListTabs(ctx context.Context, userID string) ([]TabSummary, error)
	TabWorkout(ctx context.Context, userID, tabID string) ([]workout.Item, error)
	HistoryForDate(ctx context.Context, userID, date string) ([]history.Record, error)
}

type TabSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
	Items  int    `json:"items"`
}

// ContextService reads plans through the plan service, so tools see unsynced local edits too.
type ContextService struct {
	plans   *plan.Service
	history historyReader
}

func NewContextService(plans *plan.Service, history historyReader) *ContextService {
	return &ContextService{
		plans:   plans,
		history: history,
	}
}

func (s *ContextService) ListTabs(ctx context.Context, userID string) ([]TabSummary, error) {
	session, err := s.plans.Session(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := session.Snapshot()
	summaries := make([]TabSummary, 0, len(snapshot.Tabs))
	for _, tab := range snapshot.Tabs {
		summaries = append(summaries, TabSummary{
			ID:     tab.ID,
			Title:  tab.Title,
			Active: tab.ID == snapshot.ActiveTabID,
			Items:  len(workout.ItemsForTab(snapshot.Items, tab.ID)),
		})
	}
	return summaries, nil
}

func (s *ContextService) TabWorkout(ctx context.Context, userID, tabID string) ([]workout.Item, error) {
	return s.plans.TabItems(ctx, userID, tabID)
}

func (s *ContextService) HistoryForDate(ctx context.Context, userID, date string) ([]history.Record, error) {
	day, err := history.ParseDate(date)
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		return []history.Record{}, nil
	}
	return s.history.ListForDate(ctx, userID, day)
}
