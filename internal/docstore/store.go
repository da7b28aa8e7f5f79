package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/gymplan/internal/tabs"
	"github.com/2beens/gymplan/internal/telemetry/metrics"
	"github.com/2beens/gymplan/internal/telemetry/tracing"
	"github.com/2beens/gymplan/internal/workout"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// returned by a mutation that left the document as it was
var errUnchanged = errors.New("document unchanged")

// Store is the plan document adapter. Every write is a field-scoped mutation
// of the latest document, saved against the version it was read at and
// re-applied on a version conflict.
type Store struct {
	backend        Backend
	cfg            Config
	metricsManager *metrics.Manager
}

func NewStore(backend Backend, cfg Config, metricsManager *metrics.Manager) *Store {
	if cfg.MaxConflictRetries < 0 {
		cfg.MaxConflictRetries = 0
	}
	return &Store{
		backend:        backend,
		cfg:            cfg,
		metricsManager: metricsManager,
	}
}

// FetchPlan returns the tabs and all items of the user's plan. A missing document is an empty plan.
func (s *Store) FetchPlan(ctx context.Context, userID string) (_ []tabs.Tab, _ []workout.Item, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.fetch_plan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	doc, err := s.load(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return doc.TabList(), doc.Items(), nil
}

func (s *Store) FetchTabs(ctx context.Context, userID string) (_ []tabs.Tab, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.fetch_tabs")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	doc, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return doc.TabList(), nil
}

// FetchWorkoutItems returns the items of one tab; an unknown tab yields no items.
func (s *Store) FetchWorkoutItems(ctx context.Context, userID, tabID string) (_ []workout.Item, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.fetch_workout_items")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("tab.id", tabID))

	doc, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]workout.Item, 0)
	if tab := doc.tab(tabID); tab != nil {
		for _, task := range tab.Tasks {
			items = append(items, task.Item(tabID))
		}
	}
	return items, nil
}

// UpsertItem replaces the task with the item's id in its tab, or appends it.
func (s *Store) UpsertItem(ctx context.Context, userID string, item workout.Item) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.upsert_item")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("item.id", item.ID))

	return s.update(ctx, userID, false, func(doc *Document) error {
		tab := doc.tab(item.ActiveTabID)
		if tab == nil {
			return fmt.Errorf("%s: %w", item.ActiveTabID, ErrTabNotFound)
		}
		task := TaskFromItem(item)
		for i := range tab.Tasks {
			if tab.Tasks[i].ID == item.ID {
				if tab.Tasks[i] == task {
					return errUnchanged
				}
				tab.Tasks[i] = task
				return nil
			}
		}
		tab.Tasks = append(tab.Tasks, task)
		return nil
	})
}

// RemoveItem drops the item's task. Removing a task that is already gone is not an error.
func (s *Store) RemoveItem(ctx context.Context, userID string, item workout.Item) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.remove_item")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("item.id", item.ID))

	err = s.update(ctx, userID, false, func(doc *Document) error {
		for i := range doc.Tabs {
			tab := &doc.Tabs[i]
			for j := range tab.Tasks {
				if tab.Tasks[j].ID == item.ID {
					tab.Tasks = append(tab.Tasks[:j], tab.Tasks[j+1:]...)
					return nil
				}
			}
		}
		return errUnchanged
	})
	if errors.Is(err, ErrDocumentNotFound) {
		return nil
	}
	return err
}

// ReplaceTabItems stores items as the complete, ordered task list of tabID.
func (s *Store) ReplaceTabItems(ctx context.Context, userID, tabID string, items []workout.Item) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.replace_tab_items")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("tab.id", tabID))
	span.SetAttributes(attribute.Int("items.count", len(items)))

	return s.update(ctx, userID, false, func(doc *Document) error {
		tab := doc.tab(tabID)
		if tab == nil {
			return fmt.Errorf("%s: %w", tabID, ErrTabNotFound)
		}
		tasks := make([]TaskRecord, 0, len(items))
		for _, item := range items {
			tasks = append(tasks, TaskFromItem(item))
		}
		tab.Tasks = tasks
		return nil
	})
}

// ReplaceTabs merges a new tab list into the document: order and titles come from
// newTabs, surviving tabs keep their tasks, removed tabs drop theirs.
// The document is created if missing.
func (s *Store) ReplaceTabs(ctx context.Context, userID string, newTabs []tabs.Tab) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "docstore.replace_tabs")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("tabs.count", len(newTabs)))

	return s.update(ctx, userID, true, func(doc *Document) error {
		merged := make([]TabRecord, 0, len(newTabs))
		for _, t := range newTabs {
			record := TabRecord{ID: t.ID, Title: t.Title, Tasks: []TaskRecord{}}
			if existing := doc.tab(t.ID); existing != nil && existing.Tasks != nil {
				record.Tasks = existing.Tasks
			}
			merged = append(merged, record)
		}
		doc.Tabs = merged
		return nil
	})
}

func (s *Store) load(ctx context.Context, userID string) (*Document, error) {
	doc, _, err := s.backend.Load(ctx, s.cfg.Key(userID))
	if errors.Is(err, ErrDocumentNotFound) {
		return &Document{Tabs: []TabRecord{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) update(ctx context.Context, userID string, createIfMissing bool, mutate func(doc *Document) error) error {
	key := s.cfg.Key(userID)
	for attempt := 0; ; attempt++ {
		doc, version, err := s.backend.Load(ctx, key)
		switch {
		case errors.Is(err, ErrDocumentNotFound):
			if !createIfMissing {
				return ErrDocumentNotFound
			}
			doc, version = &Document{Tabs: []TabRecord{}}, 0
		case err != nil:
			return fmt.Errorf("load %s: %w", key, err)
		}

		if err := mutate(doc); err != nil {
			if errors.Is(err, errUnchanged) {
				return nil
			}
			return err
		}

		_, err = s.backend.Save(ctx, key, doc, version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return fmt.Errorf("save %s: %w", key, err)
		}

		if s.metricsManager != nil {
			s.metricsManager.CounterVersionConflicts.Inc()
		}
		if attempt >= s.cfg.MaxConflictRetries {
			return fmt.Errorf("save %s after %d attempts: %w", key, attempt+1, ErrVersionConflict)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Debugf("docstore: version conflict on %s at v%d, retrying", key, version)
	}
}
