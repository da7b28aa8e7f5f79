package plan

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/2beens/gymplan/internal/tabs"
	"github.com/2beens/gymplan/internal/telemetry/metrics"
	"github.com/2beens/gymplan/internal/telemetry/tracing"
	"github.com/2beens/gymplan/internal/workout"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=plan_test

type documentStore interface {
	FetchPlan(ctx context.Context, userID string) ([]tabs.Tab, []workout.Item, error)
	UpsertItem(ctx context.Context, userID string, item workout.Item) error
	RemoveItem(ctx context.Context, userID string, item workout.Item) error
	ReplaceTabItems(ctx context.Context, userID, tabID string, items []workout.Item) error
	ReplaceTabs(ctx context.Context, userID string, tabList []tabs.Tab) error
}

type NewServiceParams struct {
	Store          documentStore
	MaxTabs        int
	SyncQueueSize  int
	MetricsManager *metrics.Manager
	// OnSyncResult, when set, sees every sync result after it was logged and counted.
	OnSyncResult func(SyncResult)
	IDGen        func() string
}

// Service keeps one plan session per user.
type Service struct {
	store          documentStore
	maxTabs        int
	syncQueueSize  int
	metricsManager *metrics.Manager
	onSyncResult   func(SyncResult)
	idGen          func() string

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

var ErrServiceClosed = errors.New("plan service closed")

func NewService(params NewServiceParams) *Service {
	maxTabs := params.MaxTabs
	if maxTabs < 1 {
		maxTabs = tabs.DefaultMaxTabs
	}
	return &Service{
		store:          params.Store,
		maxTabs:        maxTabs,
		syncQueueSize:  params.SyncQueueSize,
		metricsManager: params.MetricsManager,
		onSyncResult:   params.OnSyncResult,
		idGen:          params.IDGen,
		sessions:       make(map[string]*Session),
	}
}

// Session returns the user's session, loading the plan document on first access.
// A failed load leaves the session empty and read only for tab changes; the
// load is retried on the next access.
func (s *Service) Session(ctx context.Context, userID string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "plan.session")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrServiceClosed
	}
	session, ok := s.sessions[userID]
	if !ok {
		syncer := NewSyncer(userID, s.syncQueueSize, s.handleSyncResult, s.metricsManager)
		session = newSession(userID, s.store, syncer, s.maxTabs, s.idGen)
		s.sessions[userID] = session
		if s.metricsManager != nil {
			s.metricsManager.GaugePlanSessions.Inc()
		}
	}
	s.mu.Unlock()

	if session.isLoaded() {
		return session, nil
	}

	tabList, items, loadErr := s.store.FetchPlan(ctx, userID)
	if loadErr != nil {
		log.Errorf("plan: failed to load plan of user %s, tab changes blocked: %s", userID, loadErr)
		span.SetAttributes(attribute.Bool("plan.load_failed", true))
		return session, nil
	}
	session.load(tabList, items)

	return session, nil
}

// TabItems returns the items of one tab of the user's plan.
func (s *Service) TabItems(ctx context.Context, userID, tabID string) ([]workout.Item, error) {
	session, err := s.Session(ctx, userID)
	if err != nil {
		return nil, err
	}
	return session.Items(tabID)
}

// Close drains the sync queues of all sessions.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	var err error
	for userID, session := range sessions {
		if closeErr := session.syncer.Close(ctx); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close syncer of %s: %w", userID, closeErr))
		}
		if s.metricsManager != nil {
			s.metricsManager.GaugePlanSessions.Dec()
		}
	}

	return err
}

func (s *Service) handleSyncResult(result SyncResult) {
	status := "ok"
	if result.Err != nil {
		status = "error"
		log.Errorf("plan sync %s [%s] of user %s failed: %s", result.Op, result.Subject, result.UserID, result.Err)
	} else {
		log.Tracef("plan sync %s [%s] of user %s done in %s", result.Op, result.Subject, result.UserID, result.Duration)
	}

	if s.metricsManager != nil {
		s.metricsManager.CounterStoreSync.WithLabelValues(string(result.Op), status).Inc()
		if result.Duration > 0 {
			s.metricsManager.HistStoreSyncDuration.WithLabelValues(string(result.Op)).Observe(result.Duration.Seconds())
		}
	}

	if s.onSyncResult != nil {
		s.onSyncResult(result)
	}
}
