package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/gymplan/internal/telemetry/metrics"
	"github.com/2beens/gymplan/internal/telemetry/tracing"
	"github.com/2beens/gymplan/internal/workout"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=timer_test

var ErrSessionNotFound = errors.New("timer session not found")

const DefaultIdleTTL = 2 * time.Hour

type planItems interface {
	TabItems(ctx context.Context, userID, tabID string) ([]workout.Item, error)
}

// FinishedFunc is called once a circuit ran through all of its exercises.
type FinishedFunc func(ctx context.Context, userID string, exercises []Exercise)

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	*Runner   `json:"-"`

	// guarded by Service.mu
	lastUsed time.Time
}

type SessionView struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Snapshot
}

func (s *Session) View() SessionView {
	return SessionView{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Snapshot:  s.Snapshot(),
	}
}

type NewServiceParams struct {
	PlanItems         planItems
	OnCircuitFinished FinishedFunc
	CountdownSeconds  int
	CountdownTick     time.Duration
	CircuitTick       time.Duration
	NewTicker         TickerFactory
	MetricsManager    *metrics.Manager
	// IdleTTL is how long a session that is not running may go untouched
	// before ScanAndClean closes it. Zero means DefaultIdleTTL.
	IdleTTL time.Duration
	Now     func() time.Time
}

// Service owns the transient timer sessions of all users.
type Service struct {
	planItems         planItems
	onCircuitFinished FinishedFunc
	countdownSeconds  int
	countdownTick     time.Duration
	circuitTick       time.Duration
	newTicker         TickerFactory
	metricsManager    *metrics.Manager
	idleTTL           time.Duration
	now               func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(params NewServiceParams) *Service {
	if params.CountdownSeconds <= 0 {
		params.CountdownSeconds = 60
	}
	if params.IdleTTL <= 0 {
		params.IdleTTL = DefaultIdleTTL
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{
		planItems:         params.PlanItems,
		onCircuitFinished: params.OnCircuitFinished,
		countdownSeconds:  params.CountdownSeconds,
		countdownTick:     params.CountdownTick,
		circuitTick:       params.CircuitTick,
		newTicker:         params.NewTicker,
		metricsManager:    params.MetricsManager,
		idleTTL:           params.IdleTTL,
		now:               params.Now,
		sessions:          make(map[string]*Session),
	}
}

func (s *Service) wakeLock() WakeLock {
	if s.metricsManager == nil {
		return NewGaugeWakeLock(nil)
	}
	return NewGaugeWakeLock(s.metricsManager.GaugeKeepAwake)
}

// CreateCountdown opens a countdown session. Zero seconds picks the configured default.
func (s *Service) CreateCountdown(userID string, seconds int) *Session {
	if seconds <= 0 {
		seconds = s.countdownSeconds
	}
	runner := NewCountdownRunner(NewCountdown(seconds), s.countdownTick, RunnerOptions{
		NewTicker: s.newTicker,
		WakeLock:  s.wakeLock(),
	})
	return s.add(userID, runner)
}

// CreateCircuit opens a circuit session over the items of one plan tab.
func (s *Service) CreateCircuit(ctx context.Context, userID, tabID string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "timer.create_circuit")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("tab.id", tabID))

	if s.planItems == nil {
		return nil, errors.New("no plan source")
	}
	items, err := s.planItems.TabItems(ctx, userID, tabID)
	if err != nil {
		return nil, fmt.Errorf("tab items: %w", err)
	}
	return s.CreateCircuitFromExercises(userID, ExercisesFromItems(items))
}

func (s *Service) CreateCircuitFromExercises(userID string, exercises []Exercise) (*Session, error) {
	circuit, err := NewCircuit(exercises)
	if err != nil {
		return nil, err
	}

	var session *Session
	runner := NewCircuitRunner(circuit, s.circuitTick, RunnerOptions{
		NewTicker: s.newTicker,
		WakeLock:  s.wakeLock(),
		OnFinished: func() {
			s.circuitFinished(session, circuit.Exercises())
		},
	})
	session = s.add(userID, runner)
	return session, nil
}

func (s *Service) add(userID string, runner *Runner) *Session {
	now := s.now()
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		Runner:    runner,
		lastUsed:  now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	if s.metricsManager != nil {
		s.metricsManager.GaugeActiveTimers.Inc()
	}
	log.Debugf("timer: %s session %s opened for %s", runner.Kind(), session.ID, userID)
	return session
}

func (s *Service) circuitFinished(session *Session, exercises []Exercise) {
	if s.metricsManager != nil {
		s.metricsManager.CounterCircuitsFinished.Inc()
	}
	log.Debugf("timer: circuit %s of %s finished", session.ID, session.UserID)
	if s.onCircuitFinished != nil {
		s.onCircuitFinished(context.Background(), session.UserID, exercises)
	}
}

// Get returns the session if it belongs to userID and marks it as used.
func (s *Service) Get(userID, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.UserID != userID {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	session.lastUsed = s.now()
	return session, nil
}

func (s *Service) List(userID string) []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []*Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			list = append(list, session)
		}
	}
	return list
}

// Close tears the session down.
func (s *Service) Close(userID, id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if !ok || session.UserID != userID {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	s.closeSession(session)
	return nil
}

// ScanAndClean closes sessions that are not running and were not used for
// longer than the idle ttl. Running timers end on their own.
func (s *Service) ScanAndClean() int {
	now := s.now()

	s.mu.Lock()
	var idle []*Session
	for id, session := range s.sessions {
		if now.Sub(session.lastUsed) <= s.idleTTL {
			continue
		}
		if session.Snapshot().State == StateRunning {
			continue
		}
		idle = append(idle, session)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, session := range idle {
		s.closeSession(session)
		log.Debugf("timer: idle %s session %s of %s closed", session.Kind(), session.ID, session.UserID)
	}
	if len(idle) > 0 {
		log.Printf("timer: closed %d idle sessions", len(idle))
	}
	return len(idle)
}

func (s *Service) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		s.closeSession(session)
	}
	log.Debugf("timer: closed %d sessions", len(sessions))
}

func (s *Service) closeSession(session *Session) {
	session.Runner.Close()
	if s.metricsManager != nil {
		s.metricsManager.GaugeActiveTimers.Dec()
	}
}

// ExercisesFromItems turns the items of a tab into the circuit sequence.
func ExercisesFromItems(items []workout.Item) []Exercise {
	exercises := make([]Exercise, 0, len(items))
	for _, item := range items {
		name := item.Label
		if name == "" {
			name = "Training"
		}
		exercises = append(exercises, Exercise{
			Name:     name,
			Sets:     item.Sets,
			Reps:     item.Reps,
			Interval: item.Interval,
			Rest:     item.Type == workout.TypeInterval,
		})
	}
	return exercises
}
