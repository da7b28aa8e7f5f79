package plan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/gymplan/internal/telemetry/metrics"
)

var (
	ErrSyncQueueFull = errors.New("sync queue full")
	ErrSyncerClosed  = errors.New("syncer closed")
)

const (
	DefaultSyncQueueSize = 64
	syncJobTimeout       = 15 * time.Second
)

type Op string

const (
	OpUpsertItem      Op = "upsert_item"
	OpRemoveItem      Op = "remove_item"
	OpReplaceTabItems Op = "replace_tab_items"
	OpReplaceTabs     Op = "replace_tabs"
)

// SyncResult describes the outcome of one remote write.
type SyncResult struct {
	Op       Op
	UserID   string
	Subject  string
	Err      error
	Duration time.Duration
}

func (r SyncResult) Succeeded() bool {
	return r.Err == nil
}

type syncJob struct {
	op      Op
	subject string
	run     func(ctx context.Context) error
}

// Syncer runs the remote writes of one user on a single goroutine, in the order
// they were enqueued. Enqueue never blocks.
type Syncer struct {
	userID         string
	jobs           chan syncJob
	onResult       func(SyncResult)
	metricsManager *metrics.Manager

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewSyncer(userID string, queueSize int, onResult func(SyncResult), metricsManager *metrics.Manager) *Syncer {
	if queueSize < 1 {
		queueSize = DefaultSyncQueueSize
	}
	if onResult == nil {
		onResult = func(SyncResult) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Syncer{
		userID:         userID,
		jobs:           make(chan syncJob, queueSize),
		onResult:       onResult,
		metricsManager: metricsManager,
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	go s.loop()

	return s
}

// Enqueue schedules run. A full queue or a closed syncer drops the job and
// reports the drop through the result callback.
func (s *Syncer) Enqueue(op Op, subject string, run func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.onResult(SyncResult{Op: op, UserID: s.userID, Subject: subject, Err: ErrSyncerClosed})
		return
	}

	select {
	case s.jobs <- syncJob{op: op, subject: subject, run: run}:
		if s.metricsManager != nil {
			s.metricsManager.GaugeSyncQueueDepth.Inc()
		}
	default:
		s.onResult(SyncResult{Op: op, UserID: s.userID, Subject: subject, Err: ErrSyncQueueFull})
	}
}

// Close stops accepting jobs and waits for queued ones to finish. When ctx
// ends first, in-flight writes are cancelled and the rest are abandoned.
func (s *Syncer) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-s.done
		return ctx.Err()
	}
}

func (s *Syncer) loop() {
	defer close(s.done)

	for job := range s.jobs {
		if s.metricsManager != nil {
			s.metricsManager.GaugeSyncQueueDepth.Dec()
		}

		result := SyncResult{Op: job.op, UserID: s.userID, Subject: job.subject}
		if err := s.ctx.Err(); err != nil {
			result.Err = err
			s.onResult(result)
			continue
		}

		start := time.Now()
		ctx, cancel := context.WithTimeout(s.ctx, syncJobTimeout)
		result.Err = job.run(ctx)
		cancel()
		result.Duration = time.Since(start)

		s.onResult(result)
	}
}
