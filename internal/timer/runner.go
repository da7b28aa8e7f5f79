package timer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var ErrRunnerClosed = errors.New("timer closed")

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type stdTicker struct {
	*time.Ticker
}

func (t stdTicker) C() <-chan time.Time {
	return t.Ticker.C
}

func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{time.NewTicker(d)}
}

// WakeLock keeps the device awake while held.
type WakeLock interface {
	Acquire()
	Release()
}

type gaugeWakeLock struct {
	gauge prometheus.Gauge
}

// NewGaugeWakeLock reports held locks through gauge. A nil gauge gives a no-op lock.
func NewGaugeWakeLock(gauge prometheus.Gauge) WakeLock {
	return gaugeWakeLock{gauge: gauge}
}

func (l gaugeWakeLock) Acquire() {
	if l.gauge != nil {
		l.gauge.Inc()
	}
}

func (l gaugeWakeLock) Release() {
	if l.gauge != nil {
		l.gauge.Dec()
	}
}

type Snapshot struct {
	Kind             Kind    `json:"kind"`
	State            State   `json:"state"`
	Focused          bool    `json:"focused"`
	KeepAwake        bool    `json:"keepAwake"`
	RemainingSeconds float64 `json:"remainingSeconds"`
	DurationSeconds  int     `json:"durationSeconds,omitempty"`
	Current          string  `json:"current,omitempty"`
	Previous         string  `json:"previous,omitempty"`
	Next             string  `json:"next,omitempty"`
	Index            int     `json:"index"`
	Total            int     `json:"total,omitempty"`
	Progress         float64 `json:"progress"`
	Finished         bool    `json:"finished"`
}

type engine interface {
	Start() error
	Pause() error
	Reset()
	State() State
	// step runs one tick and reports whether it completed the timer
	step() bool
	snapshot(s *Snapshot)
}

type countdownEngine struct {
	*Countdown
}

func (e countdownEngine) step() bool {
	return e.Tick()
}

func (e countdownEngine) snapshot(s *Snapshot) {
	s.RemainingSeconds = float64(e.Remaining())
	s.DurationSeconds = e.Duration()
	s.Finished = e.State() == StateExpired
	if e.Duration() > 0 {
		s.Progress = float64(e.Remaining()) / float64(e.Duration())
	}
}

type circuitEngine struct {
	*Circuit
}

func (e circuitEngine) step() bool {
	return e.Tick(CircuitStep)
}

func (e circuitEngine) snapshot(s *Snapshot) {
	s.RemainingSeconds = e.Remaining().Seconds()
	s.Current = e.Current()
	s.Previous = e.Previous()
	s.Next = e.Next()
	s.Index = e.Index()
	s.Total = len(e.exercises)
	s.Progress = e.Progress()
	s.Finished = e.Finished()
}

type RunnerOptions struct {
	NewTicker  TickerFactory
	WakeLock   WakeLock
	OnFinished func()
}

// Runner drives a timer from a ticker goroutine. The goroutine only exists while
// the timer runs and is focused; blurring or closing the runner stops the timer
// and waits for the goroutine to exit.
type Runner struct {
	kind       Kind
	tick       time.Duration
	newTicker  TickerFactory
	wakeLock   WakeLock
	onFinished func()

	mu      sync.Mutex
	engine  engine
	focused bool
	awake   bool
	closed  bool
	stop    chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewCountdownRunner(countdown *Countdown, tick time.Duration, opts RunnerOptions) *Runner {
	if tick <= 0 {
		tick = CountdownStep
	}
	return newRunner(KindCountdown, countdownEngine{countdown}, tick, opts)
}

func NewCircuitRunner(circuit *Circuit, tick time.Duration, opts RunnerOptions) *Runner {
	if tick <= 0 {
		tick = CircuitStep
	}
	return newRunner(KindCircuit, circuitEngine{circuit}, tick, opts)
}

func newRunner(kind Kind, e engine, tick time.Duration, opts RunnerOptions) *Runner {
	if opts.NewTicker == nil {
		opts.NewTicker = NewStdTicker
	}
	if opts.WakeLock == nil {
		opts.WakeLock = NewGaugeWakeLock(nil)
	}
	return &Runner{
		kind:       kind,
		tick:       tick,
		newTicker:  opts.NewTicker,
		wakeLock:   opts.WakeLock,
		onFinished: opts.OnFinished,
		engine:     e,
		// a new timer is created by the view that shows it
		focused: true,
	}
}

func (r *Runner) Kind() Kind {
	return r.kind
}

func (r *Runner) Start() error {
	return r.do(func() (bool, error) {
		if !r.focused {
			return false, ErrNotFocused
		}
		return false, r.engine.Start()
	})
}

func (r *Runner) Pause() error {
	return r.do(func() (bool, error) {
		return false, r.engine.Pause()
	})
}

func (r *Runner) Reset() error {
	return r.do(func() (bool, error) {
		r.engine.Reset()
		return false, nil
	})
}

// Skip advances a circuit to its next exercise and runs it.
func (r *Runner) Skip() error {
	return r.do(func() (bool, error) {
		c, ok := r.engine.(circuitEngine)
		if !ok {
			return false, fmt.Errorf("skip on %s: %w", r.kind, ErrInvalidTransition)
		}
		if !r.focused {
			return false, ErrNotFocused
		}
		return c.Skip(), nil
	})
}

// ResetCurrent restarts the current circuit exercise from its full duration.
func (r *Runner) ResetCurrent() error {
	return r.do(func() (bool, error) {
		c, ok := r.engine.(circuitEngine)
		if !ok {
			return false, fmt.Errorf("reset current on %s: %w", r.kind, ErrInvalidTransition)
		}
		if !r.focused {
			return false, ErrNotFocused
		}
		c.ResetCurrent()
		return false, nil
	})
}

// Focus allows the timer to run again after a Blur.
func (r *Runner) Focus() error {
	return r.do(func() (bool, error) {
		r.focused = true
		return false, nil
	})
}

// Blur stops the timer. Nothing advances until it is focused and started again.
func (r *Runner) Blur() error {
	return r.do(func() (bool, error) {
		r.focused = false
		if r.engine.State() == StateRunning {
			return false, r.engine.Pause()
		}
		return false, nil
	})
}

// Close stops the timer for good and waits for its goroutine.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.focused = false
	if r.engine.State() == StateRunning {
		_ = r.engine.Pause()
	}
	done := r.reconcileLocked()
	r.mu.Unlock()

	if done != nil {
		<-done
	}
	r.wg.Wait()
}

func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Kind:      r.kind,
		State:     r.engine.State(),
		Focused:   r.focused,
		KeepAwake: r.awake,
	}
	r.engine.snapshot(&s)
	return s
}

// do runs op under the lock and then brings the ticker goroutine and the wake
// lock in line with the new state.
func (r *Runner) do(op func() (finished bool, err error)) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRunnerClosed
	}
	finished, err := op()
	done := r.reconcileLocked()
	r.mu.Unlock()

	if done != nil {
		<-done
	}
	if finished && r.onFinished != nil {
		r.onFinished()
	}
	return err
}

// reconcileLocked arms or disarms the ticker goroutine. A returned channel is
// closed once a disarmed goroutine has exited.
func (r *Runner) reconcileLocked() chan struct{} {
	active := r.focused && !r.closed && r.engine.State() == StateRunning

	if active {
		if !r.awake {
			r.awake = true
			r.wakeLock.Acquire()
		}
		if r.stop == nil {
			r.stop = make(chan struct{})
			r.done = make(chan struct{})
			r.wg.Add(1)
			go r.loop(r.newTicker(r.tick), r.stop, r.done)
		}
		return nil
	}

	if r.awake {
		r.awake = false
		r.wakeLock.Release()
	}
	if r.stop == nil {
		return nil
	}
	close(r.stop)
	done := r.done
	r.stop, r.done = nil, nil
	return done
}

func (r *Runner) loop(ticker Ticker, stop, done chan struct{}) {
	defer r.wg.Done()
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			finished, exit := r.onTick(stop)
			if finished && r.onFinished != nil {
				r.onFinished()
			}
			if exit {
				return
			}
		}
	}
}

func (r *Runner) onTick(stop chan struct{}) (finished, exit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != stop {
		// disarmed while waiting for the lock
		return false, true
	}

	finished = r.engine.step()
	if r.engine.State() == StateRunning {
		return finished, false
	}

	// the timer stopped by itself, detach this goroutine
	if r.awake {
		r.awake = false
		r.wakeLock.Release()
	}
	r.stop, r.done = nil, nil
	return finished, true
}
