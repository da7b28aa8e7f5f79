package timer

import (
	"fmt"
	"time"
)

const CircuitStep = 100 * time.Millisecond

type Exercise struct {
	Name     string `json:"name"`
	Sets     int    `json:"sets"`
	Reps     int    `json:"reps"`
	Interval int    `json:"interval"`
	// Rest marks an interval entry rather than a training.
	Rest bool `json:"rest,omitempty"`
}

func (e Exercise) duration() time.Duration {
	if e.Interval < 0 {
		return 0
	}
	return time.Duration(e.Interval) * time.Second
}

// Circuit runs through a sequence of exercises, each for its own interval.
type Circuit struct {
	exercises []Exercise
	current   int
	remaining time.Duration
	state     State
	finished  bool
}

func NewCircuit(exercises []Exercise) (*Circuit, error) {
	if len(exercises) == 0 {
		return nil, ErrEmptyCircuit
	}
	c := &Circuit{
		exercises: append([]Exercise(nil), exercises...),
		state:     StateStopped,
	}
	c.remaining = c.exercises[0].duration()
	return c, nil
}

func (c *Circuit) Start() error {
	if c.finished {
		return fmt.Errorf("circuit finished, reset first: %w", ErrInvalidTransition)
	}
	return transition(KindCircuit, &c.state, StateRunning)
}

func (c *Circuit) Pause() error {
	return transition(KindCircuit, &c.state, StateStopped)
}

// Reset rewinds to the first exercise, stopped.
func (c *Circuit) Reset() {
	c.current = 0
	c.remaining = c.exercises[0].duration()
	c.state = StateStopped
	c.finished = false
}

// ResetCurrent restores the full duration of the current exercise and runs it.
func (c *Circuit) ResetCurrent() {
	c.remaining = c.exercises[c.current].duration()
	c.state = StateRunning
	c.finished = false
}

// Skip moves to the next exercise at once and runs it. Skipping the last one
// stops the circuit and returns true.
func (c *Circuit) Skip() bool {
	if c.finished {
		return false
	}
	if c.advance() {
		return true
	}
	c.state = StateRunning
	return false
}

// Tick takes step off the current exercise while running and advances when it
// runs out. It returns true on the tick that finishes the sequence.
func (c *Circuit) Tick(step time.Duration) bool {
	if c.state != StateRunning {
		return false
	}
	c.remaining -= step
	if c.remaining > 0 {
		return false
	}
	return c.advance()
}

func (c *Circuit) advance() bool {
	if c.current+1 < len(c.exercises) {
		c.current++
		c.remaining = c.exercises[c.current].duration()
		return false
	}
	c.remaining = 0
	c.finished = true
	if c.state == StateRunning {
		_ = transition(KindCircuit, &c.state, StateStopped)
	}
	return true
}

func (c *Circuit) State() State {
	return c.state
}

func (c *Circuit) Finished() bool {
	return c.finished
}

func (c *Circuit) Remaining() time.Duration {
	return c.remaining
}

func (c *Circuit) Index() int {
	return c.current
}

func (c *Circuit) Exercises() []Exercise {
	return append([]Exercise(nil), c.exercises...)
}

func (c *Circuit) Current() string {
	return c.exercises[c.current].Name
}

// Previous is the name of the exercise before the current one, empty at the start.
func (c *Circuit) Previous() string {
	if c.current == 0 {
		return ""
	}
	return c.exercises[c.current-1].Name
}

// Next is the name of the exercise after the current one, empty at the end.
func (c *Circuit) Next() string {
	if c.current+1 >= len(c.exercises) {
		return ""
	}
	return c.exercises[c.current+1].Name
}

// Progress is the remaining share of the current exercise, in [0, 1].
func (c *Circuit) Progress() float64 {
	total := c.exercises[c.current].duration()
	if total <= 0 || c.remaining <= 0 {
		return 0
	}
	return float64(c.remaining) / float64(total)
}
