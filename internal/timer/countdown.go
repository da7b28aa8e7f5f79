package timer

import "time"

const CountdownStep = time.Second

// Countdown counts whole seconds down from its duration.
type Countdown struct {
	duration  int
	remaining int
	state     State
}

func NewCountdown(seconds int) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		duration:  seconds,
		remaining: seconds,
		state:     StateIdle,
	}
}

func (c *Countdown) Start() error {
	return transition(KindCountdown, &c.state, StateRunning)
}

// Pause stops the clock but keeps the remaining time.
func (c *Countdown) Pause() error {
	return transition(KindCountdown, &c.state, StateIdle)
}

// Reset re-arms the full duration from any state.
func (c *Countdown) Reset() {
	c.remaining = c.duration
	c.state = StateIdle
}

// Tick advances the countdown by one second. It returns true on the tick that
// makes it expire.
func (c *Countdown) Tick() bool {
	if c.state != StateRunning {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		_ = transition(KindCountdown, &c.state, StateExpired)
		return true
	}
	return false
}

func (c *Countdown) State() State {
	return c.state
}

func (c *Countdown) Remaining() int {
	return c.remaining
}

func (c *Countdown) Duration() int {
	return c.duration
}
