package timer

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid timer transition")
	ErrNotFocused        = errors.New("timer not focused")
	ErrEmptyCircuit      = errors.New("circuit has no exercises")
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateExpired State = "expired"
	StateStopped State = "stopped"
)

type Kind string

const (
	KindCountdown Kind = "countdown"
	KindCircuit   Kind = "circuit"
)

// allowedTransitions lists, per timer kind, the states reachable from each state.
// Resets bypass the table.
var allowedTransitions = map[Kind]map[State][]State{
	KindCountdown: {
		StateIdle:    {StateRunning},
		StateRunning: {StateIdle, StateExpired},
	},
	KindCircuit: {
		StateStopped: {StateRunning},
		StateRunning: {StateStopped},
	},
}

func isAllowedTransition(kind Kind, from, to State) bool {
	for _, s := range allowedTransitions[kind][from] {
		if s == to {
			return true
		}
	}
	return false
}

// transition moves *state to `to`, or fails leaving it unchanged.
func transition(kind Kind, state *State, to State) error {
	if !isAllowedTransition(kind, *state, to) {
		return fmt.Errorf("%s %s -> %s: %w", kind, *state, to, ErrInvalidTransition)
	}
	*state = to
	return nil
}
