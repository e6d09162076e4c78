package attribution

import (
	"errors"
	"fmt"
	"time"

	"github.com/stwalsh4118/fairshare/internal/models"
)

// State represents the attribution trigger's state
type State string

// Trigger state constants
const (
	StateIdle    State = "idle"    // No overlay shown
	StateArmed   State = "armed"   // Licensed span entered, overlay pending
	StateShowing State = "showing" // Overlay visible, dismiss timer running
)

// ErrInvalidStateTransition is returned by transition when the state machine
// is asked to make a move it does not allow
var ErrInvalidStateTransition = errors.New("invalid state transition")

// String returns the string representation of the trigger state
func (s State) String() string {
	return string(s)
}

// IsValid checks if the trigger state is a known value
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateArmed, StateShowing:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a transition from current state to newState is valid
func (s State) CanTransitionTo(newState State) bool {
	switch s {
	case StateIdle:
		return newState == StateArmed
	case StateArmed:
		// Armed either shows or is abandoned when the span is left
		return newState == StateShowing || newState == StateIdle
	case StateShowing:
		return newState == StateIdle
	default:
		return false
	}
}

// RetriggerPolicy decides whether re-entering a licensed span shows the overlay again
type RetriggerPolicy string

const (
	// RetriggerAlways shows the overlay on every entry into a licensed span
	RetriggerAlways RetriggerPolicy = "always"

	// RetriggerOnce shows each clip's overlay at most once per session
	RetriggerOnce RetriggerPolicy = "once"
)

// ParseRetriggerPolicy converts a policy name to a RetriggerPolicy
func ParseRetriggerPolicy(s string) (RetriggerPolicy, error) {
	switch RetriggerPolicy(s) {
	case RetriggerAlways, RetriggerOnce:
		return RetriggerPolicy(s), nil
	case "":
		return RetriggerAlways, nil
	default:
		return "", fmt.Errorf("unknown retrigger policy %q", s)
	}
}

// Default overlay timings
const (
	DefaultShowDelay    = 0
	DefaultDismissAfter = 5 * time.Second
	DefaultFadeOut      = 300 * time.Millisecond
)

// Options configures overlay timing and re-trigger behaviour
type Options struct {
	// ShowDelay holds the trigger in Armed before the overlay appears
	ShowDelay time.Duration

	// DismissAfter hides the overlay after it has been visible this long
	DismissAfter time.Duration

	// FadeOut clears the payload this long after the overlay hides
	FadeOut time.Duration

	Policy RetriggerPolicy
}

// DefaultOptions returns the observed overlay timings
func DefaultOptions() Options {
	return Options{
		ShowDelay:    DefaultShowDelay,
		DismissAfter: DefaultDismissAfter,
		FadeOut:      DefaultFadeOut,
		Policy:       RetriggerAlways,
	}
}

// Overlay is the renderable attribution overlay state
type Overlay struct {
	State   State               `json:"state"`
	Visible bool                `json:"visible"`
	ClipID  string              `json:"clip_id,omitempty"`
	Payload *models.Attribution `json:"payload,omitempty"`
}
