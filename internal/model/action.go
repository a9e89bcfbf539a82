package model

import (
	"fmt"
	"strings"
)

// Action is what the decision engine recommends doing with an analyzed input.
//
// Design decision: We use iota-based constants ordered by urgency so that
// actions can be compared directly (ActionAlert > ActionLog > ActionIgnore).
// The text form is used on the wire and in storage.
type Action int

const (
	// ActionIgnore means the input carries no meaningful risk.
	ActionIgnore Action = iota

	// ActionLog means the input is worth recording for later review
	// but does not justify paging anyone.
	ActionLog

	// ActionAlert means the input is risky enough to notify a human.
	// Only alert decisions are handed to the notification channels.
	ActionAlert
)

// String returns the lower-case wire name of the action.
func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "ignore"
	case ActionLog:
		return "log"
	case ActionAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// ParseAction converts a wire name into an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore":
		return ActionIgnore, nil
	case "log":
		return ActionLog, nil
	case "alert":
		return ActionAlert, nil
	default:
		return ActionIgnore, fmt.Errorf("unknown action %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if a < ActionIgnore || a > ActionAlert {
		return nil, fmt.Errorf("invalid action %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
