package model

import "fmt"

// AchievementState is the unlock lifecycle position of an achievement in a session
type AchievementState int

const (
	StateLocked AchievementState = iota
	StatePrimed
	StateTriggered
	StateConfirmedUnlocked
)

var stateNames = map[AchievementState]string{
	StateLocked:            "locked",
	StatePrimed:            "primed",
	StateTriggered:         "triggered",
	StateConfirmedUnlocked: "confirmed_unlocked",
}

func (s AchievementState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s AchievementState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *AchievementState) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown achievement state %q", text)
}

// CanTransitionTo reports whether next is a legal successor of s.
// Primed may fall back to Locked when the emulator un-primes it; every
// other move is strictly forward and ConfirmedUnlocked is only reachable
// from Triggered.
func (s AchievementState) CanTransitionTo(next AchievementState) bool {
	switch s {
	case StateLocked:
		return next == StatePrimed || next == StateTriggered
	case StatePrimed:
		return next == StateLocked || next == StateTriggered
	case StateTriggered:
		return next == StateConfirmedUnlocked
	default:
		return false
	}
}

// IsUnlocked reports whether the achievement has fired, confirmed or not
func (s AchievementState) IsUnlocked() bool {
	return s == StateTriggered || s == StateConfirmedUnlocked
}

// Progress is the (current, target) measurement of a locked achievement
type Progress struct {
	Current int    `json:"current"`
	Target  int    `json:"target"`
	Display string `json:"display,omitempty"`
}

// IsZero reports whether no progress has been reported
func (p Progress) IsZero() bool {
	return p.Current == 0 && p.Target == 0
}

// AchievementRuntimeState is the per-session mutable state of one achievement
type AchievementRuntimeState struct {
	Achievement Achievement      `json:"achievement"`
	State       AchievementState `json:"state"`
	Progress    Progress         `json:"progress"`
}
