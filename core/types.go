package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// UserID uniquely identifies a customer account.
type UserID string

// UserState is an immutable snapshot of a customer's loyalty state.
// XP and the order count are written by the order-processing collaborator;
// the engines in this package only read them.
type UserState struct {
	UserID  UserID    `json:"user_id"`
	XP      int64     `json:"xp"`
	Orders  int64     `json:"orders"`
	Level   int64     `json:"level"`
	Updated time.Time `json:"updated"`
}

// Clone returns a copy of the state to uphold immutability.
func (s UserState) Clone() UserState {
	return UserState{
		UserID:  s.UserID,
		XP:      s.XP,
		Orders:  s.Orders,
		Level:   s.Level,
		Updated: s.Updated,
	}
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}
