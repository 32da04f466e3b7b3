package engine

import (
	"context"
	"loyaltykit/core"
)

// Storage abstracts persistence for customer loyalty state.
type Storage interface {
	AddXP(ctx context.Context, user core.UserID, delta int64) (newTotal int64, err error)
	RecordOrder(ctx context.Context, user core.UserID) (orders int64, err error)
	GetState(ctx context.Context, user core.UserID) (core.UserState, error)
	SetLevel(ctx context.Context, user core.UserID, level int64) error
}

// RuleEngine evaluates rules against a state snapshot and emits derived events.
type RuleEngine interface {
	Evaluate(ctx context.Context, state core.UserState, trigger core.Event, cfg core.LoyaltyConfig) []core.Event
}
