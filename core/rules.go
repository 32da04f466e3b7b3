package core

import "context"

// Rule determines whether given state and trigger event should emit
// derived events under the supplied loyalty configuration.
type Rule interface {
	Evaluate(ctx context.Context, state UserState, trigger Event, cfg LoyaltyConfig) []Event
}

// LevelUpRule emits a level up when the resolved level outruns the
// stored one.
type LevelUpRule struct{}

func (r LevelUpRule) Evaluate(_ context.Context, state UserState, trigger Event, cfg LoyaltyConfig) []Event {
	if trigger.Type != EventXPAdded {
		return nil
	}
	status, err := ResolveLevel(state.XP, cfg)
	if err != nil {
		return nil
	}
	if int64(status.CurrentLevel) > state.Level {
		return []Event{NewLevelUp(state.UserID, int64(status.CurrentLevel))}
	}
	return nil
}
