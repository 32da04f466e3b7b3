package engine

import (
	"context"
	"errors"

	"loyaltykit/core"
)

// PurchaseResult summarizes the loyalty effects of a completed order.
type PurchaseResult struct {
	XPEarned  int64 `json:"xp_earned"`
	TotalXP   int64 `json:"total_xp"`
	Orders    int64 `json:"orders"`
	Level     int64 `json:"level"`
	LeveledUp bool  `json:"leveled_up"`
}

// LoyaltyService wires storage, event bus, and rules into a cohesive API.
// Loyalty and quiz configuration is threaded into each call by the
// application layer; the service holds no settings state of its own.
type LoyaltyService struct {
	storage Storage
	bus     *EventBus
	rules   RuleEngine
}

func NewLoyaltyService(storage Storage, bus *EventBus, rules RuleEngine) *LoyaltyService {
	if storage == nil || bus == nil || rules == nil {
		panic("NewLoyaltyService requires non-nil storage, bus, and rules")
	}
	return &LoyaltyService{storage: storage, bus: bus, rules: rules}
}

func DefaultRuleEngine() RuleEngine {
	return &simpleRuleEngine{rules: []core.Rule{core.LevelUpRule{}}}
}

// Subscribe convenience method.
func (l *LoyaltyService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return l.bus.Subscribe(typ, handler)
}

func (l *LoyaltyService) Publish(ctx context.Context, ev core.Event) {
	l.bus.Publish(ctx, ev)
}

// RecordPurchase credits XP for a completed order total, bumps the order
// counter, and applies any level up derived from the configured tiers.
func (l *LoyaltyService) RecordPurchase(ctx context.Context, user core.UserID, amount float64, cfg core.LoyaltyConfig) (PurchaseResult, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return PurchaseResult{}, err
	}
	earned, err := core.XPEarnedForPurchase(amount, cfg)
	if err != nil {
		return PurchaseResult{}, err
	}

	total, err := l.storage.AddXP(ctx, normalized, earned)
	if err != nil {
		return PurchaseResult{}, err
	}
	orders, err := l.storage.RecordOrder(ctx, normalized)
	if err != nil {
		return PurchaseResult{}, err
	}

	ev := core.NewXPAdded(normalized, earned, total)
	l.bus.Publish(ctx, ev)
	l.bus.Publish(ctx, core.NewOrderRecorded(normalized, orders))

	result := PurchaseResult{XPEarned: earned, TotalXP: total, Orders: orders}
	state, err := l.storage.GetState(ctx, normalized)
	if err == nil {
		result.Level = state.Level
		derived := l.rules.Evaluate(ctx, state, ev, cfg)
		for _, d := range derived {
			if d.Type == core.EventLevelUp {
				_ = l.storage.SetLevel(ctx, d.UserID, d.Level)
				result.Level = d.Level
				result.LeveledUp = true
			}
			l.bus.Publish(ctx, d)
		}
	}
	return result, nil
}

// Status resolves the customer's current loyalty standing against the
// supplied configuration.
func (l *LoyaltyService) Status(ctx context.Context, user core.UserID, cfg core.LoyaltyConfig) (core.LoyaltyStatus, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.LoyaltyStatus{}, err
	}
	state, err := l.storage.GetState(ctx, normalized)
	if err != nil {
		return core.LoyaltyStatus{}, err
	}
	return core.ResolveLevel(state.XP, cfg)
}

// Recommend matches collected quiz answers against the configured rules.
// The bool result reports whether any rule matched; on false the caller
// falls back to its default recommendation.
func (l *LoyaltyService) Recommend(ctx context.Context, user core.UserID, answers core.QuizAnswers, quiz core.QuizConfig) (string, bool, error) {
	teaType, err := core.MatchRule(answers, quiz.Rules)
	if err != nil {
		if errors.Is(err, core.ErrNoMatch) {
			return "", false, nil
		}
		return "", false, err
	}
	if normalized, nerr := core.NormalizeUserID(user); nerr == nil {
		l.bus.Publish(ctx, core.NewQuizRecommended(normalized, teaType))
	}
	return teaType, true, nil
}

func (l *LoyaltyService) GetState(ctx context.Context, user core.UserID) (core.UserState, error) {
	return l.storage.GetState(ctx, user)
}

func (l *LoyaltyService) Close() { l.bus.Close() }

type simpleRuleEngine struct{ rules []core.Rule }

func (s *simpleRuleEngine) Evaluate(ctx context.Context, state core.UserState, trigger core.Event, cfg core.LoyaltyConfig) []core.Event {
	var out []core.Event
	for _, r := range s.rules {
		out = append(out, r.Evaluate(ctx, state, trigger, cfg)...)
	}
	return out
}
