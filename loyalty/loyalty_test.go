package loyalty

import (
	"context"
	"testing"

	mem "loyaltykit/adapters/memory"
	"loyaltykit/core"
	"loyaltykit/engine"
	"loyaltykit/realtime"
)

func testConfig() core.LoyaltyConfig {
	return core.LoyaltyConfig{
		XPMultiplier: 1,
		Tiers: [core.TierCount]core.LoyaltyTier{
			{MinXP: 0},
			{MinXP: 3000, DiscountPercent: 5},
			{MinXP: 7000, DiscountPercent: 10},
			{MinXP: 15000, DiscountPercent: 15},
		},
	}
}

func TestNewDefaultsAndOptions(t *testing.T) {
	hub := realtime.NewHub()
	svc := New(
		WithRealtime(hub),
		WithStorage(mem.New()),
		WithDispatchMode(engine.DispatchSync),
	)

	// basic operation
	result, err := svc.RecordPurchase(context.Background(), "alice", 500, testConfig())
	if err != nil || result.XPEarned != 500 {
		t.Fatalf("record purchase result=%+v err=%v", result, err)
	}

	// realtime bridge should receive event
	_, ch := hub.Subscribe(1)
	svc.Publish(context.Background(), core.NewXPAdded("alice", 5, 10))
	ev := <-ch
	if ev.UserID != "alice" || ev.Type != core.EventXPAdded {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestInMemoryFallback(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	if _, err := svc.RecordPurchase(context.Background(), "bob", 3, testConfig()); err != nil {
		t.Fatalf("fallback record purchase: %v", err)
	}
	state, err := svc.GetState(context.Background(), "bob")
	if err != nil {
		t.Fatalf("fallback get state: %v", err)
	}
	if state.XP != 3 || state.Orders != 1 {
		t.Fatalf("expected xp=3 orders=1, got %+v", state)
	}
}

func TestFallbackLevelUpPersists(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	result, err := svc.RecordPurchase(context.Background(), "carol", 3500, testConfig())
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	if !result.LeveledUp || result.Level != 2 {
		t.Fatalf("expected level up to 2, got %+v", result)
	}
	state, _ := svc.GetState(context.Background(), "carol")
	if state.Level != 2 {
		t.Fatalf("expected stored level 2, got %d", state.Level)
	}
}
