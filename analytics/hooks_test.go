package analytics

import (
	"testing"
	"time"

	"loyaltykit/core"
)

func eventAt(e core.Event, t time.Time) core.Event {
	e.Time = t
	return e
}

func TestDAU_CountsUniqueUsersPerDay(t *testing.T) {
	dau := NewDAU()
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	dau.OnEvent(eventAt(core.NewXPAdded("alice", 10, 10), day))
	dau.OnEvent(eventAt(core.NewXPAdded("alice", 5, 15), day))
	dau.OnEvent(eventAt(core.NewOrderRecorded("bob", 1), day))
	dau.OnEvent(eventAt(core.NewXPAdded("carol", 1, 1), day.Add(24*time.Hour)))

	if got := dau.Count("2026-03-01"); got != 2 {
		t.Fatalf("expected 2 active users, got %d", got)
	}
	if got := dau.Count("2026-03-02"); got != 1 {
		t.Fatalf("expected 1 active user next day, got %d", got)
	}
}

func TestLoyaltyMetrics_Aggregates(t *testing.T) {
	m := NewLoyaltyMetrics()
	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m.OnEvent(eventAt(core.NewXPAdded("alice", 1500, 1500), day))
	m.OnEvent(eventAt(core.NewOrderRecorded("alice", 1), day))
	m.OnEvent(eventAt(core.NewXPAdded("bob", 3000, 3000), day))
	m.OnEvent(eventAt(core.NewOrderRecorded("bob", 1), day))
	m.OnEvent(eventAt(core.NewLevelUp("bob", 2), day))
	m.OnEvent(eventAt(core.NewQuizRecommended("bob", "Шу Пуэр"), day))
	m.OnEvent(eventAt(core.NewQuizRecommended("carol", "Шу Пуэр"), day))

	if got := m.OrdersByDay("2026-03-01"); got != 2 {
		t.Fatalf("expected 2 orders, got %d", got)
	}
	if got := m.XPAwardedByDay("2026-03-01"); got != 4500 {
		t.Fatalf("expected 4500 xp, got %d", got)
	}
	if got := m.LevelUpsByDay("2026-03-01"); got != 1 {
		t.Fatalf("expected 1 level up, got %d", got)
	}
	if got := m.LevelReachedCount(2); got != 1 {
		t.Fatalf("expected level 2 reached once, got %d", got)
	}
	if got := m.RecommendationCount("Шу Пуэр"); got != 2 {
		t.Fatalf("expected 2 recommendations, got %d", got)
	}
}

func TestLoyaltyMetrics_IgnoresNegativeXP(t *testing.T) {
	m := NewLoyaltyMetrics()
	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ev := core.NewXPAdded("alice", -5, 0)
	m.OnEvent(eventAt(ev, day))

	if got := m.XPAwardedByDay("2026-03-01"); got != 0 {
		t.Fatalf("expected 0 xp, got %d", got)
	}
}

func TestLoyaltyMetrics_Snapshot(t *testing.T) {
	m := NewLoyaltyMetrics()
	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m.OnEvent(eventAt(core.NewOrderRecorded("alice", 1), day))
	m.OnEvent(eventAt(core.NewXPAdded("alice", 100, 100), day))

	snap := m.SnapshotFor("2026-03-01")
	if snap.Orders != 1 || snap.XPAwarded != 100 || snap.LevelUps != 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
