package analytics

import (
	"sync"
	"time"

	"loyaltykit/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// DAU tracks daily active customers.
type DAU struct {
	mu   sync.Mutex
	days map[string]map[core.UserID]struct{}
}

func NewDAU() *DAU { return &DAU{days: map[string]map[core.UserID]struct{}{}} }

func (d *DAU) OnEvent(e core.Event) {
	day := e.Time.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.UserID]struct{}{}
		d.days[day] = m
	}
	m[e.UserID] = struct{}{}
}

func (d *DAU) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// LoyaltyMetrics aggregates purchase, XP, and recommendation activity
// for the shop's daily reporting.
type LoyaltyMetrics struct {
	mu sync.RWMutex

	ordersByDay    map[string]int64
	xpAwardedByDay map[string]int64
	levelUpsByDay  map[string]int64

	// level -> customers who reached it
	levelDistribution map[int64]int

	// tea type -> times recommended
	recommendations map[string]int64
}

func NewLoyaltyMetrics() *LoyaltyMetrics {
	return &LoyaltyMetrics{
		ordersByDay:       make(map[string]int64),
		xpAwardedByDay:    make(map[string]int64),
		levelUpsByDay:     make(map[string]int64),
		levelDistribution: make(map[int64]int),
		recommendations:   make(map[string]int64),
	}
}

func (m *LoyaltyMetrics) OnEvent(e core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := e.Time.UTC().Format("2006-01-02")

	switch e.Type {
	case core.EventXPAdded:
		if e.Delta > 0 {
			m.xpAwardedByDay[day] += e.Delta
		}
	case core.EventOrderRecorded:
		m.ordersByDay[day]++
	case core.EventLevelUp:
		m.levelUpsByDay[day]++
		m.levelDistribution[e.Level]++
	case core.EventQuizRecommended:
		if e.TeaType != "" {
			m.recommendations[e.TeaType]++
		}
	}
}

// OrdersByDay returns the number of completed orders on a day (YYYY-MM-DD).
func (m *LoyaltyMetrics) OrdersByDay(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ordersByDay[day]
}

// XPAwardedByDay returns the total XP credited on a day.
func (m *LoyaltyMetrics) XPAwardedByDay(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.xpAwardedByDay[day]
}

// LevelUpsByDay returns the number of level ups on a day.
func (m *LoyaltyMetrics) LevelUpsByDay(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.levelUpsByDay[day]
}

// LevelReachedCount returns how many times the given level was reached.
func (m *LoyaltyMetrics) LevelReachedCount(level int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.levelDistribution[level]
}

// RecommendationCount returns how often a tea type was recommended.
func (m *LoyaltyMetrics) RecommendationCount(teaType string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recommendations[teaType]
}

// Snapshot returns a point-in-time copy of the per-day aggregates for export.
type Snapshot struct {
	Day       string    `json:"day"`
	Orders    int64     `json:"orders"`
	XPAwarded int64     `json:"xp_awarded"`
	LevelUps  int64     `json:"level_ups"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *LoyaltyMetrics) SnapshotFor(day string) Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Day:       day,
		Orders:    m.ordersByDay[day],
		XPAwarded: m.xpAwardedByDay[day],
		LevelUps:  m.levelUpsByDay[day],
		CreatedAt: time.Now().UTC(),
	}
}
