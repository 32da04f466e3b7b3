package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventXPAdded         EventType = "xp_added"
	EventOrderRecorded   EventType = "order_recorded"
	EventLevelUp         EventType = "level_up"
	EventQuizRecommended EventType = "quiz_recommended"
)

// Event represents an immutable domain event.
type Event struct {
	Type     EventType      `json:"type"`
	Time     time.Time      `json:"time"`
	UserID   UserID         `json:"user_id"`
	Delta    int64          `json:"delta,omitempty"`
	Total    int64          `json:"total,omitempty"`
	Orders   int64          `json:"orders,omitempty"`
	Level    int64          `json:"level,omitempty"`
	TeaType  string         `json:"tea_type,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewXPAdded(user UserID, delta int64, total int64) Event {
	return Event{Type: EventXPAdded, Time: time.Now().UTC(), UserID: user, Delta: delta, Total: total}
}

func NewOrderRecorded(user UserID, orders int64) Event {
	return Event{Type: EventOrderRecorded, Time: time.Now().UTC(), UserID: user, Orders: orders}
}

func NewLevelUp(user UserID, level int64) Event {
	return Event{Type: EventLevelUp, Time: time.Now().UTC(), UserID: user, Level: level}
}

func NewQuizRecommended(user UserID, teaType string) Event {
	return Event{Type: EventQuizRecommended, Time: time.Now().UTC(), UserID: user, TeaType: teaType}
}
