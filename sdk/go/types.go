package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// PurchaseResult mirrors the public JSON surface of engine.PurchaseResult.
type PurchaseResult struct {
	XPEarned  int64 `json:"xp_earned"`
	TotalXP   int64 `json:"total_xp"`
	Orders    int64 `json:"orders"`
	Level     int64 `json:"level"`
	LeveledUp bool  `json:"leveled_up"`
}

// LevelInfo is one row of the published level table.
type LevelInfo struct {
	Level           int      `json:"level"`
	Name            string   `json:"name"`
	MinXP           int64    `json:"min_xp"`
	MaxXP           *int64   `json:"max_xp"`
	DiscountPercent int      `json:"discount_percent"`
	Perks           []string `json:"perks"`
}

// LoyaltyStatus describes a customer's current standing.
type LoyaltyStatus struct {
	CurrentLevel    int         `json:"current_level"`
	CurrentXP       int64       `json:"current_xp"`
	DiscountPercent int         `json:"discount_percent"`
	XPToNextLevel   *int64      `json:"xp_to_next_level"`
	Levels          []LevelInfo `json:"levels"`
}

// Recommendation is the quiz recommendation response.
type Recommendation struct {
	TeaType string `json:"teaType"`
	Matched bool   `json:"matched"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyUserID is returned when user id is empty.
var ErrEmptyUserID = errors.New("user id is required")
