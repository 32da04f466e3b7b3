package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput signals a caller contract violation such as negative XP
// or a negative purchase amount. Callers must reject these at the boundary;
// the engine never clamps silently.
var ErrInvalidInput = errors.New("invalid input")

// TierCount is the fixed number of loyalty tiers.
const TierCount = 4

// levelNames are the fixed display labels for the four tiers.
var levelNames = [TierCount]string{"Новичок", "Ценитель", "Чайный мастер", "Чайный Гуру"}

// LoyaltyTier describes one configured tier: the XP threshold at which it
// is reached, the discount it grants, and admin-authored perk text.
type LoyaltyTier struct {
	MinXP           int64    `json:"min_xp"`
	DiscountPercent int      `json:"discount_percent"`
	Perks           []string `json:"perks"`
}

// LoyaltyConfig is the immutable per-evaluation configuration of the
// loyalty engine. Tiers[0].MinXP is 0 by convention so every non-negative
// XP value resolves to at least level 1.
type LoyaltyConfig struct {
	XPMultiplier int                    `json:"xp_multiplier"`
	Tiers        [TierCount]LoyaltyTier `json:"tiers"`
}

// LevelInfo is one resolved row of the level table, for presentation.
// MaxXP is nil for the top tier (unbounded).
type LevelInfo struct {
	Level           int      `json:"level"`
	Name            string   `json:"name"`
	MinXP           int64    `json:"min_xp"`
	MaxXP           *int64   `json:"max_xp"`
	DiscountPercent int      `json:"discount_percent"`
	Perks           []string `json:"perks"`
}

// LoyaltyStatus is the derived view of a customer's loyalty standing.
// It is recomputed on every query and never persisted.
type LoyaltyStatus struct {
	CurrentLevel    int         `json:"current_level"`
	CurrentXP       int64       `json:"current_xp"`
	DiscountPercent int         `json:"discount_percent"`
	XPToNextLevel   *int64      `json:"xp_to_next_level"`
	Levels          []LevelInfo `json:"levels"`
}

// ResolveLevel computes the loyalty standing for the given XP total.
// The current level is the highest tier whose MinXP is satisfied, so the
// boundary value exactly at a threshold counts as reached. Disordered
// thresholds are tolerated deterministically rather than rejected; the
// settings editor validates ordering at write time.
func ResolveLevel(xp int64, cfg LoyaltyConfig) (LoyaltyStatus, error) {
	if xp < 0 {
		return LoyaltyStatus{}, fmt.Errorf("%w: negative xp %d", ErrInvalidInput, xp)
	}

	level := 1
	for i := TierCount - 1; i >= 0; i-- {
		if cfg.Tiers[i].MinXP <= xp {
			level = i + 1
			break
		}
	}

	st := LoyaltyStatus{
		CurrentLevel:    level,
		CurrentXP:       xp,
		DiscountPercent: cfg.Tiers[level-1].DiscountPercent,
		Levels:          LevelTable(cfg),
	}
	if level < TierCount {
		toNext := cfg.Tiers[level].MinXP - xp
		st.XPToNextLevel = &toNext
	}
	return st, nil
}

// LevelTable resolves the four tiers into presentable rows. Tiers with a
// discount get a synthesized "Скидка N%" line ahead of the configured
// perk text.
func LevelTable(cfg LoyaltyConfig) []LevelInfo {
	table := make([]LevelInfo, 0, TierCount)
	for i := 0; i < TierCount; i++ {
		tier := cfg.Tiers[i]
		info := LevelInfo{
			Level:           i + 1,
			Name:            levelNames[i],
			MinXP:           tier.MinXP,
			DiscountPercent: tier.DiscountPercent,
		}
		if i+1 < TierCount {
			maxXP := cfg.Tiers[i+1].MinXP - 1
			info.MaxXP = &maxXP
		}
		if tier.DiscountPercent > 0 {
			info.Perks = append(info.Perks, fmt.Sprintf("Скидка %d%%", tier.DiscountPercent))
		}
		info.Perks = append(info.Perks, tier.Perks...)
		table = append(table, info)
	}
	return table
}

// XPEarnedForPurchase returns floor(amount * multiplier). The order
// collaborator adds the result to the stored XP total itself; this
// function performs no persistence.
func XPEarnedForPurchase(amount float64, cfg LoyaltyConfig) (int64, error) {
	if amount < 0 || math.IsNaN(amount) {
		return 0, fmt.Errorf("%w: negative spend amount", ErrInvalidInput)
	}
	return int64(math.Floor(amount * float64(cfg.XPMultiplier))), nil
}
