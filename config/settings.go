package config

import (
	"errors"
	"fmt"
	"strings"

	"loyaltykit/core"
)

// Documented defaults of the loyalty program, applied when the settings
// store omits a field.
const (
	DefaultXPMultiplier   = 1
	DefaultLevel2MinXP    = 3000
	DefaultLevel2Discount = 5
	DefaultLevel3MinXP    = 7000
	DefaultLevel3Discount = 10
	DefaultLevel4MinXP    = 15000
	DefaultLevel4Discount = 15
)

// SiteSettings mirrors the flat record served by the admin settings store.
// Pointer fields distinguish an absent value from an explicit zero so the
// documented defaults can be applied in a single resolve step instead of
// fallback checks scattered through the engines.
type SiteSettings struct {
	FirstOrderDiscount *int `json:"firstOrderDiscount,omitempty" yaml:"firstOrderDiscount"`
	XPMultiplier       *int `json:"xpMultiplier,omitempty" yaml:"xpMultiplier"`

	LoyaltyLevel2MinXP *int64 `json:"loyaltyLevel2MinXP,omitempty" yaml:"loyaltyLevel2MinXP"`
	LoyaltyLevel3MinXP *int64 `json:"loyaltyLevel3MinXP,omitempty" yaml:"loyaltyLevel3MinXP"`
	LoyaltyLevel4MinXP *int64 `json:"loyaltyLevel4MinXP,omitempty" yaml:"loyaltyLevel4MinXP"`

	LoyaltyLevel2Discount *int `json:"loyaltyLevel2Discount,omitempty" yaml:"loyaltyLevel2Discount"`
	LoyaltyLevel3Discount *int `json:"loyaltyLevel3Discount,omitempty" yaml:"loyaltyLevel3Discount"`
	LoyaltyLevel4Discount *int `json:"loyaltyLevel4Discount,omitempty" yaml:"loyaltyLevel4Discount"`

	LoyaltyLevel1Perks []string `json:"loyaltyLevel1Perks,omitempty" yaml:"loyaltyLevel1Perks"`
	LoyaltyLevel2Perks []string `json:"loyaltyLevel2Perks,omitempty" yaml:"loyaltyLevel2Perks"`
	LoyaltyLevel3Perks []string `json:"loyaltyLevel3Perks,omitempty" yaml:"loyaltyLevel3Perks"`
	LoyaltyLevel4Perks []string `json:"loyaltyLevel4Perks,omitempty" yaml:"loyaltyLevel4Perks"`
}

// ResolveLoyalty applies the documented defaults and produces the
// immutable configuration consumed by the loyalty engine. Level 1 is
// pinned at 0 XP and 0% discount by convention.
func (s SiteSettings) ResolveLoyalty() core.LoyaltyConfig {
	return core.LoyaltyConfig{
		XPMultiplier: intOr(s.XPMultiplier, DefaultXPMultiplier),
		Tiers: [core.TierCount]core.LoyaltyTier{
			{MinXP: 0, DiscountPercent: 0, Perks: copyPerks(s.LoyaltyLevel1Perks)},
			{
				MinXP:           int64Or(s.LoyaltyLevel2MinXP, DefaultLevel2MinXP),
				DiscountPercent: intOr(s.LoyaltyLevel2Discount, DefaultLevel2Discount),
				Perks:           copyPerks(s.LoyaltyLevel2Perks),
			},
			{
				MinXP:           int64Or(s.LoyaltyLevel3MinXP, DefaultLevel3MinXP),
				DiscountPercent: intOr(s.LoyaltyLevel3Discount, DefaultLevel3Discount),
				Perks:           copyPerks(s.LoyaltyLevel3Perks),
			},
			{
				MinXP:           int64Or(s.LoyaltyLevel4MinXP, DefaultLevel4MinXP),
				DiscountPercent: intOr(s.LoyaltyLevel4Discount, DefaultLevel4Discount),
				Perks:           copyPerks(s.LoyaltyLevel4Perks),
			},
		},
	}
}

// Validate rejects settings the admin editor must not persist: thresholds
// that are not strictly increasing, discounts outside [0,100], and a
// non-positive XP multiplier. The engine itself tolerates disordered
// thresholds at read time; this is the write-time gate.
func (s SiteSettings) Validate() error {
	var errs []string

	resolved := s.ResolveLoyalty()
	prev := int64(-1)
	for i, tier := range resolved.Tiers {
		if tier.MinXP <= prev {
			errs = append(errs, fmt.Sprintf("loyalty level %d threshold %d is not above level %d", i+1, tier.MinXP, i))
		}
		prev = tier.MinXP
		if tier.DiscountPercent < 0 || tier.DiscountPercent > 100 {
			errs = append(errs, fmt.Sprintf("loyalty level %d discount %d%% is outside [0,100]", i+1, tier.DiscountPercent))
		}
	}
	if resolved.XPMultiplier < 1 {
		errs = append(errs, "xpMultiplier must be at least 1")
	}
	if s.FirstOrderDiscount != nil && (*s.FirstOrderDiscount < 0 || *s.FirstOrderDiscount > 100) {
		errs = append(errs, fmt.Sprintf("firstOrderDiscount %d%% is outside [0,100]", *s.FirstOrderDiscount))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// FirstOrderDiscountPercent returns the configured first-order discount,
// defaulting to zero when absent.
func (s SiteSettings) FirstOrderDiscountPercent() int {
	return intOr(s.FirstOrderDiscount, 0)
}

func intOr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func int64Or(v *int64, def int64) int64 {
	if v != nil {
		return *v
	}
	return def
}

func copyPerks(perks []string) []string {
	if len(perks) == 0 {
		return nil
	}
	out := make([]string, len(perks))
	copy(out, perks)
	return out
}
