package domain

import "strings"

type TierID string

const (
	TierID200  TierID = "tier_200"
	TierID400  TierID = "tier_400"
	TierID1000 TierID = "tier_1000"
)

// DefaultTierID is the plan a listing card links to when the user has not picked one.
const DefaultTierID = TierID400

// ParseTierID accepts the ids the remote API and listing links use. Unknown ids
// are rejected so that a garbled hint never reaches the Tier Selector.
func ParseTierID(s string) (TierID, bool) {
	switch id := TierID(strings.ToLower(strings.TrimSpace(s))); id {
	case TierID200, TierID400, TierID1000:
		return id, true
	default:
		return "", false
	}
}

// PricingTier is one distance-inclusive plan quoted for a rental window.
// Prices are in major currency units as returned by the remote API.
type PricingTier struct {
	ID              TierID  `json:"id"`
	Name            string  `json:"name"`
	IncludedKm      int     `json:"includedKm"`
	ExtraKmCharge   float64 `json:"extraKmCharge"`
	BasePrice       float64 `json:"basePrice"`
	FinalPrice      float64 `json:"finalPrice"` // basePrice + tax
	SecurityDeposit float64 `json:"securityDeposit"`
	Recommended     bool    `json:"recommended"`
}

// Quote is a tier list applied for one car and window, along with the tier the
// selector picked for it.
type Quote struct {
	CarID    string        `json:"carId"`
	Window   RentalWindow  `json:"window"`
	Tiers    []PricingTier `json:"pricingTiers"`
	Selected *PricingTier  `json:"selectedTier,omitempty"`
	Sequence uint64        `json:"sequence"`
}
