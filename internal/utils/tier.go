package utils

import "doorcars-storefront/internal/domain"

// SelectTier picks the active plan from a freshly fetched tier list.
//
// Order of preference: the hinted tier when it is in the list, then the single
// recommended tier, then the second entry, then the first. It returns false
// only for an empty list.
func SelectTier(tiers []domain.PricingTier, hint *domain.TierID) (domain.PricingTier, bool) {
	if len(tiers) == 0 {
		return domain.PricingTier{}, false
	}

	if hint != nil {
		for _, t := range tiers {
			if t.ID == *hint {
				return t, true
			}
		}
	}

	recommended := -1
	for i, t := range tiers {
		if !t.Recommended {
			continue
		}
		if recommended >= 0 {
			// more than one flagged: the flag is not usable
			recommended = -1
			break
		}
		recommended = i
	}
	if recommended >= 0 {
		return tiers[recommended], true
	}

	if len(tiers) > 1 {
		return tiers[1], true
	}
	return tiers[0], true
}
