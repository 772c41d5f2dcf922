package constants

// AccountTier determines monthly import allotments per quota category.
type AccountTier string

const (
	TierFree    AccountTier = "FREE"
	TierPremium AccountTier = "PREMIUM"
)

// MonthlyAllotment returns the total imports per calendar month for a tier.
// Non-premium accounts have no import allowance.
func MonthlyAllotment(tier AccountTier, category QuotaCategory) int {
	if tier != TierPremium {
		return 0
	}
	switch category {
	case CategoryImages:
		return 30
	case CategoryDocuments:
		return 10
	default:
		return 0
	}
}
