package model

// CredibilityTier is a coarse trust ranking for a data source. Government and
// peak-body sources rank above community directories, which rank above
// informal mentions.
type CredibilityTier string

// Tiers, least to most trusted.
const (
	TierLow      CredibilityTier = "low"
	TierMedium   CredibilityTier = "medium"
	TierHigh     CredibilityTier = "high"
	TierVeryHigh CredibilityTier = "very_high"
)

var tierRank = map[CredibilityTier]int{
	TierLow:      1,
	TierMedium:   2,
	TierHigh:     3,
	TierVeryHigh: 4,
}

// Rank returns the tier's position in the trust ordering. Unknown tiers rank
// below TierLow so malformed provenance never outranks real data.
func (t CredibilityTier) Rank() int {
	return tierRank[t]
}

// Above reports whether t is strictly more trusted than other.
func (t CredibilityTier) Above(other CredibilityTier) bool {
	return t.Rank() > other.Rank()
}
