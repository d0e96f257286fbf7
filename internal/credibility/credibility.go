// Package credibility maps data sources to trust tiers and confidence scores.
package credibility

import (
	"go.uber.org/zap"

	"github.com/mountisa-community/directory-cli/internal/model"
)

// rating is a source's assigned confidence and tier.
type rating struct {
	score float64
	tier  model.CredibilityTier
}

// Government and recognized peak-body sources rank very_high, established
// community directories high, informal mentions medium.
var sourceRatings = map[string]rating{
	// Government
	"qld_gov_services":   {0.95, model.TierVeryHigh},
	"qld_health":         {0.95, model.TierVeryHigh},
	"mount_isa_council":  {0.90, model.TierVeryHigh},
	"services_australia": {0.95, model.TierVeryHigh},

	// Health and indigenous peak bodies
	"healthinfonet":  {0.95, model.TierVeryHigh},
	"nhsd":           {0.95, model.TierVeryHigh},
	"ndis_providers": {0.95, model.TierVeryHigh},
	"oneplace":       {0.95, model.TierVeryHigh},

	// Established community directories
	"ask_izzy":               {0.90, model.TierHigh},
	"my_community_directory": {0.90, model.TierHigh},
	"infoxchange":            {0.85, model.TierHigh},
	"yellow_pages":           {0.85, model.TierHigh},

	// Informal / community-group mentions
	"facebook_groups":       {0.75, model.TierMedium},
	"community_noticeboard": {0.75, model.TierMedium},
	"curated_seed":          {0.80, model.TierMedium},
}

// defaultRating applies to sources the table does not know.
var defaultRating = rating{0.75, model.TierMedium}

// Score returns the confidence score and credibility tier for a source
// identifier. Unknown sources default to medium trust.
func Score(sourceID string) (float64, model.CredibilityTier) {
	if r, ok := sourceRatings[sourceID]; ok {
		return r.score, r.tier
	}
	zap.L().Debug("credibility: unknown source, defaulting to medium",
		zap.String("source", sourceID),
	)
	return defaultRating.score, defaultRating.tier
}

// Annotate stamps the candidate with its source's rating. Extraction
// certainty already present on the candidate is kept when it is stricter
// than the source's ceiling.
func Annotate(c model.Candidate) model.Candidate {
	score, tier := Score(c.SourceName)
	if c.Confidence == 0 || c.Confidence > score {
		c.Confidence = score
	}
	c.Tier = tier
	return c
}
