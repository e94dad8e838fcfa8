package scoring

import "math"

// Components is the per-term breakdown behind a score, persisted alongside
// each snapshot so rankings can be explained after the fact.
type Components struct {
	WeightedMentions    float64 `json:"weightedMentions"`
	MentionScore        float64 `json:"mentionScore"`
	UniqueSourceScore   float64 `json:"uniqueSourceScore"`
	StarDeltaScore      float64 `json:"starDeltaScore"`
	TierCPenaltyApplied bool    `json:"tierCPenaltyApplied"`
}

type Result struct {
	Raw        float64
	Score      float64
	Components Components
}

// Score computes the trend score for one repository window.
//
// Tier-C mentions count toward volume at a fractional weight so low-trust
// sources cannot game rankings by volume alone. The star delta goes through a
// log10 dampener so one viral spike does not dominate forever, and unique
// sources are weighted heavily to reward cross-source corroboration over
// repeated mentions from a single venue.
func Score(mentionCount, uniqueSourceCount int, starDelta int64, tierCMentionCount int, rules Rules) Result {
	mentions := clampNonNegative(float64(mentionCount))
	uniqueSources := clampNonNegative(float64(uniqueSourceCount))
	delta := clampNonNegative(float64(starDelta))
	tierC := clampNonNegative(float64(tierCMentionCount))

	weightedMentions := (mentions - tierC) + tierC*rules.TierCPenalty
	mentionScore := rules.MentionWeight * weightedMentions
	uniqueSourceScore := rules.UniqueSourceWeight * uniqueSources
	starDeltaScore := rules.StarDeltaWeight * math.Log10(delta+1)

	raw := mentionScore + uniqueSourceScore + starDeltaScore

	return Result{
		Raw:   raw,
		Score: round1(raw),
		Components: Components{
			WeightedMentions:    weightedMentions,
			MentionScore:        mentionScore,
			UniqueSourceScore:   uniqueSourceScore,
			StarDeltaScore:      starDeltaScore,
			TierCPenaltyApplied: tierC > 0,
		},
	}
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
