package scoring

import (
	"math"
	"testing"
)

func TestScoreKnownValues(t *testing.T) {
	tests := []struct {
		name          string
		mentions      int
		uniqueSources int
		starDelta     int64
		tierC         int
		want          float64
		wantPenalty   bool
	}{
		{"two mentions two sources star spike", 2, 2, 100, 0, 16.0, false},
		{"tier c penalty halves low trust volume", 4, 1, 0, 2, 8.0, true},
		{"all zero", 0, 0, 0, 0, 0.0, false},
		{"single mention single source", 1, 1, 0, 0, 6.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.mentions, tt.uniqueSources, tt.starDelta, tt.tierC, DefaultRules())
			if got.Score != tt.want {
				t.Fatalf("score=%v want=%v", got.Score, tt.want)
			}
			if got.Components.TierCPenaltyApplied != tt.wantPenalty {
				t.Fatalf("tierCPenaltyApplied=%v want=%v", got.Components.TierCPenaltyApplied, tt.wantPenalty)
			}
		})
	}
}

func TestScoreNoTierCKeepsFullMentionWeight(t *testing.T) {
	rules := DefaultRules()
	for mentions := 0; mentions <= 50; mentions += 7 {
		got := Score(mentions, 3, 10, 0, rules)
		if got.Components.WeightedMentions != float64(mentions) {
			t.Fatalf("mentions=%d weighted=%v want exact mention count with no tier-C",
				mentions, got.Components.WeightedMentions)
		}
	}
}

func TestScoreClampsNegativeInputs(t *testing.T) {
	got := Score(-3, -1, -100, -2, DefaultRules())
	if got.Score != 0 {
		t.Fatalf("score=%v want=0 for all-negative inputs", got.Score)
	}
}

func TestScoreStarDeltaIsLogDampened(t *testing.T) {
	rules := DefaultRules()
	small := Score(0, 0, 9, 0, rules)
	big := Score(0, 0, 99999, 0, rules)

	wantSmall := rules.StarDeltaWeight * math.Log10(10)
	if math.Abs(small.Raw-wantSmall) > 1e-9 {
		t.Fatalf("raw=%v want=%v", small.Raw, wantSmall)
	}
	// Four orders of magnitude more stars only multiplies the term by five.
	if big.Raw > small.Raw*5 {
		t.Fatalf("big=%v small=%v: star spike dominates despite dampener", big.Raw, small.Raw)
	}
}

func TestScoreRoundsToOneDecimal(t *testing.T) {
	got := Score(1, 0, 1, 0, DefaultRules())
	// 1 + 2*log10(2) = 1.60205...
	if got.Score != 1.6 {
		t.Fatalf("score=%v want=1.6", got.Score)
	}
}
