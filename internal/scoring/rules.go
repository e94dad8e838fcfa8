package scoring

import (
	"encoding/json"
	"math"
	"os"
)

// Rules are the externally configurable score weights. Each field must be a
// non-negative finite number; invalid fields fall back to their own default
// while the rest of the file is honored.
type Rules struct {
	MentionWeight      float64 `json:"mention"`
	UniqueSourceWeight float64 `json:"uniqueSource"`
	StarDeltaWeight    float64 `json:"starDelta"`
	TierCPenalty       float64 `json:"tierCPenalty"`
}

func DefaultRules() Rules {
	return Rules{
		MentionWeight:      1.0,
		UniqueSourceWeight: 5.0,
		StarDeltaWeight:    2.0,
		TierCPenalty:       0.5,
	}
}

// Provenance reports where the active rules came from, for observability.
// Source is "file" when the rules file was readable, "default" otherwise;
// Err keeps the load error in the latter case.
type Provenance struct {
	Source string
	Path   string
	Err    error
}

// LoadRules reads rules from a JSON file. An unreadable or unparsable file
// yields the full default set; individually invalid fields are replaced
// per-field. Never returns an error: malformed configuration must not be
// fatal.
func LoadRules(path string) (Rules, Provenance) {
	defaults := DefaultRules()

	raw, err := os.ReadFile(path)
	if err != nil {
		return defaults, Provenance{Source: "default", Path: path, Err: err}
	}

	var parsed struct {
		MentionWeight      *float64 `json:"mention"`
		UniqueSourceWeight *float64 `json:"uniqueSource"`
		StarDeltaWeight    *float64 `json:"starDelta"`
		TierCPenalty       *float64 `json:"tierCPenalty"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return defaults, Provenance{Source: "default", Path: path, Err: err}
	}

	rules := Rules{
		MentionWeight:      normalizeWeight(parsed.MentionWeight, defaults.MentionWeight),
		UniqueSourceWeight: normalizeWeight(parsed.UniqueSourceWeight, defaults.UniqueSourceWeight),
		StarDeltaWeight:    normalizeWeight(parsed.StarDeltaWeight, defaults.StarDeltaWeight),
		TierCPenalty:       normalizeWeight(parsed.TierCPenalty, defaults.TierCPenalty),
	}
	return rules, Provenance{Source: "file", Path: path}
}

func normalizeWeight(v *float64, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return fallback
	}
	return *v
}
