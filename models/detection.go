package models

// Confidence buckets a detection's numeric score for consumers that don't
// want to reason about raw numbers.
type Confidence string

const (
	ConfidenceNone    Confidence = "none"
	ConfidenceLow     Confidence = "low"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceHigh    Confidence = "high"
	ConfidenceLearned Confidence = "learned"
)

// ScoreMap maps every known field type to a score in [0,100] for one
// control in one scan. Ephemeral.
type ScoreMap map[FieldType]int

// Best returns the highest-scoring type and its score. Ties break in
// AllFieldTypes order so results are deterministic.
func (m ScoreMap) Best() (FieldType, int) {
	var best FieldType
	bestScore := -1
	for _, ft := range AllFieldTypes() {
		if s, ok := m[ft]; ok && s > bestScore {
			best = ft
			bestScore = s
		}
	}
	if bestScore < 0 {
		return "", 0
	}
	return best, bestScore
}

// Detection is the detector's final output for one form control.
type Detection struct {
	Type       FieldType  `json:"type"`
	Score      int        `json:"score"`
	Confidence Confidence `json:"confidence"`
	// Learned is true when a stored user correction overrode the scorer.
	Learned bool `json:"learned,omitempty"`
}
