// Package scorer combines pattern-library matches against a control's
// signal bundle into a per-field-type score.
//
// Tiers are additive, not max-take-one: a field can accumulate signal from
// several tiers at once so no single heuristic dominates. Scoring is
// deterministic: an identical bundle always yields an identical map.
package scorer

import (
	"strings"

	"github.com/formsense/formsense/models"
	"github.com/formsense/formsense/pkg/patterns"
)

// Canonical scoring table (the "enhanced" variant).
const (
	TierExact   = 100 // exact pattern is a substring of the identifier attributes
	TierFuzzy   = 70  // fuzzy regex matches attributes+label+parent text
	TierValue   = 50  // value/structural regex matches placeholder or value
	TierContext = 40  // cap on context-bucket keyword bonus

	// CorrectionBoost is added (or subtracted) per stored user correction.
	CorrectionBoost = 30

	// Threshold is the minimum aggregate score for a non-learned detection.
	Threshold = 60
)

// Scorer scores signal bundles against an injected pattern library.
type Scorer struct {
	lib *patterns.Library
}

// New creates a scorer over the given library.
func New(lib *patterns.Library) *Scorer {
	return &Scorer{lib: lib}
}

// Score computes the score map for one control. Every known field type gets
// an entry; zero entries are omitted.
func (s *Scorer) Score(sig models.SignalBundle) models.ScoreMap {
	identifiers := sig.Attributes.Identifiers()
	fuzzyText := strings.ToLower(strings.Join([]string{
		sig.Attributes.Joined(), sig.Context.Label, sig.Context.ParentText,
	}, " "))

	// Value-tier candidates: placeholder, current value, and the raw
	// name/id for anchored short forms like ^fn$.
	valueTexts := []string{
		sig.Attributes.Placeholder,
		sig.Behavioral.Value,
		sig.Attributes.Name,
		sig.Attributes.ID,
	}

	contextBonus := s.contextBonuses(sig)

	scores := make(models.ScoreMap)
	for _, ft := range models.AllFieldTypes() {
		set := s.lib.Set(ft)
		total := 0

		if set != nil {
			if patterns.MatchExact(identifiers, set.Exact) {
				total += TierExact
			}
			if patterns.MatchAny(fuzzyText, set.Fuzzy) {
				total += TierFuzzy
			}
			for _, text := range valueTexts {
				if text != "" && patterns.MatchAny(text, set.Value) {
					total += TierValue
					break
				}
			}
		}

		total += contextBonus[ft]

		if total > 0 {
			scores[ft] = Clamp(total)
		}
	}
	return scores
}

// contextBonuses sums keyword-weight hits per bucket from the control's
// surrounding text and spreads each bucket's capped bonus over the field
// types that bucket is relevant to. Keyword tables are English, so pages
// detected as another language skip this tier entirely.
func (s *Scorer) contextBonuses(sig models.SignalBundle) map[models.FieldType]int {
	bonuses := make(map[models.FieldType]int)
	if lang := sig.Context.Language; lang != "" && lang != "en" {
		return bonuses
	}

	contextText := strings.ToLower(strings.Join([]string{
		sig.Context.Label,
		sig.Context.ParentText,
		sig.Context.PageTitle,
		strings.Join(sig.Context.Headings, " "),
		sig.Structure.Legend,
		sig.Structure.FormClass,
	}, " "))

	for _, bucket := range s.lib.Buckets() {
		hit := 0
		for keyword, weight := range bucket.Keywords {
			if strings.Contains(contextText, keyword) {
				hit += weight
			}
		}
		if hit == 0 {
			continue
		}
		if hit > TierContext {
			hit = TierContext
		}
		for _, ft := range bucket.Types {
			if hit > bonuses[ft] {
				bonuses[ft] = hit
			}
		}
	}
	return bonuses
}

// Clamp bounds a score to [0,100].
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ConfidenceFor maps a score to its confidence bucket. Learned detections
// are handled by the detector, not here.
func ConfidenceFor(score int) models.Confidence {
	switch {
	case score >= 90:
		return models.ConfidenceHigh
	case score >= 70:
		return models.ConfidenceMedium
	case score >= Threshold:
		return models.ConfidenceLow
	default:
		return models.ConfidenceNone
	}
}
