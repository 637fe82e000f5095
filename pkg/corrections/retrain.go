package corrections

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/formsense/formsense/models"
	"github.com/formsense/formsense/pkg/patterns"
)

// Retraining thresholds: a transition must repeat before it teaches
// anything, and an induced word must appear in most of the corrected
// elements' surrounding text.
const (
	minTransitionCount = 3
	minWordShare       = 0.6
	minWordLen         = 4
)

// InducedPattern reports one fuzzy pattern retraining added.
type InducedPattern struct {
	Type    models.FieldType `json:"type" yaml:"type"`
	Word    string           `json:"word" yaml:"word"`
	Pattern string           `json:"pattern" yaml:"pattern"`
}

// Retrain batches the learning log by (detected -> corrected) transition
// and, for transitions seen at least minTransitionCount times, appends a
// fuzzy pattern for every word common to minWordShare of the corrected
// elements' label/placeholder/parent text.
//
// This is frequency-threshold rule induction, not a statistical model: it
// carries no accuracy guarantee beyond "the user kept making the same
// correction near the same words".
func (s *Store) Retrain(lib *patterns.Library) []InducedPattern {
	type transition struct {
		detected, corrected models.FieldType
	}

	entries := s.Log()
	groups := make(map[transition][]models.Correction)
	for _, c := range entries {
		if c.DetectedType == c.CorrectedType {
			continue
		}
		key := transition{c.DetectedType, c.CorrectedType}
		groups[key] = append(groups[key], c)
	}

	var induced []InducedPattern
	for key, group := range groups {
		if len(group) < minTransitionCount {
			continue
		}

		// Count, per word, how many corrections had it in surrounding text.
		wordDocs := make(map[string]int)
		for _, c := range group {
			seen := make(map[string]bool)
			for _, w := range contextWords(c) {
				if !seen[w] {
					seen[w] = true
					wordDocs[w]++
				}
			}
		}

		words := make([]string, 0, len(wordDocs))
		for w, n := range wordDocs {
			if float64(n) >= minWordShare*float64(len(group)) {
				words = append(words, w)
			}
		}
		sort.Strings(words)

		for _, w := range words {
			source := fmt.Sprintf(`(?i)\b%s\b`, regexp.QuoteMeta(w))
			if lib.HasFuzzy(key.corrected, source) {
				continue
			}
			lib.AddFuzzy(key.corrected, regexp.MustCompile(source))
			induced = append(induced, InducedPattern{
				Type:    key.corrected,
				Word:    w,
				Pattern: source,
			})
		}
	}

	sort.Slice(induced, func(i, j int) bool {
		if induced[i].Type != induced[j].Type {
			return induced[i].Type < induced[j].Type
		}
		return induced[i].Word < induced[j].Word
	})
	return induced
}

var wordRe = regexp.MustCompile(`[a-z]+`)

// contextWords tokenizes the text surrounding a corrected element.
func contextWords(c models.Correction) []string {
	text := strings.ToLower(strings.Join([]string{
		c.Signals.Context.Label,
		c.Signals.Attributes.Placeholder,
		c.Signals.Context.ParentText,
	}, " "))

	var words []string
	for _, w := range wordRe.FindAllString(text, -1) {
		if len(w) >= minWordLen && !stopWords[w] {
			words = append(words, w)
		}
	}
	return words
}

// stopWords filters structural words that would otherwise dominate
// induction. Small on purpose; retraining thresholds do the real filtering.
var stopWords = map[string]bool{
	"your": true, "please": true, "enter": true, "this": true,
	"that": true, "with": true, "required": true, "optional": true,
	"field": true, "form": true, "here": true, "select": true,
}
