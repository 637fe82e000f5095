// Package patterns holds the static matching tables the scorer runs form
// controls against: exact keywords, fuzzy regexes, and value/structural
// regexes per field type, plus the context keyword buckets.
//
// The library is plain data behind a constructor. Inject it where needed
// instead of reaching for a package-level singleton so tests can substitute
// custom pattern sets. Retrain (pkg/corrections) appends new fuzzy patterns
// to a library at runtime; the default tables themselves never mutate.
package patterns

import (
	"regexp"
	"strings"

	"github.com/formsense/formsense/models"
)

// PatternSet holds the three pattern tiers for one field type.
type PatternSet struct {
	// Exact are lowercase literal substrings checked against the
	// identifier attributes (name, id, class, type, autocomplete,
	// aria-label). Placeholder prose is deliberately outside this tier.
	Exact []string
	// Fuzzy are regexes tolerant of word order and separators, checked
	// against attributes + label + parent text.
	Fuzzy []*regexp.Regexp
	// Value are regexes matching typical values or conventions
	// (5-digit zip, '@' in email) and anchored short forms (^fn$).
	Value []*regexp.Regexp
}

// ContextBucket maps a topic's weighted keywords to the field types that
// topic is evidence for.
type ContextBucket struct {
	Name     string
	Keywords map[string]int
	Types    []models.FieldType
}

// Library is the full pattern configuration the scorer consumes.
type Library struct {
	sets    map[models.FieldType]*PatternSet
	buckets []ContextBucket
}

// New builds a library from explicit tables. Types without a set simply
// never match.
func New(sets map[models.FieldType]*PatternSet, buckets []ContextBucket) *Library {
	if sets == nil {
		sets = make(map[models.FieldType]*PatternSet)
	}
	return &Library{sets: sets, buckets: buckets}
}

// Set returns the pattern set for a field type, or nil.
func (l *Library) Set(t models.FieldType) *PatternSet {
	return l.sets[t]
}

// Buckets returns the context keyword buckets.
func (l *Library) Buckets() []ContextBucket {
	return l.buckets
}

// AddFuzzy appends a fuzzy pattern for a field type, creating the set if
// the type had none. Used by correction retraining.
func (l *Library) AddFuzzy(t models.FieldType, re *regexp.Regexp) {
	set := l.sets[t]
	if set == nil {
		set = &PatternSet{}
		l.sets[t] = set
	}
	for _, existing := range set.Fuzzy {
		if existing.String() == re.String() {
			return
		}
	}
	set.Fuzzy = append(set.Fuzzy, re)
}

// HasFuzzy reports whether a fuzzy pattern with the given source already
// exists for a field type.
func (l *Library) HasFuzzy(t models.FieldType, source string) bool {
	set := l.sets[t]
	if set == nil {
		return false
	}
	for _, re := range set.Fuzzy {
		if re.String() == source {
			return true
		}
	}
	return false
}

// MatchExact reports whether any exact pattern is a substring of text.
// Text must already be lowercased.
func MatchExact(text string, exact []string) bool {
	for _, p := range exact {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// MatchAny reports whether any regex matches text.
func MatchAny(text string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
