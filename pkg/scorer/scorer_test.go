package scorer

import (
	"regexp"
	"testing"

	"github.com/formsense/formsense/models"
	"github.com/formsense/formsense/pkg/patterns"
)

// testLibrary builds a small controlled library so tier contributions are
// predictable.
func testLibrary() *patterns.Library {
	sets := map[models.FieldType]*patterns.PatternSet{
		models.FieldEmail: {
			Exact: []string{"email"},
			Fuzzy: []*regexp.Regexp{regexp.MustCompile(`(?i)e.?mail`)},
			Value: []*regexp.Regexp{regexp.MustCompile(`@`)},
		},
		models.FieldPhone: {
			Exact: []string{"phone"},
		},
	}
	buckets := []patterns.ContextBucket{
		{
			Name:     "personal",
			Keywords: map[string]int{"contact": 15, "about you": 20},
			Types:    []models.FieldType{models.FieldEmail, models.FieldPhone},
		},
	}
	return patterns.New(sets, buckets)
}

func bundleWithName(name string) models.SignalBundle {
	var b models.SignalBundle
	b.Attributes.Name = name
	return b
}

func TestScoreExactTier(t *testing.T) {
	s := New(testLibrary())
	scores := s.Score(bundleWithName("email"))
	if scores[models.FieldEmail] != 100 {
		t.Errorf("exact match score = %d, want 100", scores[models.FieldEmail])
	}
	if _, ok := scores[models.FieldPhone]; ok {
		t.Error("phone should have no score entry")
	}
}

func TestScoreFuzzyTierUsesLabel(t *testing.T) {
	s := New(testLibrary())
	b := bundleWithName("contact_field_7")
	b.Context.Label = "Your E-Mail"
	scores := s.Score(b)
	if scores[models.FieldEmail] != TierFuzzy {
		t.Errorf("fuzzy-only score = %d, want %d", scores[models.FieldEmail], TierFuzzy)
	}
}

func TestScoreValueTierUsesPlaceholder(t *testing.T) {
	s := New(testLibrary())
	b := bundleWithName("fld_42")
	b.Attributes.Placeholder = "you@example.com"
	scores := s.Score(b)
	if scores[models.FieldEmail] != TierValue {
		t.Errorf("value-only score = %d, want %d", scores[models.FieldEmail], TierValue)
	}
}

func TestScoreTiersAccumulateAndClamp(t *testing.T) {
	s := New(testLibrary())
	// Exact (name) + fuzzy (label) + value (placeholder) overflows 100.
	b := bundleWithName("email")
	b.Context.Label = "E-mail"
	b.Attributes.Placeholder = "me@site.com"
	scores := s.Score(b)
	if scores[models.FieldEmail] != 100 {
		t.Errorf("stacked tiers = %d, want clamped 100", scores[models.FieldEmail])
	}
}

func TestScoreContextBonusIsCapped(t *testing.T) {
	s := New(testLibrary())
	b := bundleWithName("fld")
	b.Context.ParentText = "contact us, tell us about you"
	scores := s.Score(b)
	// 15 + 20 = 35, under the cap, applied to both bucket types.
	if scores[models.FieldEmail] != 35 || scores[models.FieldPhone] != 35 {
		t.Errorf("context bonuses = %d/%d, want 35/35", scores[models.FieldEmail], scores[models.FieldPhone])
	}
}

func TestScoreContextSkippedForNonEnglishPages(t *testing.T) {
	s := New(testLibrary())
	b := bundleWithName("fld")
	b.Context.ParentText = "contact us"
	b.Context.Language = "de"
	scores := s.Score(b)
	if len(scores) != 0 {
		t.Errorf("non-English page should get no context bonus, got %v", scores)
	}
}

func TestPlaceholderOnlyFieldStaysBelowHighConfidence(t *testing.T) {
	// A control whose only hint is placeholder prose must land in the
	// fuzzy/value band, not the exact tier: "Enter your ZIP" is a hint,
	// not an identifier.
	s := New(patterns.Default())
	var b models.SignalBundle
	b.Attributes.Placeholder = "Enter your ZIP"

	scores := s.Score(b)
	got := scores[models.FieldZip]
	if got < Threshold || got >= 90 {
		t.Fatalf("placeholder-only zip score = %d, want within [%d,90)", got, Threshold)
	}
	if conf := ConfidenceFor(got); conf != models.ConfidenceMedium && conf != models.ConfidenceLow {
		t.Errorf("confidence = %q, want medium or low", conf)
	}
}

func TestExactTierIgnoresPlaceholder(t *testing.T) {
	s := New(testLibrary())
	b := models.SignalBundle{}
	b.Attributes.Placeholder = "email"
	scores := s.Score(b)
	// Fuzzy still sees the placeholder; exact must not.
	if scores[models.FieldEmail] >= TierExact {
		t.Errorf("placeholder text reached the exact tier, score = %d", scores[models.FieldEmail])
	}
	if scores[models.FieldEmail] != TierFuzzy {
		t.Errorf("placeholder fuzzy score = %d, want %d", scores[models.FieldEmail], TierFuzzy)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ in, want int }{
		{-10, 0},
		{0, 0},
		{65, 65},
		{100, 100},
		{150, 100},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		score int
		want  models.Confidence
	}{
		{100, models.ConfidenceHigh},
		{90, models.ConfidenceHigh},
		{89, models.ConfidenceMedium},
		{70, models.ConfidenceMedium},
		{69, models.ConfidenceLow},
		{60, models.ConfidenceLow},
		{59, models.ConfidenceNone},
		{0, models.ConfidenceNone},
	}
	for _, tt := range tests {
		if got := ConfidenceFor(tt.score); got != tt.want {
			t.Errorf("ConfidenceFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
