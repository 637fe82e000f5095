package corrections

import (
	"testing"

	"github.com/formsense/formsense/models"
	"github.com/formsense/formsense/pkg/patterns"
)

func correctionWithLabel(label string) models.SignalBundle {
	var b models.SignalBundle
	b.Attributes.Name = label
	b.Context.Label = label
	return b
}

func recordN(s *Store, n int, label string, detected, corrected models.FieldType) {
	for i := 0; i < n; i++ {
		b := correctionWithLabel(label)
		// Vary the position so each record gets its own signature.
		b.Structure.Position = i
		s.Record(b, detected, corrected)
	}
}

func TestRetrainInducesPatternFromRepeatedTransition(t *testing.T) {
	s := NewStore(nil, nil)
	recordN(s, 3, "Vorname eingeben", models.FieldFullName, models.FieldFirstName)

	lib := patterns.New(nil, nil)
	induced := s.Retrain(lib)

	if len(induced) == 0 {
		t.Fatal("expected induced patterns")
	}
	want := `(?i)\bvorname\b`
	if !lib.HasFuzzy(models.FieldFirstName, want) {
		t.Errorf("library missing induced pattern %q, induced: %v", want, induced)
	}
	// 3-letter and stop words never induce.
	if lib.HasFuzzy(models.FieldFirstName, `(?i)\benter\b`) {
		t.Error("stop word should not induce a pattern")
	}
}

func TestRetrainIgnoresRareTransitions(t *testing.T) {
	s := NewStore(nil, nil)
	recordN(s, 2, "Vorname", models.FieldFullName, models.FieldFirstName)

	induced := s.Retrain(patterns.New(nil, nil))
	if len(induced) != 0 {
		t.Errorf("transition seen twice should induce nothing, got %v", induced)
	}
}

func TestRetrainRequiresWordMajority(t *testing.T) {
	s := NewStore(nil, nil)
	// "vorname" appears in 3 of 5; "rufnummer" in only 1 of 5.
	labels := []string{
		"Vorname", "Vorname bitte", "Ihr Vorname",
		"Rufnummer", "Feldname",
	}
	for i, label := range labels {
		b := correctionWithLabel(label)
		b.Structure.Position = i
		s.Record(b, models.FieldFullName, models.FieldFirstName)
	}

	lib := patterns.New(nil, nil)
	s.Retrain(lib)

	if !lib.HasFuzzy(models.FieldFirstName, `(?i)\bvorname\b`) {
		t.Error("majority word should induce a pattern")
	}
	if lib.HasFuzzy(models.FieldFirstName, `(?i)\brufnummer\b`) {
		t.Error("minority word should not induce a pattern")
	}
}

func TestRetrainSkipsNoopCorrections(t *testing.T) {
	s := NewStore(nil, nil)
	recordN(s, 5, "Vorname", models.FieldFirstName, models.FieldFirstName)

	induced := s.Retrain(patterns.New(nil, nil))
	if len(induced) != 0 {
		t.Errorf("detected==corrected entries should teach nothing, got %v", induced)
	}
}

func TestRetrainIsIdempotent(t *testing.T) {
	s := NewStore(nil, nil)
	recordN(s, 3, "Vorname", models.FieldFullName, models.FieldFirstName)

	lib := patterns.New(nil, nil)
	first := s.Retrain(lib)
	second := s.Retrain(lib)

	if len(first) == 0 {
		t.Fatal("first retrain should induce patterns")
	}
	if len(second) != 0 {
		t.Errorf("second retrain should be a no-op, got %v", second)
	}
}
