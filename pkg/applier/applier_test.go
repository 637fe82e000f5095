package applier

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/formsense/formsense/models"
	"github.com/formsense/formsense/pkg/corrections"
	"github.com/formsense/formsense/pkg/detector"
	"github.com/formsense/formsense/pkg/patterns"
	"github.com/formsense/formsense/pkg/scorer"
	"github.com/formsense/formsense/pkg/siterules"
)

func parseDoc(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func newTestApplier(t *testing.T, custom []models.SiteRule, opts Options) *Applier {
	t.Helper()
	rules, err := siterules.NewEngine(custom)
	if err != nil {
		t.Fatalf("failed to build rules engine: %v", err)
	}
	store := corrections.NewStore(nil, nil)
	det := detector.New(scorer.New(patterns.Default()), store, rules, detector.Options{})
	if opts.Sleep == nil {
		opts.Sleep = func(time.Duration) {}
	}
	return New(det, rules, opts)
}

func testProfile() *models.Profile {
	return &models.Profile{
		Name: "test",
		Values: map[models.FieldType]string{
			models.FieldFirstName: "Jane",
			models.FieldLastName:  "Doe",
			models.FieldEmail:     "jane@example.com",
			models.FieldPhone:     "555-0100",
			models.FieldCountry:   "US",
		},
	}
}

const contactForm = `<html><body><form>
	<label>First Name <input name="first_name"></label>
	<label>Last Name <input name="last_name"></label>
	<label>Email <input name="email" type="email"></label>
</form></body></html>`

func TestFillWritesProfileValues(t *testing.T) {
	a := newTestApplier(t, nil, Options{})
	doc := parseDoc(t, contactForm)

	report := a.Fill(doc, "https://example.com/contact", testProfile())

	if report.FilledCount != 3 {
		t.Fatalf("filled = %d, want 3; report: %+v", report.FilledCount, report.Fields)
	}
	if got := doc.Find(`input[name="email"]`).AttrOr("value", ""); got != "jane@example.com" {
		t.Errorf("email value = %q", got)
	}
	if got := doc.Find(`input[name="first_name"]`).AttrOr("value", ""); got != "Jane" {
		t.Errorf("first name value = %q", got)
	}
}

func TestFillReportCarriesInferredLabels(t *testing.T) {
	a := newTestApplier(t, nil, Options{})
	doc := parseDoc(t, contactForm)

	report := a.Fill(doc, "https://example.com/contact", testProfile())

	byName := make(map[string]models.FieldReport)
	for _, f := range report.Fields {
		byName[f.Name] = f
	}
	if got := byName["first_name"].Label; got != "First Name" {
		t.Errorf("first_name label = %q, want %q", got, "First Name")
	}
	if got := byName["email"].Label; got != "Email" {
		t.Errorf("email label = %q, want %q", got, "Email")
	}
}

func TestFillSelectsOptionByValueThenText(t *testing.T) {
	a := newTestApplier(t, nil, Options{})
	doc := parseDoc(t, `<form>
		<label>Country
			<select name="country">
				<option value="">Choose</option>
				<option value="US">United States</option>
				<option value="DE">Germany</option>
			</select>
		</label>
	</form>`)

	report := a.Fill(doc, "https://example.com/", testProfile())
	if report.FilledCount != 1 {
		t.Fatalf("filled = %d, want 1; report: %+v", report.FilledCount, report.Fields)
	}
	sel, ok := doc.Find(`option[value="US"]`).Attr("selected")
	if !ok || sel != "selected" {
		t.Error("US option should be selected")
	}
	if _, ok := doc.Find(`option[value="DE"]`).Attr("selected"); ok {
		t.Error("only one option should be selected")
	}
}

func TestFillSkipsFieldsWithoutProfileValue(t *testing.T) {
	a := newTestApplier(t, nil, Options{})
	doc := parseDoc(t, contactForm)

	profile := &models.Profile{Values: map[models.FieldType]string{
		models.FieldEmail: "jane@example.com",
	}}
	report := a.Fill(doc, "https://example.com/", profile)

	if report.DetectedCount != 3 {
		t.Errorf("detected = %d, want 3", report.DetectedCount)
	}
	if report.FilledCount != 1 {
		t.Errorf("filled = %d, want 1", report.FilledCount)
	}
	if got := doc.Find(`input[name="first_name"]`).AttrOr("value", ""); got != "" {
		t.Errorf("first name should stay empty, got %q", got)
	}
}

func TestFillHonorsMaxFieldsCap(t *testing.T) {
	custom := []models.SiteRule{{
		Pattern:  "example.com",
		Security: &models.SecurityRule{MaxFields: 2},
	}}
	a := newTestApplier(t, custom, Options{})
	doc := parseDoc(t, contactForm)

	report := a.Fill(doc, "https://example.com/contact", testProfile())
	if report.FilledCount != 2 {
		t.Errorf("filled = %d, want capped 2", report.FilledCount)
	}
	// Excess fields are dropped, not queued: exactly one input stays empty.
	empty := 0
	doc.Find("input").Each(func(i int, s *goquery.Selection) {
		if s.AttrOr("value", "") == "" {
			empty++
		}
	})
	if empty != 1 {
		t.Errorf("empty inputs = %d, want 1", empty)
	}
}

func TestFillHonorsAllowedFields(t *testing.T) {
	custom := []models.SiteRule{{
		Pattern:  "example.com",
		Security: &models.SecurityRule{AllowedFields: []models.FieldType{models.FieldEmail}},
	}}
	a := newTestApplier(t, custom, Options{})
	doc := parseDoc(t, contactForm)

	report := a.Fill(doc, "https://example.com/", testProfile())
	if report.FilledCount != 1 {
		t.Fatalf("filled = %d, want 1", report.FilledCount)
	}
	if got := doc.Find(`input[name="email"]`).AttrOr("value", ""); got != "jane@example.com" {
		t.Errorf("email value = %q", got)
	}

	blocked := 0
	for _, f := range report.Fields {
		if f.SkipReason == "not in allowed_fields" {
			blocked++
		}
	}
	if blocked != 2 {
		t.Errorf("allow-list blocked %d fields, want 2", blocked)
	}
}

func TestFillSelectorOverrideBeatsDetector(t *testing.T) {
	custom := []models.SiteRule{{
		Pattern: "example.com",
		Fields: map[string]models.FieldRule{
			`input[name="first_name"]`: {Type: models.FieldLastName},
		},
	}}
	a := newTestApplier(t, custom, Options{})
	doc := parseDoc(t, contactForm)

	a.Fill(doc, "https://example.com/", testProfile())
	if got := doc.Find(`input[name="first_name"]`).AttrOr("value", ""); got != "Doe" {
		t.Errorf("override should map the field to lastName, got value %q", got)
	}
}

func TestFillInvalidOverrideSelectorIsIgnored(t *testing.T) {
	custom := []models.SiteRule{{
		Pattern: "example.com",
		Fields: map[string]models.FieldRule{
			"[[broken": {Type: models.FieldEmail},
		},
	}}
	a := newTestApplier(t, custom, Options{})
	doc := parseDoc(t, contactForm)

	report := a.Fill(doc, "https://example.com/", testProfile())
	if report.FilledCount != 3 {
		t.Errorf("broken selector should not break the pass, filled = %d", report.FilledCount)
	}
}

func TestFillBeforeFillHandlerBlocks(t *testing.T) {
	custom := []models.SiteRule{{
		Pattern:  "example.com",
		Handlers: &models.HandlerRule{BeforeFill: "checkCaptcha"},
	}}
	a := newTestApplier(t, custom, Options{
		Handlers: map[string]HandlerFunc{
			"checkCaptcha": func(doc *goquery.Document) (bool, error) { return false, nil },
		},
	})
	doc := parseDoc(t, contactForm)

	report := a.Fill(doc, "https://example.com/", testProfile())
	if !report.Aborted || report.AbortReason != "before_fill_blocked" {
		t.Errorf("report = %+v, want blocked abort", report)
	}
	if report.FilledCount != 0 {
		t.Errorf("blocked pass filled %d fields", report.FilledCount)
	}
}

func TestFillBeforeFillHandlerErrorAborts(t *testing.T) {
	custom := []models.SiteRule{{
		Pattern:  "example.com",
		Handlers: &models.HandlerRule{BeforeFill: "flaky"},
	}}
	a := newTestApplier(t, custom, Options{
		Handlers: map[string]HandlerFunc{
			"flaky": func(doc *goquery.Document) (bool, error) { return true, errors.New("boom") },
		},
	})
	doc := parseDoc(t, contactForm)

	report := a.Fill(doc, "https://example.com/", testProfile())
	if !report.Aborted || report.AbortReason != "before_fill_error" {
		t.Errorf("report = %+v, want error abort", report)
	}
}

func TestFillUnknownHandlerAllows(t *testing.T) {
	custom := []models.SiteRule{{
		Pattern:  "example.com",
		Handlers: &models.HandlerRule{BeforeFill: "noSuchHandler"},
	}}
	a := newTestApplier(t, custom, Options{})
	doc := parseDoc(t, contactForm)

	report := a.Fill(doc, "https://example.com/", testProfile())
	if report.Aborted {
		t.Error("unknown handler must default to allow")
	}
	if report.FilledCount != 3 {
		t.Errorf("filled = %d, want 3", report.FilledCount)
	}
}

func TestFillAppliesDelays(t *testing.T) {
	var slept []time.Duration
	custom := []models.SiteRule{{
		Pattern: "example.com",
		Delays:  &models.DelayRule{BeforeFill: 500, BetweenFields: 100},
	}}
	a := newTestApplier(t, custom, Options{
		Sleep: func(d time.Duration) { slept = append(slept, d) },
	})
	doc := parseDoc(t, contactForm)

	a.Fill(doc, "https://example.com/", testProfile())

	if len(slept) != 3 {
		t.Fatalf("sleeps = %v, want before-fill + 2 between-fields", slept)
	}
	if slept[0] != 500*time.Millisecond {
		t.Errorf("before-fill delay = %v", slept[0])
	}
	if slept[1] != 100*time.Millisecond || slept[2] != 100*time.Millisecond {
		t.Errorf("between-field delays = %v", slept[1:])
	}
}

func TestFillTextarea(t *testing.T) {
	a := newTestApplier(t, nil, Options{})
	doc := parseDoc(t, `<form><label>Email <textarea name="email"></textarea></label></form>`)

	report := a.Fill(doc, "https://example.com/", testProfile())
	if report.FilledCount != 1 {
		t.Fatalf("filled = %d, want 1; report: %+v", report.FilledCount, report.Fields)
	}
	if got := doc.Find("textarea").Text(); got != "jane@example.com" {
		t.Errorf("textarea text = %q", got)
	}
}

func TestFillReportsSkippedFields(t *testing.T) {
	custom := []models.SiteRule{{
		Pattern:    "example.com",
		SkipFields: []string{`input[name="email"]`},
	}}
	a := newTestApplier(t, custom, Options{})
	doc := parseDoc(t, contactForm)

	report := a.Fill(doc, "https://example.com/", testProfile())
	if got := doc.Find(`input[name="email"]`).AttrOr("value", ""); got != "" {
		t.Errorf("skipped field was filled with %q", got)
	}

	var skipped *models.FieldReport
	for i := range report.Fields {
		if report.Fields[i].Name == "email" {
			skipped = &report.Fields[i]
		}
	}
	if skipped == nil || !skipped.Skipped || !strings.Contains(skipped.SkipReason, "skip_selector") {
		t.Errorf("email field report = %+v", skipped)
	}
}
