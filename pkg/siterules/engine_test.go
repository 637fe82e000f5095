package siterules

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/formsense/formsense/models"
)

func newTestEngine(t *testing.T, custom ...models.SiteRule) *Engine {
	t.Helper()
	e, err := NewEngine(custom)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return e
}

func elem(t *testing.T, raw string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	sel := doc.Find("input, select, textarea").First()
	if sel.Length() == 0 {
		t.Fatal("fixture has no form control")
	}
	return sel
}

func TestBuiltinRulesParse(t *testing.T) {
	rules, err := BuiltinRules()
	if err != nil {
		t.Fatalf("built-in rules failed to parse: %v", err)
	}
	if len(rules) == 0 {
		t.Fatal("no built-in rules")
	}
	for _, r := range rules {
		if r.Pattern == "" {
			t.Errorf("built-in rule with empty pattern: %+v", r)
		}
	}
}

func TestRulesForBuiltinDomain(t *testing.T) {
	e := newTestEngine(t)
	rule := e.RulesFor("https://www.amazon.com/checkout")
	if rule == nil {
		t.Fatal("expected a rule for amazon.com")
	}
	if rule.Pattern != "amazon." {
		t.Errorf("pattern = %q", rule.Pattern)
	}
}

func TestRulesForUnknownDomain(t *testing.T) {
	e := newTestEngine(t)
	if rule := e.RulesFor("https://rarely-visited.example.net/"); rule != nil {
		t.Errorf("expected no rule, got %+v", rule)
	}
}

func TestCustomRuleWinsOverBuiltin(t *testing.T) {
	custom := models.SiteRule{Pattern: "amazon.", SkipFields: []string{"#custom-skip"}}
	e := newTestEngine(t, custom)
	rule := e.RulesFor("https://www.amazon.com/")
	if rule == nil || len(rule.SkipFields) != 1 || rule.SkipFields[0] != "#custom-skip" {
		t.Errorf("custom rule should shadow built-in, got %+v", rule)
	}
}

func TestGlobPatternMatching(t *testing.T) {
	e := newTestEngine(t, models.SiteRule{Pattern: "*.corp.example"})
	if e.RulesFor("https://intranet.corp.example/portal") == nil {
		t.Error("glob should match subdomain")
	}
	if e.RulesFor("https://corp.example.org/") != nil {
		t.Error("glob should anchor at the end of the host")
	}
}

func TestRulesForBareHostname(t *testing.T) {
	e := newTestEngine(t)
	if e.RulesFor("www.amazon.com/gp/cart") == nil {
		t.Error("bare hostnames without a scheme should still resolve")
	}
}

func TestShouldSkipBySelector(t *testing.T) {
	rule := &models.SiteRule{Pattern: "x", SkipFields: []string{"input[name='captcha']", "#otp"}}
	e := newTestEngine(t)

	skip, reason := e.ShouldSkip(rule, elem(t, `<form><input name="captcha"></form>`))
	if !skip {
		t.Fatal("captcha input should be skipped")
	}
	if !strings.Contains(reason, "skip_selector") {
		t.Errorf("reason = %q", reason)
	}

	if skip, _ := e.ShouldSkip(rule, elem(t, `<form><input name="email"></form>`)); skip {
		t.Error("unrelated input should not be skipped")
	}
}

func TestShouldSkipInvalidSelectorFallsBackToIdentity(t *testing.T) {
	// "[[broken" is not valid CSS; the engine falls back to comparing
	// against id and name instead of panicking.
	rule := &models.SiteRule{Pattern: "x", SkipFields: []string{"[[broken", "#one-time-code"}}
	e := newTestEngine(t)

	if skip, _ := e.ShouldSkip(rule, elem(t, `<form><input id="one-time-code"></form>`)); !skip {
		t.Error("id fallback should match")
	}
	if skip, _ := e.ShouldSkip(rule, elem(t, `<form><input name="email"></form>`)); skip {
		t.Error("broken selector should not match arbitrary inputs")
	}
}

func TestShouldSkipRestrictedFields(t *testing.T) {
	rule := &models.SiteRule{
		Pattern:  "bank",
		Security: &models.SecurityRule{RestrictedFields: []string{"password", "ssn"}},
	}
	e := newTestEngine(t)

	skip, reason := e.ShouldSkip(rule, elem(t, `<form><input type="password" name="pw"></form>`))
	if !skip || !strings.Contains(reason, "restricted") {
		t.Errorf("password should be restricted, skip=%v reason=%q", skip, reason)
	}
	if skip, _ := e.ShouldSkip(rule, elem(t, `<form><input name="ssn_last_four"></form>`)); !skip {
		t.Error("ssn field should be restricted")
	}
	if skip, _ := e.ShouldSkip(rule, elem(t, `<form><input name="city"></form>`)); skip {
		t.Error("city should not be restricted")
	}
}

func TestShouldSkipNilRule(t *testing.T) {
	e := newTestEngine(t)
	if skip, _ := e.ShouldSkip(nil, elem(t, `<form><input name="x"></form>`)); skip {
		t.Error("nil rule should never skip")
	}
}

func TestSniffLowLevelType(t *testing.T) {
	tests := []struct {
		html string
		want string
	}{
		{`<input type="password" name="pw">`, "password"},
		{`<input name="user_ssn">`, "ssn"},
		{`<input name="cvv2">`, "cvv"},
		{`<input autocomplete="cc-number">`, "cardNumber"},
		{`<input name="card_number">`, "cardNumber"},
		{`<input name="email">`, ""},
	}
	for _, tt := range tests {
		got := SniffLowLevelType(elem(t, "<form>"+tt.html+"</form>"))
		if got != tt.want {
			t.Errorf("SniffLowLevelType(%s) = %q, want %q", tt.html, got, tt.want)
		}
	}
}

func TestMatchStepByURL(t *testing.T) {
	e := newTestEngine(t)
	rule := e.RulesFor("https://www.amazon.com/")
	if rule == nil || rule.Checkout == nil {
		t.Fatal("amazon rule should carry a checkout flow")
	}

	step := e.MatchStep(rule, "https://www.amazon.com/checkout/payment", "")
	if step == nil || step.Name != "payment" {
		t.Fatalf("step = %+v, want payment", step)
	}
	if e.MatchStep(rule, "https://www.amazon.com/gp/cart", "") != nil {
		t.Error("cart URL should match no step")
	}
}

func TestMatchStepHintWins(t *testing.T) {
	e := newTestEngine(t)
	rule := e.RulesFor("https://www.amazon.com/")

	step := e.MatchStep(rule, "https://www.amazon.com/checkout/payment", "address")
	if step == nil || step.Name != "address" {
		t.Errorf("hint should override URL matching, got %+v", step)
	}
}

func TestEffectiveRuleMergesStep(t *testing.T) {
	e := newTestEngine(t)

	base := e.EffectiveRule("https://www.amazon.com/", "")
	merged := e.EffectiveRule("https://www.amazon.com/checkout/payment", "")
	if base == nil || merged == nil {
		t.Fatal("both lookups should resolve the amazon rule")
	}
	if len(merged.SkipFields) <= len(base.SkipFields) {
		t.Errorf("payment step should add skip fields: base=%v merged=%v", base.SkipFields, merged.SkipFields)
	}

	// The merge must not mutate the stored rule.
	again := e.EffectiveRule("https://www.amazon.com/", "")
	if len(again.SkipFields) != len(base.SkipFields) {
		t.Error("step merge leaked into the base rule")
	}
}
