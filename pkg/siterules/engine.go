// Package siterules resolves per-site overrides for the detector and
// applier: field-selector mappings, skip-lists, multi-step checkout flows,
// and security caps. Rules come from two sources: a built-in table for
// well-known domains and user-authored custom rules, with custom rules
// taking precedence.
package siterules

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/formsense/formsense/models"
)

const cacheSize = 256

// Engine answers rule lookups for page URLs and skip checks for elements.
type Engine struct {
	builtin []models.SiteRule
	custom  []models.SiteRule

	// Compiled selector and glob caches. Selector compilation failures
	// are cached too so a bad selector is only parsed once.
	selectors *lru.Cache[string, compiledSelector]
	globs     *lru.Cache[string, *regexp.Regexp]
}

type compiledSelector struct {
	group cascadia.SelectorGroup
	ok    bool
}

// NewEngine builds an engine over the built-in table plus the given custom
// rules. Custom rules are matched in sorted-pattern order so lookups are
// deterministic regardless of how the rules were stored.
func NewEngine(custom []models.SiteRule) (*Engine, error) {
	builtin, err := BuiltinRules()
	if err != nil {
		return nil, err
	}

	sorted := make([]models.SiteRule, len(custom))
	copy(sorted, custom)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Pattern < sorted[j].Pattern })

	selectors, err := lru.New[string, compiledSelector](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create selector cache: %w", err)
	}
	globs, err := lru.New[string, *regexp.Regexp](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create glob cache: %w", err)
	}

	return &Engine{
		builtin:   builtin,
		custom:    sorted,
		selectors: selectors,
		globs:     globs,
	}, nil
}

// RulesFor returns the active rule for a page URL, custom rules first, or
// nil when nothing matches. No rule means defaults everywhere: no
// skip-list, no security caps.
func (e *Engine) RulesFor(rawURL string) *models.SiteRule {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}

	for i := range e.custom {
		if e.patternMatches(e.custom[i].Pattern, host) {
			return &e.custom[i]
		}
	}
	for i := range e.builtin {
		if strings.Contains(host, e.builtin[i].Pattern) {
			return &e.builtin[i]
		}
	}
	return nil
}

// patternMatches checks a custom rule pattern against a hostname: plain
// patterns match by substring, patterns containing '*' as globs.
func (e *Engine) patternMatches(pattern, host string) bool {
	if !strings.Contains(pattern, "*") {
		return strings.Contains(host, pattern)
	}
	re, ok := e.globs.Get(pattern)
	if !ok {
		source := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
		compiled, err := regexp.Compile(source)
		if err != nil {
			// QuoteMeta makes this unreachable in practice; treat the
			// pattern as non-matching rather than failing the lookup.
			return false
		}
		re = compiled
		e.globs.Add(pattern, re)
	}
	return re.MatchString(host)
}

// ShouldSkip reports whether the active rule excludes an element from
// detection and filling, with a reason for reporting. Skip-checking runs
// before scoring, so this must be cheap and must never panic on bad
// selectors.
func (e *Engine) ShouldSkip(rule *models.SiteRule, sel *goquery.Selection) (bool, string) {
	if rule == nil || sel == nil || sel.Length() == 0 {
		return false, ""
	}

	for _, skipSel := range rule.SkipFields {
		if e.matchesSelector(skipSel, sel) {
			return true, "skip_selector: " + skipSel
		}
	}

	if rule.Security != nil && len(rule.Security.RestrictedFields) > 0 {
		if low := SniffLowLevelType(sel); low != "" {
			for _, restricted := range rule.Security.RestrictedFields {
				if strings.EqualFold(restricted, low) {
					return true, "restricted: " + low
				}
			}
		}
	}

	return false, ""
}

// matchesSelector matches one CSS selector against an element, tolerating
// invalid selectors: a selector cascadia rejects falls back to a direct
// identity check against the element's id or name, and failing that simply
// does not match. Fail-open toward not skipping.
func (e *Engine) matchesSelector(selector string, sel *goquery.Selection) bool {
	node := sel.Get(0)
	if node == nil {
		return false
	}

	compiled, cached := e.selectors.Get(selector)
	if !cached {
		group, err := cascadia.ParseGroup(selector)
		compiled = compiledSelector{group: group, ok: err == nil}
		e.selectors.Add(selector, compiled)
	}

	if compiled.ok {
		for _, s := range compiled.group {
			if s.Match(node) {
				return true
			}
		}
		return false
	}

	// Identity fallback: "#id" or a bare id/name string.
	id := sel.AttrOr("id", "")
	name := sel.AttrOr("name", "")
	trimmed := strings.TrimPrefix(selector, "#")
	return trimmed != "" && (trimmed == id || trimmed == name)
}

// EffectiveRule resolves the rule for a URL and, when the rule has a
// checkout flow with a matching step, merges that step's field map and
// skip list into a copy. Step entries win over the base rule's.
func (e *Engine) EffectiveRule(rawURL, stepHint string) *models.SiteRule {
	rule := e.RulesFor(rawURL)
	if rule == nil {
		return nil
	}
	step := e.MatchStep(rule, rawURL, stepHint)
	if step == nil {
		return rule
	}

	merged := *rule
	merged.SkipFields = append(append([]string{}, rule.SkipFields...), step.SkipFields...)
	if len(step.Fields) > 0 {
		fields := make(map[string]models.FieldRule, len(rule.Fields)+len(step.Fields))
		for k, v := range rule.Fields {
			fields[k] = v
		}
		for k, v := range step.Fields {
			fields[k] = v
		}
		merged.Fields = fields
	}
	return &merged
}

// MatchStep returns the checkout step whose URL pattern is a substring of
// the current URL, or whose name matches an explicit hint. Hint wins. Nil
// when the rule has no flow or nothing matches.
func (e *Engine) MatchStep(rule *models.SiteRule, rawURL, stepHint string) *models.CheckoutStep {
	if rule == nil || rule.Checkout == nil {
		return nil
	}
	steps := rule.Checkout.Steps

	if stepHint != "" {
		for i := range steps {
			if strings.EqualFold(steps[i].Name, stepHint) {
				return &steps[i]
			}
		}
	}
	for i := range steps {
		if steps[i].URLPattern != "" && strings.Contains(rawURL, steps[i].URLPattern) {
			return &steps[i]
		}
	}
	return nil
}

// SniffLowLevelType classifies password/ssn/cardNumber/cvv fields by plain
// attribute sniffing, independent of the main detector, for security
// gating.
func SniffLowLevelType(sel *goquery.Selection) string {
	attrs := strings.ToLower(strings.Join([]string{
		sel.AttrOr("type", ""),
		sel.AttrOr("name", ""),
		sel.AttrOr("id", ""),
		sel.AttrOr("autocomplete", ""),
	}, " "))

	switch {
	case strings.Contains(attrs, "password"):
		return "password"
	case strings.Contains(attrs, "ssn") || strings.Contains(attrs, "social_security") || strings.Contains(attrs, "social-security"):
		return "ssn"
	case strings.Contains(attrs, "cvv") || strings.Contains(attrs, "cvc") || strings.Contains(attrs, "security_code") || strings.Contains(attrs, "security-code"):
		return "cvv"
	case strings.Contains(attrs, "cc-number") || strings.Contains(attrs, "card_number") || strings.Contains(attrs, "card-number") || strings.Contains(attrs, "cardnumber"):
		return "cardNumber"
	}
	return ""
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Host)
	if host == "" {
		// Tolerate bare hostnames passed without a scheme.
		host = strings.ToLower(strings.SplitN(rawURL, "/", 2)[0])
	}
	return host
}
