// Package applier writes profile values into detected fields. It is thin
// glue over the detector and rules engine: it classifies nothing itself and
// honors the active rule's skip-list, delays, and security caps.
package applier

import (
	"log/slog"
	"sort"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/formsense/formsense/models"
	"github.com/formsense/formsense/pkg/detector"
	"github.com/formsense/formsense/pkg/signals"
	"github.com/formsense/formsense/pkg/siterules"
)

// HandlerFunc is a named site-specific hook run around a fill pass. A
// before-fill handler returning false blocks the whole pass; the applier
// aborts silently and does not retry.
type HandlerFunc func(doc *goquery.Document) (bool, error)

// Applier fills profile values into a document's detected fields.
type Applier struct {
	det      *detector.Detector
	rules    *siterules.Engine
	handlers map[string]HandlerFunc
	sleep    func(time.Duration)
	logger   *slog.Logger
}

// Options configure an applier.
type Options struct {
	// Handlers is the registry of named custom hooks site rules may
	// reference. Unknown handler names default to allow.
	Handlers map[string]HandlerFunc
	// Sleep lets tests stub out fill pacing. Nil means time.Sleep.
	Sleep  func(time.Duration)
	Logger *slog.Logger
}

// New creates an applier over an already-wired detector and rules engine.
func New(det *detector.Detector, rules *siterules.Engine, opts Options) *Applier {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{
		det:      det,
		rules:    rules,
		handlers: opts.Handlers,
		sleep:    sleep,
		logger:   logger,
	}
}

// Fill runs one autofill pass: detect, filter through the active site rule,
// and write values from the profile. The report carries what a UI layer
// needs to render the outcome; internal errors degrade to "nothing matched"
// rather than surfacing to the page.
func (a *Applier) Fill(doc *goquery.Document, pageURL string, profile *models.Profile) *models.ScanReport {
	report := &models.ScanReport{URL: pageURL}

	var rule *models.SiteRule
	if a.rules != nil {
		rule = a.rules.EffectiveRule(pageURL, "")
	}
	if rule != nil {
		report.RuleApplied = rule.Pattern

		if !a.runBeforeFill(doc, rule, report) {
			return report
		}
		if rule.Delays != nil && rule.Delays.BeforeFill > 0 {
			a.sleep(time.Duration(rule.Delays.BeforeFill) * time.Millisecond)
		}
	}

	detections := a.det.DetectAll(doc, pageURL)
	targets := a.resolveTargets(doc, pageURL, rule, detections)

	maxFields := 0
	if rule != nil && rule.Security != nil {
		maxFields = rule.Security.MaxFields
	}

	filled := 0
	for _, t := range targets {
		report.Fields = append(report.Fields, t.report)
		if t.report.Skipped {
			report.SkippedCount++
			continue
		}
		if t.report.Type == "" {
			continue
		}
		report.DetectedCount++

		value := profile.Value(t.report.Type)
		if value == "" {
			continue
		}
		// Excess fields beyond the cap are dropped, not queued.
		if maxFields > 0 && filled >= maxFields {
			continue
		}

		if filled > 0 && rule != nil && rule.Delays != nil && rule.Delays.BetweenFields > 0 {
			a.sleep(time.Duration(rule.Delays.BetweenFields) * time.Millisecond)
		}
		setValue(t.sel, value)
		filled++
		report.Fields[len(report.Fields)-1].Filled = true
	}
	report.FilledCount = filled

	if rule != nil {
		a.runAfterFill(doc, rule)
	}
	return report
}

type target struct {
	sel    *goquery.Selection
	node   *html.Node
	report models.FieldReport
}

// resolveTargets merges detector output with rule field-selector overrides
// and the rule's allow-list, in document position order.
func (a *Applier) resolveTargets(doc *goquery.Document, pageURL string, rule *models.SiteRule, detections map[*html.Node]models.Detection) []target {
	overrides := a.selectorOverrides(doc, rule)
	labels := signals.NewCollector(doc, nil)

	var targets []target
	order := make(map[*html.Node]int)

	a.det.Candidates(doc).Each(func(i int, sel *goquery.Selection) {
		node := sel.Get(0)
		if node == nil {
			return
		}
		order[node] = i

		rep := models.FieldReport{
			Name:      sel.AttrOr("name", ""),
			ID:        sel.AttrOr("id", ""),
			Tag:       goquery.NodeName(sel),
			InputType: sel.AttrOr("type", ""),
			Label:     labels.Label(sel),
		}

		if a.det.ShouldSkipField(sel, pageURL) {
			rep.Skipped = true
			rep.SkipReason = a.det.SkipReason(sel, pageURL)
			targets = append(targets, target{sel: sel, node: node, report: rep})
			return
		}

		if det, ok := detections[node]; ok {
			rep.Type = det.Type
			rep.Score = det.Score
			rep.Confidence = det.Confidence
			rep.Learned = det.Learned
		}
		// A rule's explicit field mapping overrides the detector.
		if ft, ok := overrides[node]; ok {
			rep.Type = ft
			rep.Confidence = models.ConfidenceHigh
		}

		if rep.Type != "" && !allowedByRule(rule, rep.Type) {
			rep.Skipped = true
			rep.SkipReason = "not in allowed_fields"
			rep.Type = ""
		}

		targets = append(targets, target{sel: sel, node: node, report: rep})
	})

	sort.SliceStable(targets, func(i, j int) bool {
		return order[targets[i].node] < order[targets[j].node]
	})
	return targets
}

// selectorOverrides resolves the rule's field map (selector -> type)
// against the document.
func (a *Applier) selectorOverrides(doc *goquery.Document, rule *models.SiteRule) map[*html.Node]models.FieldType {
	overrides := make(map[*html.Node]models.FieldType)
	if rule == nil {
		return overrides
	}

	apply := func(fields map[string]models.FieldRule) {
		selectors := make([]string, 0, len(fields))
		for s := range fields {
			selectors = append(selectors, s)
		}
		sort.Strings(selectors)
		for _, s := range selectors {
			fr := fields[s]
			// User-authored selectors may be invalid; a bad one maps
			// nothing instead of panicking the pass.
			matcher, err := cascadia.Compile(s)
			if err != nil {
				a.logger.Debug("invalid field selector in rule", "selector", s, "error", err)
				continue
			}
			doc.FindMatcher(matcher).Each(func(i int, sel *goquery.Selection) {
				if node := sel.Get(0); node != nil {
					overrides[node] = fr.Type
				}
			})
		}
	}
	apply(rule.Fields)
	return overrides
}

func allowedByRule(rule *models.SiteRule, t models.FieldType) bool {
	if rule == nil || rule.Security == nil || len(rule.Security.AllowedFields) == 0 {
		return true
	}
	for _, allowed := range rule.Security.AllowedFields {
		if allowed == t {
			return true
		}
	}
	return false
}

// runBeforeFill executes the rule's before-fill handler. Unknown handler
// name defaults to allow; a handler error denies this pass only.
func (a *Applier) runBeforeFill(doc *goquery.Document, rule *models.SiteRule, report *models.ScanReport) bool {
	if rule.Handlers == nil || rule.Handlers.BeforeFill == "" {
		return true
	}
	handler, known := a.handlers[rule.Handlers.BeforeFill]
	if !known {
		a.logger.Debug("unknown before-fill handler, allowing", "handler", rule.Handlers.BeforeFill)
		return true
	}
	proceed, err := handler(doc)
	if err != nil {
		a.logger.Warn("before-fill handler failed, aborting pass", "handler", rule.Handlers.BeforeFill, "error", err)
		report.Aborted = true
		report.AbortReason = "before_fill_error"
		return false
	}
	if !proceed {
		report.Aborted = true
		report.AbortReason = "before_fill_blocked"
		return false
	}
	return true
}

func (a *Applier) runAfterFill(doc *goquery.Document, rule *models.SiteRule) {
	if rule.Handlers == nil || rule.Handlers.AfterFill == "" {
		return
	}
	handler, known := a.handlers[rule.Handlers.AfterFill]
	if !known {
		return
	}
	if _, err := handler(doc); err != nil {
		a.logger.Warn("after-fill handler failed", "handler", rule.Handlers.AfterFill, "error", err)
	}
}

// setValue writes a value into a control. Selects mark the matching option
// (by value, then by text) selected instead.
func setValue(sel *goquery.Selection, value string) {
	switch goquery.NodeName(sel) {
	case "select":
		sel.Find("option").RemoveAttr("selected")
		matched := false
		sel.Find("option").EachWithBreak(func(i int, opt *goquery.Selection) bool {
			if opt.AttrOr("value", "") == value {
				opt.SetAttr("selected", "selected")
				matched = true
				return false
			}
			return true
		})
		if !matched {
			sel.Find("option").EachWithBreak(func(i int, opt *goquery.Selection) bool {
				if opt.Text() == value {
					opt.SetAttr("selected", "selected")
					return false
				}
				return true
			})
		}
	case "textarea":
		sel.SetText(value)
	default:
		sel.SetAttr("value", value)
	}
}
