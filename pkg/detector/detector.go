// Package detector orchestrates field-type detection: it enumerates a
// document's form controls, runs signal collection and scoring, applies
// stored corrections, and caches results behind a processed marker so
// unchanged re-scans don't redo the work.
package detector

import (
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/formsense/formsense/models"
	"github.com/formsense/formsense/pkg/corrections"
	"github.com/formsense/formsense/pkg/scorer"
	"github.com/formsense/formsense/pkg/signals"
	"github.com/formsense/formsense/pkg/siterules"
)

// ProcessedAttr marks elements that already carry a cached result. A
// mutation clearing the mark re-qualifies the element for scoring.
const ProcessedAttr = "data-formsense-processed"

// Scoring is what the detector needs from a scorer. Satisfied by
// *scorer.Scorer; tests substitute counting wrappers.
type Scoring interface {
	Score(models.SignalBundle) models.ScoreMap
}

// Options tune detector behavior.
type Options struct {
	// IncludePassword lets password inputs through candidate filtering.
	IncludePassword bool
	Logger          *slog.Logger
}

// Detector classifies form controls. All collaborators are injected;
// there is no ambient discovery.
type Detector struct {
	score  Scoring
	store  *corrections.Store
	rules  *siterules.Engine
	opts   Options
	logger *slog.Logger

	// cache holds results for marked nodes so repeat scans skip scoring.
	// No-match outcomes are cached too; re-scoring a below-threshold
	// field without a mutation would waste the same work.
	cache map[*html.Node]cachedResult
}

type cachedResult struct {
	det     models.Detection
	matched bool
}

// New wires a detector from its collaborators. store and rules may be nil
// (no corrections, no site overrides).
func New(score Scoring, store *corrections.Store, rules *siterules.Engine, opts Options) *Detector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		score:  score,
		store:  store,
		rules:  rules,
		opts:   opts,
		logger: logger,
		cache:  make(map[*html.Node]cachedResult),
	}
}

// Candidates returns the document's detectable controls: inputs minus
// hidden/submit/button/reset/image/file (and password unless enabled),
// plus selects and textareas.
func (d *Detector) Candidates(doc *goquery.Document) *goquery.Selection {
	return doc.Find("input, select, textarea").FilterFunction(func(i int, s *goquery.Selection) bool {
		if goquery.NodeName(s) != "input" {
			return true
		}
		switch s.AttrOr("type", "text") {
		case "hidden", "submit", "button", "reset", "image", "file":
			return false
		case "password":
			return d.opts.IncludePassword
		}
		return true
	})
}

// DetectAll scans every candidate control in the document and returns the
// per-node detections. Elements the active site rule skips never appear in
// the output, whatever their raw score. Already-marked elements reuse their
// cached detection without re-invoking the scorer.
func (d *Detector) DetectAll(doc *goquery.Document, pageURL string) map[*html.Node]models.Detection {
	rule := d.activeRule(pageURL)
	collector := signals.NewCollector(doc, signals.NewPageContext(doc, pageURL))

	out := make(map[*html.Node]models.Detection)
	d.Candidates(doc).Each(func(i int, sel *goquery.Selection) {
		node := sel.Get(0)
		if node == nil {
			return
		}

		// Skip-check before scoring: no wasted work on excluded fields.
		if skip, _ := d.shouldSkip(rule, sel); skip {
			return
		}

		if _, marked := sel.Attr(ProcessedAttr); marked {
			if cached, ok := d.cache[node]; ok {
				if cached.matched {
					out[node] = cached.det
				}
				return
			}
		}

		det, ok := d.detectOne(collector, sel)
		sel.SetAttr(ProcessedAttr, "1")
		d.cache[node] = cachedResult{det: det, matched: ok}
		if ok {
			out[node] = det
		}
	})
	return out
}

// DetectFieldType classifies a single control, bypassing marker caching.
// Returns false when nothing meets the threshold and no correction exists.
func (d *Detector) DetectFieldType(doc *goquery.Document, sel *goquery.Selection, pageURL string) (models.Detection, bool) {
	collector := signals.NewCollector(doc, signals.NewPageContext(doc, pageURL))
	return d.detectOne(collector, sel)
}

// detectOne runs collect -> score -> threshold -> correction override.
func (d *Detector) detectOne(collector *signals.Collector, sel *goquery.Selection) (models.Detection, bool) {
	bundle := collector.Collect(sel)
	sigKey := corrections.Signature(bundle)

	scores := d.score.Score(bundle)
	if d.store != nil {
		for ft, base := range scores {
			scores[ft] = scorer.Clamp(d.store.Boost(sigKey, ft, base))
		}
	}

	best, bestScore := scores.Best()

	// A stored correction wins over whatever the scorer picked, at
	// highest trust, even when the raw score is below threshold.
	if d.store != nil {
		if c, ok := d.store.Lookup(sigKey); ok {
			return models.Detection{
				Type:       c.CorrectedType,
				Score:      scorer.Clamp(scores[c.CorrectedType]),
				Confidence: models.ConfidenceLearned,
				Learned:    true,
			}, true
		}
	}

	if best == "" || bestScore < scorer.Threshold {
		return models.Detection{}, false
	}
	return models.Detection{
		Type:       best,
		Score:      bestScore,
		Confidence: scorer.ConfidenceFor(bestScore),
	}, true
}

// RecordCorrection stores a user correction for a control and drops its
// cached detection so the next scan reflects the override.
func (d *Detector) RecordCorrection(doc *goquery.Document, sel *goquery.Selection, detected, corrected models.FieldType, pageURL string) models.Correction {
	collector := signals.NewCollector(doc, signals.NewPageContext(doc, pageURL))
	bundle := collector.Collect(sel)

	if node := sel.Get(0); node != nil {
		delete(d.cache, node)
		sel.RemoveAttr(ProcessedAttr)
	}
	var c models.Correction
	if d.store != nil {
		c = d.store.Record(bundle, detected, corrected)
	}
	return c
}

// ShouldSkipField answers the external skip query for one element under the
// rule active for pageURL.
func (d *Detector) ShouldSkipField(sel *goquery.Selection, pageURL string) bool {
	skip, _ := d.shouldSkip(d.activeRule(pageURL), sel)
	return skip
}

// SkipReason returns the reason an element is skipped, or "".
func (d *Detector) SkipReason(sel *goquery.Selection, pageURL string) string {
	_, reason := d.shouldSkip(d.activeRule(pageURL), sel)
	return reason
}

// ClearProcessed removes processed marks and cached results under root.
// The rescan scheduler calls this for mutation-affected subtrees.
func (d *Detector) ClearProcessed(root *goquery.Selection) {
	root.Find("[" + ProcessedAttr + "]").Each(func(i int, s *goquery.Selection) {
		s.RemoveAttr(ProcessedAttr)
		if node := s.Get(0); node != nil {
			delete(d.cache, node)
		}
	})
}

func (d *Detector) activeRule(pageURL string) *models.SiteRule {
	if d.rules == nil {
		return nil
	}
	return d.rules.EffectiveRule(pageURL, "")
}

func (d *Detector) shouldSkip(rule *models.SiteRule, sel *goquery.Selection) (bool, string) {
	if d.rules == nil {
		return false, ""
	}
	return d.rules.ShouldSkip(rule, sel)
}
