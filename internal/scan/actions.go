// Package scan implements the scan and fill CLI commands: fetch or read a
// page, run detection, optionally autofill from a profile, and emit a
// report.
package scan

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/formsense/formsense/models"
	"github.com/formsense/formsense/pkg/applier"
	"github.com/formsense/formsense/pkg/caching"
	"github.com/formsense/formsense/pkg/corrections"
	"github.com/formsense/formsense/pkg/db"
	"github.com/formsense/formsense/pkg/detector"
	"github.com/formsense/formsense/pkg/fetcher"
	"github.com/formsense/formsense/pkg/patterns"
	"github.com/formsense/formsense/pkg/scorer"
	"github.com/formsense/formsense/pkg/signals"
	"github.com/formsense/formsense/pkg/siterules"
)

// ScanAction detects fields on a page and prints a report.
func ScanAction(c *cli.Context) error {
	logger := newLogger(c)

	doc, pageURL, err := loadDocument(c, logger)
	if err != nil {
		return err
	}

	engine, err := buildEngine(c, logger)
	if err != nil {
		return err
	}

	defer engine.Close()

	report := buildReport(engine.detector, engine.rules, doc, pageURL)
	return emitReport(c, report)
}

// FillAction detects fields and fills them from a profile, then prints the
// filled document or a report.
func FillAction(c *cli.Context) error {
	logger := newLogger(c)

	profilePath := c.String("profile")
	if profilePath == "" {
		return fmt.Errorf("no profile provided via --profile flag")
	}
	profile, err := models.LoadProfile(profilePath)
	if err != nil {
		return err
	}

	doc, pageURL, err := loadDocument(c, logger)
	if err != nil {
		return err
	}

	engine, err := buildEngine(c, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	app := applier.New(engine.detector, engine.rules, applier.Options{
		Handlers: builtinHandlers(),
		Logger:   logger,
	})
	report := app.Fill(doc, pageURL, profile)

	if c.Bool("print-html") {
		html, err := doc.Html()
		if err != nil {
			return fmt.Errorf("failed to render filled document: %w", err)
		}
		fmt.Println(html)
		return nil
	}
	return emitReport(c, report)
}

// wiring holds the assembled detection stack for one command invocation.
type wiring struct {
	detector *detector.Detector
	rules    *siterules.Engine
	store    *corrections.Store
	database *db.DB
}

// Close waits for in-flight correction writes, then releases the database.
func (w *wiring) Close() {
	w.store.Flush()
	if w.database != nil {
		w.database.Close()
	}
}

// buildEngine wires the detection stack: pattern library, correction store
// (retrained against the library at startup), site rules with custom rules
// from the database, and the detector itself. Database failures degrade to
// memory-only operation.
func buildEngine(c *cli.Context, logger *slog.Logger) (*wiring, error) {
	lib := patterns.Default()

	var persister corrections.Persister
	var custom []models.SiteRule

	database, err := openDatabase(c)
	if err != nil {
		logger.Warn("database unavailable, continuing without persisted state", "error", err)
		database = nil
	} else {
		persister = database
		custom, err = database.ListCustomRules()
		if err != nil {
			logger.Warn("failed to load custom rules", "error", err)
			custom = nil
		}
	}

	store := corrections.NewStore(persister, logger)
	store.Retrain(lib)

	rules, err := siterules.NewEngine(custom)
	if err != nil {
		if database != nil {
			database.Close()
		}
		return nil, err
	}

	det := detector.New(scorer.New(lib), store, rules, detector.Options{
		IncludePassword: c.Bool("include-password"),
		Logger:          logger,
	})
	return &wiring{detector: det, rules: rules, store: store, database: database}, nil
}

// buildReport runs DetectAll plus the per-field skip reasons into the
// status shape the CLI (and any UI layer) renders.
func buildReport(det *detector.Detector, rules *siterules.Engine, doc *goquery.Document, pageURL string) *models.ScanReport {
	page := signals.NewPageContext(doc, pageURL)
	collector := signals.NewCollector(doc, page)
	report := &models.ScanReport{
		URL:      pageURL,
		Title:    page.Title,
		Language: page.Language,
	}
	if rule := rules.EffectiveRule(pageURL, ""); rule != nil {
		report.RuleApplied = rule.Pattern
	}

	detections := det.DetectAll(doc, pageURL)
	det.Candidates(doc).Each(func(i int, sel *goquery.Selection) {
		node := sel.Get(0)
		if node == nil {
			return
		}
		field := models.FieldReport{
			Name:      sel.AttrOr("name", ""),
			ID:        sel.AttrOr("id", ""),
			Tag:       goquery.NodeName(sel),
			InputType: sel.AttrOr("type", ""),
			Label:     collector.Label(sel),
		}
		if reason := det.SkipReason(sel, pageURL); reason != "" {
			field.Skipped = true
			field.SkipReason = reason
			report.SkippedCount++
		} else if d, ok := detections[node]; ok {
			field.Type = d.Type
			field.Score = d.Score
			field.Confidence = d.Confidence
			field.Learned = d.Learned
			report.DetectedCount++
		}
		report.Fields = append(report.Fields, field)
	})
	return report
}

// loadDocument reads the page from --file or fetches --url, caching
// fetched HTML so repeat scans of the same page skip the network.
func loadDocument(c *cli.Context, logger *slog.Logger) (*goquery.Document, string, error) {
	if path := c.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read HTML file: %w", err)
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse HTML: %w", err)
		}
		pageURL := c.String("url")
		if pageURL == "" {
			pageURL = "file://" + path
		}
		return doc, pageURL, nil
	}

	pageURL := c.String("url")
	if pageURL == "" {
		return nil, "", fmt.Errorf("no page provided via --url or --file")
	}

	var raw []byte
	cache, err := caching.NewCache(c.String("cache-dir"), c.Duration("max-age"))
	if err != nil {
		logger.Warn("cache unavailable, fetching directly", "error", err)
		cache = nil
	}
	if cache != nil {
		if data, hit := cache.Get(pageURL); hit {
			logger.Info("using cached page", "url", pageURL)
			raw = data
		}
	}
	if raw == nil {
		f := fetcher.NewFetcher()
		raw, err = f.GetHtmlBytes(c.Context, pageURL)
		if err != nil {
			return nil, "", err
		}
		if cache != nil {
			if err := cache.Set(pageURL, raw); err != nil {
				logger.Warn("failed to cache page", "url", pageURL, "error", err)
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, pageURL, nil
}

func openDatabase(c *cli.Context) (*db.DB, error) {
	if path := c.String("db"); path != "" {
		return db.OpenAt(path)
	}
	return db.Open()
}

func emitReport(c *cli.Context, report *models.ScanReport) error {
	var data []byte
	var err error
	if c.String("format") == "yaml" {
		data, err = yaml.Marshal(report)
	} else {
		data, err = json.MarshalIndent(report, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func newLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// builtinHandlers is the registry of named hooks built-in rules reference.
func builtinHandlers() map[string]applier.HandlerFunc {
	return map[string]applier.HandlerFunc{
		// checkCaptcha blocks filling when a CAPTCHA widget is present.
		"checkCaptcha": func(doc *goquery.Document) (bool, error) {
			blocked := doc.Find("iframe[src*='recaptcha'], div.g-recaptcha, div.h-captcha, [id*='captcha']").Length() > 0
			return !blocked, nil
		},
	}
}

// Flags shared by scan and fill.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "url", Usage: "page URL to fetch and scan"},
		&cli.StringFlag{Name: "file", Usage: "local HTML file to scan"},
		&cli.StringFlag{Name: "db", Usage: "path to the state database (default: next to the binary)"},
		&cli.StringFlag{Name: "cache-dir", Value: "cache", Usage: "directory for fetched-page cache"},
		&cli.DurationFlag{Name: "max-age", Value: 1 * time.Hour, Usage: "max age before a cached page is refetched"},
		&cli.StringFlag{Name: "format", Value: "json", Usage: "report format: json or yaml"},
		&cli.BoolFlag{Name: "include-password", Usage: "include password inputs in detection"},
		&cli.BoolFlag{Name: "quiet", Usage: "only log errors"},
	}
}
