// Package rules implements the site-rule CLI commands: list, add, and
// remove custom rules, and show the rule that would apply to a URL.
package rules

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/formsense/formsense/models"
	"github.com/formsense/formsense/pkg/db"
	"github.com/formsense/formsense/pkg/siterules"
)

// ListAction prints built-in and custom rules.
func ListAction(c *cli.Context) error {
	custom, err := loadCustomRules(c)
	if err != nil {
		return err
	}
	builtin, err := siterules.BuiltinRules()
	if err != nil {
		return err
	}

	out := struct {
		Custom  []models.SiteRule `yaml:"custom"`
		Builtin []models.SiteRule `yaml:"builtin"`
	}{Custom: custom, Builtin: builtin}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// AddAction stores a custom rule read from a YAML file.
func AddAction(c *cli.Context) error {
	path := c.String("rule-file")
	if path == "" {
		return fmt.Errorf("no rule provided via --rule-file flag")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read rule file: %w", err)
	}
	var rule models.SiteRule
	if err := yaml.Unmarshal(data, &rule); err != nil {
		return fmt.Errorf("failed to parse rule file: %w", err)
	}
	if rule.Pattern == "" {
		return fmt.Errorf("rule file must set a pattern")
	}
	for selector, fr := range rule.Fields {
		if !models.IsValidFieldType(fr.Type) {
			return fmt.Errorf("rule field %q: unknown field type %q", selector, fr.Type)
		}
	}

	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.PutCustomRule(rule); err != nil {
		return err
	}
	fmt.Printf("Stored custom rule for pattern %q\n", rule.Pattern)
	return nil
}

// RemoveAction deletes a custom rule by pattern.
func RemoveAction(c *cli.Context) error {
	pattern := c.String("pattern")
	if pattern == "" {
		return fmt.Errorf("no pattern provided via --pattern flag")
	}

	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.DeleteCustomRule(pattern); err != nil {
		return err
	}
	fmt.Printf("Removed custom rule %q\n", pattern)
	return nil
}

// ShowAction prints the rule (and checkout step, if any) that would apply
// to a URL.
func ShowAction(c *cli.Context) error {
	pageURL := c.String("url")
	if pageURL == "" {
		return fmt.Errorf("no URL provided via --url flag")
	}

	custom, err := loadCustomRules(c)
	if err != nil {
		return err
	}
	engine, err := siterules.NewEngine(custom)
	if err != nil {
		return err
	}

	rule := engine.RulesFor(pageURL)
	if rule == nil {
		fmt.Println("No rule matches; defaults apply (no skip-list, no security caps).")
		return nil
	}

	out := struct {
		Rule *models.SiteRule     `json:"rule"`
		Step *models.CheckoutStep `json:"step,omitempty"`
	}{
		Rule: rule,
		Step: engine.MatchStep(rule, pageURL, c.String("step")),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rule: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func loadCustomRules(c *cli.Context) ([]models.SiteRule, error) {
	database, err := openDatabase(c)
	if err != nil {
		// No database yet means no custom rules, not a failure.
		return nil, nil
	}
	defer database.Close()
	return database.ListCustomRules()
}

func openDatabase(c *cli.Context) (*db.DB, error) {
	if path := c.String("db"); path != "" {
		return db.OpenAt(path)
	}
	return db.Open()
}
