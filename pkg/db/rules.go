package db

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/formsense/formsense/models"
)

// ListCustomRules loads all user-authored site rules.
func (db *DB) ListCustomRules() ([]models.SiteRule, error) {
	rows, err := db.Query("SELECT pattern, rule_yaml FROM custom_site_rules ORDER BY pattern")
	if err != nil {
		return nil, fmt.Errorf("failed to load custom rules: %w", err)
	}
	defer rows.Close()

	var rules []models.SiteRule
	for rows.Next() {
		var pattern, ruleYAML string
		if err := rows.Scan(&pattern, &ruleYAML); err != nil {
			return nil, fmt.Errorf("failed to scan custom rule: %w", err)
		}
		var rule models.SiteRule
		if err := yaml.Unmarshal([]byte(ruleYAML), &rule); err != nil {
			return nil, fmt.Errorf("failed to parse custom rule %q: %w", pattern, err)
		}
		rule.Pattern = pattern
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read custom rules: %w", err)
	}
	return rules, nil
}

// PutCustomRule inserts or replaces a custom rule keyed by its pattern.
func (db *DB) PutCustomRule(rule models.SiteRule) error {
	if rule.Pattern == "" {
		return fmt.Errorf("custom rule needs a pattern")
	}
	data, err := yaml.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to marshal rule: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO custom_site_rules (pattern, rule_yaml, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(pattern) DO UPDATE SET rule_yaml = excluded.rule_yaml, updated_at = CURRENT_TIMESTAMP
	`, rule.Pattern, string(data))
	if err != nil {
		return fmt.Errorf("failed to save custom rule: %w", err)
	}
	return nil
}

// DeleteCustomRule removes a custom rule by pattern. Deleting a missing
// pattern is not an error.
func (db *DB) DeleteCustomRule(pattern string) error {
	if _, err := db.Exec("DELETE FROM custom_site_rules WHERE pattern = ?", pattern); err != nil {
		return fmt.Errorf("failed to delete custom rule: %w", err)
	}
	return nil
}
