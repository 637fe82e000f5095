package models

// FieldReport describes one control's outcome in a scan, in the shape a UI
// layer (or the CLI) renders without re-running detection.
type FieldReport struct {
	Name       string     `json:"name,omitempty" yaml:"name,omitempty"`
	ID         string     `json:"id,omitempty" yaml:"id,omitempty"`
	Tag        string     `json:"tag" yaml:"tag"`
	InputType  string     `json:"input_type,omitempty" yaml:"input_type,omitempty"`
	Label      string     `json:"label,omitempty" yaml:"label,omitempty"`
	Type       FieldType  `json:"type,omitempty" yaml:"type,omitempty"`
	Score      int        `json:"score,omitempty" yaml:"score,omitempty"`
	Confidence Confidence `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Learned    bool       `json:"learned,omitempty" yaml:"learned,omitempty"`
	Skipped    bool       `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	SkipReason string     `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	Filled     bool       `json:"filled,omitempty" yaml:"filled,omitempty"`
}

// ScanReport is the full result of scanning (and optionally filling) one
// page.
type ScanReport struct {
	URL           string        `json:"url" yaml:"url"`
	Title         string        `json:"title,omitempty" yaml:"title,omitempty"`
	Language      string        `json:"language,omitempty" yaml:"language,omitempty"`
	RuleApplied   string        `json:"rule_applied,omitempty" yaml:"rule_applied,omitempty"`
	Fields        []FieldReport `json:"fields" yaml:"fields"`
	DetectedCount int           `json:"detected_count" yaml:"detected_count"`
	SkippedCount  int           `json:"skipped_count" yaml:"skipped_count"`
	FilledCount   int           `json:"filled_count,omitempty" yaml:"filled_count,omitempty"`
	Aborted       bool          `json:"aborted,omitempty" yaml:"aborted,omitempty"`
	AbortReason   string        `json:"abort_reason,omitempty" yaml:"abort_reason,omitempty"`
}
