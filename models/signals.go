package models

import "strings"

// AttributeSet is the read-only snapshot of a form control's static
// attributes. The document owns the element; this is derived data.
type AttributeSet struct {
	Name         string `json:"name,omitempty"`
	ID           string `json:"id,omitempty"`
	Class        string `json:"class,omitempty"`
	Placeholder  string `json:"placeholder,omitempty"`
	Type         string `json:"type,omitempty"`
	Autocomplete string `json:"autocomplete,omitempty"`
	AriaLabel    string `json:"aria_label,omitempty"`
}

// Joined concatenates all textual attributes, lowercased, for fuzzy
// matching.
func (a AttributeSet) Joined() string {
	parts := []string{a.Name, a.ID, a.Class, a.Placeholder, a.Type, a.Autocomplete, a.AriaLabel}
	return strings.ToLower(strings.Join(parts, " "))
}

// Identifiers concatenates the token-like attributes, lowercased, for
// exact substring matching. Placeholder prose stays out: "Enter your ZIP"
// is a hint, not an identifier, and belongs to the fuzzy and value tiers.
func (a AttributeSet) Identifiers() string {
	parts := []string{a.Name, a.ID, a.Class, a.Type, a.Autocomplete, a.AriaLabel}
	return strings.ToLower(strings.Join(parts, " "))
}

// ContextSignals holds text surrounding the control plus page-level context.
type ContextSignals struct {
	Label      string   `json:"label,omitempty"`
	ParentText string   `json:"parent_text,omitempty"`
	PageTitle  string   `json:"page_title,omitempty"`
	Headings   []string `json:"headings,omitempty"`
	SiteName   string   `json:"site_name,omitempty"`
	Language   string   `json:"language,omitempty"` // ISO 639-1, empty when undetected
}

// StructureSignals describe where the control sits in the document.
type StructureSignals struct {
	TagName   string `json:"tag_name"`
	FormClass string `json:"form_class,omitempty"`
	Legend    string `json:"legend,omitempty"`
	// Position is the control's index among the form's controls (document
	// order), or its index among all controls when there is no form.
	Position int `json:"position"`
}

// VisualSignals are best-effort layout hints. A detached or not-yet-rendered
// element legitimately yields zero values.
type VisualSignals struct {
	Width  int  `json:"width,omitempty"`
	Height int  `json:"height,omitempty"`
	Hidden bool `json:"hidden,omitempty"`
}

// BehavioralSignals capture interaction state at collection time.
type BehavioralSignals struct {
	Value     string `json:"value,omitempty"`
	HasValue  bool   `json:"has_value,omitempty"`
	Required  bool   `json:"required,omitempty"`
	Autofocus bool   `json:"autofocus,omitempty"`
}

// SignalBundle is the full set of signals collected for one control.
// Computed fresh per detection call and discarded; never persisted except
// as part of a Correction.
type SignalBundle struct {
	Attributes AttributeSet      `json:"attributes"`
	Context    ContextSignals    `json:"context"`
	Structure  StructureSignals  `json:"structure"`
	Visual     VisualSignals     `json:"visual"`
	Behavioral BehavioralSignals `json:"behavioral"`
}
