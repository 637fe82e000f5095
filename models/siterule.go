package models

// FieldRule maps one CSS selector inside a site rule to a field type.
type FieldRule struct {
	Type      FieldType `json:"type" yaml:"type"`
	Priority  int       `json:"priority,omitempty" yaml:"priority,omitempty"`
	Sensitive bool      `json:"sensitive,omitempty" yaml:"sensitive,omitempty"`
	Format    string    `json:"format,omitempty" yaml:"format,omitempty"`
}

// SecurityRule caps what the applier may do on sensitive domains. These are
// best-effort UX guards, not a trust boundary.
type SecurityRule struct {
	// MaxFields caps how many fields one fill pass may write; excess
	// fields are dropped, never queued. 0 means no cap.
	MaxFields int `json:"max_fields,omitempty" yaml:"max_fields,omitempty"`
	// AllowedFields, when non-empty, is an allow-list overriding any
	// detector result.
	AllowedFields []FieldType `json:"allowed_fields,omitempty" yaml:"allowed_fields,omitempty"`
	// RestrictedFields names low-level types (password, ssn, cardNumber,
	// cvv) that must never be filled, matched by attribute sniffing
	// independent of the main detector.
	RestrictedFields []string `json:"restricted_fields,omitempty" yaml:"restricted_fields,omitempty"`
}

// DelayRule paces autofill so batched writes don't land all at once and
// dynamic pages have time to settle. Values in milliseconds.
type DelayRule struct {
	BetweenFields int `json:"between_fields,omitempty" yaml:"between_fields,omitempty"`
	BeforeFill    int `json:"before_fill,omitempty" yaml:"before_fill,omitempty"`
}

// HandlerRule names registered custom handlers to run around a fill pass.
type HandlerRule struct {
	BeforeFill string `json:"before_fill,omitempty" yaml:"before_fill,omitempty"`
	AfterFill  string `json:"after_fill,omitempty" yaml:"after_fill,omitempty"`
}

// CheckoutStep is one state in a linear multi-step flow. Transitions are
// URL navigations; backward transitions are not modeled.
type CheckoutStep struct {
	Name       string               `json:"name" yaml:"name"`
	URLPattern string               `json:"url_pattern" yaml:"url_pattern"`
	Fields     map[string]FieldRule `json:"fields,omitempty" yaml:"fields,omitempty"`
	SkipFields []string             `json:"skip_fields,omitempty" yaml:"skip_fields,omitempty"`
	// WaitAfter is the pause in milliseconds before the next step's fill.
	WaitAfter int `json:"wait_after,omitempty" yaml:"wait_after,omitempty"`
}

// CheckoutFlow lists the ordered steps of a multi-page checkout.
type CheckoutFlow struct {
	Steps []CheckoutStep `json:"steps" yaml:"steps"`
}

// SiteRule is a per-hostname override: field mappings, skip-lists,
// multi-step flows, and security caps. Pattern is a hostname substring or a
// glob with '*'. Built-in rules cover well-known domains; user rules take
// precedence.
type SiteRule struct {
	Pattern    string               `json:"pattern" yaml:"pattern"`
	Fields     map[string]FieldRule `json:"fields,omitempty" yaml:"fields,omitempty"`
	SkipFields []string             `json:"skip_fields,omitempty" yaml:"skip_fields,omitempty"`
	Security   *SecurityRule        `json:"security,omitempty" yaml:"security,omitempty"`
	Delays     *DelayRule           `json:"delays,omitempty" yaml:"delays,omitempty"`
	Checkout   *CheckoutFlow        `json:"checkout,omitempty" yaml:"checkout,omitempty"`
	Handlers   *HandlerRule         `json:"handlers,omitempty" yaml:"handlers,omitempty"`
}
