package models

import "time"

// Correction records a user overriding a detected type. Keyed by the derived
// element signature, never by a live element reference: nodes are recreated
// across page loads, signatures survive as long as the underlying
// name/id/label/position do. When those attributes are absent or
// regenerated per load the signature is not stable either; that fragility
// is inherent to the scheme, not something to paper over.
type Correction struct {
	Signature     string       `json:"signature" yaml:"signature"`
	DetectedType  FieldType    `json:"detected_type" yaml:"detected_type"`
	CorrectedType FieldType    `json:"corrected_type" yaml:"corrected_type"`
	Timestamp     time.Time    `json:"timestamp" yaml:"timestamp"`
	Signals       SignalBundle `json:"signals" yaml:"signals"`
}
