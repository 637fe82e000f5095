package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a named set of values to fill by field type. The engine never
// stores profile data itself; profiles live in user-owned YAML files.
type Profile struct {
	Name   string               `yaml:"name"`
	Values map[FieldType]string `yaml:"values"`
}

// Value returns the profile value for a field type, or "" when absent.
func (p *Profile) Value(t FieldType) string {
	if p == nil || p.Values == nil {
		return ""
	}
	return p.Values[t]
}

// LoadProfile reads a profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	for t := range p.Values {
		if !IsValidFieldType(t) {
			return nil, fmt.Errorf("profile %q: unknown field type %q", p.Name, t)
		}
	}
	return &p, nil
}

// SaveProfile writes a profile to a YAML file.
func SaveProfile(path string, p *Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}
