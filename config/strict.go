// Package config provides configuration types and utilities for the agent
// framework. This file adds typo/unknown-field detection on top of
// LoadConfigFromString's lenient YAML decoding.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldIssue names a single unrecognized or mistyped field encountered
// while strictly decoding a config document.
type FieldIssue struct {
	Field   string
	Message string
}

func (f FieldIssue) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

// StrictValidate decodes yamlContent with unknown-field rejection enabled
// and reports a rejection as a single FieldIssue whose Field is "(document)"
// and whose Message is the decoder's error text, without mutating or
// returning a Config. A document that decodes cleanly yields nil.
// Grounded on the same "did you mean X" class of config typo as
// pkg/config/strict_validator.go, simplified to yaml.v3's own
// KnownFields(true) decoder option rather than a bespoke reflection walk.
func StrictValidate(yamlContent string) []FieldIssue {
	dec := yaml.NewDecoder(strings.NewReader(yamlContent))
	dec.KnownFields(true)

	var cfg Config
	err := dec.Decode(&cfg)
	if err == nil {
		return nil
	}
	return []FieldIssue{{Field: "(document)", Message: err.Error()}}
}
