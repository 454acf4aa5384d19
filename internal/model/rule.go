package model

import (
	"encoding/json"
	"strings"
)

// Rule is a named extraction pattern authored by the operator.
//
// Pattern is kept verbatim. It may be empty or not compile at all; such a
// rule is inert and is simply skipped when a scan compiles its rule set.
type Rule struct {
	// Name is the display name of the rule (e.g. "email").
	Name string `json:"name" yaml:"name"`

	// Pattern is the regular expression source. It is stored under the
	// "regex" key to stay compatible with previously persisted rule lists.
	Pattern string `json:"regex" yaml:"regex"`

	// Enabled reports whether the rule takes part in scans.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// ruleJSON mirrors Rule with an optional enabled flag.
type ruleJSON struct {
	Name    string `json:"name"`
	Pattern string `json:"regex"`
	Enabled *bool  `json:"enabled"`
}

// UnmarshalJSON decodes a rule. Rules saved before the enabled flag existed
// have no "enabled" key and are treated as enabled.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw ruleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Name = raw.Name
	r.Pattern = raw.Pattern
	r.Enabled = raw.Enabled == nil || *raw.Enabled
	return nil
}

// IsBlank reports whether the pattern is empty after trimming whitespace.
func (r Rule) IsBlank() bool {
	return strings.TrimSpace(r.Pattern) == ""
}

// CloneRules returns a copy of rules that shares no backing array with the input.
// A nil input yields an empty, non-nil slice so that JSON output is [] rather than null.
func CloneRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
