package rules

import (
	"errors"

	"github.com/nao1215/harvester/internal/model"
)

// ErrNoActiveRule is returned when a run is started without any enabled,
// non-blank rule. It is a UI-level validation error; the controller itself
// never sees such a start request.
var ErrNoActiveRule = errors.New("enable at least one rule with a non-empty pattern")

// Default patterns offered to a new installation.
const (
	EmailPattern = `([a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9._-]+)`
	PhonePattern = `(\+?\d{1,3}[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}`
)

// Defaults returns the rule set used when nothing has been saved yet.
func Defaults() []model.Rule {
	return []model.Rule{
		{Name: "email", Pattern: EmailPattern, Enabled: true},
		{Name: "phone", Pattern: PhonePattern, Enabled: true},
	}
}

// ValidateStart reports ErrNoActiveRule when no rule is both enabled and
// non-blank.
func ValidateStart(rules []model.Rule) error {
	if len(Active(rules)) == 0 {
		return ErrNoActiveRule
	}
	return nil
}

// PrepareStart applies the start-button policy: blank rules are dropped,
// and at least one remaining rule must be enabled. Disabled rules are kept
// in the returned list so they are persisted for later re-enabling.
func PrepareStart(rules []model.Rule) ([]model.Rule, error) {
	kept := NonEmpty(rules)
	if err := ValidateStart(kept); err != nil {
		return nil, err
	}
	return kept, nil
}
