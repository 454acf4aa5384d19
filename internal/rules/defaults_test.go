package rules

import (
	"errors"
	"testing"

	"github.com/nao1215/harvester/internal/model"
)

// TestDefaults tests the default rule set.
func TestDefaults(t *testing.T) {
	t.Parallel()

	compiled := Compile(Defaults())
	if len(compiled) != 2 {
		t.Fatalf("expected both default rules to compile, got %d", len(compiled))
	}

	email := compiled[0].Matcher.FindAllString("write to alice@example.com today", -1)
	if len(email) != 1 || email[0] != "alice@example.com" {
		t.Errorf("email matches = %v", email)
	}

	phone := compiled[1].Matcher.FindAllString("call 555-123-4567 now", -1)
	if len(phone) != 1 || phone[0] != "555-123-4567" {
		t.Errorf("phone matches = %v", phone)
	}
}

// TestPrepareStart tests the start validation policy.
func TestPrepareStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rules   []model.Rule
		wantLen int
		wantErr error
	}{
		{
			name:    "no rules",
			rules:   nil,
			wantErr: ErrNoActiveRule,
		},
		{
			name: "only disabled rules",
			rules: []model.Rule{
				{Name: "a", Pattern: "x", Enabled: false},
				{Name: "b", Pattern: "y", Enabled: false},
			},
			wantErr: ErrNoActiveRule,
		},
		{
			name: "enabled rule with blank pattern",
			rules: []model.Rule{
				{Name: "a", Pattern: " ", Enabled: true},
			},
			wantErr: ErrNoActiveRule,
		},
		{
			name: "keeps disabled rules next to an enabled one",
			rules: []model.Rule{
				{Name: "a", Pattern: "x", Enabled: true},
				{Name: "b", Pattern: "y", Enabled: false},
				{Name: "c", Pattern: "", Enabled: true},
			},
			wantLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := PrepareStart(tt.rules)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PrepareStart() error = %v, want %v", err, tt.wantErr)
			}
			if len(got) != tt.wantLen {
				t.Errorf("PrepareStart() returned %d rules, want %d", len(got), tt.wantLen)
			}
		})
	}
}
