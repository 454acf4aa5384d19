package rules

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/nao1215/harvester/internal/model"
)

// CompiledRule is an executable rule. It only exists for the duration of one scan.
type CompiledRule struct {
	// Name is the name of the source rule.
	Name string

	// Matcher is the case-insensitive compiled pattern.
	Matcher *regexp.Regexp
}

// compileOptions configures Compile.
type compileOptions struct {
	logger *slog.Logger
	cache  *Cache
}

// Option configures Compile.
type Option func(*compileOptions)

// WithLogger sets the logger that receives invalid-rule diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *compileOptions) {
		o.logger = logger
	}
}

// WithCache memoizes compiled patterns across calls.
func WithCache(cache *Cache) Option {
	return func(o *compileOptions) {
		o.cache = cache
	}
}

// Compile turns rules into compiled rules, preserving relative order.
// Disabled rules, blank patterns and patterns that fail to compile are
// skipped. The result may be empty but is never nil.
func Compile(rules []model.Rule, opts ...Option) []CompiledRule {
	o := compileOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	compiled := make([]CompiledRule, 0, len(rules))
	for _, r := range rules {
		if !r.Enabled || r.IsBlank() {
			continue
		}

		re, err := o.compile(r.Pattern)
		if err != nil {
			o.logger.Warn("skipping invalid rule",
				"rule", r.Name,
				"error", err,
			)
			continue
		}

		compiled = append(compiled, CompiledRule{Name: r.Name, Matcher: re})
	}

	return compiled
}

// compile compiles one pattern, going through the cache when one is set.
func (o *compileOptions) compile(pattern string) (*regexp.Regexp, error) {
	if o.cache != nil {
		return o.cache.Compile(pattern)
	}
	return compilePattern(pattern)
}

// compilePattern compiles pattern case-insensitively.
// The pattern is used as written; only the (?i) flag is added.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}

// Active returns the enabled rules with a non-blank pattern.
func Active(rules []model.Rule) []model.Rule {
	active := make([]model.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled && !r.IsBlank() {
			active = append(active, r)
		}
	}
	return active
}

// NonEmpty returns every rule with a non-blank pattern, enabled or not.
// Disabled rules are kept so they can be re-enabled later.
func NonEmpty(rules []model.Rule) []model.Rule {
	kept := make([]model.Rule, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Pattern) != "" {
			kept = append(kept, r)
		}
	}
	return kept
}
