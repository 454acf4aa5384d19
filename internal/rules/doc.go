// Package rules validates and compiles operator-authored rules into matchers.
//
// Compile never fails as a whole: a disabled rule, a blank pattern or a
// pattern that does not compile is dropped from the result and, in the last
// case, reported through the configured logger. All patterns are compiled
// case-insensitively; callers find every match with FindAllString(text, -1).
//
// Patterns use Go's RE2 syntax. Constructs RE2 does not support (for example
// look-behind assertions) make a rule invalid, and it is skipped like any
// other invalid rule.
package rules
