// Package report writes the collected items and the scan history.
//
// This package contains writers for different output formats:
//   - TextWriter: items one per line, history as an aligned table
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown for sharing
//
// The text format for items is the plain export format: items joined by
// newlines with no header and no trailing newline.
package report
