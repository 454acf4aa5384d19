package model

import "strings"

// Source identifies where a text block came from.
type Source string

const (
	// SourceVisible is the rendered text of the document body.
	SourceVisible Source = "visible"

	// SourceInlineScript is the concatenated body of every inline script.
	SourceInlineScript Source = "inline-script"

	// externalPrefix prefixes the URL of a fetched same-origin script.
	externalPrefix = "external:"
)

// ExternalSource returns the source tag for a fetched script URL.
func ExternalSource(url string) Source {
	return Source(externalPrefix + url)
}

// IsExternal reports whether the source is a fetched script.
func (s Source) IsExternal() bool {
	return strings.HasPrefix(string(s), externalPrefix)
}

// URL returns the script URL of an external source, or "" otherwise.
func (s Source) URL() string {
	if !s.IsExternal() {
		return ""
	}
	return strings.TrimPrefix(string(s), externalPrefix)
}

// TextBlock is one independent unit of text scanned with the full rule set.
type TextBlock struct {
	// Source tells where the text came from.
	Source Source `json:"source"`

	// Text is the block content.
	Text string `json:"-"`
}
