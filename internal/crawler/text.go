package crawler

import (
	"strings"

	"golang.org/x/net/html"
)

// skippedElements are never rendered.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"iframe":   true,
	"object":   true,
	"svg":      true,
}

// blockElements start and end on their own line.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "details": true, "dialog": true, "div": true, "dl": true,
	"dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "summary": true, "table": true,
	"tr": true, "ul": true, "caption": true, "option": true,
}

// cellElements are separated by a tab, like table cells in innerText.
var cellElements = map[string]bool{
	"td": true,
	"th": true,
}

// renderText approximates innerText for the subtree rooted at n.
// Whitespace runs collapse to a single space outside <pre>; each output line
// is trimmed and empty lines are dropped.
func renderText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				b.WriteString(n.Data)
			} else {
				b.WriteString(collapseSpace(n.Data))
			}
			return
		case html.ElementNode:
			if skippedElements[n.Data] || isHidden(n) {
				return
			}
			switch {
			case n.Data == "br":
				b.WriteByte('\n')
				return
			case blockElements[n.Data]:
				b.WriteByte('\n')
				defer b.WriteByte('\n')
			case cellElements[n.Data]:
				defer b.WriteByte('\t')
			}
			pre = pre || n.Data == "pre" || n.Data == "textarea"
		case html.CommentNode:
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, pre)
		}
	}
	walk(n, false)

	lines := strings.Split(b.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(strings.ReplaceAll(line, "\u00a0", " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// collapseSpace replaces every run of ASCII whitespace with one space,
// keeping a leading or trailing space so adjacent inline text stays apart.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
		default:
			b.WriteRune(r)
			inSpace = false
		}
	}
	return b.String()
}

// isHidden reports whether n is hidden through the hidden attribute or an
// inline display:none style.
func isHidden(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "hidden":
			return true
		case "style":
			style := strings.ReplaceAll(strings.ToLower(attr.Val), " ", "")
			if strings.Contains(style, "display:none") {
				return true
			}
		}
	}
	return false
}
