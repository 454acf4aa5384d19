package crawler

import (
	"slices"
	"strings"
	"testing"
)

// mustPage parses html as if it were served from pageURL.
func mustPage(t *testing.T, pageURL, html string) *Page {
	t.Helper()

	page, err := NewPage(pageURL, strings.NewReader(html), "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("NewPage() error: %v", err)
	}
	return page
}

// TestVisibleText tests innerText-like rendering.
func TestVisibleText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "block elements break lines",
			html: `<body><p>one</p><div>two</div>three</body>`,
			want: "one\ntwo\nthree",
		},
		{
			name: "inline elements join",
			html: `<body><p>foo <b>bar</b>baz</p></body>`,
			want: "foo barbaz",
		},
		{
			name: "scripts, styles and hidden elements are skipped",
			html: `<body><script>var a = "x@y.io";</script><style>p{}</style>` +
				`<noscript>enable js</noscript><p hidden>h</p><p style="display: none">n</p><p>shown</p></body>`,
			want: "shown",
		},
		{
			name: "br and whitespace",
			html: "<body>a\n\n   b<br>c</body>",
			want: "a b\nc",
		},
		{
			name: "table cells",
			html: `<body><table><tr><td>a</td><td>b</td></tr></table></body>`,
			want: "a\tb",
		},
		{
			name: "head content is not visible",
			html: `<html><head><title>T</title></head><body>x</body></html>`,
			want: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page := mustPage(t, "https://example.com/", tt.html)
			if got := page.VisibleText(); got != tt.want {
				t.Errorf("VisibleText() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestInlineScripts tests collection of inline script bodies.
func TestInlineScripts(t *testing.T) {
	t.Parallel()

	page := mustPage(t, "https://example.com/", `<html><head><script>var a = 1;</script>`+
		`<script src="/ext.js">ignored</script></head><body><script> </script><script>var b = 2;</script></body></html>`)

	if got := page.InlineScripts(); got != "var a = 1;\nvar b = 2;" {
		t.Errorf("InlineScripts() = %q", got)
	}
}

// TestScriptURLs tests resolution, origin filtering and deduplication.
func TestScriptURLs(t *testing.T) {
	t.Parallel()

	t.Run("keeps same-origin scripts in order", func(t *testing.T) {
		t.Parallel()

		page := mustPage(t, "https://example.com/blog/post", `<html><body>
<script src="app.js"></script>
<script src="/static/lib.js#v1"></script>
<script src="https://example.com/static/lib.js#v2"></script>
<script src="https://cdn.example.net/x.js"></script>
<script src="http://example.com/insecure.js"></script>
<script src="//example.com/proto-relative.js"></script>
<script src="data:text/javascript,alert(1)"></script>
<script src=""></script>
</body></html>`)

		want := []string{
			"https://example.com/blog/app.js",
			"https://example.com/static/lib.js",
			"https://example.com/proto-relative.js",
		}
		if got := page.ScriptURLs(); !slices.Equal(got, want) {
			t.Errorf("ScriptURLs() = %v, want %v", got, want)
		}
	})

	t.Run("honors base href", func(t *testing.T) {
		t.Parallel()

		page := mustPage(t, "https://example.com/a/b", `<html><head><base href="/assets/"></head>`+
			`<body><script src="main.js"></script></body></html>`)

		want := []string{"https://example.com/assets/main.js"}
		if got := page.ScriptURLs(); !slices.Equal(got, want) {
			t.Errorf("ScriptURLs() = %v, want %v", got, want)
		}
	})
}

// TestNewPageCharset tests decoding of non-UTF-8 documents.
func TestNewPageCharset(t *testing.T) {
	t.Parallel()

	// "café" in ISO-8859-1.
	body := "<html><body>caf\xe9</body></html>"
	page, err := NewPage("https://example.com/", strings.NewReader(body), "text/html; charset=iso-8859-1")
	if err != nil {
		t.Fatalf("NewPage() error: %v", err)
	}
	if got := page.VisibleText(); got != "café" {
		t.Errorf("VisibleText() = %q, want %q", got, "café")
	}
}
