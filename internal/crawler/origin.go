package crawler

import (
	"net/url"
	"strings"
)

// defaultPorts maps schemes to the port implied when a URL omits it.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Origin returns the origin of u as scheme://host:port, with the scheme and
// host lowercased and the default port filled in. It returns "" for URLs
// that have no host.
func Origin(u *url.URL) string {
	if u == nil || u.Host == "" {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	port := u.Port()
	if port == "" {
		port = defaultPorts[scheme]
	}
	return scheme + "://" + strings.ToLower(u.Hostname()) + ":" + port
}

// SameOrigin reports whether a and b share scheme, host and port.
func SameOrigin(a, b *url.URL) bool {
	oa := Origin(a)
	return oa != "" && oa == Origin(b)
}

// isHTTP reports whether u uses http or https.
func isHTTP(u *url.URL) bool {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}

// normalizeURL returns u without its fragment and with a lowercased scheme
// and host, for deduplication. The path is left untouched.
func normalizeURL(u *url.URL) *url.URL {
	n := *u
	n.Fragment = ""
	n.RawFragment = ""
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)
	return &n
}
