package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// DefaultMaxBodySize caps response bodies when no limit is configured.
const DefaultMaxBodySize int64 = 10 * 1024 * 1024

// Fetcher performs single GET requests for pages and scripts.
// It is safe for concurrent use.
type Fetcher struct {
	// client performs the requests. Its timeout bounds every fetch.
	client *http.Client

	// maxBodySize limits how much of a response body is read.
	maxBodySize int64

	// timeout, when positive, bounds each request in addition to the client timeout.
	timeout time.Duration

	// limiter paces requests. Nil means unpaced.
	limiter *rate.Limiter

	// sameOrigin refuses redirects that leave the origin of the first request.
	sameOrigin bool
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithMaxBodySize sets the maximum number of body bytes read per response.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRequestTimeout bounds each request.
func WithRequestTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithRateLimiter paces all requests made by the fetcher.
func WithRateLimiter(l *rate.Limiter) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithSameOriginRedirects refuses any redirect hop whose origin differs
// from the originally requested URL. The refused hop is never requested.
func WithSameOriginRedirects() FetcherOption {
	return func(f *Fetcher) {
		f.sameOrigin = true
	}
}

// NewFetcher creates a Fetcher around client. The client carries the
// transport policy (proxy, headers, timeout); see the transport package.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	f := &Fetcher{
		client:      client,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.sameOrigin {
		f.client = sameOriginClient(f.client)
	}
	return f
}

// SameOriginOnly returns a copy of f that refuses cross-origin redirects.
// It returns f itself when f already does.
func (f *Fetcher) SameOriginOnly() *Fetcher {
	if f.sameOrigin {
		return f
	}
	g := *f
	g.sameOrigin = true
	g.client = sameOriginClient(f.client)
	return &g
}

// maxRedirects matches net/http's default redirect limit.
const maxRedirects = 10

// sameOriginClient returns a shallow copy of client whose redirect policy
// also rejects hops to another origin. The original policy still applies
// to same-origin hops.
func sameOriginClient(client *http.Client) *http.Client {
	c := *client
	next := client.CheckRedirect
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) > 0 && !SameOrigin(req.URL, via[0].URL) {
			return fmt.Errorf("%w: %s to %s", ErrCrossOriginRedirect, Origin(via[0].URL), Origin(req.URL))
		}
		if next != nil {
			return next(req, via)
		}
		if len(via) >= maxRedirects {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}
	return &c
}

// Response is a fetched resource.
type Response struct {
	// URL is the final URL after redirects.
	URL *url.URL

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body, truncated at the fetcher's limit.
	Body []byte
}

// Fetch GETs rawURL. Any status outside 2xx is an error wrapping
// ErrUnexpectedStatus.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if !isHTTP(u) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, err
	}

	return &Response{
		URL:         resp.Request.URL,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// FetchText fetches rawURL and decodes the body to UTF-8.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	resp, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return decodeText(resp.Body, resp.ContentType), nil
}

// Load fetches and parses the page at rawURL.
func (f *Fetcher) Load(ctx context.Context, rawURL string) (*Page, error) {
	resp, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", rawURL, err)
	}
	return NewPage(resp.URL.String(), bytes.NewReader(resp.Body), resp.ContentType)
}

// decodeText converts body to UTF-8 using the declared or detected encoding.
// Bodies that cannot be decoded are returned as is.
func decodeText(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
