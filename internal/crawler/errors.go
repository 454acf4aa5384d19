package crawler

import "errors"

var (
	// ErrUnexpectedStatus is returned when a response status is not 2xx.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrCrossOriginRedirect is returned when a same-origin fetch is
	// redirected to another origin.
	ErrCrossOriginRedirect = errors.New("redirect leaves the origin")
)
