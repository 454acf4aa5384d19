// Package transport builds the HTTP client used for every outbound request:
// page loads and same-origin script fetches.
//
// Requests go out directly unless a SOCKS5 proxy is configured, in which case
// every connection is dialed through it. A User-Agent and optional extra
// headers are injected into each request, including redirects.
package transport
