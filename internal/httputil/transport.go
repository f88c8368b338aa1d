// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages: a transport
// that presents browser-like headers and a fixed-interval request pacer.
package httputil

import (
	"net/http"
	"time"
)

// DefaultUserAgent is a desktop Chrome string. The SRU endpoint answers
// obvious bots with HTTP 403.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// DefaultReferer is sent with every request unless the caller sets one.
const DefaultReferer = "https://onlinelibrary.wiley.com/"

// BrowserTransport sets browser headers on outgoing requests and delegates
// to Base. Headers already present on the request are left alone.
type BrowserTransport struct {
	Base      http.RoundTripper
	UserAgent string
	Referer   string
}

// RoundTrip implements http.RoundTripper.
func (t *BrowserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())

	ua := t.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	referer := t.Referer
	if referer == "" {
		referer = DefaultReferer
	}
	setDefault(r.Header, "User-Agent", ua)
	setDefault(r.Header, "Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/pdf;q=0.9,*/*;q=0.8")
	setDefault(r.Header, "Accept-Language", "en-US,en;q=0.9")
	setDefault(r.Header, "Referer", referer)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}

func setDefault(h http.Header, key, value string) {
	if h.Get(key) == "" {
		h.Set(key, value)
	}
}

// NewClient returns an http.Client with the given timeout whose transport
// sends browser headers. Redirects are followed by the client.
func NewClient(timeout time.Duration, userAgent string) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &BrowserTransport{
			Base:      http.DefaultTransport,
			UserAgent: userAgent,
		},
	}
}
