// Package cache stores upstream HTTP responses keyed by request URL, with
// lifetimes taken from the responses' Cache-Control headers.
package cache

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Cache is a shared response cache addressed by request URL.
type Cache interface {
	// Match returns a copy of the stored response for key, if present and fresh.
	Match(ctx context.Context, key string) (*Response, bool)
	// Put stores resp under key. Responses that forbid shared caching are skipped.
	Put(ctx context.Context, key string, resp *Response) error
}

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Clone returns a deep copy of r.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	return &Response{
		StatusCode: r.StatusCode,
		Header:     r.Header.Clone(),
		Body:       body,
	}
}

// Lifetime reads the shared-cache lifetime from a Cache-Control header.
// ok is false when the response must not be stored at all. A zero duration
// with ok true means no lifetime was given.
//
// s-maxage wins over max-age. The nonstandard "s-max-age" spelling is
// treated as s-maxage.
func Lifetime(h http.Header) (ttl time.Duration, ok bool) {
	var sharedMax, max time.Duration
	var haveShared, haveMax bool

	for _, line := range h.Values("Cache-Control") {
		for _, directive := range strings.Split(line, ",") {
			name, value, _ := strings.Cut(strings.TrimSpace(directive), "=")
			name = strings.ToLower(strings.TrimSpace(name))
			value = strings.Trim(strings.TrimSpace(value), `"`)

			switch name {
			case "no-store", "private":
				return 0, false
			case "s-maxage", "s-max-age":
				if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
					sharedMax, haveShared = time.Duration(secs)*time.Second, true
				}
			case "max-age":
				if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
					max, haveMax = time.Duration(secs)*time.Second, true
				}
			}
		}
	}

	switch {
	case haveShared:
		return sharedMax, sharedMax > 0
	case haveMax:
		return max, max > 0
	default:
		return 0, true
	}
}
