package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const compressThreshold = 1024

type entry struct {
	statusCode int
	header     http.Header
	body       []byte
	compressed bool
	createdAt  time.Time
	expiresAt  time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Memory is an in-process Cache safe for concurrent use. Entries expire
// lazily on Match; there is no other eviction.
type Memory struct {
	entries    cmap.ConcurrentMap[string, entry]
	defaultTTL time.Duration
	now        func() time.Time
}

var _ Cache = (*Memory)(nil)

// Option configures a Memory cache.
type Option func(*Memory)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates a Memory cache. defaultTTL applies to responses whose
// Cache-Control carries no lifetime.
func NewMemory(defaultTTL time.Duration, opts ...Option) *Memory {
	m := &Memory{
		entries:    cmap.New[entry](),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Match(ctx context.Context, key string) (*Response, bool) {
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, false
	}

	if e.expired(m.now()) {
		m.entries.RemoveCb(key, func(_ string, current entry, exists bool) bool {
			return exists && current.createdAt.Equal(e.createdAt)
		})
		return nil, false
	}

	body := e.body
	if e.compressed {
		var err error
		body, err = decompress(e.body)
		if err != nil {
			slog.WarnContext(ctx, "Dropping unreadable cache entry", "key", key, "error", err)
			m.entries.Remove(key)
			return nil, false
		}
	} else {
		body = append([]byte(nil), e.body...)
	}

	return &Response{
		StatusCode: e.statusCode,
		Header:     e.header.Clone(),
		Body:       body,
	}, true
}

func (m *Memory) Put(_ context.Context, key string, resp *Response) error {
	if resp == nil {
		return fmt.Errorf("cannot cache nil response for %s", key)
	}

	ttl, ok := Lifetime(resp.Header)
	if !ok {
		return nil
	}
	if ttl == 0 {
		ttl = m.defaultTTL
	}
	if ttl <= 0 {
		return nil
	}

	body := append([]byte(nil), resp.Body...)
	compressed := false
	if len(body) > compressThreshold {
		if packed, err := compress(body); err == nil && len(packed) < len(body) {
			body = packed
			compressed = true
		}
	}

	now := m.now()
	m.entries.Set(key, entry{
		statusCode: resp.StatusCode,
		header:     resp.Header.Clone(),
		body:       body,
		compressed: compressed,
		createdAt:  now,
		expiresAt:  now.Add(ttl),
	})
	return nil
}

// Len reports the number of stored entries, including expired ones not yet
// observed by Match.
func (m *Memory) Len() int {
	return m.entries.Count()
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)

	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	return io.ReadAll(gz)
}
