package cache

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newResponse(cacheControl, body string) *Response {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if cacheControl != "" {
		h.Set("Cache-Control", cacheControl)
	}
	return &Response{StatusCode: http.StatusOK, Header: h, Body: []byte(body)}
}

func TestMemoryMatchMiss(t *testing.T) {
	m := NewMemory(time.Hour)
	if _, ok := m.Match(context.Background(), "https://example.com/missing"); ok {
		t.Error("Match on empty cache returned a hit")
	}
}

func TestMemoryPutThenMatch(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()
	key := "https://api.esv.org/v3/passage/html/?q=Genesis+1"

	if err := m.Put(ctx, key, newResponse("s-max-age=3600", `{"passages":["<p>x</p>"]}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := m.Match(ctx, key)
	if !ok {
		t.Fatal("Match missed after Put")
	}
	if got.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", got.StatusCode)
	}
	if string(got.Body) != `{"passages":["<p>x</p>"]}` {
		t.Errorf("Body = %q", got.Body)
	}
	if got.Header.Get("Cache-Control") != "s-max-age=3600" {
		t.Errorf("Cache-Control = %q", got.Header.Get("Cache-Control"))
	}
}

func TestMemoryMatchReturnsCopies(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	if err := m.Put(ctx, "k", newResponse("", "original")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	first, _ := m.Match(ctx, "k")
	first.Body[0] = 'X'
	first.Header.Set("Content-Type", "text/plain")

	second, _ := m.Match(ctx, "k")
	if string(second.Body) != "original" {
		t.Errorf("stored body was mutated through a Match result: %q", second.Body)
	}
	if second.Header.Get("Content-Type") != "application/json" {
		t.Errorf("stored header was mutated through a Match result")
	}
}

func TestMemoryExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory(time.Minute, WithClock(clock.now))
	ctx := context.Background()

	if err := m.Put(ctx, "hour", newResponse("s-max-age=3600", "a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.Put(ctx, "default", newResponse("", "b")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clock.advance(59 * time.Minute)
	if _, ok := m.Match(ctx, "hour"); !ok {
		t.Error("one-hour entry expired early")
	}
	if _, ok := m.Match(ctx, "default"); ok {
		t.Error("default-TTL entry outlived its minute")
	}

	clock.advance(time.Minute)
	if _, ok := m.Match(ctx, "hour"); ok {
		t.Error("one-hour entry still served after an hour")
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d after expiry, want 0", m.Len())
	}
}

func TestMemorySkipsUncacheable(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	for _, cc := range []string{"no-store", "private, max-age=60", "s-maxage=0"} {
		if err := m.Put(ctx, cc, newResponse(cc, "x")); err != nil {
			t.Fatalf("Put(%q): %v", cc, err)
		}
		if _, ok := m.Match(ctx, cc); ok {
			t.Errorf("response with Cache-Control %q was stored", cc)
		}
	}
}

func TestMemoryCompressesLargeBodies(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()
	body := strings.Repeat("<p>In the beginning, God created the heavens and the earth.</p>", 100)

	if err := m.Put(ctx, "big", newResponse("max-age=60", body)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	stored, _ := m.entries.Get("big")
	if !stored.compressed {
		t.Error("large repetitive body was not compressed")
	}
	if len(stored.body) >= len(body) {
		t.Errorf("stored %d bytes for a %d byte body", len(stored.body), len(body))
	}

	got, ok := m.Match(ctx, "big")
	if !ok {
		t.Fatal("Match missed")
	}
	if !bytes.Equal(got.Body, []byte(body)) {
		t.Error("decompressed body differs from original")
	}
}

func TestMemoryPutNil(t *testing.T) {
	if err := NewMemory(time.Hour).Put(context.Background(), "k", nil); err == nil {
		t.Error("Put(nil) succeeded, want error")
	}
}

func TestLifetime(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		wantTTL time.Duration
		wantOK  bool
	}{
		{"none", nil, 0, true},
		{"legacy s-max-age", []string{"s-max-age=3600"}, time.Hour, true},
		{"s-maxage", []string{"s-maxage=120"}, 2 * time.Minute, true},
		{"max-age", []string{"public, max-age=30"}, 30 * time.Second, true},
		{"shared wins", []string{"max-age=30, s-maxage=90"}, 90 * time.Second, true},
		{"appended lines", []string{"max-age=30", "s-max-age=3600"}, time.Hour, true},
		{"quoted", []string{`max-age="45"`}, 45 * time.Second, true},
		{"no-store", []string{"no-store"}, 0, false},
		{"private", []string{"private"}, 0, false},
		{"zero", []string{"max-age=0"}, 0, false},
		{"garbage", []string{"max-age=soon"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for _, v := range tt.headers {
				h.Add("Cache-Control", v)
			}
			ttl, ok := Lifetime(h)
			if ttl != tt.wantTTL || ok != tt.wantOK {
				t.Errorf("Lifetime(%v) = (%v, %v), want (%v, %v)", tt.headers, ttl, ok, tt.wantTTL, tt.wantOK)
			}
		})
	}
}

func TestResponseClone(t *testing.T) {
	orig := newResponse("max-age=60", "body")
	clone := orig.Clone()
	clone.Body[0] = 'B'
	clone.Header.Set("Cache-Control", "no-store")

	if string(orig.Body) != "body" || orig.Header.Get("Cache-Control") != "max-age=60" {
		t.Error("Clone shares state with the original")
	}
	var nilResp *Response
	if nilResp.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
