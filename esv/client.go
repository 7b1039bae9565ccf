// Package esv fetches rendered passage HTML from the ESV API
// (https://api.esv.org/docs/passage-html/).
package esv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/coreybb/readings/cache"
	"github.com/coreybb/readings/models"
	"github.com/coreybb/readings/webutil"
)

const (
	DefaultBaseURL = "https://api.esv.org"

	passageHTMLPath = "/v3/passage/html/"
	passageFlags    = "&include-audio-link=false&include-short-copyright=false&include-footnotes=false"

	// cacheControl is written onto every fetched response before it is cached;
	// the API's own caching headers are not trusted.
	cacheControl = "s-max-age=3600"
)

// Percent-encodes what a browser URL parser would in a query string. The
// '+' produced by NormalizeReference is left alone.
var queryEscaper = strings.NewReplacer(
	" ", "%20",
	`"`, "%22",
	"#", "%23",
	"<", "%3C",
	">", "%3E",
)

// Deferrer runs work after the current request without making it wait.
type Deferrer interface {
	Defer(ctx context.Context, name string, task func(context.Context) error)
}

// PassageResponse is the subset of the passage endpoint's JSON body we read.
type PassageResponse struct {
	Query     string   `json:"query"`
	Canonical string   `json:"canonical"`
	Passages  []string `json:"passages"`
}

// Client fetches passages, consulting a shared response cache first.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      cache.Cache
	deferrer   Deferrer
}

// NewClient creates a Client. An empty baseURL uses DefaultBaseURL and a nil
// httpClient uses http.DefaultClient.
func NewClient(apiKey, baseURL string, httpClient *http.Client, responseCache cache.Cache, deferrer Deferrer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		cache:      responseCache,
		deferrer:   deferrer,
	}
}

// NormalizeReference replaces the first space in ref with '+'. Only the first
// one: "Song of Solomon 1" becomes "Song+of Solomon 1".
func NormalizeReference(ref string) string {
	return strings.Replace(ref, " ", "+", 1)
}

// PassageURL builds the passage endpoint URL for ref. The result is also the
// cache key.
func PassageURL(baseURL, ref string) string {
	q := queryEscaper.Replace(NormalizeReference(ref))
	return strings.TrimRight(baseURL, "/") + passageHTMLPath + "?q=" + q + passageFlags
}

// FetchPassage returns the HTML fragment for ref.
func (c *Client) FetchPassage(ctx context.Context, ref string) (string, error) {
	uri := PassageURL(c.baseURL, ref)

	resp, hit := c.cache.Match(ctx, uri)
	if hit {
		slog.DebugContext(ctx, "Passage cache hit", "reference", ref)
	} else {
		slog.DebugContext(ctx, "Passage cache miss", "reference", ref)

		var err error
		resp, err = c.fetch(ctx, uri)
		if err != nil {
			return "", fmt.Errorf("failed to fetch passage %q: %w", ref, err)
		}

		toCache := resp.Clone()
		c.deferrer.Defer(ctx, "cache passage", func(taskCtx context.Context) error {
			return c.cache.Put(taskCtx, uri, toCache)
		})
	}

	var body PassageResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", fmt.Errorf("failed to decode passage %q: %w", ref, err)
	}
	if len(body.Passages) == 0 {
		return "", fmt.Errorf("no passages returned for %q", ref)
	}
	return body.Passages[0], nil
}

func (c *Client) fetch(ctx context.Context, uri string) (*cache.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ESV request: %w", err)
	}
	req.Header.Set(webutil.HeaderAuthorization, "Token "+c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ESV request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ESV response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("ESV returned status %d: %s", res.StatusCode, string(body))
	}

	header := res.Header.Clone()
	header.Set(webutil.HeaderCacheControl, cacheControl)

	return &cache.Response{
		StatusCode: res.StatusCode,
		Header:     header,
		Body:       body,
	}, nil
}

// FetchPassages fetches the OT and NT passages of assignment concurrently.
// Either failure fails both.
func (c *Client) FetchPassages(ctx context.Context, assignment models.ReadingAssignment) (ot, nt string, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		ot, err = c.FetchPassage(gctx, assignment.OT)
		return err
	})
	g.Go(func() error {
		var err error
		nt, err = c.FetchPassage(gctx, assignment.NT)
		return err
	})

	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return ot, nt, nil
}
