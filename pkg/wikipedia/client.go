// Package wikipedia provides a client for the MediaWiki search API and the
// Wikimedia REST API (page summary and rendered page HTML).
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/wikipedia-enrich/internal/resilience"
)

// ErrNotFound is returned when the API has no page for a title. It is a
// normal outcome for summary lookups, not a transport failure.
var ErrNotFound = eris.New("wikipedia: page not found")

// Client defines the Wikipedia operations used by the enrichment pipeline.
type Client interface {
	// Search runs a full-text search and returns up to limit raw hits.
	Search(ctx context.Context, term string, limit int) ([]SearchResult, error)
	// Summary fetches the canonical page summary for a title.
	Summary(ctx context.Context, title string) (*PageSummary, error)
	// PageHTML fetches the rendered article HTML for a title.
	PageHTML(ctx context.Context, title string) (string, error)
}

// SearchResult is one hit from the search endpoint. Snippet is plain text
// with the API's highlight markup stripped.
type SearchResult struct {
	Title   string `json:"title"`
	PageID  int    `json:"pageid"`
	Snippet string `json:"snippet"`
}

// PageSummary is the parsed summary endpoint response.
type PageSummary struct {
	Title         string `json:"title"`
	Extract       string `json:"extract"`
	Thumbnail     Image  `json:"thumbnail"`
	OriginalImage Image  `json:"originalimage"`
	ContentURLs   struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Image is an image reference in a summary response.
type Image struct {
	Source string `json:"source"`
}

// BestImage prefers the original image over the thumbnail.
func (s *PageSummary) BestImage() string {
	if s.OriginalImage.Source != "" {
		return s.OriginalImage.Source
	}
	return s.Thumbnail.Source
}

// Option configures the client.
type Option func(*httpClient)

// WithAPIBaseURL overrides the MediaWiki action API base URL (for testing).
func WithAPIBaseURL(u string) Option {
	return func(c *httpClient) {
		c.apiBaseURL = u
	}
}

// WithRESTBaseURL overrides the REST API base URL (for testing).
func WithRESTBaseURL(u string) Option {
	return func(c *httpClient) {
		c.restBaseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithDelay sets the minimum spacing between outbound requests. The limiter
// is shared by all callers, so concurrent enrichment still honors one delay
// budget for the host.
func WithDelay(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.Config) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithBreaker installs a circuit breaker in front of all requests.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *httpClient) {
		c.breaker = b
	}
}

type httpClient struct {
	userAgent   string
	apiBaseURL  string
	restBaseURL string
	http        *http.Client
	limiter     *rate.Limiter
	retry       resilience.Config
	breaker     *resilience.Breaker
}

// NewClient creates a Wikipedia client. userAgent is required etiquette for
// the Wikimedia APIs; anonymous traffic gets throttled aggressively.
func NewClient(userAgent string, opts ...Option) Client {
	c := &httpClient{
		userAgent:   userAgent,
		apiBaseURL:  "https://en.wikipedia.org/w/api.php",
		restBaseURL: "https://en.wikipedia.org/api/rest_v1",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		retry:   resilience.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get issues a rate-limited GET with retry on transient failures. It returns
// the body and final status code; transient statuses are only surfaced after
// the retry budget is spent.
func (c *httpClient) get(ctx context.Context, rawURL, operation string) ([]byte, int, error) {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return nil, 0, err
		}
	}

	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(operation)
	}

	type response struct {
		body   []byte
		status int
	}
	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (response, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return response{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return response{}, eris.Wrapf(err, "wikipedia: create %s request", operation)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		res, err := c.http.Do(req)
		if err != nil {
			return response{}, eris.Wrapf(err, "wikipedia: %s request", operation)
		}
		body, readErr := io.ReadAll(res.Body)
		_ = res.Body.Close()
		if readErr != nil {
			return response{}, eris.Wrapf(readErr, "wikipedia: read %s response", operation)
		}

		if resilience.IsTransientStatus(res.StatusCode) {
			return response{}, resilience.NewTransient(
				eris.Errorf("wikipedia: %s status %d", operation, res.StatusCode),
				res.StatusCode,
			)
		}
		return response{body: body, status: res.StatusCode}, nil
	})

	if c.breaker != nil {
		c.breaker.Record(err)
	}
	if err != nil {
		return nil, 0, err
	}
	return resp.body, resp.status, nil
}

// searchResponse mirrors the action API envelope for list=search.
type searchResponse struct {
	Query struct {
		Search []SearchResult `json:"search"`
	} `json:"query"`
}

func (c *httpClient) Search(ctx context.Context, term string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 15
	}

	q := url.Values{}
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("list", "search")
	q.Set("srsearch", term)
	q.Set("srlimit", fmt.Sprintf("%d", limit))

	body, status, err := c.get(ctx, c.apiBaseURL+"?"+q.Encode(), "search")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("wikipedia: search status %d: %s", status, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "wikipedia: unmarshal search response")
	}

	hits := parsed.Query.Search
	for i := range hits {
		hits[i].Snippet = stripMarkup(hits[i].Snippet)
	}
	return hits, nil
}

func (c *httpClient) Summary(ctx context.Context, title string) (*PageSummary, error) {
	body, status, err := c.get(ctx, c.restBaseURL+"/page/summary/"+encodeTitle(title), "summary")
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("wikipedia: summary status %d: %s", status, string(body))
	}

	var summary PageSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, eris.Wrap(err, "wikipedia: unmarshal summary response")
	}
	return &summary, nil
}

func (c *httpClient) PageHTML(ctx context.Context, title string) (string, error) {
	body, status, err := c.get(ctx, c.restBaseURL+"/page/html/"+encodeTitle(title), "page html")
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", ErrNotFound
	}
	if status != http.StatusOK {
		return "", eris.Errorf("wikipedia: page html status %d", status)
	}
	return string(body), nil
}

// encodeTitle converts an article title to its REST path form: spaces become
// underscores, the rest is percent-encoded.
func encodeTitle(title string) string {
	return url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// stripMarkup removes the search highlight spans and entity-escapes from a
// snippet so keyword matching sees plain text.
func stripMarkup(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(s, "")))
}
