package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	colly "github.com/gocolly/colly/v2"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
	"github.com/LeonardSibelius/engineroom-ai/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fetcher performs single-page GET requests with a browser User-Agent.
type Fetcher struct {
	timeout   time.Duration
	userAgent string
	transport http.RoundTripper
}

// Option configures the fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTransport overrides the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.transport = rt
	}
}

// New creates a fetcher with the default 30 second timeout.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   domain.DefaultFetchTimeout,
		userAgent: domain.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves url. Network errors, timeouts and non-2xx statuses are
// reported as domain.ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.FetchResponse, error) {
	logger.Info("Fetching article: %s", url)

	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.timeout)
	// Hand every status to OnResponse; the 2xx check below decides.
	c.ParseHTTPErrorResponse = true
	if f.transport != nil {
		c.WithTransport(f.transport)
	}

	var (
		resp   *domain.FetchResponse
		status int
	)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})
	c.OnResponse(func(r *colly.Response) {
		resp = &domain.FetchResponse{
			URL:         r.Request.URL.String(),
			Status:      r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        r.Body,
		}
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(url); err != nil {
		if status != 0 {
			return nil, fmt.Errorf("%w: %s: HTTP %d", domain.ErrFetch, url, status)
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrFetch, url, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: %s: no response", domain.ErrFetch, url)
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return nil, fmt.Errorf("%w: %s: HTTP %d", domain.ErrFetch, url, resp.Status)
	}

	logger.Debug("fetched %s (%d bytes, %s)", resp.URL, len(resp.Body), resp.ContentType)
	return resp, nil
}
