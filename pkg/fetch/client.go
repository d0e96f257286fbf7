// Package fetch provides a polite HTTP client for upstream directory pages:
// rate-limited, retried on transient failures, parsed into goquery documents.
package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/mountisa-community/directory-cli/internal/resilience"
)

// Client defines the page-fetch operations source adapters use.
type Client interface {
	// GetDocument fetches a URL and parses the response body as HTML.
	GetDocument(ctx context.Context, url string) (*goquery.Document, error)
	// GetText fetches a URL and returns the raw response body.
	GetText(ctx context.Context, url string) (string, error)
}

// Option configures the fetch client.
type Option func(*httpClient)

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.resty.SetHeader("User-Agent", ua)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.resty.SetTimeout(d)
	}
}

// WithRateLimit caps requests per second across all calls on this client.
// Zero or negative disables rate limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	resty   *resty.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// New creates a fetch client. Defaults: 30s timeout, 1 req/s, three attempts
// on transient failures.
func New(opts ...Option) Client {
	c := &httpClient{
		resty:   resty.New().SetTimeout(30 * time.Second),
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("fetch", "get")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) GetText(ctx context.Context, url string) (string, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (string, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", eris.Wrap(err, "fetch: rate limit wait")
			}
		}

		resp, err := c.resty.R().SetContext(ctx).Get(url)
		if err != nil {
			return "", resilience.NewTransientError(eris.Wrapf(err, "fetch: get %s", url), 0)
		}
		if resp.IsError() {
			err := eris.Errorf("fetch: get %s: status %d", url, resp.StatusCode())
			if resilience.IsTransientHTTPStatus(resp.StatusCode()) {
				return "", resilience.NewTransientError(err, resp.StatusCode())
			}
			return "", err
		}
		return resp.String(), nil
	})
}

func (c *httpClient) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.GetText(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: parse %s", url)
	}
	return doc, nil
}
