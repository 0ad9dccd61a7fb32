package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/debug"
)

var (
	ErrTransport = errors.New("transport failure")
	ErrResponse  = errors.New("response failure")
	ErrMalformed = errors.New("malformed payload")
	ErrNotFound  = errors.New("not found")
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Options struct {
	Timeout     time.Duration
	Parallelism int
	Delay       time.Duration
	Debug       bool
	UserAgent   string
	Logger      *slog.Logger
}

// jsonClient issues GET requests against one remote host through a colly
// collector. Each request runs on a clone so callbacks never pile up.
type jsonClient struct {
	base      *url.URL
	collector *colly.Collector
	logger    *slog.Logger
}

func newJSONClient(baseURL string, opts Options) (*jsonClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	collectorOpts := []colly.CollectorOption{
		colly.AllowedDomains(base.Hostname()),
		colly.AllowURLRevisit(),
		colly.UserAgent(userAgent),
	}
	if opts.Debug {
		collectorOpts = append(collectorOpts, colly.Debugger(&debug.LogDebugger{}))
	}

	c := colly.NewCollector(collectorOpts...)

	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = 2
	}
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		Delay:       opts.Delay,
	}); err != nil {
		return nil, fmt.Errorf("set limit rule: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &jsonClient{base: base, collector: c, logger: logger}, nil
}

// endpoint resolves path segments against the base URL.
func (j *jsonClient) endpoint(elem ...string) *url.URL {
	return j.base.JoinPath(elem...)
}

// get fetches rawURL and hands the body to decode. Failures are classified as
// ErrTransport, ErrResponse or ErrMalformed.
func (j *jsonClient) get(ctx context.Context, rawURL string, decode func(body []byte) error) error {
	c := j.collector.Clone()
	c.Context = ctx

	var (
		status  int
		body    []byte
		callErr error
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/json")
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		callErr = err
	})

	start := time.Now()
	err := c.Visit(rawURL)
	if err == nil {
		err = callErr
	}

	j.logger.Debug("remote request",
		slog.String("url", rawURL),
		slog.Int("status", status),
		slog.Duration("took", time.Since(start)),
	)

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %w: %s returned %d", ErrResponse, ErrNotFound, rawURL, status)
	case status != 0 && (status < 200 || status > 299):
		return fmt.Errorf("%w: %s returned %d", ErrResponse, rawURL, status)
	case err != nil:
		return fmt.Errorf("%w: %s: %w", ErrTransport, rawURL, err)
	}

	if err := decode(body); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformed, rawURL, err)
	}
	return nil
}
