package nusmods

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/night-courses/internal/catalog"
	"github.com/pfrederiksen/night-courses/internal/logger"
)

const (
	DefaultBaseURL     = "https://api.nusmods.com/v2"
	UserAgent          = "night-courses/1.0 (github.com/pfrederiksen/night-courses)"
	Timeout            = 30 * time.Second
	DefaultConcurrency = 32

	// first retry waits roughly this long, doubling after
	retryInterval = 200 * time.Millisecond
)

// Options configures a Client. The zero value means: no timeout, unbounded
// concurrency, no retries, no cache.
type Options struct {
	// Year URL, e.g. https://api.nusmods.com/v2/2023-2024
	YearURL     string
	Timeout     time.Duration
	Concurrency int
	Retries     int
	Cache       *Cache
	Metrics     *logger.Metrics
}

// Client fetches catalog data from NUSMods. One Client shares a single connection
// pool across every request it issues.
type Client struct {
	client      *http.Client
	yearURL     string
	concurrency int
	retries     int
	cache       *Cache
	metrics     *logger.Metrics
}

// New creates a Client
func New(opts Options) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Concurrency > 0 {
		transport.MaxIdleConnsPerHost = opts.Concurrency
	} else {
		transport.MaxIdleConnsPerHost = 100
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = logger.DefaultMetrics()
	}

	return &Client{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		yearURL:     strings.TrimRight(opts.YearURL, "/"),
		concurrency: opts.Concurrency,
		retries:     opts.Retries,
		cache:       opts.Cache,
		metrics:     metrics,
	}
}

// CatalogURL returns the URL of the module listing
func (c *Client) CatalogURL() string {
	return c.yearURL + "/moduleInfo.json"
}

// DetailURL returns the URL of one module's details
func (c *Client) DetailURL(moduleCode string) string {
	return c.yearURL + "/modules/" + url.PathEscape(moduleCode) + ".json"
}

// FetchCatalog fetches the list of every module offered in the academic year.
// Any failure is returned as a *NetworkError matching ErrCatalog.
func (c *Client) FetchCatalog(ctx context.Context) ([]catalog.ModuleSummary, error) {
	start := time.Now()
	u := c.CatalogURL()

	var summaries []catalog.ModuleSummary
	if err := c.getJSON(ctx, u, &summaries); err != nil {
		c.metrics.IncrCounter("fetch.catalog.failed")
		return nil, &NetworkError{URL: u, Err: err}
	}

	c.metrics.RecordTiming("fetch.catalog", time.Since(start))
	c.metrics.SetGauge("catalog.modules", float64(len(summaries)))
	logger.Info("Fetched module catalog", logger.Fields{
		"modules":  len(summaries),
		"duration": time.Since(start).String(),
	})
	return summaries, nil
}

// FetchDetail fetches one module's details, consulting the cache first.
// Failures are returned as *FetchError and are never cached.
func (c *Client) FetchDetail(ctx context.Context, moduleCode string) (*catalog.ModuleDetail, error) {
	if c.cache != nil {
		if detail := c.cache.Get(moduleCode); detail != nil {
			c.metrics.IncrCounter("cache.hit")
			return detail, nil
		}
		c.metrics.IncrCounter("cache.miss")
	}

	start := time.Now()
	u := c.DetailURL(moduleCode)

	var detail *catalog.ModuleDetail
	if err := c.getJSON(ctx, u, &detail); err != nil {
		return nil, &FetchError{ModuleCode: moduleCode, URL: u, Err: err}
	}
	if detail == nil {
		return nil, &FetchError{ModuleCode: moduleCode, URL: u, Err: ErrEmptyResponse}
	}
	c.metrics.RecordTiming("fetch.detail", time.Since(start))

	if c.cache != nil {
		c.cache.Set(moduleCode, detail)
	}
	return detail, nil
}

// FetchAllDetails fetches the details of every module concurrently. The result has
// one slot per code in the same order; a slot is nil when that module's fetch
// failed. A failure is logged and never cancels the other fetches. The call returns
// once every fetch has finished.
func (c *Client) FetchAllDetails(ctx context.Context, codes []string) []*catalog.ModuleDetail {
	start := time.Now()
	results := make([]*catalog.ModuleDetail, len(codes))

	g := new(errgroup.Group)
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}

	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			detail, err := c.FetchDetail(ctx, code)
			if err != nil {
				c.metrics.IncrCounter("fetch.detail.failed")
				logger.Error("Error processing module", logger.Fields{
					"module": code,
				}, err)
				return nil
			}
			c.metrics.IncrCounter("fetch.detail.ok")
			results[i] = detail
			return nil
		})
	}
	_ = g.Wait()

	absent := 0
	for _, r := range results {
		if r == nil {
			absent++
		}
	}
	c.metrics.RecordTiming("fetch.all", time.Since(start))
	logger.Info("Fetched module details", logger.Fields{
		"modules":  len(codes),
		"absent":   absent,
		"duration": time.Since(start).String(),
	})
	return results
}

// Codes returns the module codes of a catalog listing, skipping blank entries
func Codes(summaries []catalog.ModuleSummary) []string {
	codes := make([]string, 0, len(summaries))
	for _, s := range summaries {
		code := strings.TrimSpace(s.ModuleCode)
		if code == "" {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInterval
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retries)), ctx)
}

// getJSON issues a GET and decodes a 200 response body into v. Transport errors,
// 429 and 5xx responses are retried up to c.retries times.
func (c *Client) getJSON(ctx context.Context, u string, v interface{}) error {
	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			c.metrics.IncrCounter("fetch.retries")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(errors.Wrap(err, "creating request"))
		}
		req.Header.Set("User-Agent", UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return errors.Wrap(err, "sending request")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{StatusCode: resp.StatusCode}
			if statusErr.retryable() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return backoff.Permanent(errors.Wrap(err, "decoding response"))
		}
		return nil
	}

	if err := backoff.Retry(op, c.newBackOff(ctx)); err != nil {
		if attempt > 1 {
			return errors.WithMessage(err, fmt.Sprintf("after %d attempts", attempt))
		}
		return err
	}
	return nil
}

// Close releases idle connections held by the client
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
