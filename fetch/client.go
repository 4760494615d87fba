// Package fetch provides the HTTP client used by every stage of the
// scrape: timeout, bounded retries with exponential backoff, and a fixed
// politeness delay after each successful request.
package fetch

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-race-watch/config"
)

// Client wraps a synchronous colly collector. Calls are serialised: the
// politeness delay applies across all callers, so the effective request
// rate is shared by the whole pipeline.
type Client struct {
	cfg       *config.Config
	collector *colly.Collector
	metrics   *Metrics
	sleep     func(time.Duration)

	mu       sync.Mutex
	body     []byte
	status   int
	fetchErr error

	statsMu      sync.Mutex
	requestCount int
	errorCount   int
	retryCount   int
	failedURLs   []string
	errorsByType map[string]int
}

// NewClient builds a client configured from cfg.
func NewClient(cfg *config.Config, metrics *Metrics) (*Client, error) {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(cfg.Timeout)

	c := &Client{
		cfg:          cfg,
		collector:    collector,
		metrics:      metrics,
		sleep:        time.Sleep,
		errorsByType: make(map[string]int),
	}

	collector.OnResponse(func(r *colly.Response) {
		c.body = r.Body
		c.status = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			c.status = r.StatusCode
		}
		c.fetchErr = err
	})

	return c, nil
}

// SetTransport swaps the underlying round tripper. Tests inject an
// httpmock transport here.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.collector.WithTransport(rt)
}

// Fetch issues a GET with retries and returns the response body. Every
// failure class is retried identically; after the attempts are exhausted
// the last classified error is returned.
func (c *Client) Fetch(url string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	attempts := c.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			c.addRetry()
			c.metrics.IncRetries()
			c.sleep(c.backoff(attempt))
		}

		c.body = nil
		c.status = 0
		c.fetchErr = nil

		c.addRequest()
		c.metrics.IncRequest(phaseFor(url))
		start := time.Now()
		visitErr := c.collector.Visit(url)
		c.metrics.ObserveDuration(time.Since(start))

		if c.fetchErr == nil {
			c.fetchErr = visitErr
		}
		if c.fetchErr != nil {
			lastErr = classifyError(c.fetchErr, c.status)
			label := errorTypeLabel(lastErr)
			c.addErrorType(label)
			c.metrics.IncError(label)
			slog.Debug("fetch attempt failed",
				slog.String("url", url),
				slog.Int("attempt", attempt+1),
				slog.String("category", label),
				slog.Any("error", c.fetchErr),
			)
			continue
		}

		if c.cfg.Delay > 0 {
			c.sleep(c.cfg.Delay)
		}
		return c.body, nil
	}

	c.addFailure(url)
	slog.Error("fetch failed",
		slog.String("url", url),
		slog.Int("attempts", attempts),
		slog.Any("error", lastErr),
	)
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", url, attempts, lastErr)
}

// Document fetches a page and parses it into a goquery document.
func (c *Client) Document(url string) (*goquery.Document, error) {
	body, err := c.Fetch(url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", url, err)
	}
	return doc, nil
}

// phaseFor labels a request by the scrape stage its address belongs to.
func phaseFor(url string) string {
	switch {
	case strings.Contains(url, "/abc-guide"):
		return "guide"
	case strings.Contains(url, "/results/"):
		return "results"
	case strings.Contains(url, "/racecards/"):
		return "racecard"
	default:
		return "other"
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := c.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := c.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

// Stats is a snapshot of the client's request counters.
type Stats struct {
	RequestCount int
	ErrorCount   int
	RetryCount   int
	FailedURLs   []string
	ErrorsByType map[string]int
}

// Snapshot returns a copy of the accumulated counters.
func (c *Client) Snapshot() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	failed := make([]string, len(c.failedURLs))
	copy(failed, c.failedURLs)
	byType := make(map[string]int, len(c.errorsByType))
	for k, v := range c.errorsByType {
		byType[k] = v
	}
	return Stats{
		RequestCount: c.requestCount,
		ErrorCount:   c.errorCount,
		RetryCount:   c.retryCount,
		FailedURLs:   failed,
		ErrorsByType: byType,
	}
}

func (c *Client) addRequest() {
	c.statsMu.Lock()
	c.requestCount++
	c.statsMu.Unlock()
}

func (c *Client) addRetry() {
	c.statsMu.Lock()
	c.retryCount++
	c.statsMu.Unlock()
}

func (c *Client) addErrorType(label string) {
	c.statsMu.Lock()
	c.errorsByType[label]++
	c.statsMu.Unlock()
}

func (c *Client) addFailure(url string) {
	c.statsMu.Lock()
	c.errorCount++
	c.failedURLs = append(c.failedURLs, url)
	c.statsMu.Unlock()
}
