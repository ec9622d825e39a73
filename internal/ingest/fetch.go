package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119 Safari/537.36 (+boxscore-stats)"

// Fetcher downloads remote box-score pages politely: one shared rate limit,
// retries on 429 and 5xx, Retry-After honored.
type Fetcher struct {
	Client      *http.Client
	Limiter     *rate.Limiter
	MaxAttempts int
	Base        time.Duration // first backoff step
	MaxBackoff  time.Duration
	Cooldown    time.Duration // 429 without Retry-After
}

// NewFetcher allows one request per interval.
func NewFetcher(interval time.Duration) *Fetcher {
	return &Fetcher{
		Client:      &http.Client{Timeout: 30 * time.Second},
		Limiter:     rate.NewLimiter(rate.Every(interval), 1),
		MaxAttempts: 6,
		Base:        400 * time.Millisecond,
		MaxBackoff:  6 * time.Second,
		Cooldown:    7 * time.Second,
	}
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	d := f.Base * time.Duration(1<<attempt)
	j := time.Duration(rand.Intn(250)) * time.Millisecond
	if d+j > f.MaxBackoff {
		return f.MaxBackoff
	}
	return d + j
}

func parseRetryAfter(h string) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Get fetches u, retrying transient failures.
func (f *Fetcher) Get(ctx context.Context, u string) ([]byte, error) {
	attempts := f.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var last error
	for attempt := 0; attempt < attempts; attempt++ {
		if f.Limiter != nil {
			if err := f.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		body, wait, err := f.try(ctx, u, attempt)
		if err == nil {
			return body, nil
		}
		last = err
		if wait < 0 {
			return nil, err
		}
		if attempt < attempts-1 {
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("exhausted retries for %s: %w", u, last)
}

// try makes one request. A negative wait marks the error as final.
func (f *Fetcher) try(ctx context.Context, u string, attempt int) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, -1, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, -1, ctx.Err()
		}
		return nil, f.backoff(attempt), err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, f.backoff(attempt), err
		}
		return b, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := parseRetryAfter(resp.Header.Get("Retry-After"))
		if wait == 0 {
			wait = f.Cooldown
		}
		return nil, wait, fmt.Errorf("status %d for %s", resp.StatusCode, u)
	case resp.StatusCode >= 500:
		return nil, f.backoff(attempt), fmt.Errorf("status %d for %s", resp.StatusCode, u)
	default:
		return nil, -1, fmt.Errorf("status %d for %s", resp.StatusCode, u)
	}
}

// URLSource is a CSV or HTML export served over HTTP.
type URLSource struct {
	URL     string
	Fetcher *Fetcher
}

// Name drops the query so the extension decides the format.
func (s URLSource) Name() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return s.URL
	}
	u.RawQuery, u.Fragment = "", ""
	return u.String()
}

func (s URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	b, err := s.Fetcher.Get(ctx, s.URL)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func isURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}
