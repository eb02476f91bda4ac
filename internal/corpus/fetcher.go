package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/ppiankov/curato/internal/model"
	"github.com/ppiankov/curato/internal/worker"
)

const maxFetchAttempts = 3

// ErrDisallowed is returned when robots.txt forbids the URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// ErrBodyTooLarge is returned when a response exceeds the configured size
var ErrBodyTooLarge = errors.New("response body too large")

// fetchSleepFunc waits between attempts; replaced in tests
var fetchSleepFunc = sleepContext

// StatusError reports a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Fetcher downloads remote corpora
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *RobotsChecker
	limiter    *worker.Limiter
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher from the fetch section of the config.
// A nil limiter disables throttling.
func NewFetcher(cfg model.FetchConfig, limiter *worker.Limiter, logger *slog.Logger) (*Fetcher, error) {
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("fetch max_body_bytes must be positive, got %d", cfg.MaxBodyBytes)
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		limiter:   limiter,
		logger:    logger,
	}
	if cfg.RespectRobots {
		f.robots = NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}
	return f, nil
}

// FetchResult is a downloaded document
type FetchResult struct {
	Body        []byte
	ContentType string
	FinalURL    string
}

// Format guesses the corpus format from the content type, then the URL path
func (r *FetchResult) Format() Format {
	if media, _, err := mime.ParseMediaType(r.ContentType); err == nil {
		switch media {
		case "text/html", "application/xhtml+xml":
			return FormatHTML
		case "application/x-ndjson", "application/jsonl", "application/x-jsonlines":
			return FormatJSONL
		case "text/plain":
			return FormatText
		}
	}
	if u, err := url.Parse(r.FinalURL); err == nil {
		if f, err := DetectFormat(path.Base(u.Path)); err == nil {
			return f
		}
	}
	return FormatHTML
}

// Corpus fetches rawURL and decodes it into sentences
func (f *Fetcher) Corpus(ctx context.Context, rawURL string) (model.Corpus, error) {
	res, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	corpus, err := Read(bytes.NewReader(res.Body), res.Format())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.FinalURL, err)
	}
	return corpus, nil
}

// FetchWithRetry fetches rawURL, retrying transient failures with
// exponential backoff. A robots.txt crawl delay slows the host's limiter
// down to one request per delay.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
		if crawlDelay > 0 && f.limiter != nil {
			if u, err := url.Parse(rawURL); err == nil {
				f.limiter.SetHostRate(u.Host, 1/crawlDelay.Seconds(), 1)
			}
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx, rawURL); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
		}

		res, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) || attempt == maxFetchAttempts {
			break
		}

		backoff := time.Duration(1<<(attempt-1)) * time.Second
		f.logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt, "backoff", backoff, "error", err)
		if err := fetchSleepFunc(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Fetch performs a single GET
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrBodyTooLarge, f.maxBytes, rawURL)
	}

	return &FetchResult{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryableFetchError reports whether err is worth another attempt:
// 429, 5xx and transport failures
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
