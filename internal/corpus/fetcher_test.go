package corpus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/curato/internal/model"
	"github.com/ppiankov/curato/internal/worker"
)

func testFetchConfig() model.FetchConfig {
	cfg := model.DefaultConfig().Fetch
	cfg.Timeout = 5 * time.Second
	cfg.UserAgent = "test-agent"
	cfg.MaxBodyBytes = 1 << 20
	cfg.RespectRobots = false
	return cfg
}

func noSleep(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { fetchSleepFunc = orig })
}

func newTestFetcher(t *testing.T, cfg model.FetchConfig, limiter *worker.Limiter) *Fetcher {
	t.Helper()
	fetcher, err := NewFetcher(cfg, limiter, nil)
	require.NoError(t, err)
	return fetcher
}

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, testFetchConfig(), nil)
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html><body>OK</body></html>", string(result.Body))
	assert.Equal(t, FormatHTML, result.Format())
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "OK")
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, testFetchConfig(), nil)
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(result.Body))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, testFetchConfig(), nil)
	_, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, "unexpected status: 404 Not Found", err.Error())
	assert.Equal(t, int32(1), attempts.Load())
}

func TestFetchWithRetry_AllRetriesExhausted(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, testFetchConfig(), nil)
	_, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, int32(maxFetchAttempts), attempts.Load())
}

func TestFetchWithRetry_RespectsRobots(t *testing.T) {
	var pageHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
			return
		}
		pageHits.Add(1)
		_, _ = fmt.Fprint(w, "public text")
	}))
	defer server.Close()

	cfg := testFetchConfig()
	cfg.RespectRobots = true
	fetcher := newTestFetcher(t, cfg, worker.NewLimiter(0, 1))

	_, err := fetcher.FetchWithRetry(context.Background(), server.URL+"/private/page.txt")
	assert.ErrorIs(t, err, ErrDisallowed)
	assert.Equal(t, int32(0), pageHits.Load())

	res, err := fetcher.FetchWithRetry(context.Background(), server.URL+"/public/page.txt")
	require.NoError(t, err)
	assert.Equal(t, "public text", string(res.Body))
}

func TestFetchWithRetry_CrawlDelayThrottlesHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nCrawl-delay: 0.05\n")
			return
		}
		_, _ = fmt.Fprint(w, "text")
	}))
	defer server.Close()

	cfg := testFetchConfig()
	cfg.RespectRobots = true
	fetcher := newTestFetcher(t, cfg, worker.NewLimiter(0, 1))

	start := time.Now()
	for i := 0; i < 2; i++ {
		_, err := fetcher.FetchWithRetry(context.Background(), server.URL+"/page.txt")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestFetchWithRetry_BackoffStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, testFetchConfig(), nil)
	start := time.Now()
	_, err := fetcher.FetchWithRetry(ctx, server.URL)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestFetch_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "0123456789")
	}))
	defer server.Close()

	cfg := testFetchConfig()
	cfg.MaxBodyBytes = 10
	res, err := newTestFetcher(t, cfg, nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(res.Body))

	cfg.MaxBodyBytes = 9
	_, err = newTestFetcher(t, cfg, nil).Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestNewFetcher_RejectsNonPositiveLimit(t *testing.T) {
	for _, limit := range []int64{0, -1} {
		cfg := testFetchConfig()
		cfg.MaxBodyBytes = limit
		_, err := NewFetcher(cfg, nil, nil)
		assert.Error(t, err, "limit %d", limit)
	}
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, sleepContext(ctx, time.Minute), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetcher_Corpus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprint(w, "BAX regulates apoptosis.\nSecond line.\n")
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, testFetchConfig(), nil)
	corpus, err := fetcher.Corpus(context.Background(), server.URL+"/abstracts")
	require.NoError(t, err)
	assert.Equal(t, model.Corpus{
		{Text: "BAX regulates apoptosis.", Offset: 0},
		{Text: "Second line.", Offset: 25},
	}, corpus)
}

func TestFetchResult_Format(t *testing.T) {
	tests := []struct {
		contentType string
		finalURL    string
		want        Format
	}{
		{"text/html; charset=utf-8", "http://x/a", FormatHTML},
		{"text/plain", "http://x/a.html", FormatText},
		{"application/x-ndjson", "http://x/a", FormatJSONL},
		{"application/octet-stream", "http://x/a.jsonl", FormatJSONL},
		{"", "http://x/unknown.bin", FormatHTML},
	}

	for _, tt := range tests {
		t.Run(tt.contentType+" "+tt.finalURL, func(t *testing.T) {
			r := &FetchResult{ContentType: tt.contentType, FinalURL: tt.finalURL}
			assert.Equal(t, tt.want, r.Format())
		})
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"503", &StatusError{Code: 503}, true},
		{"500", &StatusError{Code: 500}, true},
		{"429", &StatusError{Code: 429}, true},
		{"404", &StatusError{Code: 404}, false},
		{"403 wrapped", fmt.Errorf("x: %w", &StatusError{Code: 403}), false},
		{"transport", fmt.Errorf("fetch: %w", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}), true},
		{"canceled", fmt.Errorf("fetch: %w", context.Canceled), false},
		{"read body", errors.New("read body: unexpected EOF"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableFetchError(tt.err))
		})
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	assert.Equal(t, "Curato", NormalizeUserAgent("Curato/0.1 (+https://github.com/ppiankov/curato)"))
	assert.Equal(t, "bot", NormalizeUserAgent("bot"))
	assert.Equal(t, "", NormalizeUserAgent(""))
}
