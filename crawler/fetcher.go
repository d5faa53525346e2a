package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// FetchErrorKind classifies a fetch failure.
type FetchErrorKind int

const (
	// FetchTimeout covers request deadlines and network-level timeouts.
	FetchTimeout FetchErrorKind = iota + 1
	// FetchConnectionRefused covers connection-level failures: refused,
	// reset, and unresolvable hosts.
	FetchConnectionRefused
	// FetchHTTPError covers responses with a non-2xx status.
	FetchHTTPError
	// FetchTooLarge covers bodies exceeding the configured size cap.
	FetchTooLarge
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchTimeout:
		return "timeout"
	case FetchConnectionRefused:
		return "connection_refused"
	case FetchHTTPError:
		return "http_error"
	case FetchTooLarge:
		return "too_large"
	default:
		return "unknown"
	}
}

// FetchError is a typed fetch failure. Status is set for FetchHTTPError only.
type FetchError struct {
	Kind   FetchErrorKind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchHTTPError {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure may succeed on retry. HTTP errors
// and oversized bodies never do.
func (e *FetchError) Transient() bool {
	return e.Kind == FetchTimeout || e.Kind == FetchConnectionRefused
}

// FetchResult is a successful fetch.
type FetchResult struct {
	Body    []byte
	Headers http.Header
	Status  int
}

// Fetcher issues HTTP GETs with a size cap and bounded retry of transient
// failures. It holds no mutable state and is safe for concurrent use.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	maxAttempts  int
	baseDelay    time.Duration
	logger       *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetcherLogger sets a custom logger. Default is slog.Default().
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client, primarily for tests.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// NewFetcher creates a Fetcher from the crawl configuration.
func NewFetcher(cfg *Config, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
		maxAttempts:  cfg.MaxAttempts,
		baseDelay:    cfg.RetryBaseDelay,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves one URL. Transient failures are retried with exponential
// backoff and jitter up to the attempt bound; HTTP errors are returned
// immediately without retry.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	var lastErr error
	delay := f.baseDelay

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := f.fetchOnce(ctx, url)
		if err == nil {
			if attempt > 1 {
				f.logger.Debug("fetch succeeded after retry", "url", url, "attempt", attempt)
			}
			return result, nil
		}
		lastErr = err

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) || !fetchErr.Transient() {
			return nil, err
		}

		f.logger.Debug("transient fetch failure, will retry",
			"url", url, "attempt", attempt, "maxAttempts", f.maxAttempts, "error", err)

		if attempt == f.maxAttempts {
			break
		}

		// Up to 50% jitter keeps concurrent workers from retrying in step.
		jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
		timer := time.NewTimer(delay + jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchConnectionRefused, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyNetError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{Kind: FetchHTTPError, URL: url, Status: resp.StatusCode}
	}

	// Read one byte past the cap to distinguish at-cap from over-cap.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, classifyNetError(url, err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, &FetchError{Kind: FetchTooLarge, URL: url}
	}

	return &FetchResult{Body: body, Headers: resp.Header, Status: resp.StatusCode}, nil
}

func classifyNetError(url string, err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: FetchTimeout, URL: url, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: FetchTimeout, URL: url, Err: err}
	}
	return &FetchError{Kind: FetchConnectionRefused, URL: url, Err: err}
}
