// Package remote reads index and artifact locations over HTTP(S) or from the local filesystem,
// retrying transient failures with exponential backoff.
package remote

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.trai.ch/zerr"
)

const (
	defaultBaseBackoff = 250 * time.Millisecond
	defaultMaxBackoff  = 5 * time.Second
)

// ErrNotFound is returned when a location does not exist.
var ErrNotFound = zerr.New("resource not found")

// StatusError is returned for HTTP responses other than 200.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return "unexpected status " + strconv.Itoa(e.Code) + " from " + e.URL
}

// Client opens remote and local locations.
type Client struct {
	http        *http.Client
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithBackoff sets the first retry delay and the delay cap.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(cl *Client) {
		cl.baseBackoff = base
		cl.maxBackoff = maxDelay
	}
}

// NewClient creates a Client. Proxy settings come from HTTP_PROXY and HTTPS_PROXY.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: 10 * time.Minute,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		baseBackoff: defaultBaseBackoff,
		maxBackoff:  defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open returns a reader for location, which is an http(s) URL, a file URL or a local path.
// It makes a single attempt.
func (c *Client) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !isHTTP(location) {
		f, err := os.Open(LocalPath(location)) //nolint:gosec // locations come from the manifest
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, notFound(location)
			}
			return nil, zerr.With(zerr.Wrap(err, "failed to open"), "location", location)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create request"), "location", location)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "request failed"), "location", location)
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, notFound(location)
	default:
		_ = resp.Body.Close()
		return nil, &StatusError{URL: location, Code: resp.StatusCode}
	}
}

// ReadAll reads location in full, retrying transient failures up to attempts times.
func (c *Client) ReadAll(ctx context.Context, location string, attempts int) ([]byte, error) {
	var data []byte
	err := c.Retry(ctx, attempts, func(ctx context.Context) error {
		rc, err := c.Open(ctx, location)
		if err != nil {
			return err
		}
		defer func() { _ = rc.Close() }()
		data, err = io.ReadAll(rc)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read"), "location", location)
		}
		return nil
	})
	return data, err
}

// Retry runs fn until it succeeds, fails permanently, or attempts are exhausted.
// The error of the last attempt is returned.
func (c *Client) Retry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	attempts = max(attempts, 1)
	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(attempts-1)), ctx) //nolint:gosec // attempts >= 1

	err := backoff.Retry(func() error {
		err := fn(ctx)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	if err != nil && IsRetryable(err) {
		return zerr.With(err, "attempts", attempts)
	}
	return err
}

func (c *Client) newBackOff() backoff.BackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.baseBackoff),
		backoff.WithMaxInterval(c.maxBackoff),
		backoff.WithMaxElapsedTime(0),
	)
}

// IsRetryable reports whether err is a transient network or server failure.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

// Join appends path elements to a URL or local path.
func Join(base string, elems ...string) string {
	if isHTTP(base) || strings.HasPrefix(base, "file://") {
		out, err := url.JoinPath(base, elems...)
		if err == nil {
			return out
		}
	}
	return filepath.Join(append([]string{base}, elems...)...)
}

// LocalPath converts a file URL into a path and returns any other location unchanged.
func LocalPath(location string) string {
	if u, err := url.Parse(location); err == nil && u.Scheme == "file" {
		return filepath.FromSlash(u.Path)
	}
	return location
}

func notFound(location string) error {
	return zerr.With(zerr.Wrap(ErrNotFound, location), "location", location)
}

func isHTTP(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
