package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

// Cache is a read-through store of page markup, one file per key.
type Cache struct {
	dir        string
	ext        string
	userAgent  string
	httpClient *http.Client
	log        *slog.Logger

	Stats *LatencyStats
}

// Option configures a Cache.
type Option func(*Cache)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Cache) { c.userAgent = ua }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Cache) { c.httpClient = hc }
}

// WithExtension sets the file extension used for cached pages.
func WithExtension(ext string) Option {
	return func(c *Cache) { c.ext = ext }
}

// New creates a cache rooted at dir. No retries are attempted; timeout bounds
// each request.
func New(dir string, timeout time.Duration, log *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		dir: dir,
		ext: ".html",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:   log,
		Stats: NewLatencyStats(time.Hour),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the file a key is cached under.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, key+c.ext)
}

// Fetch returns the cached text for key, or GETs url, persists the body on a
// 200 response and returns it. Any other status yields a *StatusError.
func (c *Cache) Fetch(ctx context.Context, url, key string) (string, error) {
	path := c.Path(key)
	if data, err := os.ReadFile(path); err == nil {
		c.Stats.Hit()
		c.log.Debug("cache hit", "key", key, "path", path)
		return string(data), nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read cache %s: %w", path, err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	// Serialize concurrent fetches of the same key across workers and processes.
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock cache %s: %w", key, err)
	}
	defer lock.Unlock()

	// Another holder of the lock may have filled it in the meantime.
	if data, err := os.ReadFile(path); err == nil {
		return string(data), nil
	}

	start := time.Now()
	body, err := c.get(ctx, url)
	if err != nil {
		c.Stats.Fail()
		return "", err
	}
	c.Stats.Record(time.Since(start).Milliseconds())
	c.log.Info("fetched page", "url", url, "key", key, "bytes", len(body), "duration_ms", time.Since(start).Milliseconds())

	if err := writeAtomic(path, body); err != nil {
		return "", fmt.Errorf("write cache %s: %w", path, err)
	}
	return string(body), nil
}

// Download streams url into dest through a temporary file, so a failed
// transfer never leaves a partial asset behind.
func (c *Cache) Download(ctx context.Context, url, dest string) error {
	resp, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("download %s: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("move asset into place: %w", err)
	}
	return nil
}

func (c *Cache) get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", url, err)
	}
	return body, nil
}

// do issues a GET and returns the response only for a 200 status.
func (c *Cache) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Close releases idle connections.
func (c *Cache) Close() {
	c.httpClient.CloseIdleConnections()
}
