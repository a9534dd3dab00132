package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetch_ReadThrough(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if ua := r.Header.Get("User-Agent"); ua != "pale-test" {
			t.Errorf("expected user agent %q, got %q", "pale-test", ua)
		}
		w.Write([]byte("<html>jhin</html>"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := New(dir, time.Second, quietLogger(), WithUserAgent("pale-test"))
	defer c.Close()

	for i := 0; i < 3; i++ {
		page, err := c.Fetch(context.Background(), srv.URL, "jhin")
		if err != nil {
			t.Fatalf("fetch %d: unexpected error: %v", i, err)
		}
		if page != "<html>jhin</html>" {
			t.Fatalf("fetch %d: unexpected body %q", i, page)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 network request, got %d", hits.Load())
	}

	data, err := os.ReadFile(filepath.Join(dir, "jhin.html"))
	if err != nil {
		t.Fatalf("expected cached file: %v", err)
	}
	if string(data) != "<html>jhin</html>" {
		t.Errorf("unexpected cached content %q", data)
	}

	snap := c.Stats.Snapshot()
	if snap.Fetches != 1 || snap.Hits != 2 {
		t.Errorf("expected 1 fetch and 2 hits, got %+v", snap)
	}
}

func TestFetch_UsesExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "kindred.html"), []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(dir, time.Second, quietLogger())
	page, err := c.Fetch(context.Background(), "http://127.0.0.1:1/unreachable", "kindred")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != "cached" {
		t.Errorf("expected cached page, got %q", page)
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := New(dir, time.Second, quietLogger())
	_, err := c.Fetch(context.Background(), srv.URL+"/Nobody/LoL/Audio", "nobody")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", statusErr.StatusCode)
	}
	if _, err := os.Stat(filepath.Join(dir, "nobody.html")); !os.IsNotExist(err) {
		t.Errorf("expected nothing cached on failure, stat err=%v", err)
	}
	if c.Stats.Snapshot().Failures != 1 {
		t.Errorf("expected failure to be counted")
	}
}

func TestFetch_ConcurrentSameKey(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(20 * time.Millisecond)
		w.Write([]byte("page"))
	}))
	defer srv.Close()

	c := New(t.TempDir(), time.Second, quietLogger())
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Fetch(context.Background(), srv.URL, "same"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if hits.Load() != 1 {
		t.Errorf("expected a single network request, got %d", hits.Load())
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.ogg" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("OggS"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := New(dir, time.Second, quietLogger())

	dest := filepath.Join(dir, "jhin", "movement-001.ogg")
	if err := c.Download(context.Background(), srv.URL+"/clip.ogg", dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "OggS" {
		t.Fatalf("expected downloaded asset, got %q err=%v", data, err)
	}

	missing := filepath.Join(dir, "jhin", "missing-001.ogg")
	err = c.Download(context.Background(), srv.URL+"/missing.ogg", missing)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 StatusError, got %v", err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Errorf("expected no file after failed download")
	}
}
