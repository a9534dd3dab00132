package sound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Downloader fetches a URL into a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Summary counts the outcome of a Pull.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Pull downloads assets with at most workers concurrent transfers. Files that
// already exist are skipped. A failed download is logged and does not stop
// the others; only filesystem errors and cancellation are returned.
func Pull(parent context.Context, assets []Asset, dl Downloader, workers int, log *slog.Logger) (Summary, error) {
	dirs := make(map[string]bool)
	for _, a := range assets {
		dir := filepath.Dir(a.Path)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := Writable(dir); err != nil {
			return Summary{}, err
		}
	}

	var downloaded, skipped, failed atomic.Int64
	g, ctx := errgroup.WithContext(parent)
	g.SetLimit(max(workers, 1))

	for _, a := range assets {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_, err := os.Stat(a.Path)
			switch {
			case err == nil:
				skipped.Add(1)
				log.Debug("asset exists, skipping", "path", a.Path)
				return nil
			case !errors.Is(err, os.ErrNotExist):
				return fmt.Errorf("stat %s: %w", a.Path, err)
			}

			start := time.Now()
			if err := dl.Download(ctx, a.Source, a.Path); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed.Add(1)
				log.Warn("download failed", "champion", a.Champion, "url", a.Source, "error", err)
				return nil
			}
			downloaded.Add(1)
			log.Info("downloaded asset",
				"champion", a.Champion,
				"path", a.Path,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return nil
		})
	}

	err := g.Wait()
	sum := Summary{
		Downloaded: int(downloaded.Load()),
		Skipped:    int(skipped.Load()),
		Failed:     int(failed.Load()),
	}
	if err == nil {
		err = parent.Err()
	}
	return sum, err
}
