package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dgallion1/pale/internal/outline"
	"github.com/dgallion1/pale/internal/parser"
	"github.com/dgallion1/pale/internal/records"
)

// Fetcher returns page markup for a URL, keyed for caching.
type Fetcher interface {
	Fetch(ctx context.Context, url, key string) (string, error)
}

// pather is implemented by fetchers that store pages on disk. The stored
// file's extension selects the parser.
type pather interface {
	Path(key string) string
}

// Result is everything produced for one champion page.
type Result struct {
	Champion    string
	Title       string
	ContentHash string
	Outline     *outline.Outline
	Records     []records.Record
}

// Duplicates counts content nodes admitted into more than one section.
func (r *Result) Duplicates() int {
	seen := make(map[int]bool)
	for _, a := range r.Outline.Assignments {
		if a.Duplicate {
			seen[a.Content.ID] = true
		}
	}
	return len(seen)
}

// Worker turns a champion name into records: fetch, parse, build the
// section tree, extract.
type Worker struct {
	fetcher Fetcher
	pageURL string
	log     *slog.Logger
}

func NewWorker(f Fetcher, pageURL string, log *slog.Logger) *Worker {
	return &Worker{fetcher: f, pageURL: pageURL, log: log}
}

// PageURL substitutes champion into a URL template. {champion} receives the
// slug as is and {Champion} its title-cased form.
func PageURL(template, champion string) string {
	title := cases.Title(language.English, cases.NoLower).String(champion)
	r := strings.NewReplacer("{champion}", champion, "{Champion}", title)
	return r.Replace(template)
}

// Champions fetches the index page and returns the champions it lists.
func (w *Worker) Champions(ctx context.Context, indexURL string) ([]string, error) {
	name := w.pageName("index")
	if p, err := parser.ForFile(name); err != nil {
		return nil, err
	} else if _, ok := p.(*parser.HTMLParser); !ok {
		return nil, fmt.Errorf("champion index %s is not html; list champions explicitly", name)
	}
	page, err := w.fetcher.Fetch(ctx, indexURL, "index")
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}
	champions, err := parser.ExtractChampions(strings.NewReader(page))
	if err != nil {
		return nil, err
	}
	if len(champions) == 0 {
		return nil, fmt.Errorf("index %s lists no champions", indexURL)
	}
	w.log.Info("read champion index", "url", indexURL, "champions", len(champions))
	return champions, nil
}

// Process runs the full parse for a job. A fetch or parse failure marks the
// job failed and is returned; markup that yields no sections is not an
// error.
func (w *Worker) Process(ctx context.Context, job *Job) (*Result, error) {
	log := w.log.With("job_id", job.ID, "champion", job.Champion)
	start := time.Now()

	// Phase 1: Fetch
	job.SetStatus(StatusFetching, "fetching")
	url := PageURL(w.pageURL, job.Champion)
	page, err := w.fetcher.Fetch(ctx, url, job.Champion)
	if err != nil {
		log.Error("fetch failed", "url", url, "error", err)
		return nil, w.fail(job, "fetching", err)
	}

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(w.pageName(job.Champion))
	if err != nil {
		return nil, w.fail(job, "parsing", err)
	}
	doc, err := p.Parse(strings.NewReader(page), job.Champion)
	if err != nil {
		log.Error("parse failed", "error", err)
		return nil, w.fail(job, "parsing", fmt.Errorf("parse %s: %w", job.Champion, err))
	}

	// Phase 3: Section tree and records
	o := outline.Build(doc)
	recs := records.FromOutline(o, job.Champion)
	res := &Result{
		Champion:    job.Champion,
		Title:       doc.Title,
		ContentHash: ContentHashHex([]byte(page)),
		Outline:     o,
		Records:     recs,
	}

	if len(o.Tree) == 0 {
		log.Warn("no sections found", "url", url)
	}
	for _, n := range o.Orphans {
		log.Debug("orphan clip", "text", records.Normalize(n.Text), "source", n.Payload)
	}
	if len(o.Orphans) > 0 {
		log.Warn("clips not assigned to any section", "orphans", len(o.Orphans))
	}

	job.Complete(res)
	log.Info("parsed champion",
		"sections", len(o.Sections),
		"records", len(recs),
		"duplicates", res.Duplicates(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// pageName returns the file a page is stored under, or an HTML name when the
// fetcher keeps nothing on disk.
func (w *Worker) pageName(key string) string {
	if p, ok := w.fetcher.(pather); ok {
		return p.Path(key)
	}
	return key + ".html"
}

func (w *Worker) fail(job *Job, phase string, err error) error {
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
	return err
}

// RunAll processes every champion with at most workers in flight. The first
// failure cancels the remaining work. Results are returned in champion order.
func (w *Worker) RunAll(ctx context.Context, champions []string, workers int) ([]*Result, error) {
	results := make([]*Result, len(champions))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, champion := range champions {
		g.Go(func() error {
			res, err := w.Process(ctx, NewJob(champion))
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Records concatenates the records of results in order.
func Records(results []*Result) []records.Record {
	var out []records.Record
	for _, r := range results {
		out = append(out, r.Records...)
	}
	return out
}
