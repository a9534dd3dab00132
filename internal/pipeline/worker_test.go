package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/pale/internal/config"
)

const jhinPage = `<html><head><title>Jhin/LoL/Audio</title></head><body>
<h2><span class="mw-headline">Champion Select</span></h2>
<h3><span class="mw-headline">Pick</span></h3>
<ul><li><span><audio class="ext-audiobutton"><source src="https://wiki.test/Jhin_Pick.ogg"></audio></span> Link▶️ "The curtain rises."</li></ul>
<h2><span class="mw-headline">Attacking</span></h2>
<dl><dt>Upon attacking</dt></dl>
<ul><li><span><audio class="ext-audiobutton"><source src="https://wiki.test/Jhin_Attack.ogg"></audio></span> Four.</li></ul>
</body></html>`

const indexPage = `<html><body>
<ul>
<li data-champion="Jhin"><a>Jhin</a></li>
<li data-champion="Kindred"><a>Kindred</a></li>
<li data-champion="Jhin"><a>Jhin again</a></li>
</ul></body></html>`

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	urls  []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, key string) (string, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("fetch %s: status 404", url)
	}
	return page, nil
}

const pageTemplate = "https://wiki.test/{Champion}/LoL/Audio"

func newTestWorker(pages map[string]string) (*Worker, *fakeFetcher) {
	f := &fakeFetcher{pages: pages}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWorker(f, pageTemplate, log), f
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		template, champion, want string
	}{
		{pageTemplate, "jhin", "https://wiki.test/Jhin/LoL/Audio"},
		{"https://wiki.test/{champion}.html", "jhin", "https://wiki.test/jhin.html"},
		{"https://wiki.test/static", "jhin", "https://wiki.test/static"},
	}
	for _, tt := range tests {
		if got := PageURL(tt.template, tt.champion); got != tt.want {
			t.Errorf("PageURL(%q, %q) = %q, want %q", tt.template, tt.champion, got, tt.want)
		}
	}
}

func TestWorker_Process(t *testing.T) {
	w, f := newTestWorker(map[string]string{
		"https://wiki.test/Jhin/LoL/Audio": jhinPage,
	})
	job := NewJob("jhin")

	res, err := w.Process(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.urls) != 1 || f.urls[0] != "https://wiki.test/Jhin/LoL/Audio" {
		t.Errorf("unexpected fetches: %v", f.urls)
	}
	if res.Title != "Jhin/LoL/Audio" {
		t.Errorf("expected title %q, got %q", "Jhin/LoL/Audio", res.Title)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}

	first := res.Records[0]
	if first.Header != "Champion Select" || first.Subheader != "Pick" || first.Text != `"The curtain rises."` {
		t.Errorf("unexpected first record: %+v", first)
	}
	second := res.Records[1]
	if second.Header != "Attacking" || second.Subheader != "Upon attacking" || second.Source != "https://wiki.test/Jhin_Attack.ogg" {
		t.Errorf("unexpected second record: %+v", second)
	}
	if second.Champion != "jhin" {
		t.Errorf("expected champion %q, got %q", "jhin", second.Champion)
	}

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Errorf("expected completed, got %q", snap.Status)
	}
	if snap.Progress.Records != 2 || snap.Progress.Orphans != 0 {
		t.Errorf("unexpected progress: %+v", snap.Progress)
	}
	if snap.ContentHash != ContentHashHex([]byte(jhinPage)) {
		t.Errorf("expected content hash of the page")
	}
	if job.Result() != res {
		t.Errorf("expected result stored on job")
	}
}

func TestWorker_ProcessNoSections(t *testing.T) {
	w, _ := newTestWorker(map[string]string{
		"https://wiki.test/Kindred/LoL/Audio": `<html><body><audio class="ext-audiobutton"><source src="https://wiki.test/x.ogg"></audio></body></html>`,
	})
	job := NewJob("kindred")
	res, err := w.Process(context.Background(), job)
	if err != nil {
		t.Fatalf("shape mismatch should not fail: %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("expected no records, got %d", len(res.Records))
	}
	if len(res.Outline.Orphans) != 1 {
		t.Errorf("expected 1 orphan, got %d", len(res.Outline.Orphans))
	}
	if job.Snapshot().Status != StatusCompleted {
		t.Errorf("expected completed status")
	}
}

func TestWorker_ProcessKeepsEveryAssignedClip(t *testing.T) {
	page := `<html><body><h2><span class="mw-headline">Movement</span></h2><ul>
<li><span><audio class="ext-audiobutton"><source src="//static.wiki.test/Jhin_Move.ogg"></audio></span> "I am an artist."</li>
<li><span><audio class="ext-audiobutton"><source src="https://wiki.test/Jhin_Silent.ogg"></audio></span></li>
<li><span><audio class="ext-audiobutton"><source src="https://wiki.test/Jhin_Ok.ogg"></audio></span> Four.</li>
</ul></body></html>`
	w, _ := newTestWorker(map[string]string{"https://wiki.test/Jhin/LoL/Audio": page})

	res, err := w.Process(context.Background(), NewJob("jhin"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Outline.Assignments) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(res.Outline.Assignments))
	}
	if len(res.Records) != 3 {
		t.Fatalf("expected a record per assigned clip, got %d: %+v", len(res.Records), res.Records)
	}
	if res.Records[0].Source != "//static.wiki.test/Jhin_Move.ogg" {
		t.Errorf("expected protocol-relative source kept, got %q", res.Records[0].Source)
	}
	if res.Records[1].Text != "" || res.Records[1].Source != "https://wiki.test/Jhin_Silent.ogg" {
		t.Errorf("expected clip without text kept, got %+v", res.Records[1])
	}
}

// diskFetcher serves pages as if they were cached under ext.
type diskFetcher struct {
	fakeFetcher
	ext string
}

func (f *diskFetcher) Path(key string) string {
	return "/cache/" + key + f.ext
}

const kindredMarkdown = `# Kindred/LoL/Audio

## Movement

**Upon moving**

- [Lamb](https://wiki.test/Kindred_Move_1.ogg/revision/latest) "Wolf, do you hunt?"

## Attacking

- Never [one](https://wiki.test/Kindred_Attack_1.ogg) without the other.
`

func TestWorker_ProcessMarkdownPages(t *testing.T) {
	f := &diskFetcher{
		fakeFetcher: fakeFetcher{pages: map[string]string{
			"https://wiki.test/Kindred/LoL/Audio": kindredMarkdown,
			"https://wiki.test/index":             indexPage,
		}},
		ext:         ".md",
	}
	w := NewWorker(f, pageTemplate, slog.New(slog.NewTextHandler(io.Discard, nil)))

	res, err := w.Process(context.Background(), NewJob("kindred"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "kindred" {
		t.Errorf("expected title from the stored file name, got %q", res.Title)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(res.Records), res.Records)
	}
	first := res.Records[0]
	if first.Header != "Movement" || first.Subheader != "Upon moving" || first.Text != `Lamb "Wolf, do you hunt?"` {
		t.Errorf("unexpected first record: %+v", first)
	}
	second := res.Records[1]
	if second.Header != "Attacking" || second.Subheader != "" || second.Source != "https://wiki.test/Kindred_Attack_1.ogg" {
		t.Errorf("unexpected second record: %+v", second)
	}

	if _, err := w.Champions(context.Background(), "https://wiki.test/index"); err == nil {
		t.Error("expected markdown index to be rejected")
	}
}

func TestWorker_ProcessFetchError(t *testing.T) {
	w, _ := newTestWorker(nil)
	job := NewJob("nobody")
	if _, err := w.Process(context.Background(), job); err == nil {
		t.Fatal("expected fetch error")
	}
	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "fetching" {
		t.Errorf("expected failed in fetching, got %q/%q", snap.Status, snap.Phase)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected error recorded, got %v", snap.Progress.Errors)
	}
}

func TestWorker_Champions(t *testing.T) {
	w, _ := newTestWorker(map[string]string{"https://wiki.test/index": indexPage})
	got, err := w.Champions(context.Background(), "https://wiki.test/index")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "jhin" || got[1] != "kindred" {
		t.Errorf("expected [jhin kindred], got %v", got)
	}

	w, _ = newTestWorker(map[string]string{"https://wiki.test/index": "<html></html>"})
	if _, err := w.Champions(context.Background(), "https://wiki.test/index"); err == nil {
		t.Error("expected error for empty index")
	}
}

func TestWorker_RunAll(t *testing.T) {
	kindredPage := `<html><body><h2><span class="mw-headline">Movement</span></h2>
<p><span><audio class="ext-audiobutton"><source src="https://wiki.test/Kindred_Move.ogg"></audio></span> Never one.</p></body></html>`
	w, _ := newTestWorker(map[string]string{
		"https://wiki.test/Jhin/LoL/Audio":    jhinPage,
		"https://wiki.test/Kindred/LoL/Audio": kindredPage,
	})

	results, err := w.RunAll(context.Background(), []string{"kindred", "jhin"}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[0].Champion != "kindred" || results[1].Champion != "jhin" {
		t.Fatalf("expected results in champion order")
	}
	recs := Records(results)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].Header != "Movement" || recs[0].Subheader != "" || recs[0].Text != "Never one." {
		t.Errorf("unexpected kindred record: %+v", recs[0])
	}
}

func TestWorker_RunAllFailsFast(t *testing.T) {
	w, _ := newTestWorker(map[string]string{"https://wiki.test/Jhin/LoL/Audio": jhinPage})
	_, err := w.RunAll(context.Background(), []string{"jhin", "nobody"}, 1)
	if err == nil {
		t.Fatal("expected error for missing page")
	}
}

func TestOrchestrator_SubmitAndComplete(t *testing.T) {
	w, _ := newTestWorker(map[string]string{"https://wiki.test/Jhin/LoL/Audio": jhinPage})
	cfg := config.Default()
	cfg.Workers = 1

	o := NewOrchestrator(cfg, w, slog.New(slog.NewTextHandler(io.Discard, nil)))
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("jhin")
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected job to be registered")
	}

	deadline := time.Now().Add(2 * time.Second)
	for job.Snapshot().Status != StatusCompleted {
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete, status %q", job.Snapshot().Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if job.Result() == nil || len(job.Result().Records) != 2 {
		t.Errorf("expected 2 records on the completed job")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	w, _ := newTestWorker(nil)
	cfg := config.Default()
	cfg.MaxQueueSize = 1
	o := NewOrchestrator(cfg, w, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := o.Submit(NewJob("jhin")); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	overflow := NewJob("kindred")
	err := o.Submit(overflow)
	if err == nil {
		t.Fatal("expected queue full error")
	}
	if overflow.Snapshot().Status != StatusFailed {
		t.Errorf("expected overflow job to fail")
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}
