package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/config"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/extractor"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/filter"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/index"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

type stubExtractor struct {
	name      string
	resources []*models.Resource
	err       error
}

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) Accepts(url string) bool { return true }

func (s *stubExtractor) Resources(p *models.Post) ([]*models.Resource, error) {
	return s.resources, s.err
}

// flatResolver lays every resource directly under root
type flatResolver struct {
	root string
}

func (r flatResolver) ResourcePath(p *models.Post, ext string, index, total int) string {
	name := p.ID + ext
	if total > 1 {
		name = fmt.Sprintf("%s_%d%s", p.ID, index+1, ext)
	}
	return filepath.Join(r.root, name)
}

func testPost(id string, score int) *models.Post {
	return &models.Post{
		ID:        id,
		FullID:    "t3_" + id,
		Subreddit: "golang",
		Author:    "gopher",
		Title:     "title " + id,
		URL:       "https://i.example.com/" + id + ".jpg",
		Score:     score,
		Created:   time.Date(2021, 2, 3, 4, 5, 6, 0, time.UTC),
	}
}

func countingResource(url string, content []byte, calls *int32) *models.Resource {
	return models.NewResource(url, ".jpg", func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(calls, 1)
		return content, nil
	})
}

func newTestEngine(t *testing.T, cfg *config.DownloadConfig, filterCfg *config.FilterConfig, stub *stubExtractor) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	if cfg == nil {
		cfg = &config.DownloadConfig{DuplicateMode: config.DuplicateSkip, MaxWaitTime: 120}
	}
	if filterCfg == nil {
		filterCfg = &config.FilterConfig{}
	}
	registry := extractor.NewRegistry(nil)
	if stub != nil {
		registry.Register(stub)
	}
	engine := NewEngine(cfg, filter.New(filterCfg), registry, flatResolver{root: root}, index.New(), logger.NewNopLogger())
	return engine, root
}

func TestProcessWritesResource(t *testing.T) {
	var calls int32
	post := testPost("abc123", 42)
	stub := &stubExtractor{name: "stub", resources: []*models.Resource{
		countingResource(post.URL, []byte("media-bytes"), &calls),
	}}
	engine, root := newTestEngine(t, nil, nil, stub)

	out := engine.Process(context.Background(), post)
	if out.Status != StatusWritten {
		t.Fatalf("expected written, got %s (reason=%q err=%v)", out.Status, out.Reason, out.Err)
	}
	if len(out.Resources) != 1 || out.Resources[0].Status != StatusWritten {
		t.Fatalf("unexpected resource results: %+v", out.Resources)
	}

	destination := filepath.Join(root, "abc123.jpg")
	content, err := os.ReadFile(destination)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if string(content) != "media-bytes" {
		t.Errorf("unexpected content %q", content)
	}

	info, err := os.Stat(destination)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.ModTime().UTC(); !got.Equal(post.Created) {
		t.Errorf("mtime not restored: got %v want %v", got, post.Created)
	}
	if calls != 1 {
		t.Errorf("expected 1 fetch, got %d", calls)
	}
}

func TestProcessReplySkipped(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil, &stubExtractor{name: "stub"})
	reply := &models.Reply{ID: "c1", FullID: "t1_c1", Author: "gopher"}

	out := engine.Process(context.Background(), reply)
	if out.Status != StatusSkipped || out.Reason != "not a submission" {
		t.Fatalf("expected skip for reply, got %s (%q)", out.Status, out.Reason)
	}
}

func TestProcessFilterSkipsWithoutFetch(t *testing.T) {
	var calls int32
	post := testPost("lowscore", 5)
	stub := &stubExtractor{name: "stub", resources: []*models.Resource{
		countingResource(post.URL, []byte("media"), &calls),
	}}
	engine, _ := newTestEngine(t, nil, &config.FilterConfig{MinScore: 10}, stub)

	out := engine.Process(context.Background(), post)
	if out.Status != StatusSkipped {
		t.Fatalf("expected skip, got %s", out.Status)
	}
	if out.Reason != filter.ReasonScoreLow {
		t.Errorf("unexpected reason %q", out.Reason)
	}
	if calls != 0 {
		t.Errorf("filtered post must not fetch, got %d calls", calls)
	}
}

func TestProcessNoModule(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil, nil)
	out := engine.Process(context.Background(), testPost("abc123", 42))
	if out.Status != StatusFailed {
		t.Fatalf("expected failure, got %s", out.Status)
	}
	if !errors.IsKind(out.Err, errors.KindPermanentItem) {
		t.Errorf("expected permanent item error, got %v", out.Err)
	}
}

func TestProcessDisabledModule(t *testing.T) {
	var calls int32
	post := testPost("abc123", 42)
	stub := &stubExtractor{name: "stub", resources: []*models.Resource{
		countingResource(post.URL, []byte("media"), &calls),
	}}
	root := t.TempDir()
	registry := extractor.NewRegistry([]string{"stub"})
	registry.Register(stub)
	engine := NewEngine(
		&config.DownloadConfig{DuplicateMode: config.DuplicateSkip, MaxWaitTime: 120},
		filter.New(&config.FilterConfig{}),
		registry,
		flatResolver{root: root},
		index.New(),
		logger.NewNopLogger(),
	)

	out := engine.Process(context.Background(), post)
	if out.Status != StatusSkipped || out.Reason != "module disabled" {
		t.Fatalf("expected disabled-module skip, got %s (%q)", out.Status, out.Reason)
	}
	if calls != 0 {
		t.Errorf("disabled module must not fetch, got %d calls", calls)
	}
}

func TestProcessExistingDestinationSkips(t *testing.T) {
	var calls int32
	post := testPost("abc123", 42)
	stub := &stubExtractor{name: "stub", resources: []*models.Resource{
		countingResource(post.URL, []byte("new content"), &calls),
	}}
	engine, root := newTestEngine(t, nil, nil, stub)

	destination := filepath.Join(root, "abc123.jpg")
	if err := os.WriteFile(destination, []byte("old content"), 0644); err != nil {
		t.Fatal(err)
	}

	out := engine.Process(context.Background(), post)
	if out.Status != StatusSkipped || out.Reason != "no new resources" {
		t.Fatalf("expected skip, got %s (%q)", out.Status, out.Reason)
	}
	if out.Resources[0].Reason != "already exists" {
		t.Errorf("unexpected resource reason %q", out.Resources[0].Reason)
	}
	if calls != 0 {
		t.Errorf("existing destination must not fetch, got %d calls", calls)
	}
	content, _ := os.ReadFile(destination)
	if string(content) != "old content" {
		t.Errorf("existing file was overwritten: %q", content)
	}
}

func TestProcessDuplicateSkip(t *testing.T) {
	first := testPost("first1", 42)
	second := testPost("second", 42)
	engine, root := newTestEngine(t, nil, nil, &stubExtractor{name: "stub", resources: []*models.Resource{
		models.StaticResource(first.URL, ".jpg", []byte("same bytes")),
	}})

	if out := engine.Process(context.Background(), first); out.Status != StatusWritten {
		t.Fatalf("first post: expected written, got %s", out.Status)
	}

	// Same content arriving under a different post
	engine.registry = extractor.NewRegistry(nil)
	engine.registry.Register(&stubExtractor{name: "stub", resources: []*models.Resource{
		models.StaticResource(second.URL, ".jpg", []byte("same bytes")),
	}})

	out := engine.Process(context.Background(), second)
	if out.Status != StatusSkipped || out.Reason != "no new resources" {
		t.Fatalf("expected duplicate skip, got %s (%q)", out.Status, out.Reason)
	}
	if !strings.Contains(out.Resources[0].Reason, "duplicate of") {
		t.Errorf("unexpected resource reason %q", out.Resources[0].Reason)
	}
	if _, err := os.Stat(filepath.Join(root, "second.jpg")); !os.IsNotExist(err) {
		t.Error("duplicate must not be written in skip mode")
	}
}

func TestProcessDuplicateHardlink(t *testing.T) {
	first := testPost("first1", 42)
	second := testPost("second", 42)
	cfg := &config.DownloadConfig{DuplicateMode: config.DuplicateHardlink, MaxWaitTime: 120}
	engine, root := newTestEngine(t, cfg, nil, &stubExtractor{name: "stub", resources: []*models.Resource{
		models.StaticResource(first.URL, ".jpg", []byte("same bytes")),
	}})

	if out := engine.Process(context.Background(), first); out.Status != StatusWritten {
		t.Fatalf("first post: expected written, got %s", out.Status)
	}

	engine.registry = extractor.NewRegistry(nil)
	engine.registry.Register(&stubExtractor{name: "stub", resources: []*models.Resource{
		models.StaticResource(second.URL, ".jpg", []byte("same bytes")),
	}})

	out := engine.Process(context.Background(), second)
	if out.Status != StatusWritten {
		t.Fatalf("expected written outcome for hardlink, got %s (err=%v)", out.Status, out.Err)
	}
	if out.Resources[0].Status != StatusLinked {
		t.Fatalf("expected linked resource, got %s", out.Resources[0].Status)
	}

	firstInfo, err := os.Stat(filepath.Join(root, "first1.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	secondInfo, err := os.Stat(filepath.Join(root, "second.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if !os.SameFile(firstInfo, secondInfo) {
		t.Error("hard link does not share the original's inode")
	}
}

func TestProcessRateLimitAborts(t *testing.T) {
	var secondCalls int32
	post := testPost("abc123", 42)
	stub := &stubExtractor{name: "stub", resources: []*models.Resource{
		models.NewResource(post.URL, ".jpg", func(ctx context.Context) ([]byte, error) {
			return nil, errors.WithCode(errors.KindTransientRemote, 429, "rate limited")
		}),
		countingResource("https://i.example.com/two.jpg", []byte("media"), &secondCalls),
	}}
	engine, _ := newTestEngine(t, nil, nil, stub)

	out := engine.Process(context.Background(), post)
	if out.Status != StatusFailed {
		t.Fatalf("expected failure, got %s", out.Status)
	}
	if !errors.IsRetryable(out.Err) {
		t.Errorf("rate limit must stay retryable, got %v", out.Err)
	}
	if len(out.Resources) != 1 {
		t.Errorf("rate limit must abort the item, processed %d resources", len(out.Resources))
	}
	if secondCalls != 0 {
		t.Errorf("second resource must not be fetched after a rate limit")
	}
}

func TestProcessRerunAfterRateLimitCreditsEarlierWrites(t *testing.T) {
	// First attempt writes resource one, then resource two rate-limits.
	// The rerun must count the item as written, not skip it because the
	// first destination already exists.
	var firstCalls, secondAttempts int32
	post := testPost("abc123", 42)
	stub := &stubExtractor{name: "stub", resources: []*models.Resource{
		countingResource(post.URL, []byte("media-one"), &firstCalls),
		models.NewResource("https://i.example.com/two.jpg", ".jpg", func(ctx context.Context) ([]byte, error) {
			if atomic.AddInt32(&secondAttempts, 1) == 1 {
				return nil, errors.WithCode(errors.KindTransientRemote, 429, "rate limited")
			}
			return []byte("media-two"), nil
		}),
	}}
	engine, root := newTestEngine(t, nil, nil, stub)

	out := engine.Process(context.Background(), post)
	if out.Status != StatusFailed || !errors.IsRetryable(out.Err) {
		t.Fatalf("first attempt should abort retryably, got %s (%v)", out.Status, out.Err)
	}

	out = engine.Process(context.Background(), post)
	if out.Status != StatusWritten {
		t.Fatalf("rerun should report written, got %s (reason=%q err=%v)", out.Status, out.Reason, out.Err)
	}
	if out.Resources[0].Status != StatusWritten {
		t.Errorf("earlier write should stay credited, got %s", out.Resources[0].Status)
	}
	if firstCalls != 1 {
		t.Errorf("first resource fetched %d times, want 1", firstCalls)
	}

	for _, name := range []string{"abc123_1.jpg", "abc123_2.jpg"} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestProcessFailureIsolation(t *testing.T) {
	post := testPost("abc123", 42)
	stub := &stubExtractor{name: "stub", resources: []*models.Resource{
		models.NewResource("https://i.example.com/bad.jpg", ".jpg", func(ctx context.Context) ([]byte, error) {
			return nil, errors.WithCode(errors.KindRemoteProtocol, 404, "resource not found")
		}),
		models.StaticResource("https://i.example.com/good.jpg", ".jpg", []byte("media")),
	}}
	engine, root := newTestEngine(t, nil, nil, stub)

	out := engine.Process(context.Background(), post)
	if out.Status != StatusFailed {
		t.Fatalf("expected failed outcome, got %s", out.Status)
	}
	if len(out.Resources) != 2 {
		t.Fatalf("expected both resources attempted, got %d", len(out.Resources))
	}
	if out.Resources[0].Status != StatusFailed {
		t.Errorf("first resource should fail, got %s", out.Resources[0].Status)
	}
	if out.Resources[1].Status != StatusWritten {
		t.Errorf("second resource should still be written, got %s", out.Resources[1].Status)
	}
	if _, err := os.Stat(filepath.Join(root, "abc123_2.jpg")); err != nil {
		t.Errorf("surviving resource missing: %v", err)
	}
}

func TestProcessIdempotentSecondRun(t *testing.T) {
	var calls int32
	post := testPost("abc123", 42)
	stub := &stubExtractor{name: "stub", resources: []*models.Resource{
		countingResource(post.URL, []byte("media-bytes"), &calls),
	}}
	engine, root := newTestEngine(t, nil, nil, stub)

	if out := engine.Process(context.Background(), post); out.Status != StatusWritten {
		t.Fatalf("first run: expected written, got %s", out.Status)
	}
	destination := filepath.Join(root, "abc123.jpg")
	before, err := os.Stat(destination)
	if err != nil {
		t.Fatal(err)
	}

	// A fresh run over the same tree sees the file on disk and skips it.
	registry := extractor.NewRegistry(nil)
	registry.Register(stub)
	cfg := &config.DownloadConfig{DuplicateMode: config.DuplicateSkip, MaxWaitTime: 120}
	second := NewEngine(cfg, filter.New(&config.FilterConfig{}), registry, flatResolver{root: root}, index.New(), logger.NewNopLogger())

	out := second.Process(context.Background(), post)
	if out.Status != StatusSkipped {
		t.Fatalf("second run: expected skip, got %s", out.Status)
	}
	if calls != 1 {
		t.Errorf("second run must not fetch again, got %d calls", calls)
	}
	after, err := os.Stat(destination)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) || after.Size() != before.Size() {
		t.Error("second run modified the destination")
	}
}

func TestProcessNoResources(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil, &stubExtractor{name: "stub"})
	out := engine.Process(context.Background(), testPost("abc123", 42))
	if out.Status != StatusSkipped || out.Reason != "no resources" {
		t.Fatalf("expected no-resources skip, got %s (%q)", out.Status, out.Reason)
	}
}

func TestProcessExtractorError(t *testing.T) {
	stub := &stubExtractor{name: "stub", err: errors.New(errors.KindPermanentItem, "no media found")}
	engine, _ := newTestEngine(t, nil, nil, stub)
	out := engine.Process(context.Background(), testPost("abc123", 42))
	if out.Status != StatusFailed {
		t.Fatalf("expected failure, got %s", out.Status)
	}
	if !errors.IsKind(out.Err, errors.KindPermanentItem) {
		t.Errorf("unexpected error kind: %v", out.Err)
	}
}

func TestProcessDownloadTimeout(t *testing.T) {
	post := testPost("abc123", 42)
	stub := &stubExtractor{name: "stub", resources: []*models.Resource{
		models.NewResource(post.URL, ".jpg", func(ctx context.Context) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	}}
	cfg := &config.DownloadConfig{DuplicateMode: config.DuplicateSkip, MaxWaitTime: 1}
	engine, _ := newTestEngine(t, cfg, nil, stub)

	start := time.Now()
	out := engine.Process(context.Background(), post)
	if out.Status != StatusFailed {
		t.Fatalf("expected failure, got %s", out.Status)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}
