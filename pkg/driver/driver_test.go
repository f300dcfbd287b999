package driver

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/archive"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/config"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/download"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/extractor"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/filter"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/index"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/paths"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/reddit"
)

type stubSequence struct {
	name   string
	items  []models.Item
	failAt int // Next call index that fails; -1 disables
	err    error
	pos    int
}

func (s *stubSequence) Name() string { return s.name }

func (s *stubSequence) Next(ctx context.Context) (models.Item, error) {
	if s.failAt >= 0 && s.pos == s.failAt {
		return nil, s.err
	}
	if s.pos >= len(s.items) {
		return nil, io.EOF
	}
	item := s.items[s.pos]
	s.pos++
	return item, nil
}

func sequenceOf(items ...models.Item) *stubSequence {
	return &stubSequence{name: "r/golang/new", items: items, failAt: -1}
}

func post(id string, score int) *models.Post {
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

func testRetryCfg() *config.RetryConfig {
	return &config.RetryConfig{MaxRetries: 2, BaseDelay: 0, SequenceCooldown: 0}
}

func testDriver(process ProcessFunc, retryCfg *config.RetryConfig) *Driver {
	if retryCfg == nil {
		retryCfg = testRetryCfg()
	}
	return &Driver{name: "test", process: process, retryCfg: retryCfg, logger: logger.NewNopLogger()}
}

func TestRunCounts(t *testing.T) {
	process := func(ctx context.Context, item models.Item) Result {
		switch item.ItemID() {
		case "skipme":
			return Result{Status: StatusSkipped}
		case "failme":
			return Result{Status: StatusFailed, Err: errors.New(errors.KindPermanentItem, "no module")}
		default:
			return Result{Status: StatusWritten}
		}
	}
	d := testDriver(process, nil)

	stats := d.Run(context.Background(), []reddit.Sequence{
		sequenceOf(post("one", 1), post("skipme", 1), post("failme", 1), post("two", 1)),
	})
	want := Stats{Processed: 4, Written: 2, Skipped: 1, Failed: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestRunRetriesTransientFailures(t *testing.T) {
	attempts := 0
	process := func(ctx context.Context, item models.Item) Result {
		attempts++
		if attempts < 3 {
			return Result{Status: StatusFailed, Err: errors.WithCode(errors.KindTransientRemote, 429, "rate limited")}
		}
		return Result{Status: StatusWritten}
	}
	d := testDriver(process, nil)

	stats := d.Run(context.Background(), []reddit.Sequence{sequenceOf(post("one", 1))})
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	want := Stats{Processed: 1, Written: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestRunRetryBudgetExhausted(t *testing.T) {
	attempts := 0
	process := func(ctx context.Context, item models.Item) Result {
		attempts++
		return Result{Status: StatusFailed, Err: errors.WithCode(errors.KindTransientRemote, 429, "rate limited")}
	}
	d := testDriver(process, &config.RetryConfig{MaxRetries: 1, BaseDelay: 0, SequenceCooldown: 0})

	stats := d.Run(context.Background(), []reddit.Sequence{sequenceOf(post("one", 1))})
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if stats.Failed != 1 || stats.Processed != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunAbandonsBrokenSequence(t *testing.T) {
	process := func(ctx context.Context, item models.Item) Result {
		return Result{Status: StatusWritten}
	}
	d := testDriver(process, nil)

	broken := &stubSequence{
		name:   "r/golang/new",
		items:  []models.Item{post("one", 1), post("never", 1)},
		failAt: 1,
		err:    errors.New(errors.KindSequenceAdvance, "failed to advance r/golang/new"),
	}
	healthy := sequenceOf(post("two", 1))

	stats := d.Run(context.Background(), []reddit.Sequence{broken, healthy})
	want := Stats{Processed: 2, Written: 2}
	if stats != want {
		t.Errorf("run did not continue past the broken sequence: %+v", stats)
	}
}

func TestRunCooldownHonorsContext(t *testing.T) {
	process := func(ctx context.Context, item models.Item) Result {
		return Result{Status: StatusWritten}
	}
	d := testDriver(process, &config.RetryConfig{MaxRetries: 0, BaseDelay: 0, SequenceCooldown: 60})

	broken := &stubSequence{
		name:   "r/golang/new",
		failAt: 0,
		err:    errors.New(errors.KindSequenceAdvance, "failed to advance"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	d.Run(ctx, []reddit.Sequence{broken, sequenceOf(post("one", 1))})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cooldown ignored cancellation, took %v", elapsed)
	}
}

func TestRunContextAlreadyCancelled(t *testing.T) {
	calls := 0
	process := func(ctx context.Context, item models.Item) Result {
		calls++
		return Result{Status: StatusWritten}
	}
	d := testDriver(process, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats := d.Run(ctx, []reddit.Sequence{sequenceOf(post("one", 1))})
	if calls != 0 || stats.Processed != 0 {
		t.Errorf("cancelled run still processed items: %+v", stats)
	}
}

type stubExtractor struct {
	name    string
	content []byte
}

func (s *stubExtractor) Name() string            { return s.name }
func (s *stubExtractor) Accepts(url string) bool { return true }

func (s *stubExtractor) Resources(p *models.Post) ([]*models.Resource, error) {
	return []*models.Resource{models.StaticResource(p.URL, ".jpg", s.content)}, nil
}

type stubThreads struct{}

func (stubThreads) Thread(ctx context.Context, postID string) (*models.Post, []*models.Reply, error) {
	return post(postID, 50), nil, nil
}

func newTestEngine(t *testing.T, filterCfg *config.FilterConfig, content []byte) (*download.Engine, string) {
	t.Helper()
	root := t.TempDir()
	registry := extractor.NewRegistry(nil)
	registry.Register(&stubExtractor{name: "stub", content: content})
	engine := download.NewEngine(
		&config.DownloadConfig{DuplicateMode: config.DuplicateSkip, MaxWaitTime: 120},
		filter.New(filterCfg),
		registry,
		paths.NewFormatter(root, "{SUBREDDIT}", "{POSTID}"),
		index.New(),
		logger.NewNopLogger(),
	)
	return engine, root
}

func TestDownloaderRun(t *testing.T) {
	engine, root := newTestEngine(t, &config.FilterConfig{MinScore: 10}, []byte("media"))
	d := NewDownloader(engine, testRetryCfg(), logger.NewNopLogger())

	stats := d.Run(context.Background(), []reddit.Sequence{
		sequenceOf(post("good01", 50), post("low001", 5)),
	})
	want := Stats{Processed: 2, Written: 1, Skipped: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if _, err := os.Stat(filepath.Join(root, "golang", "good01.jpg")); err != nil {
		t.Errorf("downloaded file missing: %v", err)
	}
}

func TestArchiverRunSkipsIgnoredUsers(t *testing.T) {
	root := t.TempDir()
	writer := archive.NewWriter(
		&config.ArchiveConfig{Format: config.FormatJSON},
		stubThreads{},
		paths.NewFormatter(root, "{SUBREDDIT}", "{POSTID}"),
		logger.NewNopLogger(),
	)
	f := filter.New(&config.FilterConfig{IgnoreUsers: []string{"gopher"}})
	d := NewArchiver(writer, f, testRetryCfg(), logger.NewNopLogger())

	ignored := post("one001", 50)
	admitted := post("two002", 50)
	admitted.Author = "other"

	stats := d.Run(context.Background(), []reddit.Sequence{sequenceOf(ignored, admitted)})
	want := Stats{Processed: 2, Written: 1, Skipped: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if _, err := os.Stat(filepath.Join(root, "golang", "two002.json")); err != nil {
		t.Errorf("archive record missing: %v", err)
	}
}

func TestClonerRun(t *testing.T) {
	engine, root := newTestEngine(t, &config.FilterConfig{}, []byte("media"))
	writer := archive.NewWriter(
		&config.ArchiveConfig{Format: config.FormatJSON},
		stubThreads{},
		paths.NewFormatter(root, "{SUBREDDIT}", "{POSTID}"),
		logger.NewNopLogger(),
	)
	d := NewCloner(engine, writer, testRetryCfg(), logger.NewNopLogger())

	stats := d.Run(context.Background(), []reddit.Sequence{sequenceOf(post("abc123", 50))})
	want := Stats{Processed: 1, Written: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	for _, name := range []string{"abc123.jpg", "abc123.json"} {
		if _, err := os.Stat(filepath.Join(root, "golang", name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

func TestClonerReplyGoesToArchiveOnly(t *testing.T) {
	engine, root := newTestEngine(t, &config.FilterConfig{}, []byte("media"))
	writer := archive.NewWriter(
		&config.ArchiveConfig{Format: config.FormatJSON},
		stubThreads{},
		paths.NewFormatter(root, "{SUBREDDIT}", "{POSTID}"),
		logger.NewNopLogger(),
	)
	d := NewCloner(engine, writer, testRetryCfg(), logger.NewNopLogger())

	reply := &models.Reply{
		ID:        "def4567",
		FullID:    "t1_def4567",
		PostID:    "abc123",
		Subreddit: "golang",
		Author:    "commenter",
		Body:      "nice post",
		Created:   time.Date(2021, 2, 3, 4, 5, 6, 0, time.UTC),
	}
	stats := d.Run(context.Background(), []reddit.Sequence{sequenceOf(reply)})
	if stats.Written != 1 {
		t.Errorf("reply should still be archived: %+v", stats)
	}
	if _, err := os.Stat(filepath.Join(root, "golang", "def4567.json")); err != nil {
		t.Errorf("archive record missing: %v", err)
	}
	entries, err := filepath.Glob(filepath.Join(root, "golang", "*.jpg"))
	if err != nil || len(entries) != 0 {
		t.Errorf("reply must not produce media files: %v", entries)
	}
}
