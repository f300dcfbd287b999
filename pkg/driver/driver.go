package driver

import (
	"context"
	"io"
	"time"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/archive"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/config"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/download"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/filter"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/reddit"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/retry"
)

// Status classifies what happened to one item
type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result is the per-item outcome the driver counts
type Result struct {
	Status Status
	Err    error
}

// ProcessFunc does the per-item work of one run mode
type ProcessFunc func(ctx context.Context, item models.Item) Result

// Stats summarizes a run. Failed items never abort the run; the
// numbers are how callers learn about them.
type Stats struct {
	Processed int
	Written   int
	Skipped   int
	Failed    int
}

// Driver walks sequences and feeds every item through the mode's
// processor under the retry policy. A sequence that cannot be advanced
// is abandoned after a cooldown and the run moves on.
type Driver struct {
	name     string
	process  ProcessFunc
	retryCfg *config.RetryConfig
	logger   logger.Logger
}

// NewDownloader creates a driver that acquires post resources
func NewDownloader(engine *download.Engine, retryCfg *config.RetryConfig, log logger.Logger) *Driver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Driver{
		name:     "download",
		process:  downloadProcess(engine),
		retryCfg: retryCfg,
		logger:   log,
	}
}

// NewArchiver creates a driver that writes archive records
func NewArchiver(writer *archive.Writer, f *filter.Filter, retryCfg *config.RetryConfig, log logger.Logger) *Driver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Driver{
		name:     "archive",
		process:  archiveProcess(writer, f, log),
		retryCfg: retryCfg,
		logger:   log,
	}
}

// NewCloner creates a driver that downloads and archives each item
func NewCloner(engine *download.Engine, writer *archive.Writer, retryCfg *config.RetryConfig, log logger.Logger) *Driver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Driver{
		name:     "clone",
		process:  cloneProcess(engine, writer),
		retryCfg: retryCfg,
		logger:   log,
	}
}

// Run drains every sequence. It never fails as a whole; the returned
// stats carry the failures.
func (d *Driver) Run(ctx context.Context, sequences []reddit.Sequence) Stats {
	var stats Stats
	for _, seq := range sequences {
		if ctx.Err() != nil {
			break
		}
		d.runSequence(ctx, seq, &stats)
	}

	d.logger.InfoWithFields("run complete", map[string]interface{}{
		"mode":      d.name,
		"processed": stats.Processed,
		"written":   stats.Written,
		"skipped":   stats.Skipped,
		"failed":    stats.Failed,
	})
	return stats
}

func (d *Driver) runSequence(ctx context.Context, seq reddit.Sequence, stats *Stats) {
	log := d.logger.WithField("sequence", seq.Name())
	log.Debug("starting sequence")

	var lastID string
	for {
		if ctx.Err() != nil {
			return
		}
		item, err := seq.Next(ctx)
		if err == io.EOF {
			log.Debug("sequence exhausted")
			return
		}
		if err != nil {
			log.WithError(err).WithField("after", lastID).Error("sequence failed to advance")
			d.cooldown(ctx, log)
			return
		}

		lastID = item.ItemID()
		result := d.processWithRetry(ctx, item)
		stats.Processed++
		switch result.Status {
		case StatusWritten:
			stats.Written++
		case StatusSkipped:
			stats.Skipped++
		default:
			stats.Failed++
		}
	}
}

// processWithRetry runs the per-item work, rerunning it on transient
// failures under the cubic backoff schedule.
func (d *Driver) processWithRetry(ctx context.Context, item models.Item) Result {
	var result Result
	op := func() error {
		result = d.process(ctx, item)
		if result.Err != nil && errors.IsRetryable(result.Err) {
			return result.Err
		}
		return nil
	}

	cfg := &retry.Config{
		MaxRetries: d.retryCfg.MaxRetries,
		Backoff:    &retry.CubicBackoff{BaseDelay: time.Duration(d.retryCfg.BaseDelay) * time.Second},
		RetryIf:    errors.IsRetryable,
		OnRetry: func(n int, err error, delay time.Duration) {
			logger.LogRateLimit(item.ItemID(), n, delay)
		},
		Context: ctx,
		Logger:  d.logger.WithField("item", item.ItemID()),
	}
	if err := retry.Do(op, cfg); err != nil {
		return Result{Status: StatusFailed, Err: err}
	}
	return result
}

// cooldown pauses before the run moves past a broken sequence
func (d *Driver) cooldown(ctx context.Context, log logger.Logger) {
	delay := time.Duration(d.retryCfg.SequenceCooldown) * time.Second
	if delay <= 0 {
		return
	}
	log.WithField("delay", delay.String()).Debug("waiting before continuing")
	_ = retry.Wait(ctx, delay)
}

func downloadProcess(engine *download.Engine) ProcessFunc {
	return func(ctx context.Context, item models.Item) Result {
		out := engine.Process(ctx, item)
		return Result{Status: Status(out.Status), Err: out.Err}
	}
}

func archiveProcess(writer *archive.Writer, f *filter.Filter, log logger.Logger) ProcessFunc {
	return func(ctx context.Context, item models.Item) Result {
		if f != nil {
			if admit, reason := f.AdmitItem(item); !admit {
				log.WithFields(map[string]interface{}{
					"id":     item.ItemID(),
					"reason": reason,
				}).Debug("object in exclusion list, skipping")
				return Result{Status: StatusSkipped}
			}
		}
		log.WithField("id", item.ItemID()).Debug("attempting to archive")
		out := writer.Write(ctx, item)
		return Result{Status: Status(out.Status), Err: out.Err}
	}
}

func cloneProcess(engine *download.Engine, writer *archive.Writer) ProcessFunc {
	return func(ctx context.Context, item models.Item) Result {
		down := engine.Process(ctx, item)
		if down.Err != nil && errors.IsRetryable(down.Err) {
			return Result{Status: StatusFailed, Err: down.Err}
		}
		arch := writer.Write(ctx, item)
		if arch.Err != nil && errors.IsRetryable(arch.Err) {
			return Result{Status: StatusFailed, Err: arch.Err}
		}

		switch {
		case down.Status == download.StatusFailed || arch.Status == archive.StatusFailed:
			err := down.Err
			if err == nil {
				err = arch.Err
			}
			return Result{Status: StatusFailed, Err: err}
		case down.Status == download.StatusWritten || arch.Status == archive.StatusWritten:
			return Result{Status: StatusWritten}
		default:
			return Result{Status: StatusSkipped}
		}
	}
}
