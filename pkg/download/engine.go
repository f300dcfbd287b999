package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/config"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/extractor"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/filter"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/index"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

// Status classifies the outcome of an item or a single resource
type Status string

const (
	StatusWritten Status = "written"
	StatusLinked  Status = "linked" // resource level only
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ResourceResult is the outcome of one resource of a post
type ResourceResult struct {
	URL         string
	Destination string
	Status      Status
	Reason      string // set for skips
	Err         error  // set for failures
}

// Outcome is the result of processing one item. Err carries the first
// fatal error; a rate-limited outcome keeps its retryable kind so the
// caller can rerun Process.
type Outcome struct {
	Item      models.Item
	Status    Status
	Reason    string
	Err       error
	Resources []ResourceResult
}

// PathResolver maps a post's resource onto its destination path
type PathResolver interface {
	ResourcePath(p *models.Post, ext string, index, total int) string
}

// Engine acquires the resources of admitted posts: extract, filter,
// fetch, deduplicate by content hash, write. Failures are isolated per
// resource except rate limiting, which aborts the item so a retry can
// rerun it; already-written destinations make the rerun cheap.
type Engine struct {
	cfg      *config.DownloadConfig
	filter   *filter.Filter
	registry *extractor.Registry
	resolver PathResolver
	index    *index.Index
	logger   logger.Logger

	// destinations this engine landed during the run, so a rerun after
	// a rate limit still credits them as written instead of skipping
	landed map[string]struct{}
}

// NewEngine creates an acquisition engine
func NewEngine(
	cfg *config.DownloadConfig,
	f *filter.Filter,
	registry *extractor.Registry,
	resolver PathResolver,
	ix *index.Index,
	log logger.Logger,
) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Engine{
		cfg:      cfg,
		filter:   f,
		registry: registry,
		resolver: resolver,
		index:    ix,
		logger:   log,
		landed:   make(map[string]struct{}),
	}
}

// Process runs the acquisition pipeline for one item
func (e *Engine) Process(ctx context.Context, item models.Item) Outcome {
	post, ok := item.(*models.Post)
	if !ok {
		e.logger.WarnWithFields("item is not a submission", map[string]interface{}{
			"id": item.ItemID(),
		})
		return Outcome{Item: item, Status: StatusSkipped, Reason: "not a submission"}
	}

	log := e.logger.WithField("post", post.ID)

	if admit, reason := e.filter.AdmitPost(post); !admit {
		log.WithField("reason", reason).Debug("submission skipped")
		return Outcome{Item: item, Status: StatusSkipped, Reason: reason}
	}

	ex, err := e.registry.Resolve(post.URL)
	if err != nil {
		log.WithError(err).Error("could not download submission")
		return Outcome{Item: item, Status: StatusFailed, Err: err}
	}

	if e.registry.Disabled(ex.Name()) {
		log.WithField("module", ex.Name()).Debug("submission skipped due to disabled module")
		return Outcome{Item: item, Status: StatusSkipped, Reason: "module disabled"}
	}

	resources, err := ex.Resources(post)
	if err != nil {
		log.WithError(err).Error("failed to find resources")
		return Outcome{Item: item, Status: StatusFailed, Err: err}
	}
	if len(resources) == 0 {
		log.Debug("submission yielded no resources")
		return Outcome{Item: item, Status: StatusSkipped, Reason: "no resources"}
	}

	out := Outcome{Item: item, Resources: make([]ResourceResult, 0, len(resources))}
	for i, res := range resources {
		result, abort := e.processResource(ctx, log, post, res, i, len(resources))
		out.Resources = append(out.Resources, result)
		if abort {
			// Rate limited: surface the retryable error for the whole item
			out.Status = StatusFailed
			out.Err = result.Err
			return out
		}
	}

	written := 0
	for _, r := range out.Resources {
		switch r.Status {
		case StatusFailed:
			if out.Err == nil {
				out.Err = r.Err
			}
		case StatusWritten, StatusLinked:
			written++
		}
	}

	switch {
	case out.Err != nil:
		out.Status = StatusFailed
	case written > 0:
		out.Status = StatusWritten
		log.WithField("resources", written).Info("downloaded submission")
	default:
		out.Status = StatusSkipped
		out.Reason = "no new resources"
	}
	return out
}

// processResource acquires a single resource. The abort flag is set
// when the failure is a rate limit and the whole item must stop.
func (e *Engine) processResource(
	ctx context.Context,
	log logger.Logger,
	post *models.Post,
	res *models.Resource,
	i, total int,
) (ResourceResult, bool) {
	destination := e.resolver.ResourcePath(post, res.Extension, i, total)
	result := ResourceResult{URL: res.URL, Destination: destination}

	if _, err := os.Stat(destination); err == nil {
		if _, ours := e.landed[destination]; ours {
			log.WithField("destination", destination).Debug("resource landed by an earlier attempt")
			result.Status = StatusWritten
			return result, false
		}
		log.WithField("destination", destination).Debug("file already exists, continuing")
		result.Status = StatusSkipped
		result.Reason = "already exists"
		return result, false
	}

	if admit, reason := e.filter.AdmitResource(res.URL); !admit {
		log.WithFields(map[string]interface{}{
			"url":    res.URL,
			"reason": reason,
		}).Debug("resource skipped")
		result.Status = StatusSkipped
		result.Reason = reason
		return result, false
	}

	if err := e.downloadResource(ctx, res); err != nil {
		result.Status = StatusFailed
		result.Err = err
		if errors.IsRetryable(err) {
			return result, true
		}
		log.WithError(err).WithField("url", res.URL).Error("failed to download resource")
		return result, false
	}

	if existing, found := e.index.Lookup(res.Hash()); found {
		return e.handleDuplicate(log, res, existing, result), false
	}

	if err := e.write(destination, res.Content(), post.Created); err != nil {
		result.Status = StatusFailed
		result.Err = err
		log.WithError(err).WithField("destination", destination).Error("failed to write resource")
		return result, false
	}

	e.index.Record(res.Hash(), destination)
	e.landed[destination] = struct{}{}
	result.Status = StatusWritten
	log.WithFields(map[string]interface{}{
		"destination": destination,
		"bytes":       len(res.Content()),
	}).Debug("wrote resource")
	return result, false
}

// downloadResource fetches the content under the configured time limit
func (e *Engine) downloadResource(ctx context.Context, res *models.Resource) error {
	if e.cfg.MaxWaitTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.MaxWaitTime)*time.Second)
		defer cancel()
	}
	return res.Download(ctx)
}

// handleDuplicate applies the duplicate mode to content already on disk
func (e *Engine) handleDuplicate(log logger.Logger, res *models.Resource, existing string, result ResourceResult) ResourceResult {
	if e.cfg.DuplicateMode == config.DuplicateHardlink {
		if err := os.MkdirAll(filepath.Dir(result.Destination), 0755); err != nil {
			result.Status = StatusFailed
			result.Err = errors.Wrapf(errors.KindLocalIO, err, "failed to create directory for %s", result.Destination)
			return result
		}
		if err := os.Link(existing, result.Destination); err != nil {
			result.Status = StatusFailed
			result.Err = errors.Wrapf(errors.KindLocalIO, err, "failed to hard link %s", result.Destination)
			log.WithError(result.Err).Error("failed to hard link duplicate")
			return result
		}
		log.WithFields(map[string]interface{}{
			"destination": result.Destination,
			"source":      existing,
		}).Debug("hard link made")
		e.landed[result.Destination] = struct{}{}
		result.Status = StatusLinked
		return result
	}

	log.WithFields(map[string]interface{}{
		"url":      res.URL,
		"existing": existing,
	}).Debug("resource hash matched existing file, skipping")
	result.Status = StatusSkipped
	result.Reason = fmt.Sprintf("duplicate of %s", existing)
	return result
}

// write lands the content at destination via a temp file rename and
// restores the file time to the submission's creation time.
func (e *Engine) write(destination string, content []byte, created time.Time) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return errors.Wrapf(errors.KindLocalIO, err, "failed to create directory for %s", destination)
	}

	tempFile := destination + ".tmp"
	if err := os.WriteFile(tempFile, content, 0644); err != nil {
		os.Remove(tempFile)
		return errors.Wrapf(errors.KindLocalIO, err, "failed to write %s", destination)
	}
	if err := os.Rename(tempFile, destination); err != nil {
		os.Remove(tempFile)
		return errors.Wrapf(errors.KindLocalIO, err, "failed to move %s into place", destination)
	}

	if !created.IsZero() {
		if err := os.Chtimes(destination, created, created); err != nil {
			// The content is safely on disk; a failed utime is not
			// worth failing the resource over.
			e.logger.WithError(err).WithField("destination", destination).Warn("failed to restore file time")
		}
	}
	return nil
}
