package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/config"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

// Status classifies the outcome of archiving one item
type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the result of archiving one item
type Outcome struct {
	Item        models.Item
	Status      Status
	Reason      string
	Destination string
	Err         error
}

// ThreadFetcher retrieves a submission together with its comment forest
type ThreadFetcher interface {
	Thread(ctx context.Context, postID string) (*models.Post, []*models.Reply, error)
}

// PathResolver maps an item onto its record destination
type PathResolver interface {
	ArchivePath(item models.Item, format string) string
}

// Writer renders items as archive records on disk. Posts are archived
// with their full comment forest; comments are archived as their reply
// subtree, or substituted with their parent thread when comment
// context is enabled.
type Writer struct {
	cfg      *config.ArchiveConfig
	fetcher  ThreadFetcher
	resolver PathResolver
	logger   logger.Logger
}

// NewWriter creates an archive writer
func NewWriter(cfg *config.ArchiveConfig, fetcher ThreadFetcher, resolver PathResolver, log logger.Logger) *Writer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Writer{cfg: cfg, fetcher: fetcher, resolver: resolver, logger: log}
}

// Write archives one item. A missing remote record is a skip, not a
// failure; rate limits keep their retryable kind so the caller can
// rerun Write.
func (w *Writer) Write(ctx context.Context, item models.Item) Outcome {
	var (
		entry  map[string]interface{}
		target models.Item
	)

	switch v := item.(type) {
	case *models.Post:
		post, replies, err := w.fetcher.Thread(ctx, v.ID)
		if err != nil {
			return w.fetchFailure(item, err)
		}
		entry = PostEntry(post, replies)
		target = post

	case *models.Reply:
		if w.cfg.CommentContext {
			post, replies, err := w.fetcher.Thread(ctx, v.PostID)
			if err != nil {
				return w.fetchFailure(item, err)
			}
			w.logger.WithFields(map[string]interface{}{
				"comment": v.ID,
				"post":    post.ID,
			}).Debug("converting comment to submission")
			entry = PostEntry(post, replies)
			target = post
			break
		}

		// Refresh the comment so its reply subtree is populated
		_, replies, err := w.fetcher.Thread(ctx, v.PostID)
		if err != nil {
			return w.fetchFailure(item, err)
		}
		if found := findReply(replies, v.ID); found != nil {
			entry = ReplyEntry(found)
		} else {
			entry = ReplyEntry(v)
		}
		target = v

	default:
		return Outcome{Item: item, Status: StatusSkipped, Reason: "unsupported item"}
	}

	data, err := Serialize(entry, w.cfg.Format)
	if err != nil {
		w.logger.WithError(err).WithField("id", item.ItemID()).Error("failed to serialize entry")
		return Outcome{Item: item, Status: StatusFailed, Err: err}
	}

	destination := w.resolver.ArchivePath(target, w.cfg.Format)
	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		wrapped := errors.Wrapf(errors.KindLocalIO, err, "failed to create directory for %s", destination)
		return Outcome{Item: item, Status: StatusFailed, Err: wrapped}
	}
	w.logger.WithFields(map[string]interface{}{
		"id":          item.ItemID(),
		"format":      strings.ToUpper(w.cfg.Format),
		"destination": destination,
	}).Debug("writing entry to file")
	if err := os.WriteFile(destination, data, 0644); err != nil {
		wrapped := errors.Wrapf(errors.KindLocalIO, err, "failed to write %s", destination)
		return Outcome{Item: item, Status: StatusFailed, Err: wrapped}
	}

	w.logger.WithField("id", item.ItemID()).Info("record for entry item written to disk")
	return Outcome{Item: item, Status: StatusWritten, Destination: destination}
}

// fetchFailure sorts a thread fetch error into skip or failure
func (w *Writer) fetchFailure(item models.Item, err error) Outcome {
	if errors.IsNotFound(err) {
		w.logger.WithField("id", item.ItemID()).Info("unable to retrieve record")
		return Outcome{Item: item, Status: StatusSkipped, Reason: "record not found"}
	}
	w.logger.WithError(err).WithField("id", item.ItemID()).Error("failed to fetch record")
	return Outcome{Item: item, Status: StatusFailed, Err: err}
}

// findReply walks a comment forest looking for the comment with id
func findReply(replies []*models.Reply, id string) *models.Reply {
	for _, reply := range replies {
		if reply.ID == id {
			return reply
		}
		if found := findReply(reply.Replies, id); found != nil {
			return found
		}
	}
	return nil
}
