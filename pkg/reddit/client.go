package reddit

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"golang.org/x/time/rate"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/auth"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/config"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

// Client wraps the Reddit API behind a shared rate limiter. Every call
// waits for a limiter slot so the configured requests-per-minute bound
// holds across sequences, thread fetches and lookups.
type Client struct {
	api      *reddit.Client
	limiter  *rate.Limiter
	logger   logger.Logger
	readonly bool
}

// NewClient builds an API client from script-app credentials. Missing
// or incomplete credentials fall back to the read-only client, which
// serves public listings at a lower rate limit.
func NewClient(cfg *config.RedditConfig, creds *auth.Credentials, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	opts := []reddit.Opt{reddit.WithUserAgent(cfg.UserAgent)}

	var (
		api      *reddit.Client
		err      error
		readonly = creds == nil || !creds.Complete()
	)
	if readonly {
		log.Info("no complete credentials supplied, using the read-only client")
		api, err = reddit.NewReadonlyClient(opts...)
	} else {
		api, err = reddit.NewClient(reddit.Credentials{
			ID:       creds.ClientID,
			Secret:   creds.ClientSecret,
			Username: creds.Username,
			Password: creds.Password,
		}, opts...)
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindConfig, err, "failed to create reddit client")
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	return &Client{
		api:      api,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		logger:   log,
		readonly: readonly,
	}, nil
}

// Readonly reports whether the client runs without credentials
func (c *Client) Readonly() bool {
	return c.readonly
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// Thread fetches a submission with its fully expanded comment forest
func (c *Client) Thread(ctx context.Context, postID string) (*models.Post, []*models.Reply, error) {
	postID = strings.TrimPrefix(postID, "t3_")
	if err := c.wait(ctx); err != nil {
		return nil, nil, err
	}
	pc, _, err := c.api.Post.Get(ctx, postID)
	if err != nil {
		return nil, nil, classify(err, "failed to fetch thread %s", postID)
	}
	for pc.HasMore() {
		if err := c.wait(ctx); err != nil {
			return nil, nil, err
		}
		if _, err := c.api.Post.LoadMoreComments(ctx, pc); err != nil {
			return nil, nil, classify(err, "failed to expand thread %s", postID)
		}
	}
	return mapPost(pc.Post), mapComments(pc.Comments), nil
}

// classify sorts an API error into the retry taxonomy. Rate limits and
// server errors are transient; everything else about the exchange is a
// protocol failure. Context errors pass through untouched.
func classify(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rateErr *reddit.RateLimitError
	if stderrors.As(err, &rateErr) {
		wrapped := errors.Wrapf(errors.KindTransientRemote, err, format, args...)
		wrapped.Code = 429
		return wrapped
	}

	var apiErr *reddit.ErrorResponse
	if stderrors.As(err, &apiErr) {
		status := 0
		if apiErr.Response != nil {
			status = apiErr.Response.StatusCode
		}
		kind := errors.KindRemoteProtocol
		if status == 429 || status >= 500 {
			kind = errors.KindTransientRemote
		}
		wrapped := errors.Wrapf(kind, err, format, args...)
		wrapped.Code = status
		return wrapped
	}

	return errors.Wrapf(errors.KindRemoteProtocol, err, format, args...)
}
