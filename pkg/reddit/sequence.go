package reddit

import (
	"context"
	"fmt"
	"io"

	"github.com/loganintech/go-reddit/v2/reddit"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

// maxPageSize is the largest listing page Reddit serves
const maxPageSize = 100

// Sequence is a stream of items from one source. Next returns io.EOF
// once the stream is exhausted; any other error means the sequence
// could not be advanced and will not recover.
type Sequence interface {
	Name() string
	Next(ctx context.Context) (models.Item, error)
}

// pageFunc fetches one listing page starting at the given cursor
type pageFunc func(ctx context.Context, after string, limit int) ([]models.Item, string, error)

// listing walks a paginated source until the cursor runs out or the
// item limit is reached. A limit of zero or less means unlimited.
type listing struct {
	name      string
	fetch     pageFunc
	buffer    []models.Item
	after     string
	remaining int
	done      bool
}

func newListing(name string, limit int, fetch pageFunc) *listing {
	if limit <= 0 {
		limit = -1
	}
	return &listing{name: name, fetch: fetch, remaining: limit}
}

func (l *listing) Name() string {
	return l.name
}

func (l *listing) Next(ctx context.Context) (models.Item, error) {
	for len(l.buffer) == 0 {
		if l.done || l.remaining == 0 {
			return nil, io.EOF
		}

		size := maxPageSize
		if l.remaining > 0 && l.remaining < size {
			size = l.remaining
		}
		items, after, err := l.fetch(ctx, l.after, size)
		if err != nil {
			l.done = true
			return nil, errors.Wrapf(errors.KindSequenceAdvance, err, "failed to advance %s", l.name)
		}

		if l.remaining > 0 {
			if len(items) > l.remaining {
				items = items[:l.remaining]
			}
			l.remaining -= len(items)
		}
		l.after = after
		if after == "" || len(items) == 0 {
			l.done = true
		}
		l.buffer = items
	}

	item := l.buffer[0]
	l.buffer = l.buffer[1:]
	return item, nil
}

// SubredditPosts streams a subreddit listing under the given sort. The
// time filter only applies to the top and controversial sorts.
func (c *Client) SubredditPosts(name, sort, timeFilter string, limit int) (Sequence, error) {
	if sort == "" {
		sort = "hot"
	}
	seqName := fmt.Sprintf("r/%s/%s", name, sort)

	var lister func(context.Context, string, *reddit.ListOptions) ([]*reddit.Post, *reddit.Response, error)
	switch sort {
	case "hot":
		lister = c.api.Subreddit.HotPosts
	case "new":
		lister = c.api.Subreddit.NewPosts
	case "rising":
		lister = c.api.Subreddit.RisingPosts
	case "top", "controversial":
		ranked := c.api.Subreddit.TopPosts
		if sort == "controversial" {
			ranked = c.api.Subreddit.ControversialPosts
		}
		if timeFilter == "" {
			timeFilter = "all"
		}
		fetch := func(ctx context.Context, after string, size int) ([]models.Item, string, error) {
			if err := c.wait(ctx); err != nil {
				return nil, "", err
			}
			posts, resp, err := ranked(ctx, name, &reddit.ListPostOptions{
				ListOptions: reddit.ListOptions{Limit: size, After: after},
				Time:        timeFilter,
			})
			if err != nil {
				return nil, "", classify(err, "failed to list %s", seqName)
			}
			return postItems(posts), resp.After, nil
		}
		return newListing(seqName, limit, fetch), nil
	default:
		return nil, errors.Newf(errors.KindConfig, "unknown sort %q", sort)
	}

	fetch := func(ctx context.Context, after string, size int) ([]models.Item, string, error) {
		if err := c.wait(ctx); err != nil {
			return nil, "", err
		}
		posts, resp, err := lister(ctx, name, &reddit.ListOptions{Limit: size, After: after})
		if err != nil {
			return nil, "", classify(err, "failed to list %s", seqName)
		}
		return postItems(posts), resp.After, nil
	}
	return newListing(seqName, limit, fetch), nil
}

// UserPosts streams a redditor's submissions
func (c *Client) UserPosts(username, sort, timeFilter string, limit int) (Sequence, error) {
	if err := validateUserSort(sort); err != nil {
		return nil, err
	}
	if sort == "" {
		sort = "hot"
	}
	seqName := fmt.Sprintf("u/%s/submitted", username)

	fetch := func(ctx context.Context, after string, size int) ([]models.Item, string, error) {
		if err := c.wait(ctx); err != nil {
			return nil, "", err
		}
		posts, resp, err := c.api.User.PostsOf(ctx, username, &reddit.ListUserOverviewOptions{
			ListOptions: reddit.ListOptions{Limit: size, After: after},
			Sort:        sort,
			Time:        timeFilter,
		})
		if err != nil {
			return nil, "", classify(err, "failed to list %s", seqName)
		}
		return postItems(posts), resp.After, nil
	}
	return newListing(seqName, limit, fetch), nil
}

// UserComments streams a redditor's comments
func (c *Client) UserComments(username, sort, timeFilter string, limit int) (Sequence, error) {
	if err := validateUserSort(sort); err != nil {
		return nil, err
	}
	if sort == "" {
		sort = "hot"
	}
	seqName := fmt.Sprintf("u/%s/comments", username)

	fetch := func(ctx context.Context, after string, size int) ([]models.Item, string, error) {
		if err := c.wait(ctx); err != nil {
			return nil, "", err
		}
		comments, resp, err := c.api.User.CommentsOf(ctx, username, &reddit.ListUserOverviewOptions{
			ListOptions: reddit.ListOptions{Limit: size, After: after},
			Sort:        sort,
			Time:        timeFilter,
		})
		if err != nil {
			return nil, "", classify(err, "failed to list %s", seqName)
		}
		return commentItems(comments), resp.After, nil
	}
	return newListing(seqName, limit, fetch), nil
}

// ItemsByID streams the posts and comments behind explicit fullnames
func (c *Client) ItemsByID(fullIDs ...string) Sequence {
	idx := 0
	fetch := func(ctx context.Context, after string, size int) ([]models.Item, string, error) {
		// A chunk of unknown ids yields nothing; keep going until
		// something comes back or the ids run out.
		for idx < len(fullIDs) {
			end := idx + maxPageSize
			if end > len(fullIDs) {
				end = len(fullIDs)
			}
			chunk := fullIDs[idx:end]

			if err := c.wait(ctx); err != nil {
				return nil, "", err
			}
			posts, comments, _, _, err := c.api.Listings.Get(ctx, chunk...)
			if err != nil {
				return nil, "", classify(err, "failed to look up %d ids", len(chunk))
			}
			idx = end

			items := make([]models.Item, 0, len(posts)+len(comments))
			items = append(items, postItems(posts)...)
			items = append(items, commentItems(comments)...)
			if len(items) == 0 {
				continue
			}
			next := ""
			if idx < len(fullIDs) {
				next = "more"
			}
			return items, next, nil
		}
		return nil, "", nil
	}
	return newListing("links", 0, fetch)
}

func validateUserSort(sort string) error {
	switch sort {
	case "", "hot", "new", "top", "controversial":
		return nil
	default:
		return errors.Newf(errors.KindConfig, "unknown sort %q", sort)
	}
}
