package reddit

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
)

func TestMapPost(t *testing.T) {
	created := time.Date(2021, 3, 12, 10, 0, 0, 0, time.UTC)
	post := mapPost(&reddit.Post{
		ID:                    "m3reby",
		FullID:                "t3_m3reby",
		Created:               &reddit.Timestamp{Time: created},
		Permalink:             "/r/golang/comments/m3reby/a_fine_title/",
		URL:                   "https://i.redd.it/abcdef.jpg",
		Title:                 "a fine title",
		Score:                 42,
		UpvoteRatio:           0.97,
		NumberOfComments:      7,
		SubredditName:         "golang",
		SubredditNamePrefixed: "r/golang",
		Author:                "gopher",
		NSFW:                  true,
	})

	if post.ID != "m3reby" || post.FullID != "t3_m3reby" {
		t.Errorf("unexpected identifiers: %q / %q", post.ID, post.FullID)
	}
	if post.Subreddit != "golang" {
		t.Errorf("unexpected subreddit %q", post.Subreddit)
	}
	if post.UpvoteRatio != float64(float32(0.97)) {
		t.Errorf("unexpected upvote ratio %v", post.UpvoteRatio)
	}
	if !post.Created.Equal(created) {
		t.Errorf("unexpected created time %v", post.Created)
	}
	if !post.NSFW {
		t.Error("nsfw flag lost")
	}
}

func TestMapPostDeletedAuthor(t *testing.T) {
	post := mapPost(&reddit.Post{ID: "m3reby", Author: "[deleted]"})
	if post.Author != "" {
		t.Errorf("deleted author should map to empty, got %q", post.Author)
	}
	if !post.Created.IsZero() {
		t.Errorf("missing timestamp should map to zero time, got %v", post.Created)
	}
}

func TestMapComment(t *testing.T) {
	comment := mapComment(&reddit.Comment{
		ID:            "gqnuxd5",
		FullID:        "t1_gqnuxd5",
		PostID:        "t3_m3reby",
		PostTitle:     "a fine title",
		SubredditName: "golang",
		Author:        "commenter",
		Body:          "nice post",
		Score:         7,
		Created:       &reddit.Timestamp{Time: time.Date(2021, 3, 12, 11, 0, 0, 0, time.UTC)},
		Replies: reddit.Replies{
			Comments: []*reddit.Comment{
				{ID: "hrzowe6", FullID: "t1_hrzowe6", PostID: "t3_m3reby", Author: "[deleted]", Body: "[removed]"},
			},
		},
	})

	if comment.PostID != "m3reby" {
		t.Errorf("post id should lose its prefix, got %q", comment.PostID)
	}
	if comment.PostTitle != "a fine title" {
		t.Errorf("unexpected post title %q", comment.PostTitle)
	}
	if len(comment.Replies) != 1 {
		t.Fatalf("expected one nested reply, got %d", len(comment.Replies))
	}
	if comment.Replies[0].Author != "" {
		t.Errorf("nested deleted author should map to empty, got %q", comment.Replies[0].Author)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      errors.Kind
		retryable bool
		notFound  bool
	}{
		{
			name:      "rate limit",
			err:       &reddit.RateLimitError{Message: "too many requests"},
			kind:      errors.KindTransientRemote,
			retryable: true,
		},
		{
			name:      "server error",
			err:       &reddit.ErrorResponse{Response: &http.Response{StatusCode: 503}},
			kind:      errors.KindTransientRemote,
			retryable: true,
		},
		{
			name:     "not found",
			err:      &reddit.ErrorResponse{Response: &http.Response{StatusCode: 404}},
			kind:     errors.KindRemoteProtocol,
			notFound: true,
		},
		{
			name: "forbidden",
			err:  &reddit.ErrorResponse{Response: &http.Response{StatusCode: 403}},
			kind: errors.KindRemoteProtocol,
		},
		{
			name: "plain error",
			err:  errTransport,
			kind: errors.KindRemoteProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, "failed to list r/golang")
			if errors.KindOf(got) != tt.kind {
				t.Errorf("kind = %s, want %s", errors.KindOf(got), tt.kind)
			}
			if errors.IsRetryable(got) != tt.retryable {
				t.Errorf("retryable = %v, want %v", errors.IsRetryable(got), tt.retryable)
			}
			if errors.IsNotFound(got) != tt.notFound {
				t.Errorf("notFound = %v, want %v", errors.IsNotFound(got), tt.notFound)
			}
		})
	}
}

func TestClassifyContextErrors(t *testing.T) {
	if got := classify(context.Canceled, "failed"); got != context.Canceled {
		t.Errorf("context.Canceled must pass through, got %v", got)
	}
	if got := classify(context.DeadlineExceeded, "failed"); got != context.DeadlineExceeded {
		t.Errorf("context.DeadlineExceeded must pass through, got %v", got)
	}
}

var errTransport = fmt.Errorf("connection reset")
