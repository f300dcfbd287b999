package reddit

import (
	"strings"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

// deletedAuthor is what the API reports for removed accounts
const deletedAuthor = "[deleted]"

func mapAuthor(author string) string {
	if author == deletedAuthor {
		return ""
	}
	return author
}

func mapCreated(ts *reddit.Timestamp) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.Time.UTC()
}

func mapPost(p *reddit.Post) *models.Post {
	if p == nil {
		return nil
	}
	return &models.Post{
		ID:          p.ID,
		FullID:      p.FullID,
		Subreddit:   p.SubredditName,
		Author:      mapAuthor(p.Author),
		Title:       p.Title,
		SelfText:    p.Body,
		URL:         p.URL,
		Permalink:   p.Permalink,
		Score:       p.Score,
		UpvoteRatio: float64(p.UpvoteRatio),
		NumComments: p.NumberOfComments,
		NSFW:        p.NSFW,
		IsSelf:      p.IsSelfPost,
		Created:     mapCreated(p.Created),
	}
}

func mapComment(c *reddit.Comment) *models.Reply {
	if c == nil {
		return nil
	}
	reply := &models.Reply{
		ID:        c.ID,
		FullID:    c.FullID,
		PostID:    strings.TrimPrefix(c.PostID, "t3_"),
		PostTitle: c.PostTitle,
		Subreddit: c.SubredditName,
		Author:    mapAuthor(c.Author),
		Body:      c.Body,
		Permalink: c.Permalink,
		Score:     c.Score,
		Created:   mapCreated(c.Created),
	}
	for _, child := range c.Replies.Comments {
		reply.Replies = append(reply.Replies, mapComment(child))
	}
	return reply
}

func mapComments(cs []*reddit.Comment) []*models.Reply {
	replies := make([]*models.Reply, 0, len(cs))
	for _, c := range cs {
		replies = append(replies, mapComment(c))
	}
	return replies
}

func postItems(posts []*reddit.Post) []models.Item {
	items := make([]models.Item, 0, len(posts))
	for _, p := range posts {
		items = append(items, mapPost(p))
	}
	return items
}

func commentItems(comments []*reddit.Comment) []models.Item {
	items := make([]models.Item, 0, len(comments))
	for _, c := range comments {
		items = append(items, mapComment(c))
	}
	return items
}
