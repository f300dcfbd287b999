package archive

import (
	"encoding/json"
	"fmt"

	"github.com/clbanning/mxj/v2"
	"gopkg.in/yaml.v3"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/config"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

// PostEntry projects a submission and its comment forest into a
// generic tree ready for serialization in any of the record formats.
func PostEntry(post *models.Post, replies []*models.Reply) map[string]interface{} {
	comments := make([]interface{}, 0, len(replies))
	for _, reply := range replies {
		comments = append(comments, ReplyEntry(reply))
	}
	return map[string]interface{}{
		"id":           post.ID,
		"name":         post.FullID,
		"title":        post.Title,
		"url":          post.URL,
		"selftext":     post.SelfText,
		"score":        post.Score,
		"upvote_ratio": post.UpvoteRatio,
		"permalink":    post.Permalink,
		"subreddit":    post.Subreddit,
		"author":       entryAuthor(post.Author),
		"num_comments": post.NumComments,
		"over_18":      post.NSFW,
		"is_self":      post.IsSelf,
		"created_utc":  post.Created.Unix(),
		"comments":     comments,
	}
}

// ReplyEntry projects a comment and its reply subtree
func ReplyEntry(reply *models.Reply) map[string]interface{} {
	children := make([]interface{}, 0, len(reply.Replies))
	for _, child := range reply.Replies {
		children = append(children, ReplyEntry(child))
	}
	return map[string]interface{}{
		"id":          reply.ID,
		"name":        reply.FullID,
		"author":      entryAuthor(reply.Author),
		"body":        reply.Body,
		"score":       reply.Score,
		"subreddit":   reply.Subreddit,
		"submission":  reply.PostID,
		"permalink":   reply.Permalink,
		"created_utc": reply.Created.Unix(),
		"replies":     children,
	}
}

func entryAuthor(author string) interface{} {
	if author == "" {
		return nil
	}
	return author
}

// Serialize renders an entry in the requested record format
func Serialize(entry map[string]interface{}, format string) ([]byte, error) {
	switch format {
	case config.FormatJSON:
		data, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return nil, errors.Wrap(errors.KindPermanentItem, err, "failed to serialize entry to json")
		}
		return append(data, '\n'), nil
	case config.FormatXML:
		data, err := mxj.Map(entry).XmlIndent("", "  ", "root")
		if err != nil {
			return nil, errors.Wrap(errors.KindPermanentItem, err, "failed to serialize entry to xml")
		}
		return append(data, '\n'), nil
	case config.FormatYAML:
		data, err := yaml.Marshal(entry)
		if err != nil {
			return nil, errors.Wrap(errors.KindPermanentItem, err, "failed to serialize entry to yaml")
		}
		return data, nil
	default:
		return nil, errors.New(errors.KindConfig, fmt.Sprintf("unknown record format %q", format))
	}
}
