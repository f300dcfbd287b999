package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

// SelfPost handles text submissions. The post body is rendered to a
// markdown .txt resource locally; nothing is fetched.
type SelfPost struct{}

// NewSelfPost creates the self-post extractor
func NewSelfPost() *SelfPost {
	return &SelfPost{}
}

func (s *SelfPost) Name() string { return "selfpost" }

// Accepts matches submission permalinks on reddit.com, which is what a
// text post carries as its URL.
func (s *SelfPost) Accepts(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host != "reddit.com" && !strings.HasSuffix(host, ".reddit.com") {
		return false
	}
	return strings.Contains(u.Path, "/r/")
}

func (s *SelfPost) Resources(post *models.Post) ([]*models.Resource, error) {
	content := renderSelfPost(post)
	return []*models.Resource{
		models.StaticResource(post.URL, ".txt", []byte(content)),
	}, nil
}

// renderSelfPost formats a text submission for disk
func renderSelfPost(p *models.Post) string {
	author := p.Author
	if author == "" {
		author = "[deleted]"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## [%s](%s)\n", p.FullID, p.URL)
	b.WriteString(p.SelfText)
	fmt.Fprintf(&b, "\n\n---\n\nsubmitted to [r/%s](https://www.reddit.com/r/%s) by [u/%s](https://www.reddit.com/user/%s)",
		p.Subreddit, p.Subreddit, author, author)
	return b.String()
}
