package filter

import (
	"net/url"
	"strings"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/config"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

// Rejection reasons, stable for logs and tests
const (
	ReasonExcludedID    = "in exclusion list"
	ReasonSkippedSub    = "in skip list"
	ReasonIgnoredAuthor = "ignored author"
	ReasonScoreLow      = "score below minimum"
	ReasonScoreHigh     = "score above maximum"
	ReasonRatioLow      = "upvote ratio below minimum"
	ReasonRatioHigh     = "upvote ratio above maximum"
	ReasonExtension     = "skipped extension"
	ReasonDomain        = "skipped domain"
)

// Filter decides which items and resources are admitted into the
// pipeline. All checks are pure; nothing here touches the network or the
// filesystem.
type Filter struct {
	minScore      int
	maxScore      int
	minScoreRatio float64
	maxScoreRatio float64

	excludeIDs  map[string]struct{}
	skipSubs    map[string]struct{}
	ignoreUsers map[string]struct{}

	skipExtensions []string
	skipDomains    []string
}

// New builds a Filter from configuration. Subreddit names are matched
// case-insensitively; author names exactly. Extensions normalize to a
// leading dot.
func New(cfg *config.FilterConfig) *Filter {
	f := &Filter{
		minScore:      cfg.MinScore,
		maxScore:      cfg.MaxScore,
		minScoreRatio: cfg.MinScoreRatio,
		maxScoreRatio: cfg.MaxScoreRatio,
		excludeIDs:    make(map[string]struct{}, len(cfg.ExcludeIDs)),
		skipSubs:      make(map[string]struct{}, len(cfg.SkipSubreddits)),
		ignoreUsers:   make(map[string]struct{}, len(cfg.IgnoreUsers)),
	}

	for _, id := range cfg.ExcludeIDs {
		f.excludeIDs[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
	}
	for _, sub := range cfg.SkipSubreddits {
		f.skipSubs[strings.ToLower(strings.TrimSpace(sub))] = struct{}{}
	}
	for _, user := range cfg.IgnoreUsers {
		f.ignoreUsers[strings.TrimSpace(user)] = struct{}{}
	}

	for _, ext := range cfg.SkipExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.skipExtensions = append(f.skipExtensions, ext)
	}
	for _, domain := range cfg.SkipDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		f.skipDomains = append(f.skipDomains, domain)
	}

	return f
}

// AdmitPost evaluates every admission rule against a post, in order:
// exclusion list, subreddit skip list, ignored authors, score bounds,
// upvote ratio bounds, URL rules. The returned reason is empty when the
// post is admitted.
func (f *Filter) AdmitPost(p *models.Post) (bool, string) {
	if _, found := f.excludeIDs[strings.ToLower(p.ID)]; found {
		return false, ReasonExcludedID
	}
	if _, found := f.skipSubs[strings.ToLower(p.Subreddit)]; found {
		return false, ReasonSkippedSub
	}
	if f.authorIgnored(p.Author) {
		return false, ReasonIgnoredAuthor
	}
	if f.minScore != 0 && p.Score < f.minScore {
		return false, ReasonScoreLow
	}
	if f.maxScore != 0 && p.Score > f.maxScore {
		return false, ReasonScoreHigh
	}
	if f.minScoreRatio != 0 && p.UpvoteRatio < f.minScoreRatio {
		return false, ReasonRatioLow
	}
	if f.maxScoreRatio != 0 && p.UpvoteRatio > f.maxScoreRatio {
		return false, ReasonRatioHigh
	}
	return f.AdmitResource(p.URL)
}

// AdmitItem applies only the checks meaningful before archiving an item:
// ignored authors and the exclusion list.
func (f *Filter) AdmitItem(item models.Item) (bool, string) {
	if f.authorIgnored(item.ItemAuthor()) {
		return false, ReasonIgnoredAuthor
	}
	if _, found := f.excludeIDs[strings.ToLower(item.ItemID())]; found {
		return false, ReasonExcludedID
	}
	return true, ""
}

// AdmitResource applies the URL rules: skipped extensions and skipped
// domains.
func (f *Filter) AdmitResource(resourceURL string) (bool, string) {
	lower := strings.ToLower(resourceURL)
	for _, ext := range f.skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return false, ReasonExtension
		}
	}
	if len(f.skipDomains) > 0 {
		if host := hostOf(resourceURL); host != "" {
			for _, domain := range f.skipDomains {
				if host == domain || strings.HasSuffix(host, "."+domain) {
					return false, ReasonDomain
				}
			}
		}
	}
	return true, ""
}

// authorIgnored reports whether the author is in the ignore set. An
// absent author matches the DeletedUser sentinel.
func (f *Filter) authorIgnored(author string) bool {
	if author == "" {
		_, found := f.ignoreUsers[models.DeletedUser]
		return found
	}
	_, found := f.ignoreUsers[author]
	return found
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
