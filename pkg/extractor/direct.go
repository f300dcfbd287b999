package extractor

import (
	"net/url"
	"path"
	"strings"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

// webResourceExtensions are page extensions, not media; a URL ending in
// one of these needs a site-specific module instead of a direct fetch.
var webResourceExtensions = map[string]struct{}{
	".html":  {},
	".htm":   {},
	".php":   {},
	".asp":   {},
	".aspx":  {},
	".cfm":   {},
	".cfml":  {},
	".css":   {},
	".js":    {},
	".json":  {},
	".xhtml": {},
}

// Direct handles URLs that point straight at a media file. The whole
// URL is fetched as a single resource.
type Direct struct {
	fetcher Fetcher
}

// NewDirect creates the direct-link extractor
func NewDirect(fetcher Fetcher) *Direct {
	return &Direct{fetcher: fetcher}
}

func (d *Direct) Name() string { return "direct" }

// Accepts matches URLs whose path carries a file extension that is not
// a web page.
func (d *Direct) Accepts(rawURL string) bool {
	return directExtension(rawURL) != ""
}

func (d *Direct) Resources(post *models.Post) ([]*models.Resource, error) {
	ext := directExtension(post.URL)
	return []*models.Resource{
		models.NewResource(post.URL, ext, d.fetcher.Fetcher(post.URL)),
	}, nil
}

// directExtension returns the lowercase media extension of the URL
// path, or empty when the URL is not directly fetchable.
func directExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if len(ext) < 4 || len(ext) > 5 { // three or four characters after the dot
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	if _, web := webResourceExtensions[ext]; web {
		return ""
	}
	return ext
}
