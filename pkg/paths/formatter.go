package paths

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

// maxNameLength is the longest file name emitted, in bytes. Most
// filesystems cap names at 255; staying under it keeps room for
// temporary suffixes.
const maxNameLength = 240

// deletedAuthor is what {REDDITOR} expands to for absent accounts
const deletedAuthor = "DELETED"

// Formatter resolves destination paths from naming schemes. Folder
// schemes may nest with "/"; both schemes expand the placeholders
// {SUBREDDIT}, {REDDITOR}, {POSTID}, {TITLE}, {UPVOTES} and {DATE}.
type Formatter struct {
	root         string
	folderScheme string
	fileScheme   string
}

// NewFormatter creates a formatter rooted at the output directory
func NewFormatter(root, folderScheme, fileScheme string) *Formatter {
	return &Formatter{
		root:         root,
		folderScheme: folderScheme,
		fileScheme:   fileScheme,
	}
}

// Root returns the output directory the formatter resolves under
func (f *Formatter) Root() string {
	return f.root
}

// ResourcePath returns the destination for one resource of a post.
// When the post yields several resources each name gets a 1-based
// "_N" suffix before the extension.
func (f *Formatter) ResourcePath(p *models.Post, ext string, index, total int) string {
	suffix := ""
	if total > 1 {
		suffix = "_" + strconv.Itoa(index+1)
	}
	return f.assemble(placeholdersForPost(p), suffix+ext)
}

// ArchivePath returns the destination for an item's archive entry
func (f *Formatter) ArchivePath(item models.Item, format string) string {
	var values map[string]string
	switch v := item.(type) {
	case *models.Post:
		values = placeholdersForPost(v)
	case *models.Reply:
		values = placeholdersForReply(v)
	}
	return f.assemble(values, "."+format)
}

// assemble expands both schemes, sanitizes every path segment and
// joins them under the root.
func (f *Formatter) assemble(values map[string]string, ending string) string {
	parts := []string{f.root}
	for _, segment := range strings.Split(f.folderScheme, "/") {
		expanded := sanitize(expand(segment, values))
		if expanded != "" {
			parts = append(parts, expanded)
		}
	}

	name := sanitize(expand(f.fileScheme, values))
	if name == "" {
		name = values["{POSTID}"]
	}
	name = limitLength(name, ending)

	parts = append(parts, name+ending)
	return filepath.Join(parts...)
}

func placeholdersForPost(p *models.Post) map[string]string {
	author := p.Author
	if author == "" {
		author = deletedAuthor
	}
	return map[string]string{
		"{SUBREDDIT}": p.Subreddit,
		"{REDDITOR}":  author,
		"{POSTID}":    p.ID,
		"{TITLE}":     p.Title,
		"{UPVOTES}":   strconv.Itoa(p.Score),
		"{DATE}":      strconv.FormatInt(p.Created.Unix(), 10),
	}
}

func placeholdersForReply(r *models.Reply) map[string]string {
	author := r.Author
	if author == "" {
		author = deletedAuthor
	}
	title := r.PostTitle
	if title == "" {
		title = r.Body
	}
	return map[string]string{
		"{SUBREDDIT}": r.Subreddit,
		"{REDDITOR}":  author,
		"{POSTID}":    r.ID,
		"{TITLE}":     title,
		"{UPVOTES}":   strconv.Itoa(r.Score),
		"{DATE}":      strconv.FormatInt(r.Created.Unix(), 10),
	}
}

func expand(scheme string, values map[string]string) string {
	out := scheme
	for key, value := range values {
		out = strings.ReplaceAll(out, key, value)
	}
	return out
}

// sanitize strips characters that cannot appear in file names and
// trailing dots and spaces.
func sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case strings.ContainsRune(`/\?%*:|"<>`, r):
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), ". ")
}

// limitLength truncates name on a rune boundary so that name+ending
// stays within maxNameLength bytes.
func limitLength(name, ending string) string {
	budget := maxNameLength - len(ending)
	if budget < 1 {
		budget = 1
	}
	if len(name) <= budget {
		return name
	}
	runes := []rune(name)
	for len(string(runes)) > budget && len(runes) > 1 {
		runes = runes[:len(runes)-1]
	}
	return strings.TrimRight(string(runes), ". ")
}
