package reddit

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
)

var (
	postIDPattern    = regexp.MustCompile(`^[0-9a-z]{6}$`)
	commentIDPattern = regexp.MustCompile(`^[0-9a-z]{7}$`)
)

// ParseLink turns a user-supplied link into an item fullname. Bare
// six-character ids are submissions, seven-character ids are comments,
// and anything else must be a URL a submission id can be read from.
func ParseLink(link string) (string, error) {
	trimmed := strings.TrimSpace(link)
	lowered := strings.ToLower(trimmed)

	if postIDPattern.MatchString(lowered) {
		return "t3_" + lowered, nil
	}
	if commentIDPattern.MatchString(lowered) {
		return "t1_" + lowered, nil
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", errors.Wrapf(errors.KindConfig, err, "could not parse link %q", link)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	// Shortlinks carry the id as the whole path
	if strings.EqualFold(u.Hostname(), "redd.it") && len(segments) == 1 && postIDPattern.MatchString(strings.ToLower(segments[0])) {
		return "t3_" + strings.ToLower(segments[0]), nil
	}

	for i, segment := range segments {
		if segment != "comments" || i+1 >= len(segments) {
			continue
		}
		id := strings.ToLower(segments[i+1])
		if postIDPattern.MatchString(id) {
			return "t3_" + id, nil
		}
	}
	return "", errors.Newf(errors.KindConfig, "could not parse link %q", link)
}

// ParseLinks resolves a batch of links, collecting the fullnames and
// reporting the first link that cannot be understood.
func ParseLinks(links []string) ([]string, error) {
	fullIDs := make([]string, 0, len(links))
	for _, link := range links {
		fullID, err := ParseLink(link)
		if err != nil {
			return nil, err
		}
		fullIDs = append(fullIDs, fullID)
	}
	return fullIDs, nil
}
