package models

import (
	"context"
	"crypto/md5"
	"encoding/hex"
)

// FetchFunc retrieves the raw bytes of a resource. Implementations honor
// context cancellation and deadlines.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Resource is a single downloadable artifact extracted from a post. The
// content is fetched lazily so that filters can reject the resource before
// any bytes move.
type Resource struct {
	URL       string
	Extension string // with leading dot, e.g. ".jpg"

	fetch      FetchFunc
	content    []byte
	hash       string
	downloaded bool
}

// NewResource creates a resource whose content is produced by fetch on
// the first Download call.
func NewResource(url, extension string, fetch FetchFunc) *Resource {
	return &Resource{URL: url, Extension: extension, fetch: fetch}
}

// StaticResource creates a resource whose content is already known, such
// as the rendered text of a self post. Download only computes the hash.
func StaticResource(url, extension string, content []byte) *Resource {
	return &Resource{URL: url, Extension: extension, content: content}
}

// Download fetches the content if needed and computes its hash. It is
// idempotent: subsequent calls return immediately.
func (r *Resource) Download(ctx context.Context) error {
	if r.downloaded {
		return nil
	}
	if r.fetch != nil {
		content, err := r.fetch(ctx)
		if err != nil {
			return err
		}
		r.content = content
	}
	sum := md5.Sum(r.content)
	r.hash = hex.EncodeToString(sum[:])
	r.downloaded = true
	return nil
}

// Content returns the downloaded bytes, nil before Download succeeds
func (r *Resource) Content() []byte {
	if !r.downloaded {
		return nil
	}
	return r.content
}

// Hash returns the lowercase hex MD5 of the content, empty before
// Download succeeds
func (r *Resource) Hash() string {
	return r.hash
}

// Downloaded reports whether Download has completed
func (r *Resource) Downloaded() bool {
	return r.downloaded
}
