package extractor

import (
	"strings"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

// Extractor turns an admitted post into its downloadable resources
type Extractor interface {
	// Name identifies the module in logs and in the disable list
	Name() string
	// Accepts reports whether this extractor handles the URL
	Accepts(url string) bool
	// Resources builds the resource list for the post. Content stays
	// unfetched until each resource's Download runs.
	Resources(post *models.Post) ([]*models.Resource, error)
}

// Fetcher supplies lazy fetch functions for remote resources
type Fetcher interface {
	Fetcher(url string) models.FetchFunc
}

// Registry resolves the extractor for a URL. Extractors are consulted
// in registration order; disabling a module is a separate check so the
// caller can tell "no module" apart from "module turned off".
type Registry struct {
	extractors []Extractor
	disabled   map[string]struct{}
}

// NewRegistry creates a registry with the given modules disabled
func NewRegistry(disabled []string) *Registry {
	r := &Registry{disabled: make(map[string]struct{}, len(disabled))}
	for _, name := range disabled {
		r.disabled[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	return r
}

// DefaultRegistry creates a registry with the built-in extractors
func DefaultRegistry(fetcher Fetcher, disabled []string) *Registry {
	r := NewRegistry(disabled)
	r.Register(NewDirect(fetcher))
	r.Register(NewSelfPost())
	return r
}

// Register appends an extractor to the resolution order
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Resolve finds the extractor for a URL. No match is a permanent item
// failure: the URL will never become downloadable.
func (r *Registry) Resolve(url string) (Extractor, error) {
	for _, e := range r.extractors {
		if e.Accepts(url) {
			return e, nil
		}
	}
	return nil, errors.Newf(errors.KindPermanentItem, "no downloader module exists for url %s", url)
}

// Disabled reports whether the named module is turned off
func (r *Registry) Disabled(name string) bool {
	_, found := r.disabled[strings.ToLower(name)]
	return found
}
