package index

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/Alessandro201/bulk-downloader-for-reddit/internal/hasher"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
)

// Index maps content hashes to a file already holding that content.
// The orchestration loop is single threaded, so the map needs no lock:
// Scan finishes before the first Lookup happens.
type Index struct {
	byHash map[string]string
}

// New creates an empty index
func New() *Index {
	return &Index{byHash: make(map[string]string)}
}

// Lookup returns the path recorded for a hash
func (ix *Index) Lookup(hash string) (string, bool) {
	path, ok := ix.byHash[hash]
	return path, ok
}

// Record remembers the path for a hash. Re-recording a hash replaces
// the previous path; identical content under two paths keeps one entry.
func (ix *Index) Record(hash, path string) {
	ix.byHash[hash] = path
}

// Len returns the number of distinct hashes known
func (ix *Index) Len() int {
	return len(ix.byHash)
}

// Scan walks the tree under root and hashes every regular file with a
// pool of workers, returning the populated index. Files that cannot be
// hashed are logged and left out.
func Scan(ctx context.Context, root string, workers int, log logger.Logger) (*Index, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	ix := New()

	pool := hasher.NewWorkerPool(ctx, workers, log)
	pool.Start()

	walkErr := make(chan error, 1)
	go func() {
		defer pool.Stop()
		walkErr <- filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			return pool.Submit(hasher.HashJob{Path: path})
		})
	}()

	for res := range pool.Results() {
		if res.Err != nil {
			continue // already logged by the pool
		}
		ix.Record(res.Hash, res.Path)
	}

	if err := <-walkErr; err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	log.InfoWithFields("Scanned existing files", map[string]interface{}{
		"root":   root,
		"hashes": ix.Len(),
	})

	return ix, nil
}
