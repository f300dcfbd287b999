package hasher

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
)

// chunkSize is the read buffer used when hashing files
const chunkSize = 1024 * 1024

// HashJob is a single file to hash
type HashJob struct {
	Path string
}

// HashResult is the outcome of hashing one file
type HashResult struct {
	Path string
	Hash string // lowercase hex MD5
	Err  error
}

// WorkerPool hashes files concurrently. Jobs go in through Submit,
// results come out of Results; Stop drains the queue and closes the
// result channel.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan HashJob
	resultQueue chan HashResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      logger.Logger
}

// NewWorkerPool creates a hashing pool with the given concurrency
func NewWorkerPool(ctx context.Context, numWorkers int, log logger.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan HashJob, numWorkers*2),
		resultQueue: make(chan HashResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting hash worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop signals that no more jobs will arrive, waits for the workers to
// drain the queue and closes the result channel.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Submit adds a file to the queue
func (wp *WorkerPool) Submit(job HashJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("hash pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the channel results are delivered on
func (wp *WorkerPool) Results() <-chan HashResult {
	return wp.resultQueue
}

// worker consumes jobs until the queue closes or the context ends.
// Each worker reuses one read buffer across all of its files.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	buf := make([]byte, chunkSize)

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, buf)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob hashes a single file
func (wp *WorkerPool) processJob(job HashJob, buf []byte) HashResult {
	hash, err := hashFile(job.Path, buf)
	if err != nil {
		wp.logger.WarnWithFields("Failed to hash existing file", map[string]interface{}{
			"path":  job.Path,
			"error": err.Error(),
		})
		return HashResult{Path: job.Path, Err: err}
	}
	return HashResult{Path: job.Path, Hash: hash}
}

// hashFile streams the file through MD5 in chunkSize reads
func hashFile(path string, buf []byte) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile hashes a single file without a pool, for callers outside the
// scan path.
func HashFile(path string) (string, error) {
	return hashFile(path, make([]byte, chunkSize))
}
