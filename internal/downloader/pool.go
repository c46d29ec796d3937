package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"immich-dl/pkg/immich"
	"immich-dl/pkg/logger"
)

// DefaultConcurrency is the number of downloads allowed in flight at once
const DefaultConcurrency = 10

// DownloadJob represents a single asset download
type DownloadJob struct {
	AlbumID  string
	AlbumDir string
	Asset    immich.Asset
}

// DownloadResult represents the outcome of a download job
type DownloadResult struct {
	Job      DownloadJob
	Success  bool
	Path     string
	Error    error
	Duration time.Duration
	Size     int
}

// AssetDownloader fetches original asset content
type AssetDownloader interface {
	DownloadOriginal(ctx context.Context, assetID string) ([]byte, error)
}

// AssetStorage writes asset content to an album directory
type AssetStorage interface {
	SaveAsset(r io.Reader, albumDir, fileName string) (string, error)
}

// Pool runs download jobs with a cap on how many are in flight. The cap is
// shared by every Dispatch call on the same Pool.
type Pool struct {
	limit   int
	sem     *semaphore.Weighted
	client  AssetDownloader
	storage AssetStorage
	logger  logger.Logger

	active int64
	peak   int64
}

// NewPool creates a download pool allowing limit concurrent jobs
func NewPool(limit int, client AssetDownloader, storage AssetStorage, log logger.Logger) *Pool {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Pool{
		limit:   limit,
		sem:     semaphore.NewWeighted(int64(limit)),
		client:  client,
		storage: storage,
		logger:  log,
	}
}

// Dispatch starts jobs in slice order, each as soon as a slot is free. The
// returned channel yields exactly one result per job and is closed after the
// last one settles. A job that cannot get a slot because ctx ended is
// reported as failed without running.
func (p *Pool) Dispatch(ctx context.Context, jobs []DownloadJob) <-chan DownloadResult {
	results := make(chan DownloadResult, len(jobs))

	go func() {
		defer close(results)

		var wg sync.WaitGroup
		for _, job := range jobs {
			err := ctx.Err()
			if err == nil {
				err = p.sem.Acquire(ctx, 1)
			}
			if err != nil {
				results <- DownloadResult{
					Job:   job,
					Error: fmt.Errorf("download not started: %w", err),
				}
				continue
			}

			wg.Add(1)
			go func(job DownloadJob) {
				defer wg.Done()

				p.enter()
				result := p.processJob(ctx, job)
				atomic.AddInt64(&p.active, -1)
				p.sem.Release(1)

				// results has room for every job
				results <- result
			}(job)
		}

		wg.Wait()
	}()

	return results
}

// enter records one more job in flight and updates the observed peak
func (p *Pool) enter() {
	n := atomic.AddInt64(&p.active, 1)
	for {
		peak := atomic.LoadInt64(&p.peak)
		if n <= peak || atomic.CompareAndSwapInt64(&p.peak, peak, n) {
			return
		}
	}
}

// processJob downloads one asset and writes it to its album directory
func (p *Pool) processJob(ctx context.Context, job DownloadJob) DownloadResult {
	start := time.Now()
	result := DownloadResult{Job: job}

	p.logger.DebugWithFields("processing download job", map[string]interface{}{
		"album_id": job.AlbumID,
		"asset_id": job.Asset.ID,
	})

	data, err := p.client.DownloadOriginal(ctx, job.Asset.ID)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}
	result.Size = len(data)

	path, err := p.storage.SaveAsset(bytes.NewReader(data), job.AlbumDir, job.Asset.FileName())
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Path = path
	result.Duration = time.Since(start)

	p.logger.DebugWithFields("download job completed", map[string]interface{}{
		"asset_id": job.Asset.ID,
		"size":     result.Size,
		"duration": result.Duration,
	})

	return result
}

// GetLimit returns the maximum number of concurrent jobs
func (p *Pool) GetLimit() int {
	return p.limit
}

// GetActive returns the number of jobs currently in flight
func (p *Pool) GetActive() int {
	return int(atomic.LoadInt64(&p.active))
}

// GetPeakActive returns the highest number of jobs seen in flight at once
func (p *Pool) GetPeakActive() int {
	return int(atomic.LoadInt64(&p.peak))
}
