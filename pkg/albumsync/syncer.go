package albumsync

import (
	"context"
	"fmt"
	"path/filepath"

	"immich-dl/internal/downloader"
	"immich-dl/pkg/immich"
	"immich-dl/pkg/logger"
)

// Syncer orchestrates downloading every asset of a list of albums
type Syncer struct {
	albumIDs []string
	client   AlbumFetcher
	storage  AlbumStorage
	pool     Dispatcher
	tracker  *StatusTracker
	logger   logger.Logger
}

// New creates a Syncer for albumIDs. Albums are processed in slice order.
func New(albumIDs []string, client AlbumFetcher, storage AlbumStorage, pool Dispatcher, log logger.Logger) *Syncer {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Syncer{
		albumIDs: albumIDs,
		client:   client,
		storage:  storage,
		pool:     pool,
		tracker:  NewStatusTracker(),
		logger:   log,
	}
}

// Run downloads every album in turn. It returns the first error that stops an
// album from being processed; per-asset failures are logged and do not
// affect the result.
func (s *Syncer) Run(ctx context.Context) error {
	for _, albumID := range s.albumIDs {
		if err := s.syncAlbum(ctx, albumID); err != nil {
			return err
		}
	}

	summary := s.tracker.Summary()
	s.logger.InfoWithFields("All album downloads complete.", map[string]interface{}{
		"albums":   summary.Albums,
		"saved":    summary.Saved,
		"failed":   summary.Failed,
		"bytes":    summary.Bytes,
		"duration": summary.Elapsed,
	})
	return nil
}

// Summary returns the counters collected so far
func (s *Syncer) Summary() Summary {
	return s.tracker.Summary()
}

// syncAlbum fetches one album and waits until all of its downloads settle
func (s *Syncer) syncAlbum(ctx context.Context, albumID string) error {
	s.logger.Info(fmt.Sprintf("Fetching album %s...", albumID))

	album, err := s.client.FetchAlbum(ctx, albumID)
	if err != nil {
		return fmt.Errorf("failed to fetch album %s: %w", albumID, err)
	}

	albumDir, err := s.storage.AlbumDir(album.DisplayName())
	if err != nil {
		return err
	}

	s.logger.InfoWithFields(fmt.Sprintf("Found %d assets.", len(album.Assets)), map[string]interface{}{
		"album_id":    albumID,
		"album_dir":   albumDir,
		"asset_count": album.AssetCount,
	})

	jobs := make([]downloader.DownloadJob, 0, len(album.Assets))
	for _, asset := range album.Assets {
		jobs = append(jobs, downloader.DownloadJob{
			AlbumID:  albumID,
			AlbumDir: albumDir,
			Asset:    asset,
		})
	}

	s.processDownloadResults(s.pool.Dispatch(ctx, jobs))
	s.tracker.AlbumDone()
	return nil
}

// processDownloadResults logs each result until the channel is closed
func (s *Syncer) processDownloadResults(results <-chan downloader.DownloadResult) {
	for result := range results {
		if result.Success {
			s.tracker.RecordSaved(result.Size)
			s.logger.InfoWithFields("Saved "+filepath.Base(result.Path), map[string]interface{}{
				"asset_id": result.Job.Asset.ID,
				"type":     result.Job.Asset.Type,
				"size":     result.Size,
				"duration": result.Duration,
			})
			continue
		}

		s.tracker.RecordFailed()
		s.logger.WarnWithFields("Failed to download asset", map[string]interface{}{
			"album_id": result.Job.AlbumID,
			"asset_id": result.Job.Asset.ID,
			"error":    errorString(result.Error),
		})
	}
}

func errorString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

var _ AlbumFetcher = (*immich.Client)(nil)
