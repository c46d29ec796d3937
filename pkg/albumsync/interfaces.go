package albumsync

import (
	"context"

	"immich-dl/internal/downloader"
	"immich-dl/pkg/immich"
)

// AlbumFetcher defines the Immich API operation the syncer needs
type AlbumFetcher interface {
	FetchAlbum(ctx context.Context, albumID string) (*immich.Album, error)
}

// AlbumStorage resolves and creates album directories
type AlbumStorage interface {
	AlbumDir(albumName string) (string, error)
}

// Dispatcher runs download jobs and reports one result per job
type Dispatcher interface {
	Dispatch(ctx context.Context, jobs []downloader.DownloadJob) <-chan downloader.DownloadResult
}
