// Package albumsync downloads the original files of one or more Immich albums.
//
// Albums are processed one at a time in the order given. For each album the
// Syncer fetches its metadata, creates a directory named after the album, and
// hands every asset to a Dispatcher. The next album is not fetched until all
// of the current album's downloads have settled.
//
// Failures are split in two tiers. An asset that fails to download or save is
// logged and skipped. Anything that prevents an album from being processed at
// all (the metadata request, the album directory) ends the run with an error.
//
// Usage:
//
//	client := immich.NewClient(cfg.Immich.URL, cfg.Immich.Token, cfg.Download.Timeout, log)
//	store, err := storage.NewManager(cfg.Output.BaseDirectory)
//	if err != nil {
//	    return err
//	}
//	pool := downloader.NewPool(cfg.Download.ConcurrentDownloads, client, store, log)
//
//	syncer := albumsync.New(cfg.AlbumIDs(), client, store, pool, log)
//	if err := syncer.Run(ctx); err != nil {
//	    return err
//	}
package albumsync
