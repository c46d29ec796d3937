// Package immich provides a client for the two Immich server endpoints the
// downloader needs: album details and original asset content.
//
// Every request carries the "Authorization: Bearer <token>" header. Responses
// outside the 2xx range become *errors.Error values typed by status; there is
// no retry.
//
//	client := immich.NewClient(cfg.Immich.URL, cfg.Immich.Token, 60*time.Second, log)
//
//	album, err := client.FetchAlbum(ctx, "abc123")
//	if err != nil {
//	    return err
//	}
//	for _, asset := range album.Assets {
//	    data, err := client.DownloadOriginal(ctx, asset.ID)
//	    // write data to asset.FileName()
//	}
package immich
