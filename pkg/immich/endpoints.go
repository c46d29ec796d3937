package immich

import (
	"fmt"
	"net/url"
)

const (
	// AlbumEndpoint is the endpoint pattern for album details
	AlbumEndpoint = "/api/albums/%s"

	// AssetOriginalEndpoint is the endpoint pattern for an asset's original file
	AssetOriginalEndpoint = "/api/assets/%s/original"
)

// GetAlbumPath constructs the path for fetching one album with its assets
func GetAlbumPath(albumID string) string {
	return fmt.Sprintf(AlbumEndpoint, url.PathEscape(albumID))
}

// GetAssetOriginalPath constructs the path for fetching an asset's original content
func GetAssetOriginalPath(assetID string) string {
	return fmt.Sprintf(AssetOriginalEndpoint, url.PathEscape(assetID))
}
