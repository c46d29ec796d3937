package immich

// Album is the subset of the album detail response this tool reads
type Album struct {
	ID         string  `json:"id"`
	AlbumName  string  `json:"albumName"`
	AssetCount int     `json:"assetCount"`
	Assets     []Asset `json:"assets"`
}

// Asset is one media item inside an album
type Asset struct {
	ID               string `json:"id"`
	OriginalFileName string `json:"originalFileName"`
	Type             string `json:"type"`
}

// DisplayName returns the album name, or its identifier when the name is empty
func (a *Album) DisplayName() string {
	if a.AlbumName != "" {
		return a.AlbumName
	}
	return a.ID
}

// FileName returns the original file name, or "<id>.jpg" when it is empty
func (a Asset) FileName() string {
	if a.OriginalFileName != "" {
		return a.OriginalFileName
	}
	return a.ID + ".jpg"
}
