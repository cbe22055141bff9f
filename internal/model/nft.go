package model

// OwnedNFT is one position NFT as reported by the metadata API.
type OwnedNFT struct {
	TokenID         string      `json:"tokenId"`
	Name            string      `json:"name,omitempty"`
	Description     string      `json:"description,omitempty"`
	Image           NFTImage    `json:"image"`
	Contract        NFTContract `json:"contract"`
	Balance         string      `json:"balance,omitempty"`
	TimeLastUpdated string      `json:"timeLastUpdated,omitempty"`
}

// NFTImage holds the image URLs served by the metadata API.
type NFTImage struct {
	CachedURL   string `json:"cachedUrl,omitempty"`
	OriginalURL string `json:"originalUrl,omitempty"`
	PNGURL      string `json:"pngUrl,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// NFTContract identifies the collection.
type NFTContract struct {
	Address   string `json:"address"`
	Name      string `json:"name,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	TokenType string `json:"tokenType,omitempty"`
}

// NFTPage is a single page of owned NFTs.
type NFTPage struct {
	OwnedNFTs  []OwnedNFT `json:"ownedNfts"`
	TotalCount int        `json:"totalCount"`
	PageKey    string     `json:"pageKey,omitempty"`
}
