package model

// Gif is one result from the GIF provider, trimmed to what the chat
// composer needs.
type Gif struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	PreviewURL string `json:"previewUrl"`
}
