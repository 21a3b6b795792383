package model

// Mode selects what kind of content the feed serves.
type Mode string

const (
	// ModeFeed mixes readable and visual content.
	ModeFeed Mode = "feed"
	// ModeKlips serves short-form video only. Every item carries a
	// playable video URL.
	ModeKlips Mode = "klips"
	// ModeLibrary serves books only: PDF and ePub texts, never video.
	ModeLibrary Mode = "library"
	// ModeGeneral is the unfiltered browse mode.
	ModeGeneral Mode = "general"
	// ModeCollections serves the member's own saved items. It is a
	// single local page, no upstream is queried.
	ModeCollections Mode = "collections"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeFeed, ModeKlips, ModeLibrary, ModeGeneral, ModeCollections:
		return true
	}
	return false
}

// Content types.
const (
	TypeVideo = "video"
	TypeImage = "image"
	TypeBook  = "book"
	TypeText  = "text"
	TypeAudio = "audio"
)

// ContentItem is one entry in the feed, normalized across upstreams.
type ContentItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	FullText     string `json:"fullText,omitempty"`
	Type         string `json:"type"`
	Source       string `json:"source"`
	Author       string `json:"author"`
	Year         string `json:"year"`
	Views        int64  `json:"views"`
	Likes        int64  `json:"likes"`
	ThumbnailURL string `json:"thumbnailUrl"`
	VideoURL     string `json:"videoUrl,omitempty"`
	ExternalLink string `json:"externalLink"`
}

// Rail is a themed strip of items shown alongside the feed.
type Rail struct {
	Title string        `json:"title"`
	Items []ContentItem `json:"items"`
}

// Page limits per mode.
const (
	FeedPageLimit    = 30
	DefaultPageLimit = 10
)

// PageLimit returns how many items one page of the mode requests.
func (m Mode) PageLimit() int {
	if m == ModeFeed {
		return FeedPageLimit
	}
	return DefaultPageLimit
}
