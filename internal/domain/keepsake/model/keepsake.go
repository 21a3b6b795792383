package model

import (
	"time"

	nexusmodel "klaus/internal/domain/nexus/model"
)

// ExportVersion tags collection export files. Import only checks the
// items array, the tag identifies the producing app.
const ExportVersion = "Klaus_Collection_V1"

// Keepsake is a feed item a member saved into their local collection.
type Keepsake struct {
	UserID       string    `db:"user_id" json:"-"`
	ItemID       string    `db:"item_id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	FullText     string    `db:"full_text" json:"fullText,omitempty"`
	Type         string    `db:"type" json:"type"`
	Source       string    `db:"source" json:"source"`
	Author       string    `db:"author" json:"author"`
	Year         string    `db:"year" json:"year"`
	Views        int64     `db:"views" json:"views"`
	Likes        int64     `db:"likes" json:"likes"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnailUrl"`
	VideoURL     string    `db:"video_url" json:"videoUrl,omitempty"`
	ExternalLink string    `db:"external_link" json:"externalLink"`
	SavedAt      time.Time `db:"saved_at" json:"savedAt"`
}

// FromContentItem builds a keepsake for a member from a feed item.
func FromContentItem(userID string, item nexusmodel.ContentItem, savedAt time.Time) Keepsake {
	return Keepsake{
		UserID:       userID,
		ItemID:       item.ID,
		Title:        item.Title,
		Description:  item.Description,
		FullText:     item.FullText,
		Type:         item.Type,
		Source:       item.Source,
		Author:       item.Author,
		Year:         item.Year,
		Views:        item.Views,
		Likes:        item.Likes,
		ThumbnailURL: item.ThumbnailURL,
		VideoURL:     item.VideoURL,
		ExternalLink: item.ExternalLink,
		SavedAt:      savedAt,
	}
}

// ToContentItem converts a keepsake back into the feed item shape.
func (k Keepsake) ToContentItem() nexusmodel.ContentItem {
	return nexusmodel.ContentItem{
		ID:           k.ItemID,
		Title:        k.Title,
		Description:  k.Description,
		FullText:     k.FullText,
		Type:         k.Type,
		Source:       k.Source,
		Author:       k.Author,
		Year:         k.Year,
		Views:        k.Views,
		Likes:        k.Likes,
		ThumbnailURL: k.ThumbnailURL,
		VideoURL:     k.VideoURL,
		ExternalLink: k.ExternalLink,
	}
}

// Export is the envelope written by collection export and read back by
// import.
type Export struct {
	Version    string     `json:"version"`
	ExportedAt time.Time  `json:"exportedAt"`
	Items      []Keepsake `json:"items"`
}
