package domain

import (
	"strings"
	"time"
)

type VideoStatus string

const (
	StatusProcessing VideoStatus = "processing"
	StatusReady      VideoStatus = "ready"
	StatusError      VideoStatus = "error"
)

func (s VideoStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusReady, StatusError:
		return true
	}
	return false
}

var Genres = []string{"Action", "Comedy", "Drama", "Horror", "Documentary", "Thriller", "Romance", "Sci-Fi"}

func ValidGenre(genre string) bool {
	for _, g := range Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// Video is a registered media asset. StorageKey locates the bytes in the
// object store; only StatusReady videos are visible to viewers.
type Video struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Genre        string      `json:"genre"`
	ReleaseYear  int         `json:"releaseYear"`
	Rating       float64     `json:"rating"`
	Duration     int         `json:"duration"`
	StorageKey   string      `json:"s3Key"`
	ContentType  string      `json:"contentType,omitempty"`
	ThumbnailKey string      `json:"thumbnailKey,omitempty"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	IsFeatured   bool        `json:"isFeatured"`
	Status       VideoStatus `json:"status"`
	UploadedBy   string      `json:"uploadedBy"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (v Video) Ready() bool {
	return v.Status == StatusReady
}

// Asset is what the stream path needs from the catalog.
type Asset struct {
	StorageKey  string
	ContentType string
}

type PublicVideo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	StreamURL    string    `json:"streamUrl"`
	Genre        string    `json:"genre"`
	ReleaseYear  int       `json:"releaseYear"`
	Rating       float64   `json:"rating"`
	Duration     int       `json:"duration"`
	IsFeatured   bool      `json:"isFeatured"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Filter struct {
	Genre  string
	Search string
}

func (f Filter) Normalized() Filter {
	return Filter{Genre: strings.TrimSpace(f.Genre), Search: strings.TrimSpace(f.Search)}
}

// VideoPatch carries a partial update. Nil fields are left unchanged.
type VideoPatch struct {
	Title        *string
	Description  *string
	Genre        *string
	ReleaseYear  *int
	Rating       *float64
	Duration     *int
	ContentType  *string
	ThumbnailKey *string
	ThumbnailURL *string
	IsFeatured   *bool
	Status       *VideoStatus
}

// VideoQuery selects videos from the store.
type VideoQuery struct {
	Genre        string
	Search       string
	ReadyOnly    bool
	FeaturedOnly bool
}
