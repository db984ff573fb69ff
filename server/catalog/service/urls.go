package service

import (
	"net/url"
	"strings"

	"stream_server/server/catalog/domain"
)

const (
	streamPathPrefix    = "/api/streaming/stream/"
	thumbnailPathPrefix = "/api/streaming/thumbnails/"
)

// URLBuilder turns storage keys and ids into the URLs handed to browsers.
type URLBuilder struct {
	CatalogBase string
	CDNBase     string
}

func NewURLBuilder(catalogBase, cdnBase string) URLBuilder {
	return URLBuilder{
		CatalogBase: strings.TrimRight(strings.TrimSpace(catalogBase), "/"),
		CDNBase:     strings.TrimRight(strings.TrimSpace(cdnBase), "/"),
	}
}

func isAbsoluteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func escapeKey(key string) string {
	return (&url.URL{Path: strings.TrimLeft(key, "/")}).EscapedPath()
}

// PublicURL returns an absolute URL unchanged, a CDN URL when one is
// configured, and otherwise the catalog thumbnail proxy URL.
func (b URLBuilder) PublicURL(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if isAbsoluteURL(key) {
		return key
	}
	if b.CDNBase != "" {
		return b.CDNBase + "/" + escapeKey(key)
	}
	return b.CatalogBase + thumbnailPathPrefix + escapeKey(key)
}

func (b URLBuilder) StreamURL(videoID string) string {
	return b.CatalogBase + streamPathPrefix + url.PathEscape(videoID)
}

func (b URLBuilder) ThumbnailURL(v domain.Video) string {
	if v.ThumbnailKey != "" {
		return b.PublicURL(v.ThumbnailKey)
	}
	return b.PublicURL(v.ThumbnailURL)
}

func (b URLBuilder) Public(v domain.Video) domain.PublicVideo {
	return domain.PublicVideo{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		ThumbnailURL: b.ThumbnailURL(v),
		StreamURL:    b.StreamURL(v.ID),
		Genre:        v.Genre,
		ReleaseYear:  v.ReleaseYear,
		Rating:       v.Rating,
		Duration:     v.Duration,
		IsFeatured:   v.IsFeatured,
		CreatedAt:    v.CreatedAt,
	}
}

func (b URLBuilder) PublicList(items []domain.Video) []domain.PublicVideo {
	out := make([]domain.PublicVideo, 0, len(items))
	for _, v := range items {
		out = append(out, b.Public(v))
	}
	return out
}
