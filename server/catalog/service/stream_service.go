package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"stream_server/server/common/infra/object"
)

const (
	defaultContentType = "video/mp4"
	thumbnailKeyPrefix = "thumbnails/"
)

// Stream is an opened ranged read ready to be written as a 206 response.
type Stream struct {
	Range       ByteRange
	ContentType string
	Body        io.ReadCloser
}

// RangeNotSatisfiableError carries the object size for the
// "Content-Range: bytes */size" header of a 416 response.
type RangeNotSatisfiableError struct {
	Total int64
	err   error
}

func (e *RangeNotSatisfiableError) Error() string { return e.err.Error() }
func (e *RangeNotSatisfiableError) Unwrap() error { return e.err }

type StreamService struct {
	catalog   *CatalogService
	objects   object.Gateway
	chunkSize int64
}

func NewStreamService(catalog *CatalogService, objects object.Gateway, chunkSize int64) *StreamService {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &StreamService{catalog: catalog, objects: objects, chunkSize: chunkSize}
}

// Open validates a ranged request and opens the storage read for it. The
// object size comes from a fresh head call and is not kept past the request.
func (s *StreamService) Open(ctx context.Context, videoID, rangeHeader string) (*Stream, error) {
	if strings.TrimSpace(rangeHeader) == "" {
		return nil, ErrRangeRequired
	}
	asset, err := s.catalog.Resolve(ctx, videoID)
	if err != nil {
		return nil, err
	}
	meta, err := s.objects.Head(ctx, asset.StorageKey)
	if err != nil {
		return nil, err
	}
	window, err := ResolveRange(rangeHeader, meta.Size, s.chunkSize)
	if err != nil {
		return nil, &RangeNotSatisfiableError{Total: meta.Size, err: err}
	}
	body, err := s.objects.GetRange(ctx, asset.StorageKey, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	return &Stream{
		Range:       window,
		ContentType: firstNonEmpty(asset.ContentType, meta.ContentType, defaultContentType),
		Body:        body,
	}, nil
}

type Object struct {
	Size        int64
	ContentType string
	Body        io.ReadCloser
}

// OpenThumbnail reads a whole poster image. Only keys under thumbnails/ are
// served so the proxy cannot be used to fetch media bytes.
func (s *StreamService) OpenThumbnail(ctx context.Context, key string) (*Object, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if !strings.HasPrefix(key, thumbnailKeyPrefix) || strings.Contains(key, "..") {
		return nil, fmt.Errorf("%w: thumbnail %s", ErrVideoNotFound, key)
	}
	meta, err := s.objects.Head(ctx, key)
	if err != nil {
		return nil, err
	}
	if meta.Size == 0 {
		return &Object{ContentType: meta.ContentType, Body: io.NopCloser(strings.NewReader(""))}, nil
	}
	body, err := s.objects.GetRange(ctx, key, 0, meta.Size-1)
	if err != nil {
		return nil, err
	}
	return &Object{
		Size:        meta.Size,
		ContentType: firstNonEmpty(meta.ContentType, "application/octet-stream"),
		Body:        body,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
