package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stream_server/server/catalog/domain"
	"stream_server/server/repository"
)

const DefaultPerGenre = 10

var ErrVideoNotFound = errors.New("video not found")

type VideoStore interface {
	Get(ctx context.Context, id string) (domain.Video, error)
	List(ctx context.Context, q domain.VideoQuery) ([]domain.Video, error)
	ByGenre(ctx context.Context, perGenre int) (map[string][]domain.Video, error)
}

type CatalogService struct {
	store VideoStore
}

func NewCatalogService(store VideoStore) *CatalogService {
	return &CatalogService{store: store}
}

// Get returns a ready video. Unknown and not-ready videos are reported the
// same way so readiness never leaks to viewers.
func (s *CatalogService) Get(ctx context.Context, videoID string) (domain.Video, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return domain.Video{}, ErrVideoNotFound
	}
	v, err := s.store.Get(ctx, videoID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Video{}, ErrVideoNotFound
	}
	if err != nil {
		return domain.Video{}, fmt.Errorf("load video %s: %w", videoID, err)
	}
	if !v.Ready() {
		return domain.Video{}, ErrVideoNotFound
	}
	return v, nil
}

func (s *CatalogService) Resolve(ctx context.Context, videoID string) (domain.Asset, error) {
	v, err := s.Get(ctx, videoID)
	if err != nil {
		return domain.Asset{}, err
	}
	return domain.Asset{StorageKey: v.StorageKey, ContentType: v.ContentType}, nil
}

func (s *CatalogService) List(ctx context.Context, filter domain.Filter) ([]domain.Video, error) {
	filter = filter.Normalized()
	return s.store.List(ctx, domain.VideoQuery{Genre: filter.Genre, Search: filter.Search, ReadyOnly: true})
}

func (s *CatalogService) Featured(ctx context.Context) ([]domain.Video, error) {
	return s.store.List(ctx, domain.VideoQuery{ReadyOnly: true, FeaturedOnly: true})
}

func (s *CatalogService) ByGenre(ctx context.Context, perGenre int) (map[string][]domain.Video, error) {
	if perGenre <= 0 {
		perGenre = DefaultPerGenre
	}
	return s.store.ByGenre(ctx, perGenre)
}
