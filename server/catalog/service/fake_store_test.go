package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"stream_server/server/catalog/domain"
	"stream_server/server/repository"
)

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[string]domain.Video
	err    error
}

func newFakeVideoStore(videos ...domain.Video) *fakeVideoStore {
	s := &fakeVideoStore{videos: map[string]domain.Video{}}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *fakeVideoStore) put(v domain.Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[v.ID] = v
}

func (s *fakeVideoStore) Get(_ context.Context, id string) (domain.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.Video{}, s.err
	}
	v, ok := s.videos[id]
	if !ok {
		return domain.Video{}, repository.ErrNotFound
	}
	return v, nil
}

func (s *fakeVideoStore) List(_ context.Context, q domain.VideoQuery) ([]domain.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []domain.Video{}
	for _, v := range s.videos {
		if q.ReadyOnly && !v.Ready() {
			continue
		}
		if q.FeaturedOnly && !v.IsFeatured {
			continue
		}
		if q.Genre != "" && v.Genre != q.Genre {
			continue
		}
		if q.Search != "" {
			needle := strings.ToLower(q.Search)
			if !strings.Contains(strings.ToLower(v.Title), needle) && !strings.Contains(strings.ToLower(v.Description), needle) {
				continue
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeVideoStore) ByGenre(ctx context.Context, perGenre int) (map[string][]domain.Video, error) {
	items, err := s.List(ctx, domain.VideoQuery{ReadyOnly: true})
	if err != nil {
		return nil, err
	}
	grouped := map[string][]domain.Video{}
	for _, v := range items {
		if len(grouped[v.Genre]) < perGenre {
			grouped[v.Genre] = append(grouped[v.Genre], v)
		}
	}
	return grouped, nil
}
