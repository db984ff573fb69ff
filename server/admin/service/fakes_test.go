package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"stream_server/server/catalog/domain"
	"stream_server/server/repository"
)

type fakeStore struct {
	mu        sync.Mutex
	videos    map[string]domain.Video
	deleteErr error
	clock     time.Time
}

func newFakeStore(videos ...domain.Video) *fakeStore {
	s := &fakeStore{videos: map[string]domain.Video{}, clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *fakeStore) Create(_ context.Context, v domain.Video) (domain.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.CreatedAt = s.tick()
	v.UpdatedAt = v.CreatedAt
	s.videos[v.ID] = v
	return v, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (domain.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return domain.Video{}, repository.ErrNotFound
	}
	return v, nil
}

func (s *fakeStore) List(_ context.Context, q domain.VideoQuery) ([]domain.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Video{}
	for _, v := range s.videos {
		if q.ReadyOnly && !v.Ready() {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) Update(_ context.Context, id string, p domain.VideoPatch) (domain.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return domain.Video{}, repository.ErrNotFound
	}
	if p.Title != nil {
		v.Title = *p.Title
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.Genre != nil {
		v.Genre = *p.Genre
	}
	if p.ReleaseYear != nil {
		v.ReleaseYear = *p.ReleaseYear
	}
	if p.Rating != nil {
		v.Rating = *p.Rating
	}
	if p.Duration != nil {
		v.Duration = *p.Duration
	}
	if p.ContentType != nil {
		v.ContentType = *p.ContentType
	}
	if p.ThumbnailKey != nil {
		v.ThumbnailKey = *p.ThumbnailKey
	}
	if p.ThumbnailURL != nil {
		v.ThumbnailURL = *p.ThumbnailURL
	}
	if p.IsFeatured != nil {
		v.IsFeatured = *p.IsFeatured
	}
	if p.Status != nil {
		v.Status = *p.Status
	}
	v.UpdatedAt = s.tick()
	s.videos[id] = v
	return v, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.videos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

type publishedEvent struct {
	RoutingKey string
	Payload    any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{RoutingKey: routingKey, Payload: payload})
	return p.err
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.RoutingKey)
	}
	return out
}

var errBackend = errors.New("backend down")
