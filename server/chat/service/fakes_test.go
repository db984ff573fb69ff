package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"stream_server/server/chat/domain"
)

var errStore = errors.New("store down")

type fakeMessageStore struct {
	mu        sync.Mutex
	messages  []domain.Message
	createErr error
	recentErr error
	clock     time.Time
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *fakeMessageStore) Create(_ context.Context, m domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return domain.Message{}, s.createErr
	}
	s.clock = s.clock.Add(time.Second)
	m.CreatedAt = s.clock
	s.messages = append(s.messages, m)
	return m, nil
}

func (s *fakeMessageStore) Recent(_ context.Context, videoID string, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recentErr != nil {
		return nil, s.recentErr
	}
	var out []domain.Message
	for _, m := range s.messages {
		if m.VideoID == videoID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *fakeMessageStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type fakeDeduper struct {
	mu       sync.Mutex
	claimed  map[string]bool
	released []string
	err      error
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{claimed: map[string]bool{}}
}

func (d *fakeDeduper) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.claimed[key] {
		return false, nil
	}
	d.claimed[key] = true
	return true, nil
}

func (d *fakeDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claimed, key)
	d.released = append(d.released, key)
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}
