package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream_server/server/catalog/domain"
	"stream_server/server/catalog/service"
	"stream_server/server/common/infra/object"
	"stream_server/server/common/middleware"
	"stream_server/server/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryStore struct {
	mu     sync.Mutex
	videos map[string]domain.Video
}

func (s *memoryStore) set(v domain.Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[v.ID] = v
}

func (s *memoryStore) Get(_ context.Context, id string) (domain.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return domain.Video{}, repository.ErrNotFound
	}
	return v, nil
}

func (s *memoryStore) List(_ context.Context, q domain.VideoQuery) ([]domain.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Video{}
	for _, v := range s.videos {
		if q.ReadyOnly && !v.Ready() {
			continue
		}
		if q.FeaturedOnly && !v.IsFeatured {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *memoryStore) ByGenre(ctx context.Context, _ int) (map[string][]domain.Video, error) {
	items, _ := s.List(ctx, domain.VideoQuery{ReadyOnly: true})
	grouped := map[string][]domain.Video{}
	for _, v := range items {
		grouped[v.Genre] = append(grouped[v.Genre], v)
	}
	return grouped, nil
}

type fixture struct {
	router *gin.Engine
	store  *memoryStore
	gw     *object.MemoryGateway
	data   []byte
}

func newFixture(t *testing.T, size int) *fixture {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 253)
	}
	gw := object.NewMemoryGateway()
	gw.Store("videos/abc123.mp4", data, "")
	store := &memoryStore{videos: map[string]domain.Video{}}
	store.set(domain.Video{
		ID: "abc123", Title: "Night Drive", Genre: "Drama", StorageKey: "videos/abc123.mp4",
		Status: domain.StatusProcessing, ThumbnailKey: "thumbnails/abc123.jpg", CreatedAt: time.Now(),
	})

	catalog := service.NewCatalogService(store)
	streams := service.NewStreamService(catalog, gw, service.DefaultChunkSize)
	h := NewHandler(catalog, streams, service.NewURLBuilder("http://catalog.test", ""), map[string]ReadinessCheck{
		"storage": gw.Ping,
	})
	r := middleware.NewEngine("catalog-test", []string{"http://localhost:3000"})
	h.RegisterRoutes(r)
	return &fixture{router: r, store: store, gw: gw, data: data}
}

func (f *fixture) markReady() {
	v, _ := f.store.Get(context.Background(), "abc123")
	v.Status = domain.StatusReady
	f.store.set(v)
}

func (f *fixture) get(path, rangeHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestStreamBecomesAvailableWhenReady(t *testing.T) {
	f := newFixture(t, 2_500_000)

	rec := f.get("/stream/abc123", "bytes=0-")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.markReady()
	rec = f.get("/stream/abc123", "bytes=1000000-")
	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 1000000-1999999/2500000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "1000000", rec.Header().Get("Content-Length"))
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, f.data[1_000_000:2_000_000], rec.Body.Bytes())
}

func TestStreamSmallObjectClampsToLastByte(t *testing.T) {
	f := newFixture(t, 500_000)
	f.markReady()

	rec := f.get("/api/streaming/stream/abc123", "bytes=0-")
	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 0-499999/500000", rec.Header().Get("Content-Range"))
	assert.Len(t, rec.Body.Bytes(), 500_000)
}

func TestStreamErrorStatuses(t *testing.T) {
	f := newFixture(t, 1000)
	f.markReady()

	rec := f.get("/stream/abc123", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.get("/stream/unknown", "bytes=0-")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.get("/stream/abc123", "bytes=1000-")
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))

	rec = f.get("/stream/abc123", "bytes=abc-")
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)

	f.gw.FailOn("get_range", errors.New("reset"))
	rec = f.get("/stream/abc123", "bytes=0-")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
}

func TestStreamIsIdempotent(t *testing.T) {
	f := newFixture(t, 3000)
	f.markReady()

	first := f.get("/stream/abc123", "bytes=100-")
	second := f.get("/stream/abc123", "bytes=100-")
	require.Equal(t, http.StatusPartialContent, first.Code)
	for _, h := range []string{"Content-Range", "Content-Length", "Content-Type", "Accept-Ranges"} {
		assert.Equal(t, first.Header().Get(h), second.Header().Get(h), h)
	}
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestStreamSuccessiveRequestsRoundTrip(t *testing.T) {
	f := newFixture(t, 2_300_001)
	f.markReady()

	var assembled []byte
	next := 0
	for next < len(f.data) {
		rec := f.get("/stream/abc123", "bytes="+strconv.Itoa(next)+"-")
		require.Equal(t, http.StatusPartialContent, rec.Code)
		assembled = append(assembled, rec.Body.Bytes()...)
		next += rec.Body.Len()
	}
	assert.Equal(t, f.data, assembled)
}

func TestVideoEndpointsExposePublicProjection(t *testing.T) {
	f := newFixture(t, 10)

	rec := f.get("/api/streaming/videos/abc123", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.markReady()
	rec = f.get("/api/streaming/videos/abc123", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp VideoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "http://catalog.test/api/streaming/stream/abc123", resp.Video.StreamURL)
	assert.Equal(t, "http://catalog.test/api/streaming/thumbnails/thumbnails/abc123.jpg", resp.Video.ThumbnailURL)
	assert.NotContains(t, rec.Body.String(), "s3Key")

	rec = f.get("/videos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list VideosResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Videos, 1)

	rec = f.get("/videos/by-genre", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var grouped VideosByGenreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grouped))
	assert.Len(t, grouped.VideosByGenre["Drama"], 1)

	rec = f.get("/videos/featured", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Videos)
}

func TestThumbnailProxy(t *testing.T) {
	f := newFixture(t, 10)
	f.gw.Store("thumbnails/abc123.jpg", []byte("poster"), "image/jpeg")

	rec := f.get("/api/streaming/thumbnails/thumbnails/abc123.jpg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "poster", rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	rec = f.get("/thumbnails/videos/abc123.mp4", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.get("/thumbnails/thumbnails/gone.jpg", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "thumbnail not found")

	f.gw.FailOn("head", errors.New("timeout"))
	rec = f.get("/thumbnails/thumbnails/abc123.jpg", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthAndReadiness(t *testing.T) {
	f := newFixture(t, 10)

	assert.Equal(t, http.StatusOK, f.get("/health", "").Code)
	assert.Equal(t, http.StatusOK, f.get("/api/health", "").Code)
	assert.Equal(t, http.StatusOK, f.get("/health/ready", "").Code)

	f.gw.FailOn("ping", errors.New("down"))
	rec := f.get("/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storage":"unavailable"`)
}
