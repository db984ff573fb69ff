package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "stream_server/server/catalog/domain"
	chatdomain "stream_server/server/chat/domain"
	"stream_server/server/common/infra/db"
)

func TestBuildVideoQuery(t *testing.T) {
	query, args := buildVideoQuery(catalogdomain.VideoQuery{})
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)

	query, args = buildVideoQuery(catalogdomain.VideoQuery{ReadyOnly: true, Genre: "Drama", Search: "50%_off"})
	assert.Contains(t, query, "status=$1 AND genre=$2 AND (title ILIKE $3 OR description ILIKE $3)")
	assert.Equal(t, []any{"ready", "Drama", `%50\%\_off%`}, args)

	query, _ = buildVideoQuery(catalogdomain.VideoQuery{FeaturedOnly: true})
	assert.Contains(t, query, "WHERE is_featured ORDER BY created_at DESC")
}

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("STREAM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STREAM_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.NewPool(ctx, dsn, 4)
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema(ctx, pool))
	t.Cleanup(pool.Close)
	return pool
}

func TestVideoRepositoryLifecycle(t *testing.T) {
	pool := testPool(t)
	repo := NewVideoRepository(pool)
	ctx := context.Background()

	genre := "Documentary"
	created, err := repo.Create(ctx, catalogdomain.Video{
		ID:          uuid.NewString(),
		Title:       "Deep Sea " + uuid.NewString(),
		Description: "whales",
		Genre:       genre,
		Duration:    120,
		StorageKey:  "videos/" + uuid.NewString() + ".mp4",
		Status:      catalogdomain.StatusProcessing,
		UploadedBy:  "admin-1",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Delete(context.Background(), created.ID) })
	assert.False(t, created.CreatedAt.IsZero())

	ready, err := repo.List(ctx, catalogdomain.VideoQuery{ReadyOnly: true, Search: created.Title})
	require.NoError(t, err)
	assert.Empty(t, ready)

	status := catalogdomain.StatusReady
	featured := true
	updated, err := repo.Update(ctx, created.ID, catalogdomain.VideoPatch{Status: &status, IsFeatured: &featured})
	require.NoError(t, err)
	assert.True(t, updated.Ready())
	assert.True(t, updated.IsFeatured)

	ready, err = repo.List(ctx, catalogdomain.VideoQuery{ReadyOnly: true, Search: created.Title})
	require.NoError(t, err)
	require.Len(t, ready, 1)

	grouped, err := repo.ByGenre(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, grouped[genre])
	assert.LessOrEqual(t, len(grouped[genre]), 10)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrNotFound)
}

func TestMessageRepositoryRecentIsOldestFirst(t *testing.T) {
	pool := testPool(t)
	repo := NewMessageRepository(pool)
	ctx := context.Background()
	videoID := uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM chat_messages WHERE video_id=$1`, videoID)
	})

	for _, content := range []string{"one", "two", "three"} {
		_, err := repo.Create(ctx, chatdomain.Message{
			ID: uuid.NewString(), VideoID: videoID, UserID: "u-1", UserName: "ana", Role: "user", Content: content,
		})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	items, err := repo.Recent(ctx, videoID, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "two", items[0].Content)
	assert.Equal(t, "three", items[1].Content)
}
