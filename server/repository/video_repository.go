package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stream_server/server/catalog/domain"
)

var ErrNotFound = errors.New("record not found")

const videoColumns = `id, title, description, genre, release_year, rating, duration, storage_key, content_type,
	thumbnail_key, thumbnail_url, is_featured, status, uploaded_by, created_at, updated_at`

type VideoRepository struct {
	pool *pgxpool.Pool
}

func NewVideoRepository(pool *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{pool: pool}
}

func scanVideo(row pgx.Row) (domain.Video, error) {
	var v domain.Video
	var status string
	err := row.Scan(&v.ID, &v.Title, &v.Description, &v.Genre, &v.ReleaseYear, &v.Rating, &v.Duration, &v.StorageKey, &v.ContentType,
		&v.ThumbnailKey, &v.ThumbnailURL, &v.IsFeatured, &status, &v.UploadedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return domain.Video{}, err
	}
	v.Status = domain.VideoStatus(status)
	return v, nil
}

func collectVideos(rows pgx.Rows) ([]domain.Video, error) {
	defer rows.Close()
	items := make([]domain.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (r *VideoRepository) Create(ctx context.Context, v domain.Video) (domain.Video, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO videos(id, title, description, genre, release_year, rating, duration, storage_key, content_type,
			thumbnail_key, thumbnail_url, is_featured, status, uploaded_by)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`, v.ID, v.Title, v.Description, v.Genre, v.ReleaseYear, v.Rating, v.Duration, v.StorageKey, v.ContentType,
		v.ThumbnailKey, v.ThumbnailURL, v.IsFeatured, string(v.Status), v.UploadedBy).Scan(&v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *VideoRepository) Get(ctx context.Context, id string) (domain.Video, error) {
	v, err := scanVideo(r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Video{}, ErrNotFound
	}
	return v, err
}

func (r *VideoRepository) List(ctx context.Context, q domain.VideoQuery) ([]domain.Video, error) {
	query, args := buildVideoQuery(q)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectVideos(rows)
}

func buildVideoQuery(q domain.VideoQuery) (string, []any) {
	var where []string
	var args []any
	if q.ReadyOnly {
		args = append(args, string(domain.StatusReady))
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if q.FeaturedOnly {
		where = append(where, "is_featured")
	}
	if genre := strings.TrimSpace(q.Genre); genre != "" {
		args = append(args, genre)
		where = append(where, fmt.Sprintf("genre=$%d", len(args)))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	query := `SELECT ` + videoColumns + ` FROM videos`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return query + ` ORDER BY created_at DESC`, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ByGenre returns up to perGenre newest ready videos for every genre that has any.
func (r *VideoRepository) ByGenre(ctx context.Context, perGenre int) (map[string][]domain.Video, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+videoColumns+` FROM (
			SELECT *, row_number() OVER (PARTITION BY genre ORDER BY created_at DESC) AS rn
			FROM videos
			WHERE status=$1
		) ranked
		WHERE rn <= $2
		ORDER BY genre, created_at DESC
	`, string(domain.StatusReady), perGenre)
	if err != nil {
		return nil, err
	}
	items, err := collectVideos(rows)
	if err != nil {
		return nil, err
	}
	grouped := map[string][]domain.Video{}
	for _, v := range items {
		grouped[v.Genre] = append(grouped[v.Genre], v)
	}
	return grouped, nil
}

func (r *VideoRepository) Update(ctx context.Context, id string, patch domain.VideoPatch) (domain.Video, error) {
	sets := []string{"updated_at=now()"}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Genre != nil {
		add("genre", *patch.Genre)
	}
	if patch.ReleaseYear != nil {
		add("release_year", *patch.ReleaseYear)
	}
	if patch.Rating != nil {
		add("rating", *patch.Rating)
	}
	if patch.Duration != nil {
		add("duration", *patch.Duration)
	}
	if patch.ContentType != nil {
		add("content_type", *patch.ContentType)
	}
	if patch.ThumbnailKey != nil {
		add("thumbnail_key", *patch.ThumbnailKey)
	}
	if patch.ThumbnailURL != nil {
		add("thumbnail_url", *patch.ThumbnailURL)
	}
	if patch.IsFeatured != nil {
		add("is_featured", *patch.IsFeatured)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE videos SET %s WHERE id=$%d RETURNING %s`, strings.Join(sets, ", "), len(args), videoColumns)
	v, err := scanVideo(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Video{}, ErrNotFound
	}
	return v, err
}

func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *VideoRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
