package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"stream_server/server/catalog/domain"
	"stream_server/server/common/infra/mq"
	"stream_server/server/common/infra/object"
	commonlog "stream_server/server/common/log"
	"stream_server/server/repository"
)

var (
	ErrVideoNotFound = errors.New("video not found")
	ErrInvalidInput  = errors.New("invalid input")
)

type VideoStore interface {
	Create(ctx context.Context, v domain.Video) (domain.Video, error)
	Get(ctx context.Context, id string) (domain.Video, error)
	List(ctx context.Context, q domain.VideoQuery) ([]domain.Video, error)
	Update(ctx context.Context, id string, patch domain.VideoPatch) (domain.Video, error)
	Delete(ctx context.Context, id string) error
}

type CreateVideoInput struct {
	Title        string
	Description  string
	Genre        string
	ReleaseYear  int
	Rating       float64
	Duration     float64
	StorageKey   string
	ContentType  string
	ThumbnailKey string
	ThumbnailURL string
	IsFeatured   bool
	Status       string
}

type UpdateVideoInput struct {
	Title        *string
	Description  *string
	Genre        *string
	ReleaseYear  *int
	Rating       *float64
	Duration     *float64
	ContentType  *string
	ThumbnailKey *string
	ThumbnailURL *string
	IsFeatured   *bool
	Status       *string
}

type VideoService struct {
	store   VideoStore
	objects object.Gateway
	events  mq.Publisher
	posters *PosterMaker
}

func NewVideoService(store VideoStore, objects object.Gateway, events mq.Publisher) *VideoService {
	if events == nil {
		events = mq.NopPublisher{}
	}
	return &VideoService{store: store, objects: objects, events: events, posters: NewPosterMaker(objects)}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validateRating(rating float64) error {
	if rating < 0 || rating > 5 || math.IsNaN(rating) {
		return invalid("rating must be between 0 and 5")
	}
	return nil
}

func durationSeconds(d float64) (int, error) {
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, invalid("duration must be a positive number")
	}
	return max(1, int(math.Round(d))), nil
}

func parseStatus(raw string) (domain.VideoStatus, error) {
	status := domain.VideoStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", invalid("status must be one of processing, ready, error")
	}
	return status, nil
}

func (s *VideoService) List(ctx context.Context) ([]domain.Video, error) {
	return s.store.List(ctx, domain.VideoQuery{})
}

func (s *VideoService) Get(ctx context.Context, id string) (domain.Video, error) {
	v, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Video{}, ErrVideoNotFound
	}
	return v, err
}

// Create registers an uploaded asset. Status defaults to ready.
func (s *VideoService) Create(ctx context.Context, uploadedBy string, in CreateVideoInput) (domain.Video, error) {
	in.StorageKey = strings.TrimLeft(strings.TrimSpace(in.StorageKey), "/")
	in.ThumbnailKey = strings.TrimLeft(strings.TrimSpace(in.ThumbnailKey), "/")
	in.ThumbnailURL = strings.TrimSpace(in.ThumbnailURL)
	in.Title = strings.TrimSpace(in.Title)

	if in.StorageKey == "" {
		return domain.Video{}, invalid("s3Key is required")
	}
	if in.Duration == 0 {
		return domain.Video{}, invalid("video duration is required")
	}
	duration, err := durationSeconds(in.Duration)
	if err != nil {
		return domain.Video{}, err
	}
	if in.ThumbnailKey == "" && in.ThumbnailURL == "" {
		return domain.Video{}, invalid("a thumbnail must be provided")
	}
	if in.Title == "" {
		return domain.Video{}, invalid("title is required")
	}
	if !domain.ValidGenre(in.Genre) {
		return domain.Video{}, invalid("genre must be one of %s", strings.Join(domain.Genres, ", "))
	}
	if err := validateRating(in.Rating); err != nil {
		return domain.Video{}, err
	}
	status := domain.StatusReady
	if strings.TrimSpace(in.Status) != "" {
		if status, err = parseStatus(in.Status); err != nil {
			return domain.Video{}, err
		}
	}

	v := domain.Video{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Description:  strings.TrimSpace(in.Description),
		Genre:        in.Genre,
		ReleaseYear:  in.ReleaseYear,
		Rating:       in.Rating,
		Duration:     duration,
		StorageKey:   in.StorageKey,
		ContentType:  strings.TrimSpace(in.ContentType),
		ThumbnailKey: in.ThumbnailKey,
		ThumbnailURL: in.ThumbnailURL,
		IsFeatured:   in.IsFeatured,
		Status:       status,
		UploadedBy:   uploadedBy,
	}
	if v.ContentType == "" {
		v.ContentType = s.posters.SniffVideoType(ctx, v.StorageKey)
	}
	source := ""
	if v.ThumbnailKey != "" {
		posterKey, err := s.posters.Normalize(ctx, v.ID, v.ThumbnailKey)
		switch {
		case err != nil:
			commonlog.Warnf("event=admin_video action=poster status=skipped video_id=%s thumbnail_key=%s error=%v", v.ID, v.ThumbnailKey, err)
		case posterKey != v.ThumbnailKey:
			source, v.ThumbnailKey = v.ThumbnailKey, posterKey
		}
	}

	created, err := s.store.Create(ctx, v)
	if err != nil {
		return domain.Video{}, fmt.Errorf("create video: %w", err)
	}
	s.dropPosterSource(ctx, created.ID, source)
	commonlog.Infof("event=admin_video action=create status=ok video_id=%s storage_key=%s content_type=%s uploaded_by=%s", created.ID, created.StorageKey, created.ContentType, uploadedBy)
	s.publish(ctx, mq.RoutingVideoCreated, created)
	return created, nil
}

func (s *VideoService) buildPatch(in UpdateVideoInput) (domain.VideoPatch, error) {
	patch := domain.VideoPatch{
		Description: in.Description,
		ReleaseYear: in.ReleaseYear,
		ContentType: in.ContentType,
		IsFeatured:  in.IsFeatured,
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return patch, invalid("title must not be empty")
		}
		patch.Title = &title
	}
	if in.Genre != nil {
		if !domain.ValidGenre(*in.Genre) {
			return patch, invalid("genre must be one of %s", strings.Join(domain.Genres, ", "))
		}
		patch.Genre = in.Genre
	}
	if in.Rating != nil {
		if err := validateRating(*in.Rating); err != nil {
			return patch, err
		}
		patch.Rating = in.Rating
	}
	if in.Duration != nil {
		d, err := durationSeconds(*in.Duration)
		if err != nil {
			return patch, err
		}
		patch.Duration = &d
	}
	if in.Status != nil {
		status, err := parseStatus(*in.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}
	switch {
	case in.ThumbnailKey != nil && strings.TrimSpace(*in.ThumbnailKey) != "":
		key := strings.TrimLeft(strings.TrimSpace(*in.ThumbnailKey), "/")
		patch.ThumbnailKey = &key
	case in.ThumbnailURL != nil && strings.TrimSpace(*in.ThumbnailURL) != "":
		url := strings.TrimSpace(*in.ThumbnailURL)
		empty := ""
		patch.ThumbnailURL = &url
		patch.ThumbnailKey = &empty
	}
	return patch, nil
}

// Update applies a partial change, including readiness transitions.
func (s *VideoService) Update(ctx context.Context, id string, in UpdateVideoInput) (domain.Video, error) {
	patch, err := s.buildPatch(in)
	if err != nil {
		return domain.Video{}, err
	}
	source := ""
	if patch.ThumbnailKey != nil && *patch.ThumbnailKey != "" {
		posterKey, err := s.posters.Normalize(ctx, id, *patch.ThumbnailKey)
		if err == nil && posterKey != *patch.ThumbnailKey {
			source = *patch.ThumbnailKey
			patch.ThumbnailKey = &posterKey
		}
	}
	updated, err := s.store.Update(ctx, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Video{}, ErrVideoNotFound
	}
	if err != nil {
		return domain.Video{}, fmt.Errorf("update video %s: %w", id, err)
	}
	s.dropPosterSource(ctx, id, source)
	commonlog.Infof("event=admin_video action=update status=ok video_id=%s video_status=%s featured=%t", updated.ID, updated.Status, updated.IsFeatured)
	s.publish(ctx, mq.RoutingVideoUpdated, updated)
	return updated, nil
}

// dropPosterSource removes the uploaded image a poster was made from once
// the record points at the poster.
func (s *VideoService) dropPosterSource(ctx context.Context, videoID, source string) {
	if source == "" {
		return
	}
	if err := s.objects.Remove(ctx, source); err != nil {
		commonlog.Warnf("event=admin_video action=poster_source_remove status=failed video_id=%s thumbnail_key=%s error=%v", videoID, source, err)
	}
}

func (s *VideoService) SetFeatured(ctx context.Context, id string, featured bool) (domain.Video, error) {
	return s.Update(ctx, id, UpdateVideoInput{IsFeatured: &featured})
}

func (s *VideoService) publish(ctx context.Context, routingKey string, payload any) {
	if err := s.events.Publish(ctx, routingKey, payload); err != nil {
		commonlog.Warnf("event=admin_event action=publish status=failed routing_key=%s error=%v", routingKey, err)
	}
}
