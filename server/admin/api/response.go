package api

import (
	adminservice "stream_server/server/admin/service"
	"stream_server/server/catalog/domain"
	"stream_server/server/common/transport/httpresp"
)

type ErrorResponse = httpresp.ErrorResponse

// AdminVideo is the full record plus resolved URLs.
type AdminVideo struct {
	domain.Video
	StreamURL string `json:"streamUrl"`
}

type VideosResponse struct {
	Success bool         `json:"success"`
	Videos  []AdminVideo `json:"videos"`
}

type VideoResponse struct {
	Success bool       `json:"success"`
	Video   AdminVideo `json:"video"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type DeleteFailedResponse struct {
	Success  bool                         `json:"success"`
	Message  string                       `json:"message"`
	Failures []adminservice.DeleteOutcome `json:"failures"`
}

type createVideoRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Genre        string  `json:"genre"`
	ReleaseYear  int     `json:"releaseYear"`
	Rating       float64 `json:"rating"`
	Duration     float64 `json:"duration"`
	S3Key        string  `json:"s3Key"`
	ContentType  string  `json:"contentType"`
	ThumbnailKey string  `json:"thumbnailKey"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	IsFeatured   bool    `json:"isFeatured"`
	Status       string  `json:"status"`
}

func (r createVideoRequest) input() adminservice.CreateVideoInput {
	return adminservice.CreateVideoInput{
		Title:        r.Title,
		Description:  r.Description,
		Genre:        r.Genre,
		ReleaseYear:  r.ReleaseYear,
		Rating:       r.Rating,
		Duration:     r.Duration,
		StorageKey:   r.S3Key,
		ContentType:  r.ContentType,
		ThumbnailKey: r.ThumbnailKey,
		ThumbnailURL: r.ThumbnailURL,
		IsFeatured:   r.IsFeatured,
		Status:       r.Status,
	}
}

type updateVideoRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Genre        *string  `json:"genre"`
	ReleaseYear  *int     `json:"releaseYear"`
	Rating       *float64 `json:"rating"`
	Duration     *float64 `json:"duration"`
	ContentType  *string  `json:"contentType"`
	ThumbnailKey *string  `json:"thumbnailKey"`
	ThumbnailURL *string  `json:"thumbnailUrl"`
	IsFeatured   *bool    `json:"isFeatured"`
	Status       *string  `json:"status"`
}

func (r updateVideoRequest) input() adminservice.UpdateVideoInput {
	return adminservice.UpdateVideoInput{
		Title:        r.Title,
		Description:  r.Description,
		Genre:        r.Genre,
		ReleaseYear:  r.ReleaseYear,
		Rating:       r.Rating,
		Duration:     r.Duration,
		ContentType:  r.ContentType,
		ThumbnailKey: r.ThumbnailKey,
		ThumbnailURL: r.ThumbnailURL,
		IsFeatured:   r.IsFeatured,
		Status:       r.Status,
	}
}

type featuredRequest struct {
	IsFeatured *bool `json:"isFeatured"`
}

func NewErrorResponse(message string) ErrorResponse {
	return httpresp.NewErrorResponse(message)
}
