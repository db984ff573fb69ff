package api

import (
	"stream_server/server/catalog/domain"
	"stream_server/server/common/transport/httpresp"
)

type ErrorResponse = httpresp.ErrorResponse
type HealthResponse = httpresp.HealthResponse

type VideosResponse struct {
	Success bool                 `json:"success"`
	Videos  []domain.PublicVideo `json:"videos"`
}

type VideoResponse struct {
	Success bool               `json:"success"`
	Video   domain.PublicVideo `json:"video"`
}

type VideosByGenreResponse struct {
	Success       bool                            `json:"success"`
	VideosByGenre map[string][]domain.PublicVideo `json:"videosByGenre"`
}

func NewErrorResponse(message string) ErrorResponse {
	return httpresp.NewErrorResponse(message)
}

func NewVideosResponse(videos []domain.PublicVideo) VideosResponse {
	return VideosResponse{Success: true, Videos: videos}
}

func NewVideoResponse(video domain.PublicVideo) VideoResponse {
	return VideoResponse{Success: true, Video: video}
}

func NewVideosByGenreResponse(grouped map[string][]domain.PublicVideo) VideosByGenreResponse {
	return VideosByGenreResponse{Success: true, VideosByGenre: grouped}
}
