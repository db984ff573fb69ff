package api

import (
	"stream_server/server/chat/domain"
	"stream_server/server/common/transport/httpresp"
)

type ErrorResponse = httpresp.ErrorResponse
type HealthResponse = httpresp.HealthResponse

type HistoryResponse struct {
	Success  bool             `json:"success"`
	Messages []domain.Message `json:"messages"`
}

func NewErrorResponse(message string) ErrorResponse {
	return httpresp.NewErrorResponse(message)
}

func NewHistoryResponse(messages []domain.Message) HistoryResponse {
	return HistoryResponse{Success: true, Messages: messages}
}
