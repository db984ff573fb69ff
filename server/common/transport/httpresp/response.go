package httpresp

const (
	ErrUnauthorized       = "unauthorized"
	ErrMissingBearerToken = "authentication token is required"
	ErrInvalidToken       = "invalid token"
	ErrForbidden          = "forbidden"
	ErrInsufficientRole   = "admin access required"
	ErrInternal           = "internal server error"
	ErrNotFound           = "not found"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type OKResponse struct {
	Success bool `json:"success"`
}

type DataResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Success: false, Message: message}
}

func NewOKResponse() OKResponse {
	return OKResponse{Success: true}
}

func NewDataResponse[T any](data T) DataResponse[T] {
	return DataResponse[T]{Success: true, Data: data}
}

func NewHealthResponse(service, status string) HealthResponse {
	return HealthResponse{Status: status, Service: service}
}
