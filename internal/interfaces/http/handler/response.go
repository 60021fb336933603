package handler

import "github.com/bizgrow/backend/internal/interfaces/http/dto"

// APIResponse is the documented shape of a successful response. Handlers
// build the real payload through the dto package; this generic mirror
// exists so the OpenAPI annotations can name a typed data field.
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the documented shape of a failed response.
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}
