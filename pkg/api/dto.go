package api

import (
	"net/http"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/service"
)

// CreateRequest is the body of POST /api/v1/functions.
type CreateRequest struct {
	function.Definition
	CreatedBy string `json:"createdBy"`
}

// ExecuteRequest is the body of POST /api/v1/functions/:id/execute.
type ExecuteRequest struct {
	Args map[string]any `json:"args"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status       string   `json:"status"`
	Version      string   `json:"version"`
	Uptime       string   `json:"uptime"`
	Functions    int      `json:"functions"`
	Capabilities []string `json:"capabilities"`
}

// statusFor maps a response to its HTTP status.
func statusFor(resp *service.Response) int {
	if resp.Success {
		return http.StatusOK
	}
	switch resp.Error {
	case function.KindNotFound:
		return http.StatusNotFound
	case function.KindNameConflict:
		return http.StatusConflict
	case function.KindValidationFailed, function.KindCompilationRejected, function.KindParameterValidation:
		return http.StatusBadRequest
	case function.KindExecutionError:
		return http.StatusUnprocessableEntity
	case function.KindTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(message string) *service.Response {
	return &service.Response{Error: function.KindValidationFailed, Message: message}
}
