package api

import (
	"errors"
	"net/http"

	"cryptoanalyst/pkg/cryptoanalyst"
)

// ErrorResponse represents an error API response with structured information.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
}

// writeErrorResponse writes an error response, mapping structured core
// errors to their HTTP status.
func writeErrorResponse(w http.ResponseWriter, httpStatus int, err error) {
	response := ErrorResponse{
		Code:    httpStatus,
		Message: err.Error(),
	}

	var coreErr *cryptoanalyst.Error
	if errors.As(err, &coreErr) {
		response.ErrorCode = string(coreErr.Code)
		httpStatus = mapErrorCodeToHTTPStatus(coreErr.Code)
		response.Code = httpStatus
	}

	writeJSON(w, httpStatus, response)
}

// mapErrorCodeToHTTPStatus maps business error codes to HTTP status codes.
func mapErrorCodeToHTTPStatus(code cryptoanalyst.ErrorCode) int {
	switch code {
	case cryptoanalyst.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case cryptoanalyst.ErrCodeNotFound:
		return http.StatusNotFound
	case cryptoanalyst.ErrCodeDatabase, cryptoanalyst.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
