package httpx

import (
	"net/http"

	apperrors "github.com/inkform/gravure-api/internal/errors"
)

// errorBody is the JSON shape of an error response. Field is only set for
// validation errors that name a specific input field.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// statusForCode maps application error codes to HTTP status codes.
func statusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeAccess:
		return http.StatusUnauthorized
	case apperrors.ErrCodePermission:
		return http.StatusForbidden
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeTransfer:
		return http.StatusBadGateway
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError writes the JSON response for a service-layer error. Internal
// errors are masked so database and storage details never reach the client.
func WriteAppError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := statusForCode(code)

	body := errorBody{
		Error:   string(code),
		Message: err.Error(),
		Field:   apperrors.GetField(err),
	}
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		body.Message = "Something went wrong. Please try again."
	}

	WriteJSON(w, status, body)
}
