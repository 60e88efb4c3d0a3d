package api

import (
	"alcyxob/dating-app/internal/service"
	"errors"
	"net/http"
)

// statusForPhotoError maps photo service errors to HTTP status codes.
func statusForPhotoError(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, service.ErrTooManyPhotos),
		errors.Is(err, service.ErrPhotoIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUploadInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
