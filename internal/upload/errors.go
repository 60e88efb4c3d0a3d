package upload

import (
	"errors"

	"alcyxob/dating-app/internal/domain"
)

// Per-file failure causes. Pipeline outcomes carry the matching domain.FailureReason.
var (
	ErrInvalidFileType    = errors.New("invalid file type")
	ErrFileTooLarge       = errors.New("file too large")
	ErrCorruptImage       = errors.New("corrupt image")
	ErrUploadExhausted    = errors.New("upload retries exhausted")
	ErrVerificationFailed = errors.New("upload could not be verified")
)

// ReasonFor maps a pipeline error to its FailureReason.
func ReasonFor(err error) domain.FailureReason {
	switch {
	case err == nil:
		return domain.ReasonNone
	case errors.Is(err, ErrInvalidFileType):
		return domain.ReasonInvalidFileType
	case errors.Is(err, ErrFileTooLarge):
		return domain.ReasonFileTooLarge
	case errors.Is(err, ErrCorruptImage):
		return domain.ReasonCorruptImage
	case errors.Is(err, ErrVerificationFailed):
		return domain.ReasonVerificationFailed
	default:
		return domain.ReasonUploadExhausted
	}
}
