package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so copies produced by
// WithError still satisfy errors.Is against the predefined values.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrInvalidRequest = &AppError{
		Code:       "INVALID_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Method not allowed",
		StatusCode: 405,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 400,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 400,
	}

	ErrNoFaceInAnyImage = &AppError{
		Code:       "NO_FACE_IN_ANY_IMAGE",
		Message:    "No face detected in any of the submitted images",
		StatusCode: 400,
	}

	ErrIdentityNotEnrolled = &AppError{
		Code:       "IDENTITY_NOT_ENROLLED",
		Message:    "No face data enrolled for this user_id",
		StatusCode: 400,
	}

	ErrIdentityNotMatched = &AppError{
		Code:       "IDENTITY_NOT_MATCHED",
		Message:    "No face in the image matches this user_id",
		StatusCode: 400,
	}

	ErrUnsupportedMaskType = &AppError{
		Code:       "UNSUPPORTED_MASK_TYPE",
		Message:    "Unsupported mask type",
		StatusCode: 400,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrStorageWriteFailed = &AppError{
		Code:       "STORAGE_WRITE_FAILED",
		Message:    "Failed to persist result",
		StatusCode: 500,
	}

	ErrModelUnavailable = &AppError{
		Code:       "MODEL_UNAVAILABLE",
		Message:    "Face model backend is unavailable",
		StatusCode: 500,
	}
)
