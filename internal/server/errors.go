package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/resume-studio/internal/draft"
	"github.com/jonathan/resume-studio/internal/export"
	"github.com/jonathan/resume-studio/internal/schemas"
)

// ErrDraftNotFound indicates the draft does not exist or belongs to another user
var ErrDraftNotFound = errors.New("draft not found")

// ErrSessionNotFound indicates no editor session is open for the draft
var ErrSessionNotFound = errors.New("no editor session is open for this draft")

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrStorageDisabled indicates the save flow was requested without a
// configured thumbnail store
var ErrStorageDisabled = errors.New("thumbnail storage is not configured")

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation  *ErrValidation
		userMissing *ErrUserNotFound
		field       *draft.FieldError
		index       *draft.IndexError
		schema      *schemas.ValidationError
		document    *schemas.DocumentError
		persistence *export.PersistenceError
	)

	switch {
	case errors.As(err, &validation), errors.As(err, &field), errors.As(err, &index),
		errors.As(err, &schema), errors.As(err, &document):
		return http.StatusBadRequest
	case errors.Is(err, ErrDraftNotFound), errors.Is(err, ErrSessionNotFound), errors.As(err, &userMissing):
		return http.StatusNotFound
	case errors.Is(err, export.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, ErrStorageDisabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &persistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
