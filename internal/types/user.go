package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// User represents a user profile for API responses (avoids import cycle with db package).
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateDraftRequest represents the request to create a new draft.
type CreateDraftRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// FieldUpdateRequest replaces one field of a scalar section.
type FieldUpdateRequest struct {
	Section Section `json:"section" validate:"required,oneof=profileInfo contactInfo template"`
	Key     string  `json:"key" validate:"required"`
	Value   any     `json:"value"`
}

// ItemUpdateRequest patches one element of a sequence section.
// An empty Key replaces the whole element.
type ItemUpdateRequest struct {
	Section Section `json:"section" validate:"required,oneof=workExperience education skills projects certifications languages interests"`
	Index   *int    `json:"index" validate:"required,min=0"`
	Key     string  `json:"key,omitempty"`
	Value   any     `json:"value"`
}

// ItemAppendRequest appends one element to a sequence section.
type ItemAppendRequest struct {
	Section Section `json:"section" validate:"required,oneof=workExperience education skills projects certifications languages interests"`
	Item    any     `json:"item"`
}

// ItemRemoveRequest removes one element from a sequence section.
type ItemRemoveRequest struct {
	Section Section `json:"section" validate:"required,oneof=workExperience education skills projects certifications languages interests"`
	Index   *int    `json:"index" validate:"required,min=0"`
}

// ThemeRequest selects a new template theme and palette.
type ThemeRequest struct {
	Theme        string   `json:"theme" validate:"required"`
	ColorPalette []string `json:"colorPalette"`
}

// Validate validates the CreateDraftRequest using the validator.
func (r *CreateDraftRequest) Validate() error {
	return validator.New().Struct(r)
}

// Validate validates the FieldUpdateRequest using the validator.
func (r *FieldUpdateRequest) Validate() error {
	return validator.New().Struct(r)
}

// Validate validates the ItemUpdateRequest using the validator.
func (r *ItemUpdateRequest) Validate() error {
	return validator.New().Struct(r)
}

// Validate validates the ItemAppendRequest using the validator.
func (r *ItemAppendRequest) Validate() error {
	return validator.New().Struct(r)
}

// Validate validates the ItemRemoveRequest using the validator.
func (r *ItemRemoveRequest) Validate() error {
	return validator.New().Struct(r)
}

// Validate validates the ThemeRequest using the validator.
func (r *ThemeRequest) Validate() error {
	return validator.New().Struct(r)
}
