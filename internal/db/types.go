package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-studio/internal/types"
)

// User represents a user profile
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToAPI converts the row to its API shape
func (u *User) ToAPI() types.User {
	return types.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// draftRow is a drafts table row before the content column is decoded
type draftRow struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Title         string
	ThumbnailLink string
	Completion    int
	Content       []byte
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// record decodes the row into a DraftRecord. The title and thumbnail
// columns win over the copies inside content.
func (r *draftRow) record() (*types.DraftRecord, error) {
	rec := &types.DraftRecord{
		ID:         r.ID,
		UserID:     r.UserID,
		Completion: r.Completion,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if len(r.Content) > 0 {
		if err := json.Unmarshal(r.Content, &rec.Draft); err != nil {
			return nil, fmt.Errorf("failed to decode draft %s: %w", r.ID, err)
		}
	}
	rec.Title = r.Title
	rec.ThumbnailLink = r.ThumbnailLink
	return rec, nil
}

// encodeDraft serializes the sections stored in the content column.
func encodeDraft(d types.Draft) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft: %w", err)
	}
	return data, nil
}

// clampCompletion keeps a completion percentage inside the column check.
func clampCompletion(c int) int {
	return max(0, min(100, c))
}
