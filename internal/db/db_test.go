package db

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-studio/internal/draft"
	"github.com/jonathan/resume-studio/internal/types"
)

func TestSchemaSQLEmbedded(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS drafts")
	assert.Contains(t, schemaSQL, "content         JSONB NOT NULL")
}

func TestDraftColumnsMatchScanOrder(t *testing.T) {
	cols := strings.Split(draftColumns, ", ")
	assert.Equal(t, []string{
		"id", "user_id", "title", "thumbnail_link", "completion", "content", "created_at", "updated_at",
	}, cols)
}

func TestDraftRowRecord(t *testing.T) {
	t.Run("columns win over content copies", func(t *testing.T) {
		d := draft.New()
		d.Title = "stale"
		d.ThumbnailLink = "stale.png"
		d.ProfileInfo.FullName = "Jane Roe"
		content, err := encodeDraft(d)
		require.NoError(t, err)

		now := time.Now()
		row := draftRow{
			ID:            uuid.New(),
			UserID:        uuid.New(),
			Title:         "Backend Resume",
			ThumbnailLink: "https://cdn.example.com/t.png",
			Completion:    42,
			Content:       content,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		rec, err := row.record()
		require.NoError(t, err)
		assert.Equal(t, row.ID, rec.ID)
		assert.Equal(t, row.UserID, rec.UserID)
		assert.Equal(t, "Backend Resume", rec.Title)
		assert.Equal(t, "https://cdn.example.com/t.png", rec.ThumbnailLink)
		assert.Equal(t, 42, rec.Completion)
		assert.Equal(t, "Jane Roe", rec.ProfileInfo.FullName)
		assert.Len(t, rec.WorkExperience, 1)
	})

	t.Run("empty content", func(t *testing.T) {
		row := draftRow{ID: uuid.New(), Title: "Only a title"}
		rec, err := row.record()
		require.NoError(t, err)
		assert.Equal(t, "Only a title", rec.Title)
		assert.Empty(t, rec.Skills)
	})

	t.Run("corrupt content", func(t *testing.T) {
		row := draftRow{ID: uuid.New(), Content: []byte(`{"skills": "not a list"}`)}
		_, err := row.record()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode draft")
	})
}

func TestEncodeDraft(t *testing.T) {
	d := draft.New()
	d.Skills = []types.Skill{{Name: "Go", Progress: 80}}

	data, err := encodeDraft(d)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "workExperience")
	assert.Contains(t, raw, "interests")
	skills, ok := raw["skills"].([]any)
	require.True(t, ok)
	assert.Len(t, skills, 1)
}

func TestClampCompletion(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{57, 57},
		{100, 100},
		{140, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampCompletion(tt.in))
	}
}

func TestUserToAPI(t *testing.T) {
	u := User{ID: uuid.New(), Name: "Jane", Email: "jane@example.com"}
	api := u.ToAPI()
	assert.Equal(t, u.ID, api.ID)
	assert.Equal(t, "Jane", api.Name)
	assert.Equal(t, "jane@example.com", api.Email)
}
