package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-studio/internal/draft"
	"github.com/jonathan/resume-studio/internal/schemas"
	"github.com/jonathan/resume-studio/internal/types"
)

func writeDraftFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadDraftFile(t *testing.T) {
	path := writeDraftFile(t, `{
		"title": "Platform CV",
		"profileInfo": {"fullName": "Ada Lovelace", "designation": "Engineer", "summary": "Writes programs"},
		"skills": [{"name": "Go", "progress": 90}]
	}`)

	d, err := readDraftFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Platform CV", d.Title)
	assert.Equal(t, "Go", d.Skills[0].Name)
	assert.Len(t, d.WorkExperience, 1, "absent sections are seeded")
	assert.Equal(t, draft.DefaultTheme, d.Template.Theme)
}

func TestReadDraftFile_SchemaViolation(t *testing.T) {
	path := writeDraftFile(t, `{"title": "CV", "skills": [{"name": "Go", "progress": 400}]}`)

	_, err := readDraftFile(path)
	var verr *schemas.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Messages())
}

func TestReadDraftFile_Missing(t *testing.T) {
	_, err := readDraftFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestFileDraftID_Stable(t *testing.T) {
	a := fileDraftID("testdata/cv.json")
	assert.Equal(t, a, fileDraftID("testdata/cv.json"))
	assert.NotEqual(t, a, fileDraftID("testdata/other.json"))
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	in := writeDraftFile(t, `{"title": "CV"}`)
	out := t.TempDir()
	d, err := readDraftFile(in)
	require.NoError(t, err)
	store := newFileStore(in, out, d)

	rec, err := store.GetDraft(ctx, store.id)
	require.NoError(t, err)
	assert.Equal(t, "CV", rec.Title)

	_, err = store.GetDraft(ctx, uuid.New())
	assert.Error(t, err)

	link, err := store.UploadThumbnail(ctx, store.id, []byte("\x89PNG"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "file://"))

	d.ThumbnailLink = link
	_, err = store.UpdateDraft(ctx, store.id, types.DraftPayload{Draft: d, Completion: 12})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "draft.json"))
	require.NoError(t, err)
	var saved types.DraftPayload
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, link, saved.ThumbnailLink)
	assert.Equal(t, 12, saved.Completion)
	require.NoError(t, schemas.ValidateDraft(data), "saved drafts stay loadable")

	_, err = store.CreateDraft(ctx, "x")
	assert.ErrorIs(t, err, errFileStoreUnsupported)
	assert.ErrorIs(t, store.DeleteDraft(ctx, store.id), errFileStoreUnsupported)
}

func TestStepResults(t *testing.T) {
	d := draft.New()
	results := stepResults(d)
	require.Len(t, results, types.StepCount)
	assert.Equal(t, types.StepProfileInfo, results[0].Step)
	assert.Contains(t, results[0].Messages, "Full Name is required")
	assert.Positive(t, incompleteSteps(results))
}
