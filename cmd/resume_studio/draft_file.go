package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jonathan/resume-studio/internal/draft"
	"github.com/jonathan/resume-studio/internal/export"
	"github.com/jonathan/resume-studio/internal/schemas"
	"github.com/jonathan/resume-studio/internal/storage"
	"github.com/jonathan/resume-studio/internal/types"
)

// readDraftFile validates and decodes a draft JSON file, hydrating missing
// sections with their seed elements.
func readDraftFile(path string) (types.Draft, error) {
	if err := schemas.ValidateDraftFile(path); err != nil {
		return types.Draft{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Draft{}, fmt.Errorf("failed to read draft file: %w", err)
	}
	var d types.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return types.Draft{}, fmt.Errorf("failed to parse draft file: %w", err)
	}
	return draft.Hydrate(d), nil
}

// fileDraftID derives a stable draft id from the file location so repeated
// exports of one file reuse its thumbnail name.
func fileDraftID(path string) uuid.UUID {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs)))
}

// fileStore is a single-draft persistence backed by the local filesystem.
// Saved drafts are written to the output directory under the input's base
// name; thumbnails go next to them.
type fileStore struct {
	id     uuid.UUID
	name   string
	outDir string
	draft  types.Draft
	thumbs storage.Local
}

var _ export.Persistence = (*fileStore)(nil)

func newFileStore(inPath, outDir string, d types.Draft) *fileStore {
	return &fileStore{
		id:     fileDraftID(inPath),
		name:   filepath.Base(inPath),
		outDir: outDir,
		draft:  d,
		thumbs: storage.Local{Dir: outDir},
	}
}

var errFileStoreUnsupported = fmt.Errorf("operation not supported for a local draft file")

func (f *fileStore) CreateDraft(context.Context, string) (*types.DraftRecord, error) {
	return nil, errFileStoreUnsupported
}

func (f *fileStore) ListDrafts(context.Context) ([]types.DraftRecord, error) {
	return []types.DraftRecord{f.record(draft.Completion(f.draft))}, nil
}

func (f *fileStore) GetDraft(_ context.Context, id uuid.UUID) (*types.DraftRecord, error) {
	if id != f.id {
		return nil, fmt.Errorf("draft %s not found", id)
	}
	rec := f.record(draft.Completion(f.draft))
	return &rec, nil
}

func (f *fileStore) UpdateDraft(_ context.Context, id uuid.UUID, payload types.DraftPayload) (*types.DraftRecord, error) {
	if id != f.id {
		return nil, fmt.Errorf("draft %s not found", id)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := os.MkdirAll(f.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(f.savedPath(), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write draft: %w", err)
	}
	f.draft = payload.Draft
	rec := f.record(payload.Completion)
	return &rec, nil
}

func (f *fileStore) DeleteDraft(context.Context, uuid.UUID) error {
	return errFileStoreUnsupported
}

func (f *fileStore) UploadThumbnail(ctx context.Context, id uuid.UUID, png []byte) (string, error) {
	return f.thumbs.Upload(ctx, id, png)
}

func (f *fileStore) savedPath() string {
	return filepath.Join(f.outDir, f.name)
}

func (f *fileStore) record(completion int) types.DraftRecord {
	return types.DraftRecord{ID: f.id, Completion: completion, Draft: f.draft}
}
