package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/resume-studio/internal/db"
	"github.com/jonathan/resume-studio/internal/export"
	"github.com/jonathan/resume-studio/internal/types"
)

// DraftStore is the database surface the server needs. *db.DB implements it.
type DraftStore interface {
	Ping(ctx context.Context) error
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	CreateDraft(ctx context.Context, userID uuid.UUID, title string) (*types.DraftRecord, error)
	ListDrafts(ctx context.Context, userID uuid.UUID) ([]types.DraftRecord, error)
	GetDraft(ctx context.Context, userID, id uuid.UUID) (*types.DraftRecord, error)
	UpdateDraft(ctx context.Context, userID, id uuid.UUID, payload types.DraftPayload) (*types.DraftRecord, error)
	DeleteDraft(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

// ThumbnailStore uploads a rasterized thumbnail and returns its link.
// *storage.Thumbnails and storage.Local implement it. Stores that also
// implement Remove lose a thumbnail when its draft is deleted.
type ThumbnailStore interface {
	Upload(ctx context.Context, draftID uuid.UUID, png []byte) (string, error)
}

// thumbnailRemover is implemented by stores that can delete a thumbnail
// once its draft is gone.
type thumbnailRemover interface {
	Remove(ctx context.Context, draftID uuid.UUID) error
}

var _ DraftStore = (*db.DB)(nil)

// persistence scopes the store to one user. It is the export.Persistence
// handed to every coordinator and is also what the draft handlers call.
type persistence struct {
	store  DraftStore
	thumbs ThumbnailStore
	userID uuid.UUID
}

var _ export.Persistence = persistence{}

func (p persistence) CreateDraft(ctx context.Context, title string) (*types.DraftRecord, error) {
	return p.store.CreateDraft(ctx, p.userID, title)
}

func (p persistence) ListDrafts(ctx context.Context) ([]types.DraftRecord, error) {
	return p.store.ListDrafts(ctx, p.userID)
}

func (p persistence) GetDraft(ctx context.Context, id uuid.UUID) (*types.DraftRecord, error) {
	rec, err := p.store.GetDraft(ctx, p.userID, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrDraftNotFound
	}
	return rec, nil
}

func (p persistence) UpdateDraft(ctx context.Context, id uuid.UUID, payload types.DraftPayload) (*types.DraftRecord, error) {
	rec, err := p.store.UpdateDraft(ctx, p.userID, id, payload)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrDraftNotFound
	}
	return rec, nil
}

func (p persistence) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	deleted, err := p.store.DeleteDraft(ctx, p.userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrDraftNotFound
	}
	return nil
}

func (p persistence) UploadThumbnail(ctx context.Context, id uuid.UUID, png []byte) (string, error) {
	if p.thumbs == nil {
		return "", ErrStorageDisabled
	}
	return p.thumbs.Upload(ctx, id, png)
}

// RemoveThumbnail deletes the stored thumbnail of id when the thumbnail
// store supports removal.
func (p persistence) RemoveThumbnail(ctx context.Context, id uuid.UUID) error {
	r, ok := p.thumbs.(thumbnailRemover)
	if !ok {
		return nil
	}
	return r.Remove(ctx, id)
}
