package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-studio/internal/draft"
	"github.com/jonathan/resume-studio/internal/types"
)

// -----------------------------------------------------------------------------
// Draft Methods
// -----------------------------------------------------------------------------

const draftColumns = `id, user_id, title, thumbnail_link, completion, content, created_at, updated_at`

func scanDraft(row pgx.Row) (*types.DraftRecord, error) {
	var r draftRow
	if err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.ThumbnailLink, &r.Completion,
		&r.Content, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return r.record()
}

// CreateDraft stores a new blank draft with the given title for userID
func (db *DB) CreateDraft(ctx context.Context, userID uuid.UUID, title string) (*types.DraftRecord, error) {
	d := draft.SetTitle(draft.New(), strings.TrimSpace(title))
	content, err := encodeDraft(d)
	if err != nil {
		return nil, err
	}

	rec, err := scanDraft(db.pool.QueryRow(ctx,
		`INSERT INTO drafts (user_id, title, completion, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+draftColumns,
		userID, draft.DisplayTitle(d), draft.Completion(d), content,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	return rec, nil
}

// ListDrafts returns the drafts of userID, most recently updated first
func (db *DB) ListDrafts(ctx context.Context, userID uuid.UUID) ([]types.DraftRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+draftColumns+`
		 FROM drafts WHERE user_id = $1
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	drafts := []types.DraftRecord{}
	for rows.Next() {
		rec, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return drafts, nil
}

// GetDraft retrieves a draft owned by userID. Returns nil if not found.
func (db *DB) GetDraft(ctx context.Context, userID, id uuid.UUID) (*types.DraftRecord, error) {
	rec, err := scanDraft(db.pool.QueryRow(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return rec, nil
}

// UpdateDraft replaces the sections and completion of a draft owned by
// userID. Returns nil if not found.
func (db *DB) UpdateDraft(ctx context.Context, userID, id uuid.UUID, payload types.DraftPayload) (*types.DraftRecord, error) {
	content, err := encodeDraft(payload.Draft)
	if err != nil {
		return nil, err
	}

	rec, err := scanDraft(db.pool.QueryRow(ctx,
		`UPDATE drafts
		 SET title = $3, thumbnail_link = $4, completion = $5, content = $6, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+draftColumns,
		id, userID, draft.DisplayTitle(payload.Draft), payload.ThumbnailLink,
		clampCompletion(payload.Completion), content,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}
	return rec, nil
}

// DeleteDraft removes a draft owned by userID and reports whether it existed
func (db *DB) DeleteDraft(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM drafts WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete draft: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
