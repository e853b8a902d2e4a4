package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/resume-studio/internal/draft"
	"github.com/jonathan/resume-studio/internal/schemas"
	"github.com/jonathan/resume-studio/internal/server/middleware"
	"github.com/jonathan/resume-studio/internal/types"
)

// maxDraftBody caps PUT bodies; a draft is a few kilobytes.
const maxDraftBody = 1 << 20

// ----------------------------------------------------------------------------
// Request helpers
// ----------------------------------------------------------------------------

// requestUser returns the authenticated user, writing a 401 if there is none.
func (s *Server) requestUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// draftID parses the {id} path parameter, writing a 400 if it is malformed.
func (s *Server) draftID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid draft id")
		return uuid.Nil, false
	}
	return id, true
}

type validatable interface {
	Validate() error
}

// decodeRequest decodes a JSON body into req and runs its validator tags.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, req validatable) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, requestValidationError(err))
		return false
	}
	return true
}

// requestValidationError reports the first failing field of a validator error.
func requestValidationError(err error) error {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		f := fields[0]
		return &ErrValidation{Field: f.Field(), Message: fmt.Sprintf("failed on '%s'", f.Tag())}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

// writeError maps err to a status and writes it. Unexpected errors are
// logged and hidden from the client.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
		s.errorResponse(w, status, "internal server error")
		return
	}

	var schemaErr *schemas.ValidationError
	if errors.As(err, &schemaErr) {
		s.jsonResponse(w, status, map[string]any{
			"error":   "draft does not match schema",
			"details": schemaErr.Messages(),
		})
		return
	}
	s.errorResponse(w, status, err.Error())
}

// ----------------------------------------------------------------------------
// Draft Methods
// ----------------------------------------------------------------------------

func (s *Server) persistenceFor(userID uuid.UUID) persistence {
	return persistence{store: s.store, thumbs: s.thumbs, userID: userID}
}

// handleCreateDraft creates a seeded draft with the given title.
func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requestUser(w, r)
	if !ok {
		return
	}
	var req types.CreateDraftRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	rec, err := s.persistenceFor(userID).CreateDraft(r.Context(), req.Title)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info().Str("user_id", userID.String()).Str("draft_id", rec.ID.String()).Msg("draft created")
	s.jsonResponse(w, http.StatusCreated, rec)
}

// handleListDrafts lists the user's drafts, newest first.
func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requestUser(w, r)
	if !ok {
		return
	}
	drafts, err := s.persistenceFor(userID).ListDrafts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"drafts": drafts,
		"count":  len(drafts),
	})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requestUser(w, r)
	if !ok {
		return
	}
	id, ok := s.draftID(w, r)
	if !ok {
		return
	}
	rec, err := s.persistenceFor(userID).GetDraft(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

// handleUpdateDraft replaces a stored draft with a schema-checked body. The
// completion is recomputed rather than trusted. An open editor session for
// the draft is closed since it no longer reflects the stored copy.
func (s *Server) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requestUser(w, r)
	if !ok {
		return
	}
	id, ok := s.draftID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDraftBody))
	if err != nil {
		s.errorResponse(w, http.StatusRequestEntityTooLarge, "draft body too large")
		return
	}
	if err := schemas.ValidateDraft(body); err != nil {
		s.writeError(w, err)
		return
	}
	var d types.Draft
	if err := json.Unmarshal(body, &d); err != nil {
		s.writeError(w, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}
	d.Title = draft.DisplayTitle(d)

	payload := types.DraftPayload{Draft: d, Completion: draft.Completion(d)}
	rec, err := s.persistenceFor(userID).UpdateDraft(r.Context(), id, payload)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.sessions.drop(sessionKey{userID: userID, draftID: id})
	s.jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requestUser(w, r)
	if !ok {
		return
	}
	id, ok := s.draftID(w, r)
	if !ok {
		return
	}
	store := s.persistenceFor(userID)
	if err := store.DeleteDraft(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.sessions.drop(sessionKey{userID: userID, draftID: id})
	if err := store.RemoveThumbnail(r.Context(), id); err != nil {
		s.log.Warn().Err(err).Str("draft_id", id.String()).Msg("failed to remove thumbnail")
	}
	s.log.Info().Str("user_id", userID.String()).Str("draft_id", id.String()).Msg("draft deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------------------
// Profile Methods
// ----------------------------------------------------------------------------

// handleGetProfile returns the authenticated user's profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requestUser(w, r)
	if !ok {
		return
	}
	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if user == nil {
		s.writeError(w, &ErrUserNotFound{UserID: userID})
		return
	}
	s.jsonResponse(w, http.StatusOK, user.ToAPI())
}
