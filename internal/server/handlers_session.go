package server

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-studio/internal/draft"
	"github.com/jonathan/resume-studio/internal/export"
	"github.com/jonathan/resume-studio/internal/types"
)

// sessionView is the editor state returned by every session endpoint.
type sessionView struct {
	DraftID uuid.UUID `json:"draftId"`
	draft.Editor
	Transition string       `json:"transition,omitempty"`
	Export     export.State `json:"export"`
}

// view snapshots sess. Callers hold sess.mu.
func (s *Server) view(key sessionKey, sess *session, transition string) sessionView {
	return sessionView{
		DraftID:    key.draftID,
		Editor:     sess.editor,
		Transition: transition,
		Export:     sess.coord.State(),
	}
}

// lookupSession resolves the caller's open session for the {id} draft.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (sessionKey, *session, bool) {
	userID, ok := s.requestUser(w, r)
	if !ok {
		return sessionKey{}, nil, false
	}
	id, ok := s.draftID(w, r)
	if !ok {
		return sessionKey{}, nil, false
	}
	key := sessionKey{userID: userID, draftID: id}
	sess, found := s.sessions.get(key)
	if !found {
		s.writeError(w, ErrSessionNotFound)
		return sessionKey{}, nil, false
	}
	return key, sess, true
}

// mutate applies fn to the session's editor under its lock and writes the
// resulting view. A failed fn leaves the editor unchanged.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(draft.Editor) (draft.Editor, string, error)) {
	key, sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	next, transition, err := fn(sess.editor)
	if err != nil {
		sess.mu.Unlock()
		s.writeError(w, err)
		return
	}
	sess.editor = next
	sess.touch()
	view := s.view(key, sess, transition)
	sess.mu.Unlock()

	s.jsonResponse(w, http.StatusOK, view)
}

// ----------------------------------------------------------------------------
// Session Lifecycle
// ----------------------------------------------------------------------------

// handleOpenSession loads the stored draft into a fresh editor on the first
// step. Any session already open for the draft is replaced.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requestUser(w, r)
	if !ok {
		return
	}
	id, ok := s.draftID(w, r)
	if !ok {
		return
	}

	store := s.persistenceFor(userID)
	rec, err := store.GetDraft(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	events := newBroadcaster()
	cfg := s.cfg.Export
	cfg.OnProgress = events.publish

	sess := &session{
		editor:   draft.NewEditor(draft.Hydrate(rec.Draft)),
		lastUsed: time.Now(),
		coord:    export.New(store, s.snap, cfg, s.log),
		events:   events,
	}
	key := sessionKey{userID: userID, draftID: id}
	s.sessions.put(key, sess)

	s.log.Info().
		Str("user_id", userID.String()).
		Str("draft_id", id.String()).
		Int("completion", sess.editor.Completion).
		Msg("editor session opened")

	sess.mu.Lock()
	view := s.view(key, sess, "")
	sess.mu.Unlock()
	s.jsonResponse(w, http.StatusCreated, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(e draft.Editor) (draft.Editor, string, error) {
		return e, "", nil
	})
}

// ----------------------------------------------------------------------------
// Editing
// ----------------------------------------------------------------------------

func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var req types.FieldUpdateRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	s.mutate(w, r, func(e draft.Editor) (draft.Editor, string, error) {
		next, err := e.UpdateField(req.Section, req.Key, req.Value)
		return next, "", err
	})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req types.ItemUpdateRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	s.mutate(w, r, func(e draft.Editor) (draft.Editor, string, error) {
		if err := draft.CheckIndex(e.Draft, req.Section, *req.Index); err != nil {
			return e, "", err
		}
		next, err := e.UpdateArrayItem(req.Section, *req.Index, req.Key, req.Value)
		return next, "", err
	})
}

func (s *Server) handleAppendItem(w http.ResponseWriter, r *http.Request) {
	var req types.ItemAppendRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	s.mutate(w, r, func(e draft.Editor) (draft.Editor, string, error) {
		next, err := e.AppendArrayItem(req.Section, req.Item)
		return next, "", err
	})
}

// handleRemoveItem takes section and index as query parameters since DELETE
// bodies are unreliable through proxies.
func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	index, err := strconv.Atoi(q.Get("index"))
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "index", Message: "must be an integer"})
		return
	}
	req := types.ItemRemoveRequest{Section: types.Section(q.Get("section")), Index: &index}
	if err := req.Validate(); err != nil {
		s.writeError(w, requestValidationError(err))
		return
	}
	s.mutate(w, r, func(e draft.Editor) (draft.Editor, string, error) {
		if err := draft.CheckIndex(e.Draft, req.Section, index); err != nil {
			return e, "", err
		}
		return e.RemoveArrayItem(req.Section, index), "", nil
	})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req types.ThemeRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	s.mutate(w, r, func(e draft.Editor) (draft.Editor, string, error) {
		return e.SetTheme(req.Theme, req.ColorPalette), "", nil
	})
}

func (s *Server) handleSetTitle(w http.ResponseWriter, r *http.Request) {
	var req types.CreateDraftRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	s.mutate(w, r, func(e draft.Editor) (draft.Editor, string, error) {
		return e.SetTitle(req.Title), "", nil
	})
}

// ----------------------------------------------------------------------------
// Navigation
// ----------------------------------------------------------------------------

// handleAdvance validates the current step and moves forward. A blocked
// advance is not an error: the response carries the validation messages.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(e draft.Editor) (draft.Editor, string, error) {
		next, t := e.Advance()
		return next, t.String(), nil
	})
}

func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(e draft.Editor) (draft.Editor, string, error) {
		next, t := e.Retreat()
		return next, t.String(), nil
	})
}

// ----------------------------------------------------------------------------
// Save and Export
// ----------------------------------------------------------------------------

// snapshotDraft copies the editor's draft so a flow can run without the lock.
func snapshotDraft(sess *session) types.Draft {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()
	return draft.Clone(sess.editor.Draft)
}

// flowError writes a failed flow using the coordinator's recorded message.
func (s *Server) flowError(w http.ResponseWriter, sess *session, err error) {
	status := HTTPStatus(err)
	msg := sess.coord.State().LastError
	if errors.Is(err, export.ErrBusy) || msg == "" {
		msg = err.Error()
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("export flow failed")
	}
	s.errorResponse(w, status, msg)
}

// handleSave runs the thumbnail flow and records the stored link in the
// editor.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	key, sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	payload, err := sess.coord.SaveThumbnail(r.Context(), key.draftID, snapshotDraft(sess))
	if err != nil {
		s.flowError(w, sess, err)
		return
	}

	sess.mu.Lock()
	sess.editor = sess.editor.SetThumbnail(payload.ThumbnailLink)
	view := s.view(key, sess, "")
	sess.mu.Unlock()
	s.jsonResponse(w, http.StatusOK, view)
}

// handleExport runs the PDF flow and streams the document as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	key, sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	doc, err := sess.coord.Export(r.Context(), snapshotDraft(sess))
	if err != nil {
		s.flowError(w, sess, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes())))
	w.Header().Set("X-Page-Count", strconv.Itoa(doc.Pages))
	w.WriteHeader(http.StatusOK)
	if _, err := doc.WriteTo(w); err != nil {
		s.log.Warn().Err(err).Str("draft_id", key.draftID.String()).Msg("pdf download interrupted")
	}
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, sess.coord.State())
}

// handleEvents streams flow progress for the session as server-sent events.
// The stream ends when the client goes away or the session is closed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	events, unsubscribe := sess.events.subscribe()
	defer unsubscribe()

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sse.WriteEvent("state", sess.coord.State()); err != nil {
		return
	}

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if err := sse.WriteHeartbeat(); err != nil {
				return
			}
		case ev, open := <-events:
			if !open {
				return
			}
			if err := sse.WriteEvent("progress", ev); err != nil {
				return
			}
		}
	}
}
