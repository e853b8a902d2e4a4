package export

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-studio/internal/capture"
	"github.com/jonathan/resume-studio/internal/dom"
	"github.com/jonathan/resume-studio/internal/draft"
	"github.com/jonathan/resume-studio/internal/paging"
	"github.com/jonathan/resume-studio/internal/rendering"
	"github.com/jonathan/resume-studio/internal/types"
)

// SuccessTTL is how long the success flag stays set after a flow completes.
const SuccessTTL = 3000 * time.Millisecond

// Persistence is the draft store collaborator.
type Persistence interface {
	CreateDraft(ctx context.Context, title string) (*types.DraftRecord, error)
	ListDrafts(ctx context.Context) ([]types.DraftRecord, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*types.DraftRecord, error)
	UpdateDraft(ctx context.Context, id uuid.UUID, payload types.DraftPayload) (*types.DraftRecord, error)
	DeleteDraft(ctx context.Context, id uuid.UUID) error
	UploadThumbnail(ctx context.Context, id uuid.UUID, png []byte) (string, error)
}

// Snapshotter captures a node of a rendered preview as a bitmap.
type Snapshotter interface {
	Capture(ctx context.Context, doc *dom.Document, node *dom.Node, opts capture.Options) (capture.Bitmap, error)
}

// ProgressEvent reports a step of a running flow
type ProgressEvent struct {
	Flow    string `json:"flow"`
	Step    string `json:"step"`
	Message string `json:"message"`
}

// ProgressCallback is called as a flow advances
type ProgressCallback func(event ProgressEvent)

// Flow names.
const (
	FlowSave   = "save"
	FlowExport = "export"
)

// Config holds coordinator settings
type Config struct {
	TemplatePath string
	Layout       paging.Layout
	Background   string
	CrossOrigin  string
	ImageTimeout time.Duration
	SuccessTTL   time.Duration
	OnProgress   ProgressCallback
}

// DefaultConfig returns the settings used by the editor.
func DefaultConfig() Config {
	return Config{
		Layout:       paging.DefaultLayout,
		Background:   "#ffffff",
		CrossOrigin:  capture.CrossOriginAnonymous,
		ImageTimeout: capture.DefaultImageTimeout,
		SuccessTTL:   SuccessTTL,
	}
}

// State is a snapshot of the coordinator's flags.
type State struct {
	Saving      bool   `json:"saving"`
	Downloading bool   `json:"downloading"`
	Success     bool   `json:"success"`
	LastError   string `json:"lastError,omitempty"`
}

// Coordinator runs the thumbnail and PDF flows for one editor session. Each
// flow runs at most once at a time; state may be read concurrently.
type Coordinator struct {
	store Persistence
	snap  Snapshotter
	cfg   Config
	log   zerolog.Logger

	mu           sync.Mutex
	state        State
	successTimer *time.Timer
	successGen   uint64
}

// New creates a Coordinator.
func New(store Persistence, snap Snapshotter, cfg Config, log zerolog.Logger) *Coordinator {
	if cfg.SuccessTTL <= 0 {
		cfg.SuccessTTL = SuccessTTL
	}
	if cfg.Layout.PageWidth <= 0 || cfg.Layout.PageHeight <= 0 {
		cfg.Layout = paging.DefaultLayout
	}
	return &Coordinator{
		store: store,
		snap:  snap,
		cfg:   cfg,
		log:   log.With().Str("component", "export").Logger(),
	}
}

// State returns the current flags.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close stops the pending success timer.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.successTimer != nil {
		c.successTimer.Stop()
		c.successTimer = nil
	}
}

// begin sets the busy flag for flow, or returns ErrBusy if it is set.
func (c *Coordinator) begin(flow string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	busy := &c.state.Saving
	if flow == FlowExport {
		busy = &c.state.Downloading
	}
	if *busy {
		return ErrBusy
	}
	*busy = true
	c.state.LastError = ""
	return nil
}

// finish clears the busy flag for flow and records the outcome.
func (c *Coordinator) finish(flow string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if flow == FlowExport {
		c.state.Downloading = false
	} else {
		c.state.Saving = false
	}

	if err != nil {
		fallback := MsgSaveFailed
		if flow == FlowExport {
			fallback = MsgExportFailed
		}
		c.state.LastError = userMessage(err, fallback)
		return
	}

	c.state.Success = true
	c.successGen++
	gen := c.successGen
	if c.successTimer != nil {
		c.successTimer.Stop()
	}
	c.successTimer = time.AfterFunc(c.cfg.SuccessTTL, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.successGen == gen {
			c.state.Success = false
		}
	})
}

func (c *Coordinator) emit(flow, step, message string) {
	c.log.Debug().Str("flow", flow).Str("step", step).Msg(message)
	if c.cfg.OnProgress != nil {
		c.cfg.OnProgress(ProgressEvent{Flow: flow, Step: step, Message: message})
	}
}

func (c *Coordinator) options(scale float64) capture.Options {
	opts := capture.DefaultOptions(scale)
	if c.cfg.Background != "" {
		opts.Background = c.cfg.Background
	}
	if c.cfg.CrossOrigin != "" {
		opts.CrossOrigin = c.cfg.CrossOrigin
	}
	if c.cfg.ImageTimeout > 0 {
		opts.ImageTimeout = c.cfg.ImageTimeout
	}
	return opts
}

// snapshot renders d and captures the element with the given id.
func (c *Coordinator) snapshot(ctx context.Context, d types.Draft, id string, scale float64) (capture.Bitmap, error) {
	doc, err := rendering.RenderDocument(d, c.cfg.TemplatePath)
	if err != nil {
		return capture.Bitmap{}, err
	}
	node := doc.First("#" + id)
	if node == nil {
		return capture.Bitmap{}, &capture.CaptureError{
			Stage:   capture.StageMount,
			Message: "preview element #" + id + " not found",
		}
	}
	return c.snap.Capture(ctx, doc, node, c.options(scale))
}

// SaveThumbnail captures a thumbnail of d, uploads it and then updates the
// stored draft with the returned reference and the current completion. The
// returned payload is what was stored.
func (c *Coordinator) SaveThumbnail(ctx context.Context, id uuid.UUID, d types.Draft) (payload types.DraftPayload, err error) {
	if err := c.begin(FlowSave); err != nil {
		return types.DraftPayload{}, err
	}
	defer func() { c.finish(FlowSave, err) }()

	c.emit(FlowSave, "capture", "Capturing thumbnail")
	bmp, err := c.snapshot(ctx, d, rendering.ThumbnailPreviewID, capture.ThumbnailScale)
	if err != nil {
		c.log.Error().Err(err).Str("draft_id", id.String()).Msg("thumbnail capture failed")
		return types.DraftPayload{}, err
	}

	c.emit(FlowSave, "upload", "Uploading thumbnail")
	ref, err := c.store.UploadThumbnail(ctx, id, bmp.PNG)
	if err != nil {
		return types.DraftPayload{}, &PersistenceError{Op: "upload", Message: "failed to upload thumbnail", Cause: err}
	}

	d.ThumbnailLink = ref
	payload = types.DraftPayload{Draft: d, Completion: draft.Completion(d)}

	c.emit(FlowSave, "update", "Saving draft")
	if _, err := c.store.UpdateDraft(ctx, id, payload); err != nil {
		return types.DraftPayload{}, &PersistenceError{Op: "update", Message: "failed to update draft", Cause: err}
	}

	c.log.Info().
		Str("draft_id", id.String()).
		Int("completion", payload.Completion).
		Int("thumbnail_bytes", len(bmp.PNG)).
		Msg("draft saved")
	c.emit(FlowSave, "done", "Resume saved successfully")
	return payload, nil
}

// Export captures the full preview of d and assembles it into a PDF. The
// caller saves or streams the document.
func (c *Coordinator) Export(ctx context.Context, d types.Draft) (doc *paging.Document, err error) {
	if err := c.begin(FlowExport); err != nil {
		return nil, err
	}
	defer func() { c.finish(FlowExport, err) }()

	c.emit(FlowExport, "capture", "Capturing resume")
	bmp, err := c.snapshot(ctx, d, rendering.ResumePreviewID, capture.DocumentScale)
	if err != nil {
		c.log.Error().Err(err).Msg("resume capture failed")
		return nil, err
	}

	c.emit(FlowExport, "assemble", "Generating PDF")
	doc, err = paging.Assemble(bmp, draft.DisplayTitle(d), c.cfg.Layout)
	if err != nil {
		return nil, err
	}

	c.log.Info().Str("file", doc.Name).Int("pages", doc.Pages).Msg("pdf generated")
	c.emit(FlowExport, "done", "PDF downloaded successfully!")
	return doc, nil
}
