package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-studio/internal/capture"
	"github.com/jonathan/resume-studio/internal/dom"
	"github.com/jonathan/resume-studio/internal/draft"
	"github.com/jonathan/resume-studio/internal/paging"
	"github.com/jonathan/resume-studio/internal/rendering"
	"github.com/jonathan/resume-studio/internal/types"
)

func pngBitmap(t *testing.T, w, h int) capture.Bitmap {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return capture.Bitmap{PNG: buf.Bytes(), Width: w, Height: h}
}

type captureCall struct {
	id    string
	scale float64
}

type fakeSnapshotter struct {
	mu      sync.Mutex
	calls   []captureCall
	bitmap  capture.Bitmap
	err     error
	release chan struct{}
	started chan struct{}
}

func (f *fakeSnapshotter) Capture(ctx context.Context, _ *dom.Document, node *dom.Node, opts capture.Options) (capture.Bitmap, error) {
	id, _ := node.Attr("id")
	f.mu.Lock()
	f.calls = append(f.calls, captureCall{id: id, scale: opts.Scale})
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return capture.Bitmap{}, ctx.Err()
		}
	}
	return f.bitmap, f.err
}

type fakeStore struct {
	mu        sync.Mutex
	events    []string
	payload   types.DraftPayload
	uploadErr error
	updateErr error
}

func (f *fakeStore) record(e string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeStore) CreateDraft(_ context.Context, title string) (*types.DraftRecord, error) {
	return &types.DraftRecord{ID: uuid.New(), Draft: types.Draft{Title: title}}, nil
}

func (f *fakeStore) ListDrafts(context.Context) ([]types.DraftRecord, error) { return nil, nil }

func (f *fakeStore) GetDraft(_ context.Context, id uuid.UUID) (*types.DraftRecord, error) {
	return &types.DraftRecord{ID: id}, nil
}

func (f *fakeStore) UpdateDraft(_ context.Context, id uuid.UUID, payload types.DraftPayload) (*types.DraftRecord, error) {
	f.record("update-start:" + payload.ThumbnailLink)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.mu.Lock()
	f.payload = payload
	f.mu.Unlock()
	return &types.DraftRecord{ID: id, Draft: payload.Draft, Completion: payload.Completion}, nil
}

func (f *fakeStore) DeleteDraft(context.Context, uuid.UUID) error { return nil }

func (f *fakeStore) UploadThumbnail(_ context.Context, id uuid.UUID, data []byte) (string, error) {
	f.record("upload-start")
	time.Sleep(5 * time.Millisecond)
	if f.uploadErr != nil {
		f.record("upload-failed")
		return "", f.uploadErr
	}
	f.record("upload-done")
	return "https://thumbs.example.com/" + id.String() + ".png", nil
}

func testDraft() types.Draft {
	d := draft.New()
	d.Title = "John Doe Resume"
	d.ProfileInfo = types.ProfileInfo{FullName: "John Doe", Designation: "Engineer", Summary: "Writes Go."}
	return d
}

func newCoordinator(store Persistence, snap Snapshotter, ttl time.Duration) *Coordinator {
	cfg := DefaultConfig()
	cfg.SuccessTTL = ttl
	return New(store, snap, cfg, zerolog.Nop())
}

func TestSaveThumbnail(t *testing.T) {
	store := &fakeStore{}
	snap := &fakeSnapshotter{bitmap: pngBitmap(t, 10, 14)}
	var steps []string
	cfg := DefaultConfig()
	cfg.OnProgress = func(e ProgressEvent) { steps = append(steps, e.Step) }
	c := New(store, snap, cfg, zerolog.Nop())
	defer c.Close()

	id := uuid.New()
	d := testDraft()
	payload, err := c.SaveThumbnail(context.Background(), id, d)
	require.NoError(t, err)

	ref := "https://thumbs.example.com/" + id.String() + ".png"
	assert.Equal(t, ref, payload.ThumbnailLink)
	assert.Equal(t, draft.Completion(d), payload.Completion)
	assert.Equal(t, []string{"upload-start", "upload-done", "update-start:" + ref}, store.events)
	assert.Equal(t, payload, store.payload)

	require.Len(t, snap.calls, 1)
	assert.Equal(t, captureCall{id: rendering.ThumbnailPreviewID, scale: capture.ThumbnailScale}, snap.calls[0])
	assert.Equal(t, []string{"capture", "upload", "update", "done"}, steps)

	st := c.State()
	assert.False(t, st.Saving)
	assert.True(t, st.Success)
	assert.Empty(t, st.LastError)
}

func TestSaveThumbnail_UploadFailure(t *testing.T) {
	store := &fakeStore{uploadErr: errors.New("bucket unavailable")}
	c := newCoordinator(store, &fakeSnapshotter{bitmap: pngBitmap(t, 4, 4)}, time.Second)
	defer c.Close()

	_, err := c.SaveThumbnail(context.Background(), uuid.New(), testDraft())
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "upload", pe.Op)
	assert.Equal(t, []string{"upload-start", "upload-failed"}, store.events)

	st := c.State()
	assert.False(t, st.Saving)
	assert.False(t, st.Success)
	assert.Contains(t, st.LastError, "bucket unavailable")
}

func TestSaveThumbnail_UpdateFailure(t *testing.T) {
	store := &fakeStore{updateErr: errors.New("conflict")}
	c := newCoordinator(store, &fakeSnapshotter{bitmap: pngBitmap(t, 4, 4)}, time.Second)
	defer c.Close()

	_, err := c.SaveThumbnail(context.Background(), uuid.New(), testDraft())
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "update", pe.Op)
	assert.False(t, c.State().Saving)
}

type silentError struct{}

func (silentError) Error() string { return "" }

func TestLastError_GenericFallback(t *testing.T) {
	c := newCoordinator(&fakeStore{}, &fakeSnapshotter{err: silentError{}}, time.Second)
	defer c.Close()

	_, err := c.SaveThumbnail(context.Background(), uuid.New(), testDraft())
	require.Error(t, err)
	assert.Equal(t, MsgSaveFailed, c.State().LastError)

	_, err = c.Export(context.Background(), testDraft())
	require.Error(t, err)
	assert.Equal(t, MsgExportFailed, c.State().LastError)
}

func TestExport(t *testing.T) {
	// 2.5 pages once scaled to 210mm
	snap := &fakeSnapshotter{bitmap: pngBitmap(t, 84, 295)}
	c := newCoordinator(&fakeStore{}, snap, time.Second)
	defer c.Close()

	doc, err := c.Export(context.Background(), testDraft())
	require.NoError(t, err)

	assert.Equal(t, "John_Doe_Resume.pdf", doc.Name)
	assert.Equal(t, 3, doc.Pages)
	n, err := paging.CountPages(bytes.NewReader(doc.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, snap.calls, 1)
	assert.Equal(t, captureCall{id: rendering.ResumePreviewID, scale: capture.DocumentScale}, snap.calls[0])

	st := c.State()
	assert.False(t, st.Downloading)
	assert.True(t, st.Success)
}

func TestExport_CaptureFailure(t *testing.T) {
	capErr := &capture.CaptureError{Stage: capture.StageRasterize, Message: "browser crashed"}
	c := newCoordinator(&fakeStore{}, &fakeSnapshotter{err: capErr}, time.Second)
	defer c.Close()

	_, err := c.Export(context.Background(), testDraft())
	require.ErrorIs(t, err, capErr)

	st := c.State()
	assert.False(t, st.Downloading)
	assert.Contains(t, st.LastError, "browser crashed")
}

func TestBusyGuard(t *testing.T) {
	snap := &fakeSnapshotter{
		bitmap:  pngBitmap(t, 4, 4),
		release: make(chan struct{}),
		started: make(chan struct{}, 2),
	}
	store := &fakeStore{}
	c := newCoordinator(store, snap, time.Second)
	defer c.Close()

	done := make(chan error, 1)
	go func() {
		_, err := c.SaveThumbnail(context.Background(), uuid.New(), testDraft())
		done <- err
	}()
	<-snap.started
	assert.True(t, c.State().Saving)

	_, err := c.SaveThumbnail(context.Background(), uuid.New(), testDraft())
	assert.ErrorIs(t, err, ErrBusy)
	assert.True(t, c.State().Saving)
	assert.Empty(t, c.State().LastError)

	close(snap.release)
	require.NoError(t, <-done)
	assert.False(t, c.State().Saving)
	assert.Equal(t, 1, len(snap.calls))
}

func TestBusyGuard_FlowsAreIndependent(t *testing.T) {
	snap := &fakeSnapshotter{
		bitmap:  pngBitmap(t, 4, 4),
		release: make(chan struct{}),
		started: make(chan struct{}, 2),
	}
	c := newCoordinator(&fakeStore{}, snap, time.Second)
	defer c.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = c.SaveThumbnail(context.Background(), uuid.New(), testDraft())
	}()
	go func() {
		defer wg.Done()
		_, _ = c.Export(context.Background(), testDraft())
	}()
	<-snap.started
	<-snap.started

	st := c.State()
	assert.True(t, st.Saving)
	assert.True(t, st.Downloading)

	close(snap.release)
	wg.Wait()
	st = c.State()
	assert.False(t, st.Saving)
	assert.False(t, st.Downloading)
}

func TestSuccessAutoClears(t *testing.T) {
	c := newCoordinator(&fakeStore{}, &fakeSnapshotter{bitmap: pngBitmap(t, 4, 4)}, 20*time.Millisecond)
	defer c.Close()

	_, err := c.Export(context.Background(), testDraft())
	require.NoError(t, err)
	assert.True(t, c.State().Success)

	assert.Eventually(t, func() bool { return !c.State().Success }, time.Second, 5*time.Millisecond)
}

func TestNew_Defaults(t *testing.T) {
	c := New(&fakeStore{}, &fakeSnapshotter{}, Config{}, zerolog.Nop())
	assert.Equal(t, SuccessTTL, c.cfg.SuccessTTL)
	assert.Equal(t, paging.DefaultLayout, c.cfg.Layout)

	opts := c.options(capture.ThumbnailScale)
	require.NoError(t, opts.Validate())
	assert.Equal(t, "#ffffff", opts.Background)
}
