package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/resume-studio/internal/colornorm"
	"github.com/jonathan/resume-studio/internal/dom"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const preview = `<html><head><style>
:root { --accent: oklch(0.6 0.2 250); }
#resume-preview { width: 210mm; height: 297mm; color: var(--accent); }
</style></head><body>
<div id="resume-preview">
  <h1>Jane Doe</h1>
  <img id="inline" src="data:image/png;base64,AAAA">
  <img id="remote" src="https://cdn.example.com/photo.png">
  <img id="broken" src="https://cdn.example.com/missing.png">
</div>
</body></html>`

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

type fakeRasterizer struct {
	t        *testing.T
	out      []byte
	err      error
	seen     Request
	html     string
	attached bool
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, req Request) (Bitmap, error) {
	f.seen = req
	f.attached = req.Root.Attached()
	inner := req.Root.Clone()
	c, err := req.Doc.Mount(inner, req.Box, req.Background)
	require.NoError(f.t, err)
	defer func() { _ = c.Release() }()
	if req.OnClone != nil {
		req.OnClone(ctx, inner)
	}
	f.html, _ = inner.OuterHTML()
	if f.err != nil {
		return Bitmap{}, f.err
	}
	return DecodeBitmap(f.out)
}

type fakeImages struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeImages) Inline(_ context.Context, src string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, src)
	f.mu.Unlock()
	if strings.Contains(src, "missing") {
		return "", errors.New("404")
	}
	return "data:image/png;base64,BBBB", nil
}

func failing() *colornorm.Normalizer {
	fail := colornorm.ResolverFunc(func(context.Context, string) (string, error) {
		return "", errors.New("unsupported")
	})
	return colornorm.New(fail, fail, zerolog.Nop())
}

func setup(t *testing.T) (*dom.Document, *dom.Node) {
	t.Helper()
	doc, err := dom.ParseString(preview)
	require.NoError(t, err)
	node := doc.First("#resume-preview")
	require.NotNil(t, node)
	return doc, node
}

func TestCapture_Success(t *testing.T) {
	doc, node := setup(t)
	before, err := node.OuterHTML()
	require.NoError(t, err)

	r := &fakeRasterizer{t: t, out: pngBytes(t, 40, 60)}
	images := &fakeImages{}
	c := New(r, failing(), images, zerolog.Nop())

	bmp, err := c.Capture(context.Background(), doc, node, DefaultOptions(DocumentScale))
	require.NoError(t, err)

	assert.Equal(t, 40, bmp.Width)
	assert.Equal(t, 60, bmp.Height)
	assert.True(t, strings.HasPrefix(bmp.DataURL(), "data:image/png;base64,"))

	assert.True(t, r.attached, "rasterizer sees a mounted copy")
	assert.Equal(t, 2.0, r.seen.Scale)
	assert.Equal(t, "#ffffff", r.seen.Background)
	assert.InDelta(t, 793.7, r.seen.Box.Width, 0.1)

	assert.ElementsMatch(t, []string{
		"https://cdn.example.com/photo.png",
		"https://cdn.example.com/missing.png",
	}, images.calls, "data URIs are not fetched")
	assert.Contains(t, r.html, `src="data:image/png;base64,BBBB"`)
	assert.Contains(t, r.html, `src="https://cdn.example.com/missing.png"`, "failed loads resolve and keep their source")
	assert.Contains(t, r.html, "color: #000000 !important", "perceptual colors are defaulted in the rendered copy")

	after, err := node.OuterHTML()
	require.NoError(t, err)
	assert.Equal(t, before, after, "original node is untouched")
	assert.Equal(t, 0, doc.Mounted())
	assert.Equal(t, 1, doc.Frames())
}

func TestCapture_ReleasesContainerOnRasterizerFailure(t *testing.T) {
	doc, node := setup(t)
	r := &fakeRasterizer{t: t, err: errors.New("gpu lost")}

	_, err := New(r, failing(), nil, zerolog.Nop()).Capture(context.Background(), doc, node, DefaultOptions(ThumbnailScale))

	var ce *CaptureError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StageRasterize, ce.Stage)
	assert.ErrorContains(t, err, "gpu lost")
	assert.Equal(t, 0, doc.Mounted())
}

func TestCapture_InvalidPNG(t *testing.T) {
	doc, node := setup(t)
	r := &fakeRasterizer{t: t, out: []byte("not a png")}

	_, err := New(r, failing(), nil, zerolog.Nop()).Capture(context.Background(), doc, node, DefaultOptions(1))

	var ce *CaptureError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StageDecode, ce.Stage)
	assert.Equal(t, 0, doc.Mounted())
}

func TestCapture_InvalidOptions(t *testing.T) {
	doc, node := setup(t)
	r := &fakeRasterizer{t: t}

	opts := DefaultOptions(0)
	_, err := New(r, failing(), nil, zerolog.Nop()).Capture(context.Background(), doc, node, opts)

	var ce *CaptureError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StageOptions, ce.Stage)
	assert.Nil(t, r.seen.Root, "rasterizer never called")

	opts = DefaultOptions(1)
	opts.CrossOrigin = "same-origin"
	assert.Error(t, opts.Validate())
}

func TestCapture_Cancelled(t *testing.T) {
	doc, node := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&fakeRasterizer{t: t}, failing(), nil, zerolog.Nop()).Capture(ctx, doc, node, DefaultOptions(1))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, doc.Mounted())
}

func TestCapture_FallbackBox(t *testing.T) {
	doc, err := dom.ParseString(`<html><body><div id="thumb">x</div></body></html>`)
	require.NoError(t, err)
	r := &fakeRasterizer{t: t, out: pngBytes(t, 1, 1)}

	opts := DefaultOptions(ThumbnailScale)
	opts.ImageTimeout = time.Second
	_, err = New(r, failing(), nil, zerolog.Nop()).Capture(context.Background(), doc, doc.First("#thumb"), opts)
	require.NoError(t, err)

	assert.Equal(t, A4Box, r.seen.Box)
}

func TestBackgroundRGBA(t *testing.T) {
	c, err := backgroundRGBA("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, int64(255), c.R)
	assert.Equal(t, int64(128), c.G)
	assert.Equal(t, 1.0, c.A)

	_, err = backgroundRGBA("nope")
	assert.Error(t, err)
}

func TestStandalonePage(t *testing.T) {
	html := standalonePage("<style>a{}</style>", "<div data-capture-root></div>", "#fff")
	assert.Contains(t, html, "<head><meta charset=\"utf-8\"><style>a{}</style></head>")
	assert.Contains(t, html, "background-color: #fff;")
}
