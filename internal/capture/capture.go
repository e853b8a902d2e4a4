package capture

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonathan/resume-studio/internal/colornorm"
	"github.com/jonathan/resume-studio/internal/dom"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxImageLoads bounds concurrent image fetches.
const maxImageLoads = 4

// ImageLoader fetches a remote image and returns it as a data URI.
type ImageLoader interface {
	Inline(ctx context.Context, src string) (string, error)
}

// Capturer snapshots nodes: it mounts a sanitized copy off-viewport, waits
// for its images and hands it to a Rasterizer.
type Capturer struct {
	rasterizer Rasterizer
	normalizer *colornorm.Normalizer
	images     ImageLoader
	log        zerolog.Logger
}

// New creates a Capturer. A nil images loader leaves remote images to the
// rasterizer.
func New(r Rasterizer, n *colornorm.Normalizer, images ImageLoader, log zerolog.Logger) *Capturer {
	return &Capturer{rasterizer: r, normalizer: n, images: images, log: log}
}

// Capture produces a bitmap of node, which must belong to doc. The original
// node is never modified. The off-viewport container is released on every
// path; a release failure is logged and does not fail the capture.
func (c *Capturer) Capture(ctx context.Context, doc *dom.Document, node *dom.Node, opts Options) (Bitmap, error) {
	if err := opts.Validate(); err != nil {
		return Bitmap{}, &CaptureError{Stage: StageOptions, Message: "invalid capture options", Cause: err}
	}

	box := opts.box(node)
	clone := node.Clone()
	container, err := doc.Mount(clone, box, opts.Background)
	if err != nil {
		return Bitmap{}, &CaptureError{Stage: StageMount, Message: "failed to mount capture container", Cause: err}
	}
	defer func() {
		if err := container.Release(); err != nil {
			c.log.Warn().Err(err).Int("mounted", doc.Mounted()).Msg("capture container teardown failed")
		}
	}()

	start := time.Now()
	report := c.normalizer.Normalize(ctx, clone)

	if err := doc.NextFrame(ctx); err != nil {
		return Bitmap{}, &CaptureError{Stage: StageMount, Message: "interrupted while waiting for a frame", Cause: err}
	}

	if err := c.waitImages(ctx, clone, opts); err != nil {
		return Bitmap{}, &CaptureError{Stage: StageImages, Message: "interrupted while loading images", Cause: err}
	}

	bmp, err := c.rasterizer.Rasterize(ctx, Request{
		Doc:        doc,
		Root:       clone,
		Box:        box,
		Scale:      opts.Scale,
		Background: opts.Background,
		OnClone: func(ctx context.Context, inner *dom.Node) {
			report.Add(c.normalizer.Normalize(ctx, inner))
		},
	})
	if err != nil {
		var ce *CaptureError
		if errors.As(err, &ce) {
			return Bitmap{}, err
		}
		return Bitmap{}, &CaptureError{Stage: StageRasterize, Message: "rasterizer failed", Cause: err}
	}

	c.log.Debug().
		Float64("scale", opts.Scale).
		Int("width", bmp.Width).
		Int("height", bmp.Height).
		Int("colors_converted", report.Converted).
		Int("colors_defaulted", report.Defaulted).
		Int("frames", doc.Frames()).
		Dur("elapsed", time.Since(start)).
		Msg("snapshot captured")
	return bmp, nil
}

type inlined struct {
	img *dom.Node
	uri string
}

// waitImages resolves once every image in root has loaded or failed. Data
// URIs are immediate; remote images are fetched concurrently and inlined.
// Individual failures are logged and treated as loaded. Only cancellation of
// ctx is reported.
func (c *Capturer) waitImages(ctx context.Context, root *dom.Node, opts Options) error {
	imgs := root.Find("img")
	results := make([]inlined, len(imgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxImageLoads)
	for i, img := range imgs {
		img.SetAttr("crossorigin", opts.CrossOrigin)
		src, _ := img.Attr("src")
		if src == "" || strings.HasPrefix(src, "data:") || c.images == nil {
			continue
		}
		g.Go(func() error {
			ictx, cancel := context.WithTimeout(gctx, opts.ImageTimeout)
			defer cancel()
			uri, err := c.images.Inline(ictx, src)
			if err != nil {
				c.log.Debug().Err(err).Str("src", src).Msg("image failed to load, continuing")
				return nil
			}
			results[i] = inlined{img: img, uri: uri}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, r := range results {
		if r.img != nil {
			r.img.SetAttr("src", r.uri)
		}
	}
	return nil
}
