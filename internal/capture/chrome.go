package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/mazznoer/csscolorparser"
	"github.com/rs/zerolog"
)

// DefaultBrowserTimeout bounds a single tab's work.
const DefaultBrowserTimeout = 60 * time.Second

// rootAttr marks the rasterizer's copy of the capture root.
const rootAttr = "data-capture-root"

// BrowserOptions configures the headless browser.
type BrowserOptions struct {
	// ExecPath overrides the Chrome binary; empty uses chromedp's lookup.
	ExecPath string
	Timeout  time.Duration
}

// Browser owns a headless Chrome process shared by the rasterizer and the
// color probe. Each operation runs in its own tab.
type Browser struct {
	allocCtx      context.Context
	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	timeout       time.Duration
	log           zerolog.Logger

	closeOnce sync.Once
}

// NewBrowser starts headless Chrome. Requires Chrome/Chromium to be
// installed on the system.
func NewBrowser(ctx context.Context, opts BrowserOptions, log zerolog.Logger) (*Browser, error) {
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if opts.ExecPath != "" {
		flags = append(flags, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBrowserTimeout
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), flags...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// start the process now so failures surface here rather than mid-export
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	log.Info().Str("exec_path", opts.ExecPath).Msg("headless browser started")

	return &Browser{
		allocCtx:      allocCtx,
		cancelAlloc:   cancelAlloc,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		timeout:       opts.Timeout,
		log:           log,
	}, nil
}

// tab opens a new tab that is closed when ctx is done, the timeout elapses
// or the returned cancel is called.
func (b *Browser) tab(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	stop := context.AfterFunc(ctx, cancelTimeout)
	return tabCtx, func() {
		stop()
		cancelTimeout()
		cancelTab()
	}
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		b.cancelBrowser()
		b.cancelAlloc()
		b.log.Info().Msg("headless browser stopped")
	})
	return nil
}

// ChromeRasterizer renders nodes in a headless Chrome tab and screenshots
// them.
type ChromeRasterizer struct {
	browser *Browser
}

// NewChromeRasterizer creates a rasterizer backed by b.
func NewChromeRasterizer(b *Browser) *ChromeRasterizer {
	return &ChromeRasterizer{browser: b}
}

// Rasterize re-clones req.Root into its own container, lets req.OnClone
// adjust that copy, and screenshots it at req.Scale over req.Background.
func (r *ChromeRasterizer) Rasterize(ctx context.Context, req Request) (Bitmap, error) {
	bg, err := backgroundRGBA(req.Background)
	if err != nil {
		return Bitmap{}, &CaptureError{Stage: StageRasterize, Message: "invalid background", Cause: err}
	}

	clone := req.Root.Clone()
	clone.SetAttr(rootAttr, "")
	container, err := req.Doc.Mount(clone, req.Box, req.Background)
	if err != nil {
		return Bitmap{}, &CaptureError{Stage: StageRasterize, Message: "failed to mount rasterizer copy", Cause: err}
	}
	defer func() {
		if err := container.Release(); err != nil {
			r.browser.log.Warn().Err(err).Msg("rasterizer container teardown failed")
		}
	}()

	if req.OnClone != nil {
		req.OnClone(ctx, clone)
	}

	markup, err := clone.OuterHTML()
	if err != nil {
		return Bitmap{}, &CaptureError{Stage: StageRasterize, Message: "failed to serialize node", Cause: err}
	}
	html := standalonePage(req.Doc.StyleHTML(), markup, req.Background)

	tabCtx, cancel := r.browser.tab(ctx)
	defer cancel()

	selector := "[" + rootAttr + "]"
	var buf []byte
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(math.Ceil(req.Box.Width)), int64(math.Ceil(req.Box.Height))),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetDefaultBackgroundColorOverride().WithColor(bg).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.ScreenshotScale(selector, req.Scale, &buf, chromedp.ByQuery),
	)
	if err != nil {
		return Bitmap{}, &CaptureError{Stage: StageRasterize, Message: "browser rendering failed", Cause: err}
	}
	return DecodeBitmap(buf)
}

func standalonePage(styles, body, background string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\">")
	b.WriteString(styles)
	b.WriteString("</head><body style=\"margin: 0; background-color: ")
	b.WriteString(background)
	b.WriteString(";\">")
	b.WriteString(body)
	b.WriteString("</body></html>")
	return b.String()
}

func backgroundRGBA(s string) (*cdp.RGBA, error) {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return nil, err
	}
	r, g, b, _ := c.RGBA255()
	return &cdp.RGBA{R: int64(r), G: int64(g), B: int64(b), A: c.A}, nil
}

// probeScript styles a throwaway element with the candidate value and reads
// back the computed color. An empty result means the engine rejected it.
const probeScript = `(() => {
  const el = document.createElement('div');
  el.style.color = %s;
  if (!el.style.color) return '';
  el.style.display = 'none';
  document.body.appendChild(el);
  const out = getComputedStyle(el).color;
  el.remove();
  return out;
})()`

// ChromeProbe asks Chrome how it computes a color value.
type ChromeProbe struct {
	browser *Browser
}

// NewChromeProbe creates a probe backed by b.
func NewChromeProbe(b *Browser) *ChromeProbe {
	return &ChromeProbe{browser: b}
}

// ComputedColor implements colornorm.Probe.
func (p *ChromeProbe) ComputedColor(ctx context.Context, value string) (string, error) {
	lit, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	tabCtx, cancel := p.browser.tab(ctx)
	defer cancel()

	var out string
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(fmt.Sprintf(probeScript, lit), &out)); err != nil {
		return "", fmt.Errorf("probe evaluation failed: %w", err)
	}
	if out == "" {
		return "", fmt.Errorf("engine rejected color %q", value)
	}
	return out, nil
}
