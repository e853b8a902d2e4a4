package capture

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-studio/internal/dom"
)

// Cross-origin modes for image loading.
const (
	CrossOriginAnonymous      = "anonymous"
	CrossOriginUseCredentials = "use-credentials"
)

// Capture scales used by the export flows.
const (
	ThumbnailScale = 0.5
	DocumentScale  = 2
)

// DefaultImageTimeout bounds each image load.
const DefaultImageTimeout = 10 * time.Second

// A4Box is an A4 page at 96 DPI, used when a node has no declared size.
var A4Box = dom.Box{Width: 794, Height: 1123}

// Options configures a single capture.
type Options struct {
	Scale        float64       `validate:"gt=0"`
	Background   string        `validate:"required"`
	CrossOrigin  string        `validate:"oneof=anonymous use-credentials"`
	ImageTimeout time.Duration `validate:"gt=0"`
	// FallbackBox is used when the node declares no width or height.
	FallbackBox dom.Box
}

// DefaultOptions returns options for the given scale with an opaque white
// background and anonymous image loading.
func DefaultOptions(scale float64) Options {
	return Options{
		Scale:        scale,
		Background:   "#ffffff",
		CrossOrigin:  CrossOriginAnonymous,
		ImageTimeout: DefaultImageTimeout,
		FallbackBox:  A4Box,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	return validator.New().Struct(o)
}

func (o Options) box(n *dom.Node) dom.Box {
	b := n.Box()
	if b.Width <= 0 {
		b.Width = o.FallbackBox.Width
	}
	if b.Height <= 0 {
		b.Height = o.FallbackBox.Height
	}
	if b.Empty() {
		return A4Box
	}
	return b
}
