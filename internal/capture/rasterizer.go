package capture

import (
	"context"

	"github.com/jonathan/resume-studio/internal/dom"
)

// CloneHook is invoked on the rasterizer's own copy of the root before it is
// rendered.
type CloneHook func(ctx context.Context, clone *dom.Node)

// Request describes one rasterization.
type Request struct {
	Doc        *dom.Document
	Root       *dom.Node
	Box        dom.Box
	Scale      float64
	Background string
	OnClone    CloneHook
}

// Rasterizer converts a node into a bitmap.
type Rasterizer interface {
	Rasterize(ctx context.Context, req Request) (Bitmap, error)
}
