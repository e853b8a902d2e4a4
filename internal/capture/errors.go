// Package capture turns a node of a visual tree into a raster bitmap.
package capture

import "fmt"

// Capture stages reported in CaptureError.
const (
	StageOptions   = "options"
	StageMount     = "mount"
	StageImages    = "images"
	StageRasterize = "rasterize"
	StageDecode    = "decode"
)

// CaptureError represents a failed capture attempt.
type CaptureError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *CaptureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("capture failed at %s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("capture failed at %s: %s", e.Stage, e.Message)
}

func (e *CaptureError) Unwrap() error {
	return e.Cause
}
