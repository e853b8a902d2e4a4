package capture

import (
	"bytes"
	"encoding/base64"
	"image/png"
)

// Bitmap is a PNG-encoded raster with its pixel dimensions.
type Bitmap struct {
	PNG    []byte
	Width  int
	Height int
}

// DecodeBitmap reads the dimensions of a PNG.
func DecodeBitmap(data []byte) (Bitmap, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Bitmap{}, &CaptureError{Stage: StageDecode, Message: "rasterizer returned an invalid PNG", Cause: err}
	}
	return Bitmap{PNG: data, Width: cfg.Width, Height: cfg.Height}, nil
}

// DataURL encodes the bitmap as a data: URL.
func (b Bitmap) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b.PNG)
}
