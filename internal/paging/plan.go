package paging

import (
	"fmt"
	"math"
)

// epsilon absorbs float error so a bitmap exactly N pages tall does not
// spill a blank page.
const epsilon = 1e-6

// Layout is the page geometry in millimetres. PageHeight is the placement
// stride, which is slightly shorter than the A4 media height.
type Layout struct {
	PageWidth  float64
	PageHeight float64
	Media      string
}

// DefaultLayout is portrait A4 with a 210x295 placement stride.
var DefaultLayout = Layout{PageWidth: 210, PageHeight: 295, Media: "A4"}

// Placement puts the full bitmap on one page at vertical offset Y. Y is zero
// or negative; the part above the page edge is clipped.
type Placement struct {
	Page   int     `json:"page"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
}

// ScaledHeight returns the bitmap height once its width is fitted to the page.
func (l Layout) ScaledHeight(w, h int) float64 {
	return float64(h) * l.PageWidth / float64(w)
}

// Plan computes one placement per page for a w by h pixel bitmap.
func Plan(w, h int, layout Layout) ([]Placement, error) {
	if w <= 0 || h <= 0 {
		return nil, &Error{Message: fmt.Sprintf("invalid bitmap size %dx%d", w, h)}
	}
	if layout.PageWidth <= 0 || layout.PageHeight <= 0 {
		return nil, &Error{Message: "invalid page layout"}
	}

	imgHeight := layout.ScaledHeight(w, h)
	placements := []Placement{{Page: 1, Y: 0, Height: imgHeight}}

	remaining := imgHeight - layout.PageHeight
	// An image of exactly N page heights yields N pages, not a trailing blank one.
	for remaining > epsilon {
		placements = append(placements, Placement{
			Page:   len(placements) + 1,
			Y:      remaining - imgHeight,
			Height: imgHeight,
		})
		remaining -= layout.PageHeight
	}
	return placements, nil
}

// PageCount is the number of pages Plan would produce.
func PageCount(w, h int, layout Layout) int {
	if w <= 0 || h <= 0 || layout.PageWidth <= 0 || layout.PageHeight <= 0 {
		return 0
	}
	extra := layout.ScaledHeight(w, h) - layout.PageHeight
	if extra <= epsilon {
		return 1
	}
	return 1 + int(math.Ceil(extra/layout.PageHeight-epsilon))
}
