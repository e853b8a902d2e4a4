// Package colornorm rewrites color declarations in a visual tree into forms
// the rasterizer understands.
package colornorm

import (
	"context"
	"fmt"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// ColorResolver converts a color value into another representation.
type ColorResolver interface {
	Resolve(ctx context.Context, value string) (string, error)
}

// ResolverFunc adapts a function to ColorResolver.
type ResolverFunc func(ctx context.Context, value string) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, value string) (string, error) {
	return f(ctx, value)
}

// Probe computes the color a rendering engine assigns to a value, the way
// getComputedStyle reports it for an element styled with that value.
type Probe interface {
	ComputedColor(ctx context.Context, value string) (string, error)
}

// ProbeResolver is the first tier: it asks the rendering engine itself.
type ProbeResolver struct {
	Probe Probe
}

// Resolve returns the engine's computed form of value.
func (r ProbeResolver) Resolve(ctx context.Context, value string) (string, error) {
	if r.Probe == nil {
		return "", fmt.Errorf("no probe configured")
	}
	out, err := r.Probe.ComputedColor(ctx, value)
	if err != nil {
		return "", fmt.Errorf("probe %q: %w", value, err)
	}
	return strings.TrimSpace(out), nil
}

// ParserResolver is the second tier: an engine-independent CSS color parser.
type ParserResolver struct{}

// Resolve parses value and renders it as hex, or rgba() when translucent.
func (ParserResolver) Resolve(_ context.Context, value string) (string, error) {
	c, err := csscolorparser.Parse(value)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", value, err)
	}
	r, g, b, a := c.RGBA255()
	if a == 255 {
		return c.HexString(), nil
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, formatAlpha(float64(a)/255)), nil
}

func formatAlpha(a float64) string {
	s := fmt.Sprintf("%.3f", a)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

var unsupportedPrefixes = []string{"oklch(", "oklab(", "lab(", "lch(", "color(", "color-mix("}

// IsSafe reports whether value is already in a form every rasterizer accepts.
func IsSafe(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "transparent", v == "rgba(0, 0, 0, 0)":
		return true
	case strings.HasPrefix(v, "rgb("), strings.HasPrefix(v, "rgba("), strings.HasPrefix(v, "#"):
		return true
	}
	return false
}

// IsUnsupported reports whether value uses a perceptual or wide-gamut syntax.
func IsUnsupported(value string) bool {
	v := strings.ToLower(value)
	for _, p := range unsupportedPrefixes {
		if strings.Contains(v, p) {
			return true
		}
	}
	return false
}

// skippable values carry no color of their own
func skippable(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none", "inherit", "initial", "unset", "currentcolor":
		return true
	}
	return false
}
