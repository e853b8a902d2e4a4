package colornorm

import (
	"context"
	"strings"

	"github.com/jonathan/resume-studio/internal/dom"
	"github.com/rs/zerolog"
)

// Role defaults used when a value cannot be converted.
const (
	DefaultText       = "#000000"
	DefaultBackground = "#ffffff"
	DefaultBorder     = "#000000"
	DefaultSVGPaint   = "#000000"
)

const propBackground = "background"

// colorProps are inspected on every element, in order.
var colorProps = append([]string{dom.PropColor, dom.PropBackgroundColor}, dom.BorderColorProps...)

// Report counts what a normalization pass did.
type Report struct {
	Converted int `json:"converted"`
	Defaulted int `json:"defaulted"`
	Failed    int `json:"failed"`
}

// Add accumulates another report.
func (r *Report) Add(o Report) {
	r.Converted += o.Converted
	r.Defaulted += o.Defaulted
	r.Failed += o.Failed
}

// Normalizer rewrites computed colors in a subtree into safe forms. The
// probe tier is consulted first, then the parser tier; whatever is still in
// an unsupported syntax afterwards is replaced with a role default.
type Normalizer struct {
	probe  ColorResolver
	parser ColorResolver
	log    zerolog.Logger
}

// New creates a Normalizer. A nil probe skips the first tier.
func New(probe, parser ColorResolver, log zerolog.Logger) *Normalizer {
	if parser == nil {
		parser = ParserResolver{}
	}
	return &Normalizer{probe: probe, parser: parser, log: log}
}

// Normalize walks root in pre-order and rewrites its color declarations.
// It never fails; unconvertible values are counted and left to the final
// sweep. The subtree must be acyclic.
func (n *Normalizer) Normalize(ctx context.Context, root *dom.Node) Report {
	var rep Report
	cache := map[string]string{}

	root.Walk(func(el *dom.Node) {
		if ctx.Err() != nil {
			return
		}
		for _, prop := range colorProps {
			n.convert(ctx, el, prop, cache, &rep)
		}
		if bg := el.ComputedStyle(propBackground); isFlatColor(bg) {
			n.convert(ctx, el, propBackground, cache, &rep)
		}
	})

	root.Walk(func(el *dom.Node) {
		rep.Defaulted += sweep(el)
	})

	n.log.Debug().
		Int("converted", rep.Converted).
		Int("defaulted", rep.Defaulted).
		Int("failed", rep.Failed).
		Msg("color normalization finished")
	return rep
}

func (n *Normalizer) convert(ctx context.Context, el *dom.Node, prop string, cache map[string]string, rep *Report) {
	v := el.ComputedStyle(prop)
	if skippable(v) || IsSafe(v) {
		return
	}
	if strings.Contains(v, "var(") {
		n.log.Debug().Str("property", prop).Str("value", v).Msg("skipping unresolved custom property")
		return
	}

	if out, ok := cache[v]; ok {
		el.SetStyle(prop, out, true)
		rep.Converted++
		return
	}

	if n.probe != nil {
		out, err := n.probe.Resolve(ctx, v)
		switch {
		case err != nil:
			n.log.Debug().Err(err).Str("property", prop).Msg("probe conversion failed")
		case out != v && IsSafe(out):
			cache[v] = out
			el.SetStyle(prop, out, true)
			rep.Converted++
			return
		}
	}

	out, err := n.parser.Resolve(ctx, v)
	if err == nil && out != "" && out != v {
		cache[v] = out
		el.SetStyle(prop, out, true)
		rep.Converted++
		return
	}
	if err != nil {
		n.log.Debug().Err(err).Str("property", prop).Msg("parser conversion failed")
	}
	rep.Failed++
}

// sweep replaces anything still in an unsupported syntax with the default
// for its role.
func sweep(el *dom.Node) int {
	count := 0
	for _, prop := range colorProps {
		if IsUnsupported(el.ComputedStyle(prop)) {
			el.SetStyle(prop, roleDefault(prop), true)
			count++
		}
	}
	if IsUnsupported(el.ComputedStyle(propBackground)) {
		el.SetStyle(propBackground, DefaultBackground, true)
		count++
	}

	if el.IsSVG() {
		for _, attr := range []string{dom.PropFill, dom.PropStroke} {
			if v, ok := el.Attr(attr); ok && IsUnsupported(v) {
				el.SetAttr(attr, DefaultSVGPaint)
				count++
			}
			if IsUnsupported(el.ComputedStyle(attr)) {
				el.SetStyle(attr, DefaultSVGPaint, true)
				count++
			}
		}
	}
	return count
}

func roleDefault(prop string) string {
	switch prop {
	case dom.PropColor:
		return DefaultText
	case dom.PropBackgroundColor:
		return DefaultBackground
	default:
		return DefaultBorder
	}
}

func isFlatColor(v string) bool {
	l := strings.ToLower(v)
	return !skippable(l) && !strings.Contains(l, "url(") && !strings.Contains(l, "gradient")
}
