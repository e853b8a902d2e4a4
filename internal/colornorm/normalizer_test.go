package colornorm

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/resume-studio/internal/dom"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `<html><head><style>
:root { --brand: oklch(0.6 0.2 250); }
.hdr { color: var(--brand); background-color: red; }
</style></head><body>
<div id="root">
  <h1 class="hdr">Jane Doe</h1>
  <p style="color: rgb(1, 2, 3)">safe</p>
  <svg fill="oklch(0.1 0.1 1)"><path stroke="lab(50% 20 30)"></path></svg>
</div>
</body></html>`

func root(t *testing.T, html string) *dom.Node {
	t.Helper()
	d, err := dom.ParseString(html)
	require.NoError(t, err)
	n := d.First("#root")
	require.NotNil(t, n)
	return n
}

type countingResolver struct {
	out   string
	err   error
	calls []string
}

func (c *countingResolver) Resolve(_ context.Context, v string) (string, error) {
	c.calls = append(c.calls, v)
	if c.err != nil {
		return "", c.err
	}
	if c.out == "" {
		return v, nil
	}
	return c.out, nil
}

func TestNormalize_ProbeTierWins(t *testing.T) {
	n := root(t, doc)
	probe := &countingResolver{out: "rgb(10, 20, 30)"}
	parser := &countingResolver{err: errors.New("unused")}

	rep := New(probe, parser, zerolog.Nop()).Normalize(context.Background(), n)

	assert.Equal(t, Report{Converted: 2, Defaulted: 2}, rep)
	assert.Equal(t, []string{"oklch(0.6 0.2 250)", "red"}, probe.calls)
	assert.Empty(t, parser.calls)

	h1 := n.Find("h1")[0]
	assert.Equal(t, "rgb(10, 20, 30)", h1.ComputedStyle(dom.PropColor))
	assert.Equal(t, "rgb(10, 20, 30)", h1.ComputedStyle(dom.PropBorderLeftColor))
	assert.Equal(t, "rgb(1, 2, 3)", n.Find("p")[0].ComputedStyle(dom.PropColor))
}

func TestNormalize_ParserTierWhenProbeUnhelpful(t *testing.T) {
	n := root(t, `<html><body><div id="root">
<h1 style="color: hsl(0, 100%, 50%)">A</h1>
<h2 style="color: rebeccapurple">B</h2>
</div></body></html>`)
	probe := &countingResolver{} // echoes the input, which is never adopted

	rep := New(probe, ParserResolver{}, zerolog.Nop()).Normalize(context.Background(), n)

	assert.Equal(t, 2, rep.Converted)
	assert.Equal(t, "#ff0000", n.Find("h1")[0].ComputedStyle(dom.PropColor))
	assert.Equal(t, "#663399", n.Find("h2")[0].ComputedStyle(dom.PropColor))
}

func TestNormalize_DefaultsWhenEveryTierFails(t *testing.T) {
	n := root(t, doc)
	fail := &countingResolver{err: errors.New("boom")}

	rep := New(fail, fail, zerolog.Nop()).Normalize(context.Background(), n)

	// h1: color, background-color and four borders inheriting currentcolor
	assert.Equal(t, 6, rep.Failed)
	assert.Equal(t, 3, rep.Defaulted)
	assert.Zero(t, rep.Converted)

	h1 := n.Find("h1")[0]
	assert.Equal(t, DefaultText, h1.ComputedStyle(dom.PropColor))
	assert.Equal(t, DefaultText, h1.ComputedStyle(dom.PropBorderTopColor))
	assert.Equal(t, "red", h1.ComputedStyle(dom.PropBackgroundColor), "only perceptual syntaxes are defaulted")

	fill, _ := n.Find("svg")[0].Attr("fill")
	assert.Equal(t, DefaultSVGPaint, fill)
	stroke, _ := n.Find("path")[0].Attr("stroke")
	assert.Equal(t, DefaultSVGPaint, stroke)
}

func TestNormalize_BackgroundDefault(t *testing.T) {
	n := root(t, `<html><body><div id="root"><section style="background-color: oklab(0.5 0.1 0.1)">x</section></div></body></html>`)
	fail := &countingResolver{err: errors.New("boom")}

	New(fail, fail, zerolog.Nop()).Normalize(context.Background(), n)

	assert.Equal(t, DefaultBackground, n.Find("section")[0].ComputedStyle(dom.PropBackgroundColor))
}

func TestNormalize_SkipsUnresolvedCustomProperty(t *testing.T) {
	n := root(t, `<html><body><div id="root"><em style="color: var(--nope)">x</em></div></body></html>`)
	r := &countingResolver{err: errors.New("should not be called")}

	rep := New(r, r, zerolog.Nop()).Normalize(context.Background(), n)

	assert.Equal(t, Report{}, rep)
	assert.Empty(t, r.calls)
	assert.Equal(t, "var(--nope)", n.Find("em")[0].ComputedStyle(dom.PropColor))
}

func TestNormalize_CachesConversions(t *testing.T) {
	n := root(t, `<html><body><div id="root">
<p style="color: oklch(0.5 0.1 1)">a</p><p style="color: oklch(0.5 0.1 1)">b</p>
</div></body></html>`)
	probe := &countingResolver{out: "#123456"}

	rep := New(probe, nil, zerolog.Nop()).Normalize(context.Background(), n)

	assert.Equal(t, 2, rep.Converted)
	assert.Len(t, probe.calls, 1)
}

func TestReport_Add(t *testing.T) {
	r := Report{Converted: 1}
	r.Add(Report{Converted: 2, Defaulted: 1, Failed: 3})
	assert.Equal(t, Report{Converted: 3, Defaulted: 1, Failed: 3}, r)
}

func TestNormalize_InlineStyleWithoutSemicolon(t *testing.T) {
	n := root(t, `<html><body><div id="root"><p style="color: oklch(0.5 0.2 30)">x</p></div></body></html>`)

	New(nil, ParserResolver{}, zerolog.Nop()).Normalize(context.Background(), n)

	style, _ := n.Find("p")[0].Attr("style")
	assert.NotContains(t, style, "oklch")
}

func TestNormalize_BorderShorthand(t *testing.T) {
	n := root(t, `<html><head><style>
.t { color: #111111; border: 1px solid oklch(0.5 0.1 1); }
</style></head><body><div id="root"><span class="t">x</span></div></body></html>`)
	probe := &countingResolver{out: "#abcdef"}

	rep := New(probe, nil, zerolog.Nop()).Normalize(context.Background(), n)

	assert.Equal(t, 4, rep.Converted)
	assert.Len(t, probe.calls, 1)
	span := n.Find("span")[0]
	assert.Equal(t, "#111111", span.ComputedStyle(dom.PropColor))
	for _, p := range dom.BorderColorProps {
		assert.Equal(t, "#abcdef", span.ComputedStyle(p), p)
	}
}

func TestNormalize_BorderShorthandDefaultsPerSide(t *testing.T) {
	n := root(t, `<html><head><style>
:root { --accent: oklch(0.7 0.1 200); }
.h { color: #222222; border-bottom: 2px solid var(--accent); }
</style></head><body><div id="root"><header class="h">x</header></div></body></html>`)
	fail := &countingResolver{err: errors.New("boom")}

	rep := New(fail, fail, zerolog.Nop()).Normalize(context.Background(), n)

	assert.Equal(t, Report{Failed: 1, Defaulted: 1}, rep)
	h := n.Find("header")[0]
	assert.Equal(t, DefaultBorder, h.ComputedStyle(dom.PropBorderBottomColor))
	assert.Equal(t, "#222222", h.ComputedStyle(dom.PropBorderTopColor))
}
