package dom

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html>
<head>
<style>
:root { --accent: oklch(0.7 0.1 200); --ink: #111827; }
body { color: var(--ink); }
.card { background-color: #ffffff; border-color: red blue; width: 210mm; height: 400px; }
#hero.card { background-color: var(--accent); }
.muted { color: gray !important; }
p::first-line { color: pink; }
@media print { .card { color: orange; } }
</style>
</head>
<body>
<div id="hero" class="card">
  <p class="muted" style="color: red">Title</p>
  <span style="color: inherit">Inherited</span>
  <em style="color: var(--missing)">Unresolved</em>
  <b style="color: var(--missing, #00ff00)">Fallback</b>
  <svg><path fill="red"></path><circle></circle></svg>
  <img src="a.png">
</div>
</body>
</html>`

func parsePage(t *testing.T) *Document {
	t.Helper()
	d, err := ParseString(page)
	require.NoError(t, err)
	return d
}

func TestComputedStyle_Cascade(t *testing.T) {
	d := parsePage(t)
	hero := d.First("#hero")
	require.NotNil(t, hero)

	assert.Equal(t, "oklch(0.7 0.1 200)", hero.ComputedStyle(PropBackgroundColor), "id selector wins and var() resolves")
	assert.Equal(t, "#111827", hero.ComputedStyle(PropColor), "color inherits from body")
	assert.Equal(t, "red", hero.ComputedStyle(PropBorderTopColor))
	assert.Equal(t, "blue", hero.ComputedStyle(PropBorderLeftColor))

	assert.Equal(t, "gray", d.First("p.muted").ComputedStyle(PropColor), "important rule beats inline")
	assert.Equal(t, "#111827", d.First("span").ComputedStyle(PropColor))
	assert.Equal(t, "var(--missing)", d.First("em").ComputedStyle(PropColor))
	assert.Equal(t, "#00ff00", d.First("b").ComputedStyle(PropColor))
}

func TestComputedStyle_Initial(t *testing.T) {
	d := parsePage(t)
	span := d.First("span")

	assert.Equal(t, "rgba(0, 0, 0, 0)", span.ComputedStyle(PropBackgroundColor))
	assert.Equal(t, "#111827", span.ComputedStyle(PropBorderBottomColor), "border defaults to currentcolor")
}

func TestComputedStyle_SVG(t *testing.T) {
	d := parsePage(t)

	path := d.First("path")
	require.NotNil(t, path)
	assert.True(t, path.IsSVG())
	assert.Equal(t, "red", path.ComputedStyle(PropFill))
	assert.Equal(t, "none", d.First("circle").ComputedStyle(PropStroke))
	assert.False(t, d.First("span").IsSVG())
}

func TestSetStyle(t *testing.T) {
	d := parsePage(t)
	p := d.First("p.muted")

	p.SetStyle(PropColor, "#ff0000", true)
	p.SetStyle(PropBackgroundColor, "#ffffff", false)

	assert.Equal(t, "#ff0000", p.ComputedStyle(PropColor))
	assert.Equal(t, "#ffffff", p.InlineStyle(PropBackgroundColor))
	style, _ := p.Attr("style")
	assert.Equal(t, "color: #ff0000 !important; background-color: #ffffff;", style)
}

func TestComputedStyle_InlineWithoutSemicolon(t *testing.T) {
	d, err := ParseString(`<html><body>
<p style="color: blue">a</p>
<div style="width: 40%">b</div>
<span style="background-color: #eee; color: oklch(0.5 0.2 30)">c</span>
</body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "blue", d.First("p").ComputedStyle(PropColor))
	assert.Equal(t, "40%", d.First("div").InlineStyle("width"))
	assert.Equal(t, "oklch(0.5 0.2 30)", d.First("span").ComputedStyle(PropColor))

	div := d.First("div")
	div.SetStyle(PropColor, "red", false)
	style, _ := div.Attr("style")
	assert.Equal(t, "width: 40%; color: red;", style)
}

func TestComputedStyle_BorderShorthands(t *testing.T) {
	d, err := ParseString(`<html><head><style>
:root { --accent: #ff0000; }
.h { color: #333333; border-bottom: 2px solid var(--accent); }
.t { border: 1px solid blue; }
.o { border: thin dashed oklch(0.5 0.1 1); border-left-color: green; }
.n { color: #444444; border: none; }
</style></head><body>
<div class="h">h</div><span class="t">t</span><em class="o">o</em><b class="n">n</b>
<i style="border-top: medium double rgb(1, 2, 3)">i</i>
</body></html>`)
	require.NoError(t, err)

	h := d.First(".h")
	assert.Equal(t, "#ff0000", h.ComputedStyle(PropBorderBottomColor))
	assert.Equal(t, "#333333", h.ComputedStyle(PropBorderTopColor), "other sides keep currentcolor")

	for _, p := range BorderColorProps {
		assert.Equal(t, "blue", d.First(".t").ComputedStyle(p), p)
	}

	o := d.First(".o")
	assert.Equal(t, "oklch(0.5 0.1 1)", o.ComputedStyle(PropBorderTopColor))
	assert.Equal(t, "green", o.ComputedStyle(PropBorderLeftColor), "later longhand wins")

	assert.Equal(t, "#444444", d.First(".n").ComputedStyle(PropBorderRightColor))
	assert.Equal(t, "rgb(1, 2, 3)", d.First("i").ComputedStyle(PropBorderTopColor))
}

func TestClone_IsDeepAndDetached(t *testing.T) {
	d := parsePage(t)
	hero := d.First("#hero")

	c := hero.Clone()
	assert.False(t, c.Attached())
	assert.Len(t, c.Find("img"), 1)

	c.Find("p")[0].SetStyle(PropColor, "blue", false)
	assert.Equal(t, "red", d.First("p").InlineStyle(PropColor), "source is untouched")
}

func TestMountAndRelease(t *testing.T) {
	d := parsePage(t)
	clone := d.First("#hero").Clone()

	c, err := d.Mount(clone, Box{Width: 794, Height: 1123}, "#ffffff")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Mounted())
	assert.True(t, c.Content().Attached())
	assert.Equal(t, "oklch(0.7 0.1 200)", c.Content().ComputedStyle(PropBackgroundColor), "document rules apply to the mounted copy")
	assert.Equal(t, "#ffffff", c.Node().ComputedStyle(PropBackgroundColor))

	require.NoError(t, c.Release())
	assert.Equal(t, 0, d.Mounted())

	err = c.Release()
	var te *TeardownError
	assert.True(t, errors.As(err, &te))
}

func TestBox(t *testing.T) {
	d := parsePage(t)
	b := d.First("#hero").Box()

	assert.InDelta(t, 793.7, b.Width, 0.1)
	assert.Equal(t, 400.0, b.Height)
	assert.True(t, d.First("span").Box().Empty())
}

func TestParseLength(t *testing.T) {
	v, ok := ParseLength("72pt")
	assert.True(t, ok)
	assert.InDelta(t, 96.0, v, 1e-9)

	_, ok = ParseLength("auto")
	assert.False(t, ok)
}

func TestNextFrame(t *testing.T) {
	d := parsePage(t)
	require.NoError(t, d.NextFrame(context.Background()))
	assert.Equal(t, 1, d.Frames())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.NextFrame(ctx), context.Canceled)
}

func TestStyleHTML(t *testing.T) {
	d := parsePage(t)
	assert.Contains(t, d.StyleHTML(), "--accent")
}
