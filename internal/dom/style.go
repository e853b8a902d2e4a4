package dom

import (
	"sort"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// Style properties consulted during capture.
const (
	PropColor             = "color"
	PropBackgroundColor   = "background-color"
	PropBorderTopColor    = "border-top-color"
	PropBorderRightColor  = "border-right-color"
	PropBorderBottomColor = "border-bottom-color"
	PropBorderLeftColor   = "border-left-color"
	PropFill              = "fill"
	PropStroke            = "stroke"
)

// BorderColorProps lists the four border side color properties.
var BorderColorProps = []string{
	PropBorderTopColor, PropBorderRightColor, PropBorderBottomColor, PropBorderLeftColor,
}

// initial values as a browser reports them through getComputedStyle
var initialValues = map[string]string{
	PropColor:           "rgb(0, 0, 0)",
	PropBackgroundColor: "rgba(0, 0, 0, 0)",
	PropFill:            "rgb(0, 0, 0)",
	PropStroke:          "none",
}

var inherited = map[string]bool{
	PropColor:     true,
	PropFill:      true,
	PropStroke:    true,
	"font-family": true,
	"font-size":   true,
}

type rule struct {
	sel    cascadia.Sel
	weight cascadia.Specificity
	order  int
	decls  []*css.Declaration
}

func compileStylesheet(text string, offset int) ([]rule, error) {
	sheet, err := parser.Parse(text)
	if err != nil {
		return nil, &ParseError{Message: "failed to parse stylesheet", Cause: err}
	}

	var out []rule
	for _, r := range sheet.Rules {
		if r.Kind != css.QualifiedRule {
			continue
		}
		decls := expandShorthands(r.Declarations)
		for _, s := range r.Selectors {
			sel, err := cascadia.Parse(s)
			if err != nil {
				// pseudo-elements and unsupported selectors never match an element
				continue
			}
			out = append(out, rule{sel: sel, weight: sel.Specificity(), order: offset + len(out), decls: decls})
		}
	}
	return out, nil
}

// expandShorthands rewrites the shorthands capture cares about into their
// longhands so the cascade can be resolved per property.
func expandShorthands(decls []*css.Declaration) []*css.Declaration {
	out := make([]*css.Declaration, 0, len(decls))
	for _, d := range decls {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		switch prop {
		case "border-color":
			vals := splitValues(d.Value)
			sides := boxSides(vals)
			for i, p := range BorderColorProps {
				out = append(out, &css.Declaration{Property: p, Value: sides[i], Important: d.Important})
			}
		case "border", "border-top", "border-right", "border-bottom", "border-left":
			c := borderColor(d.Value)
			for _, p := range borderSides(prop) {
				out = append(out, &css.Declaration{Property: p, Value: c, Important: d.Important})
			}
			out = append(out, &css.Declaration{Property: prop, Value: d.Value, Important: d.Important})
		case "background":
			if vals := splitValues(d.Value); len(vals) == 1 && !strings.Contains(vals[0], "url(") {
				out = append(out, &css.Declaration{Property: PropBackgroundColor, Value: vals[0], Important: d.Important})
			}
			out = append(out, &css.Declaration{Property: prop, Value: d.Value, Important: d.Important})
		default:
			out = append(out, &css.Declaration{Property: prop, Value: d.Value, Important: d.Important})
		}
	}
	return out
}

// borderSides lists the color longhands a border shorthand sets.
func borderSides(prop string) []string {
	if side, ok := strings.CutPrefix(prop, "border-"); ok {
		return []string{"border-" + side + "-color"}
	}
	return BorderColorProps
}

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "dotted": true, "dashed": true, "solid": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
}

// borderColor picks the color component of a border shorthand. A shorthand
// without one resets the color to currentcolor.
func borderColor(v string) string {
	for _, tok := range splitValues(v) {
		l := strings.ToLower(tok)
		switch {
		case borderStyles[l], l == "thin", l == "medium", l == "thick":
			continue
		case strings.HasPrefix(l, "calc("), isNumeric(l):
			continue
		}
		return tok
	}
	return "currentcolor"
}

// isNumeric reports whether a token starts like a number, as lengths do.
func isNumeric(tok string) bool {
	tok = strings.TrimPrefix(strings.TrimPrefix(tok, "-"), "+")
	return tok != "" && (tok[0] == '.' || (tok[0] >= '0' && tok[0] <= '9'))
}

// boxSides maps one to four values onto top, right, bottom, left.
func boxSides(vals []string) [4]string {
	switch len(vals) {
	case 0:
		return [4]string{}
	case 1:
		return [4]string{vals[0], vals[0], vals[0], vals[0]}
	case 2:
		return [4]string{vals[0], vals[1], vals[0], vals[1]}
	case 3:
		return [4]string{vals[0], vals[1], vals[2], vals[1]}
	default:
		return [4]string{vals[0], vals[1], vals[2], vals[3]}
	}
}

// splitValues splits on top-level whitespace, keeping function arguments together.
func splitValues(v string) []string {
	var out []string
	depth, start := 0, -1
	for i, r := range v {
		switch {
		case r == '(':
			depth++
		case r == ')':
			depth--
		case (r == ' ' || r == '\t' || r == '\n') && depth == 0:
			if start >= 0 {
				out = append(out, v[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, v[start:])
	}
	return out
}

// parseInline parses a style attribute. The parser drops the value of a
// final declaration that has no terminating semicolon, so one is added.
func parseInline(raw string) ([]*css.Declaration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !strings.HasSuffix(raw, ";") {
		raw += ";"
	}
	return parser.ParseDeclarations(raw)
}

// inlineDeclarations parses the style attribute.
func (n *Node) inlineDeclarations() []*css.Declaration {
	raw, ok := n.Attr("style")
	if !ok {
		return nil
	}
	decls, err := parseInline(raw)
	if err != nil {
		return nil
	}
	return expandShorthands(decls)
}

// cascaded returns the winning declared value for prop, or "" when nothing
// declares it.
func (n *Node) cascaded(prop string) string {
	var matched []rule
	for _, r := range n.doc.rules {
		if r.sel.Match(n.n) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].weight != matched[j].weight {
			return matched[i].weight.Less(matched[j].weight)
		}
		return matched[i].order < matched[j].order
	})

	var normal, important string
	for _, r := range matched {
		for _, d := range r.decls {
			if d.Property != prop {
				continue
			}
			if d.Important {
				important = d.Value
			} else {
				normal = d.Value
			}
		}
	}
	var inlineNormal, inlineImportant string
	for _, d := range n.inlineDeclarations() {
		if d.Property != prop {
			continue
		}
		if d.Important {
			inlineImportant = d.Value
		} else {
			inlineNormal = d.Value
		}
	}

	for _, v := range []string{inlineImportant, important, inlineNormal, normal} {
		if v != "" {
			return strings.TrimSpace(v)
		}
	}
	if n.IsSVG() {
		// presentation attributes sit below every author rule
		if v, ok := n.Attr(prop); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// InlineStyle returns the value the style attribute declares for prop.
func (n *Node) InlineStyle(prop string) string {
	var v string
	for _, d := range n.inlineDeclarations() {
		if d.Property == prop {
			v = d.Value
		}
	}
	return v
}

// ComputedStyle resolves prop through the cascade, inheritance and var()
// substitution. A var() reference with no definition and no fallback is
// returned unresolved.
func (n *Node) ComputedStyle(prop string) string {
	prop = strings.ToLower(prop)
	v := n.cascaded(prop)

	switch strings.ToLower(v) {
	case "", "inherit", "unset":
		if inherited[prop] || strings.HasPrefix(prop, "--") || strings.EqualFold(v, "inherit") {
			if p := n.Parent(); p != nil {
				return p.ComputedStyle(prop)
			}
		}
		return n.initial(prop)
	case "initial":
		return n.initial(prop)
	case "currentcolor":
		return n.ComputedStyle(PropColor)
	}

	if strings.Contains(v, "var(") {
		v = n.substituteVars(v)
		if strings.EqualFold(v, "currentcolor") {
			return n.ComputedStyle(PropColor)
		}
	}
	return v
}

func (n *Node) initial(prop string) string {
	if v, ok := initialValues[prop]; ok {
		return v
	}
	for _, side := range BorderColorProps {
		if side == prop {
			return n.ComputedStyle(PropColor)
		}
	}
	return ""
}

// substituteVars replaces var(--name[, fallback]) references with the
// inherited custom property values.
func (n *Node) substituteVars(v string) string {
	for range 16 {
		i := strings.Index(v, "var(")
		if i < 0 {
			return v
		}
		end := matchParen(v, i+3)
		if end < 0 {
			return v
		}
		inner := v[i+4 : end]
		name, fallback, hasFallback := strings.Cut(inner, ",")
		name = strings.TrimSpace(name)

		repl := n.ComputedStyle(name)
		if repl == "" && hasFallback {
			repl = strings.TrimSpace(fallback)
		}
		if repl == "" {
			return v
		}
		v = v[:i] + repl + v[end+1:]
	}
	return v
}

func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// SetStyle writes prop into the style attribute, replacing any earlier
// inline declaration of the same property.
func (n *Node) SetStyle(prop, value string, important bool) {
	prop = strings.ToLower(prop)
	raw, _ := n.Attr("style")
	decls, err := parseInline(raw)
	if err != nil {
		decls = nil
	}

	kept := decls[:0]
	for _, d := range decls {
		if strings.ToLower(d.Property) != prop {
			kept = append(kept, d)
		}
	}
	kept = append(kept, &css.Declaration{Property: prop, Value: value, Important: important})

	parts := make([]string, len(kept))
	for i, d := range kept {
		parts[i] = d.String()
	}
	n.SetAttr("style", strings.Join(parts, " "))
}

// Box is a width and height in CSS pixels.
type Box struct {
	Width  float64
	Height float64
}

// Empty reports whether either dimension is missing.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

var unitPx = map[string]float64{
	"px": 1,
	"mm": 96 / 25.4,
	"cm": 96 / 2.54,
	"in": 96,
	"pt": 96.0 / 72,
}

// ParseLength converts an absolute CSS length to pixels.
func ParseLength(v string) (float64, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	for unit, factor := range unitPx {
		if num, ok := strings.CutSuffix(v, unit); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
			if err != nil {
				return 0, false
			}
			return f * factor, true
		}
	}
	return 0, false
}
