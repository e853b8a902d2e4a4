package dom

import (
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML page together with the stylesheet rules found in
// its <style> elements.
type Document struct {
	doc   *goquery.Document
	rules []rule

	mu     sync.Mutex
	frames int
}

// Parse reads an HTML document and compiles its embedded stylesheets.
func Parse(r io.Reader) (*Document, error) {
	gd, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Message: "failed to parse html", Cause: err}
	}

	d := &Document{doc: gd}
	var sheets []string
	gd.Find("style").Each(func(_ int, s *goquery.Selection) {
		sheets = append(sheets, s.Text())
	})
	for _, css := range sheets {
		rules, err := compileStylesheet(css, len(d.rules))
		if err != nil {
			return nil, err
		}
		d.rules = append(d.rules, rules...)
	}
	return d, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Body returns the <body> element.
func (d *Document) Body() *Node {
	return d.First("body")
}

// First returns the first element matching selector, or nil.
func (d *Document) First(selector string) *Node {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return &Node{n: sel.Get(0), doc: d}
}

// StyleHTML returns the document's <style> elements serialized, for shipping
// to an external renderer alongside a fragment.
func (d *Document) StyleHTML() string {
	var b strings.Builder
	d.doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		if h, err := goquery.OuterHtml(s); err == nil {
			b.WriteString(h)
		}
	})
	return b.String()
}

// HTML serializes the whole document.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

// Node is an element in a Document. Nodes produced by Clone belong to the
// same Document for style resolution but are detached until mounted.
type Node struct {
	n   *html.Node
	doc *Document
}

func (n *Node) sel() *goquery.Selection {
	return goquery.NewDocumentFromNode(n.n).Selection
}

// Tag returns the lower-case element name.
func (n *Node) Tag() string {
	return n.n.Data
}

// IsSVG reports whether the element lives in the SVG namespace.
func (n *Node) IsSVG() bool {
	return n.n.Namespace == "svg" || n.n.DataAtom == atom.Svg
}

// Attr returns an attribute value.
func (n *Node) Attr(name string) (string, bool) {
	return n.sel().Attr(name)
}

// SetAttr sets an attribute value.
func (n *Node) SetAttr(name, value string) {
	n.sel().SetAttr(name, value)
}

// Parent returns the parent element, or nil at the root or when detached.
func (n *Node) Parent() *Node {
	for p := n.n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return &Node{n: p, doc: n.doc}
		}
	}
	return nil
}

// Attached reports whether the node is reachable from the document root.
func (n *Node) Attached() bool {
	root := n.doc.doc.Get(0)
	for p := n.n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// Find returns the descendants matching selector in document order.
func (n *Node) Find(selector string) []*Node {
	var out []*Node
	n.sel().Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Node{n: s.Get(0), doc: n.doc})
	})
	return out
}

// Walk visits the node and every element beneath it in document order.
func (n *Node) Walk(fn func(*Node)) {
	var visit func(*html.Node)
	visit = func(h *html.Node) {
		if h.Type == html.ElementNode {
			fn(&Node{n: h, doc: n.doc})
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n.n)
}

// Text returns the combined text content.
func (n *Node) Text() string {
	return n.sel().Text()
}

// Clone returns a deep, detached copy of the node.
func (n *Node) Clone() *Node {
	c := n.sel().Clone()
	return &Node{n: c.Get(0), doc: n.doc}
}

// OuterHTML serializes the node and its subtree.
func (n *Node) OuterHTML() (string, error) {
	return goquery.OuterHtml(n.sel())
}

// Box returns the node's declared width and height in CSS pixels. A missing
// or unparseable dimension is reported as zero.
func (n *Node) Box() Box {
	w, _ := ParseLength(n.ComputedStyle("width"))
	h, _ := ParseLength(n.ComputedStyle("height"))
	return Box{Width: w, Height: h}
}

func (n *Node) appendChild(c *Node) {
	if c.n.Parent != nil {
		c.n.Parent.RemoveChild(c.n)
	}
	n.n.AppendChild(c.n)
}
