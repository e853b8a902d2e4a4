package dom

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ContainerAttr marks off-viewport capture containers.
const ContainerAttr = "data-capture-container"

// FrameInterval is how long NextFrame waits, one display frame at 60Hz.
const FrameInterval = 16 * time.Millisecond

// Container is an off-viewport element holding a throwaway copy of a node.
type Container struct {
	doc  *Document
	node *Node
}

// Mount appends a fixed-size container positioned outside the visible area
// to the document body and moves content into it. The container is filled
// with background so transparent regions render against it.
func (d *Document) Mount(content *Node, box Box, background string) (*Container, error) {
	body := d.Body()
	if body == nil {
		return nil, &ParseError{Message: "document has no body"}
	}

	el := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	wrapper := &Node{n: el, doc: d}
	wrapper.SetAttr(ContainerAttr, "")
	wrapper.SetAttr("style", fmt.Sprintf(
		"position: fixed; left: -9999px; top: 0; width: %gpx; height: %gpx; overflow: hidden; background-color: %s;",
		box.Width, box.Height, background))

	d.mu.Lock()
	defer d.mu.Unlock()
	body.appendChild(wrapper)
	wrapper.appendChild(content)
	return &Container{doc: d, node: wrapper}, nil
}

// Node returns the container element.
func (c *Container) Node() *Node {
	return c.node
}

// Content returns the first element inside the container.
func (c *Container) Content() *Node {
	for h := c.node.n.FirstChild; h != nil; h = h.NextSibling {
		if h.Type == html.ElementNode {
			return &Node{n: h, doc: c.doc}
		}
	}
	return nil
}

// Release detaches the container from the document. Releasing a container
// that is no longer attached yields a TeardownError.
func (c *Container) Release() error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()

	parent := c.node.n.Parent
	if parent == nil || !c.node.Attached() {
		return &TeardownError{Message: "container already detached"}
	}
	parent.RemoveChild(c.node.n)
	return nil
}

// Mounted reports the number of capture containers currently attached.
func (d *Document) Mounted() int {
	body := d.Body()
	if body == nil {
		return 0
	}
	return len(body.Find("[" + ContainerAttr + "]"))
}

// NextFrame yields until the next display frame so that style writes made
// just before it are settled.
func (d *Document) NextFrame(ctx context.Context) error {
	t := time.NewTimer(FrameInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	d.mu.Lock()
	d.frames++
	d.mu.Unlock()
	return nil
}

// Frames returns how many frames NextFrame has yielded.
func (d *Document) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}
