// internal/dom/document.go
package dom

import (
	"context"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is one live document in the frame tree: the parsed root node plus
// the path that identifies its frame. Holding a Document does not keep the
// underlying frame alive; a stale Document simply stops resolving.
type Document struct {
	Root *html.Node
	Path FramePath
	URL  string
}

// Title returns the document's <title> text, if any.
func (d *Document) Title() string {
	if d == nil || d.Root == nil {
		return ""
	}
	if t := htmlquery.FindOne(d.Root, "//title"); t != nil {
		return InnerText(t)
	}
	return ""
}

// IframeElements returns the document's <iframe> elements in document order.
// The slice index of an element is its FramePath index.
func (d *Document) IframeElements() []*html.Node {
	if d == nil || d.Root == nil {
		return nil
	}
	return htmlquery.Find(d.Root, "//iframe")
}

// FrameLoader resolves documents in a frame tree. Implementations exist for
// live Chrome targets (CDP) and for in-memory fixtures.
type FrameLoader interface {
	// LoadRoot returns the main document.
	LoadRoot(ctx context.Context) (*Document, error)

	// LoadFrame resolves the index-th iframe of parent. A cross-origin or
	// detached frame yields (nil, nil): the caller skips it without treating
	// the condition as an error.
	LoadFrame(ctx context.Context, parent *Document, index int) (*Document, error)
}
