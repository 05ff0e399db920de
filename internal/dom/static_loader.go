// internal/dom/static_loader.go
package dom

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// StaticLoader serves a frame tree from registered HTML strings, keyed by
// FramePath string. It backs tests and offline analysis of saved page
// bundles. Each frame is parsed once and the same node tree is returned on
// every load, mimicking a live DOM that mutates in place.
type StaticLoader struct {
	mu           sync.Mutex
	sources      map[string]string
	parsed       map[string]*html.Node
	urls         map[string]string
	inaccessible map[string]bool
}

// NewStaticLoader creates an empty loader. Register the root with
// AddFrame("", html) before walking.
func NewStaticLoader() *StaticLoader {
	return &StaticLoader{
		sources:      make(map[string]string),
		parsed:       make(map[string]*html.Node),
		urls:         make(map[string]string),
		inaccessible: make(map[string]bool),
	}
}

// AddFrame registers a document's HTML under a FramePath string key
// ("" = root, "1.0" = second iframe of root, then its first iframe).
func (l *StaticLoader) AddFrame(pathKey, source string) *StaticLoader {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources[pathKey] = source
	delete(l.parsed, pathKey)
	return l
}

// SetURL attaches a URL to a registered frame.
func (l *StaticLoader) SetURL(pathKey, url string) *StaticLoader {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.urls[pathKey] = url
	return l
}

// MarkInaccessible emulates a cross-origin frame: the iframe element exists
// in its parent, but loading the document yields nil.
func (l *StaticLoader) MarkInaccessible(pathKey string) *StaticLoader {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inaccessible[pathKey] = true
	return l
}

// Detach emulates a frame navigating away between detection and fill: the
// registered document is dropped and subsequent loads fail.
func (l *StaticLoader) Detach(pathKey string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sources, pathKey)
	delete(l.parsed, pathKey)
	l.inaccessible[pathKey] = true
}

// LoadRoot implements FrameLoader.
func (l *StaticLoader) LoadRoot(ctx context.Context) (*Document, error) {
	return l.load(ctx, RootPath)
}

// LoadFrame implements FrameLoader.
func (l *StaticLoader) LoadFrame(ctx context.Context, parent *Document, index int) (*Document, error) {
	childPath := parent.Path.Child(index)
	key := childPath.String()

	l.mu.Lock()
	blocked := l.inaccessible[key]
	_, registered := l.sources[key]
	l.mu.Unlock()

	if blocked || !registered {
		return nil, nil
	}
	return l.load(ctx, childPath)
}

func (l *StaticLoader) load(ctx context.Context, path FramePath) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := path.String()

	l.mu.Lock()
	defer l.mu.Unlock()

	if root, ok := l.parsed[key]; ok {
		return &Document{Root: root, Path: path, URL: l.urls[key]}, nil
	}
	source, ok := l.sources[key]
	if !ok {
		return nil, fmt.Errorf("no document registered for frame path %q", key)
	}
	root, err := htmlquery.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document for frame path %q: %w", key, err)
	}
	l.parsed[key] = root
	return &Document{Root: root, Path: path, URL: l.urls[key]}, nil
}
