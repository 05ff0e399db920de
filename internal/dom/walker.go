// internal/dom/walker.go
package dom

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DefaultMaxFrameDepth bounds iframe nesting; frames deeper than this are
// silently not visited.
const DefaultMaxFrameDepth = 5

// ErrFrameInaccessible is returned by ResolveDocument when a path can no
// longer be resolved (frame navigated away, became cross-origin, or was
// removed). Callers treat it as a recoverable per-field condition.
var ErrFrameInaccessible = fmt.Errorf("frame is not accessible")

// WalkResult is the outcome of one traversal pass.
type WalkResult struct {
	// Documents holds the root document followed by every reachable
	// same-origin frame document, in traversal order.
	Documents []*Document
	// Skipped counts frames present in the tree but not visited
	// (cross-origin, load failure, or beyond the depth limit).
	Skipped int
}

// Walker enumerates the main document and all reachable same-origin iframes.
// Traversal is strictly sequential; there is no parallelism across frames.
type Walker struct {
	loader   FrameLoader
	maxDepth int
	logger   *zap.Logger
}

// NewWalker creates a walker over the given loader. maxDepth <= 0 selects
// DefaultMaxFrameDepth.
func NewWalker(loader FrameLoader, maxDepth int, logger *zap.Logger) *Walker {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxFrameDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		loader:   loader,
		maxDepth: maxDepth,
		logger:   logger.Named("frame_walker"),
	}
}

// Walk traverses the frame tree from the root: the iframes of each document
// are visited in order, recursing into each before moving to the next. A
// frame whose path was already visited during this pass is skipped, keeping
// the traversal idempotent under iframe DOM mutation.
func (w *Walker) Walk(ctx context.Context) (*WalkResult, error) {
	root, err := w.loader.LoadRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load root document: %w", err)
	}

	result := &WalkResult{}
	visited := map[string]bool{root.Path.String(): true}
	result.Documents = append(result.Documents, root)

	if err := w.walkFrames(ctx, root, visited, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (w *Walker) walkFrames(ctx context.Context, parent *Document, visited map[string]bool, result *WalkResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	frameCount := len(parent.IframeElements())
	for index := 0; index < frameCount; index++ {
		childPath := parent.Path.Child(index)
		if childPath.Depth() > w.maxDepth {
			// Bounded silently: deep frames are neither visited nor errors.
			result.Skipped++
			continue
		}
		key := childPath.String()
		if visited[key] {
			continue
		}
		visited[key] = true

		child, err := w.loader.LoadFrame(ctx, parent, index)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Debug("Skipping frame after load failure",
				zap.String("framePath", key), zap.Error(err))
			result.Skipped++
			continue
		}
		if child == nil {
			// Cross-origin or detached; not a detection error.
			w.logger.Debug("Skipping inaccessible frame", zap.String("framePath", key))
			result.Skipped++
			continue
		}

		result.Documents = append(result.Documents, child)
		if err := w.walkFrames(ctx, child, visited, result); err != nil {
			return err
		}
	}
	return nil
}

// ResolveDocument re-resolves a FramePath to a live document, re-walking from
// the root on every call. Nothing is cached: frames may have been replaced
// between detection and fill, and a fresh walk is the only way to notice.
func (w *Walker) ResolveDocument(ctx context.Context, path FramePath) (*Document, error) {
	doc, err := w.loader.LoadRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load root document: %w", err)
	}

	for _, index := range path {
		if index >= len(doc.IframeElements()) {
			return nil, fmt.Errorf("frame index %d out of range in %q: %w", index, doc.Path.String(), ErrFrameInaccessible)
		}
		child, err := w.loader.LoadFrame(ctx, doc, index)
		if err != nil {
			return nil, fmt.Errorf("failed to load frame %q: %w", doc.Path.Child(index).String(), err)
		}
		if child == nil {
			return nil, fmt.Errorf("frame %q: %w", doc.Path.Child(index).String(), ErrFrameInaccessible)
		}
		doc = child
	}
	return doc, nil
}
