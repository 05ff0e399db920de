// internal/extract/extractor.go
// Page content extraction for the mapper: the main document plus every
// accessible same-origin iframe, sanitized and converted to markdown so the
// collaborator sees prose instead of markup.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/api/schemas"
	"github.com/hddevteam/smart-form-filler/internal/dom"
)

// Extractor renders the frame tree into an ExtractionBundle.
type Extractor struct {
	walker      *dom.Walker
	sanitizer   *bluemonday.Policy
	mdConverter *converter.Converter
	logger      *zap.Logger
}

// NewExtractor creates an extractor over the given walker.
func NewExtractor(walker *dom.Walker, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		walker:    walker,
		sanitizer: bluemonday.UGCPolicy(),
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		logger: logger.Named("extractor"),
	}
}

// Extract walks the frame tree and returns one ExtractedFrame per reachable
// document. Frames that fail to render are dropped, not fatal.
func (e *Extractor) Extract(ctx context.Context) (*schemas.ExtractionBundle, error) {
	walk, err := e.walker.Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to walk frame tree: %w", err)
	}

	bundle := &schemas.ExtractionBundle{}
	for _, doc := range walk.Documents {
		raw, err := renderDocument(doc)
		if err != nil {
			e.logger.Warn("Dropping frame that failed to render",
				zap.String("framePath", doc.Path.String()), zap.Error(err))
			continue
		}
		clean := e.sanitizer.Sanitize(raw)
		frame := schemas.ExtractedFrame{
			FramePath: doc.Path.String(),
			URL:       doc.URL,
			HTML:      clean,
			Markdown:  e.toMarkdown(clean, doc.URL),
		}
		if doc.Path.IsRoot() {
			bundle.PageURL = doc.URL
			bundle.Title = doc.Title()
		}
		bundle.Frames = append(bundle.Frames, frame)
	}
	return bundle, nil
}

// DataSources converts a bundle into mapper data sources, one per frame with
// non-empty markdown.
func (e *Extractor) DataSources(bundle *schemas.ExtractionBundle) []schemas.DataSource {
	sources := make([]schemas.DataSource, 0, len(bundle.Frames))
	for _, frame := range bundle.Frames {
		if frame.Markdown == "" {
			continue
		}
		title := bundle.Title
		if frame.FramePath != "" {
			title = fmt.Sprintf("%s (frame %s)", bundle.Title, frame.FramePath)
		}
		sources = append(sources, schemas.DataSource{
			ID:       "frame-" + frameSourceID(frame.FramePath),
			Title:    title,
			URL:      frame.URL,
			Markdown: frame.Markdown,
		})
	}
	return sources
}

func (e *Extractor) toMarkdown(sanitized, sourceURL string) string {
	if strings.TrimSpace(sanitized) == "" {
		return ""
	}
	opts := []converter.ConvertOptionFunc{}
	if sourceURL != "" {
		opts = append(opts, converter.WithDomain(sourceURL))
	}
	result, err := e.mdConverter.ConvertString(sanitized, opts...)
	if err != nil {
		e.logger.Debug("Markdown conversion failed, keeping sanitized HTML only", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(result)
}

func renderDocument(doc *dom.Document) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, doc.Root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func frameSourceID(framePath string) string {
	if framePath == "" {
		return "root"
	}
	return strings.ReplaceAll(framePath, ".", "-")
}
