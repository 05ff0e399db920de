// internal/detect/detector.go
package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/api/schemas"
	"github.com/hddevteam/smart-form-filler/internal/config"
	"github.com/hddevteam/smart-form-filler/internal/dom"
)

// Detector builds the in-memory model of every form and standalone field
// reachable from the page. Records are created fresh on every pass and never
// mutated afterwards.
type Detector struct {
	walker    *dom.Walker
	predicate FillablePredicate
	logger    *zap.Logger
}

// NewDetector wires a detector over a frame walker.
func NewDetector(walker *dom.Walker, cfg config.DetectorConfig, logger *zap.Logger) *Detector {
	predicate := FillablePredicate{
		MinBoxWidth:   float64(cfg.MinBoxWidth),
		MinBoxHeight:  float64(cfg.MinBoxHeight),
		ExtraDenylist: cfg.ExtraDenylist,
	}
	if predicate.MinBoxWidth == 0 && predicate.MinBoxHeight == 0 {
		predicate = DefaultFillablePredicate()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		walker:    walker,
		predicate: predicate,
		logger:    logger.Named("form_detector"),
	}
}

// Detect runs one detection pass over the whole frame tree. A failure while
// analyzing one control skips that control; an inaccessible iframe is skipped
// by the walker. Neither aborts the pass.
func (d *Detector) Detect(ctx context.Context) (*schemas.DetectionResult, error) {
	walk, err := d.walker.Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("frame traversal failed: %w", err)
	}

	result := &schemas.DetectionResult{
		Stats: schemas.DetectionStats{
			FormsBySource:    make(map[string]int),
			FieldsByCategory: make(map[string]int),
			FramesVisited:    len(walk.Documents),
			FramesSkipped:    walk.Skipped,
		},
	}
	if len(walk.Documents) > 0 {
		result.PageURL = walk.Documents[0].URL
	}

	for _, doc := range walk.Documents {
		d.scanDocument(ctx, doc, result)
	}

	for _, form := range result.Forms {
		result.Stats.TotalForms++
		result.Stats.FormsBySource[string(form.Source)]++
		for _, field := range form.Fields {
			result.Stats.TotalFields++
			result.Stats.FieldsByCategory[string(field.Category)]++
			if d.predicate.IsFillable(field) {
				result.Fillable = append(result.Fillable, field)
			}
		}
	}
	result.Stats.FillableFields = len(result.Fillable)

	d.logger.Info("Detection pass complete",
		zap.Int("forms", result.Stats.TotalForms),
		zap.Int("fields", result.Stats.TotalFields),
		zap.Int("fillable", result.Stats.FillableFields),
		zap.Int("framesVisited", result.Stats.FramesVisited),
		zap.Int("framesSkipped", result.Stats.FramesSkipped))
	return result, nil
}

const controlXPath = "//input | //textarea | //select"

func (d *Detector) scanDocument(ctx context.Context, doc *dom.Document, result *schemas.DetectionResult) {
	if ctx.Err() != nil {
		return
	}
	source := schemas.SourceMain
	if !doc.Path.IsRoot() {
		source = schemas.SourceIframe
	}

	forms, err := dom.Query(doc.Root, "//form")
	if err != nil {
		d.logger.Warn("Form query failed for document",
			zap.String("framePath", doc.Path.String()), zap.Error(err))
		return
	}

	for _, formNode := range forms {
		record := schemas.FormRecord{
			ID:          formID(formNode),
			Source:      source,
			FramePath:   doc.Path.String(),
			Name:        dom.Attr(formNode, "name"),
			Action:      dom.Attr(formNode, "action"),
			Method:      strings.ToUpper(dom.Attr(formNode, "method")),
			Description: DescribeForm(doc, formNode),
		}
		controls, err := dom.Query(formNode, ".//input | .//textarea | .//select")
		if err != nil {
			d.logger.Warn("Control query failed for form",
				zap.String("formId", record.ID), zap.Error(err))
			continue
		}
		for _, control := range controls {
			if field, ok := d.analyzeControl(doc, control, source); ok {
				record.Fields = append(record.Fields, field)
			}
		}
		result.Forms = append(result.Forms, record)
	}

	standalone := d.standaloneFields(doc, source)
	if len(standalone) > 0 {
		result.Forms = append(result.Forms, schemas.FormRecord{
			ID:          "standalone-" + framePathID(doc.Path),
			Source:      source,
			FramePath:   doc.Path.String(),
			Description: doc.Title(),
			Standalone:  true,
			Fields:      standalone,
		})
	}
}

// standaloneFields collects input/textarea/select elements not inside any
// form into one synthetic container per document.
func (d *Detector) standaloneFields(doc *dom.Document, source schemas.FormSource) []schemas.FieldRecord {
	controls, err := dom.Query(doc.Root, controlXPath)
	if err != nil {
		d.logger.Warn("Standalone control query failed",
			zap.String("framePath", doc.Path.String()), zap.Error(err))
		return nil
	}

	var fields []schemas.FieldRecord
	for _, control := range controls {
		if insideForm(control) {
			continue
		}
		if field, ok := d.analyzeControl(doc, control, source); ok {
			fields = append(fields, field)
		}
	}
	return fields
}

// analyzeControl builds one FieldRecord. Panics and errors are contained: the
// control is logged and dropped, the pass continues.
func (d *Detector) analyzeControl(doc *dom.Document, control *html.Node, source schemas.FormSource) (field schemas.FieldRecord, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("Skipping control after analysis panic",
				zap.String("framePath", doc.Path.String()),
				zap.Any("panic", r))
			ok = false
		}
	}()

	originalID := dom.Attr(control, "id")
	stableID := originalID
	if stableID == "" {
		stableID = "field-" + uuid.NewString()[:8]
	}

	label := ResolveLabel(doc.Root, control)
	validity := InspectControl(control)

	field = schemas.FieldRecord{
		ID:          stableID,
		OriginalID:  originalID,
		Name:        dom.Attr(control, "name"),
		Tag:         dom.TagName(control),
		Type:        strings.ToLower(dom.Attr(control, "type")),
		Class:       dom.Attr(control, "class"),
		Label:       label,
		Title:       dom.Attr(control, "title"),
		Placeholder: dom.Attr(control, "placeholder"),
		Required:    dom.HasAttr(control, "required"),
		Disabled:    dom.HasAttr(control, "disabled"),
		ReadOnly:    dom.HasAttr(control, "readonly"),
		Visible:     validity.Visible,
		Editable:    validity.Editable,
		Box:         validity.Box,
		Source:      source,
		FramePath:   doc.Path.String(),
		Locators:    GenerateLocators(control, label),
		XPath:       GenerateXPath(control),
	}
	field.Category = Classify(field)
	return field, true
}

func insideForm(control *html.Node) bool {
	for n := control.Parent; n != nil; n = n.Parent {
		if dom.IsElement(n, "form") {
			return true
		}
	}
	return false
}

func formID(formNode *html.Node) string {
	if id := dom.Attr(formNode, "id"); id != "" {
		return id
	}
	if name := dom.Attr(formNode, "name"); name != "" {
		return name
	}
	return "form-" + uuid.NewString()[:8]
}

func framePathID(path dom.FramePath) string {
	if path.IsRoot() {
		return "main"
	}
	return strings.ReplaceAll(path.String(), ".", "-")
}
