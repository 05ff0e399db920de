// internal/fill/filler.go
package fill

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/api/schemas"
	"github.com/hddevteam/smart-form-filler/internal/dom"
)

// ControlKind is the closed set of fillable control shapes. Value assignment
// dispatches on it at a single call site.
type ControlKind int

const (
	KindText ControlKind = iota
	KindTextarea
	KindSelect
	KindCheckbox
	KindRadio
	KindFile
	KindUnknown
)

// controlKindOf classifies a live element.
func controlKindOf(node *html.Node) ControlKind {
	switch dom.TagName(node) {
	case "textarea":
		return KindTextarea
	case "select":
		return KindSelect
	case "input":
		switch strings.ToLower(dom.Attr(node, "type")) {
		case "checkbox":
			return KindCheckbox
		case "radio":
			return KindRadio
		case "file":
			return KindFile
		default:
			// text, email, number, date and friends all take a string value.
			return KindText
		}
	}
	return KindUnknown
}

// sessionEntry remembers one written element for ClearAll. The association is
// session scoped and discarded on reset.
type sessionEntry struct {
	doc     *dom.Document
	mapping schemas.FieldMapping
	value   string
}

// Filler resolves mapped fields back to live elements and writes values with
// type-correct semantics. A single failing entry never aborts a batch.
type Filler struct {
	walker *dom.Walker
	sink   EventSink
	logger *zap.Logger

	mu      sync.Mutex
	session map[*html.Node]sessionEntry
}

// NewFiller creates a filler over a frame walker and an event sink.
func NewFiller(walker *dom.Walker, sink EventSink, logger *zap.Logger) *Filler {
	if sink == nil {
		sink = TreeSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filler{
		walker:  walker,
		sink:    sink,
		logger:  logger.Named("form_filler"),
		session: make(map[*html.Node]sessionEntry),
	}
}

// Fill processes the full mapping list, accumulating per-field outcomes. It
// never returns an error for a single-field failure; only a nil walker or a
// cancelled context would surface earlier in the workflow.
func (f *Filler) Fill(ctx context.Context, mappings []schemas.FieldMapping) *schemas.FillReport {
	report := &schemas.FillReport{}
	for _, mapping := range mappings {
		if ctx.Err() != nil {
			report.Add(schemas.FillOutcome{
				FieldID: mapping.FieldID,
				Status:  schemas.FillStatusFailed,
				Reason:  "cancelled",
			})
			continue
		}
		report.Add(f.fillOne(ctx, mapping))
	}

	filled, failed, skipped := report.Counts()
	f.logger.Info("Fill batch complete",
		zap.Int("filled", filled), zap.Int("failed", failed), zap.Int("skipped", skipped))
	return report
}

func (f *Filler) fillOne(ctx context.Context, mapping schemas.FieldMapping) schemas.FillOutcome {
	doc, err := f.targetDocument(ctx, mapping)
	if err != nil {
		// Frame gone or cross-origin: recoverable per-field failure.
		f.logger.Debug("Target document unreachable",
			zap.String("fieldId", mapping.FieldID),
			zap.String("framePath", mapping.FramePath),
			zap.Error(err))
		return schemas.FillOutcome{
			FieldID: mapping.FieldID,
			Status:  schemas.FillStatusFailed,
			Reason:  "frame not accessible",
		}
	}

	element, strategy := resolveElement(doc, mapping)
	if element == nil {
		return schemas.FillOutcome{
			FieldID: mapping.FieldID,
			Status:  schemas.FillStatusFailed,
			Reason:  "element not found",
		}
	}
	f.logger.Debug("Resolved element",
		zap.String("fieldId", mapping.FieldID), zap.String("strategy", strategy))

	outcome := f.applyValue(doc, element, mapping)
	if outcome.Status == schemas.FillStatusFilled {
		dispatchFillEvents(f.sink, doc, element, f.logger)
		f.mu.Lock()
		f.session[element] = sessionEntry{doc: doc, mapping: mapping, value: mapping.SuggestedValue}
		f.mu.Unlock()
	}
	return outcome
}

// targetDocument resolves the document the mapping belongs to. Iframe sources
// are recomputed through the walker on every call; nothing is cached across
// the detection/fill gap.
func (f *Filler) targetDocument(ctx context.Context, mapping schemas.FieldMapping) (*dom.Document, error) {
	path := dom.RootPath
	if mapping.Source == schemas.SourceIframe || mapping.FramePath != "" {
		parsed, err := dom.ParseFramePath(mapping.FramePath)
		if err != nil {
			return nil, err
		}
		path = parsed
	}
	return f.walker.ResolveDocument(ctx, path)
}

// applyValue is the single dispatch site for type-correct value assignment.
func (f *Filler) applyValue(doc *dom.Document, element *html.Node, mapping schemas.FieldMapping) schemas.FillOutcome {
	value := mapping.SuggestedValue
	outcome := schemas.FillOutcome{FieldID: mapping.FieldID, Value: value, Status: schemas.FillStatusFilled}

	switch controlKindOf(element) {
	case KindCheckbox:
		if parseBool(value) {
			dom.SetAttr(element, "checked", "checked")
		} else {
			dom.RemoveAttr(element, "checked")
		}

	case KindRadio:
		if !f.checkRadio(doc, element, value) {
			outcome.Status = schemas.FillStatusFailed
			outcome.Reason = "no radio option with matching value"
		}

	case KindSelect:
		if !selectOption(element, value) {
			// Soft failure: the select is left unchanged.
			outcome.Status = schemas.FillStatusFailed
			outcome.Reason = "no matching option"
		}

	case KindFile:
		// Never written, for security reasons.
		outcome.Status = schemas.FillStatusSkipped
		outcome.Reason = "file inputs are not filled"

	case KindTextarea:
		dom.SetInnerText(element, value)

	case KindText:
		dom.SetAttr(element, "value", value)

	default:
		outcome.Status = schemas.FillStatusFailed
		outcome.Reason = "unsupported element kind"
	}
	return outcome
}

// checkRadio checks the group member whose value equals the mapped value and
// unchecks the rest.
func (f *Filler) checkRadio(doc *dom.Document, element *html.Node, value string) bool {
	group := []*html.Node{element}
	if name := dom.Attr(element, "name"); name != "" {
		if radios, err := dom.Query(doc.Root, `//input[@type="radio"]`); err == nil {
			group = group[:0]
			for _, radio := range radios {
				if dom.Attr(radio, "name") == name {
					group = append(group, radio)
				}
			}
		}
	}

	var target *html.Node
	for _, radio := range group {
		if dom.Attr(radio, "value") == value {
			target = radio
			break
		}
	}
	if target == nil {
		return false
	}
	for _, radio := range group {
		if radio == target {
			dom.SetAttr(radio, "checked", "checked")
		} else {
			dom.RemoveAttr(radio, "checked")
		}
	}
	return true
}

// selectOption tries exact match on option value or text, then falls back to
// a case-insensitive substring match on option text.
func selectOption(selectNode *html.Node, value string) bool {
	options, err := dom.Query(selectNode, ".//option")
	if err != nil || len(options) == 0 {
		return false
	}

	target := -1
	for i, opt := range options {
		optValue := dom.Attr(opt, "value")
		if optValue == "" {
			optValue = dom.InnerText(opt)
		}
		if optValue == value || dom.InnerText(opt) == value {
			target = i
			break
		}
	}
	if target == -1 {
		lower := strings.ToLower(value)
		for i, opt := range options {
			if lower != "" && strings.Contains(strings.ToLower(dom.InnerText(opt)), lower) {
				target = i
				break
			}
		}
	}
	if target == -1 {
		return false
	}

	for i, opt := range options {
		if i == target {
			dom.SetAttr(opt, "selected", "selected")
		} else {
			dom.RemoveAttr(opt, "selected")
		}
	}
	return true
}

// ClearAll restores every element written during this session to its empty or
// default state, re-dispatching the fill events, and empties the session map.
// It returns the number of controls cleared.
func (f *Filler) ClearAll() int {
	f.mu.Lock()
	entries := f.session
	f.session = make(map[*html.Node]sessionEntry)
	f.mu.Unlock()

	for element, entry := range entries {
		switch controlKindOf(element) {
		case KindCheckbox, KindRadio:
			dom.RemoveAttr(element, "checked")
		case KindSelect:
			resetSelect(element)
		case KindTextarea:
			dom.SetInnerText(element, "")
		case KindText:
			dom.SetAttr(element, "value", "")
		}
		dispatchFillEvents(f.sink, entry.doc, element, f.logger)
	}
	f.logger.Info("Cleared filled fields", zap.Int("count", len(entries)))
	return len(entries)
}

// Reset discards the session associations without touching the DOM.
func (f *Filler) Reset() {
	f.mu.Lock()
	f.session = make(map[*html.Node]sessionEntry)
	f.mu.Unlock()
}

// SessionSize reports the number of retained element associations.
func (f *Filler) SessionSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.session)
}

// resetSelect selects index 0 and deselects everything else.
func resetSelect(selectNode *html.Node) {
	options, err := dom.Query(selectNode, ".//option")
	if err != nil {
		return
	}
	for i, opt := range options {
		if i == 0 {
			dom.SetAttr(opt, "selected", "selected")
		} else {
			dom.RemoveAttr(opt, "selected")
		}
	}
}

// parseBool coerces a mapped value into a checkbox state.
func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on", "checked", "y":
		return true
	}
	return false
}
