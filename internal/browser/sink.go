// internal/browser/sink.go
package browser

import (
	"context"
	"fmt"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/internal/detect"
	"github.com/hddevteam/smart-form-filler/internal/dom"
)

// CDPSink implements fill.EventSink against the live page. The filler writes
// values into the parsed snapshot; on the first event for a control the sink
// pushes that state to the live element, then dispatches a real bubbling,
// cancelable event so framework listeners observe the change.
type CDPSink struct {
	session *Session
	logger  *zap.Logger
}

// NewCDPSink creates a sink over the given session.
func NewCDPSink(session *Session, logger *zap.Logger) *CDPSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CDPSink{
		session: session,
		logger:  logger.Named("cdp_sink"),
	}
}

// Dispatch implements fill.EventSink.
func (s *CDPSink) Dispatch(doc *dom.Document, node *html.Node, event string) error {
	xpath := detect.GenerateXPath(node)
	if xpath == "" {
		return fmt.Errorf("cannot address element in live page")
	}
	state := controlState(node)

	script := fmt.Sprintf(`(() => {
	try {
		const doc = %s;
		if (!doc) return "frame not accessible";
		const el = doc.evaluate(%s, doc, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) return "element not found";
		const state = %s;
		if (%q === "input") {
			if (state.checked !== undefined) el.checked = state.checked;
			else if (el.tagName === "SELECT" && state.value !== undefined) el.value = state.value;
			else if (state.value !== undefined) el.value = state.value;
		}
		el.dispatchEvent(new Event(%q, { bubbles: true, cancelable: true }));
		return "";
	} catch (e) {
		return String(e);
	}
})()`, documentAccessor(doc.Path), jsString(xpath), marshalState(state), event, event)

	var failure string
	if err := s.session.Evaluate(context.Background(), script, &failure); err != nil {
		return fmt.Errorf("event dispatch failed: %w", err)
	}
	if failure != "" {
		return fmt.Errorf("event dispatch failed: %s", failure)
	}
	return nil
}

// controlState captures the parsed node's fillable state for the live sync.
type controlStatePayload struct {
	Value   *string `json:"value,omitempty"`
	Checked *bool   `json:"checked,omitempty"`
}

func controlState(node *html.Node) controlStatePayload {
	var state controlStatePayload
	switch dom.TagName(node) {
	case "textarea":
		text := dom.InnerText(node)
		state.Value = &text
	case "select":
		if value, ok := selectedOptionValue(node); ok {
			state.Value = &value
		}
	default:
		switch dom.Attr(node, "type") {
		case "checkbox", "radio":
			checked := dom.HasAttr(node, "checked")
			state.Checked = &checked
		default:
			value := dom.Attr(node, "value")
			state.Value = &value
		}
	}
	return state
}

func selectedOptionValue(selectNode *html.Node) (string, bool) {
	options, err := dom.Query(selectNode, ".//option")
	if err != nil {
		return "", false
	}
	for _, option := range options {
		if dom.HasAttr(option, "selected") {
			if dom.HasAttr(option, "value") {
				return dom.Attr(option, "value"), true
			}
			return dom.InnerText(option), true
		}
	}
	return "", false
}

func marshalState(state controlStatePayload) string {
	out, err := json.MarshalToString(state)
	if err != nil {
		return "{}"
	}
	return out
}

func jsString(s string) string {
	out, err := json.MarshalToString(s)
	if err != nil {
		return `""`
	}
	return out
}
