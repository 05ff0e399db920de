// internal/fill/events.go
package fill

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/internal/dom"
)

// fillEvents are dispatched after every value write so framework-bound
// listeners (controlled inputs) observe the change.
var fillEvents = []string{"input", "change", "blur"}

// EventSink delivers synthetic DOM events for a written control. The CDP
// binding dispatches real bubbling, cancelable events; the in-tree sink is a
// no-op marker used for offline documents and tests.
type EventSink interface {
	Dispatch(doc *dom.Document, node *html.Node, event string) error
}

// TreeSink marks event dispatch on the parsed tree itself. It stamps the
// last dispatched event name onto the node, which is enough for offline
// bundles where no script is listening.
type TreeSink struct{}

// Dispatch implements EventSink.
func (TreeSink) Dispatch(_ *dom.Document, node *html.Node, event string) error {
	dom.SetAttr(node, "data-last-event", event)
	return nil
}

// dispatchFillEvents fires input, change and blur in order. A failure to
// dispatch one event type is logged and does not prevent the others.
func dispatchFillEvents(sink EventSink, doc *dom.Document, node *html.Node, logger *zap.Logger) {
	for _, event := range fillEvents {
		if err := sink.Dispatch(doc, node, event); err != nil {
			logger.Debug("Event dispatch failed",
				zap.String("event", event), zap.Error(err))
		}
	}
}
