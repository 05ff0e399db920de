// api/schemas/messages.go
package schemas

import "encoding/json"

// MessageAction addresses a bridge request to a handler.
type MessageAction string

const (
	ActionDetectForms    MessageAction = "detectForms"
	ActionFillForms      MessageAction = "fillForms"
	ActionExtractContent MessageAction = "extractContentWithIframes"
	ActionPing           MessageAction = "ping"
)

// MessageRequest is the action-addressed envelope exchanged with the
// privileged extension context.
type MessageRequest struct {
	Action  MessageAction   `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageResponse wraps a handler result. Error is set instead of Data when
// the handler itself failed; per-field failures live inside Data.
type MessageResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// FillFormsPayload is the fillForms request body.
type FillFormsPayload struct {
	Mappings []FieldMapping `json:"mappings"`
}

// ExtractedFrame is one document's HTML in the extraction bundle.
type ExtractedFrame struct {
	FramePath string `json:"framePath"`
	URL       string `json:"url,omitempty"`
	HTML      string `json:"html"`
	Markdown  string `json:"markdown,omitempty"`
}

// ExtractionBundle is the extractContentWithIframes response: the main page
// plus every accessible same-origin iframe.
type ExtractionBundle struct {
	PageURL string           `json:"pageUrl,omitempty"`
	Title   string           `json:"title,omitempty"`
	Frames  []ExtractedFrame `json:"frames"`
}
