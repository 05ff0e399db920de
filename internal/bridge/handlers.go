// internal/bridge/handlers.go
package bridge

import (
	"context"
	"fmt"
	"net/http"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/hddevteam/smart-form-filler/api/schemas"
)

// Workflow is the subset of the orchestrator the bridge drives.
type Workflow interface {
	Detect(ctx context.Context) (*schemas.DetectionResult, error)
	Fill(ctx context.Context, mappings []schemas.FieldMapping) (*schemas.FillReport, error)
}

// ContentExtractor produces the cross-frame extraction bundle.
type ContentExtractor interface {
	Extract(ctx context.Context) (*schemas.ExtractionBundle, error)
}

// MessageHandler dispatches message envelopes to the engine.
type MessageHandler struct {
	workflow  Workflow
	extractor ContentExtractor
	logger    *zap.Logger
}

// NewMessageHandler creates a handler over the given collaborators.
func NewMessageHandler(workflow Workflow, extractor ContentExtractor, logger *zap.Logger) *MessageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageHandler{
		workflow:  workflow,
		extractor: extractor,
		logger:    logger.Named("message_handler"),
	}
}

// ServeMessage decodes one envelope and routes it by action. Handler failures
// land in the envelope's Error field; per-field fill failures stay inside the
// fill report, which is a success at this level.
func (h *MessageHandler) ServeMessage(w http.ResponseWriter, r *http.Request) {
	var req schemas.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeResponse(w, http.StatusBadRequest, schemas.MessageResponse{
			Success: false,
			Error:   fmt.Sprintf("malformed message envelope: %v", err),
		})
		return
	}

	data, err := h.dispatch(r.Context(), req)
	if err != nil {
		h.logger.Warn("Message handling failed",
			zap.String("action", string(req.Action)), zap.Error(err))
		h.writeResponse(w, http.StatusOK, schemas.MessageResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	h.writeResponse(w, http.StatusOK, schemas.MessageResponse{
		Success: true,
		Data:    []byte(data),
	})
}

func (h *MessageHandler) dispatch(ctx context.Context, req schemas.MessageRequest) (json.RawMessage, error) {
	switch req.Action {
	case schemas.ActionPing:
		return json.RawMessage(`{"pong":true}`), nil

	case schemas.ActionDetectForms:
		result, err := h.workflow.Detect(ctx)
		if err != nil {
			return nil, err
		}
		return marshalData(result)

	case schemas.ActionFillForms:
		var payload schemas.FillFormsPayload
		if len(req.Payload) > 0 {
			if err := json.Unmarshal(req.Payload, &payload); err != nil {
				return nil, fmt.Errorf("malformed fillForms payload: %w", err)
			}
		}
		if len(payload.Mappings) == 0 {
			return nil, fmt.Errorf("fillForms requires at least one mapping")
		}
		report, err := h.workflow.Fill(ctx, payload.Mappings)
		if err != nil {
			return nil, err
		}
		return marshalData(report)

	case schemas.ActionExtractContent:
		bundle, err := h.extractor.Extract(ctx)
		if err != nil {
			return nil, err
		}
		return marshalData(bundle)

	default:
		return nil, fmt.Errorf("unknown action %q", req.Action)
	}
}

func (h *MessageHandler) writeResponse(w http.ResponseWriter, status int, resp schemas.MessageResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func marshalData(v interface{}) (json.RawMessage, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response data: %w", err)
	}
	return json.RawMessage(out), nil
}
