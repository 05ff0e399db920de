// internal/workflow/orchestrator.go
// The orchestrator sequences Detect -> Analyze -> Map -> Fill for the
// surrounding UI. It is injected with its collaborators via interfaces,
// keeping it decoupled and testable.
package workflow

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hddevteam/smart-form-filler/api/schemas"
	"github.com/hddevteam/smart-form-filler/internal/config"
)

// State names one step of the fill workflow.
type State string

const (
	StateIdle               State = "idle"
	StateDetecting          State = "detecting"
	StateAnalyzingRelevance State = "analyzing_relevance"
	StateAnalyzingMapping   State = "analyzing_mapping"
	StateReadyToFill        State = "ready_to_fill"
	StateFilled             State = "filled"
	StateError              State = "error"
)

// Detector runs one detection pass.
type Detector interface {
	Detect(ctx context.Context) (*schemas.DetectionResult, error)
}

// FieldMapper is the two-stage AI collaborator.
type FieldMapper interface {
	AnalyzeRelevance(ctx context.Context, req schemas.RelevanceRequest) (*schemas.RelevanceResult, error)
	MapFields(ctx context.Context, req schemas.MappingRequest) (*schemas.MappingResult, error)
}

// Filler writes mapped values back into the live page.
type Filler interface {
	Fill(ctx context.Context, mappings []schemas.FieldMapping) *schemas.FillReport
	ClearAll() int
	Reset()
}

// Orchestrator is the workflow state machine. It never auto-advances except
// in batch mode; each stage is triggered by the surrounding UI.
type Orchestrator struct {
	cfg      config.WorkflowConfig
	detector Detector
	mapper   FieldMapper
	filler   Filler
	logger   *zap.Logger

	mu           sync.Mutex
	state        State
	lastErr      error
	detection    *schemas.DetectionResult
	analysis     *schemas.RelevanceResult
	mapping      *schemas.MappingResult
	content      string
	dataSources  []schemas.DataSource
	selectedForm string
}

// New creates an orchestrator in the idle state.
func New(cfg config.WorkflowConfig, detector Detector, mapper FieldMapper, filler Filler, logger *zap.Logger) (*Orchestrator, error) {
	if detector == nil || mapper == nil || filler == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil collaborators")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:      cfg,
		detector: detector,
		mapper:   mapper,
		filler:   filler,
		logger:   logger.Named("workflow"),
		state:    StateIdle,
	}, nil
}

// State returns the current workflow state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastError returns the error that moved the workflow into StateError, if any.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// SetContent records the free-form user content fed to the mapper. Changing
// only the content keeps the last analysis when configured to.
func (o *Orchestrator) SetContent(content string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.content != content && !o.cfg.PreserveAnalysis {
		o.analysis = nil
	}
	o.content = content
	o.mapping = nil
}

// SetDataSources replaces the configured external data sources.
func (o *Orchestrator) SetDataSources(sources []schemas.DataSource) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dataSources = sources
}

// Detection returns the last detection result, if any.
func (o *Orchestrator) Detection() *schemas.DetectionResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.detection
}

// Mapping returns the last field mapping, if any.
func (o *Orchestrator) Mapping() *schemas.MappingResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mapping
}

// Detect runs a detection pass. Re-entering detection resets all downstream
// state; the previous pass's in-flight result is simply abandoned. In batch
// mode a successful detect with forms and available content auto-runs the
// analysis and mapping stages.
func (o *Orchestrator) Detect(ctx context.Context) (*schemas.DetectionResult, error) {
	o.setState(StateDetecting)

	result, err := o.detector.Detect(ctx)
	if err != nil {
		o.fail(fmt.Errorf("detection failed: %w", err))
		return nil, err
	}

	o.mu.Lock()
	preserved := o.analysis
	sameShape := o.cfg.PreserveAnalysis && sameFormIDs(o.detection, result)
	o.detection = result
	o.mapping = nil
	o.selectedForm = ""
	if sameShape {
		// Only the input content changed; the relevance analysis still
		// applies to this form set.
		o.analysis = preserved
	} else {
		o.analysis = nil
	}
	batch := o.cfg.BatchMode && len(result.Forms) > 0 && (o.content != "" || len(o.dataSources) > 0)
	o.mu.Unlock()

	o.setState(StateIdle)

	if batch {
		if _, err := o.Analyze(ctx); err != nil {
			return result, err
		}
		if _, err := o.MapFields(ctx); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Analyze runs the stage-1 relevance analysis over the detected forms.
func (o *Orchestrator) Analyze(ctx context.Context) (*schemas.RelevanceResult, error) {
	o.mu.Lock()
	detection := o.detection
	content := o.content
	o.mu.Unlock()

	if detection == nil || len(detection.Forms) == 0 {
		err := fmt.Errorf("no forms detected; run detection first")
		o.fail(err)
		return nil, err
	}

	o.setState(StateAnalyzingRelevance)
	analysis, err := o.mapper.AnalyzeRelevance(ctx, schemas.RelevanceRequest{
		Content:       content,
		FormStructure: *detection,
	})
	if err != nil {
		o.fail(fmt.Errorf("relevance analysis failed: %w", err))
		return nil, err
	}
	if analysis.LowConfidence {
		o.logger.Warn("Relevance analysis returned a low-confidence substitute result")
	}

	o.mu.Lock()
	o.analysis = analysis
	o.selectedForm = recommendedFormID(analysis, detection)
	o.mu.Unlock()
	o.setState(StateAnalyzingMapping)
	return analysis, nil
}

// SelectForm overrides the recommended form before mapping.
func (o *Orchestrator) SelectForm(formID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.detection == nil {
		return fmt.Errorf("no forms detected; run detection first")
	}
	for _, form := range o.detection.Forms {
		if form.ID == formID {
			o.selectedForm = formID
			o.mapping = nil
			return nil
		}
	}
	return fmt.Errorf("unknown form id %q", formID)
}

// MapFields runs the stage-2 field mapping for the selected form.
func (o *Orchestrator) MapFields(ctx context.Context) (*schemas.MappingResult, error) {
	o.mu.Lock()
	detection := o.detection
	analysis := o.analysis
	content := o.content
	sources := o.dataSources
	formID := o.selectedForm
	o.mu.Unlock()

	if detection == nil || formID == "" {
		err := fmt.Errorf("no form selected; run analysis first")
		o.fail(err)
		return nil, err
	}
	form, ok := findForm(detection, formID)
	if !ok {
		err := fmt.Errorf("selected form %q is no longer in the detection result", formID)
		o.fail(err)
		return nil, err
	}

	o.setState(StateAnalyzingMapping)
	mapping, err := o.mapper.MapFields(ctx, schemas.MappingRequest{
		Content:        content,
		SelectedForm:   form,
		AnalysisResult: analysis,
		DataSources:    sources,
	})
	if err != nil {
		o.fail(fmt.Errorf("field mapping failed: %w", err))
		return nil, err
	}
	if mapping.LowConfidence {
		o.logger.Warn("Field mapping returned a low-confidence substitute result")
	}

	o.mu.Lock()
	o.mapping = mapping
	o.mu.Unlock()
	o.setState(StateReadyToFill)
	return mapping, nil
}

// Fill writes the current mapping into the page, or an explicit mapping list
// supplied by the caller (the fillForms bridge action).
func (o *Orchestrator) Fill(ctx context.Context, explicit []schemas.FieldMapping) (*schemas.FillReport, error) {
	mappings := explicit
	if mappings == nil {
		o.mu.Lock()
		if o.mapping != nil {
			mappings = o.mapping.FieldMappings
		}
		o.mu.Unlock()
	}
	if len(mappings) == 0 {
		err := fmt.Errorf("no field mappings available; run mapping first")
		o.fail(err)
		return nil, err
	}

	report := o.filler.Fill(ctx, mappings)
	o.setState(StateFilled)
	return report, nil
}

// ClearFilled resets every control written during this session.
func (o *Orchestrator) ClearFilled() int {
	cleared := o.filler.ClearAll()
	o.setState(StateReadyToFill)
	return cleared
}

// Reset returns the workflow to idle and discards all pass state.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.detection = nil
	o.analysis = nil
	o.mapping = nil
	o.selectedForm = ""
	o.lastErr = nil
	o.state = StateIdle
	o.mu.Unlock()
	o.filler.Reset()
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) fail(err error) {
	o.logger.Error("Workflow error", zap.Error(err))
	o.mu.Lock()
	o.state = StateError
	o.lastErr = err
	o.mu.Unlock()
}

func findForm(detection *schemas.DetectionResult, formID string) (schemas.FormRecord, bool) {
	for _, form := range detection.Forms {
		if form.ID == formID {
			return form, true
		}
	}
	return schemas.FormRecord{}, false
}

// recommendedFormID prefers the collaborator's recommendation, falling back
// to its highest-scored known form, then the first detected form.
func recommendedFormID(analysis *schemas.RelevanceResult, detection *schemas.DetectionResult) string {
	if analysis.RecommendedForm != "" {
		if _, ok := findForm(detection, analysis.RecommendedForm); ok {
			return analysis.RecommendedForm
		}
	}
	best := ""
	bestScore := -1.0
	for _, rel := range analysis.RelevantForms {
		if rel.Score > bestScore {
			if _, ok := findForm(detection, rel.FormID); ok {
				best = rel.FormID
				bestScore = rel.Score
			}
		}
	}
	if best != "" {
		return best
	}
	if len(detection.Forms) > 0 {
		return detection.Forms[0].ID
	}
	return ""
}

func sameFormIDs(previous, current *schemas.DetectionResult) bool {
	if previous == nil || current == nil || len(previous.Forms) != len(current.Forms) {
		return false
	}
	for i := range previous.Forms {
		if previous.Forms[i].ID != current.Forms[i].ID {
			return false
		}
	}
	return true
}
