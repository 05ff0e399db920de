package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hddevteam/smart-form-filler/api/schemas"
	"github.com/hddevteam/smart-form-filler/internal/config"
)

// -- Collaborator stubs --

type stubDetector struct {
	result *schemas.DetectionResult
	err    error
	calls  int
}

func (d *stubDetector) Detect(context.Context) (*schemas.DetectionResult, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.result, nil
}

type stubMapper struct {
	relevance     *schemas.RelevanceResult
	relevanceErr  error
	mapping       *schemas.MappingResult
	mappingErr    error
	analyzeCalls  int
	mapCalls      int
	lastMap       schemas.MappingRequest
	lastRelevance schemas.RelevanceRequest
}

func (m *stubMapper) AnalyzeRelevance(_ context.Context, req schemas.RelevanceRequest) (*schemas.RelevanceResult, error) {
	m.analyzeCalls++
	m.lastRelevance = req
	if m.relevanceErr != nil {
		return nil, m.relevanceErr
	}
	return m.relevance, nil
}

func (m *stubMapper) MapFields(_ context.Context, req schemas.MappingRequest) (*schemas.MappingResult, error) {
	m.mapCalls++
	m.lastMap = req
	if m.mappingErr != nil {
		return nil, m.mappingErr
	}
	return m.mapping, nil
}

type stubFiller struct {
	report     *schemas.FillReport
	fillCalls  int
	clearCalls int
	resetCalls int
	lastFill   []schemas.FieldMapping
}

func (f *stubFiller) Fill(_ context.Context, mappings []schemas.FieldMapping) *schemas.FillReport {
	f.fillCalls++
	f.lastFill = mappings
	if f.report != nil {
		return f.report
	}
	return &schemas.FillReport{}
}

func (f *stubFiller) ClearAll() int { f.clearCalls++; return 2 }
func (f *stubFiller) Reset()        { f.resetCalls++ }

// -- Fixtures --

func twoFormsDetection() *schemas.DetectionResult {
	return &schemas.DetectionResult{
		Forms: []schemas.FormRecord{
			{ID: "signup", Fields: []schemas.FieldRecord{{ID: "email"}}},
			{ID: "search", Fields: []schemas.FieldRecord{{ID: "q"}}},
		},
	}
}

func newTestOrchestrator(t *testing.T, cfg config.WorkflowConfig, d *stubDetector, m *stubMapper, f *stubFiller) *Orchestrator {
	t.Helper()
	o, err := New(cfg, d, m, f, zaptest.NewLogger(t))
	require.NoError(t, err)
	return o
}

// -- Tests --

func TestNew_RejectsNilCollaborators(t *testing.T) {
	_, err := New(config.WorkflowConfig{}, nil, &stubMapper{}, &stubFiller{}, nil)
	require.Error(t, err)
	_, err = New(config.WorkflowConfig{}, &stubDetector{}, nil, &stubFiller{}, nil)
	require.Error(t, err)
	_, err = New(config.WorkflowConfig{}, &stubDetector{}, &stubMapper{}, nil, nil)
	require.Error(t, err)
}

func TestOrchestrator_StartsIdle(t *testing.T) {
	o := newTestOrchestrator(t, config.WorkflowConfig{}, &stubDetector{}, &stubMapper{}, &stubFiller{})
	assert.Equal(t, StateIdle, o.State())
	assert.NoError(t, o.LastError())
}

func TestDetect_StoresResult(t *testing.T) {
	detector := &stubDetector{result: twoFormsDetection()}
	o := newTestOrchestrator(t, config.WorkflowConfig{}, detector, &stubMapper{}, &stubFiller{})

	result, err := o.Detect(context.Background())

	require.NoError(t, err)
	assert.Len(t, result.Forms, 2)
	assert.Equal(t, StateIdle, o.State())
	assert.Same(t, result, o.Detection())
}

func TestDetect_FailureentersErrorState(t *testing.T) {
	detector := &stubDetector{err: errors.New("browser gone")}
	o := newTestOrchestrator(t, config.WorkflowConfig{}, detector, &stubMapper{}, &stubFiller{})

	_, err := o.Detect(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateError, o.State())
	assert.ErrorContains(t, o.LastError(), "detection failed")
}

func TestAnalyze_RequiresDetection(t *testing.T) {
	o := newTestOrchestrator(t, config.WorkflowConfig{}, &stubDetector{}, &stubMapper{}, &stubFiller{})

	_, err := o.Analyze(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no forms detected; run detection first")
	assert.Equal(t, StateError, o.State())
}

func TestAnalyze_SelectsRecommendedForm(t *testing.T) {
	detector := &stubDetector{result: twoFormsDetection()}
	mapper := &stubMapper{
		relevance: &schemas.RelevanceResult{RecommendedForm: "search", Confidence: 0.9},
		mapping:   &schemas.MappingResult{FieldMappings: []schemas.FieldMapping{{FieldID: "q", SuggestedValue: "go"}}},
	}
	o := newTestOrchestrator(t, config.WorkflowConfig{}, detector, mapper, &stubFiller{})
	o.SetContent("query: go")

	_, err := o.Detect(context.Background())
	require.NoError(t, err)
	analysis, err := o.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "search", analysis.RecommendedForm)
	assert.Equal(t, "query: go", mapper.lastRelevance.Content)
	assert.Len(t, mapper.lastRelevance.FormStructure.Forms, 2)
	assert.Equal(t, StateAnalyzingMapping, o.State())

	// Mapping now targets the recommended form without an explicit select.
	mapping, err := o.MapFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "search", mapper.lastMap.SelectedForm.ID)
	assert.Len(t, mapping.FieldMappings, 1)
	assert.Equal(t, StateReadyToFill, o.State())
}

func TestAnalyze_FallsBackToHighestScore(t *testing.T) {
	detector := &stubDetector{result: twoFormsDetection()}
	mapper := &stubMapper{
		relevance: &schemas.RelevanceResult{
			// The recommendation names a form that no longer exists.
			RecommendedForm: "checkout",
			RelevantForms: []schemas.FormRelevance{
				{FormID: "signup", Score: 0.4},
				{FormID: "search", Score: 0.7},
			},
		},
		mapping: &schemas.MappingResult{},
	}
	o := newTestOrchestrator(t, config.WorkflowConfig{}, detector, mapper, &stubFiller{})

	_, err := o.Detect(context.Background())
	require.NoError(t, err)
	_, err = o.Analyze(context.Background())
	require.NoError(t, err)
	_, err = o.MapFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "search", mapper.lastMap.SelectedForm.ID)
}

func TestSelectForm(t *testing.T) {
	detector := &stubDetector{result: twoFormsDetection()}
	mapper := &stubMapper{
		relevance: &schemas.RelevanceResult{RecommendedForm: "signup"},
		mapping:   &schemas.MappingResult{},
	}
	o := newTestOrchestrator(t, config.WorkflowConfig{}, detector, mapper, &stubFiller{})

	_, err := o.Detect(context.Background())
	require.NoError(t, err)
	_, err = o.Analyze(context.Background())
	require.NoError(t, err)

	require.NoError(t, o.SelectForm("search"))
	_, err = o.MapFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "search", mapper.lastMap.SelectedForm.ID)

	assert.ErrorContains(t, o.SelectForm("bogus"), `unknown form id "bogus"`)
}

func TestSelectForm_RequiresDetection(t *testing.T) {
	o := newTestOrchestrator(t, config.WorkflowConfig{}, &stubDetector{}, &stubMapper{}, &stubFiller{})
	require.Error(t, o.SelectForm("signup"))
}

func TestMapFields_RequiresSelection(t *testing.T) {
	detector := &stubDetector{result: twoFormsDetection()}
	o := newTestOrchestrator(t, config.WorkflowConfig{}, detector, &stubMapper{}, &stubFiller{})

	_, err := o.Detect(context.Background())
	require.NoError(t, err)
	_, err = o.MapFields(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no form selected; run analysis first")
}

func TestFill_UsesStoredMapping(t *testing.T) {
	detector := &stubDetector{result: twoFormsDetection()}
	mapper := &stubMapper{
		relevance: &schemas.RelevanceResult{RecommendedForm: "signup"},
		mapping: &schemas.MappingResult{FieldMappings: []schemas.FieldMapping{
			{FieldID: "email", SuggestedValue: "a@b.com"},
		}},
	}
	filler := &stubFiller{report: &schemas.FillReport{
		Filled: []schemas.FillOutcome{{FieldID: "email", Status: schemas.FillStatusFilled}},
	}}
	o := newTestOrchestrator(t, config.WorkflowConfig{}, detector, mapper, filler)

	_, err := o.Detect(context.Background())
	require.NoError(t, err)
	_, err = o.Analyze(context.Background())
	require.NoError(t, err)
	_, err = o.MapFields(context.Background())
	require.NoError(t, err)

	report, err := o.Fill(context.Background(), nil)
	require.NoError(t, err)
	filled, _, _ := report.Counts()
	assert.Equal(t, 1, filled)
	assert.Equal(t, StateFilled, o.State())
	require.Len(t, filler.lastFill, 1)
	assert.Equal(t, "email", filler.lastFill[0].FieldID)
}

func TestFill_ExplicitMappingsBypassWorkflow(t *testing.T) {
	filler := &stubFiller{}
	o := newTestOrchestrator(t, config.WorkflowConfig{}, &stubDetector{}, &stubMapper{}, filler)

	// The bridge fillForms action carries its own mappings; no prior
	// detection or analysis is needed.
	_, err := o.Fill(context.Background(), []schemas.FieldMapping{
		{FieldID: "email", SuggestedValue: "a@b.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, filler.fillCalls)
	assert.Equal(t, StateFilled, o.State())
}

func TestFill_RequiresMappings(t *testing.T) {
	o := newTestOrchestrator(t, config.WorkflowConfig{}, &stubDetector{}, &stubMapper{}, &stubFiller{})

	_, err := o.Fill(context.Background(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no field mappings available; run mapping first")
	assert.Equal(t, StateError, o.State())
}

func TestDetect_BatchModeAutoRuns(t *testing.T) {
	detector := &stubDetector{result: twoFormsDetection()}
	mapper := &stubMapper{
		relevance: &schemas.RelevanceResult{RecommendedForm: "signup"},
		mapping:   &schemas.MappingResult{FieldMappings: []schemas.FieldMapping{{FieldID: "email"}}},
	}
	o := newTestOrchestrator(t, config.WorkflowConfig{BatchMode: true}, detector, mapper, &stubFiller{})
	o.SetContent("Email: a@b.com")

	_, err := o.Detect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, mapper.analyzeCalls)
	assert.Equal(t, 1, mapper.mapCalls)
	assert.Equal(t, StateReadyToFill, o.State())
	require.NotNil(t, o.Mapping())
}

func TestDetect_BatchModeNeedsContent(t *testing.T) {
	detector := &stubDetector{result: twoFormsDetection()}
	mapper := &stubMapper{}
	o := newTestOrchestrator(t, config.WorkflowConfig{BatchMode: true}, detector, mapper, &stubFiller{})

	_, err := o.Detect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, mapper.analyzeCalls)
	assert.Equal(t, StateIdle, o.State())
}

func TestDetect_BatchModeRunsOnDataSourcesAlone(t *testing.T) {
	detector := &stubDetector{result: twoFormsDetection()}
	mapper := &stubMapper{
		relevance: &schemas.RelevanceResult{RecommendedForm: "signup"},
		mapping:   &schemas.MappingResult{},
	}
	o := newTestOrchestrator(t, config.WorkflowConfig{BatchMode: true}, detector, mapper, &stubFiller{})
	o.SetDataSources([]schemas.DataSource{{ID: "frame-root", Markdown: "# Page"}})

	_, err := o.Detect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, mapper.analyzeCalls)
	require.Len(t, mapper.lastMap.DataSources, 1)
}

func TestDetect_PreservesAnalysisWhenFormsUnchanged(t *testing.T) {
	detector := &stubDetector{result: twoFormsDetection()}
	mapper := &stubMapper{
		relevance: &schemas.RelevanceResult{RecommendedForm: "signup", Confidence: 0.9},
		mapping:   &schemas.MappingResult{},
	}
	o := newTestOrchestrator(t, config.WorkflowConfig{PreserveAnalysis: true}, detector, mapper, &stubFiller{})

	_, err := o.Detect(context.Background())
	require.NoError(t, err)
	first, err := o.Analyze(context.Background())
	require.NoError(t, err)

	// Same form ids on the next pass, only the content changed.
	o.SetContent("different content")
	_, err = o.Detect(context.Background())
	require.NoError(t, err)

	// Re-detection clears the selection but keeps the analysis, so mapping
	// works after a plain re-select with no second analysis round trip.
	require.NoError(t, o.SelectForm("signup"))
	_, err = o.MapFields(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, mapper.lastMap.AnalysisResult)
	assert.Equal(t, 1, mapper.analyzeCalls)
}

func TestDetect_DropsAnalysisWhenFormsChange(t *testing.T) {
	detector := &stubDetector{result: twoFormsDetection()}
	mapper := &stubMapper{
		relevance: &schemas.RelevanceResult{RecommendedForm: "signup"},
		mapping:   &schemas.MappingResult{},
	}
	o := newTestOrchestrator(t, config.WorkflowConfig{PreserveAnalysis: true}, detector, mapper, &stubFiller{})

	_, err := o.Detect(context.Background())
	require.NoError(t, err)
	_, err = o.Analyze(context.Background())
	require.NoError(t, err)

	detector.result = &schemas.DetectionResult{
		Forms: []schemas.FormRecord{{ID: "checkout"}},
	}
	_, err = o.Detect(context.Background())
	require.NoError(t, err)

	// A new form set invalidates the analysis even with preservation on.
	require.NoError(t, o.SelectForm("checkout"))
	_, err = o.MapFields(context.Background())
	require.NoError(t, err)
	assert.Nil(t, mapper.lastMap.AnalysisResult)
}

func TestClearFilled(t *testing.T) {
	filler := &stubFiller{}
	o := newTestOrchestrator(t, config.WorkflowConfig{}, &stubDetector{}, &stubMapper{}, filler)

	cleared := o.ClearFilled()

	assert.Equal(t, 2, cleared)
	assert.Equal(t, 1, filler.clearCalls)
	assert.Equal(t, StateReadyToFill, o.State())
}

func TestReset(t *testing.T) {
	detector := &stubDetector{result: twoFormsDetection()}
	filler := &stubFiller{}
	o := newTestOrchestrator(t, config.WorkflowConfig{}, detector, &stubMapper{}, filler)

	_, err := o.Detect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, o.Detection())

	o.Reset()

	assert.Equal(t, StateIdle, o.State())
	assert.Nil(t, o.Detection())
	assert.Nil(t, o.Mapping())
	assert.NoError(t, o.LastError())
	assert.Equal(t, 1, filler.resetCalls)
}
