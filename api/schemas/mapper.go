// api/schemas/mapper.go
package schemas

// The mapper is an external AI collaborator. The core only defines the shapes
// it consumes and produces; prompt construction lives with the collaborator.

// RelevanceRequest is the stage-1 payload: rank the detected forms against the
// user's free-form content.
type RelevanceRequest struct {
	Content       string          `json:"content"`
	FormStructure DetectionResult `json:"formStructure"`
	PageHTML      string          `json:"pageHtml,omitempty"`
	Model         string          `json:"model,omitempty"`
	Language      string          `json:"language,omitempty"`
}

// FormRelevance scores one form against the content.
type FormRelevance struct {
	FormID string  `json:"formId"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// RelevanceResult is the stage-1 response.
type RelevanceResult struct {
	RelevantForms       []FormRelevance   `json:"relevantForms"`
	RecommendedForm     string            `json:"recommendedForm"`
	Confidence          float64           `json:"confidence"`
	FieldDescriptions   map[string]string `json:"fieldDescriptions,omitempty"`
	FormDescription     string            `json:"formDescription,omitempty"`
	RecommendedLanguage string            `json:"recommendedLanguage,omitempty"`
	// LowConfidence marks results substituted after a malformed collaborator
	// response; the workflow surfaces it as a warning, never an abort.
	LowConfidence bool `json:"lowConfidence,omitempty"`
}

// MappingRequest is the stage-2 payload: map content onto the chosen form.
type MappingRequest struct {
	Content        string           `json:"content"`
	SelectedForm   FormRecord       `json:"selectedForm"`
	Model          string           `json:"model,omitempty"`
	Language       string           `json:"language,omitempty"`
	AnalysisResult *RelevanceResult `json:"analysisResult,omitempty"`
	DataSources    []DataSource     `json:"dataSources,omitempty"`
}

// MappingResult is the stage-2 response.
type MappingResult struct {
	FieldMappings []FieldMapping `json:"fieldMappings"`
	Confidence    float64        `json:"confidence"`
	LowConfidence bool           `json:"lowConfidence,omitempty"`
}

// DataSource is one cleaned document fed to the mapper alongside the user's
// content (page extraction output, uploaded notes, ...).
type DataSource struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	Markdown string `json:"markdown"`
}
