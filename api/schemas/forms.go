// api/schemas/forms.go
package schemas

// FormSource identifies which document a form was detected in.
type FormSource string

const (
	SourceMain   FormSource = "main"
	SourceIframe FormSource = "iframe"
)

// Category is the semantic classification of a field, used for UI hinting
// and relevance scoring. It is never used to locate elements.
type Category string

const (
	CategoryText        Category = "text"
	CategoryEmail       Category = "email"
	CategoryPhone       Category = "phone"
	CategoryDate        Category = "date"
	CategoryName        Category = "name"
	CategoryAddress     Category = "address"
	CategoryCompany     Category = "company"
	CategoryIDNumber    Category = "idnumber"
	CategoryURL         Category = "url"
	CategoryNumber      Category = "number"
	CategoryPassword    Category = "password"
	CategorySelect      Category = "select"
	CategoryCheckbox    Category = "checkbox"
	CategoryRadio       Category = "radio"
	CategoryDescription Category = "description"
)

// LocatorKind names a single element re-location strategy.
type LocatorKind string

const (
	LocatorByName         LocatorKind = "name"
	LocatorByXPath        LocatorKind = "xpath"
	LocatorByAriaLabel    LocatorKind = "aria-labelledby"
	LocatorByPlaceholder  LocatorKind = "placeholder"
	LocatorByOriginalID   LocatorKind = "original-id"
	LocatorByCSSSelector  LocatorKind = "css-selector"
	LocatorByEscapedID    LocatorKind = "escaped-id"
	LocatorByClassCombo   LocatorKind = "class-combination"
	LocatorByLabelText    LocatorKind = "label-text"
)

// Locator is one strategy for re-finding an element after a round trip
// through the mapper.
type Locator struct {
	Kind  LocatorKind `json:"kind"`
	Value string      `json:"value"`
}

// LocatorSet is the ranked list of strategies for a field. Entries are tried
// in slice order; the first one resolving to exactly one element wins.
type LocatorSet []Locator

// Find returns the value of the first locator of the given kind, if present.
func (ls LocatorSet) Find(kind LocatorKind) (string, bool) {
	for _, l := range ls {
		if l.Kind == kind {
			return l.Value, true
		}
	}
	return "", false
}

// BoundingBox is a geometry snapshot taken at detection time.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FieldRecord models one fillable control. It is created during detection and
// immutable afterwards; the filler only reads it.
type FieldRecord struct {
	ID          string      `json:"id"`
	OriginalID  string      `json:"originalId,omitempty"`
	Name        string      `json:"name,omitempty"`
	Tag         string      `json:"tag"`
	Type        string      `json:"type,omitempty"`
	Class       string      `json:"class,omitempty"`
	Label       string      `json:"label,omitempty"`
	Title       string      `json:"title,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Required    bool        `json:"required"`
	Disabled    bool        `json:"disabled"`
	ReadOnly    bool        `json:"readonly"`
	Visible     bool        `json:"visible"`
	Editable    bool        `json:"editable"`
	Box         BoundingBox `json:"box"`
	Category    Category    `json:"category"`
	Source      FormSource  `json:"source"`
	FramePath   string      `json:"framePath,omitempty"`
	Locators    LocatorSet  `json:"locators"`
	XPath       string      `json:"xpath,omitempty"`
}

// FormRecord models a detected form element, or a synthetic container for
// standalone fields found outside any form.
type FormRecord struct {
	ID          string        `json:"id"`
	Source      FormSource    `json:"source"`
	FramePath   string        `json:"framePath,omitempty"`
	Name        string        `json:"name,omitempty"`
	Action      string        `json:"action,omitempty"`
	Method      string        `json:"method,omitempty"`
	Description string        `json:"description,omitempty"`
	Standalone  bool          `json:"standalone,omitempty"`
	Fields      []FieldRecord `json:"fields"`
}

// DetectionStats aggregates per-pass counters.
type DetectionStats struct {
	TotalForms       int              `json:"totalForms"`
	TotalFields      int              `json:"totalFields"`
	FillableFields   int              `json:"fillableFields"`
	FormsBySource    map[string]int   `json:"formsBySource"`
	FieldsByCategory map[string]int   `json:"fieldsByCategory"`
	FramesVisited    int              `json:"framesVisited"`
	FramesSkipped    int              `json:"framesSkipped"`
}

// DetectionResult is the full output of one detection pass. A fresh result is
// produced on every pass; results are never persisted.
type DetectionResult struct {
	Forms    []FormRecord   `json:"forms"`
	Fillable []FieldRecord  `json:"fillableFields"`
	Stats    DetectionStats `json:"stats"`
	PageURL  string         `json:"pageUrl,omitempty"`
}

// FieldMapping is the filler's external input: one suggested value plus enough
// of the original FieldRecord's locator context that filling does not require
// a fresh detection pass.
type FieldMapping struct {
	FieldID        string     `json:"fieldId"`
	XPath          string     `json:"xpath,omitempty"`
	Name           string     `json:"name,omitempty"`
	Label          string     `json:"label,omitempty"`
	Source         FormSource `json:"source,omitempty"`
	FramePath      string     `json:"framePath,omitempty"`
	Locators       LocatorSet `json:"locators,omitempty"`
	SuggestedValue string     `json:"suggestedValue"`
}

// FillStatus is the per-field outcome of a fill attempt.
type FillStatus string

const (
	FillStatusFilled  FillStatus = "filled"
	FillStatusFailed  FillStatus = "failed"
	FillStatusSkipped FillStatus = "skipped"
)

// FillOutcome records what happened to a single mapping.
type FillOutcome struct {
	FieldID string     `json:"fieldId"`
	Status  FillStatus `json:"status"`
	Value   string     `json:"value,omitempty"`
	Reason  string     `json:"reason,omitempty"`
}

// FillReport aggregates a whole fill batch. A single failing entry never
// aborts the batch.
type FillReport struct {
	Filled  []FillOutcome `json:"filled"`
	Failed  []FillOutcome `json:"failed"`
	Skipped []FillOutcome `json:"skipped"`
}

// Counts returns the (filled, failed, skipped) totals.
func (r *FillReport) Counts() (int, int, int) {
	return len(r.Filled), len(r.Failed), len(r.Skipped)
}

// Add routes an outcome into the matching bucket.
func (r *FillReport) Add(outcome FillOutcome) {
	switch outcome.Status {
	case FillStatusFilled:
		r.Filled = append(r.Filled, outcome)
	case FillStatusSkipped:
		r.Skipped = append(r.Skipped, outcome)
	default:
		r.Failed = append(r.Failed, outcome)
	}
}
