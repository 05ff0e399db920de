// internal/detect/validity.go
package detect

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/api/schemas"
	"github.com/hddevteam/smart-form-filler/internal/dom"
)

// denylistKeywords excludes security and bookkeeping fields (and
// honeypot-looking ones) from the fillable set.
var denylistKeywords = []string{
	"captcha", "csrf", "xsrf", "token", "nonce", "honeypot", "honey_pot",
	"hp_field", "bot_field", "antispam", "anti_spam", "challenge", "verification_code",
}

// readonlyClassPattern matches class names frameworks use for effectively
// read-only controls.
var readonlyClassPattern = regexp.MustCompile(`(?i)read-?only|uneditable|not-?editable`)

// nonFillableTypes are input types that are never written to. file is
// excluded for security reasons; the rest are not data entry.
var nonFillableTypes = map[string]bool{
	"button": true, "submit": true, "reset": true, "image": true,
	"file": true, "hidden": true,
}

// Validity captures the pieces of the fillable predicate that require the
// live node; everything else is derivable from the record itself.
type Validity struct {
	Visible  bool
	Editable bool
	Box      schemas.BoundingBox
}

// Default synthesized geometry for documents without layout information.
// A live-browser loader overrides these with real bounding boxes.
var defaultBoxes = map[string]schemas.BoundingBox{
	"checkbox": {Width: 20, Height: 20},
	"radio":    {Width: 20, Height: 20},
	"textarea": {Width: 300, Height: 80},
	"select":   {Width: 200, Height: 28},
}

// InspectControl derives visibility, editability and a bounding-box snapshot
// from the node and its inline styles.
func InspectControl(node *html.Node) Validity {
	style := parseInlineStyle(dom.Attr(node, "style"))
	typ := strings.ToLower(dom.Attr(node, "type"))

	visible := true
	if style["display"] == "none" || style["visibility"] == "hidden" {
		visible = false
	}
	if opacity, err := strconv.ParseFloat(style["opacity"], 64); err == nil && opacity <= 0 {
		visible = false
	}
	if dom.HasAttr(node, "hidden") || typ == "hidden" {
		visible = false
	}

	editable := true
	if dom.HasAttr(node, "disabled") || dom.HasAttr(node, "readonly") {
		editable = false
	}
	if typ == "hidden" {
		editable = false
	}
	if readonlyClassPattern.MatchString(dom.Attr(node, "class")) {
		editable = false
	}
	if style["pointer-events"] == "none" {
		editable = false
	}

	return Validity{
		Visible:  visible,
		Editable: editable,
		Box:      boundingBox(node, style, visible),
	}
}

// boundingBox snapshots geometry. Without a layout engine the box comes from
// explicit inline dimensions, falling back to per-kind defaults; hidden
// elements get a zero box.
func boundingBox(node *html.Node, style map[string]string, visible bool) schemas.BoundingBox {
	if !visible {
		return schemas.BoundingBox{}
	}

	box := schemas.BoundingBox{Width: 200, Height: 28}
	tag := dom.TagName(node)
	typ := strings.ToLower(dom.Attr(node, "type"))
	if def, ok := defaultBoxes[typ]; ok {
		box = def
	} else if def, ok := defaultBoxes[tag]; ok {
		box = def
	}

	if w, ok := pixelValue(style["width"]); ok {
		box.Width = w
	} else if w, ok := pixelValue(dom.Attr(node, "width")); ok {
		box.Width = w
	}
	if h, ok := pixelValue(style["height"]); ok {
		box.Height = h
	} else if h, ok := pixelValue(dom.Attr(node, "height")); ok {
		box.Height = h
	}
	return box
}

func pixelValue(v string) (float64, bool) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

func parseInlineStyle(style string) map[string]string {
	props := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		if key != "" {
			props[key] = strings.ToLower(strings.TrimSpace(parts[1]))
		}
	}
	return props
}

// FillablePredicate is the pure validity check over a finished FieldRecord.
type FillablePredicate struct {
	MinBoxWidth   float64
	MinBoxHeight  float64
	ExtraDenylist []string
}

// DefaultFillablePredicate applies the built-in minimum control size.
func DefaultFillablePredicate() FillablePredicate {
	return FillablePredicate{MinBoxWidth: 20, MinBoxHeight: 15}
}

// IsFillable reports whether a field should be offered for filling. The
// predicate depends only on the record's own attributes.
func (p FillablePredicate) IsFillable(field schemas.FieldRecord) bool {
	if !field.Visible || !field.Editable {
		return false
	}
	if field.Tag == "input" && nonFillableTypes[strings.ToLower(field.Type)] {
		return false
	}
	if field.Tag == "button" {
		return false
	}
	if field.Box.Width < p.MinBoxWidth || field.Box.Height < p.MinBoxHeight {
		return false
	}
	return !p.denylisted(field)
}

func (p FillablePredicate) denylisted(field schemas.FieldRecord) bool {
	haystack := strings.ToLower(field.OriginalID + " " + field.Name + " " + field.Class)
	for _, keyword := range denylistKeywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	for _, keyword := range p.ExtraDenylist {
		if keyword != "" && strings.Contains(haystack, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
