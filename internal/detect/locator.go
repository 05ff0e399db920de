// internal/detect/locator.go
package detect

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/api/schemas"
	"github.com/hddevteam/smart-form-filler/internal/dom"
)

// volatileClasses are state classes that churn at runtime and must never end
// up in a selector.
var volatileClasses = map[string]bool{
	"focus": true, "focused": true, "active": true, "hover": true,
	"error": true, "invalid": true, "valid": true, "dirty": true,
	"touched": true, "selected": true, "highlight": true, "disabled": true,
}

// CSSEscapeIdent escapes a string for use as a CSS identifier, following the
// CSS.escape() serialization rules.
func CSSEscapeIdent(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == 0:
			b.WriteRune('�')
		case r >= '0' && r <= '9' && i == 0:
			fmt.Fprintf(&b, `\%x `, r)
		case r == '-' && i == 0 && len(s) == 1:
			b.WriteString(`\-`)
		case r >= 0x80 || r == '-' || r == '_' ||
			(r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\%x `, r)
		default:
			b.WriteRune('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stableClasses filters an element's class list down to classes safe to lean
// on for relocation.
func stableClasses(node *html.Node) []string {
	var classes []string
	for _, c := range strings.Fields(dom.Attr(node, "class")) {
		if !volatileClasses[strings.ToLower(c)] {
			classes = append(classes, c)
		}
	}
	return classes
}

// GenerateLocators produces the ranked strategy set for re-finding a control
// after its record has round-tripped through the mapper. For an element with
// a non-empty id, name, or aria-labelledby at least one emitted strategy
// uniquely resolves it at generation time.
func GenerateLocators(node *html.Node, label string) schemas.LocatorSet {
	var set schemas.LocatorSet

	if id := dom.Attr(node, "id"); id != "" {
		set = append(set,
			schemas.Locator{Kind: schemas.LocatorByOriginalID, Value: id},
			schemas.Locator{Kind: schemas.LocatorByEscapedID, Value: "#" + CSSEscapeIdent(id)},
		)
	}
	if name := dom.Attr(node, "name"); name != "" {
		set = append(set, schemas.Locator{Kind: schemas.LocatorByName, Value: name})
	}
	if labelledBy := dom.Attr(node, "aria-labelledby"); labelledBy != "" {
		set = append(set, schemas.Locator{Kind: schemas.LocatorByAriaLabel, Value: labelledBy})
	}
	if placeholder := dom.Attr(node, "placeholder"); placeholder != "" {
		set = append(set, schemas.Locator{Kind: schemas.LocatorByPlaceholder, Value: placeholder})
	}

	if classes := stableClasses(node); len(classes) > 0 {
		var sel strings.Builder
		sel.WriteString(dom.TagName(node))
		for _, c := range classes {
			sel.WriteString("." + CSSEscapeIdent(c))
		}
		set = append(set, schemas.Locator{Kind: schemas.LocatorByCSSSelector, Value: sel.String()})
		set = append(set, schemas.Locator{Kind: schemas.LocatorByClassCombo, Value: strings.Join(classes, " ")})
	}

	if label != "" {
		set = append(set, schemas.Locator{Kind: schemas.LocatorByLabelText, Value: label})
	}

	if xpath := GenerateXPath(node); xpath != "" {
		set = append(set, schemas.Locator{Kind: schemas.LocatorByXPath, Value: xpath})
	}
	return set
}
