// internal/fill/strategies.go
package fill

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/api/schemas"
	"github.com/hddevteam/smart-form-filler/internal/detect"
	"github.com/hddevteam/smart-form-filler/internal/dom"
)

// resolutionStrategy is one way of re-finding a mapped element in the target
// document. Strategies return (nil, false) when they do not apply or do not
// resolve; only the resolver's ordering decides precedence.
type resolutionStrategy struct {
	name    string
	resolve func(doc *dom.Document, m schemas.FieldMapping) (*html.Node, bool)
}

// resolutionOrder is the fixed strategy list, tried in slice order with the
// first match winning. Kept as data so it is independently testable and
// reorderable without touching control flow.
var resolutionOrder = []resolutionStrategy{
	{name: "name", resolve: resolveByName},
	{name: "xpath", resolve: resolveByXPath},
	{name: "aria-labelledby", resolve: resolveByAriaLabelledBy},
	{name: "placeholder", resolve: resolveByPlaceholder},
	{name: "original-id", resolve: resolveByOriginalID},
	{name: "css-selector", resolve: resolveByCSSSelector},
	{name: "escaped-id", resolve: resolveByEscapedID},
	{name: "class-combination", resolve: resolveByClassCombination},
	{name: "label-text", resolve: resolveByLabelText},
}

// resolveElement runs the strategy list and returns the first resolved
// element together with the winning strategy name.
func resolveElement(doc *dom.Document, m schemas.FieldMapping) (*html.Node, string) {
	for _, strategy := range resolutionOrder {
		if node, ok := strategy.resolve(doc, m); ok {
			return node, strategy.name
		}
	}
	return nil, ""
}

var xpathNamePattern = regexp.MustCompile(`@name=["']([^"']+)["']`)

func resolveByName(doc *dom.Document, m schemas.FieldMapping) (*html.Node, bool) {
	name := m.Name
	if name == "" {
		if v, ok := m.Locators.Find(schemas.LocatorByName); ok {
			name = v
		}
	}
	if name == "" {
		// The carried xpath often embeds the name even when the field is not
		// set; recover it from there.
		if match := xpathNamePattern.FindStringSubmatch(m.XPath); match != nil {
			name = match[1]
		}
	}
	if name == "" {
		return nil, false
	}
	return uniqueMatch(doc.Root, fmt.Sprintf("//*[@name=%s]", detect.XPathLiteral(name)))
}

func resolveByXPath(doc *dom.Document, m schemas.FieldMapping) (*html.Node, bool) {
	xpath := m.XPath
	if xpath == "" {
		if v, ok := m.Locators.Find(schemas.LocatorByXPath); ok {
			xpath = v
		}
	}
	if xpath == "" {
		return nil, false
	}
	node, err := dom.QueryOne(doc.Root, xpath)
	if err != nil || node == nil {
		return nil, false
	}
	return node, true
}

func resolveByAriaLabelledBy(doc *dom.Document, m schemas.FieldMapping) (*html.Node, bool) {
	v, ok := m.Locators.Find(schemas.LocatorByAriaLabel)
	if !ok || v == "" {
		return nil, false
	}
	return uniqueMatch(doc.Root, fmt.Sprintf("//*[@aria-labelledby=%s]", detect.XPathLiteral(v)))
}

func resolveByPlaceholder(doc *dom.Document, m schemas.FieldMapping) (*html.Node, bool) {
	v, ok := m.Locators.Find(schemas.LocatorByPlaceholder)
	if !ok || v == "" {
		return nil, false
	}
	return uniqueMatch(doc.Root, fmt.Sprintf("//*[@placeholder=%s]", detect.XPathLiteral(v)))
}

func resolveByOriginalID(doc *dom.Document, m schemas.FieldMapping) (*html.Node, bool) {
	v, ok := m.Locators.Find(schemas.LocatorByOriginalID)
	if !ok || v == "" {
		// The field id doubles as the DOM id unless it is a synthetic
		// fallback, which never exists in the document.
		if strings.HasPrefix(m.FieldID, "field-") {
			return nil, false
		}
		v = m.FieldID
	}
	if v == "" {
		return nil, false
	}
	return uniqueMatch(doc.Root, fmt.Sprintf("//*[@id=%s]", detect.XPathLiteral(v)))
}

func resolveByCSSSelector(doc *dom.Document, m schemas.FieldMapping) (*html.Node, bool) {
	v, ok := m.Locators.Find(schemas.LocatorByCSSSelector)
	if !ok || v == "" {
		return nil, false
	}
	xpath, ok := cssToXPath(v)
	if !ok {
		// Unsupported selector syntax is a non-match, not an error.
		return nil, false
	}
	return uniqueMatch(doc.Root, xpath)
}

func resolveByEscapedID(doc *dom.Document, m schemas.FieldMapping) (*html.Node, bool) {
	v, ok := m.Locators.Find(schemas.LocatorByEscapedID)
	if !ok || !strings.HasPrefix(v, "#") {
		return nil, false
	}
	id := cssUnescape(strings.TrimPrefix(v, "#"))
	if id == "" {
		return nil, false
	}
	return uniqueMatch(doc.Root, fmt.Sprintf("//*[@id=%s]", detect.XPathLiteral(id)))
}

func resolveByClassCombination(doc *dom.Document, m schemas.FieldMapping) (*html.Node, bool) {
	v, ok := m.Locators.Find(schemas.LocatorByClassCombo)
	if !ok || v == "" {
		return nil, false
	}
	classes := strings.Fields(v)
	if len(classes) == 0 {
		return nil, false
	}

	// Prefer the class that looks control-specific; otherwise the first one.
	chosen := classes[0]
	for _, c := range classes {
		lower := strings.ToLower(c)
		if strings.Contains(lower, "textbox") || strings.Contains(lower, "input") || strings.Contains(lower, "field") {
			chosen = c
			break
		}
	}
	expr := fmt.Sprintf(`//*[contains(concat(" ", normalize-space(@class), " "), %s)]`,
		detect.XPathLiteral(" "+chosen+" "))
	return uniqueMatch(doc.Root, expr)
}

// resolveByLabelText finds a label whose text contains the recorded label and
// follows its for attribute or nested control. First match wins; shared
// substrings across a long form can mismatch, a known heuristic limit.
func resolveByLabelText(doc *dom.Document, m schemas.FieldMapping) (*html.Node, bool) {
	label := m.Label
	if label == "" {
		if v, ok := m.Locators.Find(schemas.LocatorByLabelText); ok {
			label = v
		}
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, false
	}

	labels, err := dom.Query(doc.Root, "//label")
	if err != nil {
		return nil, false
	}
	for _, labelNode := range labels {
		if !strings.Contains(dom.InnerText(labelNode), label) {
			continue
		}
		if forID := dom.Attr(labelNode, "for"); forID != "" {
			expr := fmt.Sprintf("//*[@id=%s]", detect.XPathLiteral(forID))
			if node, err := dom.QueryOne(doc.Root, expr); err == nil && node != nil {
				return node, true
			}
		}
		if nested, err := dom.QueryOne(labelNode, ".//input | .//textarea | .//select"); err == nil && nested != nil {
			return nested, true
		}
	}
	return nil, false
}

// uniqueMatch resolves an XPath expression only when it matches exactly one
// element.
func uniqueMatch(root *html.Node, expr string) (*html.Node, bool) {
	nodes, err := dom.Query(root, expr)
	if err != nil || len(nodes) != 1 {
		return nil, false
	}
	return nodes[0], true
}

// cssToXPath translates the generated tag.class selectors into XPath. Only
// that shape is supported; anything else is reported as not applicable.
var cssSelectorPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9]*)?((?:\.[^.\s]+)*)$`)

func cssToXPath(selector string) (string, bool) {
	match := cssSelectorPattern.FindStringSubmatch(strings.TrimSpace(selector))
	if match == nil || (match[1] == "" && match[2] == "") {
		return "", false
	}
	tag := match[1]
	if tag == "" {
		tag = "*"
	}
	expr := "//" + strings.ToLower(tag)
	if match[2] != "" {
		for _, cls := range strings.Split(strings.TrimPrefix(match[2], "."), ".") {
			cls = cssUnescape(cls)
			if cls == "" {
				return "", false
			}
			expr += fmt.Sprintf(`[contains(concat(" ", normalize-space(@class), " "), %s)]`,
				detect.XPathLiteral(" "+cls+" "))
		}
	}
	return expr, true
}

// cssUnescape reverses identifier escaping: backslash escapes of single
// characters and hex escape sequences.
func cssUnescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			break
		}
		if isHexDigit(s[i]) {
			start := i
			for i < len(s) && i-start < 6 && isHexDigit(s[i]) {
				i++
			}
			var code rune
			fmt.Sscanf(s[start:i], "%x", &code)
			b.WriteRune(code)
			// A single trailing space terminates the hex escape.
			if i < len(s) && s[i] != ' ' {
				i--
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
