// internal/detect/labels.go
package detect

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/internal/dom"
)

const (
	nearbyTextMinLen = 2
	nearbyTextMaxLen = 50
)

// ResolveLabel derives a human-readable label for a control. The chain, first
// match wins: label[for=id], ancestor label, previous-sibling label,
// aria-label, aria-labelledby (referenced texts joined), a short nearby text
// node, empty string.
func ResolveLabel(root *html.Node, control *html.Node) string {
	if id := dom.Attr(control, "id"); id != "" {
		expr := fmt.Sprintf("//label[@for=%s]", XPathLiteral(id))
		if labelNode, err := dom.QueryOne(root, expr); err == nil && labelNode != nil {
			if text := dom.InnerText(labelNode); text != "" {
				return text
			}
		}
	}

	for n := control.Parent; n != nil; n = n.Parent {
		if dom.IsElement(n, "label") {
			if text := dom.InnerText(n); text != "" {
				return text
			}
			break
		}
	}

	for prev := control.PrevSibling; prev != nil; prev = prev.PrevSibling {
		if prev.Type != html.ElementNode {
			continue
		}
		if dom.IsElement(prev, "label") {
			if text := dom.InnerText(prev); text != "" {
				return text
			}
		}
		break
	}

	if aria := strings.TrimSpace(dom.Attr(control, "aria-label")); aria != "" {
		return aria
	}

	if labelledBy := dom.Attr(control, "aria-labelledby"); labelledBy != "" {
		var texts []string
		for _, refID := range strings.Fields(labelledBy) {
			expr := fmt.Sprintf("//*[@id=%s]", XPathLiteral(refID))
			if ref, err := dom.QueryOne(root, expr); err == nil && ref != nil {
				if text := dom.InnerText(ref); text != "" {
					texts = append(texts, text)
				}
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, " ")
		}
	}

	if text := nearbyText(control); text != "" {
		return text
	}
	return ""
}

// nearbyText scans the control's sibling container for a short text node that
// looks like an inline label.
func nearbyText(control *html.Node) string {
	parent := control.Parent
	if parent == nil {
		return ""
	}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c == control {
			continue
		}
		var text string
		switch c.Type {
		case html.TextNode:
			text = strings.TrimSpace(c.Data)
		case html.ElementNode:
			// Skip other form controls; their text is not a label.
			switch dom.TagName(c) {
			case "input", "textarea", "select", "button", "script", "style":
				continue
			}
			text = dom.InnerText(c)
		default:
			continue
		}
		if len(text) >= nearbyTextMinLen && len(text) <= nearbyTextMaxLen {
			return text
		}
	}
	return ""
}
