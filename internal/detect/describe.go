// internal/detect/describe.go
package detect

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/internal/dom"
)

const (
	descSiblingLookback  = 5
	descAncestorLevels   = 3
	descParagraphMinLen  = 10
	descParagraphMaxLen  = 200
)

var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// officeTitleClasses are class fragments used by hosted form builders for the
// form title block.
var officeTitleClasses = []string{"form-title", "formtitle", "office-form-title", "questionnaire-title"}

// DescribeForm derives a human-readable description for a form. The heuristic
// chain is deliberate but not guaranteed optimal; first match wins: own title
// attribute, nearest preceding heading, legend, a recognized form-title class,
// a short preceding paragraph, the document title.
func DescribeForm(doc *dom.Document, form *html.Node) string {
	if title := strings.TrimSpace(dom.Attr(form, "title")); title != "" {
		return title
	}

	if heading := precedingHeading(form); heading != "" {
		return heading
	}

	if legend, err := dom.QueryOne(form, ".//legend"); err == nil && legend != nil {
		if text := dom.InnerText(legend); text != "" {
			return text
		}
	}

	if title := officeFormTitle(doc.Root); title != "" {
		return title
	}

	if para := precedingParagraph(form); para != "" {
		return para
	}

	return doc.Title()
}

// precedingHeading searches up to descSiblingLookback preceding siblings,
// then up to descAncestorLevels ancestor levels of preceding siblings, for a
// heading element.
func precedingHeading(form *html.Node) string {
	if text := headingAmongPrevSiblings(form, descSiblingLookback); text != "" {
		return text
	}
	node := form
	for level := 0; level < descAncestorLevels; level++ {
		node = node.Parent
		if node == nil {
			break
		}
		if text := headingAmongPrevSiblings(node, descSiblingLookback); text != "" {
			return text
		}
	}
	return ""
}

func headingAmongPrevSiblings(n *html.Node, limit int) string {
	seen := 0
	for prev := n.PrevSibling; prev != nil && seen < limit; prev = prev.PrevSibling {
		if prev.Type != html.ElementNode {
			continue
		}
		seen++
		if headingTags[dom.TagName(prev)] {
			if text := dom.InnerText(prev); text != "" {
				return text
			}
		}
		// A heading nested in a wrapper div still counts.
		for _, tag := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
			if nested, err := dom.QueryOne(prev, ".//"+tag); err == nil && nested != nil {
				if text := dom.InnerText(nested); text != "" {
					return text
				}
			}
		}
	}
	return ""
}

func officeFormTitle(root *html.Node) string {
	for _, fragment := range officeTitleClasses {
		expr := `//*[contains(@class, "` + fragment + `")]`
		if node, err := dom.QueryOne(root, expr); err == nil && node != nil {
			if text := dom.InnerText(node); text != "" {
				return text
			}
		}
	}
	return ""
}

func precedingParagraph(form *html.Node) string {
	for prev := form.PrevSibling; prev != nil; prev = prev.PrevSibling {
		if dom.IsElement(prev, "p") {
			text := dom.InnerText(prev)
			if len(text) >= descParagraphMinLen && len(text) <= descParagraphMaxLen {
				return text
			}
		}
	}
	return ""
}
