// internal/detect/xpath.go
package detect

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/internal/dom"
)

// maxXPathAncestors caps how far the structural XPath climbs before giving up
// on finding an identifying anchor and settling for a relative path.
const maxXPathAncestors = 6

// XPathLiteral quotes s for embedding in an XPath expression. Values are
// double quoted; a value containing both quote kinds falls back to concat().
func XPathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	var parts []string
	for _, chunk := range strings.SplitAfter(s, `"`) {
		if strings.HasSuffix(chunk, `"`) {
			if trimmed := strings.TrimSuffix(chunk, `"`); trimmed != "" {
				parts = append(parts, `"`+trimmed+`"`)
			}
			parts = append(parts, `'"'`)
		} else if chunk != "" {
			parts = append(parts, `"`+chunk+`"`)
		}
	}
	return "concat(" + strings.Join(parts, ", ") + ")"
}

// GenerateXPath builds a structural XPath for a node. The first unique
// identifying attribute found at any ancestor level anchors the path and
// stops the climb; otherwise each level contributes tag[position], with the
// ancestor chain capped at maxXPathAncestors.
func GenerateXPath(node *html.Node) string {
	if node == nil {
		return ""
	}

	var segments []string
	levels := 0
	anchored := false

	for n := node; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		tag := dom.TagName(n)
		if tag == "" {
			continue
		}

		if id := dom.Attr(n, "id"); id != "" {
			segments = append(segments, fmt.Sprintf("//*[@id=%s]", XPathLiteral(id)))
			anchored = true
			break
		}

		levels++
		if levels > maxXPathAncestors {
			break
		}

		segments = append(segments, fmt.Sprintf("%s[%d]", tag, siblingIndex(n, tag)))
	}

	if len(segments) == 0 {
		return ""
	}

	// Reverse: collected leaf-first.
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	xpath := strings.Join(segments, "/")
	if anchored {
		return xpath
	}
	if levels > maxXPathAncestors {
		// Ran out of levels without an anchor: search from anywhere.
		return "//" + xpath
	}
	return "/" + xpath
}

// siblingIndex is the 1-based position of n among preceding siblings with the
// same tag, as XPath counts them.
func siblingIndex(n *html.Node, tag string) int {
	index := 1
	for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
		if prev.Type == html.ElementNode && dom.TagName(prev) == tag {
			index++
		}
	}
	return index
}
