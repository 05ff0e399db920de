// internal/dom/node.go
package dom

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Attr returns the value of an attribute, or "" when absent.
func Attr(n *html.Node, key string) string {
	return htmlquery.SelectAttr(n, key)
}

// HasAttr reports whether the attribute is present, regardless of value.
func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces an attribute value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// IsElement reports whether n is an element with the given (lowercase) tag.
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && strings.EqualFold(n.Data, tag)
}

// TagName returns the lowercase tag of an element node, or "".
func TagName(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}

// InnerText returns the trimmed concatenated text content of a node.
func InnerText(n *html.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.InnerText(n))
}

// SetInnerText replaces all children of n with a single text node.
func SetInnerText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Query evaluates an XPath expression, returning an error for invalid syntax
// instead of panicking.
func Query(root *html.Node, expr string) ([]*html.Node, error) {
	return htmlquery.QueryAll(root, expr)
}

// QueryOne evaluates an XPath expression and returns the first match or nil.
func QueryOne(root *html.Node, expr string) (*html.Node, error) {
	return htmlquery.Query(root, expr)
}
