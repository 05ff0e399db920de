package detect

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/hddevteam/smart-form-filler/internal/dom"
)

// parseFixture parses markup and returns the root plus the node matched by
// the expression.
func parseFixture(t *testing.T, markup, expr string) (*html.Node, *html.Node) {
	t.Helper()
	root, err := htmlquery.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	node, err := dom.QueryOne(root, expr)
	require.NoError(t, err)
	require.NotNil(t, node, "fixture query %q matched nothing", expr)
	return root, node
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Plain", "email", `"email"`},
		{"With Single Quote", "it's", `"it's"`},
		{"With Double Quote", `say "hi"`, `'say "hi"'`},
		{"Both Quote Kinds", `a"b'c`, `concat("a", '"', "b'c")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, XPathLiteral(tt.input))
		})
	}
}

func TestGenerateXPath_IDAnchor(t *testing.T) {
	root, node := parseFixture(t,
		`<html><body><div><input id="email" name="email"></div></body></html>`,
		`//input`)

	xpath := GenerateXPath(node)
	assert.Equal(t, `//*[@id="email"]`, xpath)

	resolved, err := dom.QueryOne(root, xpath)
	require.NoError(t, err)
	assert.Same(t, node, resolved)
}

func TestGenerateXPath_AncestorIDAnchor(t *testing.T) {
	root, node := parseFixture(t,
		`<html><body><div id="container"><p><input name="inner"></p></div></body></html>`,
		`//input`)

	xpath := GenerateXPath(node)
	assert.True(t, strings.HasPrefix(xpath, `//*[@id="container"]/`), "got %q", xpath)

	resolved, err := dom.QueryOne(root, xpath)
	require.NoError(t, err)
	assert.Same(t, node, resolved)
}

func TestGenerateXPath_PositionalSegments(t *testing.T) {
	root, _ := parseFixture(t,
		`<html><body><div><input name="a"><input name="b"></div></body></html>`,
		`//body`)

	inputs, err := dom.Query(root, "//input")
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	first := GenerateXPath(inputs[0])
	second := GenerateXPath(inputs[1])
	assert.NotEqual(t, first, second, "siblings must get distinct paths")
	assert.Contains(t, second, "input[2]")

	resolved, err := dom.QueryOne(root, second)
	require.NoError(t, err)
	assert.Same(t, inputs[1], resolved)
}

func TestGenerateXPath_DeepUnanchored(t *testing.T) {
	// Nesting deeper than the ancestor cap without any id: the path becomes
	// a relative search.
	markup := `<html><body><div><div><div><div><div><div><div><input></div></div></div></div></div></div></div></body></html>`
	root, node := parseFixture(t, markup, `//input`)

	xpath := GenerateXPath(node)
	assert.True(t, strings.HasPrefix(xpath, "//"), "got %q", xpath)

	resolved, err := dom.QueryOne(root, xpath)
	require.NoError(t, err)
	assert.Same(t, node, resolved)
}

func TestGenerateXPath_NilNode(t *testing.T) {
	assert.Equal(t, "", GenerateXPath(nil))
}
