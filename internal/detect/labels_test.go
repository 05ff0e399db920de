package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLabel_ForAttribute(t *testing.T) {
	root, node := parseFixture(t,
		`<html><body><label for="email">Email Address</label><input id="email"></body></html>`,
		`//input`)
	assert.Equal(t, "Email Address", ResolveLabel(root, node))
}

func TestResolveLabel_AncestorLabel(t *testing.T) {
	root, node := parseFixture(t,
		`<html><body><label>Subscribe <input type="checkbox" name="sub"></label></body></html>`,
		`//input`)
	assert.Equal(t, "Subscribe", ResolveLabel(root, node))
}

func TestResolveLabel_PrecedingSiblingLabel(t *testing.T) {
	root, node := parseFixture(t,
		`<html><body><div><label>Full Name</label><input name="fullname"></div></body></html>`,
		`//input`)
	assert.Equal(t, "Full Name", ResolveLabel(root, node))
}

func TestResolveLabel_AriaLabel(t *testing.T) {
	root, node := parseFixture(t,
		`<html><body><input name="q" aria-label="Search query"></body></html>`,
		`//input`)
	assert.Equal(t, "Search query", ResolveLabel(root, node))
}

func TestResolveLabel_AriaLabelledByJoinsReferences(t *testing.T) {
	root, node := parseFixture(t,
		`<html><body>
			<span id="t1">Billing</span><span id="t2">Address</span>
			<input name="addr" aria-labelledby="t1 t2">
		</body></html>`,
		`//input`)
	assert.Equal(t, "Billing Address", ResolveLabel(root, node))
}

func TestResolveLabel_NearbyText(t *testing.T) {
	root, node := parseFixture(t,
		`<html><body><div>Phone number <input name="p"></div></body></html>`,
		`//input`)
	assert.Equal(t, "Phone number", ResolveLabel(root, node))
}

func TestResolveLabel_NearbyTextLengthBounds(t *testing.T) {
	// A single character is too short to be a label; nothing else matches.
	root, node := parseFixture(t,
		`<html><body><div>* <input name="p"></div></body></html>`,
		`//input`)
	assert.Equal(t, "", ResolveLabel(root, node))
}

func TestResolveLabel_ForAttributeOutranksAria(t *testing.T) {
	root, node := parseFixture(t,
		`<html><body>
			<label for="f">From Label</label>
			<input id="f" aria-label="From Aria">
		</body></html>`,
		`//input`)
	assert.Equal(t, "From Label", ResolveLabel(root, node))
}

func TestResolveLabel_NoLabelAnywhere(t *testing.T) {
	root, node := parseFixture(t,
		`<html><body><input name="orphan"></body></html>`,
		`//input`)
	assert.Equal(t, "", ResolveLabel(root, node))
}
