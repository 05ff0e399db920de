package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hddevteam/smart-form-filler/api/schemas"
)

func TestInspectControl_Visibility(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		visible bool
	}{
		{"Plain Input", `<input name="a">`, true},
		{"Display None", `<input name="a" style="display:none">`, false},
		{"Visibility Hidden", `<input name="a" style="visibility: hidden">`, false},
		{"Zero Opacity", `<input name="a" style="opacity:0">`, false},
		{"Hidden Attribute", `<input name="a" hidden>`, false},
		{"Hidden Type", `<input name="a" type="hidden">`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, node := parseFixture(t, "<html><body>"+tt.markup+"</body></html>", "//input")
			assert.Equal(t, tt.visible, InspectControl(node).Visible)
		})
	}
}

func TestInspectControl_Editability(t *testing.T) {
	tests := []struct {
		name     string
		markup   string
		editable bool
	}{
		{"Plain Input", `<input name="a">`, true},
		{"Disabled", `<input name="a" disabled>`, false},
		{"Readonly", `<input name="a" readonly>`, false},
		{"Readonly Class", `<input name="a" class="form-control is-readonly">`, false},
		{"Pointer Events None", `<input name="a" style="pointer-events:none">`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, node := parseFixture(t, "<html><body>"+tt.markup+"</body></html>", "//input")
			assert.Equal(t, tt.editable, InspectControl(node).Editable)
		})
	}
}

func TestInspectControl_BoundingBox(t *testing.T) {
	t.Run("Hidden Gets Zero Box", func(t *testing.T) {
		_, node := parseFixture(t, `<html><body><input style="display:none"></body></html>`, "//input")
		assert.Equal(t, schemas.BoundingBox{}, InspectControl(node).Box)
	})

	t.Run("Inline Style Dimensions", func(t *testing.T) {
		_, node := parseFixture(t, `<html><body><input style="width: 120px; height: 32px"></body></html>`, "//input")
		box := InspectControl(node).Box
		assert.Equal(t, 120.0, box.Width)
		assert.Equal(t, 32.0, box.Height)
	})

	t.Run("Checkbox Default", func(t *testing.T) {
		_, node := parseFixture(t, `<html><body><input type="checkbox"></body></html>`, "//input")
		box := InspectControl(node).Box
		assert.Equal(t, 20.0, box.Width)
		assert.Equal(t, 20.0, box.Height)
	})

	t.Run("Textarea Default", func(t *testing.T) {
		_, node := parseFixture(t, `<html><body><textarea></textarea></body></html>`, "//textarea")
		box := InspectControl(node).Box
		assert.Equal(t, 300.0, box.Width)
		assert.Equal(t, 80.0, box.Height)
	})
}

func TestIsFillable(t *testing.T) {
	predicate := DefaultFillablePredicate()
	base := schemas.FieldRecord{
		Tag: "input", Type: "text", Name: "email",
		Visible: true, Editable: true,
		Box: schemas.BoundingBox{Width: 200, Height: 28},
	}

	t.Run("Visible Editable Text Input", func(t *testing.T) {
		assert.True(t, predicate.IsFillable(base))
	})

	t.Run("Invisible", func(t *testing.T) {
		f := base
		f.Visible = false
		assert.False(t, predicate.IsFillable(f))
	})

	t.Run("Not Editable", func(t *testing.T) {
		f := base
		f.Editable = false
		assert.False(t, predicate.IsFillable(f))
	})

	t.Run("Non Fillable Types", func(t *testing.T) {
		for _, typ := range []string{"button", "submit", "reset", "image", "file", "hidden"} {
			f := base
			f.Type = typ
			assert.False(t, predicate.IsFillable(f), "type %q must not be fillable", typ)
		}
	})

	t.Run("Too Small", func(t *testing.T) {
		f := base
		f.Box = schemas.BoundingBox{Width: 10, Height: 10}
		assert.False(t, predicate.IsFillable(f))
	})

	t.Run("Denylisted Names", func(t *testing.T) {
		for _, name := range []string{"csrf_token", "captcha_answer", "xsrf", "honeypot_field", "verification_code"} {
			f := base
			f.Name = name
			assert.False(t, predicate.IsFillable(f), "name %q must be excluded", name)
		}
	})

	t.Run("Denylisted Class", func(t *testing.T) {
		f := base
		f.Class = "input hp_field"
		assert.False(t, predicate.IsFillable(f))
	})

	t.Run("Extra Denylist", func(t *testing.T) {
		p := DefaultFillablePredicate()
		p.ExtraDenylist = []string{"internal_audit"}
		f := base
		f.Name = "internal_audit_ref"
		assert.False(t, p.IsFillable(f))
		assert.True(t, predicate.IsFillable(base))
	})
}
