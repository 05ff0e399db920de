package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramePath_String(t *testing.T) {
	tests := []struct {
		name string
		path FramePath
		want string
	}{
		{"Root", RootPath, ""},
		{"Single Level", FramePath{2}, "2"},
		{"Nested", FramePath{1, 0, 3}, "1.0.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.path.String())
		})
	}
}

func TestFramePath_ChildAndDepth(t *testing.T) {
	root := RootPath
	child := root.Child(1)
	grandchild := child.Child(0)

	assert.True(t, root.IsRoot())
	assert.Equal(t, 0, root.Depth())
	assert.Equal(t, "1", child.String())
	assert.Equal(t, 2, grandchild.Depth())
	assert.Equal(t, "1.0", grandchild.String())

	// Child must not alias the parent's backing array.
	other := child.Child(7)
	assert.Equal(t, "1.0", grandchild.String())
	assert.Equal(t, "1.7", other.String())
}

func TestParseFramePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    FramePath
		wantErr bool
	}{
		{"Empty Is Root", "", RootPath, false},
		{"Plain", "1.0", FramePath{1, 0}, false},
		{"Prefixed", "iframe-2.1", FramePath{2, 1}, false},
		{"Prefixed Single", "iframe-0", FramePath{0}, false},
		{"Whitespace", "  3.4 ", FramePath{3, 4}, false},
		{"Non Numeric", "1.a", nil, true},
		{"Negative", "1.-2", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFramePath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "expected %v, got %v", tt.want, got)
		})
	}
}

func TestFramePath_RoundTrip(t *testing.T) {
	original := FramePath{0, 4, 2}
	parsed, err := ParseFramePath(original.String())
	require.NoError(t, err)
	assert.True(t, original.Equal(parsed))
}
