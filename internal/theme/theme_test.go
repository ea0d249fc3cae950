package theme

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sliceTheme is a value theme whose dynamic type cannot be compared with ==.
type sliceTheme struct {
	name   string
	colors []string
}

func (s sliceTheme) Name() string                        { return s.name }
func (s sliceTheme) Match(string) (StyleAttributes, bool) { return NoStyle, false }
func (s sliceTheme) ColorMap() []string                  { return s.colors }
func (s sliceTheme) Defaults() StyleAttributes           { return StyleAttributes{} }
func (s sliceTheme) EditorColors() map[string]string     { return nil }

// boxedTheme is comparable as a type but holds a slice behind an interface.
type boxedTheme struct {
	name  string
	extra any
}

func (b boxedTheme) Name() string                        { return b.name }
func (b boxedTheme) Match(string) (StyleAttributes, bool) { return NoStyle, false }
func (b boxedTheme) ColorMap() []string                  { return nil }
func (b boxedTheme) Defaults() StyleAttributes           { return StyleAttributes{} }
func (b boxedTheme) EditorColors() map[string]string     { return nil }

func TestSame_Pointers(t *testing.T) {
	a := newTestTheme()
	b := newTestTheme()

	require.True(t, Same(a, a))
	require.False(t, Same(a, b), "equal content, different instances")
	require.True(t, Same(nil, nil))
	require.False(t, Same(a, nil))
	require.False(t, Same(nil, a))
}

func TestSame_UncomparableValues(t *testing.T) {
	a := sliceTheme{name: "a", colors: []string{"", "#FFFFFF"}}
	same := sliceTheme{name: "a", colors: []string{"", "#FFFFFF"}}
	other := sliceTheme{name: "a", colors: []string{"", "#000000"}}

	require.NotPanics(t, func() { Same(a, other) })
	require.True(t, Same(a, same))
	require.False(t, Same(a, other))
	require.False(t, Same(a, newTestTheme()))
}

func TestSame_InterfaceFieldHoldingSlice(t *testing.T) {
	a := boxedTheme{name: "a", extra: []string{"x"}}
	b := boxedTheme{name: "a", extra: []string{"x"}}
	c := boxedTheme{name: "a", extra: []string{"y"}}

	require.NotPanics(t, func() { Same(a, c) })
	require.True(t, Same(a, b))
	require.False(t, Same(a, c))
}
