package render

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/tmstyle/internal/document"
	"github.com/zjrosen/tmstyle/internal/style"
	"github.com/zjrosen/tmstyle/internal/theme"
)

func trueColor() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)
	r.SetHasDarkBackground(true)
	return r
}

func newSettings() *style.ThemeSettings {
	return style.FromTheme(theme.NewTextMateTheme("render", []theme.Rule{
		{Foreground: "#F8F8F2", Background: "#272822", FontStyle: theme.FontStyleNotSet},
	}, map[string]string{"editor.lineHighlightBackground": "#3E3D32"}, nil))
}

func TestNormalizeColor(t *testing.T) {
	cases := []struct {
		in, bg, want string
		ok           bool
	}{
		{"#AA0000", "", "#aa0000", true},
		{"  #abc ", "", "#aabbcc", true},
		{"#ff000000", "#ffffff", "#ffffff", true},
		{"#ff0000ff", "#ffffff", "#ff0000", true},
		{"#f00f", "#ffffff", "#ff0000", true},
		{"#00000000", "garbage", "#000000", true},
		{"", "", "", false},
		{"red", "", "", false},
		{"#12345", "", "", false},
		{"#gggggg", "", "", false},
		{"#aabbccgg", "", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeColor(tc.in, tc.bg)
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestNormalizeColor_HalfAlphaBlends(t *testing.T) {
	got, ok := NormalizeColor("#00000080", "#ffffff")
	require.True(t, ok)
	require.NotEqual(t, "#000000", got)
	require.NotEqual(t, "#ffffff", got)
}

func TestNormalizeColor_OpaqueIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		hex := rapid.StringMatching(`#[0-9a-f]{6}`).Draw(t, "hex")
		got, ok := NormalizeColor(strings.ToUpper(hex), "#123456")
		require.True(t, ok)
		require.Equal(t, hex, got)
	})
}

func TestMix(t *testing.T) {
	got, ok := Mix("#000000", "#ffffff", 0)
	require.True(t, ok)
	require.Equal(t, "#000000", got)

	got, ok = Mix("#000000", "#ffffff", 1)
	require.True(t, ok)
	require.Equal(t, "#ffffff", got)

	_, ok = Mix("nope", "#ffffff", 0.5)
	require.False(t, ok)
}

func TestRenderer_Style(t *testing.T) {
	rd := New(newSettings(), Options{Renderer: trueColor()})
	rs := &style.ResolvedStyle{Foreground: "#AA0000", Background: "#272822", Bold: true, Underline: true}

	out := rd.Style(rs).Render("x")
	require.Contains(t, out, "38;2;170;0;0")
	require.Contains(t, out, "48;2;39;40;34")
	require.Equal(t, "x", ansi.Strip(out))

	require.Equal(t, rd.Style(rs).Render("x"), out, "memoized")
	require.Equal(t, "#272822", rd.Background())
}

func TestRenderer_StyleFollowsValueNotPointer(t *testing.T) {
	rd := New(newSettings(), Options{Renderer: trueColor()})
	rs := &style.ResolvedStyle{Foreground: "#AA0000"}
	red := rd.Style(rs).Render("x")

	same := *rs
	require.Equal(t, red, rd.Style(&same).Render("x"))

	rs.Foreground = "#00AA00"
	green := rd.Style(rs).Render("x")
	require.NotEqual(t, red, green)
	require.Contains(t, green, termenv.TrueColor.Color("#00AA00").Sequence(false))
}

func TestRenderer_NilStyleUsesBase(t *testing.T) {
	rd := New(newSettings(), Options{Renderer: trueColor()})
	require.Equal(t, rd.Base().Render("plain"), rd.Style(nil).Render("plain"))
	require.Contains(t, rd.Base().Render("plain"), "38;2;248;248;242")
}

func TestRenderer_NoSettings(t *testing.T) {
	rd := New(nil, Options{Renderer: trueColor()})
	rs := &style.ResolvedStyle{Foreground: "#AA0000"}
	require.Equal(t, "abc", rd.Line([]style.StyledToken{{Text: "abc", Style: rs}}))
	require.Empty(t, rd.Background())
}

func TestRenderer_LinePadding(t *testing.T) {
	rd := New(newSettings(), Options{Renderer: trueColor(), Width: 8})
	rs := &style.ResolvedStyle{Foreground: "#AA0000", Background: "#272822"}

	out := rd.Line([]style.StyledToken{{Text: "ab", Style: rs}, {Text: "", Style: rs}, {Text: "世", Style: nil}})
	require.Equal(t, "ab世    ", ansi.Strip(out))
	require.Equal(t, 8, ansi.StringWidth(out))

	long := rd.Line([]style.StyledToken{{Text: "0123456789", Style: rs}})
	require.Equal(t, "0123456789", ansi.Strip(long))
}

func TestRenderer_Document(t *testing.T) {
	rd := New(newSettings(), Options{Renderer: trueColor(), LineNumbers: true})
	rs := &style.ResolvedStyle{Foreground: "#AA0000", Background: "#272822"}

	lines := make([]document.Line, 10)
	for i := range lines {
		lines[i] = document.Line{Number: i + 1, Tokens: []style.StyledToken{{Text: "x", Style: rs}}}
	}
	lines[4].Tokens = nil

	out := rd.Document(document.Document{Lines: lines})
	plain := strings.Split(ansi.Strip(out), "\n")
	require.Len(t, plain, 10)
	require.Equal(t, "  1 x", plain[0])
	require.Equal(t, "  5 ", plain[4])
	require.Equal(t, " 10 x", plain[9])
	highlight := termenv.TrueColor.Color("#3E3D32").Sequence(true)
	require.Contains(t, rd.Gutter(1, 1), highlight, "gutter uses the line highlight background")
}

func TestRenderer_DocumentWidthIncludesGutter(t *testing.T) {
	rd := New(newSettings(), Options{Renderer: trueColor(), LineNumbers: true, Width: 10})
	doc := document.Document{Lines: []document.Line{
		{Number: 1, Tokens: []style.StyledToken{{Text: "ab"}}},
		{Number: 2},
	}}

	for _, line := range strings.Split(rd.Document(doc), "\n") {
		require.Equal(t, 10, ansi.StringWidth(line))
	}
	require.Equal(t, 3, GutterWidth(9))
	require.Equal(t, 5, GutterWidth(100))
	require.Equal(t, 3, GutterWidth(0))
}

func TestRenderer_TabsCountTowardsWidth(t *testing.T) {
	rd := New(newSettings(), Options{Renderer: trueColor(), Width: 8})
	out := rd.Line([]style.StyledToken{{Text: "\tx"}})
	require.Equal(t, "    x   ", ansi.Strip(out))
}
