// Package style turns theme-intrinsic style attributes into concrete,
// renderable styles and caches them per provider session.
package style

// ResolvedStyle is the final visual style of a token. An empty color string
// means the color is absent.
type ResolvedStyle struct {
	Background    string
	Foreground    string
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
}

// StyledToken pairs a substring of a line with its style. A nil Style means
// the text is rendered plain.
type StyledToken struct {
	Text  string
	Style *ResolvedStyle
}
