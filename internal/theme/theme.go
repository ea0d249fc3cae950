// Package theme defines the theme collaborator consumed by the style
// provider and ships a TextMate/VS Code theme implementation, file loaders,
// chroma style conversion and a theme catalog.
package theme

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// FontStyle is a bitset of font flags in vscode-textmate bit order.
type FontStyle int

const (
	// FontStyleNotSet means the rule did not specify a font style.
	FontStyleNotSet FontStyle = -1
	FontStyleNone   FontStyle = 0
	FontStyleItalic FontStyle = 1 << (iota - 2)
	FontStyleBold
	FontStyleUnderline
	FontStyleStrikethrough
)

// Set reports whether f carries any flag bit.
func (f FontStyle) Set() bool { return f > 0 }

func (f FontStyle) Italic() bool        { return f.Set() && f&FontStyleItalic != 0 }
func (f FontStyle) Bold() bool          { return f.Set() && f&FontStyleBold != 0 }
func (f FontStyle) Underline() bool     { return f.Set() && f&FontStyleUnderline != 0 }
func (f FontStyle) Strikethrough() bool { return f.Set() && f&FontStyleStrikethrough != 0 }

func (f FontStyle) String() string {
	switch {
	case f == FontStyleNotSet:
		return "notset"
	case f == FontStyleNone:
		return "none"
	}
	var parts []string
	if f.Italic() {
		parts = append(parts, "italic")
	}
	if f.Bold() {
		parts = append(parts, "bold")
	}
	if f.Underline() {
		parts = append(parts, "underline")
	}
	if f.Strikethrough() {
		parts = append(parts, "strikethrough")
	}
	return strings.Join(parts, " ")
}

// ParseFontStyle parses a TextMate fontStyle value such as "bold italic".
// An empty string is an explicit reset and yields FontStyleNone.
func ParseFontStyle(s string) FontStyle {
	out := FontStyleNone
	for _, part := range strings.Fields(s) {
		switch strings.ToLower(part) {
		case "italic":
			out |= FontStyleItalic
		case "bold":
			out |= FontStyleBold
		case "underline":
			out |= FontStyleUnderline
		case "strikethrough":
			out |= FontStyleStrikethrough
		}
	}
	return out
}

// StyleAttributes is the theme-intrinsic style a scope resolves to.
// ForegroundID and BackgroundID index the theme's color map; 0 means unset
// because index 0 of every color map is reserved. The struct is comparable
// so equal attributes share style cache entries.
type StyleAttributes struct {
	FontStyle    FontStyle
	ForegroundID int
	BackgroundID int
}

// NoStyle is the sentinel a theme may return when no rule matched.
var NoStyle = StyleAttributes{FontStyle: FontStyleNotSet}

// IsNoStyle reports whether a is the NoStyle sentinel.
func (a StyleAttributes) IsNoStyle() bool { return a == NoStyle }

func (a StyleAttributes) String() string {
	return fmt.Sprintf("fg=%d bg=%d font=%s", a.ForegroundID, a.BackgroundID, a.FontStyle)
}

// Theme is the read-only view of a theme the style provider needs.
// Providers compare themes with Same; pointer implementations compare by
// identity.
type Theme interface {
	// Name identifies the theme in logs and the catalog.
	Name() string
	// Match returns the attributes for a single scope. A false result or
	// the NoStyle sentinel both mean no rule applies.
	Match(scope string) (StyleAttributes, bool)
	// ColorMap returns the color table indexed by StyleAttributes ids.
	ColorMap() []string
	// Defaults returns the attributes of the global (empty selector) rule.
	Defaults() StyleAttributes
	// EditorColors returns editor-level settings such as "editor.background".
	EditorColors() map[string]string
}

// Same reports whether a and b are the same theme. Comparable dynamic
// types (pointers in practice) compare with ==. Value themes holding
// slices or maps cannot, so they compare by deep equality instead of
// panicking.
func Same(a, b Theme) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if !ta.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	// Comparable structs may still hold uncomparable values in interface
	// fields.
	defer func() {
		if recover() != nil {
			same = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}

// Source loads a theme.
type Source interface {
	Name() string
	Load() (Theme, error)
}

var (
	// ErrUnsupportedFormat is returned for theme files with unknown extensions.
	ErrUnsupportedFormat = errors.New("unsupported theme format")
	// ErrUnknownTheme is returned when a catalog key or chroma style does not exist.
	ErrUnknownTheme = errors.New("unknown theme")
)
