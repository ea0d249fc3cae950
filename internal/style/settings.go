package style

import (
	"maps"
	"slices"
	"sync"

	"github.com/zjrosen/tmstyle/internal/theme"
)

const (
	fallbackBackground = "#FFFFFF"
	fallbackForeground = "#000000"
)

var (
	backgroundKeys = []string{"background", "editor.background"}
	foregroundKeys = []string{"foreground", "editor.foreground"}
	selectionKeys  = []string{"lineHighlight", "editor.lineHighlightBackground"}
)

// ThemeSettings is a derived, read-only view of one theme. Every derived
// value is computed at most once; a theme change requires a new instance.
type ThemeSettings struct {
	colorMap []string
	defaults theme.StyleAttributes
	editor   map[string]string

	backgroundOnce sync.Once
	background     string

	foregroundOnce sync.Once
	foreground     string

	selectionOnce sync.Once
	selection     string
	hasSelection  bool

	mergedOnce sync.Once
	merged     ResolvedStyle
}

// FromTheme snapshots the theme's color map, defaults and editor colors.
func FromTheme(t theme.Theme) *ThemeSettings {
	return &ThemeSettings{
		colorMap: slices.Clone(t.ColorMap()),
		defaults: t.Defaults(),
		editor:   maps.Clone(t.EditorColors()),
	}
}

// EditorColor returns the first non-empty editor color among keys.
func (s *ThemeSettings) EditorColor(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := s.editor[k]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Color returns the color map entry for id. Index 0 and out-of-range ids
// are absent.
func (s *ThemeSettings) Color(id int) (string, bool) {
	if id <= 0 || id >= len(s.colorMap) || s.colorMap[id] == "" {
		return "", false
	}
	return s.colorMap[id], true
}

// BackgroundColor is the editor background: an explicit editor color, else
// the defaults' background, else white.
func (s *ThemeSettings) BackgroundColor() string {
	s.backgroundOnce.Do(func() {
		if v, ok := s.EditorColor(backgroundKeys...); ok {
			s.background = v
		} else if v, ok := s.Color(s.defaults.BackgroundID); ok {
			s.background = v
		} else {
			s.background = fallbackBackground
		}
	})
	return s.background
}

// ForegroundColor is the editor foreground: an explicit editor color, else
// the defaults' foreground, else black.
func (s *ThemeSettings) ForegroundColor() string {
	s.foregroundOnce.Do(func() {
		if v, ok := s.EditorColor(foregroundKeys...); ok {
			s.foreground = v
		} else if v, ok := s.Color(s.defaults.ForegroundID); ok {
			s.foreground = v
		} else {
			s.foreground = fallbackForeground
		}
	})
	return s.foreground
}

// SelectionBackgroundColor is the line highlight color. It has no fallback.
func (s *ThemeSettings) SelectionBackgroundColor() (string, bool) {
	s.selectionOnce.Do(func() {
		s.selection, s.hasSelection = s.EditorColor(selectionKeys...)
	})
	return s.selection, s.hasSelection
}

// MergedDefaults is the style of text no rule matches. Font flags come from
// the defaults only when they carry at least one flag.
func (s *ThemeSettings) MergedDefaults() ResolvedStyle {
	s.mergedOnce.Do(func() {
		s.merged = ResolvedStyle{
			Background: s.BackgroundColor(),
			Foreground: s.ForegroundColor(),
		}
		if s.defaults.FontStyle.Set() {
			applyFontStyle(&s.merged, s.defaults.FontStyle)
		}
	})
	return s.merged
}

// Resolve turns matched attributes into a concrete style. Colors fall back
// per channel to MergedDefaults. Font flags are taken from attrs as a group
// and only when attrs carries at least one flag; they are never inherited
// from the defaults.
func (s *ThemeSettings) Resolve(attrs theme.StyleAttributes) ResolvedStyle {
	merged := s.MergedDefaults()
	out := ResolvedStyle{
		Background: merged.Background,
		Foreground: merged.Foreground,
	}
	if v, ok := s.Color(attrs.ForegroundID); ok {
		out.Foreground = v
	}
	if v, ok := s.Color(attrs.BackgroundID); ok {
		out.Background = v
	}
	if attrs.FontStyle.Set() {
		applyFontStyle(&out, attrs.FontStyle)
	}
	return out
}

func applyFontStyle(rs *ResolvedStyle, fs theme.FontStyle) {
	rs.Italic = fs.Italic()
	rs.Bold = fs.Bold()
	rs.Underline = fs.Underline()
	rs.Strikethrough = fs.Strikethrough()
}
