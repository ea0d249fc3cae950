package theme

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/zjrosen/tmstyle/internal/scopemap"
)

// FromChromaStyle converts a chroma style into a TextMate theme whose rules
// use the same scope names the chroma grammar emits.
func FromChromaStyle(s *chroma.Style) *TextMateTheme {
	base := s.Get(chroma.Background)
	defaultBG := ""
	if base.Background.IsSet() {
		defaultBG = base.Background.String()
	}

	rules := make([]Rule, 0, len(scopemap.Entries)+1)
	global := Rule{FontStyle: FontStyleNotSet, Background: defaultBG}
	if base.Colour.IsSet() {
		global.Foreground = base.Colour.String()
	}
	rules = append(rules, global)

	for _, e := range scopemap.Entries {
		if !s.Has(e.Type) && !s.Has(e.Type.SubCategory()) && !s.Has(e.Type.Category()) {
			continue
		}
		entry := s.Get(e.Type)
		r := Rule{Scope: e.Scope, FontStyle: chromaFontStyle(entry)}
		if entry.Colour.IsSet() {
			r.Foreground = entry.Colour.String()
		}
		if entry.Background.IsSet() && entry.Background.String() != defaultBG {
			r.Background = entry.Background.String()
		}
		rules = append(rules, r)
	}

	editor := map[string]string{}
	if global.Background != "" {
		editor["editor.background"] = global.Background
	}
	if global.Foreground != "" {
		editor["editor.foreground"] = global.Foreground
	}
	if hl := s.Get(chroma.LineHighlight); hl.Background.IsSet() {
		editor["editor.lineHighlightBackground"] = hl.Background.String()
	}

	return NewTextMateTheme(s.Name, rules, editor, nil)
}

func chromaFontStyle(e chroma.StyleEntry) FontStyle {
	if e.Bold == chroma.Pass && e.Italic == chroma.Pass && e.Underline == chroma.Pass {
		return FontStyleNotSet
	}
	fs := FontStyleNone
	if e.Bold == chroma.Yes {
		fs |= FontStyleBold
	}
	if e.Italic == chroma.Yes {
		fs |= FontStyleItalic
	}
	if e.Underline == chroma.Yes {
		fs |= FontStyleUnderline
	}
	return fs
}

// ChromaSource loads one of chroma's registered styles by name.
type ChromaSource struct {
	Style string
}

// Name implements Source.
func (s ChromaSource) Name() string { return s.Style }

// Load implements Source. Each call converts the style afresh.
func (s ChromaSource) Load() (Theme, error) {
	st, ok := lookupChromaStyle(s.Style)
	if !ok {
		return nil, fmt.Errorf("chroma style %q: %w", s.Style, ErrUnknownTheme)
	}
	return FromChromaStyle(st), nil
}

// BuiltinNames lists chroma's registered styles, sorted.
func BuiltinNames() []string {
	return styles.Names()
}

// styles.Get silently falls back to a default style, so unknown names are
// detected against the registry directly.
func lookupChromaStyle(name string) (*chroma.Style, bool) {
	if st, ok := styles.Registry[name]; ok {
		return st, true
	}
	if st, ok := styles.Registry[strings.ToLower(name)]; ok {
		return st, true
	}
	return nil, false
}
