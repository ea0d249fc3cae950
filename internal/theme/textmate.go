package theme

import (
	"maps"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Rule is a single theme entry: a scope selector plus settings.
// Empty color strings and FontStyleNotSet mean "not specified".
type Rule struct {
	Scope      string
	Foreground string
	Background string
	FontStyle  FontStyle
}

// TextMateTheme matches scopes against TextMate-style rules.
//
// A rule selector matches a scope when it equals the scope or is a dotted
// prefix of it ("string" matches "string.quoted.double.go"). Among matching
// rules the longest selector wins; settings a more specific rule leaves unset
// are inherited from less specific matches, and later rules beat earlier
// ones with the same selector. Descendant selectors ("source.go string") are
// reduced to their last segment.
type TextMateTheme struct {
	name         string
	colorMap     []string
	colorIDs     map[string]int
	defaults     StyleAttributes
	editorColors map[string]string
	rules        []compiledRule

	mu      sync.Mutex
	matches map[string]StyleAttributes
}

type compiledRule struct {
	selector  string
	fontStyle FontStyle
	fg        int
	bg        int
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// NewTextMateTheme builds a theme from its rules.
// The first rule with an empty selector provides the defaults; when
// editorColors is empty, that rule's raw settings become the editor colors.
func NewTextMateTheme(name string, rules []Rule, editorColors map[string]string, globalSettings map[string]string) *TextMateTheme {
	t := &TextMateTheme{
		name:     name,
		colorMap: []string{""},
		colorIDs: make(map[string]int),
		defaults: StyleAttributes{FontStyle: FontStyleNone},
		matches:  make(map[string]StyleAttributes),
	}

	var haveDefaults bool
	for _, r := range rules {
		if strings.TrimSpace(r.Scope) == "" {
			if !haveDefaults {
				t.defaults = StyleAttributes{
					FontStyle:    r.FontStyle,
					ForegroundID: t.colorID(r.Foreground),
					BackgroundID: t.colorID(r.Background),
				}
				if t.defaults.FontStyle == FontStyleNotSet {
					t.defaults.FontStyle = FontStyleNone
				}
				haveDefaults = true
			}
			continue
		}
		selectors := splitSelectors(r.Scope)
		if len(selectors) == 0 {
			continue
		}
		// Colors are interned up front so the color map is complete before
		// any consumer snapshots it.
		fg, bg := t.colorID(r.Foreground), t.colorID(r.Background)
		for _, sel := range selectors {
			t.rules = append(t.rules, compiledRule{selector: sel, fontStyle: r.FontStyle, fg: fg, bg: bg})
		}
	}

	// Longest selector last so overlaying in order lets it win.
	sort.SliceStable(t.rules, func(i, j int) bool {
		return len(t.rules[i].selector) < len(t.rules[j].selector)
	})

	switch {
	case len(editorColors) > 0:
		t.editorColors = maps.Clone(editorColors)
	case len(globalSettings) > 0:
		t.editorColors = maps.Clone(globalSettings)
	default:
		t.editorColors = map[string]string{}
	}

	return t
}

func splitSelectors(scope string) []string {
	var out []string
	for _, part := range strings.Split(scope, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		sel := fields[len(fields)-1]
		if strings.HasPrefix(sel, "-") {
			continue
		}
		out = append(out, sel)
	}
	return out
}

// colorID interns a color, returning 0 for empty or malformed values.
func (t *TextMateTheme) colorID(color string) int {
	if color == "" || !hexColor.MatchString(color) {
		return 0
	}
	color = strings.ToUpper(color)
	if id, ok := t.colorIDs[color]; ok {
		return id
	}
	t.colorMap = append(t.colorMap, color)
	id := len(t.colorMap) - 1
	t.colorIDs[color] = id
	return id
}

// Name implements Theme.
func (t *TextMateTheme) Name() string { return t.name }

// ColorMap implements Theme. Index 0 is reserved and always empty.
func (t *TextMateTheme) ColorMap() []string { return t.colorMap }

// Defaults implements Theme.
func (t *TextMateTheme) Defaults() StyleAttributes { return t.defaults }

// EditorColors implements Theme.
func (t *TextMateTheme) EditorColors() map[string]string { return t.editorColors }

// RuleCount returns the number of compiled selectors.
func (t *TextMateTheme) RuleCount() int { return len(t.rules) }

// Match implements Theme. Results are memoized per scope.
func (t *TextMateTheme) Match(scope string) (StyleAttributes, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if attrs, ok := t.matches[scope]; ok {
		return attrs, !attrs.IsNoStyle()
	}

	attrs := NoStyle
	matched := false
	for _, cr := range t.rules {
		if !selectorMatches(cr.selector, scope) {
			continue
		}
		if !matched {
			attrs = StyleAttributes{FontStyle: FontStyleNotSet}
			matched = true
		}
		if cr.fontStyle != FontStyleNotSet {
			attrs.FontStyle = cr.fontStyle
		}
		if cr.fg > 0 {
			attrs.ForegroundID = cr.fg
		}
		if cr.bg > 0 {
			attrs.BackgroundID = cr.bg
		}
	}

	t.matches[scope] = attrs
	return attrs, !attrs.IsNoStyle()
}

func selectorMatches(selector, scope string) bool {
	if !strings.HasPrefix(scope, selector) {
		return false
	}
	return len(scope) == len(selector) || scope[len(selector)] == '.'
}
