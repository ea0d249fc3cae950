package provider

import (
	"github.com/zjrosen/tmstyle/internal/style"
	"github.com/zjrosen/tmstyle/internal/theme"
)

// resolveStyle walks scopes from most to least specific and returns the
// style of the first scope the theme has a rule for. When none match, the
// theme's merged defaults apply. A nil theme resolves to nil.
//
// Every call returns a fresh copy of the cached style. resolved, when not
// nil, is incremented each time a style is computed rather than served from
// the cache.
func resolveStyle(t theme.Theme, settings *style.ThemeSettings, cache *style.Cache, scopes []string, resolved *int) *style.ResolvedStyle {
	if t == nil || settings == nil {
		return nil
	}
	resolve := func(attrs theme.StyleAttributes) style.ResolvedStyle {
		if resolved != nil {
			*resolved++
		}
		// The walk below skips NoStyle matches, so that key is free for defaults.
		if attrs.IsNoStyle() {
			return settings.MergedDefaults()
		}
		return settings.Resolve(attrs)
	}

	key := theme.NoStyle
	for i := len(scopes) - 1; i >= 0; i-- {
		attrs, ok := t.Match(scopes[i])
		if ok && !attrs.IsNoStyle() {
			key = attrs
			break
		}
	}
	rs := cache.GetOrResolve(key, resolve)
	return &rs
}
