package render

import (
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// NormalizeColor turns a theme color into lowercase "#rrggbb". It accepts
// #rgb, #rgba, #rrggbb and #rrggbbaa. Translucent colors are blended over
// background; an unparsable background is treated as opaque black.
func NormalizeColor(value, background string) (string, bool) {
	c, alpha, ok := parseHex(value)
	if !ok {
		return "", false
	}
	if alpha < 1 {
		bg, _, ok := parseHex(background)
		if !ok {
			bg = colorful.Color{}
		}
		c = bg.BlendRgb(c, alpha)
	}
	return c.Hex(), true
}

// Mix blends b into a by t and returns "#rrggbb". Either side may be any
// form NormalizeColor accepts.
func Mix(a, b string, t float64) (string, bool) {
	ca, _, ok := parseHex(a)
	if !ok {
		return "", false
	}
	cb, _, ok := parseHex(b)
	if !ok {
		return "", false
	}
	return ca.BlendRgb(cb, t).Hex(), true
}

func parseHex(value string) (colorful.Color, float64, bool) {
	s := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(s) == 3 || len(s) == 4 {
		var b strings.Builder
		for _, r := range s {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		s = b.String()
	}

	alpha := 1.0
	switch len(s) {
	case 6:
	case 8:
		a, err := strconv.ParseUint(s[6:], 16, 8)
		if err != nil {
			return colorful.Color{}, 0, false
		}
		alpha = float64(a) / 255
		s = s[:6]
	default:
		return colorful.Color{}, 0, false
	}

	if _, err := strconv.ParseUint(s, 16, 32); err != nil {
		return colorful.Color{}, 0, false
	}
	c, err := colorful.Hex("#" + s)
	if err != nil {
		return colorful.Color{}, 0, false
	}
	return c, alpha, true
}
