package theme

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/tmstyle/internal/log"
)

// Format is a theme file encoding.
type Format string

const (
	FormatBuiltin Format = "builtin"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatTOML    Format = "toml"
)

// Document is the on-disk shape of a theme. It accepts VS Code themes
// ("colors" + "tokenColors") and JSON-converted tmTheme files ("settings").
type Document struct {
	Name        string            `json:"name" yaml:"name" toml:"name"`
	Type        string            `json:"type" yaml:"type" toml:"type"`
	Colors      map[string]string `json:"colors" yaml:"colors" toml:"colors"`
	TokenColors []RuleDocument    `json:"tokenColors" yaml:"tokenColors" toml:"tokenColors"`
	Settings    []RuleDocument    `json:"settings" yaml:"settings" toml:"settings"`
}

// RuleDocument is one entry of tokenColors/settings. Scope is either a
// comma separated string or a list of strings.
type RuleDocument struct {
	Name     string            `json:"name" yaml:"name" toml:"name"`
	Scope    any               `json:"scope" yaml:"scope" toml:"scope"`
	Settings map[string]string `json:"settings" yaml:"settings" toml:"settings"`
}

// FormatForPath picks the decoder from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Decode parses a theme document.
func Decode(data []byte, format Format) (Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
			return Document{}, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Document{}, err
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return Document{}, err
		}
	default:
		return Document{}, fmt.Errorf("decode: %w: %q", ErrUnsupportedFormat, format)
	}
	return doc, nil
}

// Build turns the document into a matchable theme. fallbackName is used when
// the document has no name.
func (d Document) Build(fallbackName string) *TextMateTheme {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		name = fallbackName
	}

	entries := make([]RuleDocument, 0, len(d.Settings)+len(d.TokenColors))
	entries = append(entries, d.Settings...)
	entries = append(entries, d.TokenColors...)

	rules := make([]Rule, 0, len(entries))
	var global map[string]string
	for _, e := range entries {
		scope := scopeString(e.Scope)
		if scope == "" && global == nil {
			global = e.Settings
		}
		rules = append(rules, ruleFromSettings(scope, e.Settings))
	}

	// VS Code themes carry the defaults in "colors" only; synthesize the
	// global rule so Defaults() reflects them.
	if global == nil && len(d.Colors) > 0 {
		rules = append([]Rule{{
			Foreground: d.Colors["editor.foreground"],
			Background: d.Colors["editor.background"],
			FontStyle:  FontStyleNotSet,
		}}, rules...)
	}

	return NewTextMateTheme(name, rules, d.Colors, global)
}

func ruleFromSettings(scope string, settings map[string]string) Rule {
	r := Rule{Scope: scope, FontStyle: FontStyleNotSet}
	if settings == nil {
		return r
	}
	r.Foreground = settings["foreground"]
	r.Background = settings["background"]
	if fs, ok := settings["fontStyle"]; ok {
		r.FontStyle = ParseFontStyle(fs)
	}
	return r
}

func scopeString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case []any:
		parts := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
				parts = append(parts, strings.TrimSpace(str))
			}
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(s, ",")
	default:
		return ""
	}
}

// LoadFile reads and builds a theme from disk.
func LoadFile(path string) (*TextMateTheme, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: theme paths come from user config
	if err != nil {
		return nil, fmt.Errorf("reading theme %s: %w", path, err)
	}
	doc, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("decoding theme %s: %w", path, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t := doc.Build(base)
	log.Debug(log.CatTheme, "loaded theme file", "path", path, "name", t.Name(), "rules", t.RuleCount())
	return t, nil
}

// FileSource loads a theme from a file each time Load is called, so a
// reload always produces a new theme identity.
type FileSource struct {
	Path string
}

// Name implements Source.
func (s FileSource) Name() string { return s.Path }

// Load implements Source.
func (s FileSource) Load() (Theme, error) {
	t, err := LoadFile(s.Path)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Static wraps an already built theme as a Source.
type Static struct {
	Theme Theme
}

// Name implements Source.
func (s Static) Name() string {
	if s.Theme == nil {
		return ""
	}
	return s.Theme.Name()
}

// Load implements Source.
func (s Static) Load() (Theme, error) {
	if s.Theme == nil {
		return nil, fmt.Errorf("static source: %w", ErrUnknownTheme)
	}
	return s.Theme, nil
}
