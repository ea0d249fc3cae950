package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Origin records where a catalog entry came from.
type Origin string

const (
	OriginBuiltin Origin = "builtin"
	OriginUser    Origin = "user"
)

// Definition describes one selectable theme.
type Definition struct {
	Key         string
	DisplayName string
	Origin      Origin
	Format      Format
	Path        string
	Source      Source
}

// Load builds the theme. User themes are re-read from disk on every call.
func (d Definition) Load() (Theme, error) {
	if d.Source == nil {
		return nil, fmt.Errorf("theme %q: %w", d.Key, ErrUnknownTheme)
	}
	return d.Source.Load()
}

// Catalog is an ordered set of theme definitions: chroma built-ins first,
// then user themes sorted by display name.
type Catalog struct {
	order []Definition
	index map[string]int
}

// All returns a copy of every definition in order.
func (c Catalog) All() []Definition {
	out := make([]Definition, len(c.order))
	copy(out, c.order)
	return out
}

// Keys returns the definition keys in order.
func (c Catalog) Keys() []string {
	keys := make([]string, len(c.order))
	for i, def := range c.order {
		keys[i] = def.Key
	}
	return keys
}

// Len returns the number of definitions.
func (c Catalog) Len() int { return len(c.order) }

// Get finds a definition by key.
func (c Catalog) Get(key string) (Definition, bool) {
	if c.index == nil {
		return Definition{}, false
	}
	idx, ok := c.index[key]
	if !ok {
		return Definition{}, false
	}
	return c.order[idx], true
}

// Lookup finds a definition by key, then by slugified name, then by a
// case-insensitive display name.
func (c Catalog) Lookup(name string) (Definition, bool) {
	if def, ok := c.Get(name); ok {
		return def, true
	}
	if def, ok := c.Get(slugify(name)); ok {
		return def, true
	}
	for _, def := range c.order {
		if strings.EqualFold(def.DisplayName, name) {
			return def, true
		}
	}
	return Definition{}, false
}

// IndexOf returns the position of key, or -1.
func (c Catalog) IndexOf(key string) int {
	if idx, ok := c.index[key]; ok {
		return idx
	}
	return -1
}

// At returns the definition at i, wrapping around in both directions.
func (c Catalog) At(i int) Definition {
	if len(c.order) == 0 {
		return Definition{}
	}
	i %= len(c.order)
	if i < 0 {
		i += len(c.order)
	}
	return c.order[i]
}

func (c *Catalog) add(def Definition) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	c.index[def.Key] = len(c.order)
	c.order = append(c.order, def)
}

// LoadCatalog registers chroma's styles and every theme file found in dirs.
// Missing directories are skipped. A broken file does not abort loading; its
// error is joined into the returned error alongside a usable catalog.
func LoadCatalog(dirs []string) (Catalog, error) {
	usedKeys := map[string]int{}
	var builtins []Definition
	for _, name := range BuiltinNames() {
		builtins = append(builtins, Definition{
			Key:         ensureUniqueKey(slugify(name), usedKeys),
			DisplayName: name,
			Origin:      OriginBuiltin,
			Format:      FormatBuiltin,
			Source:      ChromaSource{Style: name},
		})
	}

	var user []Definition
	var combinedErr error
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			combinedErr = errors.Join(combinedErr, fmt.Errorf("themes: read directory %q: %w", dir, err))
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			format, err := FormatForPath(path)
			if err != nil {
				continue
			}
			t, err := LoadFile(path)
			if err != nil {
				combinedErr = errors.Join(combinedErr, fmt.Errorf("themes: load %q: %w", path, err))
				continue
			}
			key := slugify(t.Name())
			if key == "" {
				key = slugify(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
			}
			def := Definition{
				Key:         ensureUniqueKey(key, usedKeys),
				DisplayName: strings.TrimSpace(t.Name()),
				Origin:      OriginUser,
				Format:      format,
				Path:        path,
				Source:      FileSource{Path: path},
			}
			if def.DisplayName == "" {
				def.DisplayName = humaniseSlug(def.Key)
			}
			user = append(user, def)
		}
	}

	sort.SliceStable(user, func(i, j int) bool {
		left := strings.ToLower(user[i].DisplayName)
		right := strings.ToLower(user[j].DisplayName)
		if left == right {
			return user[i].Key < user[j].Key
		}
		return left < right
	})

	var catalog Catalog
	for _, def := range builtins {
		catalog.add(def)
	}
	for _, def := range user {
		catalog.add(def)
	}
	return catalog, combinedErr
}

func ensureUniqueKey(candidate string, used map[string]int) string {
	key := candidate
	if strings.TrimSpace(key) == "" {
		key = "theme"
	}
	base := key
	counter := used[base]
	if counter == 0 {
		used[base] = 1
		return key
	}
	for {
		suffix := fmt.Sprintf("%s-%d", base, counter)
		if _, exists := used[suffix]; !exists {
			used[base] = counter + 1
			used[suffix] = 1
			return suffix
		}
		counter++
	}
}

func slugify(name string) string {
	var builder strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
			lastDash = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastDash {
				builder.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(builder.String(), "-")
}

func humaniseSlug(slug string) string {
	if slug == "" {
		return "Theme"
	}
	parts := strings.Split(slug, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
