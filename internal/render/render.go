// Package render maps resolved styles onto lipgloss styles for terminal
// output.
package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/tmstyle/internal/document"
	"github.com/zjrosen/tmstyle/internal/style"
)

// tabSpaces matches lipgloss' default tab width.
const tabSpaces = "    "

// Options configures a Renderer.
type Options struct {
	// LineNumbers prefixes each line with a right-aligned line number.
	LineNumbers bool
	// Width pads every line to this many cells with the theme background.
	// Zero disables padding.
	Width int
	// Renderer defaults to a renderer on stdout.
	Renderer *lipgloss.Renderer
}

// Renderer styles tokens with one theme's settings.
type Renderer struct {
	opts       Options
	r          *lipgloss.Renderer
	settings   *style.ThemeSettings
	background string
	base       lipgloss.Style
	gutter     lipgloss.Style
	styles     map[style.ResolvedStyle]lipgloss.Style
}

// New creates a renderer for settings. Nil settings render plain text.
func New(settings *style.ThemeSettings, opts Options) *Renderer {
	r := opts.Renderer
	if r == nil {
		r = lipgloss.NewRenderer(os.Stdout)
	}
	rd := &Renderer{
		opts:     opts,
		r:        r,
		settings: settings,
		base:     r.NewStyle(),
		gutter:   r.NewStyle(),
		styles:   make(map[style.ResolvedStyle]lipgloss.Style),
	}
	if settings == nil {
		return rd
	}

	rd.background, _ = NormalizeColor(settings.BackgroundColor(), "#000000")
	fg, _ := NormalizeColor(settings.ForegroundColor(), rd.background)
	rd.base = rd.colored(r.NewStyle(), fg, rd.background)

	muted, ok := Mix(fg, rd.background, 0.5)
	if !ok {
		muted = fg
	}
	rd.gutter = rd.colored(r.NewStyle(), muted, rd.background)
	if sel, ok := settings.SelectionBackgroundColor(); ok {
		if sel, ok = NormalizeColor(sel, rd.background); ok {
			rd.gutter = rd.gutter.Background(lipgloss.Color(sel))
		}
	}
	return rd
}

func (rd *Renderer) colored(st lipgloss.Style, fg, bg string) lipgloss.Style {
	if fg != "" {
		st = st.Foreground(lipgloss.Color(fg))
	}
	if bg != "" {
		st = st.Background(lipgloss.Color(bg))
	}
	return st
}

// Background is the normalized theme background, empty without settings.
func (rd *Renderer) Background() string { return rd.background }

// Base is the style of unstyled text.
func (rd *Renderer) Base() lipgloss.Style { return rd.base }

// Style converts rs. A nil rs yields the base style. Results are memoized
// by value.
func (rd *Renderer) Style(rs *style.ResolvedStyle) lipgloss.Style {
	if rs == nil || rd.settings == nil {
		return rd.base
	}
	if st, ok := rd.styles[*rs]; ok {
		return st
	}

	fg, _ := NormalizeColor(rs.Foreground, rd.background)
	bg, _ := NormalizeColor(rs.Background, rd.background)
	st := rd.colored(rd.r.NewStyle(), fg, bg).
		Bold(rs.Bold).
		Italic(rs.Italic).
		Underline(rs.Underline).
		Strikethrough(rs.Strikethrough)
	rd.styles[*rs] = st
	return st
}

// Line renders one line of tokens.
func (rd *Renderer) Line(tokens []style.StyledToken) string {
	return rd.line(tokens, rd.opts.Width)
}

func (rd *Renderer) line(tokens []style.StyledToken, width int) string {
	var b strings.Builder
	used := 0
	for _, tok := range tokens {
		if tok.Text == "" {
			continue
		}
		text := strings.ReplaceAll(tok.Text, "\t", tabSpaces)
		b.WriteString(rd.Style(tok.Style).Render(text))
		used += ansi.StringWidth(text)
	}
	if pad := width - used; pad > 0 {
		b.WriteString(rd.base.Render(strings.Repeat(" ", pad)))
	}
	return b.String()
}

// GutterWidth is the cell width of a line-number cell for total lines.
func GutterWidth(total int) int {
	return len(strconv.Itoa(max(total, 1))) + 2
}

// Gutter renders the line-number cell for line n of total.
func (rd *Renderer) Gutter(n, total int) string {
	return rd.gutter.Render(fmt.Sprintf(" %*d ", GutterWidth(total)-2, n))
}

// Document renders every line of doc joined by newlines. With line numbers
// the gutter counts towards Width.
func (rd *Renderer) Document(doc document.Document) string {
	width := rd.opts.Width
	if rd.opts.LineNumbers {
		width -= GutterWidth(len(doc.Lines))
	}
	lines := make([]string, len(doc.Lines))
	for i, line := range doc.Lines {
		var b strings.Builder
		if rd.opts.LineNumbers {
			b.WriteString(rd.Gutter(line.Number, len(doc.Lines)))
		}
		b.WriteString(rd.line(line.Tokens, width))
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}
