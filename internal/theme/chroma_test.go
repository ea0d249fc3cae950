package theme

import (
	"testing"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/stretchr/testify/require"
)

func TestFromChromaStyle_Monokai(t *testing.T) {
	th := FromChromaStyle(styles.Get("monokai"))

	require.Equal(t, "monokai", th.Name())
	require.Equal(t, "#272822", th.EditorColors()["editor.background"])
	require.Equal(t, "#f8f8f2", th.EditorColors()["editor.foreground"])
	require.NotEmpty(t, th.EditorColors()["editor.lineHighlightBackground"])

	d := th.Defaults()
	require.Equal(t, "#272822", colorOf(th, d.BackgroundID))

	kw, ok := th.Match("keyword.control.go")
	require.True(t, ok)
	require.Equal(t, "#66D9EF", colorOf(th, kw.ForegroundID))
	require.Zero(t, kw.BackgroundID, "background equal to the default is not repeated")

	ns, ok := th.Match("keyword.control.import.go")
	require.True(t, ok)
	require.Equal(t, "#F92672", colorOf(th, ns.ForegroundID))

	str, ok := th.Match("string.quoted.go")
	require.True(t, ok)
	require.Equal(t, "#E6DB74", colorOf(th, str.ForegroundID))

	bad, ok := th.Match("invalid.illegal.go")
	require.True(t, ok)
	require.Equal(t, "#1E0010", colorOf(th, bad.BackgroundID))
}

func TestFromChromaStyle_FontFlags(t *testing.T) {
	th := FromChromaStyle(styles.Get("monokai"))

	emph, ok := th.Match("markup.italic")
	require.True(t, ok)
	require.True(t, emph.FontStyle.Italic())

	strong, ok := th.Match("markup.bold")
	require.True(t, ok)
	require.True(t, strong.FontStyle.Bold())
}

func TestChromaSource(t *testing.T) {
	th, err := ChromaSource{Style: "dracula"}.Load()
	require.NoError(t, err)
	require.Equal(t, "dracula", th.Name())

	_, err = ChromaSource{Style: "no-such-style"}.Load()
	require.ErrorIs(t, err, ErrUnknownTheme)
}

func TestBuiltinNames(t *testing.T) {
	names := BuiltinNames()
	require.Contains(t, names, "monokai")
	require.IsNonDecreasing(t, names)
}
