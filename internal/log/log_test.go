package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog_NoopWithoutInit(t *testing.T) {
	Reset()
	require.NotPanics(t, func() {
		Debug(CatProvider, "nothing happens")
		ErrorErr(CatTheme, "still nothing", nil)
	})
}

func TestLog_FormatsFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	Info(CatTheme, "loaded theme", "key", "monokai", "rules", 12)

	line := buf.String()
	require.Contains(t, line, "[INFO] [theme] loaded theme")
	require.Contains(t, line, "key=monokai")
	require.Contains(t, line, "rules=12")
	require.True(t, strings.HasSuffix(line, "\n"))
}

func TestLog_OrphanKey(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	Warn(CatCache, "odd fields", "lonely")

	require.Contains(t, buf.String(), "lonely=<missing>")
}

func TestLog_MinLevelAndDisable(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	SetMinLevel(LevelWarn)
	Debug(CatProvider, "hidden")
	Error(CatProvider, "shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")

	buf.Reset()
	SetEnabled(false)
	Error(CatProvider, "muted")
	require.Empty(t, buf.String())
}

func TestLog_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	ErrorErr(CatGrammar, "load failed", errTest("boom"), "lang", "go")

	require.Contains(t, buf.String(), "lang=go error=boom")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelInfo, ParseLevel("info"))
	require.Equal(t, LevelWarn, ParseLevel("warn"))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelDebug, ParseLevel("verbose"))
	require.Equal(t, LevelWarn, ParseLevel(" WARN "))
}

func TestLog_QuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	Info(CatTheme, "theme set", "name", "Solarized Dark", "key", "solarized-dark", "empty", "")

	line := buf.String()
	require.Contains(t, line, `name="Solarized Dark"`)
	require.Contains(t, line, "key=solarized-dark")
	require.Contains(t, line, `empty=""`)
}

func TestLog_SetCategories(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	SetCategories(CatCache, CatTheme)
	Debug(CatProvider, "provider line")
	Debug(CatCache, "cache line")
	require.NotContains(t, buf.String(), "provider line")
	require.Contains(t, buf.String(), "cache line")

	SetCategories()
	Debug(CatProvider, "provider again")
	require.Contains(t, buf.String(), "provider again")
}

func TestParseCategories(t *testing.T) {
	cats, err := ParseCategories([]string{"Cache", " theme "})
	require.NoError(t, err)
	require.Equal(t, []Category{CatCache, CatTheme}, cats)

	_, err = ParseCategories([]string{"cache", "sql"})
	require.ErrorContains(t, err, `"sql"`)

	cats, err = ParseCategories(nil)
	require.NoError(t, err)
	require.Empty(t, cats)
}

type errTest string

func (e errTest) Error() string { return string(e) }
