package scopemap

import (
	"testing"

	"github.com/alecthomas/chroma/v2"
	"github.com/stretchr/testify/require"
)

func TestForToken(t *testing.T) {
	tests := []struct {
		name string
		tt   chroma.TokenType
		want string
	}{
		{"exact keyword", chroma.Keyword, "keyword.control"},
		{"exact sub type", chroma.KeywordType, "support.type"},
		{"string falls back to sub category", chroma.LiteralStringDouble, "string.quoted"},
		{"number falls back to sub category", chroma.LiteralNumberHex, "constant.numeric"},
		{"comment sub type", chroma.CommentMultiline, "comment.block"},
		{"plain text unmapped", chroma.Text, ""},
		{"whitespace unmapped", chroma.TextWhitespace, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ForToken(tt.tt))
		})
	}
}

func TestEntries_UniqueTypes(t *testing.T) {
	seen := make(map[chroma.TokenType]bool, len(Entries))
	for _, e := range Entries {
		require.False(t, seen[e.Type], "duplicate entry for %s", e.Type)
		require.NotEmpty(t, e.Scope)
		seen[e.Type] = true
	}
}
