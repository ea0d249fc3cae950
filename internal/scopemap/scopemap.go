// Package scopemap maps chroma token types onto TextMate scope names.
// The chroma grammar uses it to build scope stacks and the chroma theme
// conversion uses it to turn chroma styles into scope rules, so both sides
// agree on naming.
package scopemap

import "github.com/alecthomas/chroma/v2"

// Entry pairs a chroma token type with the TextMate scope it produces.
type Entry struct {
	Type  chroma.TokenType
	Scope string
}

// Entries lists every mapped token type, least specific scopes first so that
// rules derived from them can be overlaid in order.
var Entries = []Entry{
	{chroma.Comment, "comment"},
	{chroma.CommentSingle, "comment.line"},
	{chroma.CommentHashbang, "comment.line.shebang"},
	{chroma.CommentMultiline, "comment.block"},
	{chroma.CommentSpecial, "comment.block.documentation"},
	{chroma.CommentPreproc, "meta.preprocessor"},
	{chroma.CommentPreprocFile, "meta.preprocessor.string"},

	{chroma.Keyword, "keyword.control"},
	{chroma.KeywordReserved, "keyword.other.reserved"},
	{chroma.KeywordPseudo, "keyword.other"},
	{chroma.KeywordNamespace, "keyword.control.import"},
	{chroma.KeywordDeclaration, "storage.type"},
	{chroma.KeywordType, "support.type"},
	{chroma.KeywordConstant, "constant.language"},

	{chroma.Name, "variable"},
	{chroma.NameOther, "variable.other"},
	{chroma.NameVariable, "variable.other.readwrite"},
	{chroma.NameProperty, "variable.other.property"},
	{chroma.NameConstant, "variable.other.constant"},
	{chroma.NameBuiltinPseudo, "variable.language"},
	{chroma.NameBuiltin, "support.function.builtin"},
	{chroma.NameFunctionMagic, "support.function.magic"},
	{chroma.NameFunction, "entity.name.function"},
	{chroma.NameDecorator, "entity.name.function.decorator"},
	{chroma.NameClass, "entity.name.type.class"},
	{chroma.NameException, "entity.name.type.exception"},
	{chroma.NameNamespace, "entity.name.namespace"},
	{chroma.NameLabel, "entity.name.label"},
	{chroma.NameTag, "entity.name.tag"},
	{chroma.NameAttribute, "entity.other.attribute-name"},
	{chroma.NameEntity, "constant.character.entity"},

	{chroma.Literal, "constant"},
	{chroma.LiteralDate, "constant.other.date"},
	{chroma.LiteralNumber, "constant.numeric"},
	{chroma.LiteralString, "string.quoted"},
	{chroma.LiteralStringChar, "string.quoted.single"},
	{chroma.LiteralStringBacktick, "string.quoted.other"},
	{chroma.LiteralStringDoc, "string.quoted.docstring"},
	{chroma.LiteralStringRegex, "string.regexp"},
	{chroma.LiteralStringSymbol, "constant.other.symbol"},
	{chroma.LiteralStringEscape, "constant.character.escape"},
	{chroma.LiteralStringInterpol, "meta.interpolation"},

	{chroma.Operator, "keyword.operator"},
	{chroma.OperatorWord, "keyword.operator.word"},
	{chroma.Punctuation, "punctuation"},

	{chroma.GenericHeading, "markup.heading"},
	{chroma.GenericSubheading, "markup.heading.subheading"},
	{chroma.GenericInserted, "markup.inserted"},
	{chroma.GenericDeleted, "markup.deleted"},
	{chroma.GenericEmph, "markup.italic"},
	{chroma.GenericStrong, "markup.bold"},
	{chroma.GenericUnderline, "markup.underline"},
	{chroma.GenericError, "invalid"},
	{chroma.Error, "invalid.illegal"},
}

var byType = func() map[chroma.TokenType]string {
	m := make(map[chroma.TokenType]string, len(Entries))
	for _, e := range Entries {
		m[e.Type] = e.Scope
	}
	return m
}()

// ForToken returns the scope for tt, falling back to its sub-category and then
// its category. Text, whitespace and unmapped types return "".
func ForToken(tt chroma.TokenType) string {
	if s, ok := byType[tt]; ok {
		return s
	}
	if s, ok := byType[tt.SubCategory()]; ok {
		return s
	}
	if s, ok := byType[tt.Category()]; ok {
		return s
	}
	return ""
}
