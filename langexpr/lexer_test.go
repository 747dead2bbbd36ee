package langexpr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeOperatorsAndVariables(t *testing.T) {
	toks, err := Tokenize(`isnumeric $1 and $1 = 0`, 1)
	require.NoError(t, err)
	require.Equal(t, []Token{
		{Type: TokIsNumeric},
		{Type: TokVariable, VarIdx: 1},
		{Type: TokAnd},
		{Type: TokVariable, VarIdx: 1},
		{Type: TokEq},
		{Type: TokNumber, Text: "0"},
	}, toks)
}

func TestTokenizeQuotedLiterals(t *testing.T) {
	toks, err := Tokenize(`startswith $0 "hl,"`, 1)
	require.NoError(t, err)
	require.Equal(t, []Token{
		{Type: TokStartsWith},
		{Type: TokVariable, VarIdx: 0},
		{Type: TokLiteral, Text: "hl,"},
	}, toks)

	toks, err = Tokenize(`$0 = 'x'`, 1)
	require.NoError(t, err)
	require.Equal(t, []Token{
		{Type: TokVariable, VarIdx: 0},
		{Type: TokEq},
		{Type: TokLiteral, Text: "x"},
	}, toks)
}

func TestTokenizeDollarDollarLiteral(t *testing.T) {
	toks, err := Tokenize(`$0 = $$`, 1)
	require.NoError(t, err)
	require.Equal(t, []Token{
		{Type: TokVariable, VarIdx: 0},
		{Type: TokEq},
		{Type: TokLiteral, Text: "$"},
	}, toks)
}

func TestTokenizeBareword(t *testing.T) {
	toks, err := Tokenize(`$0 = hl`, 1)
	require.NoError(t, err)
	require.Equal(t, TokLiteral, toks[2].Type)
	require.Equal(t, "hl", toks[2].Text)
}

func TestTokenizeComparisonVariants(t *testing.T) {
	toks, err := Tokenize(`$0 <= $1 <> $2 >= $3`, 1)
	require.NoError(t, err)
	require.Equal(t, TokLe, toks[1].Type)
	require.Equal(t, TokNe, toks[3].Type)
	require.Equal(t, TokGe, toks[5].Type)
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, err := Tokenize(`$0 = "abc`, 7)
	require.Error(t, err)
}
