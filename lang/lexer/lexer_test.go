package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qclabs/qcl/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexKeywordsAndIdents(t *testing.T) {
	assert := assert.New(t)
	toks := New("fn main qubit q0").Tokens()
	assert.Equal([]token.Kind{
		token.KwFn, token.Ident, token.KwQubit, token.Ident, token.EOF,
	}, kinds(toks))
}

func TestLexOperators(t *testing.T) {
	assert := assert.New(t)
	toks := New("== != <= >= && || ++ --").Tokens()
	assert.Equal([]token.Kind{
		token.Eq, token.NotEq, token.LtEq, token.GtEq, token.AndAnd, token.OrOr,
		token.PlusPlus, token.MinusMinus, token.EOF,
	}, kinds(toks))
}

func TestLexIntFloatString(t *testing.T) {
	require := require.New(t)
	toks := New(`42 3.14 "hi"`).Tokens()
	require.Len(toks, 4)
	require.Equal(token.IntLit, toks[0].Kind)
	require.Equal("42", toks[0].Literal)
	require.Equal(token.FloatLit, toks[1].Kind)
	require.Equal(token.StringLit, toks[2].Kind)
}

func TestLexQubitLiteral(t *testing.T) {
	assert := assert.New(t)
	toks := New(`|01>`).Tokens()
	assert.Equal(token.QubitLit, toks[0].Kind)
}

func TestLexSpanTracksLineColumn(t *testing.T) {
	assert := assert.New(t)
	toks := New("fn\nmain").Tokens()
	assert.Equal(1, toks[0].Span.Line)
	assert.Equal(2, toks[1].Span.Line)
}

func TestLexInvalidByteRecordsDiagnostic(t *testing.T) {
	assert := assert.New(t)
	l := New("fn `bad")
	_ = l.Tokens()
	assert.True(l.Diagnostics().HasErrors())
}
