package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanMerge(t *testing.T) {
	assert := assert.New(t)
	a := Span{Line: 1, Column: 1, ByteStart: 0, ByteEnd: 3}
	b := Span{Line: 1, Column: 5, ByteStart: 4, ByteEnd: 8}
	m := a.Merge(b)
	assert.Equal(0, m.ByteStart)
	assert.Equal(8, m.ByteEnd)
}

func TestSpanMergeEarlierStart(t *testing.T) {
	assert := assert.New(t)
	a := Span{Line: 2, Column: 1, ByteStart: 10, ByteEnd: 12}
	b := Span{Line: 1, Column: 1, ByteStart: 2, ByteEnd: 4}
	m := a.Merge(b)
	assert.Equal(2, m.ByteStart)
	assert.Equal(1, m.Line)
	assert.Equal(12, m.ByteEnd)
}

func TestKindString(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("qubit", KwQubit.String())
	assert.Equal("UNKNOWN", Kind(9999).String())
}

func TestKeywordsTable(t *testing.T) {
	assert := assert.New(t)
	k, ok := Keywords["qif"]
	assert.True(ok)
	assert.Equal(KwQIf, k)
}

func TestTokenString(t *testing.T) {
	assert := assert.New(t)
	tok := Token{Kind: Ident, Literal: "q0", Span: Span{Line: 1, Column: 1}}
	assert.Contains(tok.String(), "q0")
}
