package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qclabs/qcl/token"
)

func TestHasErrorsDistinguishesWarnings(t *testing.T) {
	assert := assert.New(t)
	list := List{
		{Kind: TypeError, Severity: SeverityWarning, Message: "just a warning"},
	}
	assert.False(list.HasErrors())

	list = append(list, Diagnostic{Kind: TypeError, Severity: SeverityError, Message: "real error"})
	assert.True(list.HasErrors())
}

func TestErrorsAndWarningsFilter(t *testing.T) {
	assert := assert.New(t)
	list := List{
		{Kind: TypeError, Severity: SeverityError, Message: "e1"},
		{Kind: TypeError, Severity: SeverityWarning, Message: "w1"},
		{Kind: TypeError, Severity: SeverityError, Message: "e2"},
	}
	assert.Len(list.Errors(), 2)
	assert.Len(list.Warnings(), 1)
}

func TestRenderIncludesHintAndCaret(t *testing.T) {
	assert := assert.New(t)
	d := Diagnostic{
		Message: "unexpected token",
		Hint:    "did you forget a semicolon?",
		Span:    token.Span{Line: 1, Column: 5},
	}
	out := d.Render("let x = 5")
	assert.Contains(out, "1:5: unexpected token")
	assert.Contains(out, "hint: did you forget a semicolon?")
	assert.Contains(out, "let x = 5")
}

func TestListErrorJoinsMessages(t *testing.T) {
	assert := assert.New(t)
	list := List{
		{Message: "first", Span: token.Span{Line: 1, Column: 1}},
		{Message: "second", Span: token.Span{Line: 2, Column: 3}},
	}
	assert.Equal("1:1: first\n2:3: second", list.Error())
}
