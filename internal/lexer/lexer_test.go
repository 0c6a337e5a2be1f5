package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xirelogy/go-calc/internal/token"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `var x = 10;
if (x >= 10 and x != 3) {
  print(sin(pi) + 1);
}
# trailing comment
`

	want := []token.Type{
		token.Var, token.Ident, token.Assign, token.Number, token.Semicolon,
		token.If, token.LParen, token.Ident, token.GreaterEq, token.Number,
		token.And, token.Ident, token.NotEq, token.Number, token.RParen,
		token.LBrace,
		token.Print, token.LParen, token.Sin, token.LParen, token.Pi, token.RParen,
		token.Plus, token.Number, token.RParen, token.Semicolon,
		token.RBrace,
		token.EOF,
	}

	l := New(input)
	for i, wantType := range want {
		tok := l.NextToken()
		require.Equalf(t, wantType, tok.Type, "token %d: literal=%q", i, tok.Literal)
	}
}

func TestLexerNumberExponent(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1.5e3", "1.5e3"},
		{"2d-2", "2d-2"},
		{"42", "42"},
	}
	for _, c := range cases {
		l := New(c.src)
		tok := l.NextToken()
		require.Equal(t, token.Number, tok.Type)
		require.Equal(t, c.want, tok.Literal)
	}
}

func TestLexerDecimalExponentIsError(t *testing.T) {
	l := New("1e.5")
	tok := l.NextToken()
	require.Equal(t, token.Illegal, tok.Type)
	require.Equal(t, "Cannot have decimal powers!", tok.Literal)
}

func TestLexerString(t *testing.T) {
	l := New(`"hello world"`)
	tok := l.NextToken()
	require.Equal(t, token.String, tok.Type)
	require.Equal(t, "hello world", tok.Literal)
}

func TestLexerUnterminatedString(t *testing.T) {
	l := New(`"hello`)
	tok := l.NextToken()
	require.Equal(t, token.Illegal, tok.Type)
}

func TestLexerIdentifierWithIndexAndDotContinuation(t *testing.T) {
	l := New("a.b[1]")
	tok := l.NextToken()
	require.Equal(t, token.Ident, tok.Type)
	require.Equal(t, "a.b[1]", tok.Literal)
}

func TestLexerOperators(t *testing.T) {
	l := New("** // <= >= == != ~ ?")
	want := []token.Type{
		token.StarStar, token.SlashSlash, token.LessEq, token.GreaterEq,
		token.Eq, token.NotEq, token.Tilde, token.Question, token.EOF,
	}
	for _, wantType := range want {
		tok := l.NextToken()
		require.Equal(t, wantType, tok.Type)
	}
}

func TestLexerLineTracking(t *testing.T) {
	l := New("1\n2\n3")
	for i, want := range []int{1, 2, 3} {
		tok := l.NextToken()
		require.Equalf(t, want, tok.Line, "token %d", i)
	}
}
