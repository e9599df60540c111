// Package lexer turns source bytes into the token stream the compiler
// consumes. It is the scanner named as an external collaborator in the
// language core: the compiler only depends on the {Kind, Offset, Length,
// Line} shape below, never on how tokens are produced.
package lexer

// Kind identifies the lexical class of a Token.
type Kind int

const (
	// Sentinels
	Error Kind = iota
	Eof

	// Single-character punctuation
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// One or two character operators
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals
	Identifier
	String
	Number

	// Keywords
	And
	Class
	Else
	False
	For
	Fun
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While
)

var keywords = map[string]Kind{
	"and":    And,
	"class":  Class,
	"else":   Else,
	"false":  False,
	"for":    For,
	"fun":    Fun,
	"if":     If,
	"nil":    Nil,
	"or":     Or,
	"print":  Print,
	"return": Return,
	"super":  Super,
	"this":   This,
	"true":   True,
	"var":    Var,
	"while":  While,
}

// Token is the external scanner contract: {kind, byte offset, length, line}.
// Message carries the Error-kind diagnostic text; it is otherwise unused.
type Token struct {
	Kind    Kind
	Offset  int
	Length  int
	Line    int
	Message string
}

// Lexeme extracts the token's source text from the original byte slice.
func (t Token) Lexeme(src []byte) string {
	return string(src[t.Offset : t.Offset+t.Length])
}
