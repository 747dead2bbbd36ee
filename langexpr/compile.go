package langexpr

import (
	"strconv"

	"github.com/taylorza/zopt/intern"
	"github.com/taylorza/zopt/zerr"
)

// TokenEntry is one atom of a compiled, flat, postfix-ordered expression.
// Number carries IVal; Variable carries IVal as the slot index 0..9;
// Literal carries SVal (already interned); the remaining tags carry no
// payload.
type TokenEntry struct {
	Type TokenType
	IVal int32
	SVal string
}

// CompiledExpr is a tokenized expression, compiled once and evaluated
// many times against different Bindings.
type CompiledExpr struct {
	entries []TokenEntry
}

// Entries exposes the compiled postfix sequence, e.g. for tooling that
// wants to inspect which variables a constraint references.
func (c *CompiledExpr) Entries() []TokenEntry {
	return c.entries
}

type compiler struct {
	tokens []Token
	pos    int
	out    []TokenEntry
	line   int
	table  *intern.Table
}

func (c *compiler) current() (Token, bool) {
	if c.pos >= len(c.tokens) {
		return Token{}, false
	}
	return c.tokens[c.pos], true
}

func (c *compiler) advance() {
	c.pos++
}

func (c *compiler) emit(e TokenEntry) {
	c.out = append(c.out, e)
}

// compilePrimary compiles one operand: a number, a variable reference, a
// literal, a parenthesized sub-expression, or a prefix builtin call
// (isnumeric/startswith) together with the operand(s) it consumes. The
// reference tokenizer writes isnumeric/startswith in prefix position
// ("isnumeric $1") while the evaluator consumes operands off a stack in
// postfix order; compilePrimary reconciles the two by parsing the
// builtin's operand(s) first and emitting the builtin token last, so the
// flat compiled form is always valid postfix regardless of the prefix
// surface syntax.
func (c *compiler) compilePrimary() error {
	tok, ok := c.current()
	if !ok {
		return zerr.Atf(zerr.InvalidExpression, c.line, "unexpected end of expression")
	}

	switch tok.Type {
	case TokNumber:
		n, err := strconv.ParseInt(tok.Text, 10, 32)
		if err != nil {
			return zerr.Atf(zerr.InvalidExpression, c.line, "invalid number %q", tok.Text)
		}
		c.emit(TokenEntry{Type: TokNumber, IVal: int32(n)})
		c.advance()
		return nil

	case TokVariable:
		c.emit(TokenEntry{Type: TokVariable, IVal: int32(tok.VarIdx)})
		c.advance()
		return nil

	case TokLiteral:
		c.emit(TokenEntry{Type: TokLiteral, SVal: c.table.Intern(tok.Text).String()})
		c.advance()
		return nil

	case TokLParen:
		c.advance()
		if err := c.compileExpr(); err != nil {
			return err
		}
		closeTok, ok := c.current()
		if !ok || closeTok.Type != TokRParen {
			return zerr.Atf(zerr.InvalidExpression, c.line, "expected ')'")
		}
		c.advance()
		return nil

	case TokIsNumeric:
		c.advance()
		if err := c.compilePrimary(); err != nil {
			return err
		}
		c.emit(TokenEntry{Type: TokIsNumeric})
		return nil

	case TokStartsWith:
		c.advance()
		if err := c.compilePrimary(); err != nil {
			return err
		}
		if err := c.compilePrimary(); err != nil {
			return err
		}
		c.emit(TokenEntry{Type: TokStartsWith})
		return nil

	default:
		return zerr.Atf(zerr.InvalidExpression, c.line, "unexpected token %s", tok.Type)
	}
}

// compileExpr compiles a left-to-right chain of primaries joined by
// binary operators. There is no operator precedence: each operator
// applies to whatever the running result is and the next primary,
// exactly as the reference evaluator's single-pass stack machine does.
// Parenthesize sub-expressions to override the default left-to-right
// grouping.
func (c *compiler) compileExpr() error {
	if err := c.compilePrimary(); err != nil {
		return err
	}
	for {
		tok, ok := c.current()
		if !ok || !tok.Type.isBinaryOp() {
			return nil
		}
		c.advance()
		if err := c.compilePrimary(); err != nil {
			return err
		}
		c.emit(TokenEntry{Type: tok.Type})
	}
}

// Compile tokenizes and compiles expr (a constraint body or the inner
// text of an $eval(...) substitution) into a CompiledExpr, interning any
// literal operands through table.
func Compile(expr string, line int, table *intern.Table) (*CompiledExpr, error) {
	toks, err := Tokenize(expr, line)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, zerr.Atf(zerr.InvalidExpression, line, "empty expression")
	}
	c := &compiler{tokens: toks, line: line, table: table}
	if err := c.compileExpr(); err != nil {
		return nil, err
	}
	if c.pos != len(c.tokens) {
		return nil, zerr.Atf(zerr.InvalidExpression, line, "unexpected trailing tokens")
	}
	return &CompiledExpr{entries: c.out}, nil
}
