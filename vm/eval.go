package vm

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"
)

// ---------------------------------------------------------------------------
// Eval: a small expression language over message sends
// ---------------------------------------------------------------------------
//
// Supported forms:
//
//	42  4.5  "str"  'str'  :sym  nil  true  false  self
//	Const  Outer::Inner  [a, b]  (expr)
//	x = expr            local assignment
//	recv.name(args)     message send, parens optional without arguments
//	recv[i]  recv[i] = v
//	a + b, a == b ...   binary operators are message sends
//	name args           send to the top-level object, e.g. raise "boom"
//	f(*array)           splat into an argument list
//
// Statements are separated by ';' or newlines; '#' starts a comment. The
// value of the last statement is returned.

// Eval evaluates src with the top-level object as self. Syntax errors
// raise SyntaxError.
func (vm *VM) Eval(src string) Value {
	defer vm.enter()()

	toks, err := lex(src)
	if err != nil {
		vm.Raise(vm.SyntaxErrorClass, "%s", err.Error())
	}

	depth := len(vm.frames)
	vm.frames = append(vm.frames, &Frame{Receiver: vm.main, Selector: "<eval>"})
	defer func() { vm.frames = vm.frames[:depth] }()

	p := &parser{vm: vm, toks: toks, locals: make(map[string]Value)}
	result := p.program()

	vm.frames = vm.frames[:depth]
	vm.addLocal(result)
	return result
}

// ---------------------------------------------------------------------------
// Lexer
// ---------------------------------------------------------------------------

const (
	tokEOF     = scanner.EOF
	tokIdent   = scanner.Ident
	tokInt     = scanner.Int
	tokFloat   = scanner.Float
	tokString  = scanner.String
	tokNewline = '\n'
	tokOp      = -100
)

type token struct {
	kind rune
	text string
	pos  scanner.Position
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokNewline:
		return "newline"
	case tokString:
		return strconv.Quote(t.text)
	}
	return fmt.Sprintf("'%s'", t.text)
}

var twoCharOps = map[string]bool{
	"==": true, "!=": true, "<=": true, ">=": true, "<<": true, "::": true,
}

func lex(src string) ([]token, error) {
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings
	s.Whitespace = 1<<'\t' | 1<<' ' | 1<<'\r'

	var errs []string
	s.Error = func(s *scanner.Scanner, msg string) {
		errs = append(errs, fmt.Sprintf("%s: %s", s.Position, msg))
	}

	var toks []token
	emit := func(kind rune, text string, pos scanner.Position) {
		toks = append(toks, token{kind: kind, text: text, pos: pos})
	}

	for {
		tok := s.Scan()
		pos := s.Position
		switch tok {
		case scanner.EOF:
			emit(tokEOF, "", pos)
			if len(errs) > 0 {
				return nil, fmt.Errorf("%s", strings.Join(errs, "; "))
			}
			return toks, nil

		case scanner.Ident:
			text := s.TokenText()
			switch s.Peek() {
			case '?':
				s.Next()
				text += "?"
			case '!':
				s.Next()
				if s.Peek() == '=' {
					s.Next()
					emit(tokIdent, text, pos)
					emit(tokOp, "!=", pos)
					continue
				}
				text += "!"
			}
			emit(tokIdent, text, pos)

		case scanner.Int:
			emit(tokInt, s.TokenText(), pos)

		case scanner.Float:
			// "1.foo" scans as the float "1." followed by an identifier
			text := s.TokenText()
			if strings.HasSuffix(text, ".") {
				emit(tokInt, strings.TrimSuffix(text, "."), pos)
				emit(tokOp, ".", pos)
				continue
			}
			emit(tokFloat, text, pos)

		case scanner.String:
			text, err := strconv.Unquote(s.TokenText())
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", pos, err))
			}
			emit(tokString, text, pos)

		case '\'':
			var sb strings.Builder
			for {
				ch := s.Next()
				if ch == scanner.EOF {
					errs = append(errs, fmt.Sprintf("%s: unterminated string", pos))
					break
				}
				if ch == '\'' {
					break
				}
				sb.WriteRune(ch)
			}
			emit(tokString, sb.String(), pos)

		case '#':
			for ch := s.Peek(); ch != '\n' && ch != scanner.EOF; ch = s.Peek() {
				s.Next()
			}

		case '\n':
			emit(tokNewline, "\n", pos)

		default:
			op := string(tok)
			if two := op + string(s.Peek()); twoCharOps[two] {
				s.Next()
				op = two
			}
			emit(tokOp, op, pos)
		}
	}
}

// ---------------------------------------------------------------------------
// Parser / evaluator
// ---------------------------------------------------------------------------

type parser struct {
	vm     *VM
	toks   []token
	pos    int
	locals map[string]Value
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) is(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

func (p *parser) accept(op string) bool {
	if p.is(op) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptAny(ops ...string) (string, bool) {
	for _, op := range ops {
		if p.accept(op) {
			return op, true
		}
	}
	return "", false
}

func (p *parser) expect(op string) {
	if !p.accept(op) {
		p.fail("expected '%s', got %s", op, p.peek())
	}
}

func (p *parser) fail(format string, args ...any) {
	pos := p.peek().pos
	p.vm.Raise(p.vm.SyntaxErrorClass, "%d:%d: %s", pos.Line, pos.Column, fmt.Sprintf(format, args...))
}

func (p *parser) skipNewlines() {
	for p.peek().kind == tokNewline {
		p.pos++
	}
}

func (p *parser) atStatementEnd() bool {
	t := p.peek()
	return t.kind == tokEOF || t.kind == tokNewline || (t.kind == tokOp && t.text == ";")
}

func (p *parser) program() Value {
	result := Nil
	for {
		for p.peek().kind == tokNewline || p.is(";") {
			p.pos++
		}
		if p.peek().kind == tokEOF {
			return result
		}
		result = p.statement()
		if !p.atStatementEnd() {
			p.fail("unexpected %s", p.peek())
		}
	}
}

func (p *parser) statement() Value {
	t := p.peek()
	if t.kind == tokIdent && isLocalName(t.text) {
		if next := p.peekAt(1); next.kind == tokOp && next.text == "=" {
			p.pos += 2
			p.skipNewlines()
			v := p.expr()
			p.locals[t.text] = v
			return v
		}
	}
	return p.expr()
}

func (p *parser) expr() Value {
	return p.binary(p.comparison, "==", "!=")
}

func (p *parser) comparison() Value {
	return p.binary(p.shift, "<", "<=", ">", ">=")
}

func (p *parser) shift() Value {
	return p.binary(p.additive, "<<")
}

func (p *parser) additive() Value {
	return p.binary(p.multiplicative, "+", "-")
}

func (p *parser) multiplicative() Value {
	return p.binary(p.unary, "*", "/", "%")
}

func (p *parser) binary(operand func() Value, ops ...string) Value {
	left := operand()
	for {
		op, ok := p.acceptAny(ops...)
		if !ok {
			return left
		}
		p.skipNewlines()
		right := operand()
		left = p.vm.Send(left, op, []Value{right})
	}
}

func (p *parser) unary() Value {
	switch {
	case p.accept("-"):
		v := p.unary()
		switch {
		case v.IsSmallInt():
			return p.vm.intResult(-v.SmallInt())
		case v.IsFloat():
			return FromFloat64(-v.Float64())
		}
		return p.vm.Send(v, "-@", nil)
	case p.accept("!"):
		return p.vm.Send(p.unary(), "!", nil)
	}
	return p.postfix(p.primary())
}

func (p *parser) postfix(v Value) Value {
	for {
		switch {
		case p.accept("."):
			p.skipNewlines()
			name := p.next()
			if name.kind != tokIdent {
				p.fail("expected method name, got %s", name)
			}
			var args []Value
			if p.accept("(") {
				args = p.args(")")
			}
			v = p.vm.Send(v, name.text, args)

		case p.accept("::"):
			name := p.next()
			if name.kind != tokIdent {
				p.fail("expected constant name, got %s", name)
			}
			v = p.scopedConstant(v, name.text)

		case p.accept("["):
			args := p.args("]")
			if p.accept("=") {
				p.skipNewlines()
				val := p.expr()
				p.vm.Send(v, "[]=", append(args, val))
				return val
			}
			v = p.vm.Send(v, "[]", args)

		default:
			return v
		}
	}
}

func (p *parser) primary() Value {
	vm := p.vm
	t := p.next()
	switch t.kind {
	case tokInt:
		n, err := strconv.ParseInt(t.text, 0, 64)
		if err != nil {
			vm.Raise(vm.RangeErrorClass, "integer %s out of range", t.text)
		}
		return vm.intResult(n)

	case tokFloat:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			p.fail("bad float %s", t.text)
		}
		return FromFloat64(f)

	case tokString:
		return vm.NewString(t.text)

	case tokIdent:
		switch t.text {
		case "nil":
			return Nil
		case "true":
			return True
		case "false":
			return False
		case "self":
			return vm.main
		}
		if isConstName(t.text) {
			return p.scopedConstant(vm.ObjectClass.value, t.text)
		}
		if v, ok := p.locals[t.text]; ok {
			return v
		}
		return vm.Send(vm.main, t.text, p.commandArgs())

	case tokOp:
		switch t.text {
		case "(":
			p.skipNewlines()
			v := p.expr()
			p.skipNewlines()
			p.expect(")")
			return v
		case "[":
			return vm.NewArray(p.args("]"))
		case ":":
			name := p.next()
			if name.kind != tokIdent && name.kind != tokString {
				p.fail("expected symbol name, got %s", name)
			}
			return vm.Symbol(name.text)
		}
	}
	if t.kind != tokEOF {
		p.pos--
	}
	p.fail("unexpected %s", t)
	return Nil
}

func (p *parser) scopedConstant(scope Value, name string) Value {
	c := p.vm.ClassOf(scope)
	if c == nil {
		p.vm.Raise(p.vm.TypeErrorClass, "%s is not a class/module", p.vm.Inspect(scope))
	}
	v, ok := c.Constant(name)
	if !ok {
		if c == p.vm.ObjectClass {
			p.vm.Raise(p.vm.NameErrorClass, "uninitialized constant %s", name)
		}
		p.vm.Raise(p.vm.NameErrorClass, "uninitialized constant %s::%s", c.FullName(), name)
	}
	return v
}

// args parses a comma-separated argument list up to close.
func (p *parser) args(close string) []Value {
	var args []Value
	p.skipNewlines()
	if p.accept(close) {
		return args
	}
	for {
		p.skipNewlines()
		args = p.arg(args)
		p.skipNewlines()
		if p.accept(close) {
			return args
		}
		p.expect(",")
	}
}

// commandArgs parses the arguments of a self call: parenthesized, bare
// on the same line, or none.
func (p *parser) commandArgs() []Value {
	if p.accept("(") {
		return p.args(")")
	}
	if !p.startsArgument() {
		return nil
	}
	args := p.arg(nil)
	for p.accept(",") {
		p.skipNewlines()
		args = p.arg(args)
	}
	return args
}

func (p *parser) arg(args []Value) []Value {
	if p.accept("*") {
		v := p.expr()
		elems, ok := p.vm.ArrayElements(v)
		if !ok {
			p.vm.Raise(p.vm.TypeErrorClass, "cannot splat %s", p.vm.Inspect(v))
		}
		return append(args, elems...)
	}
	return append(args, p.expr())
}

func (p *parser) startsArgument() bool {
	t := p.peek()
	switch t.kind {
	case tokInt, tokFloat, tokString, tokIdent:
		return true
	case tokOp:
		return t.text == "[" || t.text == ":" || t.text == "*"
	}
	return false
}

func isConstName(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

func isLocalName(s string) bool {
	if s == "" || isConstName(s) {
		return false
	}
	switch s {
	case "nil", "true", "false", "self":
		return false
	}
	last := s[len(s)-1]
	return last != '?' && last != '!'
}
