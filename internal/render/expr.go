package render

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression grammar, smallest to largest binding:
//
//	expr    := eq ("||" eq)*
//	eq      := unary (("==" | "!=") unary)*
//	unary   := "!" unary | primary
//	primary := literal | ident ("." ident)* | ident "(" args ")" | "(" expr ")"
//
// Identifiers resolve against the render context; calls resolve against the
// helper table. There is deliberately no arbitrary code execution here.
type expr interface{ isExpr() }

type litExpr struct {
	value any
}

type identExpr struct {
	path []string
	line int
}

type callExpr struct {
	name string
	args []expr
	line int
}

type notExpr struct {
	inner expr
}

type binExpr struct {
	op          string
	left, right expr
	line        int
}

func (litExpr) isExpr()   {}
func (identExpr) isExpr() {}
func (callExpr) isExpr()  {}
func (notExpr) isExpr()   {}
func (binExpr) isExpr()   {}

type exprToken struct {
	kind string // ident, string, number, bool, op
	text string
}

func parseExpr(src string, line int) (expr, error) {
	toks, err := lexExpr(src, line)
	if err != nil {
		return nil, err
	}
	ep := &exprParser{toks: toks, line: line}
	e, err := ep.orExpr()
	if err != nil {
		return nil, err
	}
	if ep.pos != len(ep.toks) {
		return nil, fmt.Errorf("render: line %d: trailing tokens after expression %q", line, src)
	}
	return e, nil
}

func lexExpr(src string, line int) ([]exprToken, error) {
	var toks []exprToken
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"' || c == '\'':
			s, n, err := lexString(src[i:], line)
			if err != nil {
				return nil, err
			}
			toks = append(toks, exprToken{kind: "string", text: s})
			i += n
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && ((src[j] >= '0' && src[j] <= '9') || src[j] == '.') {
				j++
			}
			toks = append(toks, exprToken{kind: "number", text: src[i:j]})
			i = j
		case isIdentByte(c):
			j := i
			for j < len(src) && (isIdentByte(src[j]) || (src[j] >= '0' && src[j] <= '9')) {
				j++
			}
			word := src[i:j]
			if word == "true" || word == "false" {
				toks = append(toks, exprToken{kind: "bool", text: word})
			} else {
				toks = append(toks, exprToken{kind: "ident", text: word})
			}
			i = j
		case strings.HasPrefix(src[i:], "||"), strings.HasPrefix(src[i:], "=="), strings.HasPrefix(src[i:], "!="):
			toks = append(toks, exprToken{kind: "op", text: src[i : i+2]})
			i += 2
		case c == '!' || c == '(' || c == ')' || c == ',' || c == '.':
			toks = append(toks, exprToken{kind: "op", text: string(c)})
			i++
		default:
			return nil, fmt.Errorf("render: line %d: unexpected character %q in expression", line, string(c))
		}
	}
	return toks, nil
}

func lexString(src string, line int) (value string, consumed int, err error) {
	quote := src[0]
	var b strings.Builder
	i := 1
	for i < len(src) {
		c := src[i]
		if c == quote {
			return b.String(), i + 1, nil
		}
		if c == '\\' && i+1 < len(src) {
			i++
			switch src[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '"', '\'':
				b.WriteByte(src[i])
			default:
				return "", 0, fmt.Errorf("render: line %d: unknown escape \\%s", line, string(src[i]))
			}
			i++
			continue
		}
		b.WriteByte(c)
		i++
	}
	return "", 0, fmt.Errorf("render: line %d: unterminated string literal", line)
}

func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

type exprParser struct {
	toks []exprToken
	pos  int
	line int
}

func (p *exprParser) peek() (exprToken, bool) {
	if p.pos >= len(p.toks) {
		return exprToken{}, false
	}
	return p.toks[p.pos], true
}

func (p *exprParser) acceptOp(text string) bool {
	if t, ok := p.peek(); ok && t.kind == "op" && t.text == text {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) orExpr() (expr, error) {
	left, err := p.eqExpr()
	if err != nil {
		return nil, err
	}
	for p.acceptOp("||") {
		right, err := p.eqExpr()
		if err != nil {
			return nil, err
		}
		left = binExpr{op: "||", left: left, right: right, line: p.line}
	}
	return left, nil
}

func (p *exprParser) eqExpr() (expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != "op" || (t.text != "==" && t.text != "!=") {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binExpr{op: t.text, left: left, right: right, line: p.line}
	}
}

func (p *exprParser) unary() (expr, error) {
	if p.acceptOp("!") {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notExpr{inner: inner}, nil
	}
	return p.primary()
}

func (p *exprParser) primary() (expr, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("render: line %d: expression ends unexpectedly", p.line)
	}
	p.pos++
	switch t.kind {
	case "string":
		return litExpr{value: t.text}, nil
	case "number":
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("render: line %d: bad number %q", p.line, t.text)
		}
		return litExpr{value: f}, nil
	case "bool":
		return litExpr{value: t.text == "true"}, nil
	case "ident":
		if p.acceptOp("(") {
			return p.call(t.text)
		}
		path := []string{t.text}
		for p.acceptOp(".") {
			f, ok := p.peek()
			if !ok || f.kind != "ident" {
				return nil, fmt.Errorf("render: line %d: expected field name after %q", p.line, strings.Join(path, "."))
			}
			p.pos++
			path = append(path, f.text)
		}
		return identExpr{path: path, line: p.line}, nil
	case "op":
		if t.text == "(" {
			inner, err := p.orExpr()
			if err != nil {
				return nil, err
			}
			if !p.acceptOp(")") {
				return nil, fmt.Errorf("render: line %d: missing closing parenthesis", p.line)
			}
			return inner, nil
		}
	}
	return nil, fmt.Errorf("render: line %d: unexpected token %q", p.line, t.text)
}

func (p *exprParser) call(name string) (expr, error) {
	var args []expr
	if p.acceptOp(")") {
		return callExpr{name: name, args: args, line: p.line}, nil
	}
	for {
		a, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.acceptOp(",") {
			continue
		}
		if p.acceptOp(")") {
			return callExpr{name: name, args: args, line: p.line}, nil
		}
		return nil, fmt.Errorf("render: line %d: malformed argument list for %s()", p.line, name)
	}
}
