package msbuild

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokString tokenKind = iota
	tokWord
	tokOp
	tokNot
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind  tokenKind
	value string
}

// evaluateCondition reports whether an MSBuild Condition holds. Comparisons
// are case-insensitive, matching MSBuild. An empty condition is true.
func evaluateCondition(cond string, x expander) (bool, error) {
	if strings.TrimSpace(cond) == "" {
		return true, nil
	}

	tokens, err := tokenize(cond)
	if err != nil {
		return false, err
	}

	p := &conditionParser{tokens: tokens, x: x, src: cond}
	result, err := p.or()
	if err != nil {
		return false, err
	}
	if p.peek().kind != tokEOF {
		return false, p.errorf("unexpected %q", p.peek().value)
	}
	return result, nil
}

func tokenize(s string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '\'':
			end := quotedEnd(s, i)
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated string in %q", ErrInvalidCondition, s)
			}
			tokens = append(tokens, token{tokString, s[i+1 : end]})
			i = end + 1
		case c == '$' && i+1 < len(s) && s[i+1] == '(':
			end := matchParen(s, i+1)
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated $( in %q", ErrInvalidCondition, s)
			}
			tokens = append(tokens, token{tokString, s[i : end+1]})
			i = end + 1
		case (c == '@' || c == '%') && i+1 < len(s) && s[i+1] == '(':
			return nil, fmt.Errorf("%w: %c(...) in condition %q", ErrUnsupportedExpression, c, s)
		case c == '=' || c == '!' || c == '<' || c == '>':
			if i+1 < len(s) && s[i+1] == '=' {
				tokens = append(tokens, token{tokOp, s[i : i+2]})
				i += 2
				continue
			}
			switch c {
			case '!':
				tokens = append(tokens, token{tokNot, "!"})
			case '<', '>':
				tokens = append(tokens, token{tokOp, string(c)})
			default:
				return nil, fmt.Errorf("%w: single '=' in %q", ErrInvalidCondition, s)
			}
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")"})
			i++
		case c == ',':
			tokens = append(tokens, token{tokComma, ","})
			i++
		case isWordByte(c):
			start := i
			for i < len(s) && isWordByte(s[i]) {
				i++
			}
			tokens = append(tokens, token{tokWord, s[start:i]})
		default:
			return nil, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidCondition, string(c), s)
		}
	}
	return append(tokens, token{kind: tokEOF}), nil
}

// quotedEnd returns the index of the quote closing the string opened at
// start. Quotes inside a $(...) expression do not close it.
func quotedEnd(s string, start int) int {
	for i := start + 1; i < len(s); i++ {
		switch {
		case s[i] == '\'':
			return i
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '(':
			end := matchParen(s, i+1)
			if end < 0 {
				return -1
			}
			i = end
		}
	}
	return -1
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

type conditionParser struct {
	tokens []token
	pos    int
	x      expander
	src    string
}

func (p *conditionParser) peek() token {
	return p.tokens[p.pos]
}

func (p *conditionParser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *conditionParser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.value, word)
}

func (p *conditionParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s in %q", ErrInvalidCondition, fmt.Sprintf(format, args...), p.src)
}

func (p *conditionParser) or() (bool, error) {
	left, err := p.and()
	if err != nil {
		return false, err
	}
	for p.isKeyword("or") {
		p.next()
		right, err := p.and()
		if err != nil {
			return false, err
		}
		left = left || right
	}
	return left, nil
}

func (p *conditionParser) and() (bool, error) {
	left, err := p.not()
	if err != nil {
		return false, err
	}
	for p.isKeyword("and") {
		p.next()
		right, err := p.not()
		if err != nil {
			return false, err
		}
		left = left && right
	}
	return left, nil
}

func (p *conditionParser) not() (bool, error) {
	if p.peek().kind == tokNot {
		p.next()
		v, err := p.not()
		return !v, err
	}
	return p.primary()
}

func (p *conditionParser) primary() (bool, error) {
	t := p.peek()

	if t.kind == tokLParen {
		p.next()
		v, err := p.or()
		if err != nil {
			return false, err
		}
		if p.next().kind != tokRParen {
			return false, p.errorf("missing ')'")
		}
		return v, nil
	}

	if t.kind == tokWord && p.tokens[p.pos+1].kind == tokLParen {
		return p.function()
	}

	left, err := p.operand()
	if err != nil {
		return false, err
	}

	if p.peek().kind != tokOp {
		return toBool(left, p)
	}

	op := p.next().value
	right, err := p.operand()
	if err != nil {
		return false, err
	}
	return compare(left, op, right, p)
}

func (p *conditionParser) operand() (string, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return p.x.expand(t.value)
	case tokWord:
		return t.value, nil
	default:
		return "", p.errorf("expected a value, got %q", t.value)
	}
}

func (p *conditionParser) function() (bool, error) {
	name := p.next().value
	p.next() // (

	var args []string
	for p.peek().kind != tokRParen {
		if len(args) > 0 {
			if p.next().kind != tokComma {
				return false, p.errorf("expected ',' in %s()", name)
			}
		}
		v, err := p.operand()
		if err != nil {
			return false, err
		}
		args = append(args, v)
	}
	p.next() // )

	if len(args) != 1 {
		return false, p.errorf("%s expects one argument", name)
	}
	arg := strings.TrimSpace(args[0])

	switch strings.ToLower(name) {
	case "exists":
		if arg == "" {
			return false, nil
		}
		return pathExists(resolvePath(p.x.dir(), arg)), nil
	case "hastrailingslash":
		return strings.HasSuffix(arg, "/") || strings.HasSuffix(arg, `\`), nil
	default:
		return false, fmt.Errorf("%w: condition function %s()", ErrUnsupportedExpression, name)
	}
}

func toBool(v string, p *conditionParser) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "yes":
		return true, nil
	case "false", "off", "no":
		return false, nil
	}
	return false, p.errorf("%q is not a boolean", v)
}

func compare(left, op, right string, p *conditionParser) (bool, error) {
	switch op {
	case "==":
		return strings.EqualFold(left, right), nil
	case "!=":
		return !strings.EqualFold(left, right), nil
	}

	l, errL := strconv.ParseFloat(strings.TrimSpace(left), 64)
	r, errR := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if errL != nil || errR != nil {
		return false, p.errorf("%q %s %q needs numeric operands", left, op, right)
	}
	switch op {
	case "<":
		return l < r, nil
	case ">":
		return l > r, nil
	case "<=":
		return l <= r, nil
	case ">=":
		return l >= r, nil
	}
	return false, p.errorf("unknown operator %q", op)
}
