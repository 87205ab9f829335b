package types

import (
	"fmt"
	"strings"

	fedir "github.com/fedlang/fedir"
	"github.com/fedlang/fedir/placements"
)

// Parse reads a canonical type string (the form produced by Type.String) back
// into a Type. The grammar:
//
//	type    := primary ('*' | '@' placement)*
//	primary := '(' [type] '->' type ')'        function
//	         | '<' [element {',' element}] '>' struct
//	         | '{' type '}' '@' placement      federated, not all-equal
//	         | '\'' label                      abstract variable
//	         | dtype | 'placement'             leaf
//	element := [name '='] type
//
// A trailing '@placement' without braces denotes an all-equal federated type.
// Placement names are resolved through the placements registry; unknown
// placements, unknown dtypes and trailing input are rejected.
func Parse(s string) (Type, error) {
	p := &parser{src: s}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing input after type")
	}
	return t, nil
}

// MustParse is Parse for statically known strings; it panics on error.
func MustParse(s string) Type {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &fedir.Issue{
		Code:    fedir.CodeTypeConstruction,
		Node:    "type",
		Message: fmt.Sprintf(format, args...) + fmt.Sprintf(" at offset %d in %q", p.pos, p.src),
	}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.errorf("expected %q", string(c))
	}
	p.pos++
	return nil
}

func isIdentByte(c byte, first bool) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' {
		return true
	}
	return !first && c >= '0' && c <= '9'
}

// isIdent reports whether s is a non-empty identifier as defined by the
// grammar above. Names embedded in canonical type strings must satisfy it or
// the string stops being parseable.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i], i == 0) {
			return false
		}
	}
	return true
}

func (p *parser) ident() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos], p.pos == start) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf("expected identifier")
	}
	return p.src[start:p.pos], nil
}

func (p *parser) parseType() (Type, error) {
	t, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			t = Sequence(t)
		case '@':
			p.pos++
			t, err = p.parseFederated(t, true)
			if err != nil {
				return nil, err
			}
		default:
			return t, nil
		}
	}
}

func (p *parser) parseFederated(member Type, allEqual bool) (Type, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	pl, err := placements.Lookup(name)
	if err != nil {
		return nil, err
	}
	ft, err := NewFederated(member, pl, allEqual)
	if err != nil {
		return nil, err
	}
	return ft, nil
}

func (p *parser) parsePrimary() (Type, error) {
	p.skipSpace()
	switch p.peek() {
	case '(':
		return p.parseFunction()
	case '<':
		return p.parseStruct()
	case '{':
		p.pos++
		member, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect('}'); err != nil {
			return nil, err
		}
		if err := p.expect('@'); err != nil {
			return nil, err
		}
		return p.parseFederated(member, false)
	case '\'':
		p.pos++
		label, err := p.ident()
		if err != nil {
			return nil, err
		}
		return Abstract(label), nil
	default:
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		if name == "placement" {
			return Placement(), nil
		}
		if !ValidDType(DType(name)) {
			return nil, p.errorf("unknown dtype %q", name)
		}
		return Scalar(DType(name)), nil
	}
}

func (p *parser) parseFunction() (Type, error) {
	p.pos++ // '('
	p.skipSpace()
	var param Type
	if !strings.HasPrefix(p.src[p.pos:], "->") {
		var err error
		param, err = p.parseType()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
	}
	if !strings.HasPrefix(p.src[p.pos:], "->") {
		return nil, p.errorf("expected \"->\"")
	}
	p.pos += 2
	result, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return Function(param, result), nil
}

func (p *parser) parseStruct() (Type, error) {
	p.pos++ // '<'
	p.skipSpace()
	var elements []Element
	if p.peek() == '>' {
		p.pos++
		st, err := NewStruct(nil)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	for {
		el, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '>':
			p.pos++
			st, err := NewStruct(elements)
			if err != nil {
				return nil, err
			}
			return st, nil
		default:
			return nil, p.errorf("expected ',' or '>' in struct type")
		}
	}
}

func (p *parser) parseElement() (Element, error) {
	p.skipSpace()
	// An element is "name=type" when an identifier is directly followed by
	// '='; otherwise the whole thing is a positional type.
	save := p.pos
	if isIdentByte(p.peek(), true) {
		name, err := p.ident()
		if err == nil {
			p.skipSpace()
			if p.peek() == '=' {
				p.pos++
				t, err := p.parseType()
				if err != nil {
					return Element{}, err
				}
				return Element{Name: name, Type: t}, nil
			}
		}
		p.pos = save
	}
	t, err := p.parseType()
	if err != nil {
		return Element{}, err
	}
	return Element{Type: t}, nil
}
