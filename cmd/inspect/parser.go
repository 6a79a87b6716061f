package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/grain-runtime/runtime"
	"github.com/wippyai/grain-runtime/tags"
)

// parseValue builds a runtime value from a small literal syntax:
//
//	42  -3  1.5            numbers
//	"text"  'c'            strings and chars
//	true  false  void      constants
//	(a, b)  [> a, b]  [a]  tuples, arrays, lists
//	Some(v) None Ok(v) Err(v)
func parseValue(rt *runtime.Runtime, src string) (uint32, error) {
	p := &parser{rt: rt, src: src}
	v, err := p.value()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("trailing input at offset %d", p.pos)
	}
	return v, nil
}

type parser struct {
	rt  *runtime.Runtime
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
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
		return fmt.Errorf("expected %q at offset %d", string(c), p.pos)
	}
	p.pos++
	return nil
}

func (p *parser) value() (uint32, error) {
	p.skipSpace()
	c := p.peek()
	switch {
	case c == 0:
		return 0, fmt.Errorf("unexpected end of input")
	case c == '(':
		return p.tuple()
	case c == '[':
		return p.sequence()
	case c == '"':
		return p.stringLit()
	case c == '\'':
		return p.charLit()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.word()
	}
}

func (p *parser) tuple() (uint32, error) {
	p.pos++ // (
	var fields []uint32
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return tags.ValueUnit, nil
	}
	for {
		v, err := p.value()
		if err != nil {
			return 0, err
		}
		fields = append(fields, v)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect(')'); err != nil {
		return 0, err
	}
	return p.rt.NewTuple(fields...), nil
}

func (p *parser) sequence() (uint32, error) {
	p.pos++ // [
	isArray := false
	if p.peek() == '>' {
		isArray = true
		p.pos++
	}
	var elems []uint32
	p.skipSpace()
	if p.peek() != ']' {
		for {
			v, err := p.value()
			if err != nil {
				return 0, err
			}
			elems = append(elems, v)
			p.skipSpace()
			if p.peek() == ',' {
				p.pos++
				continue
			}
			break
		}
	}
	if err := p.expect(']'); err != nil {
		return 0, err
	}
	if isArray {
		return p.rt.NewArray(elems...), nil
	}
	return p.rt.NewList(elems...), nil
}

func (p *parser) stringLit() (uint32, error) {
	end := p.pos + 1
	for end < len(p.src) && p.src[end] != '"' {
		if p.src[end] == '\\' {
			end++
		}
		end++
	}
	if end >= len(p.src) {
		return 0, fmt.Errorf("unterminated string at offset %d", p.pos)
	}
	unquoted, err := strconv.Unquote(p.src[p.pos : end+1])
	if err != nil {
		return 0, fmt.Errorf("bad string literal at offset %d: %w", p.pos, err)
	}
	p.pos = end + 1
	return p.rt.NewString(unquoted), nil
}

func (p *parser) charLit() (uint32, error) {
	end := strings.IndexByte(p.src[p.pos+1:], '\'')
	if end < 0 {
		return 0, fmt.Errorf("unterminated char at offset %d", p.pos)
	}
	body := p.src[p.pos+1 : p.pos+1+end]
	r, size := utf8.DecodeRuneInString(body)
	if size == 0 || size != len(body) {
		return 0, fmt.Errorf("char literal %q must hold one scalar", body)
	}
	p.pos += end + 2
	return p.rt.MakeChar(r)
}

func (p *parser) number() (uint32, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	isFloat := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
		} else if c == '.' && !isFloat {
			isFloat = true
			p.pos++
		} else {
			break
		}
	}
	text := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, err
		}
		return p.rt.NewFloat64(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, err
	}
	return p.rt.ReducedInteger(i), nil
}

func (p *parser) word() (uint32, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			p.pos++
		} else {
			break
		}
	}
	switch word := p.src[start:p.pos]; word {
	case "true":
		return tags.ValueTrue, nil
	case "false":
		return tags.ValueFalse, nil
	case "void":
		return tags.ValueVoid, nil
	case "None":
		return p.rt.NewNone(), nil
	case "Some", "Ok", "Err":
		if err := p.expect('('); err != nil {
			return 0, err
		}
		inner, err := p.value()
		if err != nil {
			return 0, err
		}
		if err := p.expect(')'); err != nil {
			return 0, err
		}
		switch word {
		case "Some":
			return p.rt.NewSome(inner), nil
		case "Ok":
			return p.rt.NewOk(inner), nil
		default:
			return p.rt.NewErr(inner), nil
		}
	default:
		return 0, fmt.Errorf("unknown word %q at offset %d", word, start)
	}
}
