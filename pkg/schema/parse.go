package schema

import (
	"strconv"
	"unicode"

	"github.com/ssargent/typeline/pkg/errors"
)

// Resolver looks up a named record schema referenced from a type
// expression.
type Resolver func(name string) (*Schema, bool)

// Parse parses a type expression:
//
//	bool | int | float | string | null
//	list<T>  set<T>  optional<T>  tuple<T,N>  map<K,V>
//	A|B|...
//
// Record names are not resolvable without a Resolver; see ParseWith.
func Parse(expr string) (*Type, error) {
	return ParseWith(expr, nil)
}

// ParseWith parses a type expression, resolving bare identifiers that are
// not built-in kinds as record names.
func ParseWith(expr string, resolve Resolver) (*Type, error) {
	p := &parser{src: []rune(expr), expr: expr, resolve: resolve}
	t, err := p.union()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q", string(p.src[p.pos]))
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(expr string) *Type {
	t, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src     []rune
	expr    string
	pos     int
	resolve Resolver
}

func (p *parser) union() (*Type, error) {
	first, err := p.term()
	if err != nil {
		return nil, err
	}
	members := []*Type{first}
	for p.accept('|') {
		next, err := p.term()
		if err != nil {
			return nil, err
		}
		members = append(members, next)
	}
	if len(members) == 1 {
		return first, nil
	}
	return Union(members...), nil
}

func (p *parser) term() (*Type, error) {
	name := p.ident()
	if name == "" {
		if p.eof() {
			return nil, p.errorf("unexpected end of expression")
		}
		return nil, p.errorf("expected a type name at %q", string(p.src[p.pos]))
	}

	switch name {
	case "bool":
		return Bool(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "string":
		return String(), nil
	case "null":
		return Null(), nil
	case "list", "set", "optional":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.union()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		switch name {
		case "list":
			return List(elem), nil
		case "set":
			if !validKey(elem) && elem.Kind != KindFloat {
				return nil, p.errorf("set element type %s must be a scalar", elem)
			}
			return Set(elem), nil
		default:
			return Optional(elem), nil
		}
	case "tuple":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.union()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		p.skipSpace()
		start := p.pos
		for !p.eof() && unicode.IsDigit(p.src[p.pos]) {
			p.pos++
		}
		n, err := strconv.Atoi(string(p.src[start:p.pos]))
		if err != nil {
			return nil, p.errorf("tuple length must be a non-negative integer")
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return Tuple(elem, n), nil
	case "map":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		key, err := p.union()
		if err != nil {
			return nil, err
		}
		if !validKey(key) {
			return nil, p.errorf("map key type %s must be string, int or bool", key)
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		value, err := p.union()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return Map(key, value), nil
	}

	if p.resolve != nil {
		if s, ok := p.resolve(name); ok {
			return RecordOf(s), nil
		}
	}
	return nil, p.errorf("unknown type %q", name)
}

func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for !p.eof() {
		r := p.src[p.pos]
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			break
		}
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) accept(r rune) bool {
	p.skipSpace()
	if !p.eof() && p.src[p.pos] == r {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(r rune) error {
	if !p.accept(r) {
		return p.errorf("expected %q", string(r))
	}
	return nil
}

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) errorf(format string, args ...any) error {
	err := errors.Schema(nil, format, args...)
	err.Value = p.expr
	err.Detail += " in type expression " + strconv.Quote(p.expr)
	return err
}
