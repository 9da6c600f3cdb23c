package schema

import (
	"reflect"

	"github.com/ssargent/typeline/pkg/errors"
)

// Field describes one named, typed column of a record.
type Field struct {
	Name string
	Type *Type

	// Index is the reflect field index path for schemas derived from a Go
	// struct; nil for explicitly declared schemas.
	Index []int
}

// Schema is the ordered field list of a record. Field order fixes both the
// header order and the positional column order. A Schema is immutable and
// safe for concurrent use.
type Schema struct {
	Name   string
	GoType reflect.Type

	fields []Field
	byName map[string]int
}

// New builds a schema without a Go type. Field names must be unique and
// non-empty.
func New(name string, fields ...Field) (*Schema, error) {
	return build(name, nil, fields)
}

// MustNew is like New but panics on error. It is intended for package-level
// schema declarations.
func MustNew(name string, fields ...Field) *Schema {
	s, err := New(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func build(name string, goType reflect.Type, fields []Field) (*Schema, error) {
	s := &Schema{
		Name:   name,
		GoType: goType,
		fields: make([]Field, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, errors.Schema([]string{name}, "field %d has an empty name", i)
		}
		if f.Type == nil || f.Type.Kind == KindInvalid {
			return nil, errors.Schema([]string{name, f.Name}, "field has no type")
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, errors.Schema([]string{name, f.Name}, "duplicate field name %q", f.Name)
		}
		s.byName[f.Name] = i
		s.fields[i] = f
	}
	return s, nil
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Field returns the i-th field.
func (s *Schema) Field(i int) Field { return s.fields[i] }

// Fields returns a copy of the field list.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Header returns the field names in order.
func (s *Schema) Header() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the position of the named field.
func (s *Schema) Lookup(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// CheckDecodable reports the first type in the schema that rows cannot be
// decoded into. Unions with three or more non-null members have no defined
// narrowing order for raw text and are rejected rather than guessed.
func (s *Schema) CheckDecodable() error {
	for _, f := range s.fields {
		if err := checkDecodable(f.Type, []string{f.Name}); err != nil {
			return err
		}
	}
	return nil
}

func checkDecodable(t *Type, path []string) error {
	switch t.Kind {
	case KindUnion:
		if len(t.Members) > 2 {
			return errors.Schema(path, "union %s has %d non-null members; decoding supports at most two", t, len(t.Members))
		}
		for _, m := range t.Members {
			if err := checkDecodable(m, path); err != nil {
				return err
			}
		}
	case KindOptional, KindList, KindSet, KindTuple:
		return checkDecodable(t.Elem, path)
	case KindMap:
		return checkDecodable(t.Elem, path)
	case KindRecord:
		for _, f := range t.Record.fields {
			if err := checkDecodable(f.Type, append(append([]string{}, path...), f.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// validKey reports whether t can be rendered as a JSON object key.
func validKey(t *Type) bool {
	switch t.Kind {
	case KindString, KindInt, KindBool:
		return true
	}
	return false
}
