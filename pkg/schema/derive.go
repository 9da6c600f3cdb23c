package schema

import (
	"reflect"
	"strings"
	"sync"

	"github.com/ssargent/typeline/pkg/errors"
)

// TagName is the struct tag consulted for field names and type expressions:
//
//	Score any `typeline:"score,type=int|float|null"`
//
// The name part falls back to the json tag and then to the Go field name.
// A name of "-" skips the field.
const TagName = "typeline"

var cache sync.Map // reflect.Type -> *Schema

// Of derives the schema of the struct type T.
func Of[T any]() (*Schema, error) {
	return FromType(reflect.TypeFor[T]())
}

// FromType derives the schema of a struct type by walking its exported
// fields in declaration order. A pointer to a struct is dereferenced once.
// Every field type must map onto the closed set of kinds; anything else is
// rejected here rather than on the first row.
//
// Unsigned integer fields map to int, which is a signed 64-bit integer on
// the wire. A uint or uint64 value above math.MaxInt64 is a type mismatch
// when it is written.
func FromType(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, errors.Schema(nil, "record type is nil")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := cache.Load(t); ok {
		return cached.(*Schema), nil
	}

	d := &deriver{active: make(map[reflect.Type]bool)}
	s, err := d.record(t, nil)
	if err != nil {
		return nil, err
	}
	cache.Store(t, s)
	return s, nil
}

type deriver struct {
	active map[reflect.Type]bool
}

func (d *deriver) record(t reflect.Type, path []string) (*Schema, error) {
	if t.Kind() != reflect.Struct {
		return nil, errors.Schema(path, "record type %s is not a struct", t)
	}
	if cached, ok := cache.Load(t); ok {
		return cached.(*Schema), nil
	}
	if d.active[t] {
		return nil, errors.Schema(path, "record type %s refers to itself", t)
	}
	d.active[t] = true
	defer delete(d.active, t)

	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, expr := parseTag(sf)
		if name == "-" {
			continue
		}
		fieldPath := append(append([]string{}, path...), name)

		var (
			ft  *Type
			err error
		)
		if expr != "" {
			if sf.Type.Kind() != reflect.Interface {
				return nil, errors.Schema(fieldPath, "type expression %q is only allowed on interface fields, not %s", expr, sf.Type)
			}
			ft, err = Parse(expr)
			if err != nil {
				return nil, errors.WithPath(err, fieldPath...)
			}
		} else {
			ft, err = d.typeOf(sf.Type, fieldPath)
			if err != nil {
				return nil, err
			}
		}
		fields = append(fields, Field{Name: name, Type: ft, Index: sf.Index})
	}
	if len(fields) == 0 {
		return nil, errors.Schema(path, "record type %s has no exported fields", t)
	}

	s, err := build(t.Name(), t, fields)
	if err != nil {
		return nil, err
	}
	cache.Store(t, s)
	return s, nil
}

func (d *deriver) typeOf(t reflect.Type, path []string) (*Type, error) {
	switch t.Kind() {
	case reflect.Bool:
		return Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(), nil
	case reflect.Float32, reflect.Float64:
		return Float(), nil
	case reflect.String:
		return String(), nil
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Pointer {
			return nil, errors.Schema(path, "pointer to pointer %s is not supported", t)
		}
		elem, err := d.typeOf(t.Elem(), path)
		if err != nil {
			return nil, err
		}
		return Optional(elem), nil
	case reflect.Slice:
		elem, err := d.typeOf(t.Elem(), path)
		if err != nil {
			return nil, err
		}
		return List(elem), nil
	case reflect.Array:
		elem, err := d.typeOf(t.Elem(), path)
		if err != nil {
			return nil, err
		}
		return Tuple(elem, t.Len()), nil
	case reflect.Map:
		key, err := d.typeOf(t.Key(), path)
		if err != nil {
			return nil, err
		}
		if !validKey(key) {
			return nil, errors.Schema(path, "map key type %s must be a string, integer or bool", t.Key())
		}
		if isEmptyStruct(t.Elem()) {
			return Set(key), nil
		}
		value, err := d.typeOf(t.Elem(), path)
		if err != nil {
			return nil, err
		}
		return Map(key, value), nil
	case reflect.Struct:
		s, err := d.record(t, path)
		if err != nil {
			return nil, err
		}
		return RecordOf(s), nil
	case reflect.Interface:
		return nil, errors.Schema(path, "cannot classify interface type %s; declare it with a %s:\",type=...\" tag", t, TagName)
	default:
		return nil, errors.Schema(path, "unsupported field type %s", t)
	}
}

func parseTag(sf reflect.StructField) (name, expr string) {
	if tag, ok := sf.Tag.Lookup(TagName); ok {
		n, rest, _ := strings.Cut(tag, ",")
		if e, ok := strings.CutPrefix(rest, "type="); ok {
			expr = strings.TrimSpace(e)
		}
		if n == "" {
			n = sf.Name
		}
		return n, expr
	}
	if tag, ok := sf.Tag.Lookup("json"); ok {
		if n, _, _ := strings.Cut(tag, ","); n != "" {
			return n, ""
		}
	}
	return sf.Name, ""
}

func isEmptyStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.NumField() == 0
}
