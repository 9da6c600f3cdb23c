package codec

import (
	"encoding/json"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ssargent/typeline/pkg/errors"
	"github.com/ssargent/typeline/pkg/schema"
)

var (
	objectType = reflect.TypeFor[*Object]()
	numberType = reflect.TypeFor[json.Number]()
)

// Lower converts a Go value into the intermediate value of type t. Pointers
// and interfaces are followed; a nil one is the absent value. Nil slices
// and maps are empty containers.
func Lower(t *schema.Type, v any) (any, error) {
	return lower(t, reflect.ValueOf(v), nil)
}

// Fragment renders an intermediate value as the text of one field. Strings
// are written verbatim, the absent value as "null" or the none placeholder
// when one is set, and everything else as compact JSON.
func Fragment(iv any, none string) (string, error) {
	switch x := iv.(type) {
	case nil:
		if none != "" {
			return none, nil
		}
		return "null", nil
	case string:
		return x, nil
	default:
		return toJSON(iv)
	}
}

// indirect follows pointers and interfaces down to a concrete value. It
// reports false when it reaches nil. *Object is not followed.
func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() {
		if v.Type() == objectType {
			return v, !v.IsNil()
		}
		switch v.Kind() {
		case reflect.Interface, reflect.Pointer:
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		default:
			return v, true
		}
	}
	return v, false
}

func lower(t *schema.Type, v reflect.Value, path []string) (any, error) {
	v, present := indirect(v)

	switch t.Kind {
	case schema.KindOptional:
		if !present {
			return nil, nil
		}
		return lower(t.Elem, v, path)
	case schema.KindNull:
		if present {
			return nil, encodeMismatch(path, t, v)
		}
		return nil, nil
	}
	if !present {
		return nil, encodeMismatch(path, t, v)
	}

	switch t.Kind {
	case schema.KindUnion:
		return lowerUnion(t, v, path)

	case schema.KindBool:
		if v.Kind() == reflect.Bool {
			return v.Bool(), nil
		}

	case schema.KindInt:
		if v.Type() == numberType {
			if n, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
				return n, nil
			}
			break
		}
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return v.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if u := v.Uint(); u <= math.MaxInt64 {
				return int64(u), nil
			}
		}

	case schema.KindFloat:
		if v.Type() == numberType {
			if f, err := strconv.ParseFloat(v.String(), 64); err == nil {
				return f, nil
			}
			break
		}
		switch v.Kind() {
		case reflect.Float32:
			// shortest float32 text, so 0.2 stays 0.2
			f, _ := strconv.ParseFloat(strconv.FormatFloat(v.Float(), 'g', -1, 32), 64)
			return finite(t, f, path)
		case reflect.Float64:
			return finite(t, v.Float(), path)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(v.Int()), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return float64(v.Uint()), nil
		}

	case schema.KindString:
		if v.Kind() == reflect.String {
			return validText(t, v.String(), path)
		}

	case schema.KindList:
		if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
			return lowerSeq(t.Elem, v, path)
		}

	case schema.KindTuple:
		if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
			if v.Len() != t.Len {
				return nil, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
					Path(clonePath(path)...).
					Value(valueOf(v)).
					Detail("expected %s, got %d elements", t, v.Len()).
					Build()
			}
			return lowerSeq(t.Elem, v, path)
		}

	case schema.KindSet:
		var elems []any
		switch v.Kind() {
		case reflect.Slice, reflect.Array:
			seq, err := lowerSeq(t.Elem, v, path)
			if err != nil {
				return nil, err
			}
			elems = seq
		case reflect.Map:
			elems = make([]any, 0, v.Len())
			iter := v.MapRange()
			for iter.Next() {
				e, err := lower(t.Elem, iter.Key(), path)
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
			}
		default:
			return nil, encodeMismatch(path, t, v)
		}
		return sortedSet(elems), nil

	case schema.KindMap:
		return lowerMap(t, v, path)

	case schema.KindRecord:
		return lowerRecord(t.Record, v, path)
	}

	return nil, encodeMismatch(path, t, v)
}

func finite(t *schema.Type, f float64, path []string) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			Path(clonePath(path)...).
			Value(f).
			Detail("expected %s, got %v which has no JSON form", t, f).
			Build()
	}
	return f, nil
}

// validText rejects strings that are not valid UTF-8. They cannot be read
// back unchanged.
func validText(t *schema.Type, s string, path []string) (any, error) {
	if !utf8.ValidString(s) {
		return nil, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			Path(clonePath(path)...).
			Value(s).
			Detail("expected %s, got %q which is not valid UTF-8", t, s).
			Build()
	}
	return s, nil
}

func lowerSeq(elem *schema.Type, v reflect.Value, path []string) ([]any, error) {
	out := make([]any, v.Len())
	for i := range out {
		e, err := lower(elem, v.Index(i), appendPath(path, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func sortedSet(elems []any) []any {
	slices.SortStableFunc(elems, compareScalar)
	return slices.CompactFunc(elems, func(a, b any) bool {
		return compareScalar(a, b) == 0
	})
}

func lowerMap(t *schema.Type, v reflect.Value, path []string) (any, error) {
	type entry struct {
		key   any
		value any
	}
	var entries []entry

	switch {
	case v.Type() == objectType:
		if t.Key.Kind != schema.KindString {
			return nil, encodeMismatch(path, t, v)
		}
		obj := v.Interface().(*Object)
		for _, m := range obj.members {
			if _, err := validText(t.Key, m.Key, path); err != nil {
				return nil, err
			}
			value, err := lower(t.Elem, reflect.ValueOf(m.Value), appendPath(path, m.Key))
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry{key: m.Key, value: value})
		}
	case v.Kind() == reflect.Map:
		entries = make([]entry, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key, err := lower(t.Key, iter.Key(), path)
			if err != nil {
				return nil, err
			}
			value, err := lower(t.Elem, iter.Value(), appendPath(path, keyText(key)))
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry{key: key, value: value})
		}
	default:
		return nil, encodeMismatch(path, t, v)
	}

	slices.SortFunc(entries, func(a, b entry) int { return compareScalar(a.key, b.key) })
	obj := NewObject(len(entries))
	for _, e := range entries {
		obj.Set(keyText(e.key), e.value)
	}
	return obj, nil
}

// keyText renders a lowered map key as a JSON object key.
func keyText(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case int64:
		return strconv.FormatInt(k, 10)
	case bool:
		return strconv.FormatBool(k)
	}
	s, _ := toJSON(key)
	return s
}

func lowerRecord(s *schema.Schema, v reflect.Value, path []string) (any, error) {
	get, err := fieldGetter(s, v, path)
	if err != nil {
		return nil, err
	}
	obj := NewObject(s.Len())
	for i := 0; i < s.Len(); i++ {
		f := s.Field(i)
		iv, err := lower(f.Type, get(i), appendPath(path, f.Name))
		if err != nil {
			return nil, err
		}
		obj.Set(f.Name, iv)
	}
	return obj, nil
}

// fieldGetter returns a function yielding the value of the i-th schema field
// from a struct, an *Object or a string-keyed map. Missing fields yield the
// zero reflect.Value, which lowers as absent.
func fieldGetter(s *schema.Schema, v reflect.Value, path []string) (func(i int) reflect.Value, error) {
	switch {
	case v.Type() == objectType:
		obj := v.Interface().(*Object)
		return func(i int) reflect.Value {
			value, _ := obj.Get(s.Field(i).Name)
			return reflect.ValueOf(value)
		}, nil

	case v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String:
		keyType := v.Type().Key()
		return func(i int) reflect.Value {
			return v.MapIndex(reflect.ValueOf(s.Field(i).Name).Convert(keyType))
		}, nil

	case v.Kind() == reflect.Struct:
		if v.Type() == s.GoType {
			return func(i int) reflect.Value {
				return v.FieldByIndex(s.Field(i).Index)
			}, nil
		}
		other, err := schema.FromType(v.Type())
		if err != nil {
			return nil, errors.WithPath(err, path...)
		}
		return func(i int) reflect.Value {
			j, ok := other.Lookup(s.Field(i).Name)
			if !ok {
				return reflect.Value{}
			}
			return v.FieldByIndex(other.Field(j).Index)
		}, nil
	}
	return nil, encodeMismatch(path, schema.RecordOf(s), v)
}

func lowerUnion(t *schema.Type, v reflect.Value, path []string) (any, error) {
	var firstErr error
	for _, kind := range preferredKinds(v) {
		for _, m := range t.Members {
			if m.Kind != kind {
				continue
			}
			iv, err := lower(m, v, path)
			if err == nil {
				return iv, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, encodeMismatch(path, t, v)
}

// preferredKinds lists the union member kinds a Go value can take, most
// specific first.
func preferredKinds(v reflect.Value) []schema.Kind {
	if v.Type() == objectType {
		return []schema.Kind{schema.KindRecord, schema.KindMap}
	}
	if v.Type() == numberType {
		if strings.ContainsAny(v.String(), ".eE") {
			return []schema.Kind{schema.KindFloat}
		}
		return []schema.Kind{schema.KindInt, schema.KindFloat}
	}
	switch v.Kind() {
	case reflect.Bool:
		return []schema.Kind{schema.KindBool}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return []schema.Kind{schema.KindInt, schema.KindFloat}
	case reflect.Float32, reflect.Float64:
		return []schema.Kind{schema.KindFloat}
	case reflect.String:
		return []schema.Kind{schema.KindString}
	case reflect.Slice, reflect.Array:
		return []schema.Kind{schema.KindList, schema.KindTuple, schema.KindSet}
	case reflect.Map:
		if e := v.Type().Elem(); e.Kind() == reflect.Struct && e.NumField() == 0 {
			return []schema.Kind{schema.KindSet, schema.KindMap}
		}
		return []schema.Kind{schema.KindMap, schema.KindRecord}
	case reflect.Struct:
		return []schema.Kind{schema.KindRecord}
	}
	return nil
}

func encodeMismatch(path []string, t *schema.Type, v reflect.Value) error {
	return errors.TypeMismatch(errors.PhaseEncode, clonePath(path), t.String(), valueOf(v))
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

func appendPath(path []string, elem string) []string {
	return append(path[:len(path):len(path)], elem)
}

func clonePath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	return append([]string(nil), path...)
}
