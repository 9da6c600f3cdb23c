package codec

import (
	"math"
	"reflect"
	"strconv"

	"github.com/ssargent/typeline/pkg/errors"
	"github.com/ssargent/typeline/pkg/schema"
)

// Lift stores a normalized intermediate value of type t into dst, which
// must be settable. Pointers are allocated as needed. Interface targets
// receive plain values (see Plain).
func Lift(t *schema.Type, iv any, dst reflect.Value) error {
	return lift(t, iv, dst, nil)
}

func lift(t *schema.Type, iv any, dst reflect.Value, path []string) error {
	if dst.Kind() == reflect.Interface {
		if iv == nil {
			dst.SetZero()
			return nil
		}
		v := reflect.ValueOf(Plain(iv))
		if !v.Type().AssignableTo(dst.Type()) {
			return liftMismatch(path, t, iv, dst)
		}
		dst.Set(v)
		return nil
	}

	if iv == nil {
		if !t.Nullable() {
			return liftMismatch(path, t, iv, dst)
		}
		dst.SetZero()
		return nil
	}

	if dst.Kind() == reflect.Pointer {
		ptr := reflect.New(dst.Type().Elem())
		if err := lift(t.NonNull(), iv, ptr.Elem(), path); err != nil {
			return err
		}
		dst.Set(ptr)
		return nil
	}

	switch t.Kind {
	case schema.KindOptional:
		return lift(t.Elem, iv, dst, path)

	case schema.KindUnion:
		m := memberFor(t, iv)
		if m == nil {
			return liftMismatch(path, t, iv, dst)
		}
		return lift(m, iv, dst, path)

	case schema.KindBool:
		b, ok := iv.(bool)
		if ok && dst.Kind() == reflect.Bool {
			dst.SetBool(b)
			return nil
		}

	case schema.KindInt:
		n, ok := iv.(int64)
		if !ok {
			break
		}
		switch dst.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if dst.OverflowInt(n) {
				return liftOverflow(path, t, iv, dst)
			}
			dst.SetInt(n)
			return nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if n < 0 || dst.OverflowUint(uint64(n)) {
				return liftOverflow(path, t, iv, dst)
			}
			dst.SetUint(uint64(n))
			return nil
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(float64(n))
			return nil
		}

	case schema.KindFloat:
		f, ok := iv.(float64)
		if !ok {
			break
		}
		switch dst.Kind() {
		case reflect.Float32:
			if math.Abs(f) > math.MaxFloat32 {
				return liftOverflow(path, t, iv, dst)
			}
			dst.SetFloat(f)
			return nil
		case reflect.Float64:
			dst.SetFloat(f)
			return nil
		}

	case schema.KindString:
		s, ok := iv.(string)
		if ok && dst.Kind() == reflect.String {
			dst.SetString(s)
			return nil
		}

	case schema.KindList, schema.KindTuple, schema.KindSet:
		seq, ok := iv.([]any)
		if !ok {
			break
		}
		return liftSeq(t, seq, dst, path)

	case schema.KindMap:
		obj, ok := iv.(*Object)
		if !ok || dst.Kind() != reflect.Map {
			break
		}
		m := reflect.MakeMapWithSize(dst.Type(), obj.Len())
		for _, member := range obj.members {
			key := reflect.New(dst.Type().Key()).Elem()
			if err := liftKey(t.Key, member.Key, key, path); err != nil {
				return err
			}
			value := reflect.New(dst.Type().Elem()).Elem()
			if err := lift(t.Elem, member.Value, value, appendPath(path, member.Key)); err != nil {
				return err
			}
			m.SetMapIndex(key, value)
		}
		dst.Set(m)
		return nil

	case schema.KindRecord:
		obj, ok := iv.(*Object)
		if !ok {
			break
		}
		return liftRecord(t.Record, obj, dst, path)
	}

	return liftMismatch(path, t, iv, dst)
}

func liftSeq(t *schema.Type, seq []any, dst reflect.Value, path []string) error {
	switch dst.Kind() {
	case reflect.Slice:
		s := reflect.MakeSlice(dst.Type(), len(seq), len(seq))
		for i, e := range seq {
			if err := lift(t.Elem, e, s.Index(i), appendPath(path, strconv.Itoa(i))); err != nil {
				return err
			}
		}
		dst.Set(s)
		return nil

	case reflect.Array:
		if dst.Len() != len(seq) {
			return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
				Path(clonePath(path)...).
				Value(seq).
				Detail("cannot store %d elements in %s", len(seq), dst.Type()).
				Build()
		}
		for i, e := range seq {
			if err := lift(t.Elem, e, dst.Index(i), appendPath(path, strconv.Itoa(i))); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		// set stored as map[K]struct{}
		if t.Kind != schema.KindSet {
			break
		}
		m := reflect.MakeMapWithSize(dst.Type(), len(seq))
		present := reflect.New(dst.Type().Elem()).Elem()
		for i, e := range seq {
			key := reflect.New(dst.Type().Key()).Elem()
			if err := lift(t.Elem, e, key, appendPath(path, strconv.Itoa(i))); err != nil {
				return err
			}
			m.SetMapIndex(key, present)
		}
		dst.Set(m)
		return nil
	}
	return liftMismatch(path, t, seq, dst)
}

func liftKey(t *schema.Type, text string, dst reflect.Value, path []string) error {
	key, err := parseKey(t, text, path)
	if err != nil {
		return err
	}
	return lift(t, key, dst, appendPath(path, text))
}

func liftRecord(s *schema.Schema, obj *Object, dst reflect.Value, path []string) error {
	if dst.Kind() != reflect.Struct {
		return liftMismatch(path, schema.RecordOf(s), obj, dst)
	}

	target := s
	if dst.Type() != s.GoType {
		derived, err := schema.FromType(dst.Type())
		if err != nil {
			return errors.WithPath(err, path...)
		}
		target = derived
	}

	for i := 0; i < s.Len(); i++ {
		f := s.Field(i)
		j, ok := target.Lookup(f.Name)
		if !ok {
			continue
		}
		value, _ := obj.Get(f.Name)
		if err := lift(f.Type, value, dst.FieldByIndex(target.Field(j).Index), appendPath(path, f.Name)); err != nil {
			return err
		}
	}
	return nil
}

// memberFor picks the union member an intermediate value was normalized
// as.
func memberFor(t *schema.Type, iv any) *schema.Type {
	var kinds []schema.Kind
	switch iv.(type) {
	case bool:
		kinds = []schema.Kind{schema.KindBool}
	case int64:
		kinds = []schema.Kind{schema.KindInt, schema.KindFloat}
	case float64:
		kinds = []schema.Kind{schema.KindFloat}
	case string:
		kinds = []schema.Kind{schema.KindString}
	case []any:
		kinds = []schema.Kind{schema.KindList, schema.KindTuple, schema.KindSet}
	case *Object:
		kinds = []schema.Kind{schema.KindRecord, schema.KindMap}
	}
	for _, kind := range kinds {
		for _, m := range t.Alternatives() {
			if m.Kind == kind {
				return m
			}
		}
	}
	return nil
}

func liftMismatch(path []string, t *schema.Type, iv any, dst reflect.Value) error {
	return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
		Path(clonePath(path)...).
		Value(iv).
		Detail("cannot store %s value in Go type %s", t, dst.Type()).
		Build()
}

func liftOverflow(path []string, t *schema.Type, iv any, dst reflect.Value) error {
	return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
		Path(clonePath(path)...).
		Value(iv).
		Detail("%s value %v overflows Go type %s", t, iv, dst.Type()).
		Build()
}
