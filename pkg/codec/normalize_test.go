package codec

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/typeline/pkg/errors"
	"github.com/ssargent/typeline/pkg/schema"
)

// parse decodes JSON text the way DecodeRow does.
func parse(t *testing.T, text string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		text string
		want any
	}{
		{"int", "int", "3", int64(3)},
		{"integral float for int", "int", "3.0", int64(3)},
		{"int widens to float", "float", "2", float64(2)},
		{"float", "float", "0.2", 0.2},
		{"string", "string", `"x"`, "x"},
		{"bool", "bool", "true", true},
		{"optional absent", "list<int>|null", "null", nil},
		{"list", "list<int>", "[1,2]", []any{int64(1), int64(2)}},
		{"tuple", "tuple<float,2>", "[1,2.5]", []any{float64(1), 2.5}},
		{"set dedupes and sorts", "set<int>", "[3,1,3]", []any{int64(1), int64(3)}},
		{"union int literal", "int|float|null", "1", int64(1)},
		{"union float literal", "int|float|null", "0.2", 0.2},
		{"union exponent literal", "int|float", "1e3", float64(1000)},
		{"union string", "int|string", `"5"`, "5"},
		{"union list", "list<int>|string", "[1]", []any{int64(1)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(schema.MustParse(tc.typ), parse(t, tc.text))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalize_Map(t *testing.T) {
	got, err := Normalize(schema.MustParse("map<int,bool>"), parse(t, `{"10":true,"2":false}`))
	require.NoError(t, err)

	obj := got.(*Object)
	assert.Equal(t, []string{"2", "10"}, obj.Keys())
	v, ok := obj.Get("10")
	assert.True(t, ok)
	assert.Equal(t, true, v)
}

func TestNormalize_Record(t *testing.T) {
	s, err := schema.Of[simpleMetric]()
	require.NoError(t, err)

	got, err := Normalize(schema.RecordOf(s), parse(t, `{"field2":"a","field1":1,"unknown":true}`))
	require.NoError(t, err)

	obj := got.(*Object)
	assert.Equal(t, []string{"field1", "field2", "field3"}, obj.Keys())
	v, _ := obj.Get("field3")
	assert.Nil(t, v)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		text   string
		detail string
	}{
		{"null for list", "list<int>", "null", "expected list<int>, got null"},
		{"fraction for int", "int", "3.5", "expected int, got number 3.5"},
		{"string for int", "int", `"3"`, `expected int, got string "3"`},
		{"tuple length", "tuple<int,2>", "[1]", "got 1 elements"},
		{"bad map key", "map<int,int>", `{"x":1}`, `map key "x"`},
		{"object for list", "list<int>", "{}", "got object"},
		{"array for string", "string", "[]", "got array"},
		{"bool for union", "int|string", "true", "expected int|string, got bool true"},
		{"element error", "list<bool>", "[true,1]", "expected bool"},
		{"value for null", "null", "1", "expected null"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(schema.MustParse(tc.typ), parse(t, tc.text))
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrTypeMismatch)
			assert.Contains(t, err.Error(), tc.detail)
		})
	}
}

func TestNormalize_ErrorPath(t *testing.T) {
	_, err := Normalize(schema.MustParse("map<string,list<int>>"), parse(t, `{"a":[1,"x"]}`))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"a", "1"}, e.Path)
}

func TestLift(t *testing.T) {
	t.Run("int into float field", func(t *testing.T) {
		var f float64
		require.NoError(t, Lift(schema.Int(), int64(3), reflect.ValueOf(&f).Elem()))
		assert.Equal(t, 3.0, f)
	})

	t.Run("set into slice", func(t *testing.T) {
		var s []string
		require.NoError(t, Lift(schema.MustParse("set<string>"), []any{"a", "b"}, reflect.ValueOf(&s).Elem()))
		assert.Equal(t, []string{"a", "b"}, s)
	})

	t.Run("map with bool keys", func(t *testing.T) {
		obj := NewObject(2)
		obj.Set("false", int64(0))
		obj.Set("true", int64(1))
		var m map[bool]uint8
		require.NoError(t, Lift(schema.MustParse("map<bool,int>"), obj, reflect.ValueOf(&m).Elem()))
		assert.Equal(t, map[bool]uint8{false: 0, true: 1}, m)
	})

	t.Run("union into interface", func(t *testing.T) {
		var v any
		require.NoError(t, Lift(schema.MustParse("list<int>|string"), []any{int64(1)}, reflect.ValueOf(&v).Elem()))
		assert.Equal(t, []any{1}, v)
	})

	t.Run("nil into required", func(t *testing.T) {
		var n int
		err := Lift(schema.Int(), nil, reflect.ValueOf(&n).Elem())
		assert.ErrorIs(t, err, errors.ErrTypeMismatch)
	})

	t.Run("array length", func(t *testing.T) {
		var a [2]int
		err := Lift(schema.List(schema.Int()), []any{int64(1)}, reflect.ValueOf(&a).Elem())
		assert.ErrorIs(t, err, errors.ErrTypeMismatch)
	})

	t.Run("negative into unsigned", func(t *testing.T) {
		var u uint
		err := Lift(schema.Int(), int64(-1), reflect.ValueOf(&u).Elem())
		assert.ErrorIs(t, err, errors.ErrTypeMismatch)
	})

	t.Run("wrong go type", func(t *testing.T) {
		var s string
		err := Lift(schema.Int(), int64(1), reflect.ValueOf(&s).Elem())
		assert.ErrorIs(t, err, errors.ErrTypeMismatch)
		assert.Contains(t, err.Error(), "cannot store int value in Go type string")
	})
}
