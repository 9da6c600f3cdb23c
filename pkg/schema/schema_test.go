package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/typeline/pkg/errors"
)

type simpleMetric struct {
	Field1 int      `typeline:"field1"`
	Field2 string   `typeline:"field2"`
	Field3 *float64 `typeline:"field3"`
}

type complexMetric struct {
	Field1  int                     `typeline:"field1"`
	Field2  string                  `typeline:"field2"`
	Field3  *float64                `typeline:"field3"`
	Field4  []int                   `typeline:"field4"`
	Field5  map[int]struct{}        `typeline:"field5"`
	Field6  [3]int                  `typeline:"field6"`
	Field7  map[string]int          `typeline:"field7"`
	Field8  simpleMetric            `typeline:"field8"`
	Field9  map[string]simpleMetric `typeline:"field9"`
	Field10 *bool                   `typeline:"field10"`
	Field11 *bool                   `typeline:"field11"`
	Field12 any                     `typeline:"field12,type=int|float|null"`
}

func TestOf_SimpleMetric(t *testing.T) {
	s, err := Of[simpleMetric]()
	require.NoError(t, err)

	assert.Equal(t, "simpleMetric", s.Name)
	assert.Equal(t, []string{"field1", "field2", "field3"}, s.Header())
	assert.Equal(t, 3, s.Len())

	assert.Equal(t, "int", s.Field(0).Type.String())
	assert.Equal(t, "string", s.Field(1).Type.String())
	assert.Equal(t, "float|null", s.Field(2).Type.String())
	assert.True(t, s.Field(2).Type.Nullable())
	assert.False(t, s.Field(0).Type.Nullable())

	i, ok := s.Lookup("field2")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = s.Lookup("missing")
	assert.False(t, ok)
}

func TestOf_ComplexMetric(t *testing.T) {
	s, err := Of[complexMetric]()
	require.NoError(t, err)

	expected := map[string]string{
		"field4":  "list<int>",
		"field5":  "set<int>",
		"field6":  "tuple<int,3>",
		"field7":  "map<string,int>",
		"field8":  "simpleMetric",
		"field9":  "map<string,simpleMetric>",
		"field10": "bool|null",
		"field12": "int|float|null",
	}
	for name, want := range expected {
		i, ok := s.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, s.Field(i).Type.String(), name)
	}

	i, _ := s.Lookup("field8")
	nested := s.Field(i).Type
	assert.Equal(t, KindRecord, nested.Kind)
	assert.Equal(t, []string{"field1", "field2", "field3"}, nested.Record.Header())

	i, _ = s.Lookup("field12")
	union := s.Field(i).Type
	assert.Equal(t, KindOptional, union.Kind)
	assert.Equal(t, KindUnion, union.Elem.Kind)
	assert.Len(t, union.Alternatives(), 2)
}

func TestOf_PointerIsDereferenced(t *testing.T) {
	s, err := Of[*simpleMetric]()
	require.NoError(t, err)
	assert.Equal(t, "simpleMetric", s.Name)
}

func TestOf_IsCached(t *testing.T) {
	a, err := Of[simpleMetric]()
	require.NoError(t, err)
	b, err := Of[simpleMetric]()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestOf_FieldNaming(t *testing.T) {
	type named struct {
		Tagged  int `typeline:"tagged_name"`
		JSON    int `json:"json_name,omitempty"`
		Plain   int
		Skipped int `typeline:"-"`
		hidden  int //nolint:unused
	}

	s, err := Of[named]()
	require.NoError(t, err)
	assert.Equal(t, []string{"tagged_name", "json_name", "Plain"}, s.Header())
}

func TestOf_Errors(t *testing.T) {
	type untagged struct {
		Value any
	}
	type withChan struct {
		C chan int
	}
	type wrongOverride struct {
		N int `typeline:"n,type=float"`
	}
	type badKey struct {
		M map[float64]int
	}
	type empty struct {
		hidden int //nolint:unused
	}
	type badExpr struct {
		V any `typeline:"v,type=list<"`
	}
	type doublePointer struct {
		P **int
	}

	tests := []struct {
		name string
		fn   func() (*Schema, error)
	}{
		{"not a struct", func() (*Schema, error) { return Of[int]() }},
		{"interface without type expression", func() (*Schema, error) { return Of[untagged]() }},
		{"channel field", func() (*Schema, error) { return Of[withChan]() }},
		{"type expression on concrete field", func() (*Schema, error) { return Of[wrongOverride]() }},
		{"unsupported map key", func() (*Schema, error) { return Of[badKey]() }},
		{"no exported fields", func() (*Schema, error) { return Of[empty]() }},
		{"broken type expression", func() (*Schema, error) { return Of[badExpr]() }},
		{"pointer to pointer", func() (*Schema, error) { return Of[doublePointer]() }},
		{"nil type", func() (*Schema, error) { return FromType(nil) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := tc.fn()
			assert.Nil(t, s)
			assert.ErrorIs(t, err, errors.ErrSchema)
		})
	}
}

type recursiveNode struct {
	Value int
	Next  *recursiveNode
}

func TestOf_RecursiveType(t *testing.T) {
	_, err := Of[recursiveNode]()
	assert.ErrorIs(t, err, errors.ErrSchema)
	assert.Contains(t, err.Error(), "refers to itself")
}

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s, err := New("point", Field{Name: "x", Type: Int()}, Field{Name: "y", Type: Int()})
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, s.Header())
		assert.Nil(t, s.GoType)
	})

	t.Run("duplicate names", func(t *testing.T) {
		_, err := New("point", Field{Name: "x", Type: Int()}, Field{Name: "x", Type: Float()})
		assert.ErrorIs(t, err, errors.ErrSchema)
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := New("point", Field{Name: "x"})
		assert.ErrorIs(t, err, errors.ErrSchema)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := New("point", Field{Type: Int()})
		assert.ErrorIs(t, err, errors.ErrSchema)
	})

	t.Run("fields are copied", func(t *testing.T) {
		s := MustNew("point", Field{Name: "x", Type: Int()})
		fields := s.Fields()
		fields[0].Name = "changed"
		assert.Equal(t, "x", s.Field(0).Name)
	})
}

func TestCheckDecodable(t *testing.T) {
	ok := MustNew("ok",
		Field{Name: "a", Type: MustParse("int|float|null")},
		Field{Name: "b", Type: MustParse("list<string|null>")},
	)
	assert.NoError(t, ok.CheckDecodable())

	wide := MustNew("wide", Field{Name: "a", Type: MustParse("int|string|bool")})
	err := wide.CheckDecodable()
	assert.ErrorIs(t, err, errors.ErrSchema)
	assert.Contains(t, err.Error(), "at most two")

	inner := MustNew("inner", Field{Name: "x", Type: MustParse("int|string|bool|null")})
	outer := MustNew("outer", Field{Name: "nested", Type: List(RecordOf(inner))})
	err = outer.CheckDecodable()
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"nested", "x"}, e.Path)
}
