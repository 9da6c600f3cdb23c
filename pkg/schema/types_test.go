package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/typeline/pkg/errors"
)

func TestUnion_Normalization(t *testing.T) {
	tests := []struct {
		name string
		got  *Type
		want string
		kind Kind
	}{
		{"null and one type is optional", Union(Null(), Int()), "int|null", KindOptional},
		{"order of null does not matter", Union(Int(), Null()), "int|null", KindOptional},
		{"null with two types", Union(Int(), Float(), Null()), "int|float|null", KindOptional},
		{"nested unions flatten", Union(Int(), Union(Float(), String())), "int|float|string", KindUnion},
		{"optional member contributes null", Union(String(), Optional(Int())), "string|int|null", KindOptional},
		{"duplicates collapse", Union(Int(), Int()), "int", KindInt},
		{"only null", Union(Null()), "null", KindNull},
		{"optional of optional", Optional(Optional(Bool())), "bool|null", KindOptional},
		{"optional of null", Optional(Null()), "null", KindNull},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.got.String())
			assert.Equal(t, tc.kind, tc.got.Kind)
		})
	}

	assert.True(t, Union(Null(), Float()).Equal(Optional(Float())))
}

func TestType_Alternatives(t *testing.T) {
	assert.Equal(t, []*Type{Int()}, Optional(Int()).Alternatives())
	assert.Len(t, Union(Int(), Float(), Null()).Alternatives(), 2)
	assert.Empty(t, Null().Alternatives())
	assert.Equal(t, Int(), Optional(Int()).NonNull())
	assert.Equal(t, Int(), Int().NonNull())
}

func TestParse(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"bool", "bool"},
		{"int", "int"},
		{"float", "float"},
		{"string", "string"},
		{"null", "null"},
		{"list<int>", "list<int>"},
		{" list < int > ", "list<int>"},
		{"set<string>", "set<string>"},
		{"tuple<int, 3>", "tuple<int,3>"},
		{"map<string,list<float>>", "map<string,list<float>>"},
		{"optional<string>", "string|null"},
		{"int|float|null", "int|float|null"},
		{"null|bool", "bool|null"},
		{"list<int|null>", "list<int|null>"},
		{"map<int,map<string,bool>>", "map<int,map<string,bool>>"},
	}

	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := Parse(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())

			again, err := Parse(got.String())
			require.NoError(t, err)
			assert.True(t, got.Equal(again))
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"",
		"integer",
		"list",
		"list<int",
		"list<>",
		"tuple<int>",
		"tuple<int,x>",
		"map<float,int>",
		"map<string>",
		"set<list<int>>",
		"int|",
		"int extra",
		"SomeRecord",
	}

	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			assert.ErrorIs(t, err, errors.ErrSchema)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	simple, err := r.Define("SimpleMetric", []FieldDecl{
		{Name: "field1", Type: "int"},
		{Name: "field2", Type: "string"},
		{Name: "field3", Type: "float|null"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SimpleMetric", simple.Name)

	complexSchema, err := r.Define("ComplexMetric", []FieldDecl{
		{Name: "field8", Type: "SimpleMetric"},
		{Name: "field9", Type: "map<string,SimpleMetric>"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SimpleMetric", complexSchema.Field(0).Type.String())
	assert.Same(t, simple, complexSchema.Field(0).Type.Record)

	got, err := r.Parse("list<SimpleMetric>|null")
	require.NoError(t, err)
	assert.Equal(t, "list<SimpleMetric>|null", got.String())

	t.Run("redefinition", func(t *testing.T) {
		_, err := r.Define("SimpleMetric", []FieldDecl{{Name: "x", Type: "int"}})
		assert.ErrorIs(t, err, errors.ErrSchema)
	})

	t.Run("forward reference", func(t *testing.T) {
		_, err := r.Define("Early", []FieldDecl{{Name: "later", Type: "Later"}})
		assert.ErrorIs(t, err, errors.ErrSchema)
	})

	t.Run("no fields", func(t *testing.T) {
		_, err := r.Define("Empty", nil)
		assert.ErrorIs(t, err, errors.ErrSchema)
	})

	t.Run("bad field type carries path", func(t *testing.T) {
		_, err := r.Define("Broken", []FieldDecl{{Name: "x", Type: "list<"}})
		var e *errors.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, []string{"Broken", "x"}, e.Path)
	})
}
