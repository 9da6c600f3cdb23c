package schema

import (
	"strconv"
	"strings"
)

// Kind identifies the variant of a Type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindNull
	KindList
	KindSet
	KindTuple
	KindMap
	KindRecord
	KindOptional
	KindUnion
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "string",
	KindNull:     "null",
	KindList:     "list",
	KindSet:      "set",
	KindTuple:    "tuple",
	KindMap:      "map",
	KindRecord:   "record",
	KindOptional: "optional",
	KindUnion:    "union",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Type is the declared type of a field. Types are immutable once built and
// are only created through the constructors in this package, which keep
// unions normalized.
type Type struct {
	Kind Kind

	// Elem is the element type of List, Set and Tuple, the value type of Map
	// and the present type of Optional.
	Elem *Type

	// Key is the key type of Map.
	Key *Type

	// Len is the fixed length of a Tuple.
	Len int

	// Members are the non-null alternatives of a Union, at least two.
	Members []*Type

	// Record is the nested schema of a Record.
	Record *Schema
}

var (
	boolType   = &Type{Kind: KindBool}
	intType    = &Type{Kind: KindInt}
	floatType  = &Type{Kind: KindFloat}
	stringType = &Type{Kind: KindString}
	nullType   = &Type{Kind: KindNull}
)

func Bool() *Type   { return boolType }
func Int() *Type    { return intType }
func Float() *Type  { return floatType }
func String() *Type { return stringType }

// Null is the marker for an absent value. It only appears on its own or
// inside Optional after normalization.
func Null() *Type { return nullType }

// List returns a variable-length sequence of elem.
func List(elem *Type) *Type {
	return &Type{Kind: KindList, Elem: elem}
}

// Set returns an unordered collection of unique scalar elem values.
func Set(elem *Type) *Type {
	return &Type{Kind: KindSet, Elem: elem}
}

// Tuple returns a fixed-length sequence of n elem values.
func Tuple(elem *Type, n int) *Type {
	return &Type{Kind: KindTuple, Elem: elem, Len: n}
}

// Map returns a key-value mapping. Keys are rendered as JSON object keys.
func Map(key, value *Type) *Type {
	return &Type{Kind: KindMap, Key: key, Elem: value}
}

// RecordOf returns the type of a nested record.
func RecordOf(s *Schema) *Type {
	return &Type{Kind: KindRecord, Record: s}
}

// Optional returns t or absent. Optional(Optional(t)) is Optional(t) and
// Optional(Null) is Null.
func Optional(t *Type) *Type {
	switch t.Kind {
	case KindOptional, KindNull:
		return t
	}
	return &Type{Kind: KindOptional, Elem: t}
}

// Union returns one of the given alternatives. Nested unions are flattened,
// duplicates collapse, and a Null member turns the result into an Optional:
// Union(Null, T) is Optional(T) and Union(Null, A, B) is
// Optional(Union(A, B)).
func Union(members ...*Type) *Type {
	var (
		flat    []*Type
		seen    = make(map[string]bool)
		hasNull bool
	)
	var add func(t *Type)
	add = func(t *Type) {
		switch t.Kind {
		case KindNull:
			hasNull = true
		case KindOptional:
			hasNull = true
			add(t.Elem)
		case KindUnion:
			for _, m := range t.Members {
				add(m)
			}
		default:
			key := t.String()
			if !seen[key] {
				seen[key] = true
				flat = append(flat, t)
			}
		}
	}
	for _, m := range members {
		add(m)
	}

	var inner *Type
	switch len(flat) {
	case 0:
		return nullType
	case 1:
		inner = flat[0]
	default:
		inner = &Type{Kind: KindUnion, Members: flat}
	}
	if hasNull {
		return Optional(inner)
	}
	return inner
}

// Nullable reports whether the type admits an absent value.
func (t *Type) Nullable() bool {
	return t.Kind == KindOptional || t.Kind == KindNull
}

// NonNull strips one level of Optional.
func (t *Type) NonNull() *Type {
	if t.Kind == KindOptional {
		return t.Elem
	}
	return t
}

// IsScalar reports whether the type is bool, int, float or string.
func (t *Type) IsScalar() bool {
	switch t.Kind {
	case KindBool, KindInt, KindFloat, KindString:
		return true
	}
	return false
}

// Alternatives returns the non-null types a value of t can take.
func (t *Type) Alternatives() []*Type {
	inner := t.NonNull()
	if inner.Kind == KindUnion {
		return inner.Members
	}
	if inner.Kind == KindNull {
		return nil
	}
	return []*Type{inner}
}

// Equal reports whether two types describe the same shape.
func (t *Type) Equal(other *Type) bool {
	return t.String() == other.String()
}

// String renders the type in the expression syntax accepted by Parse.
func (t *Type) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Type) write(b *strings.Builder) {
	switch t.Kind {
	case KindList, KindSet:
		b.WriteString(t.Kind.String())
		b.WriteByte('<')
		t.Elem.write(b)
		b.WriteByte('>')
	case KindTuple:
		b.WriteString("tuple<")
		t.Elem.write(b)
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(t.Len))
		b.WriteByte('>')
	case KindMap:
		b.WriteString("map<")
		t.Key.write(b)
		b.WriteByte(',')
		t.Elem.write(b)
		b.WriteByte('>')
	case KindRecord:
		if t.Record != nil && t.Record.Name != "" {
			b.WriteString(t.Record.Name)
		} else {
			b.WriteString("record")
		}
	case KindOptional:
		t.Elem.write(b)
		b.WriteString("|null")
	case KindUnion:
		for i, m := range t.Members {
			if i > 0 {
				b.WriteByte('|')
			}
			m.write(b)
		}
	default:
		b.WriteString(t.Kind.String())
	}
}
