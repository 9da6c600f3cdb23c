package schema

import (
	"github.com/ssargent/typeline/pkg/errors"
)

// FieldDecl declares a field by name and type expression.
type FieldDecl struct {
	Name string
	Type string
}

// Registry holds explicitly declared record schemas so that later
// declarations can refer to earlier ones by name.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// Define declares a record schema. Types may reference records defined
// before it; a record cannot reference itself.
func (r *Registry) Define(name string, decls []FieldDecl) (*Schema, error) {
	if name == "" {
		return nil, errors.Schema(nil, "record name is empty")
	}
	if _, exists := r.schemas[name]; exists {
		return nil, errors.Schema([]string{name}, "record %q is already defined", name)
	}

	fields := make([]Field, 0, len(decls))
	for _, d := range decls {
		t, err := ParseWith(d.Type, r.Lookup)
		if err != nil {
			return nil, errors.WithPath(err, name, d.Name)
		}
		fields = append(fields, Field{Name: d.Name, Type: t})
	}
	if len(fields) == 0 {
		return nil, errors.Schema([]string{name}, "record %q has no fields", name)
	}

	s, err := New(name, fields...)
	if err != nil {
		return nil, err
	}
	r.schemas[name] = s
	return s, nil
}

// Lookup returns a previously defined schema.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Parse parses a type expression against the registered records.
func (r *Registry) Parse(expr string) (*Type, error) {
	return ParseWith(expr, r.Lookup)
}
