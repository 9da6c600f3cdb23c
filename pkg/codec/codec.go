package codec

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/ssargent/typeline/pkg/errors"
	"github.com/ssargent/typeline/pkg/schema"
)

// Config controls how a Codec renders absent values and which hooks it
// applies.
type Config struct {
	// NonePlaceholder is written for absent values instead of "null" and
	// read back as absent for optional fields.
	NonePlaceholder string
	Hooks           Hooks
}

// Codec converts records of one schema to and from row fragments.
// Codec instances are safe for concurrent use.
type Codec struct {
	schema *schema.Schema
	record *schema.Type
	config Config
}

// New creates a codec for s.
func New(s *schema.Schema, cfg Config) *Codec {
	return &Codec{
		schema: s,
		record: schema.RecordOf(s),
		config: cfg,
	}
}

// Schema returns the schema the codec was built for.
func (c *Codec) Schema() *schema.Schema { return c.schema }

// EncodeRecord renders a record as one fragment per schema field, in schema
// order. The record may be a struct (or pointer to one), an *Object or a
// string-keyed map.
func (c *Codec) EncodeRecord(record any) ([]string, error) {
	v, present := indirect(reflect.ValueOf(record))
	if !present {
		return nil, c.annotate(encodeMismatch(nil, c.record, v), nil, "")
	}
	get, err := fieldGetter(c.schema, v, nil)
	if err != nil {
		return nil, c.annotate(err, nil, "")
	}

	out := make([]string, c.schema.Len())
	for i := range out {
		frag, err := c.encodeField(c.schema.Field(i), get(i))
		if err != nil {
			return nil, c.annotate(err, nil, "")
		}
		out[i] = frag
	}
	return out, nil
}

func (c *Codec) encodeField(f schema.Field, v reflect.Value) (string, error) {
	frag, err := c.fragment(f, v)
	if hook := c.config.Hooks.Encode; hook != nil {
		if s, ok := hook(f.Type, valueOf(v)); ok {
			return s, nil
		}
	}
	return frag, err
}

func (c *Codec) fragment(f schema.Field, v reflect.Value) (string, error) {
	iv, err := lower(f.Type, v, []string{f.Name})
	if err != nil {
		return "", err
	}
	frag, err := Fragment(iv, c.config.NonePlaceholder)
	if err != nil {
		return "", errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			Path(f.Name).
			Value(iv).
			Detail("cannot render value as JSON").
			Cause(err).
			Build()
	}
	return frag, nil
}

// Text returns the JSON text the codec builds for one field before
// parsing.
func (c *Codec) Text(t *schema.Type, fragment string) string {
	if hook := c.config.Hooks.Decode; hook != nil {
		if s, ok := hook(t, fragment); ok {
			return EscapeControl(s)
		}
	}
	return Textualize(t, fragment, c.config.NonePlaceholder)
}

// DecodeRow parses one fragment per schema field, in schema order, into a
// normalized *Object. Fragments are textualized and assembled into a single
// JSON object text; each fragment must contribute exactly one JSON value.
// Text that does not parse fails with ErrMalformedRow, values that do not
// fit the schema with ErrTypeMismatch. Both carry the field/value pairs and
// the assembled JSON text.
func (c *Codec) DecodeRow(fragments []string) (*Object, error) {
	n := c.schema.Len()
	if len(fragments) != n {
		return nil, c.annotate(errors.RowShape(0, "", n, len(fragments)), fragments, "")
	}

	texts := make([]string, n)
	for i := range texts {
		texts[i] = c.Text(c.schema.Field(i).Type, fragments[i])
	}
	text := c.assemble(texts)

	for i, t := range texts {
		if json.Valid([]byte(t)) {
			continue
		}
		var scratch any
		cause := json.Unmarshal([]byte(t), &scratch)
		name := c.schema.Field(i).Name
		return nil, c.annotate(errors.New(errors.PhaseDecode, errors.KindMalformedRow).
			Path(name).
			Value(fragments[i]).
			Detail("could not load delimited data line into JSON: field %q is not a single JSON value", name).
			Cause(cause).
			Build(), fragments, text)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, c.annotate(errors.Malformed(errors.PhaseDecode, "could not load delimited data line into JSON", err), fragments, text)
	}

	obj := NewObject(n)
	for i := 0; i < n; i++ {
		f := c.schema.Field(i)
		v, err := normalize(f.Type, raw[f.Name], []string{f.Name})
		if err != nil {
			return nil, c.annotate(err, fragments, text)
		}
		obj.Set(f.Name, v)
	}
	return obj, nil
}

func (c *Codec) assemble(texts []string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, t := range texts {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quoteString(c.schema.Field(i).Name))
		b.WriteByte(':')
		b.WriteString(t)
	}
	b.WriteByte('}')
	return b.String()
}

// Materialize stores a decoded object into dst, which must be a non-nil
// pointer to a struct, a pointer to one, or an interface.
func (c *Codec) Materialize(obj *Object, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return c.annotate(errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			Value(dst).
			Detail("destination must be a non-nil pointer, got %T", dst).
			Build(), nil, "")
	}
	if err := lift(c.record, obj, rv.Elem(), nil); err != nil {
		return c.annotate(err, nil, "")
	}
	return nil
}

// Decode is DecodeRow followed by Materialize.
func (c *Codec) Decode(fragments []string, dst any) error {
	obj, err := c.DecodeRow(fragments)
	if err != nil {
		return err
	}
	if err := c.Materialize(obj, dst); err != nil {
		return errors.Annotate(err, func(b *errors.Builder) { b.Fields(c.pairs(fragments)) })
	}
	return nil
}

func (c *Codec) annotate(err error, fragments []string, text string) error {
	return errors.Annotate(err, func(b *errors.Builder) {
		b.TypeName(c.schema.Name)
		if fragments != nil {
			b.Fields(c.pairs(fragments))
		}
		if text != "" {
			b.JSON(text)
		}
	})
}

func (c *Codec) pairs(fragments []string) []errors.FieldValue {
	out := make([]errors.FieldValue, 0, len(fragments))
	for i, frag := range fragments {
		name := ""
		if i < c.schema.Len() {
			name = c.schema.Field(i).Name
		}
		out = append(out, errors.FieldValue{Name: name, Value: frag})
	}
	return out
}
