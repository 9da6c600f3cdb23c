package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseSchema Phase = "schema" // schema derivation and type parsing
	PhaseHeader Phase = "header" // header validation
	PhaseEncode Phase = "encode" // record to row
	PhaseDecode Phase = "decode" // row to record
	PhaseStream Phase = "stream" // reader/writer lifecycle
)

// Kind categorizes the error
type Kind string

const (
	KindSchema         Kind = "schema_error"
	KindSchemaMismatch Kind = "schema_mismatch"
	KindRowShape       Kind = "row_shape"
	KindMalformedRow   Kind = "malformed_row"
	KindTypeMismatch   Kind = "type_mismatch"
	KindClosed         Kind = "closed"
	KindConfig         Kind = "invalid_config"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrSchema         = &Error{Kind: KindSchema}
	ErrSchemaMismatch = &Error{Kind: KindSchemaMismatch}
	ErrRowShape       = &Error{Kind: KindRowShape}
	ErrMalformedRow   = &Error{Kind: KindMalformedRow}
	ErrTypeMismatch   = &Error{Kind: KindTypeMismatch}
	ErrClosed         = &Error{Kind: KindClosed, Detail: "use of closed stream"}
	ErrConfig         = &Error{Kind: KindConfig}
)

// FieldValue pairs a field name with the raw or parsed value seen for it.
type FieldValue struct {
	Name  string
	Value any
}

// Error is the structured error type used throughout typeline
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	TypeName string
	Detail   string
	JSON     string
	Record   string
	Path     []string
	Fields   []FieldValue
	Expected []string
	Found    []string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Line > 0 {
		fmt.Fprintf(&b, " on line %d", e.Line)
	}
	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}
	if e.TypeName != "" {
		b.WriteString(" in ")
		b.WriteString(e.TypeName)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Expected != nil || e.Found != nil {
		fmt.Fprintf(&b, " (expected %v, found %v)", e.Expected, e.Found)
	}
	if len(e.Fields) > 0 {
		b.WriteString("; fields: ")
		for i, f := range e.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%#v", f.Name, f.Value)
		}
	}
	if e.JSON != "" {
		b.WriteString("; json: ")
		b.WriteString(e.JSON)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches every phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Phase overrides the processing phase
func (b *Builder) Phase(phase Phase) *Builder {
	b.err.Phase = phase
	return b
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// TypeName sets the name of the record type being produced
func (b *Builder) TypeName(name string) *Builder {
	b.err.TypeName = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Fields sets the field/value pairs of the row being processed
func (b *Builder) Fields(fields []FieldValue) *Builder {
	b.err.Fields = fields
	return b
}

// JSON sets the synthesized intermediate text
func (b *Builder) JSON(text string) *Builder {
	b.err.JSON = text
	return b
}

// Line sets the physical line number and raw record text
func (b *Builder) Line(line int, record string) *Builder {
	b.err.Line = line
	b.err.Record = record
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Schema creates a schema error for a record or field type that cannot be
// represented
func Schema(path []string, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseSchema,
		Kind:   KindSchema,
		Path:   path,
		Detail: fmt.Sprintf(format, args...),
	}
}

// SchemaMismatch creates a header mismatch error
func SchemaMismatch(expected, found []string, detail string) *Error {
	return &Error{
		Phase:    PhaseHeader,
		Kind:     KindSchemaMismatch,
		Expected: expected,
		Found:    found,
		Detail:   detail,
	}
}

// RowShape creates a field count mismatch error
func RowShape(line int, record string, expected, actual int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindRowShape,
		Line:   line,
		Record: record,
		Detail: fmt.Sprintf("expected %d fields, found %d", expected, actual),
		Value:  actual,
	}
}

// Config creates an error for an invalid dialect or stream option
func Config(format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseStream,
		Kind:   KindConfig,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Malformed creates a malformed row error
func Malformed(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedRow,
		Detail: detail,
		Cause:  cause,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, expected string, got any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("expected %s, got %s", expected, describe(got)),
		Value:  got,
	}
}

// AtLine returns err annotated with a line number and the raw record text.
// Errors that are not *Error are wrapped as malformed rows.
func AtLine(err error, line int, record string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return &Error{Phase: PhaseDecode, Kind: KindMalformedRow, Line: line, Record: record, Cause: err}
	}
	annotated := *e
	annotated.Line = line
	annotated.Record = record
	return &annotated
}

// WithPath returns a copy of err with prefix prepended to its path.
func WithPath(err error, prefix ...string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	annotated := *e
	annotated.Path = append(append([]string{}, prefix...), e.Path...)
	return &annotated
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", x)
	case fmt.Stringer:
		return fmt.Sprintf("%T %s", v, x.String())
	default:
		return fmt.Sprintf("%T %v", v, v)
	}
}

// Annotate returns a copy of err edited through a Builder seeded with it.
// Errors that are not *Error are returned unchanged.
func Annotate(err error, fn func(*Builder)) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	b := &Builder{err: *e}
	fn(b)
	return b.Build()
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }
