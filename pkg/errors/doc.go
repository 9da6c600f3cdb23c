// Package errors provides the structured error type shared by the typeline
// packages.
//
// Errors are categorized by Phase (where the error occurred) and Kind (what
// went wrong). Row-level errors carry enough context to locate and diagnose
// the offending line without re-running: the physical line number, the raw
// record text, the field/value pairs, the synthesized JSON and the target
// record type.
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
//		Path("field9", "first", "field1").
//		TypeName("ComplexMetric").
//		Detail("expected int, got string").
//		Build()
//
// Callers test for a category with the standard library:
//
//	if stderrors.Is(err, errors.ErrMalformedRow) { ... }
package errors
