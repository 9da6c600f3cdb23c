// Package codec converts typed field values to and from the text of single
// delimited fields.
//
// Scalars are written as plain text and everything richer than a scalar is
// written as compact JSON inside the field:
//
//	1	'my	name'	0.2	[1,2,3]	{"field1":1,"field2":2}	true	null
//
// # Encoding
//
// Encoding happens in two steps. Lower converts a Go value into the
// intermediate value model:
//
//	nil | bool | int64 | float64 | string | []any | *Object
//
// checking it against the declared schema.Type on the way. Sets are sorted
// and map keys are sorted, so the output for a given record is
// deterministic. Fragment then renders the intermediate value: strings
// verbatim, the absent value as "null" (or a configured placeholder) and
// everything else as JSON without HTML escaping.
//
// # Decoding
//
// Decoding runs three passes over a row:
//
//  1. Textualize turns each raw fragment into JSON text. Strings become
//     quoted JSON string literals, booleans are lowercased, and other
//     values are taken as JSON with literal tabs and newlines inside
//     string literals escaped.
//  2. The per-field texts are assembled into one JSON object and parsed
//     with encoding/json. A field whose text is not exactly one JSON value
//     fails the whole row with errors.ErrMalformedRow, so a fragment can
//     never inject extra keys.
//  3. Normalize checks every parsed value against its type and produces
//     the intermediate value; Lift stores it into the Go record.
//
// An optional field reads the empty fragment and "null" as absent. This
// makes optional strings unable to round-trip "" and "null".
//
// # Hooks
//
// EncodeHook and DecodeHook override the default rules per field; see
// ChainEncode and ChainDecode for composing several.
//
// # Unions
//
// Encoding narrows a union by the Go kind of the value. Decoding narrows by
// the JSON kind of the parsed value, which is only unambiguous for unions
// of at most two non-null members; wider unions are rejected by
// schema.Schema.CheckDecodable before any row is read.
//
// # Thread Safety
//
// Codec instances hold no mutable state and are safe for concurrent use.
package codec
