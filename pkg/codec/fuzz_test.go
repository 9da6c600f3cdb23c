//go:build fuzz
// +build fuzz

package codec

import (
	"encoding/json"
	"math"
	"testing"
	"unicode/utf8"

	"github.com/ssargent/typeline/pkg/errors"
	"github.com/ssargent/typeline/pkg/schema"
)

// FuzzCodec_RoundTrip tests encode/decode round-trip with random inputs
func FuzzCodec_RoundTrip(f *testing.F) {
	s, err := schema.Of[simpleMetric]()
	if err != nil {
		f.Fatal(err)
	}
	c := New(s, Config{})

	// Add seed corpus
	f.Add(1, "name", 0.2, true)
	f.Add(-7, "my\tname", 1e300, false)
	f.Add(0, "", 0.0, true)
	f.Add(42, `{"field1":2}`, -0.5, true)
	f.Add(3, "null", 3.0, false)

	f.Fuzz(func(t *testing.T, n int, text string, ratio float64, present bool) {
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			t.Skip("value has no JSON form")
		}

		in := simpleMetric{Field1: n, Field2: text}
		if present {
			in.Field3 = &ratio
		}

		fragments, err := c.EncodeRecord(in)
		if !utf8.ValidString(text) {
			if !errors.Is(err, errors.ErrTypeMismatch) {
				t.Fatalf("EncodeRecord(%q) = %v, want type mismatch", text, err)
			}
			return
		}
		if err != nil {
			t.Fatalf("EncodeRecord failed for %+v: %v", in, err)
		}

		var out simpleMetric
		if err := c.Decode(fragments, &out); err != nil {
			t.Fatalf("Decode failed for fragments %q: %v", fragments, err)
		}

		if out.Field1 != in.Field1 || out.Field2 != in.Field2 {
			t.Errorf("Round trip mismatch: got %+v, want %+v", out, in)
		}
		if (out.Field3 == nil) != (in.Field3 == nil) {
			t.Fatalf("Optional presence mismatch: got %v, want %v", out.Field3, in.Field3)
		}
		if in.Field3 != nil && *out.Field3 != *in.Field3 {
			t.Errorf("Float mismatch: got %v, want %v", *out.Field3, *in.Field3)
		}
	})
}

// FuzzCodec_MalformedData tests that arbitrary fragments never panic and
// only fail with structured errors
func FuzzCodec_MalformedData(f *testing.F) {
	s, err := schema.Of[complexMetric]()
	if err != nil {
		f.Fatal(err)
	}
	c := New(s, Config{})

	f.Add("1", "[1,2,3]", `{"a":1}`, "0.2")
	f.Add("", "", "", "")
	f.Add("1,\"x\":2", "[", "{", "NaN")
	f.Add("null", "null", "null", "true")

	f.Fuzz(func(t *testing.T, a, b, c2, d string) {
		fragments := []string{a, "x", d, b, b, b, c2, c2, c2, a, a, d}

		obj, err := c.DecodeRow(fragments)
		if err == nil {
			var out complexMetric
			err = c.Materialize(obj, &out)
		}
		if err == nil {
			return
		}

		var e *errors.Error
		if !errors.As(err, &e) {
			t.Fatalf("Unstructured error %T: %v", err, err)
		}
		if e.Kind != errors.KindMalformedRow && e.Kind != errors.KindTypeMismatch {
			t.Errorf("Unexpected error kind %s: %v", e.Kind, err)
		}
	})
}

// Property test: a string field always textualizes to a JSON literal of
// the same string
func FuzzTextualize_String(f *testing.F) {
	f.Add("")
	f.Add("plain")
	f.Add("tab\there \"quoted\" back\\slash")
	f.Add("\x00\x1f ")

	f.Fuzz(func(t *testing.T, in string) {
		if !utf8.ValidString(in) {
			t.Skip("invalid UTF-8 is rejected before it reaches a row")
		}

		text := Textualize(schema.String(), in, "")
		var out string
		if err := json.Unmarshal([]byte(text), &out); err != nil {
			t.Fatalf("Textualize(%q) = %q is not valid JSON: %v", in, text, err)
		}
		if out != in {
			t.Errorf("Textualize round trip: got %q, want %q", out, in)
		}
	})
}
