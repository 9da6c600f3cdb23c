//go:build fuzz
// +build fuzz

package row

import (
	"testing"
)

// FuzzSplit_RoundTrip checks that every assembled row splits back into the
// fragments it was built from.
func FuzzSplit_RoundTrip(f *testing.F) {
	f.Add("1", "my\tname", "0.2")
	f.Add("", "", "")
	f.Add("'", "''", "it's")
	f.Add("a,b", "c\nd", "#x")
	f.Add(`{"a":[1,2]}`, "null", "  ")

	f.Fuzz(func(t *testing.T, a, b, c string) {
		fragments := []string{a, b, c}
		for _, d := range []Dialect{CSV, TSV} {
			line := d.Assemble(fragments, "#")
			if Skippable(line, []string{"#"}) {
				t.Fatalf("assembled line %q would be skipped", line)
			}
			got, err := d.Split(line)
			if err != nil {
				t.Fatalf("Split(%q) failed: %v", line, err)
			}
			if len(got) != len(fragments) {
				t.Fatalf("Split(%q) = %q, want %q", line, got, fragments)
			}
			for i := range got {
				if got[i] != fragments[i] {
					t.Fatalf("Split(%q) = %q, want %q", line, got, fragments)
				}
			}
			if d.openQuote(line) {
				t.Fatalf("assembled line %q reported as open", line)
			}
		}
	})
}

// FuzzSplit_Arbitrary makes sure the tokenizer never panics and that a
// successful split reassembles into an equivalent row.
func FuzzSplit_Arbitrary(f *testing.F) {
	f.Add("a,b,c")
	f.Add("'a,b',c")
	f.Add("'unterminated")
	f.Add("'a'b")
	f.Add("''''")

	f.Fuzz(func(t *testing.T, line string) {
		got, err := CSV.Split(line)
		if err != nil {
			return
		}
		again, err := CSV.Split(CSV.Assemble(got))
		if err != nil {
			t.Fatalf("reassembled row of %q does not split: %v", line, err)
		}
		if len(again) != len(got) {
			t.Fatalf("reassembled row of %q = %q, want %q", line, again, got)
		}
	})
}
