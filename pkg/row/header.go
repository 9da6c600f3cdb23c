package row

import (
	"slices"
	"strconv"

	"github.com/ssargent/typeline/pkg/errors"
	"github.com/ssargent/typeline/pkg/schema"
)

// AssembleHeader renders the header line for names using the same quoting
// rules as data rows.
func (d Dialect) AssembleHeader(names []string, commentPrefixes ...string) string {
	return d.Assemble(names, commentPrefixes...)
}

// ValidateHeader checks that names holds exactly the field names of s, in
// any order. It returns the column order mapping: order[i] is the column
// holding field i. The mapping is nil when the header is already in schema
// order.
//
// Duplicate, missing, extra and misspelled names fail with
// errors.ErrSchemaMismatch listing the sorted expected and found names.
func ValidateHeader(names []string, s *schema.Schema) ([]int, error) {
	expected := s.Header()
	mismatch := func(detail string) error {
		return errors.SchemaMismatch(sorted(expected), sorted(names), detail)
	}

	if len(names) != len(expected) {
		return nil, mismatch("header has a different number of columns than the record")
	}

	order := make([]int, len(expected))
	for i := range order {
		order[i] = -1
	}
	inOrder := true
	for col, name := range names {
		i, ok := s.Lookup(name)
		if !ok {
			return nil, mismatch("unknown column " + strconv.Quote(name))
		}
		if order[i] >= 0 {
			return nil, mismatch("duplicate column " + strconv.Quote(name))
		}
		order[i] = col
		inOrder = inOrder && i == col
	}

	if inOrder {
		return nil, nil
	}
	return order, nil
}

// Realign reorders fields from file column order into schema order. A nil
// order, or a row whose length does not match it, is returned unchanged so
// the row shape check downstream reports the real column count.
func Realign(fields []string, order []int) []string {
	if order == nil || len(fields) != len(order) {
		return fields
	}
	out := make([]string, len(order))
	for i, col := range order {
		out[i] = fields[col]
	}
	return out
}

func sorted(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return out
}
