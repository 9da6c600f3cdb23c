package row

import (
	"strings"

	"github.com/ssargent/typeline/pkg/errors"
)

// Dialect describes how fields are separated and quoted on a line.
type Dialect struct {
	Name       string
	Delimiter  rune
	Quote      rune
	Terminator string
}

// DefaultQuote is the quote character of the built-in dialects.
const DefaultQuote = '\''

var (
	// CSV separates fields with commas.
	CSV = Dialect{Name: "csv", Delimiter: ',', Quote: DefaultQuote, Terminator: "\n"}

	// TSV separates fields with tabs.
	TSV = Dialect{Name: "tsv", Delimiter: '\t', Quote: DefaultQuote, Terminator: "\n"}
)

// DialectByName returns the built-in dialect called name, ignoring case.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return CSV, nil
	case "tsv":
		return TSV, nil
	}
	return Dialect{}, errors.Config("unknown dialect %q; expected csv or tsv", name)
}

// WithQuote returns a copy of d using q as the quote character.
func (d Dialect) WithQuote(q rune) Dialect {
	d.Quote = q
	return d
}

// Validate reports whether the dialect can round-trip rows.
func (d Dialect) Validate() error {
	switch {
	case d.Delimiter == 0:
		return errors.Config("dialect %s has no delimiter", d.name())
	case d.Quote == 0:
		return errors.Config("dialect %s has no quote character", d.name())
	case d.Delimiter == d.Quote:
		return errors.Config("dialect %s uses %q as both delimiter and quote", d.name(), d.Delimiter)
	case isLineBreak(d.Delimiter) || isLineBreak(d.Quote):
		return errors.Config("dialect %s cannot use a line break as delimiter or quote", d.name())
	case d.Terminator != "\n" && d.Terminator != "\r\n":
		return errors.Config("dialect %s terminator must be \\n or \\r\\n, got %q", d.name(), d.Terminator)
	}
	return nil
}

func (d Dialect) name() string {
	if d.Name == "" {
		return "custom"
	}
	return d.Name
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}
