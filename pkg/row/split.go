package row

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ssargent/typeline/pkg/errors"
)

// Split tokenizes one logical line into fragments.
//
// A field that starts with the quote character is quoted: it ends at a
// quote followed by the delimiter or the end of the line, and a doubled
// quote inside stands for one quote character. Quote characters inside an
// unquoted field are taken literally. An unterminated quoted field, or a
// closing quote followed by anything but the delimiter, fails with
// errors.ErrMalformedRow.
func (d Dialect) Split(line string) ([]string, error) {
	var (
		fields []string
		q      = string(d.Quote)
		delim  = string(d.Delimiter)
		i      int
	)

	for {
		if !strings.HasPrefix(line[i:], q) {
			j := strings.Index(line[i:], delim)
			if j < 0 {
				return append(fields, line[i:]), nil
			}
			fields = append(fields, line[i:i+j])
			i += j + len(delim)
			continue
		}

		start := i
		i += len(q)
		var b strings.Builder
		for {
			j := strings.Index(line[i:], q)
			if j < 0 {
				return nil, errors.Malformed(errors.PhaseDecode,
					"unterminated quoted field starting at column "+columnOf(line, start), nil)
			}
			b.WriteString(line[i : i+j])
			i += j + len(q)
			if strings.HasPrefix(line[i:], q) {
				b.WriteString(q)
				i += len(q)
				continue
			}
			break
		}
		fields = append(fields, b.String())

		switch {
		case i == len(line):
			return fields, nil
		case strings.HasPrefix(line[i:], delim):
			i += len(delim)
		default:
			return nil, errors.Malformed(errors.PhaseDecode,
				"unexpected text after closing quote at column "+columnOf(line, i), nil)
		}
	}
}

// openQuote reports whether line ends inside a quoted field, meaning the
// record continues on the next physical line.
func (d Dialect) openQuote(line string) bool {
	fieldStart, inQuote := true, false
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		i += size
		if inQuote {
			if r == d.Quote {
				if next, n := utf8.DecodeRuneInString(line[i:]); n > 0 && next == d.Quote {
					i += n
					continue
				}
				inQuote = false
			}
			continue
		}
		switch {
		case r == d.Delimiter:
			fieldStart = true
			continue
		case r == d.Quote && fieldStart:
			inQuote = true
		}
		fieldStart = false
	}
	return inQuote
}

// columnOf returns the 1-based rune column of byte offset i.
func columnOf(line string, i int) string {
	return strconv.Itoa(utf8.RuneCountInString(line[:i]) + 1)
}
