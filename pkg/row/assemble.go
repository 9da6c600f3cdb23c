package row

import (
	"strings"
)

// Assemble joins fragments into one line without the terminator.
//
// A fragment is quoted when it contains the delimiter, the quote character
// or a line break; quote characters inside are doubled. When the
// unquoted line would read back as blank, or as a comment starting with one
// of commentPrefixes, the first fragment is quoted too. A row of a single
// empty fragment is therefore written as ''.
func (d Dialect) Assemble(fragments []string, commentPrefixes ...string) string {
	var b strings.Builder
	d.appendRow(&b, fragments, false)
	line := b.String()
	if !Skippable(line, commentPrefixes) || len(fragments) == 0 {
		return line
	}
	b.Reset()
	d.appendRow(&b, fragments, true)
	return b.String()
}

// AppendRow appends the assembled line and the terminator to buf.
func (d Dialect) AppendRow(buf []byte, fragments []string, commentPrefixes ...string) []byte {
	buf = append(buf, d.Assemble(fragments, commentPrefixes...)...)
	return append(buf, d.Terminator...)
}

func (d Dialect) appendRow(b *strings.Builder, fragments []string, quoteFirst bool) {
	for i, f := range fragments {
		if i > 0 {
			b.WriteRune(d.Delimiter)
		}
		if (i == 0 && quoteFirst) || d.needsQuote(f) {
			d.writeQuoted(b, f)
		} else {
			b.WriteString(f)
		}
	}
}

func (d Dialect) needsQuote(f string) bool {
	return strings.ContainsRune(f, d.Delimiter) ||
		strings.ContainsRune(f, d.Quote) ||
		strings.ContainsAny(f, "\r\n")
}

func (d Dialect) writeQuoted(b *strings.Builder, f string) {
	q := string(d.Quote)
	b.WriteString(q)
	b.WriteString(strings.ReplaceAll(f, q, q+q))
	b.WriteString(q)
}

// Skippable reports whether a line is ignored by readers: blank after
// trimming whitespace, or starting with one of the comment prefixes.
func Skippable(line string, commentPrefixes []string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	for _, p := range commentPrefixes {
		if p != "" && strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}
