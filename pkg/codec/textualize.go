package codec

import (
	"strings"

	"github.com/ssargent/typeline/pkg/schema"
)

// Textualize turns the raw text of one field into JSON text for type t.
//
// Strings are written to rows verbatim, so they are quoted here with full
// JSON escaping. Booleans are lowercased so True and TRUE parse. Every
// other type is expected to be JSON already; literal control characters
// inside its string literals are escaped.
//
// For an optional type the empty fragment, "null" and the none placeholder
// all mean absent. An optional string therefore cannot hold "", "null" or
// the placeholder text; such values read back as nil.
//
// A union with a string member reads every fragment as a string, since the
// row text does not say which member was written. An int|string holding 5
// is written as 5 and reads back as "5".
func Textualize(t *schema.Type, fragment, none string) string {
	switch t.Kind {
	case schema.KindOptional:
		if fragment == "" || fragment == "null" || (none != "" && fragment == none) {
			return "null"
		}
		return Textualize(t.Elem, fragment, none)
	case schema.KindNull:
		if none != "" && fragment == none {
			return "null"
		}
		return EscapeControl(fragment)
	case schema.KindString:
		return quoteString(fragment)
	case schema.KindBool:
		return strings.ToLower(fragment)
	case schema.KindUnion:
		scalar, hasBool := true, false
		for _, m := range t.Members {
			if m.Kind == schema.KindString {
				return quoteString(fragment)
			}
			if m.Kind == schema.KindBool {
				hasBool = true
			}
			if !m.IsScalar() {
				scalar = false
			}
		}
		if scalar && hasBool {
			return strings.ToLower(fragment)
		}
		return EscapeControl(fragment)
	default:
		return EscapeControl(fragment)
	}
}

// EscapeControl escapes control characters that appear literally inside
// JSON string literals of text. Text outside string literals is unchanged.
func EscapeControl(text string) string {
	if !strings.ContainsFunc(text, func(r rune) bool { return r < 0x20 }) {
		return text
	}

	var (
		b        strings.Builder
		inString bool
		escaped  bool
	)
	b.Grow(len(text) + 8)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}
		switch {
		case escaped:
			escaped = false
			b.WriteByte(c)
		case c == '\\':
			escaped = true
			b.WriteByte(c)
		case c == '"':
			inString = false
			b.WriteByte(c)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c < 0x20:
			const hex = "0123456789abcdef"
			b.WriteString(`\u00`)
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xf])
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
