// Package row turns fragment lists into delimited lines and back.
//
// A Dialect fixes the delimiter, quote character and line terminator. The
// built-in CSV and TSV dialects quote with a single quote:
//
//	1	'my	name'	0.2
//
// Assemble quotes a fragment only when it contains the delimiter, the quote
// character or a line break. Scanner reads logical records, joining
// physical lines while a quoted field is open, and skips blank lines and
// comment lines anywhere in the input, the header included.
package row
