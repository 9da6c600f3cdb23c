package row

import (
	"bufio"
	"io"
	"strings"

	"github.com/ssargent/typeline/pkg/errors"
)

// Record is one logical line split into fragments.
type Record struct {
	Line   int    // 1-based physical line the record starts on
	Text   string // logical line without terminator
	Fields []string
}

// ScannerConfig holds configuration for a Scanner
type ScannerConfig struct {
	Dialect         Dialect
	CommentPrefixes []string // lines starting with one of these are skipped
	BufferSize      int      // read buffer size, 0 for the bufio default
}

// Scanner reads logical records from delimited text. A logical record
// spans several physical lines when a quoted field contains a line break.
// Blank lines and comment lines are skipped wherever they appear.
type Scanner struct {
	reader  *bufio.Reader
	config  ScannerConfig
	line    int
	skipped int
	err     error
}

// NewScanner creates a scanner reading from r.
func NewScanner(r io.Reader, config ScannerConfig) *Scanner {
	br, ok := r.(*bufio.Reader)
	if !ok {
		if config.BufferSize > 0 {
			br = bufio.NewReaderSize(r, config.BufferSize)
		} else {
			br = bufio.NewReader(r)
		}
	}
	return &Scanner{reader: br, config: config}
}

// Next returns the next record. It returns io.EOF when the input is
// exhausted. A line that cannot be tokenized is consumed and reported as an
// error carrying its line number, so the caller may continue with the next
// record.
func (s *Scanner) Next() (Record, error) {
	for {
		text, start, err := s.logicalLine()
		if err != nil {
			return Record{}, err
		}
		if text == skipMarker {
			continue
		}

		fields, err := s.config.Dialect.Split(text)
		if err != nil {
			return Record{Line: start, Text: text}, errors.AtLine(err, start, text)
		}
		return Record{Line: start, Text: text, Fields: fields}, nil
	}
}

// Line returns the number of physical lines consumed so far.
func (s *Scanner) Line() int { return s.line }

// Skipped returns the number of blank and comment lines skipped so far.
func (s *Scanner) Skipped() int { return s.skipped }

// skipMarker cannot be produced by a real line because lines never contain
// their own terminator.
const skipMarker = "\n"

func (s *Scanner) logicalLine() (string, int, error) {
	if s.err != nil {
		return "", 0, s.err
	}

	first, term, err := s.physicalLine()
	if err != nil {
		return "", 0, err
	}
	start := s.line

	if Skippable(first, s.config.CommentPrefixes) {
		s.skipped++
		return skipMarker, start, nil
	}

	var b strings.Builder
	b.WriteString(first)
	for s.config.Dialect.openQuote(b.String()) {
		next, nextTerm, err := s.physicalLine()
		if err == io.EOF {
			// unterminated quote; Split reports it
			break
		}
		if err != nil {
			return "", 0, err
		}
		b.WriteString(term)
		b.WriteString(next)
		term = nextTerm
	}
	return b.String(), start, nil
}

// physicalLine reads one line and splits off its terminator ("\n", "\r\n"
// or "" at EOF). Records spanning lines keep the terminators between their
// lines verbatim.
func (s *Scanner) physicalLine() (text, term string, err error) {
	text, err = s.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		s.err = err
		return "", "", err
	}
	if text == "" && err == io.EOF {
		s.err = io.EOF
		return "", "", io.EOF
	}
	s.line++
	if body, ok := strings.CutSuffix(text, "\r\n"); ok {
		return body, "\r\n", nil
	}
	if body, ok := strings.CutSuffix(text, "\n"); ok {
		return body, "\n", nil
	}
	return text, "", nil
}
