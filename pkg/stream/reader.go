package stream

import (
	"io"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/ssargent/typeline/pkg/codec"
	"github.com/ssargent/typeline/pkg/errors"
	"github.com/ssargent/typeline/pkg/row"
	"github.com/ssargent/typeline/pkg/schema"
)

// rowReader is the schema-driven core shared by Reader and DynamicReader.
type rowReader struct {
	scanner *row.Scanner
	codec   *codec.Codec
	order   []int
	closer  io.Closer
	opts    options
	log     *zap.Logger
	records int
	skipped int
	started time.Time
	err     error // sticky I/O error
	closed  bool
}

func newRowReader(r io.Reader, s *schema.Schema, opts []Option) (*rowReader, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := s.CheckDecodable(); err != nil {
		return nil, err
	}

	rr := &rowReader{
		scanner: row.NewScanner(r, o.scannerConfig()),
		codec:   codec.New(s, o.codecConfig()),
		opts:    o,
		log:     o.logger.With(zap.String("schema", s.Name)),
	}
	if c, ok := r.(io.Closer); ok {
		rr.closer = c
	}

	if o.header {
		if err := rr.readHeader(); err != nil {
			return nil, err
		}
	}
	return rr, nil
}

// readHeader validates the first logical line against the schema. An input
// with no lines at all has nothing to validate and reads as empty.
func (r *rowReader) readHeader() error {
	rec, err := r.scanner.Next()
	r.countSkipped()
	if err == io.EOF {
		r.log.Debug("empty input, no header to validate")
		return nil
	}
	if err != nil {
		return errors.Annotate(err, func(b *errors.Builder) { b.Phase(errors.PhaseHeader) })
	}

	order, err := row.ValidateHeader(rec.Fields, r.codec.Schema())
	if err != nil {
		r.opts.metrics.recordError(err)
		return errors.AtLine(err, rec.Line, rec.Text)
	}
	r.order = order
	r.log.Debug("header validated",
		zap.Int("line", rec.Line),
		zap.Bool("reordered", order != nil),
	)
	return nil
}

// next scans and decodes the next row into a normalized object.
func (r *rowReader) next() (*codec.Object, row.Record, error) {
	if r.closed {
		return nil, row.Record{}, errors.ErrClosed
	}
	if r.err != nil {
		return nil, row.Record{}, r.err
	}

	rec, err := r.scanner.Next()
	r.countSkipped()
	if err == io.EOF {
		return nil, rec, io.EOF
	}
	if err != nil {
		var e *errors.Error
		if !errors.As(err, &e) {
			r.err = err
			return nil, rec, err
		}
		return nil, rec, r.fail(err)
	}

	r.started = time.Now()
	fields := row.Realign(rec.Fields, r.order)
	obj, err := r.codec.DecodeRow(fields)
	if err != nil {
		return nil, rec, r.fail(errors.AtLine(err, rec.Line, rec.Text))
	}
	return obj, rec, nil
}

// accept counts a record handed to the caller.
func (r *rowReader) accept() {
	r.records++
	r.opts.metrics.recordRead(r.codec.Schema().Name, r.started)
}

func (r *rowReader) fail(err error) error {
	r.opts.metrics.recordError(err)
	r.log.Warn("skipping undecodable row", zap.Error(err))
	return err
}

func (r *rowReader) countSkipped() {
	n := r.scanner.Skipped()
	if n > r.skipped {
		r.opts.metrics.recordSkipped(r.codec.Schema().Name, n-r.skipped)
		r.log.Debug("skipped blank or comment lines", zap.Int("count", n-r.skipped))
		r.skipped = n
	}
}

// fatal reports whether reading cannot continue past the last error.
func (r *rowReader) fatal() bool {
	return r.closed || r.err != nil
}

func (r *rowReader) close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.log.Debug("reader closed",
		zap.Int("records", r.records),
		zap.Int("lines", r.scanner.Line()),
	)
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Reader decodes records of type T from delimited text, one per line.
// A Reader is not safe for concurrent use.
type Reader[T any] struct {
	core *rowReader
}

// NewReader creates a reader over r. The schema is derived from T, and
// when a header is expected it is read and validated before NewReader
// returns. If r is an io.Closer, Close closes it.
func NewReader[T any](r io.Reader, opts ...Option) (*Reader[T], error) {
	s, err := schema.Of[T]()
	if err != nil {
		return nil, err
	}
	core, err := newRowReader(r, s, opts)
	if err != nil {
		return nil, err
	}
	return &Reader[T]{core: core}, nil
}

// OpenReader opens path and creates a reader over it. The file is closed
// if construction fails.
func OpenReader[T any](path string, opts ...Option) (*Reader[T], error) {
	f, err := openPath(path, opts)
	if err != nil {
		return nil, err
	}
	r, err := NewReader[T](f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Read returns the next record, or io.EOF once the input is exhausted.
// A row that fails to decode is consumed and its error returned, so the
// caller may skip it by calling Read again. No partial record is returned
// with an error.
func (r *Reader[T]) Read() (T, error) {
	var zero T
	obj, rec, err := r.core.next()
	if err != nil {
		return zero, err
	}

	var out T
	if err := r.core.codec.Materialize(obj, &out); err != nil {
		return zero, r.core.fail(errors.AtLine(err, rec.Line, rec.Text))
	}
	r.core.accept()
	return out, nil
}

// All returns the remaining records as a one-pass sequence. Row errors are
// yielded and iteration continues unless the consumer stops; I/O errors
// end the sequence after being yielded.
func (r *Reader[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			rec, err := r.Read()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) || (err != nil && r.core.fatal()) {
				return
			}
		}
	}
}

// Iterator returns a streaming iterator that stops at the first error.
func (r *Reader[T]) Iterator() *Iterator[T] {
	return &Iterator[T]{read: r.Read}
}

// Line returns the number of physical lines consumed so far.
func (r *Reader[T]) Line() int { return r.core.scanner.Line() }

// Records returns the number of records decoded so far.
func (r *Reader[T]) Records() int { return r.core.records }

// Schema returns the schema derived from T.
func (r *Reader[T]) Schema() *schema.Schema { return r.core.codec.Schema() }

// Close releases the underlying file or closer. It is safe to call more
// than once; Read returns errors.ErrClosed afterwards.
func (r *Reader[T]) Close() error { return r.core.close() }

// DynamicReader decodes rows of an explicitly declared schema into
// *codec.Object values.
type DynamicReader struct {
	core *rowReader
}

// NewDynamicReader creates a reader for s over r.
func NewDynamicReader(r io.Reader, s *schema.Schema, opts ...Option) (*DynamicReader, error) {
	core, err := newRowReader(r, s, opts)
	if err != nil {
		return nil, err
	}
	return &DynamicReader{core: core}, nil
}

// Read returns the next record as an object in schema field order.
func (r *DynamicReader) Read() (*codec.Object, error) {
	obj, _, err := r.core.next()
	if err != nil {
		return nil, err
	}
	r.core.accept()
	return obj, nil
}

// All returns the remaining records as a one-pass sequence.
func (r *DynamicReader) All() iter.Seq2[*codec.Object, error] {
	return func(yield func(*codec.Object, error) bool) {
		for {
			obj, err := r.Read()
			if err == io.EOF {
				return
			}
			if !yield(obj, err) || (err != nil && r.core.fatal()) {
				return
			}
		}
	}
}

// Line returns the number of physical lines consumed so far.
func (r *DynamicReader) Line() int { return r.core.scanner.Line() }

// Records returns the number of records decoded so far.
func (r *DynamicReader) Records() int { return r.core.records }

// Schema returns the reader's schema.
func (r *DynamicReader) Schema() *schema.Schema { return r.core.codec.Schema() }

// Close releases the underlying closer.
func (r *DynamicReader) Close() error { return r.core.close() }

// Iterator provides pull-style access to a Reader.
type Iterator[T any] struct {
	read   func() (T, error)
	record T
	err    error
}

// Next advances to the next record. It returns false at the end of the
// input or on the first error.
func (it *Iterator[T]) Next() bool {
	if it.err != nil {
		return false
	}
	it.record, it.err = it.read()
	return it.err == nil
}

// Record returns the current record.
func (it *Iterator[T]) Record() T {
	return it.record
}

// Err returns the error that stopped iteration, or nil at a clean end.
func (it *Iterator[T]) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}

// Close stops iteration. It does not close the reader, which is owned by
// the caller.
func (it *Iterator[T]) Close() error {
	if it.err == nil {
		it.err = io.EOF
	}
	return nil
}

func openPath(path string, opts []Option) (io.ReadCloser, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	f, err := o.factory.Open(path)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("opened input", zap.String("path", path))
	return f, nil
}
