package stream

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/ssargent/typeline/pkg/codec"
	"github.com/ssargent/typeline/pkg/errors"
	"github.com/ssargent/typeline/pkg/schema"
)

// rowWriter is the schema-driven core shared by Writer and DynamicWriter.
type rowWriter struct {
	out     *bufio.Writer
	closer  io.Closer
	codec   *codec.Codec
	opts    options
	log     *zap.Logger
	line    []byte
	records int
	closed  bool
}

func newRowWriter(w io.Writer, s *schema.Schema, o options) *rowWriter {
	rw := &rowWriter{
		out:   bufio.NewWriterSize(w, o.bufferSize),
		codec: codec.New(s, o.codecConfig()),
		opts:  o,
		log:   o.logger.With(zap.String("schema", s.Name)),
	}
	if c, ok := w.(io.Closer); ok {
		rw.closer = c
	}
	return rw
}

func createRowWriter(path string, s *schema.Schema, opts []Option) (*rowWriter, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	f, err := o.factory.Create(path, o.atomic)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("created output", zap.String("path", path), zap.Bool("atomic", o.atomic))
	return newRowWriter(f, s, o), nil
}

// writeLine assembles fragments and hands the whole line to the buffer in
// one call.
func (w *rowWriter) writeLine(fragments []string) error {
	w.line = w.opts.dialect.AppendRow(w.line[:0], fragments, w.opts.commentPrefixes...)
	_, err := w.out.Write(w.line)
	return err
}

func (w *rowWriter) writeHeader() error {
	if w.closed {
		return errors.ErrClosed
	}
	return w.writeLine(w.codec.Schema().Header())
}

func (w *rowWriter) write(record any) error {
	if w.closed {
		return errors.ErrClosed
	}
	fragments, err := w.codec.EncodeRecord(record)
	if err != nil {
		w.opts.metrics.recordError(err)
		w.log.Warn("record not written", zap.Int("record", w.records+1), zap.Error(err))
		return err
	}
	if err := w.writeLine(fragments); err != nil {
		return err
	}
	w.records++
	w.opts.metrics.recordWritten(w.codec.Schema().Name)
	return nil
}

func (w *rowWriter) writeComment(text string) error {
	if w.closed {
		return errors.ErrClosed
	}
	if len(w.opts.commentPrefixes) == 0 || w.opts.commentPrefixes[0] == "" {
		return errors.Config("no comment prefix configured")
	}
	if strings.ContainsAny(text, "\r\n") {
		return errors.Config("comment text cannot contain a line break")
	}
	_, err := w.out.WriteString(w.opts.commentPrefixes[0] + text + w.opts.dialect.Terminator)
	return err
}

func (w *rowWriter) flush() error {
	if w.closed {
		return errors.ErrClosed
	}
	return w.out.Flush()
}

func (w *rowWriter) close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.log.Debug("writer closed", zap.Int("records", w.records))

	if err := w.out.Flush(); err != nil {
		if a, ok := w.closer.(aborter); ok {
			a.Abort()
		} else if w.closer != nil {
			w.closer.Close()
		}
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

func (w *rowWriter) abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.log.Debug("writer aborted", zap.Int("records", w.records))

	if a, ok := w.closer.(aborter); ok {
		return a.Abort()
	}
	// Nothing to discard; keep what was written so far.
	if err := w.out.Flush(); err != nil {
		if w.closer != nil {
			w.closer.Close()
		}
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// Writer encodes records of type T as delimited text, one per line.
// A Writer is not safe for concurrent use.
type Writer[T any] struct {
	core *rowWriter
}

// NewWriter creates a writer over w. If w is an io.Closer, Close closes
// it.
func NewWriter[T any](w io.Writer, opts ...Option) (*Writer[T], error) {
	s, err := schema.Of[T]()
	if err != nil {
		return nil, err
	}
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Writer[T]{core: newRowWriter(w, s, o)}, nil
}

// CreateWriter creates path, and any missing parent directories, and a
// writer over it. With WithAtomic the file only appears at path once the
// writer is closed.
func CreateWriter[T any](path string, opts ...Option) (*Writer[T], error) {
	s, err := schema.Of[T]()
	if err != nil {
		return nil, err
	}
	core, err := createRowWriter(path, s, opts)
	if err != nil {
		return nil, err
	}
	return &Writer[T]{core: core}, nil
}

// WriteHeader writes the field names of T. Calling it after records have
// been written is allowed.
func (w *Writer[T]) WriteHeader() error { return w.core.writeHeader() }

// Write encodes one record. A record that fails to encode leaves the
// output untouched.
func (w *Writer[T]) Write(record T) error { return w.core.write(record) }

// WriteComment writes text after the first configured comment prefix.
func (w *Writer[T]) WriteComment(text string) error { return w.core.writeComment(text) }

// Flush writes buffered lines to the underlying writer.
func (w *Writer[T]) Flush() error { return w.core.flush() }

// Records returns the number of records written so far.
func (w *Writer[T]) Records() int { return w.core.records }

// Schema returns the schema derived from T.
func (w *Writer[T]) Schema() *schema.Schema { return w.core.codec.Schema() }

// Close flushes and releases the underlying file or closer. Atomic
// outputs are renamed into place. Close is idempotent.
func (w *Writer[T]) Close() error { return w.core.close() }

// Abort discards an atomic output and closes the writer. For other
// outputs it behaves like Close.
func (w *Writer[T]) Abort() error { return w.core.abort() }

// DynamicWriter encodes *codec.Object values or string-keyed maps for an
// explicitly declared schema.
type DynamicWriter struct {
	core *rowWriter
}

// NewDynamicWriter creates a writer for s over w.
func NewDynamicWriter(w io.Writer, s *schema.Schema, opts ...Option) (*DynamicWriter, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return &DynamicWriter{core: newRowWriter(w, s, o)}, nil
}

// CreateDynamicWriter creates path and a writer for s over it.
func CreateDynamicWriter(path string, s *schema.Schema, opts ...Option) (*DynamicWriter, error) {
	core, err := createRowWriter(path, s, opts)
	if err != nil {
		return nil, err
	}
	return &DynamicWriter{core: core}, nil
}

// WriteHeader writes the schema's field names.
func (w *DynamicWriter) WriteHeader() error { return w.core.writeHeader() }

// Write encodes one *codec.Object or map[string]any record.
func (w *DynamicWriter) Write(record any) error { return w.core.write(record) }

// WriteComment writes text after the first configured comment prefix.
func (w *DynamicWriter) WriteComment(text string) error { return w.core.writeComment(text) }

// Flush writes buffered lines to the underlying writer.
func (w *DynamicWriter) Flush() error { return w.core.flush() }

// Records returns the number of records written so far.
func (w *DynamicWriter) Records() int { return w.core.records }

// Schema returns the writer's schema.
func (w *DynamicWriter) Schema() *schema.Schema { return w.core.codec.Schema() }

// Close flushes and releases the underlying closer.
func (w *DynamicWriter) Close() error { return w.core.close() }

// Abort discards an atomic output and closes the writer.
func (w *DynamicWriter) Abort() error { return w.core.abort() }
