package stream

import (
	"go.uber.org/zap"

	"github.com/ssargent/typeline/pkg/codec"
	"github.com/ssargent/typeline/pkg/row"
)

// DefaultBufferSize is the read and write buffer size used unless
// WithBufferSize overrides it.
const DefaultBufferSize = 64 * 1024

// Option configures a Reader or Writer.
type Option func(*options)

type options struct {
	dialect         row.Dialect
	header          bool
	commentPrefixes []string
	nonePlaceholder string
	encodeHooks     []codec.EncodeHook
	decodeHooks     []codec.DecodeHook
	metrics         *Metrics
	logger          *zap.Logger
	bufferSize      int
	atomic          bool
	factory         Factory
}

func newOptions(opts []Option) (options, error) {
	o := options{
		dialect:    row.CSV,
		header:     true,
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	if o.factory == nil {
		o.factory = NewFileFactory()
	}
	if o.bufferSize < 16 {
		o.bufferSize = 16
	}
	if err := o.dialect.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

func (o options) codecConfig() codec.Config {
	return codec.Config{
		NonePlaceholder: o.nonePlaceholder,
		Hooks: codec.Hooks{
			Encode: chainEncode(o.encodeHooks),
			Decode: chainDecode(o.decodeHooks),
		},
	}
}

func (o options) scannerConfig() row.ScannerConfig {
	return row.ScannerConfig{
		Dialect:         o.dialect,
		CommentPrefixes: o.commentPrefixes,
		BufferSize:      o.bufferSize,
	}
}

func chainEncode(hooks []codec.EncodeHook) codec.EncodeHook {
	if len(hooks) == 0 {
		return nil
	}
	return codec.ChainEncode(hooks...)
}

func chainDecode(hooks []codec.DecodeHook) codec.DecodeHook {
	if len(hooks) == 0 {
		return nil
	}
	return codec.ChainDecode(hooks...)
}

// WithDialect sets the delimiter, quote and terminator. The default is
// row.CSV.
func WithDialect(d row.Dialect) Option {
	return func(o *options) { o.dialect = d }
}

// WithHeader sets whether the stream starts with a header line. Readers
// validate it against the schema; writers emit it from WriteHeader.
// Defaults to true.
func WithHeader(enabled bool) Option {
	return func(o *options) { o.header = enabled }
}

// WithCommentPrefixes makes readers skip lines starting with any of the
// prefixes, and makes writers quote a first field that would otherwise look
// like a comment.
func WithCommentPrefixes(prefixes ...string) Option {
	return func(o *options) { o.commentPrefixes = append(o.commentPrefixes, prefixes...) }
}

// WithNonePlaceholder sets the text written for absent values. Optional
// fields read back as absent when they hold it.
func WithNonePlaceholder(text string) Option {
	return func(o *options) { o.nonePlaceholder = text }
}

// WithEncodeHook adds a per-field encode override. Hooks run after the
// default rule and the first one to report true replaces its result.
func WithEncodeHook(hook codec.EncodeHook) Option {
	return func(o *options) { o.encodeHooks = append(o.encodeHooks, hook) }
}

// WithDecodeHook adds a per-field decode override. Hooks run before the
// default rule; the first one to report true supplies the JSON text for the
// field.
func WithDecodeHook(hook codec.DecodeHook) Option {
	return func(o *options) { o.decodeHooks = append(o.decodeHooks, hook) }
}

// WithMetrics records row counts and errors into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger overrides the package logger for one stream.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBufferSize sets the read and write buffer size.
func WithBufferSize(size int) Option {
	return func(o *options) { o.bufferSize = size }
}

// WithAtomic makes path writers write to a temporary file in the target
// directory and rename it into place on Close. It has no effect on readers
// or on writers over an io.Writer.
func WithAtomic() Option {
	return func(o *options) { o.atomic = true }
}

// WithFactory sets the factory used by OpenReader and CreateWriter to
// open paths. The default is a FileFactory.
func WithFactory(f Factory) Option {
	return func(o *options) { o.factory = f }
}
