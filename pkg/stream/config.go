package stream

import (
	"github.com/ssargent/typeline/pkg/config"
)

// FromConfig maps the format and output sections of a configuration onto
// options. Metrics and loggers are left to the caller.
func FromConfig(cfg *config.Config) ([]Option, error) {
	dialect, err := cfg.Dialect()
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithDialect(dialect),
		WithHeader(cfg.Format.Header),
		WithNonePlaceholder(cfg.Format.NonePlaceholder),
	}
	if len(cfg.Format.CommentPrefixes) > 0 {
		opts = append(opts, WithCommentPrefixes(cfg.Format.CommentPrefixes...))
	}
	if cfg.Output.Atomic {
		opts = append(opts, WithAtomic())
	}
	return opts, nil
}
