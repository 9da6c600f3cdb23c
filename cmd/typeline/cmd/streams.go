/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/ssargent/typeline/pkg/config"
	"github.com/ssargent/typeline/pkg/schema"
	"github.com/ssargent/typeline/pkg/stream"
)

// streamOptions combines the configured format with the container's
// factory and logger. extra options are applied last.
func streamOptions(cfg *config.Config, extra ...stream.Option) ([]stream.Option, error) {
	opts, err := stream.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		stream.WithFactory(container.GetStreamFactory()),
		stream.WithLogger(container.GetLogger()),
	)
	return append(opts, extra...), nil
}

// openDynamic opens path through the container's factory and reads it with s.
func openDynamic(path string, s *schema.Schema, opts []stream.Option) (*stream.DynamicReader, error) {
	in, err := container.GetStreamFactory().Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	r, err := stream.NewDynamicReader(in, s, opts...)
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

var (
	metrics         *stream.Metrics
	metricsRegistry *prometheus.Registry
)

// rowMetrics returns collectors registered with the container's registry,
// creating them once per registry.
func rowMetrics() *stream.Metrics {
	reg := container.GetMetricsRegistry()
	if metrics == nil || metricsRegistry != reg {
		metrics = stream.NewMetrics(reg)
		metricsRegistry = reg
	}
	return metrics
}

// printMetrics writes every family gathered by reg in the Prometheus text
// format.
func printMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return nil
}
