// Package di provides dependency injection container
package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssargent/typeline/pkg/stream"
	"go.uber.org/zap"
)

// Container holds all the dependencies for the application
type Container struct {
	streamFactory stream.Factory
	logger        *zap.Logger
	registry      *prometheus.Registry
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		streamFactory: stream.NewFileFactory(),
		logger:        zap.NewNop(),
	}
}

// GetStreamFactory returns the factory used to open inputs and create outputs
func (c *Container) GetStreamFactory() stream.Factory {
	return c.streamFactory
}

// SetStreamFactory allows overriding the stream factory (for testing)
func (c *Container) SetStreamFactory(factory stream.Factory) {
	c.streamFactory = factory
}

// GetLogger returns the application logger
func (c *Container) GetLogger() *zap.Logger {
	return c.logger
}

// SetLogger replaces the application logger and hands it to the stream package
func (c *Container) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
	stream.SetLogger(logger)
}

// GetMetricsRegistry returns the registry row metrics are collected into,
// creating it on first use.
func (c *Container) GetMetricsRegistry() *prometheus.Registry {
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}
	return c.registry
}
