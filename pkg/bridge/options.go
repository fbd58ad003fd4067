package bridge

import (
	"log/slog"

	"github.com/vango-dev/renderbridge/pkg/protocol"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the logger. Default: slog.Default().With("component", "bridge").
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithErrorHandler sets the collaborator that receives isolated failures.
// Without one, failures are only logged.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *Channel) {
		c.errors = h
	}
}

// WithMetrics records channel activity into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Channel) {
		c.metrics = m
	}
}

// WithTracer sets the tracer. Default: the global provider's "renderbridge" tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Channel) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithLimits sets the codec limits.
func WithLimits(l protocol.Limits) Option {
	return func(c *Channel) {
		c.limits = l
	}
}

// WithPixelConverter sets the host pixel to logical unit conversion used by
// SizeChanged. Default: identity.
func WithPixelConverter(p PixelConverter) Option {
	return func(c *Channel) {
		if p != nil {
			c.pixels = p
		}
	}
}
