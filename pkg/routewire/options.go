package routewire

import (
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/toyz/routewire/internal/metadata"
)

const tracerName = "github.com/toyz/routewire"

// Option configures Boot
type Option func(*options)

type options struct {
	reader metadata.Reader
	out    io.Writer
	tracer trace.Tracer
}

func defaultOptions() *options {
	return &options{
		reader: metadata.NewCommentReader(),
		out:    os.Stderr,
		tracer: otel.Tracer(tracerName),
	}
}

// WithReader replaces the doc-comment annotation reader. A reader that also
// lists declarations (metadata.StaticReader) can drive a boot without Paths.
func WithReader(r metadata.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.reader = r
		}
	}
}

// WithOutput sets where warnings and verbose progress are written
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithTracer sets the tracer boot spans are recorded with. The default is
// the global otel provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}
