package learner

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type Option func(*Learner)

// WithLogger sets the logger for run progress. Without it nothing is logged.
func WithLogger(log *slog.Logger) Option {
	return func(l *Learner) {
		if log != nil {
			l.log = log
		}
	}
}

// WithTracer sets the tracer partition spans are started on. The global otel tracer is
// used otherwise.
func WithTracer(tr trace.Tracer) Option {
	return func(l *Learner) {
		if tr != nil {
			l.tracer = tr
		}
	}
}
