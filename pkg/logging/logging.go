package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// ComponentField names the top-level component a log entry belongs to.
const ComponentField = "component"

// SubComponentField names a worker within a component.
const SubComponentField = "sub-component"

// Logger is the handle components receive at construction. There is no
// process-global logger to mutate; tests construct their own Factory with
// output routed to the test harness.
type Logger interface {
	logrus.FieldLogger

	Writer() *io.PipeWriter
	WriterLevel(logrus.Level) *io.PipeWriter
}

// Factory owns a configured root logger and derives component-scoped
// Loggers from it.
type Factory struct {
	root *logrus.Logger
}

// Option configures the Factory's root logger.
type Option func(*logrus.Logger)

// WithLevel sets the root logger's level from a level name. An unparsable
// name falls back to debug so misconfiguration yields more output, not
// less.
func WithLevel(level string) Option {
	return func(l *logrus.Logger) {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			l.WithError(err).Errorf("unable to parse provided level %q", level)
			parsed = logrus.DebugLevel
		}
		l.SetLevel(parsed)
	}
}

// WithOutput directs the root logger's output.
func WithOutput(w io.Writer) Option {
	return func(l *logrus.Logger) {
		l.SetOutput(w)
	}
}

// NewFactory constructs a Factory writing to stderr with full timestamps.
func NewFactory(opts ...Option) *Factory {
	root := logrus.New()
	root.SetOutput(os.Stderr)
	root.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	for _, opt := range opts {
		opt(root)
	}
	return &Factory{root: root}
}

// Component derives a Logger scoped to the named component.
func (f *Factory) Component(name string) Logger {
	return f.root.WithField(ComponentField, name)
}
