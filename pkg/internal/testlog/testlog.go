// Package testlog constructs loggers that write to the test harness. Each
// call builds a private logger so parallel tests never share or mutate
// global output state.
package testlog

import (
	"io"
	"testing"

	"github.com/basalt-os/shepherd/pkg/logging"
)

// Logger returns a debug-level Logger for the named component writing to t.
func Logger(t testing.TB, component string) logging.Logger {
	factory := logging.NewFactory(
		logging.WithLevel("debug"),
		logging.WithOutput(writer(t)),
	)
	return factory.Component(component)
}

func writer(t testing.TB) io.Writer {
	return &testWriter{t}
}

type testWriter struct {
	t testing.TB
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}
