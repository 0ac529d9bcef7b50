// Package sigcontext bridges OS termination signals into context
// cancellation. The forwarding task owns the signal subscription and an
// atomic guard makes the trigger effective at most once, no matter how many
// signals arrive or how many callers cancel concurrently.
package sigcontext

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
)

// WithSignalCancel derives a context that cancels itself when one of the
// provided signals is delivered to the process. The returned cancel is
// responsible for freeing the signal subscription and must be called. Once
// the derived context is Done the runtime's default signal handling is
// restored (a second SIGINT terminates the process).
func WithSignalCancel(ctx context.Context, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	sigctx, ctxcancel := context.WithCancel(ctx)

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, sigs...)

	var triggered int32
	trigger := func() {
		if !atomic.CompareAndSwapInt32(&triggered, 0, 1) {
			return
		}
		signal.Stop(sigchan)
		ctxcancel()
	}

	// The forwarding task is the sole owner of the subscription; it exits
	// once the trigger fires from either direction.
	go func() {
		select {
		case <-sigctx.Done():
		case <-sigchan:
		}
		trigger()
	}()

	return sigctx, trigger
}
