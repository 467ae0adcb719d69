// Package interrupt turns the first SIGINT or SIGTERM into context
// cancellation. The handler is removed as soon as the context is done, so a
// second signal gets the default behaviour and terminates the process.
package interrupt

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext returns a copy of parent that is cancelled by the first
// interrupt. The returned stop releases the handler early and is safe to
// call more than once.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	context.AfterFunc(ctx, stop)
	return ctx, stop
}
