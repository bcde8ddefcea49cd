// Package notify sends best-effort push notifications about new chat
// entries through the document store server.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/logging"
)

const DefaultTimeout = 10 * time.Second

// Pusher is the server side of notifications; *store.GRPCClient
// implements it.
type Pusher interface {
	Notify(ctx context.Context, author, body string) (int, error)
}

// Dispatcher fires notifications in the background. Failures are logged
// and never reach the sender.
type Dispatcher struct {
	pusher  Pusher
	timeout time.Duration
	logger  logging.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(p Pusher, timeout time.Duration, l logging.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{pusher: p, timeout: timeout, logger: l.With("module", "notify")}
}

// Notify returns immediately. The delivery is detached from ctx
// cancellation so a send that completes does not take its notification
// down with it.
func (d *Dispatcher) Notify(ctx context.Context, author, message string) {
	if d == nil || d.pusher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()

		n, err := d.pusher.Notify(ctx, author, message)
		if err != nil {
			d.logger.Warn(ctx, "push notification failed", "error", err)
			return
		}
		d.logger.Debug(ctx, "push notification sent", "endpoints", n)
	}()
}

// Wait blocks until in-flight notifications finish.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}
