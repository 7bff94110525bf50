// AngelaMos | 2026
// dispatcher.go

package chain

import (
	"context"
	"log/slog"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
)

// Emitter accepts settlement events after their transaction committed.
// Emit never blocks on delivery and never reports delivery failure.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

// Discard drops every event. Used when chain registration is disabled.
type Discard struct{}

func (Discard) Emit(context.Context, Event) {}

type DispatcherOptions struct {
	Workers        int
	QueueSize      int
	MaxRetries     uint64
	PublishTimeout time.Duration
	RetryInterval  time.Duration
}

// Dispatcher hands events to a Sink from a bounded worker pool, retrying
// each publish with exponential backoff. A full queue drops the event.
type Dispatcher struct {
	pool   pond.Pool
	sink   Sink
	opts   DispatcherOptions
	logger *slog.Logger
}

func NewDispatcher(
	sink Sink,
	opts DispatcherOptions,
	logger *slog.Logger,
) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 64
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 5 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 200 * time.Millisecond
	}

	return &Dispatcher{
		pool:   pond.NewPool(opts.Workers, pond.WithQueueSize(opts.QueueSize)),
		sink:   sink,
		opts:   opts,
		logger: logger,
	}
}

func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	ctx = context.WithoutCancel(ctx)

	_, ok := d.pool.TrySubmit(func() {
		d.deliver(ctx, ev)
	})
	if !ok {
		d.logger.WarnContext(ctx, "chain queue full, event dropped",
			"id", ev.ID,
			"kind", ev.Kind,
			"auction_id", ev.AuctionID,
		)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.opts.RetryInterval
	b.MaxElapsedTime = 0

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		pubCtx, cancel := context.WithTimeout(ctx, d.opts.PublishTimeout)
		defer cancel()
		return d.sink.Publish(pubCtx, ev)
	}, backoff.WithMaxRetries(b, d.opts.MaxRetries))

	if err != nil {
		d.logger.ErrorContext(ctx, "chain publish failed",
			"id", ev.ID,
			"kind", ev.Kind,
			"auction_id", ev.AuctionID,
			"attempts", attempt,
			"error", err,
		)
		return
	}

	d.logger.DebugContext(ctx, "chain event published",
		"id", ev.ID,
		"attempts", attempt,
	)
}

// Close waits for queued events to finish, then closes the sink.
func (d *Dispatcher) Close() error {
	d.logger.Info("draining chain dispatcher",
		"waiting", d.pool.WaitingTasks(),
		"completed", d.pool.CompletedTasks(),
	)

	d.pool.StopAndWait()

	return d.sink.Close()
}
