package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"spendtrack/internal/log"
)

// Publisher delivers activity messages somewhere.
type Publisher interface {
	Publish(ctx context.Context, msg ActivityMessage) error
	Close() error
}

// Noop discards messages. It is used when AMQP_URL is not set.
type Noop struct{}

func (Noop) Publish(context.Context, ActivityMessage) error { return nil }
func (Noop) Close() error                                   { return nil }

// Dispatcher hands messages to a Publisher on a background goroutine so
// request handlers never wait on the broker. Messages are dropped when the
// buffer is full.
type Dispatcher struct {
	pub     Publisher
	logger  *log.Logger
	queue   chan ActivityMessage
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	failed  atomic.Int64
}

func NewDispatcher(pub Publisher, buffer int, logger *log.Logger) *Dispatcher {
	if buffer < 1 {
		buffer = 64
	}
	d := &Dispatcher{
		pub:    pub,
		logger: logger.WithComponent(log.ComponentEvents),
		queue:  make(chan ActivityMessage, buffer),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Emit queues msg without blocking.
func (d *Dispatcher) Emit(msg ActivityMessage) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- msg:
	default:
		d.dropped.Add(1)
		d.logger.Warn("Activity queue full, dropping message", log.FieldResource, string(msg.Resource), log.FieldResourceID, msg.ID)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout+time.Second)
		if err := d.pub.Publish(ctx, msg); err != nil {
			d.failed.Add(1)
			d.logger.Warn("Failed to publish activity message",
				log.FieldError, err.Error(),
				log.FieldResource, string(msg.Resource),
				log.FieldResourceID, msg.ID)
		}
		cancel()
	}
}

// Close drains queued messages, waiting at most until ctx is done, then
// closes the publisher.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	select {
	case <-d.done:
	case <-ctx.Done():
	}
	return d.pub.Close()
}

// Stats reports dropped and failed messages.
func (d *Dispatcher) Stats() (dropped, failed int64) {
	return d.dropped.Load(), d.failed.Load()
}
