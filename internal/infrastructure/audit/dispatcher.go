// Package audit provides asynchronous, best-effort delivery of audit trail
// entries. Recording never blocks and never fails the calling operation: a
// full buffer drops the entry with a local warning and a metric bump rather
// than back-pressuring authentication.
package audit

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
	"github.com/cloudkenya/hostpanel/internal/core/ports"
	"github.com/cloudkenya/hostpanel/internal/pkg/metrics"
)

const (
	defaultWorkers = 2
	defaultBuffer  = 256
)

// Dispatcher fans audit entries out to a fixed pool of workers writing to
// the durable activity store.
type Dispatcher struct {
	repo ports.ActivityRepository
	log  zerolog.Logger

	ch        chan domain.Activity
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewDispatcher creates a Dispatcher with numWorkers workers and a buffered
// queue of the given size. Zero or negative arguments fall back to defaults.
func NewDispatcher(repo ports.ActivityRepository, numWorkers, buffer int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	d := &Dispatcher{
		repo: repo,
		log:  log,
		ch:   make(chan domain.Activity, buffer),
		done: make(chan struct{}),
	}

	d.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go d.runWorker()
	}
	return d
}

// Record enqueues an entry without blocking. When the buffer is full or the
// dispatcher is already closed the entry is logged locally, counted, and
// dropped; losing an audit line must never cost a login.
func (d *Dispatcher) Record(activity domain.Activity) {
	select {
	case <-d.done:
		d.drop(activity, "audit dispatcher closed, entry dropped")
		return
	default:
	}

	select {
	case d.ch <- activity:
	default:
		d.drop(activity, "audit buffer full, entry dropped")
	}
}

func (d *Dispatcher) drop(activity domain.Activity, msg string) {
	metrics.AuditEventsDroppedTotal.Inc()
	d.log.Warn().
		Str("user_id", activity.UserID).
		Str("action", activity.Action).
		Msg(msg)
}

func (d *Dispatcher) runWorker() {
	defer d.wg.Done()

	for {
		select {
		case activity := <-d.ch:
			d.write(activity)
		case <-d.done:
			// Drain whatever is already queued, then exit.
			for {
				select {
				case activity := <-d.ch:
					d.write(activity)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) write(activity domain.Activity) {
	if err := d.repo.Insert(context.Background(), &activity); err != nil {
		// Sink failure falls back to the process log so the event is not
		// lost entirely.
		d.log.Warn().Err(err).
			Str("user_id", activity.UserID).
			Str("action", activity.Action).
			Str("category", string(activity.Category)).
			Str("status", string(activity.Status)).
			Msg("audit sink write failed")
	}
}

// Close stops the workers after draining queued entries. Safe to call more
// than once.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.done)
	})
	d.wg.Wait()
}
