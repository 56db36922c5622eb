package audit

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
	"github.com/cloudkenya/hostpanel/internal/pkg/metrics"
)

type recordingRepo struct {
	mu       sync.Mutex
	entries  []domain.Activity
	attempts int
	err      error
}

func (r *recordingRepo) Insert(_ context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, *activity)
	return nil
}

func (r *recordingRepo) List(context.Context, string, domain.ActivityFilter) ([]domain.Activity, error) {
	return nil, nil
}

func (r *recordingRepo) Stats(context.Context, string) ([]domain.CategoryStat, error) {
	return nil, nil
}

func (r *recordingRepo) Clear(context.Context, string) error { return nil }

func (r *recordingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func TestDispatcher_DeliversEntries(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(repo, 2, 16, zerolog.Nop())

	for i := 0; i < 10; i++ {
		d.Record(domain.Activity{
			UserID: "acc_1",
			Action: "event " + strconv.Itoa(i),
		})
	}
	d.Close()

	if got := repo.count(); got != 10 {
		t.Fatalf("delivered %d entries, want 10", got)
	}
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	repo := &recordingRepo{}
	// Single worker with a deep buffer so entries pile up before Close.
	d := NewDispatcher(repo, 1, 64, zerolog.Nop())

	for i := 0; i < 50; i++ {
		d.Record(domain.Activity{UserID: "acc_1", Action: "queued"})
	}
	d.Close()

	if got := repo.count(); got != 50 {
		t.Fatalf("drained %d entries, want 50", got)
	}
}

func TestDispatcher_RecordNeverBlocks(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(repo, 1, 1, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		// Far more entries than the buffer holds; extras are dropped, not
		// queued behind a blocked send.
		for i := 0; i < 1000; i++ {
			d.Record(domain.Activity{UserID: "acc_1", Action: "burst"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Record blocked on a full buffer")
	}
	d.Close()
}

func TestDispatcher_RecordAfterClose(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(repo, 1, 4, zerolog.Nop())
	d.Close()
	d.Close()

	droppedBefore := testutil.ToFloat64(metrics.AuditEventsDroppedTotal)

	// Workers are gone, but recording must still return without blocking,
	// and every late entry counts as dropped.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			d.Record(domain.Activity{UserID: "acc_1", Action: "late"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Record blocked after Close")
	}

	if got := repo.count(); got != 0 {
		t.Fatalf("%d entries delivered after Close", got)
	}
	if dropped := testutil.ToFloat64(metrics.AuditEventsDroppedTotal) - droppedBefore; dropped != 100 {
		t.Fatalf("dropped counter moved by %v, want 100", dropped)
	}
}

func TestDispatcher_SinkFailureDoesNotStopWorkers(t *testing.T) {
	repo := &recordingRepo{err: errors.New("store down")}
	d := NewDispatcher(repo, 1, 8, zerolog.Nop())

	d.Record(domain.Activity{UserID: "acc_1", Action: "lost"})

	deadline := time.Now().Add(5 * time.Second)
	for {
		repo.mu.Lock()
		attempted := repo.attempts > 0
		repo.mu.Unlock()
		if attempted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("failing entry never reached the sink")
		}
		time.Sleep(time.Millisecond)
	}

	repo.mu.Lock()
	repo.err = nil
	repo.mu.Unlock()

	d.Record(domain.Activity{UserID: "acc_1", Action: "kept"})
	d.Close()

	if got := repo.count(); got != 1 {
		t.Fatalf("delivered %d entries after recovery, want 1", got)
	}
}

func TestDispatcher_DefaultsApplied(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(repo, 0, -1, zerolog.Nop())

	d.Record(domain.Activity{UserID: "acc_1", Action: "ok"})
	d.Close()

	if got := repo.count(); got != 1 {
		t.Fatalf("delivered %d entries, want 1", got)
	}
}
