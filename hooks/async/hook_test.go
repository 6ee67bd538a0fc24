package asynchook

import (
	"sync"
	"testing"

	"github.com/unkn0wn-root/ddbsession"
)

type recorder struct {
	mu     sync.Mutex
	events []string
	block  chan struct{}
}

var _ ddbsession.Hooks = (*recorder)(nil)

func (r *recorder) add(e string) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) RecordCreated(ns string)                    { r.add("created:" + ns) }
func (r *recorder) Flushed(ns string, _ []string)              { r.add("flushed:" + ns) }
func (r *recorder) ConflictSuppressed(ns string, _ []string)   { r.add("suppressed:" + ns) }
func (r *recorder) ConflictRaised(ns string, changed []string) { r.add("raised:" + ns + ":" + changed[0]) }
func (r *recorder) Removed(ns string)                          { r.add("removed:" + ns) }

func TestDeliversAndDrains(t *testing.T) {
	rec := &recorder{}
	h := New(rec, 1, 16)

	changed := []string{"cart"}
	h.RecordCreated("a")
	h.Flushed("a", changed)
	h.ConflictSuppressed("a", changed)
	h.ConflictRaised("a", changed)
	changed[0] = "mutated"
	h.Removed("a")
	h.Close()

	want := []string{"created:a", "flushed:a", "suppressed:a", "raised:a:cart", "removed:a"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v", rec.events)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("event %d = %q, want %q", i, rec.events[i], want[i])
		}
	}
}

func TestDropsWhenFullOrClosed(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	h := New(rec, 1, 1)

	// one event parks the worker, one fills the queue, the rest drop
	for i := 0; i < 5; i++ {
		h.Removed("x")
	}
	if h.Dropped() < 3 {
		t.Fatalf("dropped = %d, want >= 3", h.Dropped())
	}
	close(rec.block)
	h.Close()
	before := h.Dropped()
	h.Removed("late")
	if h.Dropped() != before+1 {
		t.Fatalf("event after Close was not dropped")
	}
}
