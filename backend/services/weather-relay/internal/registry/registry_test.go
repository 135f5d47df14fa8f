package registry

import (
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"
)

type fakeSubscriber struct {
	id     string
	mu     sync.Mutex
	closed bool
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send([]byte) error { return nil }

func (f *fakeSubscriber) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSubscriber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestRegistryAddRemoveIdempotent(t *testing.T) {
	r := New(zaptest.NewLogger(t))
	a := &fakeSubscriber{id: "a"}

	if !r.Add(a) {
		t.Fatalf("expected first add to insert")
	}
	if r.Add(a) {
		t.Fatalf("expected duplicate add to be a no-op")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 member, got %d", r.Len())
	}
	if !r.Remove("a") {
		t.Fatalf("expected remove to delete")
	}
	if r.Remove("a") {
		t.Fatalf("expected second remove to be a no-op")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistrySnapshotIsPointInTime(t *testing.T) {
	r := New(zaptest.NewLogger(t))
	r.Add(&fakeSubscriber{id: "a"})
	r.Add(&fakeSubscriber{id: "b"})

	snap := r.Snapshot()
	r.Remove("a")
	r.Add(&fakeSubscriber{id: "c"})

	if len(snap) != 2 {
		t.Fatalf("snapshot changed after mutation: %d members", len(snap))
	}
	ids := map[string]bool{}
	for _, s := range snap {
		ids[s.ID()] = true
	}
	if !ids["a"] || !ids["b"] || ids["c"] {
		t.Fatalf("unexpected snapshot members %v", ids)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := New(zaptest.NewLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("sub-%d", i)
			r.Add(&fakeSubscriber{id: id})
			for _, s := range r.Snapshot() {
				if s == nil {
					t.Errorf("snapshot returned nil member")
				}
			}
			if i%2 == 0 {
				r.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	if r.Len() != 25 {
		t.Fatalf("expected 25 members, got %d", r.Len())
	}
}

func TestRegistryCloseClosesMembersAndRejectsNewOnes(t *testing.T) {
	r := New(zaptest.NewLogger(t))
	a := &fakeSubscriber{id: "a"}
	b := &fakeSubscriber{id: "b"}
	r.Add(a)
	r.Add(b)

	r.Close()

	if !a.isClosed() || !b.isClosed() {
		t.Fatalf("expected members to be closed")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry after close")
	}

	late := &fakeSubscriber{id: "late"}
	if r.Add(late) {
		t.Fatalf("expected add after close to be rejected")
	}
	if !late.isClosed() {
		t.Fatalf("expected rejected subscriber to be closed")
	}
}
