package subscription

import (
	"slices"
	"sync"
	"testing"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	if !r.AddPending("xcom.11.3023") {
		t.Fatal("AddPending() = false for a new id")
	}
	if r.AddPending("xcom.11.3023") {
		t.Error("AddPending() = true for a duplicate id")
	}
	if r.Update("xcom.11.3023", wire.Number(1)) {
		t.Error("update delivered for a pending entry")
	}

	if !r.Confirm("xcom.11.3023", wire.StatusSuccess) {
		t.Fatal("Confirm(Success) = false")
	}
	if !r.Update("xcom.11.3023", wire.Number(42.5)) {
		t.Fatal("update not delivered for an active entry")
	}

	e, ok := r.Lookup("xcom.11.3023")
	if !ok || e.State != StateActive || e.Updates != 1 || !e.LastValue.Equal(wire.Number(42.5)) {
		t.Errorf("Lookup() = %+v, %v", e, ok)
	}

	if !r.Remove("xcom.11.3023") {
		t.Error("Remove() = false for a present entry")
	}
	if r.IsActive("xcom.11.3023") || r.Len() != 0 {
		t.Error("entry survived Remove()")
	}
}

func TestRegistryConfirmFailureDropsEntry(t *testing.T) {
	tests := []wire.Status{wire.StatusNoProperty, wire.StatusNoDeviceAccess, wire.StatusError}
	for _, status := range tests {
		t.Run(status.String(), func(t *testing.T) {
			r := NewRegistry()
			r.AddPending("a.b.c")
			if r.Confirm("a.b.c", status) {
				t.Error("Confirm() = true for a failed subscribe")
			}
			if _, ok := r.Lookup("a.b.c"); ok {
				t.Error("failed subscribe left an entry")
			}
		})
	}
}

func TestRegistryUnknownUpdateIgnored(t *testing.T) {
	r := NewRegistry()
	if r.Update("nobody.asked.for", wire.Bool(true)) {
		t.Error("update delivered for unknown id")
	}
}

func TestRegistryActiveAndClear(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"b.1.1", "a.1.1", "c.1.1"} {
		r.AddPending(id)
	}
	r.Confirm("b.1.1", wire.StatusSuccess)
	r.Confirm("a.1.1", wire.StatusSuccess)

	if got := r.Active(); !slices.Equal(got, []string{"a.1.1", "b.1.1"}) {
		t.Errorf("Active() = %v", got)
	}
	if n := r.Clear(); n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if r.Len() != 0 {
		t.Error("Clear() left entries")
	}
}

func TestRegistryConcurrentUse(t *testing.T) {
	r := NewRegistry()
	r.AddPending("x")
	r.Confirm("x", wire.StatusSuccess)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Update("x", wire.Number(float64(j)))
				_ = r.Active()
			}
		}()
	}
	wg.Wait()

	if e, _ := r.Lookup("x"); e.Updates != 800 {
		t.Errorf("Updates = %d, want 800", e.Updates)
	}
}
