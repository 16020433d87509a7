package shared

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	rerrors "github.com/wippyai/extres/errors"
)

type texture struct {
	id     uint32
	width  int
	height int
}

func TestShared_CloneAndRelease(t *testing.T) {
	for _, n := range []int{0, 1, 5, 32} {
		destroyed := 0
		root := New(texture{id: 7, width: 4, height: 4}, func(*texture) { destroyed++ })

		clones := make([]*Shared[texture], n)
		for i := range clones {
			clones[i] = root.Clone()
		}
		if root.UseCount() != n+1 {
			t.Fatalf("n=%d: Expected UseCount %d, got %d", n, n+1, root.UseCount())
		}

		for _, c := range clones {
			c.Release()
		}
		if destroyed != 0 {
			t.Fatalf("n=%d: destructor ran while an owner remains", n)
		}
		if root.UseCount() != 1 {
			t.Fatalf("n=%d: Expected one live owner, got %d", n, root.UseCount())
		}
		if root.Get().id != 7 {
			t.Fatalf("n=%d: payload changed", n)
		}

		root.Release()
		if destroyed != 1 {
			t.Fatalf("n=%d: Expected destructor once, ran %d times", n, destroyed)
		}
	}
}

func TestShared_ReleaseIdempotent(t *testing.T) {
	destroyed := 0
	s := New(1, func(*int) { destroyed++ })
	c := s.Clone()

	c.Release()
	c.Release()
	if s.UseCount() != 1 {
		t.Fatalf("double Release on one handle dropped two owners: %d", s.UseCount())
	}

	s.Release()
	s.Release()
	if destroyed != 1 {
		t.Fatalf("Expected destructor once, ran %d times", destroyed)
	}
	if s.Valid() || s.Get() != nil {
		t.Fatal("released handle should be empty")
	}
}

func TestShared_Move(t *testing.T) {
	s := New("payload", nil)
	m := s.Move()

	if s.Valid() {
		t.Fatal("moved-from handle should be empty")
	}
	if !m.Valid() || *m.Get() != "payload" {
		t.Fatal("moved-to handle should own the payload")
	}
	if m.UseCount() != 1 {
		t.Fatalf("Move must not change counts, got %d", m.UseCount())
	}
	m.Release()
}

func TestShared_Equal(t *testing.T) {
	a := New(1, nil)
	b := a.Clone()
	c := New(1, nil)
	defer a.Release()
	defer b.Release()
	defer c.Release()

	if !a.Equal(b) {
		t.Error("clones should be equal")
	}
	if a.Equal(c) {
		t.Error("distinct cells with equal values should not be equal")
	}
	if !(&Shared[int]{}).Equal(&Shared[int]{}) {
		t.Error("empty handles should be equal")
	}
}

func TestWeak_LockExpiresWithLastOwner(t *testing.T) {
	destroyed := 0
	s := New(texture{id: 1}, func(*texture) { destroyed++ })
	w1 := s.Downgrade()
	w2 := s.Downgrade()

	locked := w1.Lock()
	if !locked.Valid() || locked.Get().id != 1 {
		t.Fatal("Lock on live cell should succeed")
	}
	if s.UseCount() != 2 {
		t.Fatalf("Expected UseCount 2 after Lock, got %d", s.UseCount())
	}
	locked.Release()
	s.Release()

	if destroyed != 1 {
		t.Fatalf("Expected destructor once, ran %d times", destroyed)
	}
	if !w1.Expired() || !w2.Expired() {
		t.Fatal("weak handles should report expiry")
	}
	if w1.Lock().Valid() {
		t.Fatal("Lock after last owner released must return an empty handle")
	}
	if w2.Lock().Valid() {
		t.Fatal("Lock must not revive a destroyed payload")
	}
	if destroyed != 1 {
		t.Fatal("destructor ran again")
	}
	w1.Release()
	w2.Release()
}

func TestWeak_ControlBlockOutlivesPayload(t *testing.T) {
	s := New(3, nil)
	w := s.Downgrade()
	w2 := w.Clone()
	ctl := s.ctl

	s.Release()
	if ctl.freed.Load() {
		t.Fatal("control block freed while weak handles remain")
	}
	if ctl.value.Load() != nil {
		t.Fatal("payload should be dropped once owners are gone")
	}

	w.Release()
	if ctl.freed.Load() {
		t.Fatal("control block freed while one weak handle remains")
	}
	w2.Release()
	if !ctl.freed.Load() {
		t.Fatal("control block should be freed when both counts reach zero")
	}
}

func TestWeak_FreedWithoutObservers(t *testing.T) {
	s := New(3, nil)
	ctl := s.ctl
	s.Release()
	if !ctl.freed.Load() {
		t.Fatal("control block should be freed with the last owner when no weak handles exist")
	}
}

func TestCounts(t *testing.T) {
	s := New(0, nil)
	w := s.Downgrade()
	c := s.Clone()

	if s.WeakCount() != 1 {
		t.Errorf("WeakCount = %d, want 1", s.WeakCount())
	}
	if w.UseCount() != 2 {
		t.Errorf("weak UseCount = %d, want 2", w.UseCount())
	}

	c.Release()
	s.Release()
	if w.UseCount() != 0 {
		t.Errorf("weak UseCount = %d, want 0", w.UseCount())
	}
	w.Release()
}

func TestEmptyHandles(t *testing.T) {
	var s *Shared[int]
	if s.Valid() || s.Get() != nil || s.UseCount() != 0 {
		t.Fatal("nil handle should be empty")
	}
	s.Release()
	if s.Clone().Valid() || s.Downgrade().Lock().Valid() {
		t.Fatal("operations on an empty handle should yield empty handles")
	}

	var w *Weak[int]
	if !w.Expired() || w.Lock().Valid() {
		t.Fatal("nil weak handle should be expired")
	}
	w.Release()
}

func TestMake(t *testing.T) {
	s, err := Make(func() (int, error) { return 9, nil }, nil)
	if err != nil {
		t.Fatalf("Make failed: %v", err)
	}
	if *s.Get() != 9 {
		t.Fatalf("Expected 9, got %d", *s.Get())
	}
	s.Release()

	cause := errors.New("device lost")
	_, err = Make(func() (int, error) { return 0, cause }, nil)
	if !errors.Is(err, cause) {
		t.Fatalf("Expected cause to be wrapped, got %v", err)
	}
	if !errors.Is(err, &rerrors.Error{Phase: rerrors.PhaseShared, Kind: rerrors.KindAllocation}) {
		t.Fatalf("Expected allocation error, got %v", err)
	}
}

func TestShared_Concurrent(t *testing.T) {
	var destroyed atomic.Int32
	root := New(texture{id: 42}, func(*texture) { destroyed.Add(1) })
	weak := root.Downgrade()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		c := root.Clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer c.Release()
			for j := 0; j < 200; j++ {
				if l := weak.Lock(); l.Valid() {
					if l.Get().id != 42 {
						t.Error("corrupt payload")
					}
					l.Release()
				}
				c.Clone().Release()
			}
		}()
	}

	root.Release()
	wg.Wait()

	if destroyed.Load() != 1 {
		t.Fatalf("Expected destructor once, ran %d times", destroyed.Load())
	}
	if weak.Lock().Valid() {
		t.Fatal("Lock after teardown should fail")
	}
	weak.Release()
}
