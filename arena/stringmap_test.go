package arena

import (
	"fmt"
	"testing"

	"github.com/wippyai/extres/errors"
)

func TestStringMap_SetGet(t *testing.T) {
	a := New(1024)
	m := NewStringMap[int](a)

	if err := m.Set("atlas", 1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := m.Set("font", 2); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := m.Set("atlas", 3); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if v, ok := m.Get("atlas"); !ok || v != 3 {
		t.Fatalf("Get(atlas) = (%d, %v), expected (3, true)", v, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Fatal("Expected missing key to be absent")
	}
	if m.Len() != 2 {
		t.Fatalf("Expected Len 2, got %d", m.Len())
	}
	if got := a.Metrics().InUse; got != len("atlas")+len("font") {
		t.Fatalf("Expected key bytes in arena, InUse = %d", got)
	}
}

func TestStringMap_EmptyKey(t *testing.T) {
	m := NewStringMap[string](New(64))
	if err := m.Set("", "root"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok := m.Get(""); !ok || v != "root" {
		t.Fatalf("Get(\"\") = (%q, %v)", v, ok)
	}
	if ok, err := m.Delete(""); !ok || err != nil {
		t.Fatalf("Delete(\"\") = (%v, %v)", ok, err)
	}
}

func TestStringMap_DeleteReusesStorage(t *testing.T) {
	a := New(1024)
	m := NewStringMap[int](a)

	_ = m.Set("shader/blur", 1)
	ok, err := m.Delete("shader/blur")
	if !ok || err != nil {
		t.Fatalf("Delete = (%v, %v)", ok, err)
	}
	if ok, _ := m.Delete("shader/blur"); ok {
		t.Fatal("Expected second Delete to report false")
	}
	if a.Metrics().FreeSpans != 1 {
		t.Fatal("Expected key storage on the free list")
	}

	_ = m.Set("shader/glow", 2)
	if a.Metrics().FreeSpans != 0 {
		t.Fatal("Expected the freed key span to be reused")
	}
	if m.Len() != 1 {
		t.Fatalf("Expected Len 1, got %d", m.Len())
	}
}

func TestStringMap_Range(t *testing.T) {
	m := NewStringMap[int](New(0))
	for i := 0; i < 50; i++ {
		_ = m.Set(fmt.Sprintf("key-%d", i), i)
	}

	sum := 0
	m.Range(func(k string, v int) bool {
		if k != fmt.Sprintf("key-%d", v) {
			t.Errorf("key %q holds %d", k, v)
		}
		sum += v
		return true
	})
	if sum != 49*50/2 {
		t.Fatalf("Expected sum %d, got %d", 49*50/2, sum)
	}

	calls := 0
	m.Range(func(string, int) bool {
		calls++
		return false
	})
	if calls != 1 {
		t.Fatalf("Range should stop early, calls = %d", calls)
	}
}

func TestStringMap_Release(t *testing.T) {
	a := New(0)
	m := NewStringMap[bool](a)
	_ = m.Set("a", true)
	_ = m.Set("bb", true)

	if err := m.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if a.Metrics().InUse != 0 {
		t.Fatal("Expected all key storage returned to the arena")
	}
	if err := m.Set("c", true); !errors.IsKind(err, errors.KindClosed) {
		t.Fatalf("Expected closed error, got %v", err)
	}
}

func TestStringMap_AllocatorFailure(t *testing.T) {
	m := NewStringMap[int](New(4))
	err := m.Set("longer than four", 1)
	if !errors.IsKind(err, errors.KindAllocation) {
		t.Fatalf("Expected allocation error, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatal("failed Set must not insert")
	}
}
