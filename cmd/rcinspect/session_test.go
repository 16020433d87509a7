package main

import (
	"context"
	"strings"
	"testing"

	"github.com/wippyai/extres/config"
	"github.com/wippyai/extres/errors"
)

func newTestSession(t *testing.T, capacity int) *session {
	t.Helper()
	cfg := config.Default()
	cfg.Arena.BlockSize = 1024
	cfg.Array.Capacity = capacity
	s, err := newSession(context.Background(), cfg, builtinModules)
	if err != nil {
		t.Fatalf("newSession failed: %v", err)
	}
	return s
}

func mustExec(t *testing.T, s *session, line string) string {
	t.Helper()
	out, err := s.exec(line)
	if err != nil {
		t.Fatalf("exec(%q) failed: %v", line, err)
	}
	return out
}

func TestSession_LoadUnloadReload(t *testing.T) {
	s := newTestSession(t, 8)
	defer s.close()

	if out := mustExec(t, s, "load add"); !strings.Contains(out, "id=1 refs=1") {
		t.Fatalf("unexpected output %q", out)
	}
	if out := mustExec(t, s, "load add"); !strings.Contains(out, "id=1 refs=2 held=2") {
		t.Fatalf("unexpected output %q", out)
	}

	mustExec(t, s, "unload add")
	if out := mustExec(t, s, "load add"); !strings.Contains(out, "id=2 refs=1 held=3") {
		t.Fatalf("Expected a fresh program after unload, got %q", out)
	}
	if s.lib.Pending() != 1 {
		t.Fatalf("Expected one pending program, got %d", s.lib.Pending())
	}

	for i := 0; i < 3; i++ {
		mustExec(t, s, "release add")
	}
	if out := mustExec(t, s, "stats"); !strings.Contains(out, "no live modules") {
		t.Fatalf("Expected empty table, got %q", out)
	}
	if _, err := s.exec("release add"); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("Expected not found, got %v", err)
	}
}

func TestSession_GetAndClone(t *testing.T) {
	s := newTestSession(t, 8)
	defer s.close()

	if _, err := s.exec("get add"); err == nil {
		t.Fatal("get must not load")
	}
	if _, err := s.exec("clone add"); err == nil {
		t.Fatal("clone without a held handle must fail")
	}

	mustExec(t, s, "load add")
	if out := mustExec(t, s, "get add"); !strings.Contains(out, "refs=2") {
		t.Fatalf("unexpected output %q", out)
	}
	if out := mustExec(t, s, "clone add"); !strings.Contains(out, "refs=3 held=3") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSession_LoadErrors(t *testing.T) {
	s := newTestSession(t, 8)
	defer s.close()

	if _, err := s.exec("load missing"); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("Expected not found, got %v", err)
	}
	if _, err := s.exec("unload add"); err == nil {
		t.Fatal("unload of an unknown name must fail")
	}
	for _, line := range []string{"bogus", "bogus x", "alloc", "alloc x", "free x", "load"} {
		if _, err := s.exec(line); err == nil {
			t.Errorf("exec(%q) should fail", line)
		}
	}
	if out, err := s.exec("   "); err != nil || out != "" {
		t.Fatalf("blank line = (%q, %v)", out, err)
	}
}

func TestSession_ArenaGrants(t *testing.T) {
	s := newTestSession(t, 2)
	defer s.close()

	mustExec(t, s, "alloc 64")
	mustExec(t, s, "alloc 16")
	if _, err := s.exec("alloc 8"); !errors.IsKind(err, errors.KindOverflow) {
		t.Fatalf("Expected overflow when grants are full, got %v", err)
	}
	if _, err := s.exec("alloc 4096"); err == nil {
		t.Fatal("Expected error for allocation larger than a block")
	}

	mustExec(t, s, "free 0")
	if s.arena.Metrics().FreeSpans != 1 {
		t.Fatal("Expected the freed grant on the free list")
	}
	mustExec(t, s, "alloc 32")
	if s.arena.Metrics().FreeSpans != 0 {
		t.Fatal("Expected the freed span to be reused")
	}

	mustExec(t, s, "free")
	mustExec(t, s, "free")
	if _, err := s.exec("free"); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Fatalf("Expected out of bounds on empty grants, got %v", err)
	}
}

func TestSession_EventsBounded(t *testing.T) {
	s := newTestSession(t, 3)
	defer s.close()

	for i := 0; i < 5; i++ {
		mustExec(t, s, "load add")
	}
	if s.events.Len() != 3 {
		t.Fatalf("Expected 3 recent events, got %d", s.events.Len())
	}
	last, _ := s.events.Back()
	if !strings.Contains(last, "refs=5") {
		t.Fatalf("Expected newest event last, got %q", last)
	}
}

func TestSession_Close(t *testing.T) {
	s := newTestSession(t, 4)
	mustExec(t, s, "load add")
	mustExec(t, s, "load log")
	mustExec(t, s, "alloc 10")

	if err := s.close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if len(s.lib.Snapshot()) != 0 {
		t.Fatal("Expected every module destroyed")
	}
	if s.grants.Len() != 0 {
		t.Fatal("Expected grants cleared")
	}
	if _, err := s.arena.Allocate(1); !errors.IsKind(err, errors.KindClosed) {
		t.Fatalf("Expected arena released, got %v", err)
	}
}
