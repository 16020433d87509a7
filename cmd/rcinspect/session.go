package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/extres"
	"github.com/wippyai/extres/arena"
	"github.com/wippyai/extres/config"
	"github.com/wippyai/extres/errors"
	"github.com/wippyai/extres/fixed"
	"github.com/wippyai/extres/modules"
	"github.com/wippyai/extres/resource"
)

type programHandle = *resource.Handle[*modules.Program]

// meteredArena is satisfied by both arena.Arena and arena.SafeArena.
type meteredArena interface {
	extres.Allocator
	Metrics() arena.Metrics
	Release()
}

// session is an interactive workspace: a module library, the handles the
// user holds, and arena grants. Commands arrive as text lines.
type session struct {
	ctx    context.Context
	lib    *modules.Library
	arena  meteredArena
	held   *arena.StringMap[[]programHandle]
	grants *fixed.Array[[]byte]
	events *fixed.Array[string]
}

const sessionHelp = `commands:
  load NAME      load (or reference) a module and hold the handle
  get NAME       reference an already loaded module
  clone NAME     clone the newest handle held for NAME
  release NAME   release the newest handle held for NAME
  unload NAME    forget NAME; held handles keep the module alive
  alloc N        allocate N bytes from the arena
  free [I]       free grant I (default: newest)
  stats          show the table and arena
  help           show this text`

func newSession(ctx context.Context, cfg *config.Config, src modules.Source) (*session, error) {
	s := &session{ctx: ctx}
	if cfg.Arena.ThreadSafe {
		s.arena = arena.NewSafe(cfg.Arena.BlockSize)
	} else {
		s.arena = arena.New(cfg.Arena.BlockSize)
	}
	s.held = arena.NewStringMap[[]programHandle](s.arena)
	s.grants = fixed.New[[]byte](cfg.Array.Capacity)
	s.events = fixed.New[string](cfg.Array.Capacity)

	lib, err := modules.NewLibrary(ctx, src,
		modules.WithMemoryLimitPages(cfg.Modules.MemoryLimitPages),
		modules.WithObserver(resource.ObserverFunc(s.record)))
	if err != nil {
		s.arena.Release()
		return nil, err
	}
	s.lib = lib
	return s, nil
}

// record keeps the most recent table events, dropping the oldest when full.
func (s *session) record(e resource.Event) {
	if s.events.Cap() == 0 {
		return
	}
	if s.events.Full() {
		_ = s.events.Erase(0)
	}
	_ = s.events.PushBack(fmt.Sprintf("%-10s %-8s id=%d refs=%d", e.Type, e.Name, e.ID, e.Refs))
}

func (s *session) exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		return sessionHelp, nil
	case "stats", "ls":
		return s.stats(), nil
	case "alloc":
		if len(args) != 1 {
			return "", usage("alloc N")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "", usage("alloc N")
		}
		return s.alloc(n)
	case "free":
		i := s.grants.Len() - 1
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return "", usage("free [I]")
			}
			i = v
		}
		return s.free(i)
	}

	if len(args) != 1 {
		return "", errors.InvalidInput(errors.PhaseTable, fmt.Sprintf("unknown command %q, try help", line))
	}
	name := args[0]
	switch cmd {
	case "load":
		h, err := s.lib.Load(s.ctx, name)
		if err != nil {
			return "", err
		}
		return s.hold(name, h)
	case "get":
		h := s.lib.Get(name)
		if !h.Valid() {
			return "", errors.NotFound(errors.PhaseTable, "module", name)
		}
		return s.hold(name, h)
	case "clone":
		hs, _ := s.held.Get(name)
		if len(hs) == 0 {
			return "", errors.NotFound(errors.PhaseTable, "held handle", name)
		}
		return s.hold(name, hs[len(hs)-1].Clone())
	case "release":
		return s.release(name)
	case "unload":
		if !s.lib.Unload(name) {
			return "", errors.NotFound(errors.PhaseTable, "module", name)
		}
		return fmt.Sprintf("unloaded %s, %d pending", name, s.lib.Pending()), nil
	}
	return "", errors.InvalidInput(errors.PhaseTable, fmt.Sprintf("unknown command %q, try help", cmd))
}

func (s *session) hold(name string, h programHandle) (string, error) {
	hs, _ := s.held.Get(name)
	if err := s.held.Set(name, append(hs, h)); err != nil {
		h.Release()
		return "", err
	}
	return fmt.Sprintf("%s: id=%d refs=%d held=%d", name, h.ID(), s.refs(h.ID()), len(hs)+1), nil
}

func (s *session) release(name string) (string, error) {
	hs, _ := s.held.Get(name)
	if len(hs) == 0 {
		return "", errors.NotFound(errors.PhaseTable, "held handle", name)
	}
	h := hs[len(hs)-1]
	hs = hs[:len(hs)-1]
	var err error
	if len(hs) == 0 {
		_, err = s.held.Delete(name)
	} else {
		err = s.held.Set(name, hs)
	}

	id := h.ID()
	h.Release()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("released %s: id=%d refs=%d held=%d", name, id, s.refs(id), len(hs)), nil
}

func (s *session) refs(id uint32) uint32 {
	for _, info := range s.lib.Snapshot() {
		if info.ID == id {
			return info.Refs
		}
	}
	return 0
}

func (s *session) alloc(n int) (string, error) {
	if s.grants.Full() {
		return "", errors.CapacityExceeded(errors.PhaseArray, s.grants.Cap())
	}
	b, err := s.arena.Allocate(n)
	if err != nil {
		return "", err
	}
	if b == nil {
		return "", errors.InvalidInput(errors.PhaseAlloc, "allocation size must be positive")
	}
	_ = s.grants.PushBack(b)
	return fmt.Sprintf("grant #%d: %d bytes", s.grants.Len()-1, n), nil
}

func (s *session) free(i int) (string, error) {
	b, err := s.grants.At(i)
	if err != nil {
		return "", err
	}
	if err := s.arena.Deallocate(b); err != nil {
		return "", err
	}
	_ = s.grants.Erase(i)
	return fmt.Sprintf("freed grant #%d (%d bytes)", i, len(b)), nil
}

func (s *session) stats() string {
	var b strings.Builder
	infos := s.lib.Snapshot()
	if len(infos) == 0 {
		b.WriteString("no live modules\n")
	}
	for _, info := range infos {
		b.WriteString(formatInfo(info))
		b.WriteByte('\n')
	}
	b.WriteString(formatMetrics(s.arena.Metrics()))
	return b.String()
}

func formatInfo(info resource.Info) string {
	names := strings.Join(info.Names, ",")
	if info.Pending {
		names = "(pending)"
	}
	return fmt.Sprintf("id=%-3d refs=%-3d %s", info.ID, info.Refs, names)
}

func formatMetrics(m arena.Metrics) string {
	return fmt.Sprintf("arena: blocks=%d in_use=%d free_spans=%d free_bytes=%d util=%.2f%%",
		m.Blocks, m.InUse, m.FreeSpans, m.FreeBytes, m.Utilization*100)
}

// close releases everything the session holds.
func (s *session) close() error {
	var handles []programHandle
	s.held.Range(func(_ string, hs []programHandle) bool {
		handles = append(handles, hs...)
		return true
	})
	for _, h := range handles {
		h.Release()
	}
	_ = s.held.Release()

	for _, b := range s.grants.All() {
		_ = s.arena.Deallocate(b)
	}
	s.grants.Clear()

	err := s.lib.Close()
	s.arena.Release()
	return err
}

func usage(form string) error {
	return errors.InvalidInput(errors.PhaseTable, "usage: "+form)
}
