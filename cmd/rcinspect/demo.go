package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wippyai/extres/arena"
	"github.com/wippyai/extres/fixed"
	"github.com/wippyai/extres/shared"
)

func (a *app) cmdDemo() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through the ownership primitives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDemo(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

// tableScript loads, unloads and reloads one module to show per-ID counting.
var tableScript = []string{
	"load add",
	"load add",
	"stats",
	"unload add",
	"load add",
	"stats",
	"release add",
	"release add",
	"release add",
	"stats",
}

func (a *app) runDemo(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	heading(w, "shared and weak cells")
	demoShared(w)

	heading(w, "named resource table")
	s, err := newSession(ctx, a.cfg, builtinModules)
	if err != nil {
		return err
	}
	for _, line := range tableScript {
		out, err := s.exec(line)
		fmt.Fprintf(w, "> %s\n", line)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(w, out)
	}
	fmt.Fprintln(w, "events:")
	for _, e := range s.events.All() {
		fmt.Fprintf(w, "  %s\n", e)
	}
	if err := s.close(); err != nil {
		return err
	}

	heading(w, "arena reuse")
	if err := demoArena(w, a.cfg.Arena.BlockSize); err != nil {
		return err
	}

	heading(w, "fixed-capacity array")
	demoFixed(w)
	return nil
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n== %s ==\n", title)
}

type scratch struct {
	name string
	data []byte
}

func demoShared(w io.Writer) {
	buf := shared.New(scratch{name: "scratch", data: make([]byte, 256)}, func(s *scratch) {
		fmt.Fprintf(w, "destroy %s (%d bytes)\n", s.name, len(s.data))
	})

	owners := []*shared.Shared[scratch]{buf}
	for i := 0; i < 3; i++ {
		owners = append(owners, buf.Clone())
	}
	weak := buf.Downgrade()
	defer weak.Release()
	fmt.Fprintf(w, "owners=%d weak=%d\n", weak.UseCount(), buf.WeakCount())

	if l := weak.Lock(); l.Valid() {
		fmt.Fprintf(w, "lock while owned: valid, owners=%d\n", l.UseCount())
		l.Release()
	}

	for _, o := range owners {
		o.Release()
	}
	l := weak.Lock()
	fmt.Fprintf(w, "lock after last release: valid=%v expired=%v\n", l.Valid(), weak.Expired())
}

func demoArena(w io.Writer, blockSize int) error {
	ar := arena.New(blockSize)
	defer ar.Release()

	first, err := ar.Allocate(64)
	if err != nil {
		return err
	}
	if err := ar.Deallocate(first); err != nil {
		return err
	}
	second, err := ar.Allocate(32)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "allocate 64, free, allocate 32: reused=%v\n", &first[0] == &second[0])
	fmt.Fprintln(w, formatMetrics(ar.Metrics()))

	if _, err := ar.Allocate(ar.BlockSize() + 1); err != nil {
		fmt.Fprintf(w, "allocate block_size+1: %v\n", err)
	}
	return nil
}

func demoFixed(w io.Writer) {
	arr := fixed.New[int](6)
	for i := 0; i < 7; i++ {
		if err := arr.PushBack(i); err != nil {
			fmt.Fprintf(w, "push %d: %v\n", i, err)
		}
	}
	front, _ := arr.Front()
	back, _ := arr.Back()
	fmt.Fprintf(w, "len=%d cap=%d front=%d back=%d\n", arr.Len(), arr.Cap(), front, back)

	if _, err := arr.At(arr.Len()); err != nil {
		fmt.Fprintf(w, "at(len): %v\n", err)
	}

	removed := arr.RemoveFunc(func(v *int) bool { return *v%2 == 1 })
	fmt.Fprintf(w, "removed %d odd values: %v\n", removed, arr.Slice())
}
