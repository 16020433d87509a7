package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/extres/modules"
)

func (a *app) cmdModules() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:     "modules NAME...",
		Short:   "Compile modules through the named table and print their counts",
		Args:    cobra.MinimumNArgs(1),
		Example: `  rcinspect modules --dir ./wasm filters/blur filters/blur filters/glow`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if dir == "" {
				dir = a.cfg.Modules.Dir
			}
			w := cmd.OutOrStdout()

			lib, err := modules.NewLibrary(ctx, modules.DirSource{Dir: dir},
				modules.WithMemoryLimitPages(a.cfg.Modules.MemoryLimitPages))
			if err != nil {
				return err
			}
			defer lib.Close()

			for _, name := range args {
				h, err := lib.Load(ctx, name)
				if err != nil {
					return err
				}
				defer h.Release()

				p := h.Value()
				fmt.Fprintf(w, "%s: id=%d size=%d digest=%016x\n", name, p.ID(), p.Size(), p.Digest())
				if exports := p.Exports(); len(exports) > 0 {
					fmt.Fprintf(w, "  exports: %s\n", strings.Join(exports, ", "))
				}
				if imports := p.Imports(); len(imports) > 0 {
					fmt.Fprintf(w, "  imports: %s\n", strings.Join(imports, ", "))
				}
			}

			fmt.Fprintln(w, "table:")
			for _, info := range lib.Snapshot() {
				fmt.Fprintf(w, "  %s\n", formatInfo(info))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Module directory (default: modules.dir from the configuration)")
	return cmd
}
