package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/extres/arena"
	"github.com/wippyai/extres/errors"
)

func (a *app) cmdArena() *cobra.Command {
	var size, count int
	cmd := &cobra.Command{
		Use:   "arena",
		Short: "Allocate and free a batch of spans and print arena metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size <= 0 || count < 0 {
				return errors.InvalidInput(errors.PhaseAlloc, "size must be positive and count not negative")
			}
			w := cmd.OutOrStdout()
			ar := arena.New(a.cfg.Arena.BlockSize)
			defer ar.Release()

			grants := make([][]byte, 0, count)
			for i := 0; i < count; i++ {
				b, err := ar.Allocate(size)
				if err != nil {
					return err
				}
				grants = append(grants, b)
			}
			fmt.Fprintf(w, "allocated %d x %d\n%s\n", count, size, formatMetrics(ar.Metrics()))

			for i := 0; i < len(grants); i += 2 {
				if err := ar.Deallocate(grants[i]); err != nil {
					return err
				}
			}
			fmt.Fprintf(w, "freed every other grant\n%s\n", formatMetrics(ar.Metrics()))

			reused := 0
			half := max(size/2, 1)
			for i := 0; i < len(grants); i += 2 {
				b, err := ar.Allocate(half)
				if err != nil {
					return err
				}
				if &b[0] == &grants[i][0] {
					reused++
				}
			}
			fmt.Fprintf(w, "reallocated %d x %d, %d reused freed spans\n%s\n",
				(count+1)/2, half, reused, formatMetrics(ar.Metrics()))
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 64, "Bytes per allocation")
	cmd.Flags().IntVar(&count, "count", 16, "Number of allocations")
	return cmd
}
