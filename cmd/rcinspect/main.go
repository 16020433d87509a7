package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/extres/arena"
	"github.com/wippyai/extres/config"
	"github.com/wippyai/extres/modules"
	"github.com/wippyai/extres/resource"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by all subcommands.
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "rcinspect",
		Short: "Inspect reference-counted external resources",
		Long: `rcinspect exercises the extres ownership layer: shared and weak cells,
the named resource table, the block arena and fixed-capacity arrays.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}
	root.CompletionOptions.HiddenDefaultCmd = true
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log.level from the configuration")

	root.AddCommand(a.cmdDemo())
	root.AddCommand(a.cmdArena())
	root.AddCommand(a.cmdModules())
	root.AddCommand(a.cmdTUI())
	return root
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	l, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	resource.SetLogger(l.Named("resource"))
	arena.SetLogger(l.Named("arena"))
	modules.SetLogger(l.Named("modules"))

	a.cfg = cfg
	a.log = l
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) {
	if a.log != nil {
		_ = a.log.Sync()
	}
}
