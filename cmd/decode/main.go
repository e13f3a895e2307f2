package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KyungWonPark/Decoding/internal/config"
	"github.com/KyungWonPark/Decoding/internal/logging"
	"github.com/KyungWonPark/Decoding/internal/pipeline"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <attributes> <bold.nii[.gz]> <mask.nii[.gz]> <outdir>",
		Short: "Decode emotion categories from a BOLD series across HRF delays",
		Long: `decode labels every BOLD volume with the design-matrix event that
preceded it by a candidate HRF delay, balances happy, sad and neutral
samples, and cross-validates a linear SVM per delay. The best delay is
rerun with a permutation null distribution and its voxel sensitivity
maps are written to <outdir>.`,
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	cmd.Flags().String("config", "", "YAML configuration file")
	cmd.Flags().String("log-level", "", "trace, debug, info, warn or error (overrides config)")
	cmd.Flags().Int("workers", 0, "parallel workers (overrides config)")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers != 0 {
		cfg.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())
	log.Debug("config", "delays", len(cfg.Delays()), "workers", cfg.Workers, "permutations", cfg.Permutations)

	return pipeline.New(cfg, log).Run(cmd.Context(), pipeline.Inputs{
		AttrPath: args[0],
		BoldPath: args[1],
		MaskPath: args[2],
		OutDir:   args[3],
	})
}
