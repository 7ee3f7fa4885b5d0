package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hahho/tsumodp/dp"
	"github.com/hahho/tsumodp/mahjong"
)

var (
	buildOutDir  string
	buildTempDir string
	buildWorkers int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "run pipeline stages that produce the converter and DP artifacts",
}

var buildConverterCmd = &cobra.Command{
	Use:   "converter",
	Short: "build and persist the hand converter's lookup tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildConverterIfMissing()
	},
}

func buildConverterIfMissing() error {
	if mahjong.ConverterExists(buildOutDir) {
		logger.Info("converter already built, skipping")
		return nil
	}
	logger.Info("building hand converter lookup tables")
	suitedLookup, honorLookup, hand13, hand14 := mahjong.BuildConverter()
	logger.Info("converter built", "suited", len(suitedLookup), "honor", len(honorLookup), "hand13", len(hand13), "hand14", len(hand14))
	return mahjong.SaveConverter(buildOutDir, suitedLookup, honorLookup, hand13, hand14)
}

func loadConverterOrFail() (*mahjong.HandConverter, error) {
	return mahjong.LoadConverter(buildOutDir)
}

var buildTsumoCmd = &cobra.Command{
	Use:   "tsumo",
	Short: "run the tsumo DP and compact tsumo_13.dat/tsumo_14.dat",
	RunE: func(cmd *cobra.Command, args []string) error {
		hc, err := loadConverterOrFail()
		if err != nil {
			return err
		}
		pl := newPipeline(hc)
		return pl.RunTsumo(context.Background())
	},
}

var buildMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "run the metrics DP and compact metrics_13.dat/metrics_14.dat",
	RunE: func(cmd *cobra.Command, args []string) error {
		hc, err := loadConverterOrFail()
		if err != nil {
			return err
		}
		pl := newPipeline(hc)
		return pl.RunMetrics(context.Background())
	},
}

var buildCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "compact already-computed tsumo and metrics round files without re-running the DPs",
	RunE: func(cmd *cobra.Command, args []string) error {
		hc, err := loadConverterOrFail()
		if err != nil {
			return err
		}
		pl := newPipeline(hc)
		ctx := context.Background()
		if err := pl.CompactTsumo(ctx); err != nil {
			return err
		}
		return pl.CompactMetrics(ctx)
	},
}

var buildAllCmd = &cobra.Command{
	Use:   "all",
	Short: "run converter, tsumo, and metrics in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := buildConverterIfMissing(); err != nil {
			return err
		}
		hc, err := loadConverterOrFail()
		if err != nil {
			return err
		}
		pl := newPipeline(hc)
		ctx := context.Background()
		if err := pl.RunTsumo(ctx); err != nil {
			return err
		}
		return pl.RunMetrics(ctx)
	},
}

func newPipeline(hc *mahjong.HandConverter) *dp.Pipeline {
	pl := dp.NewPipeline(hc, buildTempDir, buildOutDir)
	if buildWorkers > 0 {
		pl.Parallel = buildWorkers
	}
	pl.Logger = logger
	return pl
}

func init() {
	buildCmd.PersistentFlags().StringVar(&buildOutDir, "out", "./artifacts", "output directory for built artifacts")
	buildCmd.PersistentFlags().StringVar(&buildTempDir, "temp", "./tsumodp-temp", "scratch directory for in-progress round/shard checkpoints")
	buildCmd.PersistentFlags().IntVar(&buildWorkers, "workers", 0, "worker goroutines per round (0 = runtime.NumCPU())")

	buildCmd.AddCommand(buildConverterCmd, buildTsumoCmd, buildMetricsCmd, buildCompactCmd, buildAllCmd)
	rootCmd.AddCommand(buildCmd)
}
