package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hahho/tsumodp/mahjong"
	"github.com/hahho/tsumodp/query"
)

var (
	serveConverterDir string
	serveTsumo13      string
	serveTsumo14      string
	serveMetrics13    string
	serveMetrics14    string
	servePoolSize     int
	serveHand         string
	serveDrawsLeft    int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "load every artifact and run a single query against it",
	Long:  "serve loads the five artifacts through the query surface, exiting non-zero on any load failure, and answers one --hand query for local testing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, err := query.NewSharedAnalyzer(query.Artifacts{
			Hand13Path:    filepath.Join(serveConverterDir, "hand13_lookup.dat"),
			Hand14Path:    filepath.Join(serveConverterDir, "hand14_lookup.dat"),
			Tsumo13Path:   serveTsumo13,
			Tsumo14Path:   serveTsumo14,
			Metrics13Path: serveMetrics13,
			Metrics14Path: serveMetrics14,
			PoolSize:      servePoolSize,
		})
		if err != nil {
			return fmt.Errorf("serve: failed to load artifacts: %w", err)
		}
		defer analyzer.Close()
		logger.Info("artifacts loaded, ready to serve")

		if serveHand == "" {
			logger.Info("no --hand given, exiting after a successful load")
			return nil
		}
		hand, honorCounts, err := mahjong.ParseHandStringWithHonorCounts(serveHand)
		if err != nil {
			return err
		}
		ctx := context.Background()
		curve, err := analyzer.AnalyzeTsumo(ctx, hand)
		if err != nil {
			return err
		}
		offset := 0
		if hand.NumTiles() == 13 {
			offset = 1
		}
		for i, p := range curve {
			fmt.Printf("draws_left=%d p=%.6f\n", i+offset, p)
		}
		dims, err := analyzer.AnalyzeMentsu(ctx, hand, honorCounts, serveDrawsLeft)
		if err != nil {
			return err
		}
		for _, d := range dims {
			if d.Value == 0 {
				continue
			}
			if d.HasHonorKind {
				fmt.Printf("%s(%s): %.6f\n", d.Dimension.Kind, d.Honor, d.Value)
				continue
			}
			fmt.Printf("%s: %.6f\n", d.Dimension, d.Value)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConverterDir, "conv", "./artifacts", "directory holding the converter's lookup tables")
	serveCmd.Flags().StringVar(&serveTsumo13, "tsumo13", "./artifacts/tsumo_13.dat", "path to tsumo_13.dat")
	serveCmd.Flags().StringVar(&serveTsumo14, "tsumo14", "./artifacts/tsumo_14.dat", "path to tsumo_14.dat")
	serveCmd.Flags().StringVar(&serveMetrics13, "metrics13", "./artifacts/metrics_13.dat", "path to metrics_13.dat")
	serveCmd.Flags().StringVar(&serveMetrics14, "metrics14", "./artifacts/metrics_14.dat", "path to metrics_14.dat")
	serveCmd.Flags().IntVar(&servePoolSize, "pool-size", 8, "reader handles per artifact")
	serveCmd.Flags().StringVar(&serveHand, "hand", "", "optional hand string to query immediately, e.g. 678m56p233789s11z")
	serveCmd.Flags().IntVar(&serveDrawsLeft, "draws-left", 1, "draws-left horizon for the per-dimension metrics query (1..18 for a 13-tile hand, 0..17 for a 14-tile hand)")
	rootCmd.AddCommand(serveCmd)
}
