package dp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/hahho/tsumodp/flatfile"
	"github.com/hahho/tsumodp/internal/shard"
	"github.com/hahho/tsumodp/mahjong"
)

// Category tags distinguish which artifact a shard marker belongs to,
// passed as internal/shard's category argument.
const (
	categoryTsumo   = 0
	categoryMetrics = 1
)

// Pipeline drives the tsumo and metrics DPs to completion, round by round,
// checkpointing at both round and shard granularity so a crash or restart
// resumes from the last completed shard rather than from scratch.
type Pipeline struct {
	HC       *mahjong.HandConverter
	TempDir  string
	OutDir   string
	Parallel int
	Logger   *log.Logger
}

// NewPipeline returns a Pipeline with sensible defaults: one worker per
// available CPU and a logger writing to stderr.
func NewPipeline(hc *mahjong.HandConverter, tempDir, outDir string) *Pipeline {
	return &Pipeline{
		HC:       hc,
		TempDir:  tempDir,
		OutDir:   outDir,
		Parallel: runtime.NumCPU(),
		Logger:   log.New(os.Stderr),
	}
}

func (p *Pipeline) tsumoRoundPath(r int) string {
	return shard.TsumoPath(filepath.Join(p.TempDir, "tsumo"), r)
}

func (p *Pipeline) metricsRoundPath(r int) string {
	return shard.TsumoPath(filepath.Join(p.TempDir, "metrics"), r)
}

func (p *Pipeline) shardMarkerRoot() string {
	return filepath.Join(p.TempDir, "shards")
}

// forEachShard fans work out over internal/shard's fixed-size chunks of
// [0, n), skipping any shard whose marker file already exists (a prior
// run completed it) and creating the marker once f succeeds.
func (p *Pipeline) forEachShard(ctx context.Context, category, round int, n int64, f func(ctx context.Context, lo, hi int64) error) error {
	if n == 0 {
		return nil
	}
	workers := p.Parallel
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)
	numShards := shard.Count(n)
	for s := 0; s < numShards; s++ {
		s := s
		marker := shard.Path(p.shardMarkerRoot(), category, round, s)
		if _, err := os.Stat(marker); err == nil {
			continue
		}
		lo, hi := shard.Bounds(s, n)
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			if err := f(ctx, lo, hi); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(marker), 0o755); err != nil {
				return err
			}
			return os.WriteFile(marker, nil, 0o644)
		})
	}
	return g.Wait()
}

// RunTsumo runs the tsumo DP to completion, writing tsumo_13.dat and
// tsumo_14.dat into OutDir. It resumes from whatever round and shard
// checkpoints already exist under TempDir. The per-round files under
// TempDir/tsumo are left in place afterward: RunMetrics's even-round step
// re-derives the win-maximizing discard(s) directly from them rather than
// from a separately persisted policy.
func (p *Pipeline) RunTsumo(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Join(p.TempDir, "tsumo"), 0o755); err != nil {
		return err
	}

	if err := p.runTsumoRound(ctx, 0); err != nil {
		return err
	}
	for r := 1; r < NumRounds; r++ {
		if err := p.runTsumoRound(ctx, r); err != nil {
			return err
		}
	}
	return p.CompactTsumo(ctx)
}

func (p *Pipeline) runTsumoRound(ctx context.Context, r int) error {
	path := p.tsumoRoundPath(r)
	if _, err := os.Stat(path); err == nil {
		p.Logger.Info("tsumo: round already checkpointed, skipping", "round", r)
		return nil
	}
	p.Logger.Info("tsumo: constructing round", "round", r)

	if r == 0 {
		out, err := flatfile.Create[flatfile.Uint128](path + ".tmp")
		if err != nil {
			return err
		}
		if err := Round0(ctx, p.HC, out); err != nil {
			out.Close()
			return err
		}
		return finishRound(out, path)
	}

	prev, err := flatfile.OpenReadOnly[flatfile.Uint128](p.tsumoRoundPath(r - 1))
	if err != nil {
		return err
	}
	defer prev.Close()

	var n int64
	if r%2 == 1 {
		n = int64(len(p.HC.Hand13))
	} else {
		n = int64(len(p.HC.Hand14))
	}

	out, err := flatfile.OpenOrCreate[flatfile.Uint128](path + ".tmp")
	if err != nil {
		return err
	}
	if err := out.SetLen(ctx, n); err != nil {
		out.Close()
		return err
	}

	stepErr := p.forEachShard(ctx, categoryTsumo, r, n, func(ctx context.Context, lo, hi int64) error {
		if r%2 == 1 {
			return StepDraw(ctx, p.HC, prev, out, lo, hi)
		}
		return StepDiscard(ctx, p.HC, prev, out, lo, hi)
	})
	if stepErr == nil && r%2 == 0 {
		stepErr = ApplyAgariAbsorption(ctx, p.HC, out, PowSmallDenomForRound(r))
	}
	if stepErr != nil {
		out.Close()
		return stepErr
	}
	return finishRound(out, path)
}

func finishRound[T flatfile.Record[T]](out *flatfile.FlatFileVec[T], path string) error {
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(path+".tmp", path)
}

// PowSmallDenomForRound returns the normalization constant 123^(r/2) for
// even round r.
func PowSmallDenomForRound(r int) flatfile.Uint128 {
	return PowSmall(WallSize, r/2)
}

// CompactTsumo compacts the 36 round files already on disk into
// tsumo_13.dat/tsumo_14.dat, without re-running the DP rounds themselves.
func (p *Pipeline) CompactTsumo(ctx context.Context) error {
	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return err
	}
	p.Logger.Info("tsumo: compacting 13-tile table")
	if err := p.compactRounds(ctx, true, filepath.Join(p.OutDir, "tsumo_13.dat")); err != nil {
		return err
	}
	p.Logger.Info("tsumo: compacting 14-tile table")
	if err := p.compactRounds(ctx, false, filepath.Join(p.OutDir, "tsumo_14.dat")); err != nil {
		return err
	}
	return nil
}

// compactRounds reads every odd (if odd13) or even DP round's
// un-normalized counts and writes one Q32 fixed-point uint32 per hand id
// per persisted round into path: 18 records per id, draws_left = i+1
// (odd) or i (even).
func (p *Pipeline) compactRounds(ctx context.Context, odd13 bool, path string) error {
	var n int64
	if odd13 {
		n = int64(len(p.HC.Hand13))
	} else {
		n = int64(len(p.HC.Hand14))
	}
	out, err := flatfile.Create[flatfile.U32](path)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.SetLen(ctx, n*18); err != nil {
		return err
	}
	for k := 0; k < 18; k++ {
		r := 2 * k
		if odd13 {
			r = 2*k + 1
		}
		src, err := flatfile.OpenReadOnly[flatfile.Uint128](p.tsumoRoundPath(r))
		if err != nil {
			return err
		}
		denom := PowSmall(WallSize, (r+1)/2)
		err = src.Iterate(ctx, func(id int64, v flatfile.Uint128) error {
			return out.Set(ctx, id*18+int64(k), flatfile.U32(CompactU32(v, denom)))
		})
		src.Close()
		if err != nil {
			return err
		}
	}
	return out.Sync()
}

// RunMetrics runs the metrics DP to completion, reading RunTsumo's
// per-round files under TempDir/tsumo to re-derive each round's
// win-maximizing discard(s). Writes metrics_13.dat and metrics_14.dat into
// OutDir.
func (p *Pipeline) RunMetrics(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Join(p.TempDir, "metrics"), 0o755); err != nil {
		return err
	}
	agari := ConstructAgariMetrics(p.HC)

	if err := p.runMetricsRound(ctx, 0, agari); err != nil {
		return err
	}
	for r := 1; r < NumRounds; r++ {
		if err := p.runMetricsRound(ctx, r, agari); err != nil {
			return err
		}
	}
	return p.CompactMetrics(ctx)
}

func (p *Pipeline) runMetricsRound(ctx context.Context, r int, agari map[uint32]mahjong.Metrics) error {
	path := p.metricsRoundPath(r)
	if _, err := os.Stat(path); err == nil {
		p.Logger.Info("metrics: round already checkpointed, skipping", "round", r)
		return nil
	}
	p.Logger.Info("metrics: constructing round", "round", r)

	if r == 0 {
		out, err := flatfile.Create[mahjong.Metrics](path + ".tmp")
		if err != nil {
			return err
		}
		if err := Round0Metrics(ctx, p.HC, agari, out); err != nil {
			out.Close()
			return err
		}
		return finishRound(out, path)
	}

	prev, err := flatfile.OpenReadOnly[mahjong.Metrics](p.metricsRoundPath(r - 1))
	if err != nil {
		return err
	}
	defer prev.Close()

	var n int64
	var tsumo13 *flatfile.FlatFileVec[flatfile.Uint128]
	if r%2 == 1 {
		n = int64(len(p.HC.Hand13))
	} else {
		n = int64(len(p.HC.Hand14))
		tsumo13, err = flatfile.OpenReadOnly[flatfile.Uint128](p.tsumoRoundPath(r - 1))
		if err != nil {
			return err
		}
		defer tsumo13.Close()
	}

	out, err := flatfile.OpenOrCreate[mahjong.Metrics](path + ".tmp")
	if err != nil {
		return err
	}
	if err := out.SetLen(ctx, n); err != nil {
		out.Close()
		return err
	}

	stepErr := p.forEachShard(ctx, categoryMetrics, r, n, func(ctx context.Context, lo, hi int64) error {
		if r%2 == 1 {
			return StepDrawMetrics(ctx, p.HC, prev, out, lo, hi)
		}
		return StepDiscardMetrics(ctx, p.HC, tsumo13, prev, out, lo, hi)
	})
	if stepErr == nil && r%2 == 0 {
		stepErr = ApplyAgariMetricsAbsorption(ctx, agari, out)
	}
	if stepErr != nil {
		out.Close()
		return stepErr
	}
	return finishRound(out, path)
}

// CompactMetrics compacts the 36 round files already on disk into
// metrics_13.dat/metrics_14.dat, without re-running the DP rounds themselves.
func (p *Pipeline) CompactMetrics(ctx context.Context) error {
	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return err
	}
	p.Logger.Info("metrics: compacting 13-tile table")
	if err := p.compactMetricsRounds(ctx, true, filepath.Join(p.OutDir, "metrics_13.dat")); err != nil {
		return err
	}
	p.Logger.Info("metrics: compacting 14-tile table")
	if err := p.compactMetricsRounds(ctx, false, filepath.Join(p.OutDir, "metrics_14.dat")); err != nil {
		return err
	}
	return nil
}

// compactMetricsRounds copies the already-Q30-scaled per-round metrics
// tables into one flat file with 18 records per hand id, draws_left =
// i+1 (odd) or i (even). No further scaling: the metrics DP stays in
// Q30 fixed point throughout.
func (p *Pipeline) compactMetricsRounds(ctx context.Context, odd13 bool, path string) error {
	var n int64
	if odd13 {
		n = int64(len(p.HC.Hand13))
	} else {
		n = int64(len(p.HC.Hand14))
	}
	out, err := flatfile.Create[mahjong.Metrics](path)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.SetLen(ctx, n*18); err != nil {
		return err
	}
	for k := 0; k < 18; k++ {
		r := 2 * k
		if odd13 {
			r = 2*k + 1
		}
		src, err := flatfile.OpenReadOnly[mahjong.Metrics](p.metricsRoundPath(r))
		if err != nil {
			return err
		}
		err = src.Iterate(ctx, func(id int64, v mahjong.Metrics) error {
			return out.Set(ctx, id*18+int64(k), v)
		})
		src.Close()
		if err != nil {
			return err
		}
	}
	return out.Sync()
}

// Run executes the full pipeline: the tsumo DP (whose per-round files the
// metrics DP depends on), then the metrics DP.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.RunTsumo(ctx); err != nil {
		return err
	}
	return p.RunMetrics(ctx)
}
