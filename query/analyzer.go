package query

import (
	"context"

	"github.com/hahho/tsumodp/flatfile"
	"github.com/hahho/tsumodp/mahjong"
)

// Artifacts names the on-disk paths of a completed build, plus the
// per-artifact reader pool size.
type Artifacts struct {
	Hand13Path    string
	Hand14Path    string
	Tsumo13Path   string
	Tsumo14Path   string
	Metrics13Path string
	Metrics14Path string
	PoolSize      int
}

// SharedAnalyzer serves tsumo-probability and per-dimension metrics
// queries over a completed artifact set. The hand converter is loaded
// once into memory and shared lock-free across concurrent callers; only
// the large per-round DP artifacts go through a ReaderPool, since those
// still do real disk I/O per query.
type SharedAnalyzer struct {
	hc *mahjong.HandConverter

	tsumo13Pool   *ReaderPool[flatfile.U32]
	tsumo14Pool   *ReaderPool[flatfile.U32]
	metrics13Pool *ReaderPool[mahjong.Metrics]
	metrics14Pool *ReaderPool[mahjong.Metrics]
}

// NewSharedAnalyzer opens every artifact's reader pool. The suited and
// honor lookup tables are not read from disk here: they're cheap,
// deterministic functions of fixed combinatorial rules, rebuilt at
// startup. Hand13/
// Hand14 are read fully into memory once, here, and then never touched
// again except by concurrent binary searches.
func NewSharedAnalyzer(a Artifacts) (*SharedAnalyzer, error) {
	hand13, err := mahjong.LoadHandLookup(a.Hand13Path)
	if err != nil {
		return nil, err
	}
	hand14, err := mahjong.LoadHandLookup(a.Hand14Path)
	if err != nil {
		return nil, err
	}
	sa := &SharedAnalyzer{
		hc: &mahjong.HandConverter{
			SuitedLookup: mahjong.BuildSuitedLookup(),
			HonorLookup:  mahjong.BuildHonorLookup(),
			Hand13:       hand13,
			Hand14:       hand14,
		},
	}
	if sa.tsumo13Pool, err = NewReaderPool[flatfile.U32](a.Tsumo13Path, a.PoolSize); err != nil {
		return nil, err
	}
	if sa.tsumo14Pool, err = NewReaderPool[flatfile.U32](a.Tsumo14Path, a.PoolSize); err != nil {
		sa.Close()
		return nil, err
	}
	if sa.metrics13Pool, err = NewReaderPool[mahjong.Metrics](a.Metrics13Path, a.PoolSize); err != nil {
		sa.Close()
		return nil, err
	}
	if sa.metrics14Pool, err = NewReaderPool[mahjong.Metrics](a.Metrics14Path, a.PoolSize); err != nil {
		sa.Close()
		return nil, err
	}
	return sa, nil
}

// Close closes every underlying reader pool that was successfully opened.
func (sa *SharedAnalyzer) Close() error {
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if sa.tsumo13Pool != nil {
		note(sa.tsumo13Pool.Close())
	}
	if sa.tsumo14Pool != nil {
		note(sa.tsumo14Pool.Close())
	}
	if sa.metrics13Pool != nil {
		note(sa.metrics13Pool.Close())
	}
	if sa.metrics14Pool != nil {
		note(sa.metrics14Pool.Close())
	}
	return firstErr
}

// TsumoCurve is the per-draws-left win probability, index i giving the
// probability of completing the hand within i+1 (13-tile) or i (14-tile)
// more draws.
type TsumoCurve [18]float64

// AnalyzeTsumo returns hand's tsumo-probability curve.
func (sa *SharedAnalyzer) AnalyzeTsumo(ctx context.Context, hand mahjong.Hand) (TsumoCurve, error) {
	var out TsumoCurve
	n := hand.NumTiles()
	if n != 13 && n != 14 {
		return out, mahjong.ErrInvalidHandLength
	}
	id := sa.hc.EncodeFast(hand)
	pool := sa.tsumo13Pool
	if n == 14 {
		pool = sa.tsumo14Pool
	}
	err := func() error {
		h, rel, err := pool.Acquire(ctx)
		if err != nil {
			return err
		}
		defer rel()
		for k := 0; k < 18; k++ {
			v, err := h.Get(ctx, int64(id)*18+int64(k))
			if err != nil {
				return err
			}
			out[k] = float64(v) / mahjong.Q32Divisor
		}
		return nil
	}()
	return out, err
}

// DimensionProbability is one structural dimension's expected-contribution
// value, with Dimension already translated back to hand's original suit
// labeling and orientation. HasHonorKind is set, and Honor names the
// concrete honor tile, when Dimension is a KotsuHonor/ToitsuHonor bucket
// re-expanded to the specific honor kind currently sitting at that bucket
// in the queried hand.
type DimensionProbability struct {
	Dimension    mahjong.Dimension
	HasHonorKind bool
	Honor        mahjong.HonorKind
	Value        float64
}

// AnalyzeMentsu returns the per-dimension metrics for hand at the given
// draws-left horizon (1..18 for a 13-tile hand, 0..17 for a 14-tile
// hand), expressed in terms of hand's own suit
// labeling rather than the internal canonical form. honorCounts is the
// hand's per-honor-kind tile count (see ParseHandStringWithHonorCounts):
// it is never persisted in the canonical id, so the caller must supply it
// to re-expand honor-bucket dimensions back to concrete honor kinds.
func (sa *SharedAnalyzer) AnalyzeMentsu(ctx context.Context, hand mahjong.Hand, honorCounts [7]uint8, drawsLeft int) ([]DimensionProbability, error) {
	n := hand.NumTiles()
	if n != 13 && n != 14 {
		return nil, mahjong.ErrInvalidHandLength
	}
	idx := drawsLeft
	if n == 13 {
		idx = drawsLeft - 1
	}
	if idx < 0 || idx > 17 {
		return nil, mahjong.ErrInvalidDrawsLeft
	}
	var out []DimensionProbability
	id, tr := sa.hc.Encode(hand)
	pool := sa.metrics13Pool
	if n == 14 {
		pool = sa.metrics14Pool
	}
	err := func() error {
		h, rel, err := pool.Acquire(ctx)
		if err != nil {
			return err
		}
		defer rel()
		rec, err := h.Get(ctx, int64(id)*18+int64(idx))
		if err != nil {
			return err
		}
		out = make([]DimensionProbability, 0, mahjong.NumDimensions)
		for d := 0; d < mahjong.NumDimensions; d++ {
			dim := mahjong.TranslateDimension(mahjong.DimensionByID(d), tr)
			switch dim.Kind {
			case mahjong.KotsuHonor, mahjong.ToitsuHonor:
				for k := 0; k < 7; k++ {
					if int(honorCounts[k]) != dim.Bucket {
						continue
					}
					out = append(out, DimensionProbability{
						Dimension:    dim,
						HasHonorKind: true,
						Honor:        mahjong.HonorKind(k),
						Value:        rec.Probability(d),
					})
				}
			default:
				out = append(out, DimensionProbability{Dimension: dim, Value: rec.Probability(d)})
			}
		}
		return nil
	}()
	return out, err
}
