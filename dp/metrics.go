package dp

import (
	"context"

	"github.com/hahho/tsumodp/flatfile"
	"github.com/hahho/tsumodp/mahjong"
)

// identityTranslation is the no-op Translation: canonical suit c is
// original suit c, unreversed.
var identityTranslation = mahjong.Translation{0, 1, 2}

// ConstructAgariMetrics computes the round-0 per-dimension expectation for
// every distinct agari id. Several winning configurations can canonicalize
// to the same 14-id (the same shape reached by different melds, or a
// hand whose honor-bucket collapse hides which physical kinds paired up);
// in that case a dimension's value is the occurrence count summed across
// every configuration realizing that id, divided by the number of such
// configurations -- not a binary "does some configuration contain it"
// flag, which would break the 14-tiles-accounted-for law whenever a
// single shape contains the same dimension twice (an iipeikou-style
// double run). Configurations are only counted from the one raw labeling
// that already canonicalizes to the identity translation, mirroring how
// the shape's id itself is computed; the two thirteen-orphans shapes are
// constructed once and bypass this check (see AgariConfig.CanonicalAlready).
func ConstructAgariMetrics(hc *mahjong.HandConverter) map[uint32]mahjong.Metrics {
	sums := make(map[uint32]*[mahjong.NumDimensions]int64)
	counts := make(map[uint32]int64)
	EnumerateAgari(func(cfg AgariConfig) {
		var id uint32
		if cfg.CanonicalAlready {
			id = hc.EncodeFast(cfg.Hand)
		} else {
			var tr mahjong.Translation
			id, tr = hc.Encode(cfg.Hand)
			if tr != identityTranslation {
				// cfg.Hand's raw suit/rank labeling only matches its own
				// DimensionCount when the canonicalization is a no-op; every
				// agari shape is also enumerated in a labeling that does
				// canonicalize to the identity, so skipping the rest avoids
				// double counting without losing any shape.
				return
			}
		}
		s, ok := sums[id]
		if !ok {
			s = &[mahjong.NumDimensions]int64{}
			sums[id] = s
		}
		for d, n := range cfg.DimensionCount {
			s[d] += int64(n)
		}
		counts[id]++
	})
	out := make(map[uint32]mahjong.Metrics, len(sums))
	for id, s := range sums {
		k := counts[id]
		var m mahjong.Metrics
		for d := 0; d < mahjong.NumDimensions; d++ {
			m.Values[d] = uint32((s[d] * mahjong.Q30Divisor) / k)
		}
		out[id] = m
	}
	return out
}

// Round0Metrics seeds the round-0 (14-tile) metrics table from a
// precomputed agari map, growing out to len(hc.Hand14) records (all
// non-agari ids left zero).
func Round0Metrics(ctx context.Context, hc *mahjong.HandConverter, agari map[uint32]mahjong.Metrics, out *flatfile.FlatFileVec[mahjong.Metrics]) error {
	if err := out.SetLen(ctx, int64(len(hc.Hand14))); err != nil {
		return err
	}
	for id, m := range agari {
		if err := out.Set(ctx, int64(id), m); err != nil {
			return err
		}
	}
	return nil
}

// rebaseInto adds weight*v.Values[d], translated from v's own canonical
// frame back into the current id's frame via tr, into acc. v is a
// successor's stored Metrics: its dimension ids are expressed in that
// successor's own canonical labeling, which generally differs from the
// hand being accumulated into, so each dimension must be relabeled before
// it can be summed into acc.
func rebaseInto(acc *[mahjong.NumDimensions]uint64, v mahjong.Metrics, tr mahjong.Translation, weight uint64) {
	for d := 0; d < mahjong.NumDimensions; d++ {
		rebased := mahjong.TranslateDimension(mahjong.DimensionByID(d), tr)
		acc[mahjong.DimensionID(rebased)] += weight * uint64(v.Values[d])
	}
}

// StepDrawMetrics computes metrics13[i] for i in [lo,hi): the odd-round
// transition, a wall-weighted average (not a sum -- metrics are
// expectations, not un-normalized counts like the tsumo DP) over every
// draw of the previous round's 14-tile metrics. Each draw's successor is
// canonicalized in its own right, so its stored dimension values are
// rebased through the resulting Translation before being folded into i's
// own frame.
func StepDrawMetrics(ctx context.Context, hc *mahjong.HandConverter, prev, out *flatfile.FlatFileVec[mahjong.Metrics], lo, hi int64) error {
	for i := lo; i < hi; i++ {
		h13, err := hc.Decode(ctx, uint32(i), 13)
		if err != nil {
			return err
		}
		var acc [mahjong.NumDimensions]uint64
		var total uint64
		var drawErr error
		h13.ForEachDraw(func(next mahjong.Hand, remaining int) {
			if drawErr != nil {
				return
			}
			id14, tr := hc.Encode(next)
			v, err := prev.Get(ctx, int64(id14))
			if err != nil {
				drawErr = err
				return
			}
			rebaseInto(&acc, v, tr, uint64(remaining))
			total += uint64(remaining)
		})
		if drawErr != nil {
			return drawErr
		}
		var m mahjong.Metrics
		if total > 0 {
			for d := range m.Values {
				m.Values[d] = uint32(acc[d] / total)
			}
		}
		if err := out.Set(ctx, i, m); err != nil {
			return err
		}
	}
	return nil
}

// StepDiscardMetrics computes metrics14[i] for i in [lo,hi) by
// independently re-deriving the tsumo DP's win-maximizing discard(s) from
// tsumo13 (that round's already-computed 13-tile tsumo table): every
// discard reaching a tied-maximal successor contributes to a
// mult-weighted average of that successor's (rebased) metrics, not just
// the first one found. Dimension expectations always follow the strategy
// that maximizes tsumo probability, not a strategy that separately
// maximizes some dimension; where more than one discard ties for that
// maximum, the metrics DP reports their mean. Agari ids are overwritten
// afterward by ApplyAgariMetricsAbsorption.
func StepDiscardMetrics(ctx context.Context, hc *mahjong.HandConverter, tsumo13 *flatfile.FlatFileVec[flatfile.Uint128], prev, out *flatfile.FlatFileVec[mahjong.Metrics], lo, hi int64) error {
	for i := lo; i < hi; i++ {
		h14, err := hc.Decode(ctx, uint32(i), 14)
		if err != nil {
			return err
		}
		var best flatfile.Uint128
		var acc [mahjong.NumDimensions]uint64
		var total uint64
		first := true
		var stepErr error
		h14.ForEachDiscard(func(next mahjong.Hand, mult int) {
			if stepErr != nil {
				return
			}
			id13, tr := hc.Encode(next)
			p, err := tsumo13.Get(ctx, int64(id13))
			if err != nil {
				stepErr = err
				return
			}
			switch {
			case first || p.Compare(best) > 0:
				best = p
				first = false
				acc = [mahjong.NumDimensions]uint64{}
				total = 0
				fallthrough
			case p.Compare(best) == 0:
				m, err := prev.Get(ctx, int64(id13))
				if err != nil {
					stepErr = err
					return
				}
				rebaseInto(&acc, m, tr, uint64(mult))
				total += uint64(mult)
			}
		})
		if stepErr != nil {
			return stepErr
		}
		var v mahjong.Metrics
		if total > 0 {
			for d := range v.Values {
				v.Values[d] = uint32(acc[d] / total)
			}
		}
		if err := out.Set(ctx, i, v); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAgariMetricsAbsorption overwrites every agari 14-id in out with its
// own round-0 dimension expectations: an already-won hand's composition
// doesn't change because more draws remain.
func ApplyAgariMetricsAbsorption(ctx context.Context, agari map[uint32]mahjong.Metrics, out *flatfile.FlatFileVec[mahjong.Metrics]) error {
	for id, m := range agari {
		if err := out.Set(ctx, int64(id), m); err != nil {
			return err
		}
	}
	return nil
}
