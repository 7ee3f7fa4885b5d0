package dp

import (
	"context"
	"math"

	"github.com/hahho/tsumodp/flatfile"
	"github.com/hahho/tsumodp/mahjong"
)

// WallSize is the number of tiles outside a 13-tile hand: 136-13.
const WallSize = 123

// NumRounds is the number of half-rounds the DP advances: 36, alternating
// 14-tile (even) and 13-tile (odd) tables, yielding 18 persisted values
// per artifact.
const NumRounds = 36

// Round0 seeds the round-0 (14-tile) table: every agari configuration's
// id is set to 1 (already won), everything else to 0. out must already
// be created and will be grown to len(hc.Hand14) records.
func Round0(ctx context.Context, hc *mahjong.HandConverter, out *flatfile.FlatFileVec[flatfile.Uint128]) error {
	if err := out.SetLen(ctx, int64(len(hc.Hand14))); err != nil {
		return err
	}
	var setErr error
	EnumerateAgari(func(cfg AgariConfig) {
		if setErr != nil {
			return
		}
		id := hc.EncodeFast(cfg.Hand)
		setErr = out.Set(ctx, int64(id), flatfile.One128)
	})
	return setErr
}

// StepDraw computes dp13[i] for i in [lo,hi) from the previous round's
// 14-tile values in prev: the "odd-round" transition, integrating over
// every physical tile that could be drawn next.
func StepDraw(ctx context.Context, hc *mahjong.HandConverter, prev, out *flatfile.FlatFileVec[flatfile.Uint128], lo, hi int64) error {
	for i := lo; i < hi; i++ {
		h13, err := hc.Decode(ctx, uint32(i), 13)
		if err != nil {
			return err
		}
		var sum flatfile.Uint128
		var drawErr error
		h13.ForEachDraw(func(next mahjong.Hand, remaining int) {
			if drawErr != nil {
				return
			}
			id14 := hc.EncodeFast(next)
			v, err := prev.Get(ctx, int64(id14))
			if err != nil {
				drawErr = err
				return
			}
			sum = sum.Add(v.MulSmall(uint64(remaining)))
		})
		if drawErr != nil {
			return drawErr
		}
		if err := out.Set(ctx, i, sum); err != nil {
			return err
		}
	}
	return nil
}

// StepDiscard computes dp14[i] for i in [lo,hi) from the previous round's
// 13-tile values in prev: the "even-round" transition, taking the best
// (maximum) successor under optimal discard. Agari ids are NOT overwritten
// here -- call ApplyAgariAbsorption afterward once the whole round is
// written. The metrics DP's even-round step (StepDiscardMetrics) does not
// replay a recorded choice; it independently re-derives the same
// tied-maximal discard set from the same 13-tile tsumo table this step
// reads, so no discard policy is persisted here.
func StepDiscard(ctx context.Context, hc *mahjong.HandConverter, prev, out *flatfile.FlatFileVec[flatfile.Uint128], lo, hi int64) error {
	for i := lo; i < hi; i++ {
		h14, err := hc.Decode(ctx, uint32(i), 14)
		if err != nil {
			return err
		}
		var best flatfile.Uint128
		first := true
		var discardErr error
		h14.ForEachDiscard(func(next mahjong.Hand, _ int) {
			if discardErr != nil {
				return
			}
			id13 := hc.EncodeFast(next)
			v, err := prev.Get(ctx, int64(id13))
			if err != nil {
				discardErr = err
				return
			}
			if first || v.Compare(best) > 0 {
				best = v
				first = false
			}
		})
		if discardErr != nil {
			return discardErr
		}
		if err := out.Set(ctx, i, best); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAgariAbsorption overwrites every agari 14-id in out with denom,
// the round's normalization constant (123^(round/2)): an already-won
// hand's probability mass is absorbing.
func ApplyAgariAbsorption(ctx context.Context, hc *mahjong.HandConverter, out *flatfile.FlatFileVec[flatfile.Uint128], denom flatfile.Uint128) error {
	var setErr error
	EnumerateAgari(func(cfg AgariConfig) {
		if setErr != nil {
			return
		}
		id := hc.EncodeFast(cfg.Hand)
		setErr = out.Set(ctx, int64(id), denom)
	})
	return setErr
}

// CompactU32 saturating-converts an un-normalized count v (with
// denominator denom) to a Q32 fixed-point probability: floor((v << k) /
// (denom >> (32-k))) with k = min(v.LeadingZeros(), 32), saturating at
// math.MaxUint32. The left shift preserves precision for tiny
// probabilities that would otherwise underflow a naive v*2^32/denom.
func CompactU32(v, denom flatfile.Uint128) uint32 {
	if v.Compare(flatfile.Zero128) == 0 {
		return 0
	}
	k := v.LeadingZeros()
	if k > 32 {
		k = 32
	}
	shifted := v.Shl(k)
	divisor := denom.Shr(32 - k)
	if divisor.Hi != 0 {
		return math.MaxUint32
	}
	if divisor.Lo == 0 {
		return math.MaxUint32
	}
	if shifted.Hi >= divisor.Lo {
		return math.MaxUint32
	}
	q := shifted.DivU64(divisor.Lo)
	if q > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(q)
}

// BenchmarkHand is the repository's named regression fixture: a 13-tile
// hand with a well-known tsumo-probability golden value.
var BenchmarkHand = mustParseHand("678m56p233789s11z")

func mustParseHand(s string) mahjong.Hand {
	h, err := mahjong.ParseHandString(s)
	if err != nil {
		panic(err)
	}
	return h
}

// CheckMultiplicityLaw verifies the "14 tiles accounted for" invariant:
// sum over dimensions of metrics[d] * Multiplicity(d, honorMult) equals
// 14 * Q30Divisor, within the given absolute tolerance (rounding from 86
// independent saturating conversions accumulates some slack).
func CheckMultiplicityLaw(m mahjong.Metrics, honorMult [5]uint8, tolerance int64) bool {
	var sum int64
	for d := 0; d < mahjong.NumDimensions; d++ {
		dim := mahjong.DimensionByID(d)
		sum += int64(m.Values[d]) * int64(mahjong.Multiplicity(dim, honorMult))
	}
	want := int64(14) * mahjong.Q30Divisor
	diff := sum - want
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
