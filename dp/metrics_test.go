package dp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hahho/tsumodp/flatfile"
	"github.com/hahho/tsumodp/mahjong"
)

func TestStepDrawMetricsWeightedAverage(t *testing.T) {
	hc, win, some13 := buildTinyTsumoConverter(t)
	ctx := context.Background()
	dir := t.TempDir()

	prev, err := flatfile.Create[mahjong.Metrics](filepath.Join(dir, "m0.dat"))
	if err != nil {
		t.Fatal(err)
	}
	defer prev.Close()
	if err := prev.SetLen(ctx, int64(len(hc.Hand14))); err != nil {
		t.Fatal(err)
	}
	// Put a hand-crafted metrics vector on win's round-0 entry: a single
	// dimension carries the full Q30Divisor mass so the weighted average
	// is easy to check by hand. KokushiID is suit-independent, so its
	// value survives the translation rebasing StepDrawMetrics now applies
	// regardless of how win's successor happens to canonicalize.
	winID := hc.EncodeFast(win)
	var seeded mahjong.Metrics
	seeded.Values[mahjong.KokushiID] = mahjong.Q30Divisor
	if err := prev.Set(ctx, int64(winID), seeded); err != nil {
		t.Fatal(err)
	}

	out, err := flatfile.Create[mahjong.Metrics](filepath.Join(dir, "m1.dat"))
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if err := out.SetLen(ctx, int64(len(hc.Hand13))); err != nil {
		t.Fatal(err)
	}

	some13ID := hc.EncodeFast(some13)
	if err := StepDrawMetrics(ctx, hc, prev, out, int64(some13ID), int64(some13ID)+1); err != nil {
		t.Fatal(err)
	}

	got, err := out.Get(ctx, int64(some13ID))
	if err != nil {
		t.Fatal(err)
	}
	// some13 has at least one draw target reaching win (the seeded
	// entry), and every other draw target is zero, so the weighted
	// average must land strictly between 0 and Q30Divisor, never
	// exceeding it (a convex combination of 0s and Q30Divisor).
	if got.Values[mahjong.KokushiID] == 0 {
		t.Error("StepDrawMetrics produced zero mass for a hand one draw from the seeded entry")
	}
	if got.Values[mahjong.KokushiID] > mahjong.Q30Divisor {
		t.Errorf("StepDrawMetrics produced %d, exceeds Q30Divisor", got.Values[mahjong.KokushiID])
	}
	for d := 0; d < mahjong.NumDimensions; d++ {
		if d == mahjong.KokushiID {
			continue
		}
		if got.Values[d] != 0 {
			t.Errorf("dimension %d got nonzero mass %d, want 0 (only KokushiID was seeded)", d, got.Values[d])
		}
	}
}

// TestStepDiscardMetricsSingleMaximalDiscard exercises the non-tied case:
// exactly one of win's discards reaches the round's maximal tsumo13 value,
// so metrics14[winID] must equal that discard's (KokushiID-seeded, hence
// translation-invariant) metrics exactly.
func TestStepDiscardMetricsSingleMaximalDiscard(t *testing.T) {
	hc, win, some13 := buildTinyTsumoConverter(t)
	ctx := context.Background()
	dir := t.TempDir()
	winID := hc.EncodeFast(win)
	some13ID := hc.EncodeFast(some13)

	tsumo13, err := flatfile.Create[flatfile.Uint128](filepath.Join(dir, "tsumo13.dat"))
	if err != nil {
		t.Fatal(err)
	}
	defer tsumo13.Close()
	if err := tsumo13.SetLen(ctx, int64(len(hc.Hand13))); err != nil {
		t.Fatal(err)
	}
	// Make some13 the unique maximal discard: every other discard of win
	// defaults to zero.
	if err := tsumo13.Set(ctx, int64(some13ID), flatfile.NewUint128(100)); err != nil {
		t.Fatal(err)
	}

	prev, err := flatfile.Create[mahjong.Metrics](filepath.Join(dir, "m13.dat"))
	if err != nil {
		t.Fatal(err)
	}
	defer prev.Close()
	if err := prev.SetLen(ctx, int64(len(hc.Hand13))); err != nil {
		t.Fatal(err)
	}
	var seeded mahjong.Metrics
	seeded.Values[mahjong.KokushiID] = 42
	if err := prev.Set(ctx, int64(some13ID), seeded); err != nil {
		t.Fatal(err)
	}

	out, err := flatfile.Create[mahjong.Metrics](filepath.Join(dir, "m14.dat"))
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if err := out.SetLen(ctx, int64(len(hc.Hand14))); err != nil {
		t.Fatal(err)
	}
	if err := StepDiscardMetrics(ctx, hc, tsumo13, prev, out, int64(winID), int64(winID)+1); err != nil {
		t.Fatal(err)
	}

	got, err := out.Get(ctx, int64(winID))
	if err != nil {
		t.Fatal(err)
	}
	if got.Values[mahjong.KokushiID] != 42 {
		t.Errorf("StepDiscardMetrics got Values[KokushiID]=%d, want 42 (the unique maximal discard's value)", got.Values[mahjong.KokushiID])
	}
}

// TestStepDiscardMetricsAveragesTiedDiscards sets every one of win's
// discards to the same maximal tsumo13 value, forcing a tie across win's
// entire discard neighborhood, and checks the resulting metrics value is
// the mult-weighted mean across all of them rather than just the first
// one found.
func TestStepDiscardMetricsAveragesTiedDiscards(t *testing.T) {
	hc, win, _ := buildTinyTsumoConverter(t)
	ctx := context.Background()
	dir := t.TempDir()
	winID := hc.EncodeFast(win)

	tsumo13, err := flatfile.Create[flatfile.Uint128](filepath.Join(dir, "tsumo13.dat"))
	if err != nil {
		t.Fatal(err)
	}
	defer tsumo13.Close()
	if err := tsumo13.SetLen(ctx, int64(len(hc.Hand13))); err != nil {
		t.Fatal(err)
	}

	prev, err := flatfile.Create[mahjong.Metrics](filepath.Join(dir, "m13.dat"))
	if err != nil {
		t.Fatal(err)
	}
	defer prev.Close()
	if err := prev.SetLen(ctx, int64(len(hc.Hand13))); err != nil {
		t.Fatal(err)
	}

	var totalMult, weightedSum uint64
	win.ForEachDiscard(func(next mahjong.Hand, mult int) {
		id13 := hc.EncodeFast(next)
		if err := tsumo13.Set(ctx, int64(id13), flatfile.NewUint128(1)); err != nil {
			t.Fatal(err)
		}
		var m mahjong.Metrics
		m.Values[mahjong.KokushiID] = uint32(id13 % 7)
		if err := prev.Set(ctx, int64(id13), m); err != nil {
			t.Fatal(err)
		}
		totalMult += uint64(mult)
		weightedSum += uint64(mult) * uint64(id13%7)
	})
	want := uint32(weightedSum / totalMult)

	out, err := flatfile.Create[mahjong.Metrics](filepath.Join(dir, "m14.dat"))
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if err := out.SetLen(ctx, int64(len(hc.Hand14))); err != nil {
		t.Fatal(err)
	}
	if err := StepDiscardMetrics(ctx, hc, tsumo13, prev, out, int64(winID), int64(winID)+1); err != nil {
		t.Fatal(err)
	}

	got, err := out.Get(ctx, int64(winID))
	if err != nil {
		t.Fatal(err)
	}
	if got.Values[mahjong.KokushiID] != want {
		t.Errorf("StepDiscardMetrics got Values[KokushiID]=%d, want %d (mult-weighted mean across every tied discard)", got.Values[mahjong.KokushiID], want)
	}
}

func TestApplyAgariMetricsAbsorptionOverwrites(t *testing.T) {
	hc, win, _ := buildTinyTsumoConverter(t)
	ctx := context.Background()
	dir := t.TempDir()
	out, err := flatfile.Create[mahjong.Metrics](filepath.Join(dir, "m.dat"))
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if err := out.SetLen(ctx, int64(len(hc.Hand14))); err != nil {
		t.Fatal(err)
	}

	winID := hc.EncodeFast(win)
	var stale mahjong.Metrics
	stale.Values[0] = 7
	if err := out.Set(ctx, int64(winID), stale); err != nil {
		t.Fatal(err)
	}

	var agariValue mahjong.Metrics
	agariValue.Values[0] = mahjong.Q30Divisor
	agari := map[uint32]mahjong.Metrics{winID: agariValue}
	if err := ApplyAgariMetricsAbsorption(ctx, agari, out); err != nil {
		t.Fatal(err)
	}

	got, err := out.Get(ctx, int64(winID))
	if err != nil {
		t.Fatal(err)
	}
	if got.Values[0] != mahjong.Q30Divisor {
		t.Errorf("ApplyAgariMetricsAbsorption left Values[0]=%d, want %d", got.Values[0], mahjong.Q30Divisor)
	}
}
