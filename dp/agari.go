package dp

import "github.com/hahho/tsumodp/mahjong"

// AgariConfig is one concrete winning (agari) hand configuration: the
// 14-tile hand it produces, plus how many times each structural dimension
// occurs within this specific configuration (a repeated identical meld,
// e.g. two copies of the same run, occurs twice).
type AgariConfig struct {
	Hand           mahjong.Hand
	DimensionCount map[int]int
	// CanonicalAlready is set for configurations (the two thirteen-orphans
	// shapes) that are constructed once rather than enumerated across every
	// suit-labeling permutation: there is no sibling configuration that
	// canonicalizes to the identity translation to prefer instead, so
	// ConstructAgariMetrics must accept this one regardless of its
	// translation.
	CanonicalAlready bool
}

// meld slot layout: 0..20 suited runs, 21..47 suited triplets, 48 honor
// triplet signal.
const (
	numMeldSlots   = 49
	numMeldsPicked = 4
	numPairSlots   = 28 // 0..26 suited pairs, 27 honor pair signal
)

func meldSuitedRun(slot int) (suit mahjong.Suit, lowRank int, ok bool) {
	if slot < 0 || slot >= 21 {
		return 0, 0, false
	}
	return mahjong.Suit(slot / 7), slot % 7, true
}

func meldSuitedTriplet(slot int) (suit mahjong.Suit, rank int, ok bool) {
	if slot < 21 || slot >= 48 {
		return 0, 0, false
	}
	s := slot - 21
	return mahjong.Suit(s / 9), s % 9, true
}

// EnumerateAgari invokes f once per distinct winning 14-tile
// configuration: standard (four melds + pair), seven pairs, and the two
// thirteen-orphans shapes.
func EnumerateAgari(f func(cfg AgariConfig)) {
	enumerateStandard(f)
	enumerateSevenPairs(f)
	enumerateKokushi(f)
}

func enumerateStandard(f func(cfg AgariConfig)) {
	melds := NewCombinGen(numMeldSlots, numMeldsPicked)
	for melds.Next() {
		m := melds.Combination()
		var suited [3][9]int
		dims := map[int]int{}
		honorTriplets := 0
		for _, slot := range m {
			switch {
			case slot < 21:
				suit, lowRank, _ := meldSuitedRun(slot)
				suited[suit][lowRank]++
				suited[suit][lowRank+1]++
				suited[suit][lowRank+2]++
				dims[mahjong.ShuntsuID(suit, lowRank)]++
			case slot < 48:
				suit, rank, _ := meldSuitedTriplet(slot)
				suited[suit][rank] += 3
				dims[mahjong.KotsuSuitedID(suit, rank)]++
			default:
				honorTriplets++
				dims[mahjong.KotsuHonorID(3)]++
			}
		}
		for pair := 0; pair < numPairSlots; pair++ {
			pairSuited := suited
			pairDims := map[int]int{}
			for k, v := range dims {
				pairDims[k] = v
			}
			honorPair := 0
			if pair < 27 {
				suit, rank := mahjong.Suit(pair/9), pair%9
				pairSuited[suit][rank] += 2
				pairDims[mahjong.ToitsuSuitedID(suit, rank)]++
			} else {
				honorPair = 1
				pairDims[mahjong.ToitsuHonorID(2)]++
			}
			if honorTriplets+honorPair > 7 {
				continue
			}
			valid := true
			var h mahjong.Hand
			for s := 0; s < 3; s++ {
				for r := 0; r < 9; r++ {
					if pairSuited[s][r] > 4 {
						valid = false
					}
					h.Suited[s][r] = uint8(pairSuited[s][r])
				}
			}
			if !valid {
				continue
			}
			h.HonorMult[3] = uint8(honorTriplets)
			h.HonorMult[2] = uint8(honorPair)
			h.HonorMult[0] = uint8(7 - honorTriplets - honorPair)
			f(AgariConfig{Hand: h, DimensionCount: pairDims})
		}
	}
}

// numPairKinds is the number of seven-pairs tile kind indices (0..33):
// indices 0..26 are suited (suit*9+rank), 27..33 are honor kinds 0..6.
const numPairKinds = 34

func enumerateSevenPairs(f func(cfg AgariConfig)) {
	gen := NewSubsetGen(numPairKinds, 7)
	for gen.Next() {
		sub := gen.Subset()
		honorIdxs := []int{}
		suitedIdxs := []int{}
		for _, idx := range sub {
			if idx >= 27 {
				honorIdxs = append(honorIdxs, idx)
			} else {
				suitedIdxs = append(suitedIdxs, idx)
			}
		}
		if !contiguousFrom27(honorIdxs) {
			continue
		}
		var h mahjong.Hand
		dims := map[int]int{}
		for _, idx := range suitedIdxs {
			suit, rank := mahjong.Suit(idx/9), idx%9
			h.Suited[suit][rank] = 2
			dims[mahjong.ToitsuSuitedID(suit, rank)]++
		}
		m := len(honorIdxs)
		h.HonorMult[2] = uint8(m)
		h.HonorMult[0] = uint8(7 - m)
		if m > 0 {
			dims[mahjong.ToitsuHonorID(2)] += m
		}
		f(AgariConfig{Hand: h, DimensionCount: dims})
	}
}

// contiguousFrom27 reports whether idxs (sorted ascending by construction
// of SubsetGen) is exactly {27,...,27+len(idxs)-1} -- the single
// representative honor-kind choice used to avoid counting every
// permutation of "which honor kinds" as a distinct winning configuration.
func contiguousFrom27(idxs []int) bool {
	for i, v := range idxs {
		if v != 27+i {
			return false
		}
	}
	return true
}

func enumerateKokushi(f func(cfg AgariConfig)) {
	base := func() mahjong.Hand {
		var h mahjong.Hand
		for s := mahjong.Man; s <= mahjong.Sou; s++ {
			h.Suited[s][0] = 1
			h.Suited[s][8] = 1
		}
		return h
	}
	// form A: a suited terminal doubled, all seven honor kinds held once.
	hA := base()
	hA.Suited[mahjong.Man][0] = 2
	hA.HonorMult[1] = 7
	f(AgariConfig{
		Hand:             hA,
		DimensionCount:   map[int]int{mahjong.KokushiID: 1},
		CanonicalAlready: true,
	})
	// form B: an honor kind doubled, suited terminals held singly.
	hB := base()
	hB.HonorMult[1] = 6
	hB.HonorMult[2] = 1
	f(AgariConfig{
		Hand:             hB,
		DimensionCount:   map[int]int{mahjong.KokushiID: 1},
		CanonicalAlready: true,
	})
}
