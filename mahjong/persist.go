package mahjong

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hahho/tsumodp/flatfile"
)

// headerName, hand13Name, and hand14Name are the fixed filenames a
// converter directory holds: a small self-describing binary header for
// suited_lookup/honor_lookup, plus the two large flat-file hand lookups.
const (
	headerName = "converter.dat"
	hand13Name = "hand13_lookup.dat"
	hand14Name = "hand14_lookup.dat"
)

// ConverterExists reports whether SaveConverter has already written a
// converter to dir, for CLI-level resumability checks.
func ConverterExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, headerName))
	return err == nil
}

// BuildConverter runs BuildSuitedLookup, BuildHonorLookup, and
// BuildHandLookup (for both 13 and 14 tiles) and returns the in-memory
// lookup tables, without touching disk.
func BuildConverter() (suitedLookup, honorLookup []uint32, hand13, hand14 []uint64) {
	suitedLookup = BuildSuitedLookup()
	honorLookup = BuildHonorLookup()
	hand13 = BuildHandLookup(suitedLookup, honorLookup, 13)
	hand14 = BuildHandLookup(suitedLookup, honorLookup, 14)
	return
}

// BuildConverterOver builds a converter restricted to the closed universe
// of suited/honor patterns reachable from hands: a fixture-scale substitute
// for BuildConverter, for tests that need a real HandConverter without
// running the full ~million-id production build.
func BuildConverterOver(hands []Hand) (suitedLookup, honorLookup []uint32, hand13, hand14 []uint64) {
	suitedSet := make(map[uint32]bool)
	honorSet := make(map[uint32]bool)
	for _, h := range hands {
		for s := 0; s < 3; s++ {
			p := packSuited(h.Suited[s])
			q := packSuited(reverseSuited(h.Suited[s]))
			if p <= q {
				suitedSet[p] = true
			} else {
				suitedSet[q] = true
			}
		}
		honorSet[packHonor(h.HonorMult)] = true
	}
	for v := range suitedSet {
		suitedLookup = append(suitedLookup, v)
	}
	for v := range honorSet {
		honorLookup = append(honorLookup, v)
	}
	sort.Slice(suitedLookup, func(i, j int) bool { return suitedLookup[i] < suitedLookup[j] })
	sort.Slice(honorLookup, func(i, j int) bool { return honorLookup[i] < honorLookup[j] })

	hand13 = BuildHandLookup(suitedLookup, honorLookup, 13)
	hand14 = BuildHandLookup(suitedLookup, honorLookup, 14)
	return
}

// SaveConverter writes a freshly built converter to dir: a length-prefixed
// binary header for the small suited/honor lookups (converter.dat) and two
// flat files for the large hand13/hand14 lookups. Any stable encoding
// would do here; encoding/binary keeps the header free of a third-party
// serialization dependency for a few hundred thousand uint32s.
func SaveConverter(dir string, suitedLookup, honorLookup []uint32, hand13, hand14 []uint64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeHeader(filepath.Join(dir, headerName), suitedLookup, honorLookup); err != nil {
		return err
	}
	if err := writeU64Lookup(filepath.Join(dir, hand13Name), hand13); err != nil {
		return err
	}
	return writeU64Lookup(filepath.Join(dir, hand14Name), hand14)
}

func writeHeader(path string, suitedLookup, honorLookup []uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeU32Slice(w, suitedLookup); err != nil {
		f.Close()
		return err
	}
	if err := writeU32Slice(w, honorLookup); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeU32Slice(w io.Writer, vals []uint32) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(vals))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, vals)
}

func writeU64Lookup(path string, vals []uint64) error {
	v, err := flatfile.Create[flatfile.U64](path)
	if err != nil {
		return err
	}
	out := make([]flatfile.U64, len(vals))
	for i, x := range vals {
		out[i] = flatfile.U64(x)
	}
	if err := v.Extend(context.Background(), out); err != nil {
		v.Close()
		return err
	}
	if err := v.Sync(); err != nil {
		v.Close()
		return err
	}
	return v.Close()
}

// LoadConverter opens a converter directory SaveConverter previously
// wrote, returning a ready-to-use HandConverter. Hand13/Hand14 are read
// fully into memory: once built, the DP and query layers only ever
// binary-search these tables, and a read-only in-memory slice needs no
// locking where a live flatfile handle would.
func LoadConverter(dir string) (*HandConverter, error) {
	suitedLookup, honorLookup, err := readHeader(filepath.Join(dir, headerName))
	if err != nil {
		return nil, err
	}
	hand13, err := LoadHandLookup(filepath.Join(dir, hand13Name))
	if err != nil {
		return nil, err
	}
	hand14, err := LoadHandLookup(filepath.Join(dir, hand14Name))
	if err != nil {
		return nil, err
	}
	return &HandConverter{
		SuitedLookup: suitedLookup,
		HonorLookup:  honorLookup,
		Hand13:       hand13,
		Hand14:       hand14,
	}, nil
}

// LoadHandLookup reads one hand13/hand14 flat-file lookup table fully
// into memory, for callers (such as a query-serving process) that hold
// a HandConverter without going through LoadConverter's directory
// convention.
func LoadHandLookup(path string) ([]uint64, error) {
	v, err := flatfile.OpenReadOnly[flatfile.U64](filepath.Join(path))
	if err != nil {
		return nil, err
	}
	defer v.Close()
	n := v.Len()
	out := make([]uint64, n)
	raw, err := v.GetRange(context.Background(), 0, n)
	if err != nil {
		return nil, err
	}
	for i, x := range raw {
		out[i] = uint64(x)
	}
	return out, nil
}

func readHeader(path string) (suitedLookup, honorLookup []uint32, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	if suitedLookup, err = readU32Slice(r); err != nil {
		return nil, nil, err
	}
	if honorLookup, err = readU32Slice(r); err != nil {
		return nil, nil, err
	}
	return suitedLookup, honorLookup, nil
}

func readU32Slice(r io.Reader) ([]uint32, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}
