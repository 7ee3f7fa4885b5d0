package mahjong

// ParseHandString parses a right-to-left-scanned tile string of the form
// "678m56p233789s11z": each of m/p/s/z sets the active suit mode
// (man/pin/sou/honor) for the run of digits to its left, and digits 1..9
// emit a tile of the active mode with rank digit-1.
//
// This parser exists for CLI and test use -- hand-string pretty-printing
// for an external front-end is not part of this package's surface.
func ParseHandString(s string) (Hand, error) {
	h, _, err := ParseHandStringWithHonorCounts(s)
	return h, err
}

// ParseHandStringWithHonorCounts is ParseHandString plus the per-honor-kind
// tile count, for callers (the query surface) that need to expand a
// bucketed honor dimension back to the concrete honor kind it came from.
func ParseHandStringWithHonorCounts(s string) (Hand, [7]uint8, error) {
	tiles, err := parseTiles(s)
	if err != nil {
		return Hand{}, [7]uint8{}, err
	}
	return FromTilesWithHonorCounts(tiles)
}

// suitMode is the active suit while right-to-left scanning a tile string.
type suitMode int

const (
	noMode suitMode = iota - 1
	modeMan
	modePin
	modeSou
	modeHonor
)

// parseTiles does the raw right-to-left scan. Tile order within the
// result is irrelevant to every caller (FromTiles only tallies counts),
// so digits are emitted in scan order without re-reversing them.
func parseTiles(s string) ([]Tile, error) {
	var tiles []Tile
	var pending []int
	mode := noMode
	flush := func() error {
		if mode == noMode {
			if len(pending) != 0 {
				return ErrMalformedTileString
			}
			return nil
		}
		for _, d := range pending {
			if mode == modeHonor {
				if d < 0 || d > 6 {
					return ErrMalformedTileString
				}
				tiles = append(tiles, HonorTile(HonorKind(d)))
			} else {
				tiles = append(tiles, Suited(Suit(mode), d))
			}
		}
		pending = pending[:0]
		return nil
	}
	for i := len(s) - 1; i >= 0; i-- {
		switch c := s[i]; c {
		case 'm', 'p', 's', 'z':
			if err := flush(); err != nil {
				return nil, err
			}
			switch c {
			case 'm':
				mode = modeMan
			case 'p':
				mode = modePin
			case 's':
				mode = modeSou
			case 'z':
				mode = modeHonor
			}
		default:
			if c < '1' || c > '9' {
				return nil, ErrMalformedTileString
			}
			pending = append(pending, int(c-'1'))
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return tiles, nil
}
