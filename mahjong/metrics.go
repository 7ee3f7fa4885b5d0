package mahjong

import "encoding/binary"

// Q30Divisor is the fixed-point divisor for metrics probabilities.
const Q30Divisor = 1 << 30

// Q32Divisor is the fixed-point divisor for tsumo probabilities.
const Q32Divisor = 1 << 32

// Metrics is one record of the metrics DP: a Q30 fixed-point "expected
// contribution mass" value for each of the 86 structural dimensions.
type Metrics struct {
	Values [NumDimensions]uint32
}

// ByteSize satisfies flatfile.Record.
func (Metrics) ByteSize() int { return NumDimensions * 4 }

// Encode satisfies flatfile.Record.
func (m Metrics) Encode() []byte {
	buf := make([]byte, NumDimensions*4)
	for i, v := range m.Values {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

// Decode satisfies flatfile.Record.
func (Metrics) Decode(buf []byte) Metrics {
	var m Metrics
	for i := range m.Values {
		m.Values[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return m
}

// Probability returns the dimension's value as a [0,1] probability.
func (m Metrics) Probability(dim int) float64 {
	return float64(m.Values[dim]) / Q30Divisor
}
