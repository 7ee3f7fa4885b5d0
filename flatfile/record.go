// Package flatfile implements the fixed-record flat file abstraction: a
// random-access array-of-fixed-size-records file, the only persistent
// storage primitive the rest of this module uses.
package flatfile

import "encoding/binary"

// Record is a fixed-byte-size value with a little-endian encoding. T must
// implement Record[T] with value receivers so a zero T can report its own
// byte size without allocating a file handle.
type Record[T any] interface {
	// ByteSize is the constant on-disk size of a record of this type.
	ByteSize() int
	// Encode returns the little-endian encoding of the value.
	Encode() []byte
	// Decode parses buf (exactly ByteSize() bytes) into a T.
	Decode(buf []byte) T
}

// U32 is a Record wrapping a little-endian uint32, used for tsumo_13.dat
// and tsumo_14.dat records.
type U32 uint32

// ByteSize satisfies Record.
func (U32) ByteSize() int { return 4 }

// Encode satisfies Record.
func (v U32) Encode() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

// Decode satisfies Record.
func (U32) Decode(buf []byte) U32 {
	return U32(binary.LittleEndian.Uint32(buf))
}

// U64 is a Record wrapping a little-endian uint64, used for
// hand13_lookup/hand14_lookup entries.
type U64 uint64

// ByteSize satisfies Record.
func (U64) ByteSize() int { return 8 }

// Encode satisfies Record.
func (v U64) Encode() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return buf
}

// Decode satisfies Record.
func (U64) Decode(buf []byte) U64 {
	return U64(binary.LittleEndian.Uint64(buf))
}
