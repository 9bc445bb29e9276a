package utils

import (
	"encoding/binary"
)

// Encoder writes the fixed-width little-endian binary layout used for every
// hashed payload (block headers and transactions). Strings and byte slices are
// prefixed with their length as a u64, sequences with their element count.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder with capacity hint n
func NewEncoder(n int) *Encoder {
	return &Encoder{buf: make([]byte, 0, n)}
}

func (e *Encoder) Uint64(v uint64) *Encoder {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
	return e
}

func (e *Encoder) Int64(v int64) *Encoder {
	return e.Uint64(uint64(v))
}

func (e *Encoder) Int32(v int32) *Encoder {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v))
	return e
}

// Uint128 writes a 128-bit unsigned integer whose high 64 bits are zero
func (e *Encoder) Uint128(v uint64) *Encoder {
	return e.Uint64(v).Uint64(0)
}

// Len writes a sequence length
func (e *Encoder) Len(n int) *Encoder {
	return e.Uint64(uint64(n))
}

func (e *Encoder) Bytes(b []byte) *Encoder {
	e.Len(len(b))
	e.buf = append(e.buf, b...)
	return e
}

func (e *Encoder) String(s string) *Encoder {
	e.Len(len(s))
	e.buf = append(e.buf, s...)
	return e
}

// Encoded returns the accumulated payload
func (e *Encoder) Encoded() []byte {
	return e.buf
}
