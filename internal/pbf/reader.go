// Package pbf implements the small slice of the protocol buffer wire
// format that vector tiles use: varints, zig-zag signed integers,
// little-endian fixed-width scalars, and length-delimited messages
// iterated by field tag. The reader borrows from the caller's byte
// slice and never copies message bodies; the writer appends to an
// owned buffer and can splice already-encoded messages verbatim.
package pbf

import (
	"errors"
	"fmt"
	"math"
)

// Wire types from the protobuf encoding.
const (
	WireVarint  = 0
	WireFixed64 = 1
	WireBytes   = 2
	WireFixed32 = 5
)

// ErrCorrupt reports malformed wire data: truncated fields, oversized
// length prefixes, or unusable wire types.
var ErrCorrupt = errors.New("corrupt pbf data")

const maxVarintLen = 10

// Reader iterates the fields of a single protobuf message held in a
// borrowed byte slice.
type Reader struct {
	data []byte
	pos  int

	tag  uint32
	wire uint32
}

// NewReader returns a Reader over data. The slice is borrowed; it must
// not be mutated while the reader is in use.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Next advances to the next field and reports whether one exists.
// After a true return, Tag and WireType describe the field and one of
// the typed accessors must be called (or Skip) before calling Next
// again.
func (r *Reader) Next() (bool, error) {
	if r.pos >= len(r.data) {
		return false, nil
	}
	key, err := r.readVarint()
	if err != nil {
		return false, err
	}
	r.tag = uint32(key >> 3)
	r.wire = uint32(key & 0x7)
	if r.tag == 0 {
		return false, fmt.Errorf("%w: field tag 0", ErrCorrupt)
	}
	return true, nil
}

// Tag returns the field number of the current field.
func (r *Reader) Tag() uint32 { return r.tag }

// WireType returns the wire type of the current field.
func (r *Reader) WireType() uint32 { return r.wire }

// Pos returns the reader's byte offset into the underlying slice.
func (r *Reader) Pos() int { return r.pos }

func (r *Reader) readVarint() (uint64, error) {
	var v uint64
	var shift uint
	for i := 0; i < maxVarintLen; i++ {
		if r.pos >= len(r.data) {
			return 0, fmt.Errorf("%w: truncated varint", ErrCorrupt)
		}
		b := r.data[r.pos]
		r.pos++
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, nil
		}
		shift += 7
	}
	return 0, fmt.Errorf("%w: varint too long", ErrCorrupt)
}

// Varint reads the current field as an unsigned varint.
func (r *Reader) Varint() (uint64, error) {
	if r.wire != WireVarint {
		return 0, fmt.Errorf("%w: field %d has wire type %d, want varint", ErrCorrupt, r.tag, r.wire)
	}
	return r.readVarint()
}

// Uint32 reads the current varint field as a uint32.
func (r *Reader) Uint32() (uint32, error) {
	v, err := r.Varint()
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// Bool reads the current varint field as a bool.
func (r *Reader) Bool() (bool, error) {
	v, err := r.Varint()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Sint64 reads the current field as a zig-zag encoded signed varint.
func (r *Reader) Sint64() (int64, error) {
	v, err := r.Varint()
	if err != nil {
		return 0, err
	}
	return UnzigzagInt64(v), nil
}

// Fixed64 reads the current field as a little-endian uint64.
func (r *Reader) Fixed64() (uint64, error) {
	if r.wire != WireFixed64 {
		return 0, fmt.Errorf("%w: field %d has wire type %d, want fixed64", ErrCorrupt, r.tag, r.wire)
	}
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("%w: truncated fixed64", ErrCorrupt)
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(r.data[r.pos+i]) << (8 * i)
	}
	r.pos += 8
	return v, nil
}

// Fixed32 reads the current field as a little-endian uint32.
func (r *Reader) Fixed32() (uint32, error) {
	if r.wire != WireFixed32 {
		return 0, fmt.Errorf("%w: field %d has wire type %d, want fixed32", ErrCorrupt, r.tag, r.wire)
	}
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("%w: truncated fixed32", ErrCorrupt)
	}
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(r.data[r.pos+i]) << (8 * i)
	}
	r.pos += 4
	return v, nil
}

// Double reads the current fixed64 field as a float64.
func (r *Reader) Double() (float64, error) {
	v, err := r.Fixed64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Float reads the current fixed32 field as a float32.
func (r *Reader) Float() (float32, error) {
	v, err := r.Fixed32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Bytes returns a view of the current length-delimited field. The
// returned slice aliases the reader's underlying data.
func (r *Reader) Bytes() ([]byte, error) {
	if r.wire != WireBytes {
		return nil, fmt.Errorf("%w: field %d has wire type %d, want bytes", ErrCorrupt, r.tag, r.wire)
	}
	n, err := r.readVarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(r.data)-r.pos) {
		return nil, fmt.Errorf("%w: length prefix %d exceeds remaining %d bytes", ErrCorrupt, n, len(r.data)-r.pos)
	}
	b := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

// String reads the current length-delimited field as a string.
func (r *Reader) String() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Message returns a sub-reader over the current length-delimited
// field.
func (r *Reader) Message() (*Reader, error) {
	b, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	return NewReader(b), nil
}

// PackedUint32 reads the current length-delimited field as a packed
// run of uint32 varints.
func (r *Reader) PackedUint32() ([]uint32, error) {
	b, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	sub := NewReader(b)
	// A packed command stream averages under two bytes per entry.
	out := make([]uint32, 0, len(b)/2+1)
	for sub.pos < len(sub.data) {
		v, err := sub.readVarint()
		if err != nil {
			return nil, err
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

// Skip discards the current field's payload.
func (r *Reader) Skip() error {
	switch r.wire {
	case WireVarint:
		_, err := r.readVarint()
		return err
	case WireFixed64:
		if r.pos+8 > len(r.data) {
			return fmt.Errorf("%w: truncated fixed64", ErrCorrupt)
		}
		r.pos += 8
		return nil
	case WireBytes:
		_, err := r.Bytes()
		return err
	case WireFixed32:
		if r.pos+4 > len(r.data) {
			return fmt.Errorf("%w: truncated fixed32", ErrCorrupt)
		}
		r.pos += 4
		return nil
	default:
		return fmt.Errorf("%w: unknown wire type %d", ErrCorrupt, r.wire)
	}
}

// ZigzagInt64 encodes a signed value so small magnitudes stay small.
func ZigzagInt64(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// UnzigzagInt64 reverses ZigzagInt64.
func UnzigzagInt64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// ZigzagInt32 zig-zag encodes a 32-bit signed value.
func ZigzagInt32(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

// UnzigzagInt32 reverses ZigzagInt32.
func UnzigzagInt32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}
