package pbf

import "math"

// Writer appends protobuf-encoded fields to an owned buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded buffer. The slice is owned by the writer
// until the caller takes it.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of encoded bytes.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) writeVarint(v uint64) {
	for v >= 0x80 {
		w.buf = append(w.buf, byte(v)|0x80)
		v >>= 7
	}
	w.buf = append(w.buf, byte(v))
}

func (w *Writer) writeKey(tag uint32, wire uint32) {
	w.writeVarint(uint64(tag)<<3 | uint64(wire))
}

// Varint writes an unsigned varint field.
func (w *Writer) Varint(tag uint32, v uint64) {
	w.writeKey(tag, WireVarint)
	w.writeVarint(v)
}

// Uint32 writes a uint32 varint field.
func (w *Writer) Uint32(tag uint32, v uint32) {
	w.Varint(tag, uint64(v))
}

// Bool writes a bool varint field.
func (w *Writer) Bool(tag uint32, v bool) {
	var u uint64
	if v {
		u = 1
	}
	w.Varint(tag, u)
}

// Sint64 writes a zig-zag encoded signed varint field.
func (w *Writer) Sint64(tag uint32, v int64) {
	w.Varint(tag, ZigzagInt64(v))
}

// Int64 writes a signed value as a plain (non-zigzag) varint field.
func (w *Writer) Int64(tag uint32, v int64) {
	w.Varint(tag, uint64(v))
}

// Fixed64 writes a little-endian uint64 field.
func (w *Writer) Fixed64(tag uint32, v uint64) {
	w.writeKey(tag, WireFixed64)
	for i := 0; i < 8; i++ {
		w.buf = append(w.buf, byte(v>>(8*i)))
	}
}

// Fixed32 writes a little-endian uint32 field.
func (w *Writer) Fixed32(tag uint32, v uint32) {
	w.writeKey(tag, WireFixed32)
	for i := 0; i < 4; i++ {
		w.buf = append(w.buf, byte(v>>(8*i)))
	}
}

// Double writes a float64 field.
func (w *Writer) Double(tag uint32, v float64) {
	w.Fixed64(tag, math.Float64bits(v))
}

// Float writes a float32 field.
func (w *Writer) Float(tag uint32, v float32) {
	w.Fixed32(tag, math.Float32bits(v))
}

// BytesField writes a length-delimited field.
func (w *Writer) BytesField(tag uint32, b []byte) {
	w.writeKey(tag, WireBytes)
	w.writeVarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// String writes a string field.
func (w *Writer) String(tag uint32, s string) {
	w.writeKey(tag, WireBytes)
	w.writeVarint(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// PackedUint32 writes a packed run of uint32 varints as one field.
func (w *Writer) PackedUint32(tag uint32, vals []uint32) {
	var n int
	for _, v := range vals {
		n += varintLen(uint64(v))
	}
	w.writeKey(tag, WireBytes)
	w.writeVarint(uint64(n))
	for _, v := range vals {
		w.writeVarint(uint64(v))
	}
}

// Message writes an already-encoded message as a length-delimited
// field. This is the splice entry point: a foreign layer's bytes are
// copied verbatim without re-parsing.
func (w *Writer) Message(tag uint32, body []byte) {
	w.BytesField(tag, body)
}

// Raw appends pre-encoded bytes, key and all, without framing. The
// caller is responsible for the bytes forming complete fields.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

func varintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
