package pbf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	w := NewWriter(64)
	w.Varint(1, 0)
	w.Varint(2, 127)
	w.Varint(3, 128)
	w.Varint(4, 1<<40)
	w.Varint(5, ^uint64(0))

	r := NewReader(w.Bytes())
	want := []uint64{0, 127, 128, 1 << 40, ^uint64(0)}
	for i, exp := range want {
		ok, err := r.Next()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint32(i+1), r.Tag())
		v, err := r.Varint()
		require.NoError(t, err)
		assert.Equal(t, exp, v)
	}
	ok, err := r.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestZigzag(t *testing.T) {
	cases := []int64{0, -1, 1, -2, 2, 1 << 40, -(1 << 40), 9223372036854775807, -9223372036854775808}
	for _, v := range cases {
		assert.Equal(t, v, UnzigzagInt64(ZigzagInt64(v)))
	}
	assert.Equal(t, uint64(1), ZigzagInt64(-1))
	assert.Equal(t, uint64(2), ZigzagInt64(1))
	assert.Equal(t, int32(-5), UnzigzagInt32(ZigzagInt32(-5)))
}

func TestSint64Field(t *testing.T) {
	w := NewWriter(16)
	w.Sint64(7, -1234)

	r := NewReader(w.Bytes())
	ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	v, err := r.Sint64()
	require.NoError(t, err)
	assert.Equal(t, int64(-1234), v)
}

func TestFixedAndFloatFields(t *testing.T) {
	w := NewWriter(64)
	w.Double(1, 3.25)
	w.Float(2, -1.5)
	w.Fixed64(3, 0xdeadbeefcafe)
	w.Fixed32(4, 0xabcdef01)

	r := NewReader(w.Bytes())

	ok, _ := r.Next()
	require.True(t, ok)
	d, err := r.Double()
	require.NoError(t, err)
	assert.Equal(t, 3.25, d)

	ok, _ = r.Next()
	require.True(t, ok)
	f, err := r.Float()
	require.NoError(t, err)
	assert.Equal(t, float32(-1.5), f)

	ok, _ = r.Next()
	require.True(t, ok)
	u64, err := r.Fixed64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xdeadbeefcafe), u64)

	ok, _ = r.Next()
	require.True(t, ok)
	u32, err := r.Fixed32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xabcdef01), u32)
}

func TestStringAndMessage(t *testing.T) {
	inner := NewWriter(16)
	inner.String(1, "hello")

	w := NewWriter(64)
	w.Message(3, inner.Bytes())

	r := NewReader(w.Bytes())
	ok, _ := r.Next()
	require.True(t, ok)
	assert.Equal(t, uint32(3), r.Tag())

	sub, err := r.Message()
	require.NoError(t, err)
	ok, _ = sub.Next()
	require.True(t, ok)
	s, err := sub.String()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestPackedUint32(t *testing.T) {
	vals := []uint32{9, 0, 300, 1 << 28}
	w := NewWriter(32)
	w.PackedUint32(4, vals)

	r := NewReader(w.Bytes())
	ok, _ := r.Next()
	require.True(t, ok)
	got, err := r.PackedUint32()
	require.NoError(t, err)
	assert.Equal(t, vals, got)
}

func TestSkipMixedFields(t *testing.T) {
	w := NewWriter(64)
	w.Varint(1, 42)
	w.String(2, "skipped")
	w.Double(3, 1.0)
	w.Fixed32(4, 7)
	w.Varint(5, 99)

	r := NewReader(w.Bytes())
	var last uint64
	for {
		ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		if r.Tag() == 5 {
			v, err := r.Varint()
			require.NoError(t, err)
			last = v
			continue
		}
		require.NoError(t, r.Skip())
	}
	assert.Equal(t, uint64(99), last)
}

func TestTruncatedVarint(t *testing.T) {
	r := NewReader([]byte{0x08, 0xff})
	ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	_, err = r.Varint()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOversizedLengthPrefix(t *testing.T) {
	// Field 1, wire type 2, declared length 100 with only 2 bytes behind it.
	r := NewReader([]byte{0x0a, 0x64, 0x01, 0x02})
	ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	_, err = r.Bytes()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestWireTypeMismatch(t *testing.T) {
	w := NewWriter(16)
	w.Varint(1, 5)
	r := NewReader(w.Bytes())
	ok, _ := r.Next()
	require.True(t, ok)
	_, err := r.Bytes()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestZeroTagRejected(t *testing.T) {
	r := NewReader([]byte{0x00})
	_, err := r.Next()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRawSplice(t *testing.T) {
	a := NewWriter(16)
	a.String(3, "layer-a")
	b := NewWriter(16)
	b.String(3, "layer-b")

	spliced := NewWriter(64)
	spliced.Raw(a.Bytes())
	spliced.Raw(b.Bytes())

	r := NewReader(spliced.Bytes())
	var names []string
	for {
		ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		s, err := r.String()
		require.NoError(t, err)
		names = append(names, s)
	}
	assert.Equal(t, []string{"layer-a", "layer-b"}, names)
}
