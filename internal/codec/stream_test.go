package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDateTimeOffsetSpec(t *testing.T) {
	var w streamWriter
	w.i64(2458850)
	w.u32(10 * 60 * 60 * 1000)
	w.i8(specOffset)
	w.i32(3600)
	require.NoError(t, w.err)

	r := newStreamReader(w.buf.Bytes())
	got := r.dateTime()
	require.NoError(t, r.err)
	assert.True(t, r.atEnd())
	assert.True(t, got.Equal(time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)), "got %v", got)
}

func TestStreamDateTimeBeforeEpoch(t *testing.T) {
	want := time.Date(1969, 12, 31, 23, 59, 59, 0, time.UTC)

	var w streamWriter
	w.dateTime(want)
	r := newStreamReader(w.buf.Bytes())
	got := r.dateTime()
	require.NoError(t, r.err)
	assert.True(t, got.Equal(want), "got %v", got)
}

func TestStreamDateTimeBadSpec(t *testing.T) {
	var w streamWriter
	w.i64(2458850)
	w.u32(0)
	w.i8(9)

	r := newStreamReader(w.buf.Bytes())
	assert.True(t, r.dateTime().IsZero())
	assert.ErrorIs(t, r.err, ErrCorrupt)
}

func TestStreamStringOddLength(t *testing.T) {
	r := newStreamReader([]byte{0, 0, 0, 3, 'a', 'b', 'c'})
	assert.Equal(t, "", r.str())
	assert.ErrorIs(t, r.err, ErrCorrupt)
}

func TestStreamStickyError(t *testing.T) {
	r := newStreamReader([]byte{0, 0})
	assert.Zero(t, r.u32())
	assert.ErrorIs(t, r.err, ErrShortRead)
	assert.Nil(t, r.bytes())
	assert.True(t, r.atEnd())
}

func TestStreamSurrogatePairs(t *testing.T) {
	var w streamWriter
	w.str("a😀")
	// 1 + 2 code units
	assert.Equal(t, []byte{0, 0, 0, 6, 0x00, 'a', 0xd8, 0x3d, 0xde, 0x00}, w.buf.Bytes())

	r := newStreamReader(w.buf.Bytes())
	assert.Equal(t, "a😀", r.str())
}
