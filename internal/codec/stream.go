package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf16"
)

var (
	// ErrShortRead is returned when the input ends inside a value.
	ErrShortRead = errors.New("codec: read past end of data")

	// ErrCorrupt is returned when the input holds a value that cannot be
	// valid.
	ErrCorrupt = errors.New("codec: corrupt data")
)

const (
	nullLength = math.MaxUint32

	// Julian day of 1970-01-01.
	unixEpochJulianDay = 2440588
	nullJulianDay      = math.MinInt64
	nullMsecs          = math.MaxUint32
	msecsPerDay        = 24 * 60 * 60 * 1000

	specLocal  = 0
	specUTC    = 1
	specOffset = 2
	specZone   = 3
)

// streamWriter appends QDataStream compatible values to a buffer. The first
// error sticks and turns later writes into no-ops.
type streamWriter struct {
	buf bytes.Buffer
	err error
}

func (w *streamWriter) u32(v uint32) {
	if w.err != nil {
		return
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *streamWriter) i32(v int32) { w.u32(uint32(v)) }

func (w *streamWriter) i64(v int64) {
	if w.err != nil {
		return
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf.Write(b[:])
}

func (w *streamWriter) i8(v int8) {
	if w.err != nil {
		return
	}
	w.buf.WriteByte(byte(v))
}

func (w *streamWriter) bytes(b []byte) {
	if b == nil {
		w.u32(nullLength)
		return
	}
	if uint64(len(b)) >= nullLength {
		w.fail(fmt.Errorf("codec: byte array of %d bytes is too large", len(b)))
		return
	}
	w.u32(uint32(len(b)))
	if w.err == nil {
		w.buf.Write(b)
	}
}

func (w *streamWriter) str(s string) {
	units := utf16.Encode([]rune(s))
	if uint64(len(units))*2 >= nullLength {
		w.fail(fmt.Errorf("codec: string of %d code units is too large", len(units)))
		return
	}
	w.u32(uint32(len(units) * 2))
	for _, u := range units {
		if w.err != nil {
			return
		}
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], u)
		w.buf.Write(b[:])
	}
}

// dateTime writes t in UTC. The zero time is written as a null date and time.
func (w *streamWriter) dateTime(t time.Time) {
	if t.IsZero() {
		w.i64(nullJulianDay)
		w.u32(nullMsecs)
		w.i8(specLocal)
		return
	}
	t = t.UTC()
	secs := t.Unix()
	days := floorDiv(secs, 86400)
	msecs := (secs-days*86400)*1000 + int64(t.Nanosecond()/int(time.Millisecond))
	w.i64(days + unixEpochJulianDay)
	w.u32(uint32(msecs))
	w.i8(specUTC)
}

func (w *streamWriter) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// streamReader reads QDataStream compatible values. Like QDataStream it has a
// sticky status: once a read fails every later read returns a zero value.
type streamReader struct {
	buf []byte
	off int
	err error
}

func newStreamReader(b []byte) *streamReader {
	return &streamReader{buf: b}
}

func (r *streamReader) remaining() int { return len(r.buf) - r.off }

func (r *streamReader) atEnd() bool { return r.remaining() == 0 }

func (r *streamReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.err = ErrShortRead
		r.off = len(r.buf)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *streamReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *streamReader) i32() int32 { return int32(r.u32()) }

func (r *streamReader) i64() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

func (r *streamReader) i8() int8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return int8(b[0])
}

func (r *streamReader) bytes() []byte {
	n := r.u32()
	if r.err != nil || n == nullLength {
		return nil
	}
	b := r.take(int(n))
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

func (r *streamReader) str() string {
	n := r.u32()
	if r.err != nil || n == nullLength {
		return ""
	}
	if n%2 != 0 {
		r.corrupt()
		return ""
	}
	b := r.take(int(n))
	if b == nil {
		return ""
	}
	units := make([]uint16, n/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units))
}

// dateTime reads a timestamp. A null date or time yields the zero time.
func (r *streamReader) dateTime() time.Time {
	jd := r.i64()
	msecs := r.u32()
	spec := r.i8()

	var loc *time.Location
	switch spec {
	case specLocal:
		loc = time.Local
	case specUTC:
		loc = time.UTC
	case specOffset:
		loc = time.FixedZone("", int(r.i32()))
	case specZone:
		name := r.str()
		if r.err != nil {
			return time.Time{}
		}
		l, err := time.LoadLocation(name)
		if err != nil {
			r.corrupt()
			return time.Time{}
		}
		loc = l
	default:
		r.corrupt()
	}
	if r.err != nil || jd == nullJulianDay || msecs == nullMsecs {
		return time.Time{}
	}
	if msecs >= msecsPerDay {
		r.corrupt()
		return time.Time{}
	}
	y, m, d := time.Unix((jd-unixEpochJulianDay)*86400, 0).UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(msecs) * time.Millisecond)
}

func (r *streamReader) corrupt() {
	if r.err == nil {
		r.err = ErrCorrupt
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
