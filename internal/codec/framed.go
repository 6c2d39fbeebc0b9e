package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"omemostore/internal/domain"
)

// Magic starts every framed record file. A legacy own-device file cannot
// begin with it: bytes 4..7 would declare a label longer than any real file.
var Magic = [8]byte{0x89, 'O', 'M', 'S', '\r', '\n', 0x1a, '\n'}

const framedVersion = 1

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		// Record files are small; anything near these limits is corrupt.
		MaxArrayElements: 1 << 20,
		MaxMapPairs:      1 << 20,
		MaxNestedLevels:  8,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

type fileHeader struct {
	Version int    `cbor:"1,keyasint"`
	Kind    string `cbor:"2,keyasint"`
	Sealed  bool   `cbor:"3,keyasint,omitempty"`
	Salt    []byte `cbor:"4,keyasint,omitempty"`
	N       int    `cbor:"5,keyasint,omitempty"`
	R       int    `cbor:"6,keyasint,omitempty"`
	P       int    `cbor:"7,keyasint,omitempty"`
}

type frame struct {
	Body []byte `cbor:"1,keyasint"`
	Sum  []byte `cbor:"2,keyasint"`
}

type ownDeviceBody struct {
	ID                   uint32 `cbor:"1,keyasint"`
	Label                string `cbor:"2,keyasint,omitempty"`
	PrivateIdentityKey   []byte `cbor:"3,keyasint,omitempty"`
	PublicIdentityKey    []byte `cbor:"4,keyasint,omitempty"`
	LatestSignedPreKeyID uint32 `cbor:"5,keyasint,omitempty"`
	LatestPreKeyID       uint32 `cbor:"6,keyasint,omitempty"`
}

type signedPreKeyBody struct {
	ID      uint32 `cbor:"1,keyasint"`
	Created *int64 `cbor:"2,keyasint,omitempty"`
	Data    []byte `cbor:"3,keyasint,omitempty"`
}

type preKeyBody struct {
	ID   uint32 `cbor:"1,keyasint"`
	Data []byte `cbor:"2,keyasint,omitempty"`
}

type contactBody struct {
	JID     string       `cbor:"1,keyasint"`
	Devices []deviceBody `cbor:"2,keyasint"`
}

type deviceBody struct {
	ID                uint32 `cbor:"1,keyasint"`
	Label             string `cbor:"2,keyasint,omitempty"`
	KeyID             []byte `cbor:"3,keyasint,omitempty"`
	Session           []byte `cbor:"4,keyasint,omitempty"`
	UnrespondedSent   int    `cbor:"5,keyasint,omitempty"`
	UnrespondedRecv   int    `cbor:"6,keyasint,omitempty"`
	RemovedFromListAt *int64 `cbor:"7,keyasint,omitempty"`
}

// isFramed reports whether b starts with the framed magic.
func isFramed(b []byte) bool {
	return len(b) >= len(Magic) && bytes.Equal(b[:len(Magic)], Magic[:])
}

// frameWriter writes a framed file: magic, header, then one frame per entry.
type frameWriter struct {
	kind   Kind
	sealer *Sealer
	buf    bytes.Buffer
	enc    *cbor.Encoder
	err    error
}

func newFrameWriter(kind Kind, sealer *Sealer) *frameWriter {
	fw := &frameWriter{kind: kind, sealer: sealer}
	fw.buf.Write(Magic[:])
	fw.enc = encMode.NewEncoder(&fw.buf)

	h := fileHeader{Version: framedVersion, Kind: kind.String()}
	if sealer != nil {
		h.Sealed = true
		h.Salt = sealer.salt
		h.N, h.R, h.P = sealer.params.N, sealer.params.R, sealer.params.P
	}
	fw.err = fw.enc.Encode(h)
	return fw
}

func (fw *frameWriter) entry(v any) {
	if fw.err != nil {
		return
	}
	body, err := encMode.Marshal(v)
	if err != nil {
		fw.err = err
		return
	}
	if fw.sealer != nil {
		if body, err = fw.sealer.seal(fw.kind, body); err != nil {
			fw.err = err
			return
		}
	}
	fw.err = fw.enc.Encode(frame{Body: body, Sum: frameSum(fw.kind, body)})
}

func (fw *frameWriter) bytes() ([]byte, error) {
	if fw.err != nil {
		return nil, fmt.Errorf("codec: encoding %s: %w", fw.kind, fw.err)
	}
	return fw.buf.Bytes(), nil
}

// frameReader walks the frames of a framed file.
type frameReader struct {
	kind   Kind
	sealer *Sealer
	header fileHeader
	dec    *cbor.Decoder
	err    error
}

// newFrameReader validates the header. A header that is damaged or does not
// match kind leaves err set; so does a sealed file without a Sealer.
func newFrameReader(kind Kind, b []byte, sealer *Sealer) *frameReader {
	fr := &frameReader{kind: kind, sealer: sealer}
	fr.dec = decMode.NewDecoder(bytes.NewReader(b[len(Magic):]))
	if err := fr.dec.Decode(&fr.header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			fr.err = fmt.Errorf("codec: reading header: %w", ErrShortRead)
		} else {
			fr.err = fmt.Errorf("%w: reading header: %v", ErrCorrupt, err)
		}
		return fr
	}
	h := fr.header
	switch {
	case h.Version != framedVersion:
		fr.err = fmt.Errorf("%w: unsupported framed version %d", ErrCorrupt, h.Version)
	case h.Kind != kind.String():
		fr.err = fmt.Errorf("%w: file holds %q records, want %q", ErrCorrupt, h.Kind, kind)
	case h.Sealed && len(h.Salt) == 0:
		fr.err = fmt.Errorf("%w: sealed header without salt", ErrCorrupt)
	case h.Sealed:
		// The header is not checksummed; bound the cost before deriving keys.
		if err := (ScryptParams{N: h.N, R: h.R, P: h.P}).Validate(); err != nil {
			fr.err = fmt.Errorf("%w: %v", ErrCorrupt, err)
		} else if sealer == nil {
			fr.err = ErrNoSealer
		}
	}
	return fr
}

// next decodes the next entry into v. It returns io.EOF after the last frame.
func (fr *frameReader) next(v any) error {
	var f frame
	if err := fr.dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrShortRead
		}
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !validFrameSum(fr.kind, f.Body, f.Sum) {
		return fmt.Errorf("%w: frame checksum mismatch", ErrCorrupt)
	}
	body := f.Body
	if fr.header.Sealed {
		pt, err := fr.sealer.open(fr.kind, fr.header, body)
		if err != nil {
			return err
		}
		body = pt
	}
	if err := decMode.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// readAll calls fn for every entry until the end of the file or the first
// bad frame, and returns the matching Result.
func (fr *frameReader) readAll(newEntry func() any, fn func(any) bool) Result {
	res := Result{Kind: fr.kind, Format: FormatFramed}
	if fr.err != nil {
		// A damaged header loses the whole file, but only a missing
		// passphrase makes it worth keeping.
		res.Status = StatusTruncated
		if errors.Is(fr.err, ErrNoSealer) {
			res.Status = StatusUnreadable
		}
		res.Err = fr.err
		return res
	}
	for {
		v := newEntry()
		err := fr.next(v)
		if errors.Is(err, io.EOF) {
			res.Status = StatusComplete
			return res
		}
		if err != nil {
			res.Status = StatusTruncated
			if errors.Is(err, ErrWrongPassphrase) && res.Entries == 0 {
				res.Status = StatusUnreadable
			}
			res.Err = err
			return res
		}
		if fn(v) {
			res.Entries++
		}
	}
}

func encodeFramedOwnDevice(d domain.OwnDevice, sealer *Sealer) ([]byte, error) {
	fw := newFrameWriter(KindOwnDevice, sealer)
	fw.entry(ownDeviceBody{
		ID:                   uint32(d.ID),
		Label:                d.Label,
		PrivateIdentityKey:   d.PrivateIdentityKey,
		PublicIdentityKey:    d.PublicIdentityKey,
		LatestSignedPreKeyID: uint32(d.LatestSignedPreKeyID),
		LatestPreKeyID:       uint32(d.LatestPreKeyID),
	})
	return fw.bytes()
}

func decodeFramedOwnDevice(b []byte, sealer *Sealer) (*domain.OwnDevice, Result) {
	var out *domain.OwnDevice
	fr := newFrameReader(KindOwnDevice, b, sealer)
	res := fr.readAll(func() any { return new(ownDeviceBody) }, func(v any) bool {
		body := v.(*ownDeviceBody)
		// Only the first frame counts; there is one identity per account.
		if out != nil {
			return false
		}
		out = &domain.OwnDevice{
			ID:                   domain.DeviceID(body.ID),
			Label:                body.Label,
			PrivateIdentityKey:   body.PrivateIdentityKey,
			PublicIdentityKey:    body.PublicIdentityKey,
			LatestSignedPreKeyID: domain.KeyID(body.LatestSignedPreKeyID),
			LatestPreKeyID:       domain.KeyID(body.LatestPreKeyID),
		}
		return true
	})
	if out == nil && res.Status == StatusComplete {
		res.Status = StatusAbsent
	}
	return out, res
}

func encodeFramedSignedPreKeyPairs(m domain.SignedPreKeyPairs, sealer *Sealer) ([]byte, error) {
	fw := newFrameWriter(KindSignedPreKeyPairs, sealer)
	for _, id := range sortedKeyIDs(m) {
		p := m[id]
		fw.entry(signedPreKeyBody{ID: uint32(id), Created: unixMilli(p.CreationDate), Data: p.Data})
	}
	return fw.bytes()
}

func decodeFramedSignedPreKeyPairs(b []byte, sealer *Sealer) (domain.SignedPreKeyPairs, Result) {
	out := make(domain.SignedPreKeyPairs)
	fr := newFrameReader(KindSignedPreKeyPairs, b, sealer)
	res := fr.readAll(func() any { return new(signedPreKeyBody) }, func(v any) bool {
		body := v.(*signedPreKeyBody)
		out[domain.KeyID(body.ID)] = domain.SignedPreKeyPair{CreationDate: fromUnixMilli(body.Created), Data: body.Data}
		return true
	})
	return out, res
}

func encodeFramedPreKeyPairs(m domain.PreKeyPairs, sealer *Sealer) ([]byte, error) {
	fw := newFrameWriter(KindPreKeyPairs, sealer)
	for _, id := range sortedKeyIDs(m) {
		fw.entry(preKeyBody{ID: uint32(id), Data: m[id]})
	}
	return fw.bytes()
}

func decodeFramedPreKeyPairs(b []byte, sealer *Sealer) (domain.PreKeyPairs, Result) {
	out := make(domain.PreKeyPairs)
	fr := newFrameReader(KindPreKeyPairs, b, sealer)
	res := fr.readAll(func() any { return new(preKeyBody) }, func(v any) bool {
		body := v.(*preKeyBody)
		out[domain.KeyID(body.ID)] = body.Data
		return true
	})
	return out, res
}

func encodeFramedDevices(s domain.DeviceSet, sealer *Sealer) ([]byte, error) {
	fw := newFrameWriter(KindDevices, sealer)
	for _, jid := range sortedJIDs(s) {
		devices := s[jid]
		body := contactBody{JID: jid, Devices: make([]deviceBody, 0, len(devices))}
		for _, id := range sortedDeviceIDs(devices) {
			if id == domain.SentinelDeviceID {
				continue
			}
			d := devices[id]
			body.Devices = append(body.Devices, deviceBody{
				ID:                uint32(id),
				Label:             d.Label,
				KeyID:             d.KeyID,
				Session:           d.Session,
				UnrespondedSent:   d.UnrespondedSentStanzasCount,
				UnrespondedRecv:   d.UnrespondedReceivedStanzasCount,
				RemovedFromListAt: unixMilli(d.RemovalFromDeviceListDate),
			})
		}
		if len(body.Devices) == 0 {
			continue
		}
		fw.entry(body)
	}
	return fw.bytes()
}

func decodeFramedDevices(b []byte, sealer *Sealer) (domain.DeviceSet, Result) {
	out := make(domain.DeviceSet)
	fr := newFrameReader(KindDevices, b, sealer)
	res := fr.readAll(func() any { return new(contactBody) }, func(v any) bool {
		body := v.(*contactBody)
		devices := make(map[domain.DeviceID]domain.Device, len(body.Devices))
		for _, d := range body.Devices {
			if domain.DeviceID(d.ID) == domain.SentinelDeviceID {
				continue
			}
			devices[domain.DeviceID(d.ID)] = domain.Device{
				Label:                           d.Label,
				KeyID:                           d.KeyID,
				Session:                         d.Session,
				UnrespondedSentStanzasCount:     d.UnrespondedSent,
				UnrespondedReceivedStanzasCount: d.UnrespondedRecv,
				RemovalFromDeviceListDate:       fromUnixMilli(d.RemovedFromListAt),
			}
		}
		if len(devices) == 0 {
			return false
		}
		out[body.JID] = devices
		return true
	})
	return out, res
}

func unixMilli(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromUnixMilli(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return time.UnixMilli(*ms).UTC()
}
