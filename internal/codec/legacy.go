package codec

import (
	"omemostore/internal/domain"
)

func encodeLegacyOwnDevice(d domain.OwnDevice) ([]byte, error) {
	var w streamWriter
	w.u32(uint32(d.ID))
	w.str(d.Label)
	w.bytes(d.PrivateIdentityKey)
	w.bytes(d.PublicIdentityKey)
	w.u32(uint32(d.LatestSignedPreKeyID))
	w.u32(uint32(d.LatestPreKeyID))
	return w.buf.Bytes(), w.err
}

func decodeLegacyOwnDevice(b []byte) (*domain.OwnDevice, Result) {
	res := Result{Kind: KindOwnDevice, Format: FormatLegacy}
	if len(b) == 0 {
		return nil, res
	}
	r := newStreamReader(b)
	d := domain.OwnDevice{
		ID:                   domain.DeviceID(r.u32()),
		Label:                r.str(),
		PrivateIdentityKey:   r.bytes(),
		PublicIdentityKey:    r.bytes(),
		LatestSignedPreKeyID: domain.KeyID(r.u32()),
		LatestPreKeyID:       domain.KeyID(r.u32()),
	}
	if r.err != nil {
		res.Status = StatusTruncated
		res.Err = r.err
		return nil, res
	}
	res.Status = StatusComplete
	res.Entries = 1
	return &d, res
}

func encodeLegacySignedPreKeyPairs(m domain.SignedPreKeyPairs) ([]byte, error) {
	var w streamWriter
	for _, id := range sortedKeyIDs(m) {
		p := m[id]
		w.u32(uint32(id))
		w.dateTime(p.CreationDate)
		w.bytes(p.Data)
	}
	return w.buf.Bytes(), w.err
}

func decodeLegacySignedPreKeyPairs(b []byte) (domain.SignedPreKeyPairs, Result) {
	out := make(domain.SignedPreKeyPairs)
	r := newStreamReader(b)
	for !r.atEnd() {
		id := domain.KeyID(r.u32())
		p := domain.SignedPreKeyPair{
			CreationDate: r.dateTime(),
			Data:         r.bytes(),
		}
		if r.err != nil {
			break
		}
		out[id] = p
	}
	return out, legacyMapResult(KindSignedPreKeyPairs, b, len(out), r.err)
}

func encodeLegacyPreKeyPairs(m domain.PreKeyPairs) ([]byte, error) {
	var w streamWriter
	for _, id := range sortedKeyIDs(m) {
		w.u32(uint32(id))
		w.bytes(m[id])
	}
	return w.buf.Bytes(), w.err
}

func decodeLegacyPreKeyPairs(b []byte) (domain.PreKeyPairs, Result) {
	out := make(domain.PreKeyPairs)
	r := newStreamReader(b)
	for !r.atEnd() {
		id := domain.KeyID(r.u32())
		data := r.bytes()
		if r.err != nil {
			break
		}
		out[id] = data
	}
	return out, legacyMapResult(KindPreKeyPairs, b, len(out), r.err)
}

func encodeLegacyDevices(s domain.DeviceSet) ([]byte, error) {
	var w streamWriter
	for _, jid := range sortedJIDs(s) {
		w.str(jid)
		devices := s[jid]
		for _, id := range sortedDeviceIDs(devices) {
			// id 0 terminates the list on disk.
			if id == domain.SentinelDeviceID {
				continue
			}
			d := devices[id]
			w.u32(uint32(id))
			w.str(d.Label)
			w.bytes(d.KeyID)
			w.bytes(d.Session)
			w.i32(int32(d.UnrespondedSentStanzasCount))
			w.i32(int32(d.UnrespondedReceivedStanzasCount))
			w.dateTime(d.RemovalFromDeviceListDate)
		}
		w.u32(uint32(domain.SentinelDeviceID))
	}
	return w.buf.Bytes(), w.err
}

func decodeLegacyDevices(b []byte) (domain.DeviceSet, Result) {
	out := make(domain.DeviceSet)
	r := newStreamReader(b)
	for !r.atEnd() {
		jid := r.str()
		devices := make(map[domain.DeviceID]domain.Device)
		for r.err == nil {
			id := domain.DeviceID(r.u32())
			if r.err != nil || id == domain.SentinelDeviceID {
				break
			}
			d := domain.Device{
				Label:                           r.str(),
				KeyID:                           r.bytes(),
				Session:                         r.bytes(),
				UnrespondedSentStanzasCount:     int(r.i32()),
				UnrespondedReceivedStanzasCount: int(r.i32()),
				RemovalFromDeviceListDate:       r.dateTime(),
			}
			if r.err == nil {
				devices[id] = d
			}
		}
		if r.err != nil {
			break
		}
		// A contact written with only id-0 devices has an empty list.
		if len(devices) > 0 {
			out[jid] = devices
		}
	}
	return out, legacyMapResult(KindDevices, b, len(out), r.err)
}

func legacyMapResult(kind Kind, b []byte, entries int, err error) Result {
	res := Result{Kind: kind, Format: FormatLegacy, Entries: entries, Status: StatusComplete}
	switch {
	case len(b) == 0:
		res.Status = StatusAbsent
	case err != nil:
		res.Status = StatusTruncated
		res.Err = err
	}
	return res
}
