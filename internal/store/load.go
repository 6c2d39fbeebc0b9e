package store

import (
	"omemostore/internal/codec"
	"omemostore/internal/crypto"
)

// ensureLoaded fills the cache from the record files on first use. Each
// record kind loads on its own; a missing identity does not hide pre-keys
// or sessions that are still on disk.
func (s *Store) ensureLoaded() {
	if s.loaded {
		return
	}
	s.loaded = true

	c := newCache()
	if b, ok := s.readRecord(codec.KindOwnDevice); ok {
		od, res := s.codec.DecodeOwnDevice(b)
		s.noteResult(res)
		c.ownDevice = od
	}
	if b, ok := s.readRecord(codec.KindSignedPreKeyPairs); ok {
		m, res := s.codec.DecodeSignedPreKeyPairs(b)
		s.noteResult(res)
		c.signedPreKeyPairs = m
	}
	if b, ok := s.readRecord(codec.KindPreKeyPairs); ok {
		m, res := s.codec.DecodePreKeyPairs(b)
		s.noteResult(res)
		c.preKeyPairs = m
	}
	if b, ok := s.readRecord(codec.KindDevices); ok {
		set, res := s.codec.DecodeDevices(b)
		s.noteResult(res)
		c.devices = set
	}
	s.cache = c

	if c.ownDevice == nil {
		s.log.Debug("no own device stored")
	}
	attrs := []any{
		"signed_pre_keys", len(c.signedPreKeyPairs),
		"pre_keys", len(c.preKeyPairs),
		"contacts", len(c.devices),
		"devices", c.devices.Count(),
	}
	if od := c.ownDevice; od != nil {
		attrs = append(attrs,
			"own_device", od.ID,
			"label", od.Label,
			"fingerprint", crypto.Fingerprint(od.PublicIdentityKey))
	}
	s.log.Info("omemo state loaded", attrs...)
}

// readRecord returns the raw content of kind's record file. ok is false when
// the file is missing or cannot be read; both count as no data.
func (s *Store) readRecord(kind codec.Kind) (b []byte, ok bool) {
	path := recordPath(s.dir, kind)
	b, ok, err := readFile(path)
	if err != nil {
		s.log.Warn("record file unreadable", "record", kind.String(), "error", err)
		s.noteUnreadable(kind, err)
		return nil, false
	}
	if !ok {
		s.log.Debug("record file absent", "record", kind.String())
	}
	return b, ok
}

// noteResult logs res and remembers record files that could not be
// interpreted at all.
func (s *Store) noteResult(res codec.Result) {
	if res.Status == codec.StatusUnreadable {
		s.noteUnreadable(res.Kind, res.Err)
	}

	attrs := []any{
		"record", res.Kind.String(),
		"format", res.Format.String(),
		"entries", res.Entries,
	}
	switch res.Status {
	case codec.StatusComplete, codec.StatusAbsent:
		s.log.Debug("record file decoded", append(attrs, "status", res.Status.String())...)
	case codec.StatusTruncated:
		s.log.Warn("record file damaged; keeping the entries before the damage", append(attrs, "error", res.Err)...)
	case codec.StatusUnreadable:
		s.log.Warn("record file could not be interpreted", append(attrs, "error", res.Err)...)
	}
}

func (s *Store) noteUnreadable(kind codec.Kind, err error) {
	if s.unreadable == nil {
		s.unreadable = make(map[codec.Kind]error)
	}
	s.unreadable[kind] = err
}
