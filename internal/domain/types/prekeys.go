package types

import "time"

// SignedPreKeyPair is a signed pre-key pair together with the time it was
// generated. Data is the serialized key pair as produced by the ratchet
// library.
type SignedPreKeyPair struct {
	CreationDate time.Time `yaml:"creation_date"`
	Data         []byte    `yaml:"-"`
}

// SignedPreKeyPairs maps signed pre-key ids to their key pairs.
type SignedPreKeyPairs map[KeyID]SignedPreKeyPair

// Clone returns a deep copy of m. A nil map clones to an empty one.
func (m SignedPreKeyPairs) Clone() SignedPreKeyPairs {
	out := make(SignedPreKeyPairs, len(m))
	for id, p := range m {
		p.Data = cloneBytes(p.Data)
		out[id] = p
	}
	return out
}

// PreKeyPairs maps one-time pre-key ids to serialized key pairs.
type PreKeyPairs map[KeyID][]byte

// Clone returns a deep copy of m. A nil map clones to an empty one.
func (m PreKeyPairs) Clone() PreKeyPairs {
	out := make(PreKeyPairs, len(m))
	for id, b := range m {
		out[id] = cloneBytes(b)
	}
	return out
}
