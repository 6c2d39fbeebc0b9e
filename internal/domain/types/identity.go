package types

import "bytes"

// OwnDevice is the local OMEMO identity of an account.
type OwnDevice struct {
	ID                   DeviceID `yaml:"id"`
	Label                string   `yaml:"label"`
	PrivateIdentityKey   []byte   `yaml:"-"`
	PublicIdentityKey    []byte   `yaml:"public_identity_key"`
	LatestSignedPreKeyID KeyID    `yaml:"latest_signed_pre_key_id"`
	LatestPreKeyID       KeyID    `yaml:"latest_pre_key_id"`
}

// Clone returns a deep copy of d.
func (d OwnDevice) Clone() OwnDevice {
	d.PrivateIdentityKey = cloneBytes(d.PrivateIdentityKey)
	d.PublicIdentityKey = cloneBytes(d.PublicIdentityKey)
	return d
}

// Equal reports whether d and o hold the same identity.
func (d OwnDevice) Equal(o OwnDevice) bool {
	return d.ID == o.ID &&
		d.Label == o.Label &&
		bytes.Equal(d.PrivateIdentityKey, o.PrivateIdentityKey) &&
		bytes.Equal(d.PublicIdentityKey, o.PublicIdentityKey) &&
		d.LatestSignedPreKeyID == o.LatestSignedPreKeyID &&
		d.LatestPreKeyID == o.LatestPreKeyID
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
