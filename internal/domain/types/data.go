package types

// OmemoData is a snapshot of everything an OMEMO store holds for one account.
// OwnDevice is nil before the account's identity has been set up.
type OmemoData struct {
	OwnDevice         *OwnDevice        `yaml:"own_device,omitempty"`
	SignedPreKeyPairs SignedPreKeyPairs `yaml:"signed_pre_key_pairs"`
	PreKeyPairs       PreKeyPairs       `yaml:"pre_key_pairs"`
	Devices           DeviceSet         `yaml:"devices"`
}

// Clone returns a deep copy of d with all maps non-nil.
func (d OmemoData) Clone() OmemoData {
	out := OmemoData{
		SignedPreKeyPairs: d.SignedPreKeyPairs.Clone(),
		PreKeyPairs:       d.PreKeyPairs.Clone(),
		Devices:           d.Devices.Clone(),
	}
	if d.OwnDevice != nil {
		od := d.OwnDevice.Clone()
		out.OwnDevice = &od
	}
	return out
}
