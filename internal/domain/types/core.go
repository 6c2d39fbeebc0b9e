package types

import "strconv"

// AccountName identifies the account an OMEMO store belongs to.
type AccountName string

// String returns the string form of the account name.
func (a AccountName) String() string { return string(a) }

// DeviceID identifies one OMEMO device of an account or a contact.
type DeviceID uint32

// String returns the decimal form of the device id.
func (id DeviceID) String() string { return strconv.FormatUint(uint64(id), 10) }

// SentinelDeviceID is never a real device. The legacy device file uses it to
// terminate a contact's device list.
const SentinelDeviceID DeviceID = 0

// KeyID identifies a pre-key or a signed pre-key. The two kinds use separate
// namespaces.
type KeyID uint32

// String returns the decimal form of the key id.
func (id KeyID) String() string { return strconv.FormatUint(uint64(id), 10) }
