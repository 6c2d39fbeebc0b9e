package types

import (
	"bytes"
	"time"
)

// Device is one cryptographic endpoint of a contact together with the
// session state kept for it.
type Device struct {
	Label                           string    `yaml:"label,omitempty"`
	KeyID                           []byte    `yaml:"-"`
	Session                         []byte    `yaml:"-"`
	UnrespondedSentStanzasCount     int       `yaml:"unresponded_sent"`
	UnrespondedReceivedStanzasCount int       `yaml:"unresponded_received"`
	RemovalFromDeviceListDate       time.Time `yaml:"removed_at,omitempty"`
}

// Removed reports whether the device was dropped from the contact's device
// list while its session was kept.
func (d Device) Removed() bool { return !d.RemovalFromDeviceListDate.IsZero() }

// Clone returns a deep copy of d.
func (d Device) Clone() Device {
	d.KeyID = cloneBytes(d.KeyID)
	d.Session = cloneBytes(d.Session)
	return d
}

// Equal reports whether d and o describe the same device state.
func (d Device) Equal(o Device) bool {
	return d.Label == o.Label &&
		bytes.Equal(d.KeyID, o.KeyID) &&
		bytes.Equal(d.Session, o.Session) &&
		d.UnrespondedSentStanzasCount == o.UnrespondedSentStanzasCount &&
		d.UnrespondedReceivedStanzasCount == o.UnrespondedReceivedStanzasCount &&
		d.RemovalFromDeviceListDate.Equal(o.RemovalFromDeviceListDate)
}

// DeviceSet maps a contact's bare JID to its devices. An inner map is never
// empty and never holds SentinelDeviceID.
type DeviceSet map[string]map[DeviceID]Device

// Clone returns a deep copy of s. A nil set clones to an empty one.
func (s DeviceSet) Clone() DeviceSet {
	out := make(DeviceSet, len(s))
	for jid, devices := range s {
		inner := make(map[DeviceID]Device, len(devices))
		for id, d := range devices {
			inner[id] = d.Clone()
		}
		out[jid] = inner
	}
	return out
}

// Count returns the number of devices across all contacts.
func (s DeviceSet) Count() int {
	n := 0
	for _, devices := range s {
		n += len(devices)
	}
	return n
}
