package store

import (
	"omemostore/internal/domain"
)

// cache is the authoritative in-memory state of one account. It is owned by
// a Store and only touched with the Store's mutex held.
type cache struct {
	ownDevice         *domain.OwnDevice
	signedPreKeyPairs domain.SignedPreKeyPairs
	preKeyPairs       domain.PreKeyPairs
	devices           domain.DeviceSet
}

func newCache() cache {
	return cache{
		signedPreKeyPairs: make(domain.SignedPreKeyPairs),
		preKeyPairs:       make(domain.PreKeyPairs),
		devices:           make(domain.DeviceSet),
	}
}

// snapshot returns a deep copy the caller may keep and modify.
func (c *cache) snapshot() domain.OmemoData {
	return domain.OmemoData{
		OwnDevice:         c.ownDevice,
		SignedPreKeyPairs: c.signedPreKeyPairs,
		PreKeyPairs:       c.preKeyPairs,
		Devices:           c.devices,
	}.Clone()
}

func (c *cache) setOwnDevice(d *domain.OwnDevice) {
	if d == nil {
		c.ownDevice = nil
		return
	}
	od := d.Clone()
	c.ownDevice = &od
}

func (c *cache) addSignedPreKeyPair(id domain.KeyID, p domain.SignedPreKeyPair) {
	p.Data = append([]byte(nil), p.Data...)
	c.signedPreKeyPairs[id] = p
}

func (c *cache) removeSignedPreKeyPair(id domain.KeyID) bool {
	_, ok := c.signedPreKeyPairs[id]
	delete(c.signedPreKeyPairs, id)
	return ok
}

func (c *cache) addPreKeyPairs(pairs domain.PreKeyPairs) {
	for id, b := range pairs.Clone() {
		c.preKeyPairs[id] = b
	}
}

func (c *cache) removePreKeyPair(id domain.KeyID) bool {
	_, ok := c.preKeyPairs[id]
	delete(c.preKeyPairs, id)
	return ok
}

func (c *cache) addDevice(jid string, id domain.DeviceID, d domain.Device) error {
	if id == domain.SentinelDeviceID {
		return ErrReservedDeviceID
	}
	devices, ok := c.devices[jid]
	if !ok {
		devices = make(map[domain.DeviceID]domain.Device)
		c.devices[jid] = devices
	}
	devices[id] = d.Clone()
	return nil
}

// removeDevice drops one device and the contact entry once it is empty.
func (c *cache) removeDevice(jid string, id domain.DeviceID) bool {
	devices, ok := c.devices[jid]
	if !ok {
		return false
	}
	_, ok = devices[id]
	delete(devices, id)
	if len(devices) == 0 {
		delete(c.devices, jid)
	}
	return ok
}

func (c *cache) removeDevices(jid string) bool {
	_, ok := c.devices[jid]
	delete(c.devices, jid)
	return ok
}
