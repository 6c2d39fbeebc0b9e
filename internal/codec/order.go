package codec

import (
	"maps"
	"slices"

	"omemostore/internal/domain"
)

// Entries are written in ascending key order so equal state always encodes
// to equal bytes.

func sortedKeyIDs[V any](m map[domain.KeyID]V) []domain.KeyID {
	return slices.Sorted(maps.Keys(m))
}

func sortedDeviceIDs(m map[domain.DeviceID]domain.Device) []domain.DeviceID {
	return slices.Sorted(maps.Keys(m))
}

func sortedJIDs(s domain.DeviceSet) []string {
	return slices.Sorted(maps.Keys(s))
}
