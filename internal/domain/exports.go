package domain

import (
	interfaces "omemostore/internal/domain/interfaces"
	types "omemostore/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	AccountName       = types.AccountName
	DeviceID          = types.DeviceID
	KeyID             = types.KeyID
	OwnDevice         = types.OwnDevice
	SignedPreKeyPair  = types.SignedPreKeyPair
	SignedPreKeyPairs = types.SignedPreKeyPairs
	PreKeyPairs       = types.PreKeyPairs
	Device            = types.Device
	DeviceSet         = types.DeviceSet
	OmemoData         = types.OmemoData
	Nothing           = types.Nothing
)

// Task is the already-resolved result of a store operation.
type Task[T any] = types.Task[T]

// SentinelDeviceID is the reserved device id 0.
const SentinelDeviceID = types.SentinelDeviceID

// Resolved returns a completed task.
func Resolved[T any](value T, err error) Task[T] { return types.Resolved(value, err) }

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	OmemoStore  = interfaces.OmemoStore
	StoreOpener = interfaces.StoreOpener
)
