package interfaces

import domaintypes "omemostore/internal/domain/types"

// OmemoStore persists one account's OMEMO key material and device sessions.
//
// Every method finishes its work before returning; the returned task is
// already resolved.
type OmemoStore interface {
	// LoadAll returns everything stored for the account. The first call
	// reads the record files; later calls return the live state.
	LoadAll() domaintypes.Task[domaintypes.OmemoData]

	// SetOwnDevice replaces the local identity. A nil device clears it.
	SetOwnDevice(device *domaintypes.OwnDevice) domaintypes.Task[domaintypes.Nothing]

	// Signed pre-keys
	AddSignedPreKeyPair(id domaintypes.KeyID, pair domaintypes.SignedPreKeyPair) domaintypes.Task[domaintypes.Nothing]
	RemoveSignedPreKeyPair(id domaintypes.KeyID) domaintypes.Task[domaintypes.Nothing]

	// One-time pre-keys
	AddPreKeyPairs(pairs domaintypes.PreKeyPairs) domaintypes.Task[domaintypes.Nothing]
	RemovePreKeyPair(id domaintypes.KeyID) domaintypes.Task[domaintypes.Nothing]

	// Contact devices
	AddDevice(jid string, id domaintypes.DeviceID, device domaintypes.Device) domaintypes.Task[domaintypes.Nothing]
	RemoveDevice(jid string, id domaintypes.DeviceID) domaintypes.Task[domaintypes.Nothing]
	RemoveDevices(jid string) domaintypes.Task[domaintypes.Nothing]

	// ResetAll forgets everything stored for the account.
	ResetAll() domaintypes.Task[domaintypes.Nothing]

	// Close releases the account. Later calls fail.
	Close() error
}

// StoreOpener opens the OMEMO store of an account.
type StoreOpener interface {
	Open(account domaintypes.AccountName) (OmemoStore, error)
}
