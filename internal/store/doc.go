// Package store provides file-based persistence for one account's OMEMO key
// material.
//
// Each account owns a directory below a root, named after the percent-encoded
// account name, holding four record files:
//
//   - own-device   the local identity (Store.SetOwnDevice)
//   - spkp         signed pre-key pairs (Store.AddSignedPreKeyPair)
//   - pkp          one-time pre-key pairs (Store.AddPreKeyPairs)
//   - devices      contact devices and their sessions (Store.AddDevice)
//
// The decoded state lives in memory for the lifetime of a Store and serves
// every read after the first LoadAll. Each mutation changes memory first and
// then rewrites the whole affected file through a synced temp file and an
// atomic rename. Operations return already-resolved tasks; nothing runs in
// the background.
//
// Damaged or missing files never fail a load: they contribute the entries
// that could be decoded, and the damage is logged. A file that could not be
// interpreted at all, such as a sealed file opened without its passphrase,
// is left alone: updates to it fail with ErrUnreadableRecord.
package store
