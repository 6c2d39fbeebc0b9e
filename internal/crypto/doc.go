// Package crypto exposes the small helpers the store needs around key
// material.
//
// Contents
//
//   - Short public-key fingerprints for logging (Fingerprint) and the grouped
//     form shown to users (DisplayFingerprint)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// # Notes
//
// The store never generates or uses keys itself; key pairs arrive serialized
// from the ratchet library and are persisted as opaque bytes.
package crypto
