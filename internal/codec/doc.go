// Package codec encodes and decodes the four OMEMO record files: own device,
// signed pre-key pairs, pre-key pairs and contact devices.
//
// # Legacy layout
//
// The legacy layout is positional and big-endian, byte compatible with Qt's
// QDataStream (stream version 5.2 or later), so account directories written
// by Qt based clients load unchanged. It has no magic number, version or
// checksum.
//
//	u32, i32           4 bytes
//	i64                8 bytes
//	bytes              u32 length (0xFFFFFFFF = null), then the bytes
//	string             u32 byte length (0xFFFFFFFF = null), then UTF-16BE
//	timestamp          i64 julian day, u32 msecs since midnight, i8 time spec
//	                   (0 local, 1 UTC, 2 offset + i32 seconds, 3 zone + string)
//
// Record files:
//
//	own-device  id u32, label string, private key bytes, public key bytes,
//	            latest signed pre-key id u32, latest pre-key id u32
//	spkp        repeated: id u32, created timestamp, key pair bytes
//	pkp         repeated: id u32, key pair bytes
//	devices     repeated: jid string, then repeated
//	            (id u32, label string, key id bytes, session bytes,
//	            unresponded sent i32, unresponded received i32,
//	            removal timestamp), then u32 0
//
// Repeated entries carry no count. Decoding consumes entries until the first
// read that fails and keeps everything fully read before it. A contact whose
// device list is cut short is dropped as a whole.
//
// # Framed layout
//
// The framed layout starts with an 8 byte magic, followed by a CBOR header
// and a CBOR sequence of frames. Each frame holds one entry (one contact with
// all its devices for the device file) and a BLAKE3 keyed checksum of the
// entry body, so corruption stops decoding at the damaged frame instead of
// being read as a terminator. When a Sealer is configured, frame bodies are
// encrypted with XChaCha20-Poly1305 under a key derived from a passphrase.
//
// Decoding detects the layout from the magic, so legacy files can be read by
// a codec that writes framed files.
package codec
