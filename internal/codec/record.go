package codec

import "fmt"

// Kind names one of the four record files.
type Kind uint8

const (
	KindOwnDevice Kind = iota + 1
	KindSignedPreKeyPairs
	KindPreKeyPairs
	KindDevices
)

// Kinds lists every record kind in a stable order.
var Kinds = []Kind{KindOwnDevice, KindSignedPreKeyPairs, KindPreKeyPairs, KindDevices}

// String returns the record kind's file name.
func (k Kind) String() string {
	switch k {
	case KindOwnDevice:
		return "own-device"
	case KindSignedPreKeyPairs:
		return "spkp"
	case KindPreKeyPairs:
		return "pkp"
	case KindDevices:
		return "devices"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Format selects the on-disk layout written by a Codec.
type Format uint8

const (
	FormatFramed Format = iota
	FormatLegacy
)

// String returns the configuration name of the format.
func (f Format) String() string {
	switch f {
	case FormatFramed:
		return "framed"
	case FormatLegacy:
		return "legacy"
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// ParseFormat parses a configuration name into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "framed":
		return FormatFramed, nil
	case "legacy":
		return FormatLegacy, nil
	}
	return 0, fmt.Errorf("codec: unknown format %q", s)
}

// Status describes how much of a record file could be decoded.
type Status uint8

const (
	// StatusAbsent means the file held nothing usable.
	StatusAbsent Status = iota
	// StatusComplete means every byte was consumed by whole entries.
	StatusComplete
	// StatusTruncated means decoding stopped at a short or malformed entry,
	// or at a damaged header; the entries before it were kept.
	StatusTruncated
	// StatusUnreadable means the file is sealed and no Sealer, or a Sealer
	// with another passphrase, was given. Its content is intact but unknown.
	StatusUnreadable
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusComplete:
		return "complete"
	case StatusTruncated:
		return "truncated"
	case StatusUnreadable:
		return "unreadable"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Result reports the outcome of decoding one record file. Decoding never
// fails outright; Result is diagnostic.
type Result struct {
	Kind    Kind
	Format  Format
	Status  Status
	Entries int
	// Err is the read error that stopped decoding, if any.
	Err error
}
