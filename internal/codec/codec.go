package codec

import (
	"errors"

	"omemostore/internal/domain"
)

// Codec encodes record files in one format and decodes files in either
// format. A Codec is safe for concurrent use.
type Codec struct {
	format Format
	sealer *Sealer
}

// New returns a Codec that writes format. A non-nil sealer encrypts framed
// files and opens sealed ones; the legacy format cannot be sealed.
func New(format Format, sealer *Sealer) (*Codec, error) {
	if format == FormatLegacy && sealer != nil {
		return nil, errors.New("codec: the legacy format cannot be sealed")
	}
	if format != FormatLegacy && format != FormatFramed {
		return nil, errors.New("codec: unknown format")
	}
	return &Codec{format: format, sealer: sealer}, nil
}

// Format returns the format the codec writes.
func (c *Codec) Format() Format { return c.format }

// EncodeOwnDevice encodes the own-device record.
func (c *Codec) EncodeOwnDevice(d domain.OwnDevice) ([]byte, error) {
	if c.format == FormatLegacy {
		return encodeLegacyOwnDevice(d)
	}
	return encodeFramedOwnDevice(d, c.sealer)
}

// EncodeSignedPreKeyPairs encodes every signed pre-key pair in m.
func (c *Codec) EncodeSignedPreKeyPairs(m domain.SignedPreKeyPairs) ([]byte, error) {
	if c.format == FormatLegacy {
		return encodeLegacySignedPreKeyPairs(m)
	}
	return encodeFramedSignedPreKeyPairs(m, c.sealer)
}

// EncodePreKeyPairs encodes every pre-key pair in m.
func (c *Codec) EncodePreKeyPairs(m domain.PreKeyPairs) ([]byte, error) {
	if c.format == FormatLegacy {
		return encodeLegacyPreKeyPairs(m)
	}
	return encodeFramedPreKeyPairs(m, c.sealer)
}

// EncodeDevices encodes every contact device in s. Devices with the
// sentinel id and contacts left without devices are skipped.
func (c *Codec) EncodeDevices(s domain.DeviceSet) ([]byte, error) {
	if c.format == FormatLegacy {
		return encodeLegacyDevices(s)
	}
	return encodeFramedDevices(s, c.sealer)
}

// DecodeOwnDevice decodes an own-device file. The device is nil unless the
// record was read in full.
func (c *Codec) DecodeOwnDevice(b []byte) (*domain.OwnDevice, Result) {
	if isFramed(b) {
		return decodeFramedOwnDevice(b, c.sealer)
	}
	return decodeLegacyOwnDevice(b)
}

// DecodeSignedPreKeyPairs decodes a signed pre-key file. The returned map is
// never nil.
func (c *Codec) DecodeSignedPreKeyPairs(b []byte) (domain.SignedPreKeyPairs, Result) {
	if isFramed(b) {
		return decodeFramedSignedPreKeyPairs(b, c.sealer)
	}
	return decodeLegacySignedPreKeyPairs(b)
}

// DecodePreKeyPairs decodes a pre-key file. The returned map is never nil.
func (c *Codec) DecodePreKeyPairs(b []byte) (domain.PreKeyPairs, Result) {
	if isFramed(b) {
		return decodeFramedPreKeyPairs(b, c.sealer)
	}
	return decodeLegacyPreKeyPairs(b)
}

// DecodeDevices decodes a device file. The returned set is never nil and
// never holds a contact without devices.
func (c *Codec) DecodeDevices(b []byte) (domain.DeviceSet, Result) {
	if isFramed(b) {
		return decodeFramedDevices(b, c.sealer)
	}
	return decodeLegacyDevices(b)
}
