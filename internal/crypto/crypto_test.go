package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"omemostore/internal/crypto"
)

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "", crypto.Fingerprint(nil))

	fp := crypto.Fingerprint([]byte("public identity key"))
	assert.Len(t, fp, 20)
	assert.Equal(t, fp, crypto.Fingerprint([]byte("public identity key")))
	assert.NotEqual(t, fp, crypto.Fingerprint([]byte("public identity kez")))
}

func TestDisplayFingerprint(t *testing.T) {
	pub := []byte{0x05, 0xde, 0xad, 0xbe, 0xef, 0x00, 0x11, 0x22, 0x33, 0x44}
	assert.Equal(t, "05deadbe ef001122 3344", crypto.DisplayFingerprint(pub))
	assert.Equal(t, "", crypto.DisplayFingerprint(nil))
}

func TestWipe(t *testing.T) {
	b := []byte("secret")
	crypto.Wipe(b)
	assert.Equal(t, make([]byte, 6), b)

	crypto.Wipe(nil)
}
