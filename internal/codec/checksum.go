package codec

import (
	"crypto/subtle"

	"github.com/zeebo/blake3"
)

// sumSize is the length of a frame checksum.
const sumSize = 32

// Domain keys for BLAKE3 keyed hashing, one per record kind, so a frame moved
// into another record file fails its checksum. The bytes are the ASCII
// domain name zero-padded to 32 bytes.
var frameDomainKeys = map[Kind][32]byte{
	KindOwnDevice:         domainKey("omemostore.frame.own-device"),
	KindSignedPreKeyPairs: domainKey("omemostore.frame.spkp"),
	KindPreKeyPairs:       domainKey("omemostore.frame.pkp"),
	KindDevices:           domainKey("omemostore.frame.devices"),
}

func domainKey(name string) [32]byte {
	var k [32]byte
	copy(k[:], name)
	return k
}

func frameSum(kind Kind, body []byte) []byte {
	key := frameDomainKeys[kind]
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		// NewKeyed only fails on a key that is not 32 bytes.
		panic("codec: blake3 keyed hasher: " + err.Error())
	}
	h.Write(body)
	return h.Sum(nil)
}

func validFrameSum(kind Kind, body, sum []byte) bool {
	if len(sum) != sumSize {
		return false
	}
	return subtle.ConstantTimeCompare(frameSum(kind, body), sum) == 1
}
