package crypto

import "runtime"

// Wipe zeroes b in place. Key material read from record files or derived
// from a passphrase is wiped once it is no longer needed; this is best
// effort, the garbage collector may already have copied it.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
