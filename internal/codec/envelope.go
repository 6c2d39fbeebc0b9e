package codec

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/scrypt"

	"omemostore/internal/crypto"
)

// sealedBodyVersion prefixes every sealed frame body and is bound to the
// ciphertext as associated data.
const sealedBodyVersion byte = 0x01

const saltSize = 16

var (
	// ErrNoSealer is returned when a sealed file is read without a Sealer.
	ErrNoSealer = errors.New("codec: sealed record file needs a passphrase")

	// ErrWrongPassphrase is returned when a sealed frame does not open,
	// either because the passphrase is wrong or the frame was modified.
	ErrWrongPassphrase = errors.New("codec: wrong passphrase or corrupted frame")
)

// ScryptParams are the scrypt cost parameters used to derive the master key.
type ScryptParams struct {
	N int `yaml:"n"`
	R int `yaml:"r"`
	P int `yaml:"p"`
}

// DefaultScryptParams returns the parameters used for new sealed files.
func DefaultScryptParams() ScryptParams { return ScryptParams{N: 1 << 15, R: 8, P: 1} }

// Limits on scrypt parameters, so a damaged header cannot demand unbounded
// memory. scrypt needs 128*r*N bytes.
const (
	maxScryptN      = 1 << 20
	maxScryptP      = 16
	maxScryptMemory = 1 << 30
)

// Validate reports whether p can be used to derive keys.
func (p ScryptParams) Validate() error {
	switch {
	case p.N <= 1 || p.N&(p.N-1) != 0 || p.N > maxScryptN:
		return fmt.Errorf("codec: scrypt n=%d is not a power of two up to %d", p.N, maxScryptN)
	case p.R <= 0 || p.R > maxScryptMemory/(128*p.N):
		return fmt.Errorf("codec: scrypt r=%d with n=%d exceeds %d bytes", p.R, p.N, maxScryptMemory)
	case p.P <= 0 || p.P > maxScryptP:
		return fmt.Errorf("codec: scrypt p=%d is outside [1, %d]", p.P, maxScryptP)
	}
	return nil
}

// Sealer encrypts and decrypts frame bodies. New files are sealed under the
// Sealer's own salt; existing files are opened with the salt and parameters
// recorded in their header.
type Sealer struct {
	mu         sync.Mutex
	passphrase []byte
	params     ScryptParams
	salt       []byte

	// derived keys by salt and kind
	keys map[string][]byte
}

// NewSealer returns a Sealer for passphrase with a fresh random salt.
func NewSealer(passphrase []byte, params ScryptParams) (*Sealer, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("codec: empty passphrase")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return &Sealer{
		passphrase: append([]byte{}, passphrase...),
		params:     params,
		salt:       salt,
		keys:       make(map[string][]byte),
	}, nil
}

// Close wipes the passphrase and every derived key.
func (s *Sealer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	crypto.Wipe(s.passphrase)
	for k, key := range s.keys {
		crypto.Wipe(key)
		delete(s.keys, k)
	}
}

func (s *Sealer) key(kind Kind, salt []byte, params ScryptParams) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("%x/%d/%d/%d/%d", salt, params.N, params.R, params.P, kind)
	if key, ok := s.keys[id]; ok {
		return key, nil
	}
	master, err := scrypt.Key(s.passphrase, salt, params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(master)

	key := make([]byte, chacha20poly1305.KeySize)
	info := []byte("omemostore." + kind.String() + ".v1")
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, salt, info), key); err != nil {
		return nil, err
	}
	s.keys[id] = key
	return key, nil
}

// seal returns version || nonce || ciphertext for plaintext.
func (s *Sealer) seal(kind Kind, plaintext []byte) ([]byte, error) {
	key, err := s.key(kind, s.salt, s.params)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(plaintext)+chacha20poly1305.Overhead)
	out[0] = sealedBodyVersion
	nonce := out[1:]
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(out, nonce, plaintext, out[:1]), nil
}

func (s *Sealer) open(kind Kind, h fileHeader, body []byte) ([]byte, error) {
	if len(body) < 1+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, ErrCorrupt
	}
	if body[0] != sealedBodyVersion {
		return nil, fmt.Errorf("codec: unsupported sealed body version %d", body[0])
	}
	key, err := s.key(kind, h.Salt, ScryptParams{N: h.N, R: h.R, P: h.P})
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := body[1 : 1+chacha20poly1305.NonceSizeX]
	pt, err := aead.Open(nil, nonce, body[1+chacha20poly1305.NonceSizeX:], body[:1])
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}
