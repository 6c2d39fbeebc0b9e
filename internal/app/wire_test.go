package app_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omemostore/internal/app"
	"omemostore/internal/codec"
	"omemostore/internal/domain"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()
	cfg := app.DefaultConfig()
	cfg.Root = t.TempDir()
	cfg.Seal.Scrypt = codec.ScryptParams{N: 1 << 10, R: 8, P: 1}
	return cfg
}

func TestWireOpensStores(t *testing.T) {
	cfg := testConfig(t)
	var logs bytes.Buffer
	w, err := app.NewWire(cfg, &logs)
	require.NoError(t, err)
	defer w.Close()

	var opener domain.StoreOpener = w
	s, err := opener.Open("alice@example.org")
	require.NoError(t, err)
	require.NoError(t, s.AddDevice("bob@example.org", 1, domain.Device{Label: "phone"}).Err())
	require.NoError(t, s.Close())

	accounts, err := w.Accounts()
	require.NoError(t, err)
	assert.Equal(t, []domain.AccountName{"alice@example.org"}, accounts)
	assert.Contains(t, logs.String(), "omemo state loaded")
}

func TestWireSealed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Seal.Enabled = true
	t.Setenv(app.PassphraseEnv, "hunter2")

	w, err := app.NewWire(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, w.Options.Sealer)

	s, err := w.OpenStore("alice@example.org")
	require.NoError(t, err)
	require.NoError(t, s.AddPreKeyPairs(domain.PreKeyPairs{1: []byte("k")}).Err())
	require.NoError(t, s.Close())
	w.Close()

	// A second process with the same passphrase reads it back.
	w, err = app.NewWire(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	defer w.Close()
	s, err = w.OpenStore("alice@example.org")
	require.NoError(t, err)
	defer s.Close()
	data, err := s.LoadAll().Wait()
	require.NoError(t, err)
	assert.Equal(t, []byte("k"), data.PreKeyPairs[1])
}

func TestWireRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Format = "yaml"
	_, err := app.NewWire(cfg, &bytes.Buffer{})
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Seal.Enabled = true
	cfg.Seal.PassphraseFile = "/nonexistent/passphrase"
	_, err = app.NewWire(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}
