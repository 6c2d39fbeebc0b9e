package store_test

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omemostore/internal/codec"
	"omemostore/internal/domain"
	"omemostore/internal/store"
)

const alice = domain.AccountName("alice@example.org")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T, root string, opts store.Options) *store.Store {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	s, err := store.Open(root, alice, opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func loadAll(t *testing.T, s *store.Store) domain.OmemoData {
	t.Helper()
	data, err := s.LoadAll().Wait()
	require.NoError(t, err)
	return data
}

func recordFile(root string, name string) string {
	return filepath.Join(store.AccountDir(root, alice), name)
}

func TestOwnDeviceSurvivesReopen(t *testing.T) {
	root := t.TempDir()

	s := openStore(t, root, store.Options{})
	loadAll(t, s)
	require.NoError(t, s.SetOwnDevice(&domain.OwnDevice{ID: 1, Label: "phone"}).Err())
	require.NoError(t, s.Close())

	s = openStore(t, root, store.Options{})
	data := loadAll(t, s)
	require.NotNil(t, data.OwnDevice)
	assert.Equal(t, domain.DeviceID(1), data.OwnDevice.ID)
	assert.Equal(t, "phone", data.OwnDevice.Label)
}

func TestRoundTripEveryRecord(t *testing.T) {
	for _, format := range []codec.Format{codec.FormatFramed, codec.FormatLegacy} {
		t.Run(format.String(), func(t *testing.T) {
			root := t.TempDir()
			opts := store.Options{Format: format}
			created := time.Date(2021, 7, 14, 10, 11, 12, 0, time.UTC)
			own := domain.OwnDevice{
				ID:                   123456,
				Label:                "work laptop",
				PrivateIdentityKey:   []byte("private identity"),
				PublicIdentityKey:    []byte("public identity"),
				LatestSignedPreKeyID: 2,
				LatestPreKeyID:       101,
			}
			device := domain.Device{
				Label:                       "phone",
				KeyID:                       []byte{0x05, 0x01},
				Session:                     []byte("ratchet state"),
				UnrespondedSentStanzasCount: 4,
			}

			s := openStore(t, root, opts)
			loadAll(t, s)
			require.NoError(t, s.SetOwnDevice(&own).Err())
			require.NoError(t, s.AddSignedPreKeyPair(2, domain.SignedPreKeyPair{CreationDate: created, Data: []byte("spk")}).Err())
			require.NoError(t, s.AddPreKeyPairs(domain.PreKeyPairs{100: []byte("pk100"), 101: []byte("pk101")}).Err())
			require.NoError(t, s.AddDevice("bob@example.org", 7, device).Err())
			require.NoError(t, s.Close())

			s = openStore(t, root, opts)
			data := loadAll(t, s)
			require.NotNil(t, data.OwnDevice)
			assert.True(t, own.Equal(*data.OwnDevice))
			require.Contains(t, data.SignedPreKeyPairs, domain.KeyID(2))
			assert.True(t, data.SignedPreKeyPairs[2].CreationDate.Equal(created))
			assert.Equal(t, []byte("spk"), data.SignedPreKeyPairs[2].Data)
			assert.Equal(t, domain.PreKeyPairs{100: []byte("pk100"), 101: []byte("pk101")}, data.PreKeyPairs)
			require.Contains(t, data.Devices, "bob@example.org")
			assert.True(t, device.Equal(data.Devices["bob@example.org"][7]))
		})
	}
}

func TestAddDeviceRejectsSentinel(t *testing.T) {
	root := t.TempDir()
	s := openStore(t, root, store.Options{})

	err := s.AddDevice("bob@example.org", domain.SentinelDeviceID, domain.Device{Label: "x"}).Err()
	assert.ErrorIs(t, err, store.ErrReservedDeviceID)
	assert.Empty(t, loadAll(t, s).Devices)
	assert.NoFileExists(t, recordFile(root, "devices"))
}

func TestRemoveDevicePrunesContact(t *testing.T) {
	root := t.TempDir()
	s := openStore(t, root, store.Options{})
	loadAll(t, s)

	require.NoError(t, s.AddDevice("bob@example.org", 1, domain.Device{}).Err())
	require.NoError(t, s.AddDevice("bob@example.org", 2, domain.Device{}).Err())
	require.NoError(t, s.AddDevice("carol@example.org", 3, domain.Device{}).Err())

	require.NoError(t, s.RemoveDevice("bob@example.org", 1).Err())
	assert.Len(t, loadAll(t, s).Devices["bob@example.org"], 1)

	require.NoError(t, s.RemoveDevice("bob@example.org", 2).Err())
	assert.NotContains(t, loadAll(t, s).Devices, "bob@example.org")

	require.NoError(t, s.RemoveDevices("carol@example.org").Err())
	require.NoError(t, s.Close())

	s = openStore(t, root, store.Options{})
	assert.Empty(t, loadAll(t, s).Devices)
}

func TestRemovePreKeyPairIdempotent(t *testing.T) {
	root := t.TempDir()
	s := openStore(t, root, store.Options{})
	loadAll(t, s)

	require.NoError(t, s.AddPreKeyPairs(domain.PreKeyPairs{1: []byte("a"), 2: []byte("b")}).Err())
	require.NoError(t, s.RemovePreKeyPair(1).Err())
	require.NoError(t, s.RemovePreKeyPair(1).Err())
	require.NoError(t, s.RemoveSignedPreKeyPair(99).Err())

	assert.Equal(t, domain.PreKeyPairs{2: []byte("b")}, loadAll(t, s).PreKeyPairs)
	assert.FileExists(t, recordFile(root, "pkp"))
}

func TestTruncatedDeviceFileKeepsPrefix(t *testing.T) {
	for _, format := range []codec.Format{codec.FormatFramed, codec.FormatLegacy} {
		t.Run(format.String(), func(t *testing.T) {
			root := t.TempDir()
			opts := store.Options{Format: format}

			s := openStore(t, root, opts)
			loadAll(t, s)
			require.NoError(t, s.AddDevice("alice@example.org", 1, domain.Device{Label: "a1"}).Err())
			require.NoError(t, s.AddDevice("alice@example.org", 2, domain.Device{Label: "a2"}).Err())
			require.NoError(t, s.AddDevice("bob@example.org", 3, domain.Device{Label: "b3", Session: []byte("bob session")}).Err())
			require.NoError(t, s.Close())

			path := recordFile(root, "devices")
			info, err := os.Stat(path)
			require.NoError(t, err)
			require.NoError(t, os.Truncate(path, info.Size()-6))

			s = openStore(t, root, opts)
			devices := loadAll(t, s).Devices
			require.Len(t, devices, 1)
			assert.Len(t, devices["alice@example.org"], 2)
		})
	}
}

func TestDamagedFramedHeaderStaysWritable(t *testing.T) {
	root := t.TempDir()

	s := openStore(t, root, store.Options{})
	require.NoError(t, s.AddDevice("alice@example.org", 1, domain.Device{Label: "a1"}).Err())
	require.NoError(t, s.Close())

	path := recordFile(root, "devices")
	require.NoError(t, os.Truncate(path, int64(len(codec.Magic))+2))

	s = openStore(t, root, store.Options{})
	assert.Empty(t, loadAll(t, s).Devices)
	require.NoError(t, s.AddDevice("carol@example.org", 2, domain.Device{Label: "c2"}).Err())
	require.NoError(t, s.Close())

	s = openStore(t, root, store.Options{})
	devices := loadAll(t, s).Devices
	require.Len(t, devices, 1)
	assert.Equal(t, "c2", devices["carol@example.org"][2].Label)
}

func TestAddPreKeyPairsRewritesOnce(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := openStore(t, t.TempDir(), store.Options{Logger: logger})
	loadAll(t, s)

	pairs := make(domain.PreKeyPairs)
	for id := domain.KeyID(1); id <= 100; id++ {
		pairs[id] = []byte{byte(id)}
	}
	logs.Reset()
	require.NoError(t, s.AddPreKeyPairs(pairs).Err())

	assert.Equal(t, 1, strings.Count(logs.String(), `msg="record file written" account=alice@example.org record=pkp`))
	assert.Len(t, loadAll(t, s).PreKeyPairs, 100)
}

func TestResetAllRemovesFiles(t *testing.T) {
	root := t.TempDir()
	s := openStore(t, root, store.Options{})
	loadAll(t, s)
	require.NoError(t, s.SetOwnDevice(&domain.OwnDevice{ID: 1}).Err())
	require.NoError(t, s.AddSignedPreKeyPair(1, domain.SignedPreKeyPair{Data: []byte("x")}).Err())
	require.NoError(t, s.AddPreKeyPairs(domain.PreKeyPairs{1: []byte("y")}).Err())
	require.NoError(t, s.AddDevice("bob@example.org", 1, domain.Device{}).Err())

	require.NoError(t, s.ResetAll().Err())
	data := loadAll(t, s)
	assert.Nil(t, data.OwnDevice)
	assert.Empty(t, data.SignedPreKeyPairs)
	assert.Empty(t, data.PreKeyPairs)
	assert.Empty(t, data.Devices)
	for _, name := range []string{"own-device", "spkp", "pkp", "devices"} {
		assert.NoFileExists(t, recordFile(root, name))
	}
}

func TestSetOwnDeviceNilRemovesFile(t *testing.T) {
	root := t.TempDir()
	s := openStore(t, root, store.Options{})
	require.NoError(t, s.SetOwnDevice(&domain.OwnDevice{ID: 9}).Err())
	require.FileExists(t, recordFile(root, "own-device"))

	require.NoError(t, s.SetOwnDevice(nil).Err())
	assert.NoFileExists(t, recordFile(root, "own-device"))
	assert.Nil(t, loadAll(t, s).OwnDevice)
}

func TestMutationBeforeLoadKeepsStoredEntries(t *testing.T) {
	root := t.TempDir()

	s := openStore(t, root, store.Options{})
	require.NoError(t, s.AddPreKeyPairs(domain.PreKeyPairs{1: []byte("one")}).Err())
	require.NoError(t, s.Close())

	s = openStore(t, root, store.Options{})
	require.NoError(t, s.AddPreKeyPairs(domain.PreKeyPairs{2: []byte("two")}).Err())
	require.NoError(t, s.Close())

	s = openStore(t, root, store.Options{})
	assert.Len(t, loadAll(t, s).PreKeyPairs, 2)
}

func TestSnapshotIsolation(t *testing.T) {
	s := openStore(t, t.TempDir(), store.Options{})
	require.NoError(t, s.SetOwnDevice(&domain.OwnDevice{ID: 1, PublicIdentityKey: []byte{1, 2, 3}}).Err())
	require.NoError(t, s.AddDevice("bob@example.org", 5, domain.Device{Session: []byte{7}}).Err())

	snap := loadAll(t, s)
	snap.OwnDevice.PublicIdentityKey[0] = 0xff
	snap.Devices["bob@example.org"][5] = domain.Device{Label: "tampered"}
	delete(snap.Devices, "bob@example.org")
	snap.PreKeyPairs[1] = []byte("injected")

	again := loadAll(t, s)
	assert.Equal(t, []byte{1, 2, 3}, again.OwnDevice.PublicIdentityKey)
	assert.Equal(t, []byte{7}, again.Devices["bob@example.org"][5].Session)
	assert.Empty(t, again.PreKeyPairs)
}

func TestClosedStore(t *testing.T) {
	s := openStore(t, t.TempDir(), store.Options{})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.LoadAll().Wait()
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.ErrorIs(t, s.AddDevice("bob@example.org", 1, domain.Device{}).Err(), store.ErrClosed)
	assert.ErrorIs(t, s.ResetAll().Err(), store.ErrClosed)
	assert.ErrorIs(t, s.Migrate().Err(), store.ErrClosed)
}

func TestMigrateLegacyToFramed(t *testing.T) {
	root := t.TempDir()

	s := openStore(t, root, store.Options{Format: codec.FormatLegacy})
	require.NoError(t, s.SetOwnDevice(&domain.OwnDevice{ID: 3, Label: "old client"}).Err())
	require.NoError(t, s.AddDevice("bob@example.org", 4, domain.Device{Label: "bob"}).Err())
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(recordFile(root, "devices"))
	require.NoError(t, err)
	require.False(t, bytes.HasPrefix(raw, codec.Magic[:]))

	s = openStore(t, root, store.Options{Format: codec.FormatFramed})
	require.NoError(t, s.Migrate().Err())
	require.NoError(t, s.Close())

	for _, name := range []string{"own-device", "spkp", "pkp", "devices"} {
		raw, err := os.ReadFile(recordFile(root, name))
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(raw, codec.Magic[:]), name)
	}

	s = openStore(t, root, store.Options{Format: codec.FormatFramed})
	data := loadAll(t, s)
	require.NotNil(t, data.OwnDevice)
	assert.Equal(t, "old client", data.OwnDevice.Label)
	assert.Equal(t, "bob", data.Devices["bob@example.org"][4].Label)
}

func TestSealedStore(t *testing.T) {
	root := t.TempDir()
	sealer, err := codec.NewSealer([]byte("passphrase"), codec.ScryptParams{N: 1 << 10, R: 8, P: 1})
	require.NoError(t, err)
	t.Cleanup(sealer.Close)

	s := openStore(t, root, store.Options{Sealer: sealer})
	require.NoError(t, s.AddPreKeyPairs(domain.PreKeyPairs{1: []byte("secret pre-key")}).Err())
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(recordFile(root, "pkp"))
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte("secret pre-key")))

	// Without the passphrase the file reads as empty and is never overwritten.
	s = openStore(t, root, store.Options{})
	assert.Empty(t, loadAll(t, s).PreKeyPairs)
	err = s.AddPreKeyPairs(domain.PreKeyPairs{2: []byte("other")}).Err()
	assert.ErrorIs(t, err, store.ErrUnreadableRecord)
	assert.ErrorIs(t, s.Migrate().Err(), store.ErrUnreadableRecord)
	require.NoError(t, s.Close())

	after, err := os.ReadFile(recordFile(root, "pkp"))
	require.NoError(t, err)
	assert.Equal(t, raw, after)

	s = openStore(t, root, store.Options{Sealer: sealer})
	assert.Equal(t, domain.PreKeyPairs{1: []byte("secret pre-key")}, loadAll(t, s).PreKeyPairs)
}

func TestOpenRemovesStaleTempFiles(t *testing.T) {
	root := t.TempDir()
	dir := store.AccountDir(root, alice)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	stale := filepath.Join(dir, "pkp.tmp-12345")
	require.NoError(t, os.WriteFile(stale, []byte("half written"), 0o600))

	openStore(t, root, store.Options{})
	assert.NoFileExists(t, stale)
}

func TestRecordFilesAreOwnerOnly(t *testing.T) {
	root := t.TempDir()
	s := openStore(t, root, store.Options{})
	require.NoError(t, s.AddPreKeyPairs(domain.PreKeyPairs{1: []byte("a")}).Err())

	info, err := os.Stat(recordFile(root, "pkp"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	info, err = os.Stat(store.AccountDir(root, alice))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestOpenRejectsEmptyAccount(t *testing.T) {
	_, err := store.Open(t.TempDir(), "", store.Options{})
	assert.ErrorIs(t, err, store.ErrEmptyAccount)
}

func TestOpenMustExist(t *testing.T) {
	root := t.TempDir()
	opts := store.Options{MustExist: true, Logger: discardLogger()}

	_, err := store.Open(root, "nobody@example.org", opts)
	assert.ErrorIs(t, err, store.ErrNoAccount)
	assert.NoDirExists(t, store.AccountDir(root, "nobody@example.org"))
	accounts, err := store.ListAccounts(root)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	require.NoError(t, os.WriteFile(store.AccountDir(root, "file@example.org"), nil, 0o600))
	_, err = store.Open(root, "file@example.org", opts)
	assert.ErrorIs(t, err, store.ErrNoAccount)

	s := openStore(t, root, store.Options{})
	require.NoError(t, s.Close())
	s, err = store.Open(root, alice, opts)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
