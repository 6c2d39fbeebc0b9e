package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"omemostore/internal/codec"
	"omemostore/internal/crypto"
	"omemostore/internal/domain"
)

var (
	// ErrClosed is returned by every operation on a closed Store.
	ErrClosed = errors.New("store: closed")

	// ErrLocked is returned by Open when another Store holds the account.
	ErrLocked = errors.New("store: account is in use by another process")

	// ErrReservedDeviceID is returned by AddDevice for device id 0.
	ErrReservedDeviceID = errors.New("store: device id 0 is reserved")

	// ErrUnreadableRecord is returned by updates to a record file that exists
	// but could not be interpreted, such as a sealed file opened without its
	// passphrase. Rewriting it would discard its content.
	ErrUnreadableRecord = errors.New("store: record file could not be read")

	// ErrNoAccount is returned by Open with MustExist for an account that has
	// no directory.
	ErrNoAccount = errors.New("store: no such account")
)

// Options configures how a Store reads and writes its record files.
type Options struct {
	// Format is the layout new record files are written in. Files in either
	// layout are always readable.
	Format codec.Format

	// Sealer encrypts framed record files. Nil writes them unencrypted.
	Sealer *codec.Sealer

	// DisableLock skips the advisory lock on the account directory.
	DisableLock bool

	// MustExist makes Open fail with ErrNoAccount instead of creating a
	// missing account directory.
	MustExist bool

	// Logger receives load diagnostics and write failures. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Store is the persistent OMEMO store of one account. All reads after the
// first LoadAll are served from memory; every mutation updates memory and
// then rewrites the affected record file in full.
//
// A Store is safe for concurrent use, and at most one Store per account
// directory can be open at a time across processes.
type Store struct {
	mu      sync.Mutex
	account domain.AccountName
	dir     string
	codec   *codec.Codec
	log     *slog.Logger
	lock    *dirLock

	cache  cache
	loaded bool
	closed bool

	// record kinds whose file exists but did not decode
	unreadable map[codec.Kind]error
}

// Open opens the store of account below root, creating its directory.
func Open(root string, account domain.AccountName, opts Options) (*Store, error) {
	if account == "" {
		return nil, ErrEmptyAccount
	}
	c, err := codec.New(opts.Format, opts.Sealer)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("account", account.String())

	dir := AccountDir(root, account)
	if opts.MustExist {
		info, err := os.Stat(dir)
		if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
			return nil, fmt.Errorf("%w: %s", ErrNoAccount, account)
		}
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("store: creating account directory: %w", err)
	}

	var lock *dirLock
	if !opts.DisableLock {
		if lock, err = lockDir(dir); err != nil {
			return nil, err
		}
	}

	// Only safe once the lock is held: no other writer can own these.
	removed, err := removeStaleTemps(dir)
	if err != nil {
		logger.Warn("removing stale temp files failed", "dir", dir, "error", err)
	}
	for _, name := range removed {
		logger.Warn("removed temp file left by an interrupted write", "file", name)
	}

	return &Store{
		account: account,
		dir:     dir,
		codec:   c,
		log:     logger,
		lock:    lock,
		cache:   newCache(),
	}, nil
}

// Account returns the account the store belongs to.
func (s *Store) Account() domain.AccountName { return s.account }

// Dir returns the account directory.
func (s *Store) Dir() string { return s.dir }

// Close releases the account directory. Later operations fail with
// ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.wipeCache()
	return s.lock.release()
}

// LoadAll returns a snapshot of the account's state. The first call reads the
// record files; absent or damaged files contribute whatever could be decoded.
func (s *Store) LoadAll() domain.Task[domain.OmemoData] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Resolved(domain.OmemoData{}, ErrClosed)
	}
	s.ensureLoaded()
	return domain.Resolved(s.cache.snapshot(), nil)
}

// SetOwnDevice replaces the own-device record. A nil device clears it and
// removes the record file.
func (s *Store) SetOwnDevice(device *domain.OwnDevice) domain.Task[domain.Nothing] {
	return s.mutate(codec.KindOwnDevice, func(c *cache) error {
		if device == nil {
			s.log.Debug("clearing own device")
		} else {
			s.log.Debug("setting own device", "device", device.ID, "label", device.Label,
				"fingerprint", crypto.Fingerprint(device.PublicIdentityKey))
		}
		c.setOwnDevice(device)
		return nil
	})
}

// AddSignedPreKeyPair stores a signed pre-key pair under id, replacing any
// pair with the same id.
func (s *Store) AddSignedPreKeyPair(id domain.KeyID, pair domain.SignedPreKeyPair) domain.Task[domain.Nothing] {
	return s.mutate(codec.KindSignedPreKeyPairs, func(c *cache) error {
		c.addSignedPreKeyPair(id, pair)
		return nil
	})
}

// RemoveSignedPreKeyPair drops the signed pre-key pair id if present.
func (s *Store) RemoveSignedPreKeyPair(id domain.KeyID) domain.Task[domain.Nothing] {
	return s.mutate(codec.KindSignedPreKeyPairs, func(c *cache) error {
		if !c.removeSignedPreKeyPair(id) {
			s.log.Debug("signed pre-key pair not found", "id", id)
		}
		return nil
	})
}

// AddPreKeyPairs stores every pair in pairs with a single file rewrite.
func (s *Store) AddPreKeyPairs(pairs domain.PreKeyPairs) domain.Task[domain.Nothing] {
	return s.mutate(codec.KindPreKeyPairs, func(c *cache) error {
		c.addPreKeyPairs(pairs)
		return nil
	})
}

// RemovePreKeyPair drops the pre-key pair id if present.
func (s *Store) RemovePreKeyPair(id domain.KeyID) domain.Task[domain.Nothing] {
	return s.mutate(codec.KindPreKeyPairs, func(c *cache) error {
		if !c.removePreKeyPair(id) {
			s.log.Debug("pre-key pair not found", "id", id)
		}
		return nil
	})
}

// AddDevice stores device as jid's device id. Device id 0 is rejected with
// ErrReservedDeviceID and nothing is changed.
func (s *Store) AddDevice(jid string, id domain.DeviceID, device domain.Device) domain.Task[domain.Nothing] {
	return s.mutate(codec.KindDevices, func(c *cache) error {
		return c.addDevice(jid, id, device)
	})
}

// RemoveDevice drops one device of jid, and jid itself once it has no
// devices left.
func (s *Store) RemoveDevice(jid string, id domain.DeviceID) domain.Task[domain.Nothing] {
	return s.mutate(codec.KindDevices, func(c *cache) error {
		if !c.removeDevice(jid, id) {
			s.log.Debug("device not found", "jid", jid, "device", id)
		}
		return nil
	})
}

// RemoveDevices drops every device of jid.
func (s *Store) RemoveDevices(jid string) domain.Task[domain.Nothing] {
	return s.mutate(codec.KindDevices, func(c *cache) error {
		if !c.removeDevices(jid) {
			s.log.Debug("contact not found", "jid", jid)
		}
		return nil
	})
}

// ResetAll empties the store and deletes its record files, so the key
// material does not come back on the next load.
func (s *Store) ResetAll() domain.Task[domain.Nothing] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Resolved(domain.Nothing{}, ErrClosed)
	}
	s.wipeCache()
	s.cache = newCache()
	s.loaded = true
	s.unreadable = nil

	var errs []error
	for _, kind := range codec.Kinds {
		if err := removeFile(recordPath(s.dir, kind)); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", kind, err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		s.log.Error("reset left record files behind", "error", err)
	} else {
		s.log.Info("omemo state reset")
	}
	return domain.Resolved(domain.Nothing{}, err)
}

// Migrate rewrites every record file in the store's configured format.
func (s *Store) Migrate() domain.Task[domain.Nothing] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Resolved(domain.Nothing{}, ErrClosed)
	}
	s.ensureLoaded()

	var errs []error
	for _, kind := range codec.Kinds {
		if err := s.checkReadable(kind); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.flush(kind); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if err == nil {
		s.log.Info("record files rewritten", "format", s.codec.Format())
	}
	return domain.Resolved(domain.Nothing{}, err)
}

// mutate applies fn to the cache and rewrites kind's record file. A store
// that was never loaded is loaded first so the rewrite cannot drop entries
// that are only on disk.
func (s *Store) mutate(kind codec.Kind, fn func(*cache) error) domain.Task[domain.Nothing] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Resolved(domain.Nothing{}, ErrClosed)
	}
	if !s.loaded {
		s.log.Debug("mutation before first load; loading record files")
		s.ensureLoaded()
	}
	if err := s.checkReadable(kind); err != nil {
		s.log.Warn("refusing to overwrite unreadable record file", "record", kind.String(), "error", err)
		return domain.Resolved(domain.Nothing{}, err)
	}
	if err := fn(&s.cache); err != nil {
		s.log.Warn("rejected store update", "record", kind.String(), "error", err)
		return domain.Resolved(domain.Nothing{}, err)
	}
	return domain.Resolved(domain.Nothing{}, s.flush(kind))
}

// flush rewrites kind's record file from the cache. On failure the cache
// keeps the change and the file keeps its previous content.
func (s *Store) flush(kind codec.Kind) error {
	path := recordPath(s.dir, kind)

	var (
		b   []byte
		err error
	)
	switch kind {
	case codec.KindOwnDevice:
		if s.cache.ownDevice == nil {
			if err := removeFile(path); err != nil {
				s.log.Error("own-device file not removed", "error", err)
				return fmt.Errorf("store: removing %s: %w", kind, err)
			}
			return nil
		}
		b, err = s.codec.EncodeOwnDevice(*s.cache.ownDevice)
	case codec.KindSignedPreKeyPairs:
		b, err = s.codec.EncodeSignedPreKeyPairs(s.cache.signedPreKeyPairs)
	case codec.KindPreKeyPairs:
		b, err = s.codec.EncodePreKeyPairs(s.cache.preKeyPairs)
	case codec.KindDevices:
		b, err = s.codec.EncodeDevices(s.cache.devices)
	default:
		err = fmt.Errorf("unknown record kind %d", kind)
	}
	if err == nil {
		err = writeFile(path, b, fileMode)
	}
	if err != nil {
		err = fmt.Errorf("store: writing %s: %w", kind, err)
		s.log.Error("record file not written; memory is ahead of disk", "record", kind.String(), "error", err)
		return err
	}
	s.log.Debug("record file written", "record", kind.String(), "bytes", len(b))
	return nil
}

func (s *Store) checkReadable(kind codec.Kind) error {
	if err, ok := s.unreadable[kind]; ok {
		return fmt.Errorf("%w: %s: %v", ErrUnreadableRecord, kind, err)
	}
	return nil
}

func (s *Store) wipeCache() {
	if od := s.cache.ownDevice; od != nil {
		crypto.Wipe(od.PrivateIdentityKey)
	}
	for _, p := range s.cache.signedPreKeyPairs {
		crypto.Wipe(p.Data)
	}
	for _, b := range s.cache.preKeyPairs {
		crypto.Wipe(b)
	}
	for _, devices := range s.cache.devices {
		for _, d := range devices {
			crypto.Wipe(d.Session)
		}
	}
}

// Compile-time assertion that Store implements domain.OmemoStore.
var _ domain.OmemoStore = (*Store)(nil)
