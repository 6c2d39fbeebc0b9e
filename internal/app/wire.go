package app

import (
	"io"
	"log/slog"

	"omemostore/internal/codec"
	"omemostore/internal/crypto"
	"omemostore/internal/domain"
	"omemostore/internal/store"
)

// Wire bundles everything needed to open account stores.
type Wire struct {
	Root    string
	Logger  *slog.Logger
	Options store.Options
}

// NewWire constructs the store options from cfg. Logs go to logOut.
func NewWire(cfg *Config, logOut io.Writer) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	root, err := cfg.RootDir()
	if err != nil {
		return nil, err
	}
	logger, err := cfg.NewLogger(logOut)
	if err != nil {
		return nil, err
	}
	format, err := codec.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	var sealer *codec.Sealer
	if cfg.Seal.Enabled {
		pass, err := cfg.Passphrase()
		if err != nil {
			return nil, err
		}
		sealer, err = codec.NewSealer(pass, cfg.Seal.Scrypt)
		crypto.Wipe(pass)
		if err != nil {
			return nil, err
		}
	}

	return &Wire{
		Root:   root,
		Logger: logger,
		Options: store.Options{
			Format:      format,
			Sealer:      sealer,
			DisableLock: !cfg.Lock,
			Logger:      logger,
		},
	}, nil
}

// OpenStore opens the store of account.
func (w *Wire) OpenStore(account domain.AccountName) (*store.Store, error) {
	return store.Open(w.Root, account, w.Options)
}

// OpenExistingStore opens the store of account and fails with
// store.ErrNoAccount when the account has no directory yet.
func (w *Wire) OpenExistingStore(account domain.AccountName) (*store.Store, error) {
	opts := w.Options
	opts.MustExist = true
	return store.Open(w.Root, account, opts)
}

// Open opens the store of account behind the domain interface.
func (w *Wire) Open(account domain.AccountName) (domain.OmemoStore, error) {
	s, err := w.OpenStore(account)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Accounts lists the accounts that have a store below the root.
func (w *Wire) Accounts() ([]domain.AccountName, error) {
	return store.ListAccounts(w.Root)
}

// Close wipes the sealing keys.
func (w *Wire) Close() {
	if w.Options.Sealer != nil {
		w.Options.Sealer.Close()
	}
}

// Compile-time assertion that Wire implements domain.StoreOpener.
var _ domain.StoreOpener = (*Wire)(nil)
