//go:build !unix

package store

// Advisory locking and directory syncing are unix only; elsewhere the
// in-process mutex is the only protection.

type dirLock struct{}

func lockDir(string) (*dirLock, error) { return &dirLock{}, nil }

func (l *dirLock) release() error { return nil }

func syncDir(string) error { return nil }
