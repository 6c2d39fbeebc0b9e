package commands

import (
	"fmt"
	"strconv"

	"omemostore/internal/domain"
	"omemostore/internal/store"
)

// withStore opens an existing account, runs fn and closes the store again.
func withStore(account string, fn func(*store.Store) error) error {
	s, err := wire.OpenExistingStore(domain.AccountName(account))
	if err != nil {
		return fmt.Errorf("opening %s: %w", account, err)
	}
	defer s.Close()
	return fn(s)
}

// load returns the state of s.
func load(s *store.Store) (domain.OmemoData, error) {
	return s.LoadAll().Wait()
}

func parseDeviceID(s string) (domain.DeviceID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid device id %q: %w", s, err)
	}
	return domain.DeviceID(n), nil
}
