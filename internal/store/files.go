package store

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"omemostore/internal/codec"
	"omemostore/internal/domain"
)

const (
	dirMode  os.FileMode = 0o700
	fileMode os.FileMode = 0o600

	lockFilename = ".lock"
)

// ErrEmptyAccount is returned when an account name is empty.
var ErrEmptyAccount = errors.New("store: empty account name")

// EscapeAccountName percent-encodes name into a directory name. Unreserved
// characters (A-Z a-z 0-9 - . _ ~) are kept and every other byte of the UTF-8
// encoding becomes %XX, matching QUrl::toPercentEncoding. The names "." and
// ".." have their dots encoded as well.
func EscapeAccountName(name domain.AccountName) string {
	const hex = "0123456789ABCDEF"
	s := string(name)
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) && !(c == '.' && (s == "." || s == "..")) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

// UnescapeAccountName reverses EscapeAccountName.
func UnescapeAccountName(dir string) (domain.AccountName, error) {
	s, err := url.PathUnescape(dir)
	if err != nil {
		return "", fmt.Errorf("store: %q is not an account directory: %w", dir, err)
	}
	return domain.AccountName(s), nil
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// AccountDir returns the directory holding account's record files.
func AccountDir(root string, account domain.AccountName) string {
	return filepath.Join(root, EscapeAccountName(account))
}

// recordPath returns the path of kind's record file inside dir.
func recordPath(dir string, kind codec.Kind) string {
	return filepath.Join(dir, kind.String())
}

// ListAccounts returns the accounts that have a directory under root, sorted.
// A missing root holds no accounts.
func ListAccounts(root string) ([]domain.AccountName, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []domain.AccountName
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		// Only names EscapeAccountName produces belong to accounts.
		name, err := UnescapeAccountName(e.Name())
		if err != nil || name == "" || EscapeAccountName(name) != e.Name() {
			continue
		}
		out = append(out, name)
	}
	slices.Sort(out)
	return out, nil
}
